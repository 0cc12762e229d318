package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/models"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/repository"
)

type StoreMock struct {
	mock.Mock
}

type txMock struct {
	mock.Mock
}

func (t *txMock) Commit() error {
	args := t.Called()
	return args.Error(0)
}

func (t *txMock) Rollback() error {
	args := t.Called()
	return args.Error(0)
}

func (m *StoreMock) BeginTx(ctx context.Context) (repository.Tx, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(repository.Tx), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) Create(ctx context.Context, tx repository.Tx, a *models.Alert) error {
	args := m.Called(ctx, tx, a)
	return args.Error(0)
}

func (m *StoreMock) GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Alert), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) List(ctx context.Context, limit int) ([]*models.Alert, error) {
	args := m.Called(ctx, limit)
	if v := args.Get(0); v != nil {
		return v.([]*models.Alert), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) UpdateStatusTx(ctx context.Context, tx repository.Tx, id uuid.UUID, status models.Status) (*models.Alert, error) {
	args := m.Called(ctx, tx, id, status)
	if v := args.Get(0); v != nil {
		return v.(*models.Alert), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) AttachEvidenceTx(ctx context.Context, tx repository.Tx, id uuid.UUID, ev models.Evidence) (*models.Alert, error) {
	args := m.Called(ctx, tx, id, ev)
	if v := args.Get(0); v != nil {
		return v.(*models.Alert), args.Error(1)
	}
	return nil, args.Error(1)
}

type OutboxMock struct {
	mock.Mock
}

func (m *OutboxMock) Add(ctx context.Context, tx repository.Tx, event models.DomainEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

func newTxMock() *txMock {
	tx := new(txMock)
	tx.On("Commit").Return(nil).Maybe()
	tx.On("Rollback").Return(nil).Maybe()
	return tx
}
