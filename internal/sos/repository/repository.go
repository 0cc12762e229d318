package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/models"
)

// Tx is the minimal transaction handle shared by the postgres and memory
// implementations. Mutating repository methods that must be atomic with an
// outbox append take it explicitly.
type Tx interface {
	Commit() error
	Rollback() error
}

type AlertRepository interface {
	BeginTx(ctx context.Context) (Tx, error)
	Create(ctx context.Context, tx Tx, a *models.Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error)
	List(ctx context.Context, limit int) ([]*models.Alert, error)
	UpdateStatusTx(ctx context.Context, tx Tx, id uuid.UUID, status models.Status) (*models.Alert, error)
	AttachEvidenceTx(ctx context.Context, tx Tx, id uuid.UUID, ev models.Evidence) (*models.Alert, error)
}

type OutboxRepository interface {
	Add(ctx context.Context, tx Tx, event models.DomainEvent) error
}
