package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/models"
)

var timeNow = time.Now

// MemoryRepository keeps alerts in memory; used by tests and by DB-less
// runs of the service.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID]*models.Alert
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data: make(map[uuid.UUID]*models.Alert),
	}
}

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

func (r *MemoryRepository) BeginTx(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return noopTx{}, nil
}

func (r *MemoryRepository) Create(ctx context.Context, tx Tx, a *models.Alert) error {
	if a == nil {
		return models.ErrInvalidArgument
	}
	if a.ID == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[a.ID]; exists {
		return models.ErrConflict
	}

	// Защитная копия, чтобы внешняя сторона не могла мутировать хранимый объект
	cp := copyAlert(a)
	r.data[a.ID] = cp

	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.data[id]
	if !ok {
		return nil, models.ErrNotFound
	}

	return copyAlert(a), nil
}

func (r *MemoryRepository) List(ctx context.Context, limit int) ([]*models.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Alert, 0, len(r.data))
	for _, a := range r.data {
		out = append(out, copyAlert(a))
	}
	// Newest first, как на дашборде диспетчера
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) UpdateStatusTx(ctx context.Context, tx Tx, id uuid.UUID, status models.Status) (*models.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.data[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = timeNow()
	return copyAlert(a), nil
}

func (r *MemoryRepository) AttachEvidenceTx(ctx context.Context, tx Tx, id uuid.UUID, ev models.Evidence) (*models.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.data[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	evCopy := ev
	a.Evidence = &evCopy
	a.UpdatedAt = timeNow()
	return copyAlert(a), nil
}

func copyAlert(a *models.Alert) *models.Alert {
	cp := *a
	if a.Medical != nil {
		m := *a.Medical
		m.Conditions = append([]string(nil), a.Medical.Conditions...)
		cp.Medical = &m
	}
	if a.Evidence != nil {
		e := *a.Evidence
		e.ImageURLs = append([]string(nil), a.Evidence.ImageURLs...)
		cp.Evidence = &e
	}
	return &cp
}
