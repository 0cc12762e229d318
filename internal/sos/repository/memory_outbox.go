package repository

import (
	"context"
	"sync"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/models"
)

// MemoryOutbox records domain events in memory. Pairs with MemoryRepository
// for tests and DB-less runs; events are not delivered anywhere.
type MemoryOutbox struct {
	mu     sync.Mutex
	events []models.DomainEvent
}

func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{}
}

func (o *MemoryOutbox) Add(ctx context.Context, tx Tx, event models.DomainEvent) error {
	if event == nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
	return nil
}

func (o *MemoryOutbox) Events() []models.DomainEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.DomainEvent(nil), o.events...)
}
