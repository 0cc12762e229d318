package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/domain"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/models"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/repository"
)

type Service struct {
	repo   repository.AlertRepository
	outbox repository.OutboxRepository
	clock  func() time.Time
	idGen  func() uuid.UUID
}

func New(repo repository.AlertRepository, outbox repository.OutboxRepository) *Service {
	return &Service{
		repo:   repo,
		outbox: outbox,
		clock:  time.Now,
		idGen:  uuid.New,
	}
}

// GetAlert returns an alert by id. It simply delegates to the repository and
// passes through domain errors (e.g. models.ErrNotFound) so the transport
// layer can map them to HTTP.
func (s *Service) GetAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAlerts(ctx context.Context, limit int) ([]*models.Alert, error) {
	return s.repo.List(ctx, limit)
}

// CreateAlert publishes a new alert record. Service owns invariants: id,
// initial status, timestamps, draft validation. The AlertSubmitted event is
// appended to the outbox in the same transaction.
func (s *Service) CreateAlert(ctx context.Context, draft models.AlertDraft) (*models.Alert, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	now := s.clock()

	a := &models.Alert{
		ID:            s.idGen(),
		RequesterID:   draft.RequesterID,
		RequesterName: draft.RequesterName,
		Service:       draft.Service,
		Target:        draft.Target,
		Status:        models.SubmittedStatus,
		Location:      draft.Location,
		Medical:       draft.Medical,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // откатится если не сделаем Commit

	if err := s.repo.Create(ctx, tx, a); err != nil {
		return nil, err
	}

	event := models.NewAlertSubmitted(a.ID, a.Service, a.Target)
	if err := s.outbox.Add(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("add outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return a, nil
}

// AttachEvidence patches the evidence field of an already-published alert.
// Only the lifecycle coordinator calls this, once per activation; a second
// attach is a conflict.
func (s *Service) AttachEvidence(ctx context.Context, id uuid.UUID, ev models.Evidence) (*models.Alert, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Evidence != nil {
		return nil, models.ErrConflict
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	updated, err := s.repo.AttachEvidenceTx(ctx, tx, id, ev)
	if err != nil {
		return nil, err
	}

	event := models.NewEvidenceAttached(id, ev)
	if err := s.outbox.Add(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("add outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return updated, nil
}

func toDomainStatus(st models.Status) (domain.Status, error) {
	switch st {
	case models.SubmittedStatus:
		return domain.Submitted, nil
	case models.ReviewedStatus:
		return domain.Reviewed, nil
	case models.AssignedStatus:
		return domain.Assigned, nil
	case models.InProgressStatus:
		return domain.InProgress, nil
	case models.CompletedStatus:
		return domain.Completed, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", models.ErrInvalidArgument, st)
	}
}

// ChangeStatus moves an alert through the dispatcher workflow, validating
// the transition and recording it atomically with the status-changed event.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, to models.Status) (*models.Alert, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fromDom, err := toDomainStatus(a.Status)
	if err != nil {
		return nil, err
	}
	toDom, err := toDomainStatus(to)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateTransition(fromDom, toDom); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidArgument, err)
	}

	// Если статус уже такой — ничего не делаем
	if a.Status == to {
		return a, nil
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	updated, err := s.repo.UpdateStatusTx(ctx, tx, id, to)
	if err != nil {
		return nil, err
	}

	event := models.NewAlertStatusChanged(id, a.Status, to)
	if err := s.outbox.Add(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("add outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return updated, nil
}

// Submit and Attach adapt the service to the lifecycle coordinator's
// Submitter interface.
func (s *Service) Submit(ctx context.Context, draft models.AlertDraft) (*models.Alert, error) {
	return s.CreateAlert(ctx, draft)
}

func (s *Service) Attach(ctx context.Context, id uuid.UUID, ev models.Evidence) (*models.Alert, error) {
	return s.AttachEvidence(ctx, id, ev)
}
