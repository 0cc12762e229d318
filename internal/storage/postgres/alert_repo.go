package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/models"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/repository"
)

type AlertRepo struct {
	db *sqlx.DB
}

func NewAlertRepo(db *sqlx.DB) *AlertRepo {
	return &AlertRepo{db: db}
}

// alertRow is the flat scan target; location/medical/evidence live in jsonb
// columns and are unpacked into the model.
type alertRow struct {
	ID            uuid.UUID       `db:"id"`
	RequesterID   string          `db:"requester_id"`
	RequesterName string          `db:"requester_name"`
	Service       string          `db:"service"`
	Target        string          `db:"target"`
	Status        string          `db:"status"`
	Location      json.RawMessage `db:"location"`
	Medical       json.RawMessage `db:"medical"`
	Evidence      json.RawMessage `db:"evidence"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

const alertColumns = `id, requester_id, requester_name, service, target, status, location, medical, evidence, created_at, updated_at`

func (r alertRow) toModel() (*models.Alert, error) {
	a := &models.Alert{
		ID:            r.ID,
		RequesterID:   r.RequesterID,
		RequesterName: r.RequesterName,
		Service:       models.ServiceType(r.Service),
		Target:        models.TargetType(r.Target),
		Status:        models.Status(r.Status),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if len(r.Location) > 0 {
		if err := json.Unmarshal(r.Location, &a.Location); err != nil {
			return nil, fmt.Errorf("unmarshal location: %w", err)
		}
	}
	if len(r.Medical) > 0 {
		a.Medical = &models.MedicalInfo{}
		if err := json.Unmarshal(r.Medical, a.Medical); err != nil {
			return nil, fmt.Errorf("unmarshal medical: %w", err)
		}
	}
	if len(r.Evidence) > 0 {
		a.Evidence = &models.Evidence{}
		if err := json.Unmarshal(r.Evidence, a.Evidence); err != nil {
			return nil, fmt.Errorf("unmarshal evidence: %w", err)
		}
	}
	return a, nil
}

func (r *AlertRepo) BeginTx(ctx context.Context) (repository.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

func sqlxTx(tx repository.Tx) (*sqlx.Tx, error) {
	t, ok := tx.(*sqlx.Tx)
	if !ok {
		return nil, fmt.Errorf("unexpected tx type %T", tx)
	}
	return t, nil
}

func (r *AlertRepo) Create(ctx context.Context, tx repository.Tx, a *models.Alert) error {
	t, err := sqlxTx(tx)
	if err != nil {
		return err
	}

	location, err := json.Marshal(a.Location)
	if err != nil {
		return fmt.Errorf("marshal location: %w", err)
	}
	var medical []byte
	if a.Medical != nil {
		if medical, err = json.Marshal(a.Medical); err != nil {
			return fmt.Errorf("marshal medical: %w", err)
		}
	}

	const q = `
		INSERT INTO alerts (id, requester_id, requester_name, service, target, status, location, medical, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = t.ExecContext(ctx, q,
		a.ID, a.RequesterID, a.RequesterName, a.Service, a.Target, a.Status,
		location, medical, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("alert create: %w", err)
	}
	return nil
}

func (r *AlertRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	q := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	var row alertRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("alert get by id: %w", err)
	}

	return row.toModel()
}

func (r *AlertRepo) List(ctx context.Context, limit int) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + alertColumns + ` FROM alerts ORDER BY created_at DESC LIMIT $1`

	var rows []alertRow
	if err := r.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return nil, fmt.Errorf("alert list: %w", err)
	}

	out := make([]*models.Alert, 0, len(rows))
	for _, row := range rows {
		a, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *AlertRepo) UpdateStatusTx(ctx context.Context, tx repository.Tx, id uuid.UUID, status models.Status) (*models.Alert, error) {
	t, err := sqlxTx(tx)
	if err != nil {
		return nil, err
	}

	q := `
		UPDATE alerts
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + alertColumns

	var row alertRow
	// Вместо r.db используем tx!
	if err := t.GetContext(ctx, &row, q, id, status); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("alert update status tx: %w", err)
	}

	return row.toModel()
}

func (r *AlertRepo) AttachEvidenceTx(ctx context.Context, tx repository.Tx, id uuid.UUID, ev models.Evidence) (*models.Alert, error) {
	t, err := sqlxTx(tx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal evidence: %w", err)
	}

	q := `
		UPDATE alerts
		SET evidence = $2, updated_at = NOW()
		WHERE id = $1 AND evidence IS NULL
		RETURNING ` + alertColumns

	var row alertRow
	if err := t.GetContext(ctx, &row, q, id, payload); err != nil {
		if err == sql.ErrNoRows {
			// Либо записи нет, либо evidence уже прикреплён
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("alert attach evidence tx: %w", err)
	}

	return row.toModel()
}
