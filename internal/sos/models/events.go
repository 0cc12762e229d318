package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

type AlertSubmitted struct {
	eventID    uuid.UUID
	alertID    uuid.UUID
	service    ServiceType
	target     TargetType
	occurredAt time.Time
}

func NewAlertSubmitted(alertID uuid.UUID, service ServiceType, target TargetType) *AlertSubmitted {
	return &AlertSubmitted{
		eventID:    uuid.New(),
		alertID:    alertID,
		service:    service,
		target:     target,
		occurredAt: time.Now(),
	}
}

// Реализация интерфейса DomainEvent
func (e *AlertSubmitted) EventID() uuid.UUID     { return e.eventID }
func (e *AlertSubmitted) EventType() string      { return "AlertSubmitted" }
func (e *AlertSubmitted) AggregateID() uuid.UUID { return e.alertID }
func (e *AlertSubmitted) OccurredAt() time.Time  { return e.occurredAt }

func (e *AlertSubmitted) Service() ServiceType { return e.service }
func (e *AlertSubmitted) Target() TargetType   { return e.target }

func (e *AlertSubmitted) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID   `json:"event_id"`
		AlertID    uuid.UUID   `json:"alert_id"`
		Service    ServiceType `json:"service"`
		Target     TargetType  `json:"target"`
		OccurredAt time.Time   `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		AlertID:    e.alertID,
		Service:    e.service,
		Target:     e.target,
		OccurredAt: e.occurredAt,
	})
}

type AlertStatusChanged struct {
	eventID    uuid.UUID
	alertID    uuid.UUID
	from       Status
	to         Status
	occurredAt time.Time
}

func NewAlertStatusChanged(alertID uuid.UUID, from, to Status) *AlertStatusChanged {
	return &AlertStatusChanged{
		eventID:    uuid.New(),
		alertID:    alertID,
		from:       from,
		to:         to,
		occurredAt: time.Now(),
	}
}

func (e *AlertStatusChanged) EventID() uuid.UUID     { return e.eventID }
func (e *AlertStatusChanged) EventType() string      { return "AlertStatusChanged" }
func (e *AlertStatusChanged) AggregateID() uuid.UUID { return e.alertID }
func (e *AlertStatusChanged) OccurredAt() time.Time  { return e.occurredAt }

// Геттеры для payload
func (e *AlertStatusChanged) From() Status { return e.from }
func (e *AlertStatusChanged) To() Status   { return e.to }

func (e *AlertStatusChanged) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID `json:"event_id"`
		AlertID    uuid.UUID `json:"alert_id"`
		From       Status    `json:"from"`
		To         Status    `json:"to"`
		OccurredAt time.Time `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		AlertID:    e.alertID,
		From:       e.from,
		To:         e.to,
		OccurredAt: e.occurredAt,
	})
}

type EvidenceAttached struct {
	eventID    uuid.UUID
	alertID    uuid.UUID
	audioURL   string
	imageCount int
	occurredAt time.Time
}

func NewEvidenceAttached(alertID uuid.UUID, ev Evidence) *EvidenceAttached {
	return &EvidenceAttached{
		eventID:    uuid.New(),
		alertID:    alertID,
		audioURL:   ev.AudioURL,
		imageCount: len(ev.ImageURLs),
		occurredAt: time.Now(),
	}
}

func (e *EvidenceAttached) EventID() uuid.UUID     { return e.eventID }
func (e *EvidenceAttached) EventType() string      { return "EvidenceAttached" }
func (e *EvidenceAttached) AggregateID() uuid.UUID { return e.alertID }
func (e *EvidenceAttached) OccurredAt() time.Time  { return e.occurredAt }

func (e *EvidenceAttached) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID `json:"event_id"`
		AlertID    uuid.UUID `json:"alert_id"`
		AudioURL   string    `json:"audio_url,omitempty"`
		ImageCount int       `json:"image_count"`
		OccurredAt time.Time `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		AlertID:    e.alertID,
		AudioURL:   e.audioURL,
		ImageCount: e.imageCount,
		OccurredAt: e.occurredAt,
	})
}
