package models

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	SubmittedStatus  Status = "submitted"
	ReviewedStatus   Status = "reviewed"
	AssignedStatus   Status = "assigned"
	InProgressStatus Status = "in-progress"
	CompletedStatus  Status = "completed"
)

type ServiceType string

const (
	Police      ServiceType = "police"
	Ambulance   ServiceType = "ambulance"
	Fire        ServiceType = "fire"
	AllServices ServiceType = "all"
)

func (s ServiceType) Valid() bool {
	switch s {
	case Police, Ambulance, Fire, AllServices:
		return true
	}
	return false
}

type TargetType string

const (
	TargetMyself TargetType = "myself"
	TargetOthers TargetType = "others"
)

func (t TargetType) Valid() bool {
	return t == TargetMyself || t == TargetOthers
}

type Location struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy,omitempty"`
	Address  string  `json:"address,omitempty"`
}

type MedicalInfo struct {
	BloodGroup string   `json:"blood_group,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
	Allergies  string   `json:"allergies,omitempty"`
}

// Alert is the persisted emergency report visible to dispatchers.
// Evidence is nil until the capture pipeline resolves for the activation
// that produced this alert; only the lifecycle coordinator patches it in.
type Alert struct {
	ID            uuid.UUID    `db:"id"`
	RequesterID   string       `db:"requester_id"`
	RequesterName string       `db:"requester_name"`
	Service       ServiceType  `db:"service"`
	Target        TargetType   `db:"target"`
	Status        Status       `db:"status"`
	Location      Location     `db:"-"`
	Medical       *MedicalInfo `db:"-"`
	Evidence      *Evidence    `db:"-"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

// AlertDraft carries the user-supplied part of an alert. Identity, status
// and timestamps are owned by the service.
type AlertDraft struct {
	RequesterID   string
	RequesterName string
	Service       ServiceType
	Target        TargetType
	Location      Location
	Medical       *MedicalInfo
}

func (d AlertDraft) Validate() error {
	if d.RequesterID == "" {
		return ErrInvalidArgument
	}
	if !d.Service.Valid() {
		return ErrInvalidArgument
	}
	if !d.Target.Valid() {
		return ErrInvalidArgument
	}
	return nil
}
