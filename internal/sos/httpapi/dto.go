package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/models"
)

type CreateAlertRequest struct {
	RequesterID   string              `json:"requester_id"`
	RequesterName string              `json:"requester_name"`
	Service       models.ServiceType  `json:"service"`
	Target        models.TargetType   `json:"target"`
	Location      models.Location     `json:"location"`
	Medical       *models.MedicalInfo `json:"medical,omitempty"`
}

type AlertResponse struct {
	ID            uuid.UUID           `json:"id"`
	RequesterID   string              `json:"requester_id"`
	RequesterName string              `json:"requester_name"`
	Service       models.ServiceType  `json:"service"`
	Target        models.TargetType   `json:"target"`
	Status        string              `json:"status"`
	Location      models.Location     `json:"location"`
	Medical       *models.MedicalInfo `json:"medical,omitempty"`
	Evidence      *models.Evidence    `json:"evidence,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type ActivateRequest struct {
	RequesterID   string              `json:"requester_id"`
	RequesterName string              `json:"requester_name"`
	Service       models.ServiceType  `json:"service"`
	Target        models.TargetType   `json:"target"`
	Lat           float64             `json:"lat"`
	Lng           float64             `json:"lng"`
	Accuracy      float64             `json:"accuracy"`
	HasFix        bool                `json:"has_fix"`
	Medical       *models.MedicalInfo `json:"medical,omitempty"`
}

type ActivateResponse struct {
	ActivationID uuid.UUID `json:"activation_id"`
	Phase        string    `json:"phase"`
}

type StateResponse struct {
	Phase string `json:"phase"`
}
