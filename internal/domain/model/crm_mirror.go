package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// GoHighLevel opportunity statuses.
const (
	OpportunityStatusOpen = "open"
	OpportunityStatusWon  = "won"
	OpportunityStatusLost = "lost"
)

// Appointment statuses counted as attended or missed.
var (
	AppointmentShowedStatuses = []string{"completed", "done", "showed"}
	AppointmentNoShowStatuses = []string{"no-show", "cancelled", "missed"}
)

// GHLContact mirrors a GoHighLevel contact (a lead).
type GHLContact struct {
	ID                int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_ghl_contacts_owner_external,priority:1;index:idx_ghl_contacts_owner_created,priority:1" json:"owner_id"`
	ExternalID        string         `gorm:"size:255;not null;uniqueIndex:ux_ghl_contacts_owner_external,priority:2" json:"external_id"`
	Email             *string        `gorm:"size:320" json:"email,omitempty"`
	FirstName         *string        `gorm:"size:255" json:"first_name,omitempty"`
	LastName          *string        `gorm:"size:255" json:"last_name,omitempty"`
	Phone             *string        `gorm:"size:64" json:"phone,omitempty"`
	Source            *string        `gorm:"size:255" json:"source,omitempty"`
	Tags              datatypes.JSON `json:"tags,omitempty"`
	CreatedAtProvider time.Time      `gorm:"not null;index:idx_ghl_contacts_owner_created,priority:2" json:"created_at_provider"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (GHLContact) TableName() string { return "ghl_contacts" }

// GHLOpportunity mirrors a GoHighLevel opportunity.
type GHLOpportunity struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_ghl_opportunities_owner_external,priority:1" json:"owner_id"`
	ExternalID        string          `gorm:"size:255;not null;uniqueIndex:ux_ghl_opportunities_owner_external,priority:2" json:"external_id"`
	ContactID         *int64          `gorm:"index" json:"contact_id,omitempty"`
	Name              *string         `gorm:"size:255" json:"name,omitempty"`
	Status            string          `gorm:"size:32;not null;index" json:"status"`
	MonetaryValue     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"monetary_value"`
	PipelineID        *string         `gorm:"size:255" json:"pipeline_id,omitempty"`
	StageID           *string         `gorm:"size:255" json:"stage_id,omitempty"`
	ClosedAt          *time.Time      `json:"closed_at,omitempty"`
	CreatedAtProvider time.Time       `gorm:"not null;index" json:"created_at_provider"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (GHLOpportunity) TableName() string { return "ghl_opportunities" }

// GHLAppointment mirrors a GoHighLevel calendar appointment.
type GHLAppointment struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:ux_ghl_appointments_owner_external,priority:1;index:idx_ghl_appointments_owner_start,priority:1" json:"owner_id"`
	ExternalID        string     `gorm:"size:255;not null;uniqueIndex:ux_ghl_appointments_owner_external,priority:2" json:"external_id"`
	ContactID         *int64     `gorm:"index" json:"contact_id,omitempty"`
	Title             *string    `gorm:"size:255" json:"title,omitempty"`
	Status            string     `gorm:"size:32;not null" json:"status"`
	StartTime         time.Time  `gorm:"not null;index:idx_ghl_appointments_owner_start,priority:2" json:"start_time"`
	EndTime           *time.Time `json:"end_time,omitempty"`
	CreatedAtProvider time.Time  `gorm:"not null" json:"created_at_provider"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (GHLAppointment) TableName() string { return "ghl_appointments" }
