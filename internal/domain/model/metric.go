package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/entity"
)

// RevenueMetric is the revenue aggregate for one owner and period. PeriodEnd is
// exclusive. Money is in minor units.
type RevenueMetric struct {
	ID          int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:ux_revenue_metrics_owner_period,priority:1" json:"owner_id"`
	PeriodStart time.Time         `gorm:"not null;uniqueIndex:ux_revenue_metrics_owner_period,priority:2" json:"period_start"`
	PeriodType  entity.PeriodType `gorm:"size:16;not null;uniqueIndex:ux_revenue_metrics_owner_period,priority:3" json:"period_type"`
	PeriodEnd   time.Time         `gorm:"not null" json:"period_end"`

	TotalRevenue        int64 `gorm:"not null;default:0" json:"total_revenue"`
	RefundedRevenue     int64 `gorm:"not null;default:0" json:"refunded_revenue"`
	NetRevenue          int64 `gorm:"not null;default:0" json:"net_revenue"`
	ChargeCount         int64 `gorm:"not null;default:0" json:"charge_count"`
	RefundCount         int64 `gorm:"not null;default:0" json:"refund_count"`
	CustomerCount       int64 `gorm:"not null;default:0" json:"customer_count"`
	NewCustomerCount    int64 `gorm:"not null;default:0" json:"new_customer_count"`
	ActiveSubscriptions int64 `gorm:"not null;default:0" json:"active_subscriptions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RevenueMetric) TableName() string { return "revenue_metrics" }

// CRMMetric is the CRM aggregate for one owner and period. PeriodEnd is exclusive.
type CRMMetric struct {
	ID          int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:ux_crm_metrics_owner_period,priority:1" json:"owner_id"`
	PeriodStart time.Time         `gorm:"not null;uniqueIndex:ux_crm_metrics_owner_period,priority:2" json:"period_start"`
	PeriodType  entity.PeriodType `gorm:"size:16;not null;uniqueIndex:ux_crm_metrics_owner_period,priority:3" json:"period_type"`
	PeriodEnd   time.Time         `gorm:"not null" json:"period_end"`

	NewLeads           int64 `gorm:"not null;default:0" json:"new_leads"`
	TotalLeads         int64 `gorm:"not null;default:0" json:"total_leads"`
	AppointmentsBooked int64 `gorm:"not null;default:0" json:"appointments_booked"`
	AppointmentsShowed int64 `gorm:"not null;default:0" json:"appointments_showed"`
	AppointmentsNoShow int64 `gorm:"not null;default:0" json:"appointments_no_show"`
	// ShowRate is AppointmentsShowed / AppointmentsBooked, 0 when nothing was booked.
	ShowRate          float64         `gorm:"not null;default:0" json:"show_rate"`
	OpportunitiesWon  int64           `gorm:"not null;default:0" json:"opportunities_won"`
	OpportunitiesLost int64           `gorm:"not null;default:0" json:"opportunities_lost"`
	PipelineValue     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"pipeline_value"`
	WonValue          decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"won_value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CRMMetric) TableName() string { return "crm_metrics" }
