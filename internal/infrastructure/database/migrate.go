package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
)

// Models lists every table owned by the service.
var Models = []interface{}{
	&model.Integration{},
	&model.StripeCustomer{},
	&model.StripeCharge{},
	&model.StripeInvoice{},
	&model.StripeSubscription{},
	&model.GHLContact{},
	&model.GHLOpportunity{},
	&model.GHLAppointment{},
	&model.WebhookEvent{},
	&model.RevenueMetric{},
	&model.CRMMetric{},
	&model.AuditLog{},
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := db.AutoMigrate(Models...); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		if err := createPartialIndexes(db); err != nil {
			logger.Error("Failed to create custom indexes", zap.Error(err))
			return err
		}
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createPartialIndexes adds indexes gorm tags cannot express.
func createPartialIndexes(db *gorm.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_webhook_events_unprocessed ON webhook_events (provider, received_at) WHERE processed = false`,
		`CREATE INDEX IF NOT EXISTS idx_ghl_opportunities_open ON ghl_opportunities (owner_id) WHERE status = 'open'`,
		`CREATE INDEX IF NOT EXISTS idx_stripe_subscriptions_owner_canceled ON stripe_subscriptions (owner_id, canceled_at) WHERE status = 'canceled'`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
