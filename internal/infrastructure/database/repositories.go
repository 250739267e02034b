package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SuarfelG/amber-business-health-monitor/internal/adapter/repository"
	domainRepo "github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Integration  domainRepo.IntegrationRepository
	StripeMirror domainRepo.StripeMirrorRepository
	CRMMirror    domainRepo.CRMMirrorRepository
	Webhook      domainRepo.WebhookRepository
	Metrics      domainRepo.MetricsRepository
	Audit        domainRepo.AuditRepository
}

// NewRepositories creates repository instances sharing one connection pool
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Integration:  repository.NewIntegrationRepository(db, logger),
		StripeMirror: repository.NewStripeMirrorRepository(db, logger),
		CRMMirror:    repository.NewCRMMirrorRepository(db, logger),
		Webhook:      repository.NewWebhookRepository(db, logger),
		Metrics:      repository.NewMetricsRepository(db, logger),
		Audit:        repository.NewAuditRepository(db, logger),
	}
}
