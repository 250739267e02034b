package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
)

// GoHighLevel entity names, in processing order.
const (
	EntityContacts      = "contacts"
	EntityOpportunities = "opportunities"
	EntityAppointments  = "appointments"
)

// GHLSyncer mirrors contacts, opportunities and appointments.
type GHLSyncer struct {
	clients  provider.ClientFactory
	mirror   repository.CRMMirrorRepository
	pageSize int
	logger   *zap.Logger
}

func NewGHLSyncer(clients provider.ClientFactory, mirror repository.CRMMirrorRepository, logger *zap.Logger) *GHLSyncer {
	return &GHLSyncer{
		clients:  clients,
		mirror:   mirror,
		pageSize: provider.DefaultPageSize,
		logger:   logger,
	}
}

func (s *GHLSyncer) Provider() provider.ProviderType {
	return provider.ProviderGoHighLevel
}

func (s *GHLSyncer) Steps(ownerID uuid.UUID, cred provider.Credential) []SyncStep {
	api := s.clients.GHL(cred)

	return []SyncStep{
		{Entity: EntityContacts, Run: func(ctx context.Context, createdAfter int64) (int, error) {
			return paginate(ctx, api.ListContacts, createdAfter, s.pageSize, func(ctx context.Context, c provider.Contact) (bool, error) {
				var tags datatypes.JSON
				if len(c.Tags) > 0 {
					raw, err := json.Marshal(c.Tags)
					if err != nil {
						return false, fmt.Errorf("failed to encode tags: %w", err)
					}
					tags = datatypes.JSON(raw)
				}
				return true, s.mirror.UpsertContact(ctx, &model.GHLContact{
					OwnerID:           ownerID,
					ExternalID:        c.ExternalID,
					Email:             optionalString(c.Email),
					FirstName:         optionalString(c.FirstName),
					LastName:          optionalString(c.LastName),
					Phone:             optionalString(c.Phone),
					Source:            optionalString(c.Source),
					Tags:              tags,
					CreatedAtProvider: c.CreatedAt,
				})
			})
		}},
		{Entity: EntityOpportunities, Run: func(ctx context.Context, createdAfter int64) (int, error) {
			return paginate(ctx, api.ListOpportunities, createdAfter, s.pageSize, func(ctx context.Context, o provider.Opportunity) (bool, error) {
				contactID, err := s.mirror.FindContactID(ctx, ownerID, o.ContactExternalID)
				if err != nil {
					return false, err
				}
				return true, s.mirror.UpsertOpportunity(ctx, &model.GHLOpportunity{
					OwnerID:           ownerID,
					ExternalID:        o.ExternalID,
					ContactID:         contactID,
					Name:              optionalString(o.Name),
					Status:            o.Status,
					MonetaryValue:     o.MonetaryValue,
					PipelineID:        optionalString(o.PipelineID),
					StageID:           optionalString(o.StageID),
					ClosedAt:          o.ClosedAt,
					CreatedAtProvider: o.CreatedAt,
				})
			})
		}},
		{Entity: EntityAppointments, Run: func(ctx context.Context, createdAfter int64) (int, error) {
			return paginate(ctx, api.ListAppointments, createdAfter, s.pageSize, func(ctx context.Context, a provider.Appointment) (bool, error) {
				contactID, err := s.mirror.FindContactID(ctx, ownerID, a.ContactExternalID)
				if err != nil {
					return false, err
				}
				return true, s.mirror.UpsertAppointment(ctx, &model.GHLAppointment{
					OwnerID:           ownerID,
					ExternalID:        a.ExternalID,
					ContactID:         contactID,
					Title:             optionalString(a.Title),
					Status:            a.Status,
					StartTime:         a.StartTime,
					EndTime:           a.EndTime,
					CreatedAtProvider: a.CreatedAt,
				})
			})
		}},
	}
}
