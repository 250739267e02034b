package usecase

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/entity"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
)

// CRMAggregationService builds CRM buckets from the GoHighLevel mirror.
type CRMAggregationService struct {
	periodWalker
	mirror  repository.CRMMirrorRepository
	metrics repository.MetricsRepository
}

func NewCRMAggregationService(
	mirror repository.CRMMirrorRepository,
	metrics repository.MetricsRepository,
	clock clockwork.Clock,
	logger *zap.Logger,
) *CRMAggregationService {
	s := &CRMAggregationService{
		mirror:  mirror,
		metrics: metrics,
	}
	s.periodWalker = periodWalker{
		family: FamilyCRM,
		source: s,
		clock:  clock,
		logger: logger.With(zap.String("family", FamilyCRM)),
	}
	return s
}

func (s *CRMAggregationService) earliest(ctx context.Context, ownerID uuid.UUID) (*time.Time, error) {
	return s.mirror.EarliestActivity(ctx, ownerID)
}

func (s *CRMAggregationService) clear(ctx context.Context, ownerID uuid.UUID) error {
	return s.metrics.DeleteCRMMetrics(ctx, ownerID)
}

// compute counts leads, appointment attendance and closed opportunities in the
// window. Pipeline value is the current open pipeline, not window bound.
func (s *CRMAggregationService) compute(ctx context.Context, ownerID uuid.UUID, start, end time.Time, periodType entity.PeriodType) error {
	bucket := &model.CRMMetric{
		OwnerID:       ownerID,
		PeriodType:    periodType,
		PeriodStart:   start,
		PeriodEnd:     end,
		PipelineValue: decimal.Zero,
		WonValue:      decimal.Zero,
	}

	var err error
	if bucket.NewLeads, err = s.mirror.CountContactsCreatedBetween(ctx, ownerID, start, end); err != nil {
		return err
	}
	if bucket.TotalLeads, err = s.mirror.CountContactsCreatedBefore(ctx, ownerID, end); err != nil {
		return err
	}

	appointments, err := s.mirror.ListAppointmentsStartingBetween(ctx, ownerID, start, end)
	if err != nil {
		return err
	}
	bucket.AppointmentsBooked = int64(len(appointments))
	for _, a := range appointments {
		switch {
		case slices.Contains(model.AppointmentShowedStatuses, a.Status):
			bucket.AppointmentsShowed++
		case slices.Contains(model.AppointmentNoShowStatuses, a.Status):
			bucket.AppointmentsNoShow++
		}
	}
	bucket.ShowRate = showRate(bucket.AppointmentsShowed, bucket.AppointmentsBooked)

	closed, err := s.mirror.ListOpportunitiesClosedBetween(ctx, ownerID, start, end)
	if err != nil {
		return err
	}
	for _, o := range closed {
		switch o.Status {
		case model.OpportunityStatusWon:
			bucket.OpportunitiesWon++
			bucket.WonValue = bucket.WonValue.Add(o.MonetaryValue)
		case model.OpportunityStatusLost:
			bucket.OpportunitiesLost++
		}
	}

	open, err := s.mirror.ListOpportunitiesByStatus(ctx, ownerID, model.OpportunityStatusOpen)
	if err != nil {
		return err
	}
	for _, o := range open {
		bucket.PipelineValue = bucket.PipelineValue.Add(o.MonetaryValue)
	}

	return s.metrics.UpsertCRMMetric(ctx, bucket)
}

// showRate is showed/booked clamped to [0, 1], and 0 when nothing was booked.
func showRate(showed, booked int64) float64 {
	if booked <= 0 || showed <= 0 {
		return 0
	}
	rate := float64(showed) / float64(booked)
	if rate > 1 {
		return 1
	}
	return rate
}
