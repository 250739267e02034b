package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
)

func TestCRMMirrorRepository_UpsertKeepsFirstCreationTime(t *testing.T) {
	db := newTestDB(t)
	repo := NewCRMMirrorRepository(db, zap.NewNop())
	ctx := context.Background()
	owner := uuid.New()

	email := "lead@example.com"
	require.NoError(t, repo.UpsertContact(ctx, &model.GHLContact{
		OwnerID: owner, ExternalID: "c1", CreatedAtProvider: t0,
		Tags: datatypes.JSON(`["new"]`),
	}))
	require.NoError(t, repo.UpsertContact(ctx, &model.GHLContact{
		OwnerID: owner, ExternalID: "c1", Email: &email, CreatedAtProvider: t0.AddDate(0, 0, 5),
		Tags: datatypes.JSON(`["vip"]`),
	}))

	var contacts []model.GHLContact
	require.NoError(t, db.Where("owner_id = ?", owner).Find(&contacts).Error)
	require.Len(t, contacts, 1)
	require.NotNil(t, contacts[0].Email)
	assert.Equal(t, email, *contacts[0].Email)
	assert.True(t, contacts[0].CreatedAtProvider.Equal(t0))
	assert.JSONEq(t, `["vip"]`, string(contacts[0].Tags))
}

func TestCRMMirrorRepository_CountsAndLists(t *testing.T) {
	db := newTestDB(t)
	repo := NewCRMMirrorRepository(db, zap.NewNop())
	ctx := context.Background()
	owner := uuid.New()
	start, end := t0, t0.AddDate(0, 0, 7)

	for id, at := range map[string]time.Time{
		"c_old":    start.AddDate(0, 0, -10),
		"c_inside": start.Add(time.Hour),
		"c_after":  end,
	} {
		require.NoError(t, repo.UpsertContact(ctx, &model.GHLContact{OwnerID: owner, ExternalID: id, CreatedAtProvider: at}))
	}

	newLeads, err := repo.CountContactsCreatedBetween(ctx, owner, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(1), newLeads)

	total, err := repo.CountContactsCreatedBefore(ctx, owner, end)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	closed := start.Add(2 * time.Hour)
	require.NoError(t, repo.UpsertOpportunity(ctx, &model.GHLOpportunity{
		OwnerID: owner, ExternalID: "o_won", Status: model.OpportunityStatusWon,
		MonetaryValue: decimal.NewFromInt(500), ClosedAt: &closed, CreatedAtProvider: start,
	}))
	require.NoError(t, repo.UpsertOpportunity(ctx, &model.GHLOpportunity{
		OwnerID: owner, ExternalID: "o_open", Status: model.OpportunityStatusOpen,
		MonetaryValue: decimal.RequireFromString("99.95"), CreatedAtProvider: start,
	}))

	won, err := repo.ListOpportunitiesClosedBetween(ctx, owner, start, end)
	require.NoError(t, err)
	require.Len(t, won, 1)
	assert.Equal(t, "o_won", won[0].ExternalID)

	open, err := repo.ListOpportunitiesByStatus(ctx, owner, model.OpportunityStatusOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.True(t, decimal.RequireFromString("99.95").Equal(open[0].MonetaryValue))

	require.NoError(t, repo.UpsertAppointment(ctx, &model.GHLAppointment{
		OwnerID: owner, ExternalID: "a1", Status: "showed", StartTime: start.AddDate(0, 0, -20), CreatedAtProvider: start,
	}))
	earliest, err := repo.EarliestActivity(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, earliest)
	assert.True(t, earliest.Equal(start.AddDate(0, 0, -20)))
}
