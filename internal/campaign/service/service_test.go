package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	campaigndomain "github.com/tonynham/collabuu/internal/campaign/domain"
	"github.com/tonynham/collabuu/internal/campaign/repository"
	"github.com/tonynham/collabuu/internal/clock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (campaigndomain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&campaigndomain.Campaign{},
		&campaigndomain.ReferralArtifact{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,
		Repo:  repository.Provide(),
	})
	return svc, db, fakeClock
}

func createRequest(fakeClock *clock.FakeClock) campaigndomain.CreateCampaignRequest {
	now := fakeClock.Now()
	return campaigndomain.CreateCampaignRequest{
		BusinessID:       "900",
		Type:             campaigndomain.CampaignTypePayPerCustomer,
		Title:            "Grand Opening Visits",
		CreditsPerAction: 5,
		TotalCredits:     500,
		PeriodStart:      now.AddDate(0, 0, -1),
		PeriodEnd:        now.AddDate(0, 1, 0),
	}
}

func TestCreateStartsAsDraft(t *testing.T) {
	svc, _, fakeClock := setupService(t)

	campaign, err := svc.Create(context.Background(), createRequest(fakeClock))
	require.NoError(t, err)
	assert.Equal(t, campaigndomain.CampaignStatusDraft, campaign.Status)
	assert.EqualValues(t, 500, campaign.TotalCredits)
}

func TestCreateValidation(t *testing.T) {
	svc, _, fakeClock := setupService(t)
	ctx := context.Background()

	req := createRequest(fakeClock)
	req.Type = "sponsorship"
	_, err := svc.Create(ctx, req)
	assert.ErrorIs(t, err, campaigndomain.ErrInvalidCampaignType)

	req = createRequest(fakeClock)
	req.Title = "  "
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, campaigndomain.ErrInvalidTitle)

	req = createRequest(fakeClock)
	req.PeriodEnd = req.PeriodStart
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, campaigndomain.ErrInvalidPeriod)

	req = createRequest(fakeClock)
	req.Type = campaigndomain.CampaignTypeLoyaltyReward
	req.RewardPointsCost = 0
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, campaigndomain.ErrInvalidRewardPoints)
}

func TestTransitionLifecycle(t *testing.T) {
	svc, _, fakeClock := setupService(t)
	ctx := context.Background()

	campaign, err := svc.Create(ctx, createRequest(fakeClock))
	require.NoError(t, err)
	id := campaign.ID.String()

	// draft cannot pause or complete.
	_, err = svc.Transition(ctx, id, campaigndomain.CampaignStatusPaused)
	assert.ErrorIs(t, err, campaigndomain.ErrInvalidTransition)
	_, err = svc.Transition(ctx, id, campaigndomain.CampaignStatusCompleted)
	assert.ErrorIs(t, err, campaigndomain.ErrInvalidTransition)

	// draft -> active -> paused -> active is reversible.
	campaign, err = svc.Transition(ctx, id, campaigndomain.CampaignStatusActive)
	require.NoError(t, err)
	assert.Equal(t, campaigndomain.CampaignStatusActive, campaign.Status)

	_, err = svc.Transition(ctx, id, campaigndomain.CampaignStatusPaused)
	require.NoError(t, err)
	campaign, err = svc.Transition(ctx, id, campaigndomain.CampaignStatusActive)
	require.NoError(t, err)
	assert.Equal(t, campaigndomain.CampaignStatusActive, campaign.Status)

	// completed is terminal.
	_, err = svc.Transition(ctx, id, campaigndomain.CampaignStatusCompleted)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, id, campaigndomain.CampaignStatusActive)
	assert.ErrorIs(t, err, campaigndomain.ErrInvalidTransition)
}

func TestGetActiveEnforcesStatusAndWindow(t *testing.T) {
	svc, _, fakeClock := setupService(t)
	ctx := context.Background()

	campaign, err := svc.Create(ctx, createRequest(fakeClock))
	require.NoError(t, err)

	// Draft is inactive even inside the window.
	_, err = svc.GetActive(ctx, campaign.ID, fakeClock.Now())
	assert.ErrorIs(t, err, campaigndomain.ErrCampaignInactive)

	_, err = svc.Transition(ctx, campaign.ID.String(), campaigndomain.CampaignStatusActive)
	require.NoError(t, err)

	got, err := svc.GetActive(ctx, campaign.ID, fakeClock.Now())
	require.NoError(t, err)
	assert.Equal(t, campaign.ID, got.ID)

	// Outside the window the active status no longer matters.
	_, err = svc.GetActive(ctx, campaign.ID, fakeClock.Now().AddDate(0, 2, 0))
	assert.ErrorIs(t, err, campaigndomain.ErrCampaignInactive)

	_, err = svc.GetActive(ctx, snowflake.ID(12345), fakeClock.Now())
	assert.ErrorIs(t, err, campaigndomain.ErrCampaignNotFound)
}

func TestCreateArtifactOnePerInfluencer(t *testing.T) {
	svc, _, fakeClock := setupService(t)
	ctx := context.Background()

	campaign, err := svc.Create(ctx, createRequest(fakeClock))
	require.NoError(t, err)

	artifact, err := svc.CreateArtifact(ctx, campaigndomain.CreateArtifactRequest{
		CampaignID:   campaign.ID.String(),
		InfluencerID: "77",
	})
	require.NoError(t, err)
	assert.True(t, artifact.IsActive)
	assert.Contains(t, artifact.Code, "grand-opening-visits-")

	_, err = svc.CreateArtifact(ctx, campaigndomain.CreateArtifactRequest{
		CampaignID:   campaign.ID.String(),
		InfluencerID: "77",
	})
	assert.ErrorIs(t, err, campaigndomain.ErrDuplicateArtifact)

	// A different influencer on the same campaign gets a distinct code.
	other, err := svc.CreateArtifact(ctx, campaigndomain.CreateArtifactRequest{
		CampaignID:   campaign.ID.String(),
		InfluencerID: "78",
	})
	require.NoError(t, err)
	assert.NotEqual(t, artifact.Code, other.Code)

	found, err := svc.GetArtifactByCode(ctx, artifact.Code)
	require.NoError(t, err)
	assert.Equal(t, artifact.ID, found.ID)

	_, err = svc.GetArtifactByCode(ctx, "no-such-code")
	assert.ErrorIs(t, err, campaigndomain.ErrArtifactNotFound)
}

func TestCreateArtifactRejectsTerminalCampaign(t *testing.T) {
	svc, _, fakeClock := setupService(t)
	ctx := context.Background()

	campaign, err := svc.Create(ctx, createRequest(fakeClock))
	require.NoError(t, err)
	_, err = svc.Transition(ctx, campaign.ID.String(), campaigndomain.CampaignStatusCancelled)
	require.NoError(t, err)

	_, err = svc.CreateArtifact(ctx, campaigndomain.CreateArtifactRequest{
		CampaignID:   campaign.ID.String(),
		InfluencerID: "77",
	})
	assert.ErrorIs(t, err, campaigndomain.ErrCampaignInactive)
}

func TestDebitCreditsGuard(t *testing.T) {
	svc, db, fakeClock := setupService(t)
	repo := repository.Provide()
	ctx := context.Background()

	req := createRequest(fakeClock)
	req.TotalCredits = 7
	campaign, err := svc.Create(ctx, req)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, campaign.ID.String(), campaigndomain.CampaignStatusActive)
	require.NoError(t, err)

	debited, err := repo.DebitCredits(ctx, db, campaign.ID, 5, fakeClock.Now())
	require.NoError(t, err)
	assert.True(t, debited)

	// 2 credits left cannot cover another action.
	debited, err = repo.DebitCredits(ctx, db, campaign.ID, 5, fakeClock.Now())
	require.NoError(t, err)
	assert.False(t, debited)

	reloaded, err := svc.GetByID(ctx, campaign.ID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 2, reloaded.TotalCredits)
}
