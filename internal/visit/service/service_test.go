package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	campaigndomain "github.com/tonynham/collabuu/internal/campaign/domain"
	campaignrepo "github.com/tonynham/collabuu/internal/campaign/repository"
	campaignservice "github.com/tonynham/collabuu/internal/campaign/service"
	"github.com/tonynham/collabuu/internal/clock"
	"github.com/tonynham/collabuu/internal/config"
	loyaltydomain "github.com/tonynham/collabuu/internal/loyalty/domain"
	loyaltyrepo "github.com/tonynham/collabuu/internal/loyalty/repository"
	loyaltyservice "github.com/tonynham/collabuu/internal/loyalty/service"
	"github.com/tonynham/collabuu/internal/metrics"
	"github.com/tonynham/collabuu/internal/prooftoken"
	visitdomain "github.com/tonynham/collabuu/internal/visit/domain"
	"github.com/tonynham/collabuu/internal/visit/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc        visitdomain.Service
	loyaltySvc loyaltydomain.Service
	db         *gorm.DB
	node       *snowflake.Node
	clock      *clock.FakeClock
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&campaigndomain.Campaign{},
		&campaigndomain.ReferralArtifact{},
		&visitdomain.Visit{},
		&loyaltydomain.LoyaltyPoints{},
		&loyaltydomain.LoyaltyTransaction{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	mtr := metrics.NewWith(prometheus.NewRegistry())
	log := zap.NewNop()
	rewards := config.StaticRewardsConfigHolder(config.RewardsConfig{
		PointsPerVisit:         10,
		RedemptionValidityDays: 30,
	})

	campRepo := campaignrepo.Provide()
	campSvc := campaignservice.NewService(campaignservice.ServiceParam{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fakeClock,
		Repo:  campRepo,
	})
	loySvc := loyaltyservice.NewService(loyaltyservice.ServiceParam{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   fakeClock,
		Repo:    loyaltyrepo.Provide(),
		Metrics: mtr,
	})

	svc := NewService(ServiceParam{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        fakeClock,
		Rewards:      rewards,
		Metrics:      mtr,
		Repo:         repository.Provide(),
		CampaignRepo: campRepo,
		CampaignSvc:  campSvc,
		LoyaltySvc:   loySvc,
	})

	return &fixture{svc: svc, loyaltySvc: loySvc, db: db, node: node, clock: fakeClock}
}

const testBusinessID = snowflake.ID(900)

func (f *fixture) insertCampaign(t *testing.T, totalCredits int64) *campaigndomain.Campaign {
	t.Helper()

	now := f.clock.Now()
	campaign := campaigndomain.Campaign{
		ID:               f.node.Generate(),
		BusinessID:       testBusinessID,
		Type:             campaigndomain.CampaignTypePayPerCustomer,
		Status:           campaigndomain.CampaignStatusActive,
		Title:            "Visit Drive",
		CreditsPerAction: 5,
		TotalCredits:     totalCredits,
		PeriodStart:      now.AddDate(0, 0, -1),
		PeriodEnd:        now.AddDate(0, 1, 0),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, f.db.Create(&campaign).Error)
	return &campaign
}

func (f *fixture) insertArtifact(t *testing.T, campaignID, influencerID snowflake.ID, usageLimit *int64) *campaigndomain.ReferralArtifact {
	t.Helper()

	now := f.clock.Now()
	artifact := campaigndomain.ReferralArtifact{
		ID:           f.node.Generate(),
		CampaignID:   campaignID,
		InfluencerID: influencerID,
		Code:         "visit-drive-" + f.node.Generate().String(),
		UsageLimit:   usageLimit,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.db.Create(&artifact).Error)
	return &artifact
}

func (f *fixture) createVisit(t *testing.T, campaignID, influencerID, customerID snowflake.ID) visitdomain.Visit {
	t.Helper()

	token, err := prooftoken.EncodeVisitProof(prooftoken.VisitProof{
		CampaignID:   campaignID,
		InfluencerID: influencerID,
		CustomerID:   customerID,
	})
	require.NoError(t, err)

	resp, err := f.svc.VerifyProof(context.Background(), visitdomain.VerifyVisitRequest{
		QRToken:    token,
		BusinessID: testBusinessID.String(),
	})
	require.NoError(t, err)
	require.Equal(t, visitdomain.VisitStatusPending, resp.Visit.Status)
	return resp.Visit
}

func TestVerifyProofRejectsMalformedToken(t *testing.T) {
	f := setupFixture(t)

	_, err := f.svc.VerifyProof(context.Background(), visitdomain.VerifyVisitRequest{
		QRToken:    "garbage",
		BusinessID: testBusinessID.String(),
	})
	assert.ErrorIs(t, err, visitdomain.ErrInvalidProof)
}

func TestVerifyProofRejectsForeignBusiness(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertCampaign(t, 500)

	token, err := prooftoken.EncodeVisitProof(prooftoken.VisitProof{
		CampaignID:   campaign.ID,
		InfluencerID: snowflake.ID(2),
		CustomerID:   snowflake.ID(3),
	})
	require.NoError(t, err)

	_, err = f.svc.VerifyProof(context.Background(), visitdomain.VerifyVisitRequest{
		QRToken:    token,
		BusinessID: snowflake.ID(901).String(),
	})
	assert.ErrorIs(t, err, visitdomain.ErrCampaignMismatch)
}

func TestVerifyProofRejectsInactiveCampaign(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertCampaign(t, 500)
	require.NoError(t, f.db.Model(campaign).Update("status", campaigndomain.CampaignStatusPaused).Error)

	token, err := prooftoken.EncodeVisitProof(prooftoken.VisitProof{
		CampaignID:   campaign.ID,
		InfluencerID: snowflake.ID(2),
		CustomerID:   snowflake.ID(3),
	})
	require.NoError(t, err)

	_, err = f.svc.VerifyProof(context.Background(), visitdomain.VerifyVisitRequest{
		QRToken:    token,
		BusinessID: testBusinessID.String(),
	})
	assert.ErrorIs(t, err, campaigndomain.ErrCampaignInactive)
}

func TestApproveSettlesVisitExactlyOnce(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertCampaign(t, 500)
	customerID := snowflake.ID(42)
	visit := f.createVisit(t, campaign.ID, snowflake.ID(2), customerID)
	ctx := context.Background()

	approved, err := f.svc.Approve(ctx, visit.ID.String(), testBusinessID.String())
	require.NoError(t, err)
	assert.Equal(t, visitdomain.VisitStatusApproved, approved.Status)
	assert.EqualValues(t, 5, approved.CreditsEarned)
	assert.EqualValues(t, 10, approved.PointsEarned)
	require.NotNil(t, approved.ProcessedAt)

	balance, err := f.loyaltySvc.GetBalance(ctx, customerID.String(), testBusinessID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 10, balance.Balance)

	var reloaded campaigndomain.Campaign
	require.NoError(t, f.db.First(&reloaded, "id = ?", campaign.ID).Error)
	assert.EqualValues(t, 495, reloaded.TotalCredits)

	// Second approval loses the guard.
	_, err = f.svc.Approve(ctx, visit.ID.String(), testBusinessID.String())
	assert.ErrorIs(t, err, visitdomain.ErrAlreadyProcessed)

	// No double credit.
	balance, err = f.loyaltySvc.GetBalance(ctx, customerID.String(), testBusinessID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 10, balance.Balance)

	var txnCount int64
	require.NoError(t, f.db.Model(&loyaltydomain.LoyaltyTransaction{}).Count(&txnCount).Error)
	assert.EqualValues(t, 1, txnCount)
}

func TestApproveRollsBackWhenCreditPoolExhausted(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertCampaign(t, 5)
	ctx := context.Background()

	first := f.createVisit(t, campaign.ID, snowflake.ID(2), snowflake.ID(42))
	second := f.createVisit(t, campaign.ID, snowflake.ID(2), snowflake.ID(43))

	_, err := f.svc.Approve(ctx, first.ID.String(), testBusinessID.String())
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, second.ID.String(), testBusinessID.String())
	require.ErrorIs(t, err, campaigndomain.ErrInsufficientCredits)

	// The whole workflow rolled back: visit still pending, no credit.
	reloaded, err := f.svc.GetByID(ctx, second.ID.String())
	require.NoError(t, err)
	assert.Equal(t, visitdomain.VisitStatusPending, reloaded.Status)

	balance, err := f.loyaltySvc.GetBalance(ctx, "43", testBusinessID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 0, balance.Balance)
}

func TestApproveEnforcesArtifactUsageLimit(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertCampaign(t, 500)
	influencerID := snowflake.ID(2)
	limit := int64(2)
	artifact := f.insertArtifact(t, campaign.ID, influencerID, &limit)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		visit := f.createVisit(t, campaign.ID, influencerID, snowflake.ID(50+i))
		_, err := f.svc.Approve(ctx, visit.ID.String(), testBusinessID.String())
		require.NoError(t, err)
	}

	over := f.createVisit(t, campaign.ID, influencerID, snowflake.ID(60))
	_, err := f.svc.Approve(ctx, over.ID.String(), testBusinessID.String())
	require.ErrorIs(t, err, campaigndomain.ErrUsageLimitExceeded)

	var reloaded campaigndomain.ReferralArtifact
	require.NoError(t, f.db.First(&reloaded, "id = ?", artifact.ID).Error)
	assert.EqualValues(t, 2, reloaded.UsageCount)

	// Rollback keeps the over-limit visit pending and uncredited.
	visit, err := f.svc.GetByID(ctx, over.ID.String())
	require.NoError(t, err)
	assert.Equal(t, visitdomain.VisitStatusPending, visit.Status)
}

func TestRejectIsGuarded(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertCampaign(t, 500)
	visit := f.createVisit(t, campaign.ID, snowflake.ID(2), snowflake.ID(42))
	ctx := context.Background()

	rejected, err := f.svc.Reject(ctx, visit.ID.String(), testBusinessID.String())
	require.NoError(t, err)
	assert.Equal(t, visitdomain.VisitStatusRejected, rejected.Status)

	_, err = f.svc.Reject(ctx, visit.ID.String(), testBusinessID.String())
	assert.ErrorIs(t, err, visitdomain.ErrAlreadyProcessed)

	_, err = f.svc.Approve(ctx, visit.ID.String(), testBusinessID.String())
	assert.ErrorIs(t, err, visitdomain.ErrAlreadyProcessed)

	// Rejection never credits points.
	balance, err := f.loyaltySvc.GetBalance(ctx, "42", testBusinessID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 0, balance.Balance)
}

func TestApproveUnknownOrForeignVisit(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertCampaign(t, 500)
	visit := f.createVisit(t, campaign.ID, snowflake.ID(2), snowflake.ID(42))
	ctx := context.Background()

	_, err := f.svc.Approve(ctx, f.node.Generate().String(), testBusinessID.String())
	assert.ErrorIs(t, err, visitdomain.ErrVisitNotFound)

	_, err = f.svc.Approve(ctx, visit.ID.String(), snowflake.ID(901).String())
	assert.ErrorIs(t, err, visitdomain.ErrVisitNotFound)
}

func TestApproveRefusedOutsideCampaignWindow(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertCampaign(t, 500)
	visit := f.createVisit(t, campaign.ID, 10, 43)
	ctx := context.Background()

	// The campaign window closed while the visit sat pending; the
	// status row still says active but settlement must refuse.
	f.clock.Advance(60 * 24 * time.Hour)

	_, err := f.svc.Approve(ctx, visit.ID.String(), testBusinessID.String())
	require.ErrorIs(t, err, campaigndomain.ErrCampaignInactive)

	reloaded, err := f.svc.GetByID(ctx, visit.ID.String())
	require.NoError(t, err)
	assert.Equal(t, visitdomain.VisitStatusPending, reloaded.Status)

	var reloadedCampaign campaigndomain.Campaign
	require.NoError(t, f.db.First(&reloadedCampaign, "id = ?", campaign.ID).Error)
	assert.EqualValues(t, 500, reloadedCampaign.TotalCredits)

	balance, err := f.loyaltySvc.GetBalance(ctx, "43", testBusinessID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 0, balance.Balance)
}

func TestApproveRefusedWhenCampaignPaused(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertCampaign(t, 500)
	visit := f.createVisit(t, campaign.ID, 10, 43)
	ctx := context.Background()

	require.NoError(t, f.db.Model(campaign).
		Update("status", campaigndomain.CampaignStatusPaused).Error)

	_, err := f.svc.Approve(ctx, visit.ID.String(), testBusinessID.String())
	require.ErrorIs(t, err, campaigndomain.ErrCampaignInactive)

	reloaded, err := f.svc.GetByID(ctx, visit.ID.String())
	require.NoError(t, err)
	assert.Equal(t, visitdomain.VisitStatusPending, reloaded.Status)
}
