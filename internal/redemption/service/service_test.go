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
	redemptiondomain "github.com/tonynham/collabuu/internal/redemption/domain"
	"github.com/tonynham/collabuu/internal/redemption/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testBusinessID = snowflake.ID(900)
	testCustomerID = snowflake.ID(42)
)

type fixture struct {
	svc        redemptiondomain.Service
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
		&loyaltydomain.LoyaltyPoints{},
		&loyaltydomain.LoyaltyTransaction{},
		&redemptiondomain.RewardRedemption{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	mtr := metrics.NewWith(prometheus.NewRegistry())
	log := zap.NewNop()

	campSvc := campaignservice.NewService(campaignservice.ServiceParam{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fakeClock,
		Repo:  campaignrepo.Provide(),
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
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fakeClock,
		Rewards: config.StaticRewardsConfigHolder(config.RewardsConfig{
			PointsPerVisit:         10,
			RedemptionValidityDays: 30,
		}),
		Metrics:     mtr,
		Repo:        repository.Provide(),
		CampaignSvc: campSvc,
		LoyaltySvc:  loySvc,
	})

	return &fixture{svc: svc, loyaltySvc: loySvc, db: db, node: node, clock: fakeClock}
}

func (f *fixture) insertRewardCampaign(t *testing.T, pointCost int64) *campaigndomain.Campaign {
	t.Helper()

	now := f.clock.Now()
	campaign := campaigndomain.Campaign{
		ID:               f.node.Generate(),
		BusinessID:       testBusinessID,
		Type:             campaigndomain.CampaignTypeLoyaltyReward,
		Status:           campaigndomain.CampaignStatusActive,
		Title:            "Free Coffee",
		CreditsPerAction: 1,
		TotalCredits:     100,
		RewardPointsCost: pointCost,
		PeriodStart:      now.AddDate(0, 0, -1),
		PeriodEnd:        now.AddDate(1, 0, 0),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, f.db.Create(&campaign).Error)
	return &campaign
}

func (f *fixture) creditPoints(t *testing.T, points int64) {
	t.Helper()
	_, err := f.loyaltySvc.Credit(context.Background(), f.db, loyaltydomain.EntryRequest{
		CustomerID:  testCustomerID,
		BusinessID:  testBusinessID,
		Type:        loyaltydomain.TransactionTypeEarn,
		Points:      points,
		ReferenceID: "seed:" + f.node.Generate().String(),
	})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T) int64 {
	t.Helper()
	balance, err := f.loyaltySvc.GetBalance(context.Background(), testCustomerID.String(), testBusinessID.String())
	require.NoError(t, err)
	return balance.Balance
}

func TestRedeemSpendsPointsAndMintsProof(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertRewardCampaign(t, 80)
	f.creditPoints(t, 100)
	ctx := context.Background()

	redemption, err := f.svc.Redeem(ctx, redemptiondomain.RedeemRequest{
		CustomerID: testCustomerID.String(),
		CampaignID: campaign.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, redemptiondomain.RedemptionStatusPending, redemption.Status)
	assert.EqualValues(t, 80, redemption.PointsSpent)
	assert.NotEmpty(t, redemption.QRProof)
	assert.Equal(t, f.clock.Now().Add(30*24*time.Hour), redemption.ExpiresAt)

	assert.EqualValues(t, 20, f.balance(t))

	// A second redemption at the same cost cannot be funded.
	_, err = f.svc.Redeem(ctx, redemptiondomain.RedeemRequest{
		CustomerID: testCustomerID.String(),
		CampaignID: campaign.ID.String(),
	})
	require.ErrorIs(t, err, loyaltydomain.ErrInsufficientPoints)
	assert.EqualValues(t, 20, f.balance(t))

	// The failed attempt must not leave a row behind.
	var count int64
	require.NoError(t, f.db.Model(&redemptiondomain.RewardRedemption{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRedeemRejectsNonRewardCampaign(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertRewardCampaign(t, 80)
	require.NoError(t, f.db.Model(campaign).Update("type", campaigndomain.CampaignTypePayPerCustomer).Error)
	f.creditPoints(t, 100)

	_, err := f.svc.Redeem(context.Background(), redemptiondomain.RedeemRequest{
		CustomerID: testCustomerID.String(),
		CampaignID: campaign.ID.String(),
	})
	assert.ErrorIs(t, err, campaigndomain.ErrCampaignNotRewarding)
	assert.EqualValues(t, 100, f.balance(t))
}

func TestVerifyProofHappyPath(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertRewardCampaign(t, 80)
	f.creditPoints(t, 100)
	ctx := context.Background()

	redemption, err := f.svc.Redeem(ctx, redemptiondomain.RedeemRequest{
		CustomerID: testCustomerID.String(),
		CampaignID: campaign.ID.String(),
	})
	require.NoError(t, err)

	verified, err := f.svc.VerifyProof(ctx, redemption.QRProof)
	require.NoError(t, err)
	assert.Equal(t, redemption.ID, verified.ID)
	assert.Equal(t, redemptiondomain.RedemptionStatusPending, verified.Status)
}

func TestVerifyProofCollapsesFailuresToInvalid(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertRewardCampaign(t, 80)
	f.creditPoints(t, 200)
	ctx := context.Background()

	redemption, err := f.svc.Redeem(ctx, redemptiondomain.RedeemRequest{
		CustomerID: testCustomerID.String(),
		CampaignID: campaign.ID.String(),
	})
	require.NoError(t, err)

	_, err = f.svc.VerifyProof(ctx, "garbage")
	assert.ErrorIs(t, err, redemptiondomain.ErrInvalidProof)

	// Completing first, then verifying: consumed proof is invalid, with
	// no hint that it once existed.
	_, err = f.svc.Complete(ctx, redemption.ID.String())
	require.NoError(t, err)
	_, err = f.svc.VerifyProof(ctx, redemption.QRProof)
	assert.ErrorIs(t, err, redemptiondomain.ErrInvalidProof)
}

func TestVerifyProofExpiresAndRefunds(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertRewardCampaign(t, 80)
	f.creditPoints(t, 100)
	ctx := context.Background()

	redemption, err := f.svc.Redeem(ctx, redemptiondomain.RedeemRequest{
		CustomerID: testCustomerID.String(),
		CampaignID: campaign.ID.String(),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 20, f.balance(t))

	f.clock.Advance(31 * 24 * time.Hour)

	_, err = f.svc.VerifyProof(ctx, redemption.QRProof)
	require.ErrorIs(t, err, redemptiondomain.ErrInvalidProof)

	reloaded, err := f.svc.GetByID(ctx, redemption.ID.String())
	require.NoError(t, err)
	assert.Equal(t, redemptiondomain.RedemptionStatusExpired, reloaded.Status)

	// Points refunded, exactly once even when verified again.
	assert.EqualValues(t, 100, f.balance(t))

	_, err = f.svc.VerifyProof(ctx, redemption.QRProof)
	require.ErrorIs(t, err, redemptiondomain.ErrInvalidProof)
	assert.EqualValues(t, 100, f.balance(t))
}

func TestCompleteExactlyOnce(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertRewardCampaign(t, 80)
	f.creditPoints(t, 100)
	ctx := context.Background()

	redemption, err := f.svc.Redeem(ctx, redemptiondomain.RedeemRequest{
		CustomerID: testCustomerID.String(),
		CampaignID: campaign.ID.String(),
	})
	require.NoError(t, err)

	completed, err := f.svc.Complete(ctx, redemption.ID.String())
	require.NoError(t, err)
	assert.Equal(t, redemptiondomain.RedemptionStatusApproved, completed.Status)
	require.NotNil(t, completed.RedeemedAt)

	_, err = f.svc.Complete(ctx, redemption.ID.String())
	assert.ErrorIs(t, err, redemptiondomain.ErrAlreadyProcessed)

	// Completion is a pure status flip; the balance stays spent.
	assert.EqualValues(t, 20, f.balance(t))
}

func TestCompleteExpiredRedemptionRefunds(t *testing.T) {
	f := setupFixture(t)
	campaign := f.insertRewardCampaign(t, 80)
	f.creditPoints(t, 100)
	ctx := context.Background()

	redemption, err := f.svc.Redeem(ctx, redemptiondomain.RedeemRequest{
		CustomerID: testCustomerID.String(),
		CampaignID: campaign.ID.String(),
	})
	require.NoError(t, err)

	f.clock.Advance(31 * 24 * time.Hour)

	_, err = f.svc.Complete(ctx, redemption.ID.String())
	require.ErrorIs(t, err, redemptiondomain.ErrAlreadyProcessed)

	reloaded, err := f.svc.GetByID(ctx, redemption.ID.String())
	require.NoError(t, err)
	assert.Equal(t, redemptiondomain.RedemptionStatusExpired, reloaded.Status)
	assert.EqualValues(t, 100, f.balance(t))
}

func TestCompleteUnknownRedemption(t *testing.T) {
	f := setupFixture(t)

	_, err := f.svc.Complete(context.Background(), f.node.Generate().String())
	assert.ErrorIs(t, err, redemptiondomain.ErrRedemptionNotFound)
}
