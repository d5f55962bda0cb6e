package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	campaigndomain "github.com/tonynham/collabuu/internal/campaign/domain"
	"gorm.io/gorm"
)

const (
	demoBusinessID       = 1
	demoInfluencerID     = 2
	demoVisitCampaign    = "Welcome Visits"
	demoRewardCampaign   = "Free Coffee Reward"
	demoReferralCode     = "welcome-visits-demo"
	demoCreditsPerAction = 5
	demoTotalCredits     = 500
	demoRewardPointCost  = 80
)

// EnsureDemoData seeds a demo business with one visit campaign, one
// loyalty reward and a referral code. Development convenience only;
// every write is idempotent so restarts do not duplicate rows.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		visitCampaign, err := ensureCampaignTx(ctx, tx, node, demoVisitCampaign, campaigndomain.CampaignTypePayPerCustomer, demoCreditsPerAction, 0)
		if err != nil {
			return err
		}
		if _, err := ensureCampaignTx(ctx, tx, node, demoRewardCampaign, campaigndomain.CampaignTypeLoyaltyReward, demoCreditsPerAction, demoRewardPointCost); err != nil {
			return err
		}
		return ensureReferralCodeTx(ctx, tx, node, visitCampaign.ID)
	})
}

func ensureCampaignTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, title string, campaignType campaigndomain.CampaignType, creditsPerAction, rewardPointsCost int64) (*campaigndomain.Campaign, error) {
	var existing campaigndomain.Campaign
	err := tx.WithContext(ctx).
		Where("business_id = ? AND title = ?", demoBusinessID, title).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	campaign := campaigndomain.Campaign{
		ID:               node.Generate(),
		BusinessID:       snowflake.ID(demoBusinessID),
		Type:             campaignType,
		Status:           campaigndomain.CampaignStatusActive,
		Title:            title,
		CreditsPerAction: creditsPerAction,
		TotalCredits:     demoTotalCredits,
		RewardPointsCost: rewardPointsCost,
		PeriodStart:      now.AddDate(0, 0, -1),
		PeriodEnd:        now.AddDate(1, 0, 0),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := tx.WithContext(ctx).Create(&campaign).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

func ensureReferralCodeTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, campaignID snowflake.ID) error {
	var existing campaigndomain.ReferralArtifact
	err := tx.WithContext(ctx).Where("code = ?", demoReferralCode).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	artifact := campaigndomain.ReferralArtifact{
		ID:           node.Generate(),
		CampaignID:   campaignID,
		InfluencerID: snowflake.ID(demoInfluencerID),
		Code:         demoReferralCode,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return tx.WithContext(ctx).Create(&artifact).Error
}
