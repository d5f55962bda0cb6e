package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	campaigndomain "github.com/tonynham/collabuu/internal/campaign/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() campaigndomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, campaign *campaigndomain.Campaign) error {
	return db.WithContext(ctx).Create(campaign).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*campaigndomain.Campaign, error) {
	var campaign campaigndomain.Campaign
	err := db.WithContext(ctx).First(&campaign, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, businessID snowflake.ID, status campaigndomain.CampaignStatus, limit int) ([]*campaigndomain.Campaign, error) {
	stmt := db.WithContext(ctx).Where("business_id = ?", businessID)
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}

	var campaigns []*campaigndomain.Campaign
	err := stmt.Order("created_at DESC, id DESC").Find(&campaigns).Error
	return campaigns, err
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from []campaigndomain.CampaignStatus, target campaigndomain.CampaignStatus, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE campaigns SET status = ?, updated_at = ? WHERE id = ? AND status IN ?`,
		target,
		at.UTC(),
		id,
		from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) DebitCredits(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE campaigns
		 SET total_credits = total_credits - ?, updated_at = ?
		 WHERE id = ? AND status = ? AND total_credits >= ?`,
		amount,
		at.UTC(),
		id,
		campaigndomain.CampaignStatusActive,
		amount,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) InsertArtifact(ctx context.Context, db *gorm.DB, artifact *campaigndomain.ReferralArtifact) error {
	return db.WithContext(ctx).Create(artifact).Error
}

func (r *repo) FindArtifactByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*campaigndomain.ReferralArtifact, error) {
	var artifact campaigndomain.ReferralArtifact
	err := db.WithContext(ctx).First(&artifact, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &artifact, nil
}

func (r *repo) FindArtifactByCode(ctx context.Context, db *gorm.DB, code string) (*campaigndomain.ReferralArtifact, error) {
	var artifact campaigndomain.ReferralArtifact
	err := db.WithContext(ctx).First(&artifact, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &artifact, nil
}

func (r *repo) FindArtifactByBinding(ctx context.Context, db *gorm.DB, campaignID, influencerID snowflake.ID) (*campaigndomain.ReferralArtifact, error) {
	var artifact campaigndomain.ReferralArtifact
	err := db.WithContext(ctx).
		First(&artifact, "campaign_id = ? AND influencer_id = ?", campaignID, influencerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &artifact, nil
}

func (r *repo) IncrementArtifactUsage(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE campaign_referral_codes
		 SET usage_count = usage_count + 1, updated_at = ?
		 WHERE id = ?
		   AND is_active = ?
		   AND (expires_at IS NULL OR expires_at > ?)
		   AND (usage_limit IS NULL OR usage_count < usage_limit)`,
		at.UTC(),
		id,
		true,
		at.UTC(),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
