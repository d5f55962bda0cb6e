package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	redemptiondomain "github.com/tonynham/collabuu/internal/redemption/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() redemptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, redemption *redemptiondomain.RewardRedemption) error {
	return db.WithContext(ctx).Create(redemption).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*redemptiondomain.RewardRedemption, error) {
	var row redemptiondomain.RewardRedemption
	err := db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, customerID snowflake.ID, limit int) ([]*redemptiondomain.RewardRedemption, error) {
	var rows []*redemptiondomain.RewardRedemption
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repo) Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, target redemptiondomain.RedemptionStatus, redeemedAt *time.Time, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":     target,
		"updated_at": at,
	}
	if redeemedAt != nil {
		updates["redeemed_at"] = *redeemedAt
	}

	result := db.WithContext(ctx).
		Model(&redemptiondomain.RewardRedemption{}).
		Where("id = ? AND status = ?", id, redemptiondomain.RedemptionStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
