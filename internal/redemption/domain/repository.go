package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, redemption *RewardRedemption) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*RewardRedemption, error)
	List(ctx context.Context, db *gorm.DB, customerID snowflake.ID, limit int) ([]*RewardRedemption, error)

	// Transition flips a pending redemption into target, optionally
	// stamping redeemed_at. False means another caller got there first.
	Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, target RedemptionStatus, redeemedAt *time.Time, at time.Time) (bool, error)
}
