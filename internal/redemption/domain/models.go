package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type RedemptionStatus string

const (
	RedemptionStatusPending  RedemptionStatus = "pending"
	RedemptionStatusApproved RedemptionStatus = "approved"
	RedemptionStatusExpired  RedemptionStatus = "expired"
)

// Terminal reports whether no further transition is allowed out of s.
func (s RedemptionStatus) Terminal() bool {
	return s == RedemptionStatusApproved || s == RedemptionStatusExpired
}

// RewardRedemption is a minted reward claim. PointsSpent were debited
// from the customer's ledger in the same transaction that created the
// row, so a pending redemption always has its points accounted for.
type RewardRedemption struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID `gorm:"index;not null" json:"customer_id"`
	BusinessID snowflake.ID `gorm:"index;not null" json:"business_id"`
	CampaignID snowflake.ID `gorm:"not null" json:"campaign_id"`

	PointsSpent int64            `gorm:"not null" json:"points_spent"`
	Status      RedemptionStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	QRProof     string           `gorm:"type:varchar(512);uniqueIndex;not null" json:"qr_proof"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
}

func (RewardRedemption) TableName() string { return "reward_redemptions" }

// Expired reports whether the redemption's validity window has passed.
func (r RewardRedemption) Expired(at time.Time) bool {
	return !at.Before(r.ExpiresAt)
}
