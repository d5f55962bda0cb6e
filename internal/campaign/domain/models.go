// Package domain contains persistence models for campaigns and their
// referral artifacts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// CampaignType discriminates campaign behavior.
type CampaignType string

const (
	CampaignTypePayPerCustomer CampaignType = "pay_per_customer"
	CampaignTypePayPerPost     CampaignType = "pay_per_post"
	CampaignTypeMediaEvent     CampaignType = "media_event"
	CampaignTypeLoyaltyReward  CampaignType = "loyalty_reward"
)

// CampaignStatus represents lifecycle states for a campaign.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
	CampaignStatusExpired   CampaignStatus = "expired"
)

// Terminal reports whether no further transition is allowed out of s.
// paused and active are mutually reversible; everything past them is final.
func (s CampaignStatus) Terminal() bool {
	switch s {
	case CampaignStatusCompleted, CampaignStatusCancelled, CampaignStatusExpired:
		return true
	default:
		return false
	}
}

// Campaign is a business-funded promotion. TotalCredits is the funded
// pool; each approved visit debits CreditsPerAction from it.
// RewardPointsCost only applies to loyalty_reward campaigns.
type Campaign struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	BusinessID       snowflake.ID      `gorm:"not null;index" json:"business_id"`
	Type             CampaignType      `gorm:"type:text;not null" json:"type"`
	Status           CampaignStatus    `gorm:"type:text;not null" json:"status"`
	Title            string            `gorm:"type:text;not null" json:"title"`
	CreditsPerAction int64             `gorm:"not null" json:"credits_per_action"`
	TotalCredits     int64             `gorm:"not null;default:0" json:"total_credits"`
	RewardPointsCost int64             `gorm:"not null;default:0" json:"reward_points_cost"`
	PeriodStart      time.Time         `gorm:"not null" json:"period_start"`
	PeriodEnd        time.Time         `gorm:"not null" json:"period_end"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Campaign) TableName() string { return "campaigns" }

// WithinWindow reports whether at falls inside the campaign period.
func (c Campaign) WithinWindow(at time.Time) bool {
	return !at.Before(c.PeriodStart) && !at.After(c.PeriodEnd)
}

// ReferralArtifact is a code (or deep-link payload) issued to one
// influencer for one campaign, with an optional usage cap.
type ReferralArtifact struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	CampaignID   snowflake.ID `gorm:"not null;index" json:"campaign_id"`
	InfluencerID snowflake.ID `gorm:"not null;index" json:"influencer_id"`
	Code         string       `gorm:"type:text;not null;uniqueIndex" json:"code"`
	UsageCount   int64        `gorm:"not null;default:0" json:"usage_count"`
	UsageLimit   *int64       `gorm:"" json:"usage_limit,omitempty"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt    *time.Time   `gorm:"" json:"expires_at,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ReferralArtifact) TableName() string { return "campaign_referral_codes" }
