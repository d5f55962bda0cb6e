package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateCampaignRequest struct {
	BusinessID       string         `json:"business_id"`
	Type             CampaignType   `json:"type"`
	Title            string         `json:"title"`
	CreditsPerAction int64          `json:"credits_per_action"`
	TotalCredits     int64          `json:"total_credits"`
	RewardPointsCost int64          `json:"reward_points_cost,omitempty"`
	PeriodStart      time.Time      `json:"period_start"`
	PeriodEnd        time.Time      `json:"period_end"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

type ListCampaignsRequest struct {
	BusinessID string
	Status     string
	PageSize   int
}

type ListCampaignsResponse struct {
	Campaigns []*Campaign `json:"campaigns"`
}

type CreateArtifactRequest struct {
	CampaignID   string     `json:"campaign_id"`
	InfluencerID string     `json:"influencer_id"`
	UsageLimit   *int64     `json:"usage_limit,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

type Service interface {
	Create(ctx context.Context, req CreateCampaignRequest) (Campaign, error)
	GetByID(ctx context.Context, id string) (Campaign, error)
	List(ctx context.Context, req ListCampaignsRequest) (ListCampaignsResponse, error)
	Transition(ctx context.Context, id string, target CampaignStatus) (Campaign, error)

	// GetActive resolves a campaign and enforces the settlement
	// precondition: status active and at inside the period window.
	GetActive(ctx context.Context, id snowflake.ID, at time.Time) (Campaign, error)

	CreateArtifact(ctx context.Context, req CreateArtifactRequest) (ReferralArtifact, error)
	GetArtifactByCode(ctx context.Context, code string) (ReferralArtifact, error)
}

var (
	ErrCampaignNotFound = errors.New("campaign_not_found")
	ErrCampaignInactive = errors.New("campaign_inactive")
	ErrArtifactNotFound = errors.New("artifact_not_found")

	ErrUsageLimitExceeded   = errors.New("usage_limit_exceeded")
	ErrInsufficientCredits  = errors.New("insufficient_credits")
	ErrInvalidTransition    = errors.New("invalid_transition")
	ErrInvalidBusiness      = errors.New("invalid_business")
	ErrInvalidCampaign      = errors.New("invalid_campaign")
	ErrInvalidInfluencer    = errors.New("invalid_influencer")
	ErrInvalidCampaignType  = errors.New("invalid_campaign_type")
	ErrInvalidTitle         = errors.New("invalid_title")
	ErrInvalidCredits       = errors.New("invalid_credits")
	ErrInvalidPeriod        = errors.New("invalid_period")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidUsageLimit    = errors.New("invalid_usage_limit")
	ErrInvalidRewardPoints  = errors.New("invalid_reward_points")
	ErrInvalidArtifactCode  = errors.New("invalid_artifact_code")
	ErrDuplicateArtifact    = errors.New("duplicate_artifact")
	ErrCampaignNotRewarding = errors.New("campaign_not_rewarding")
)
