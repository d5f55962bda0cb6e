package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, campaign *Campaign) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Campaign, error)
	List(ctx context.Context, db *gorm.DB, businessID snowflake.ID, status CampaignStatus, limit int) ([]*Campaign, error)

	// UpdateStatus is a guarded update: the row transitions to target
	// only while its current status is one of from. The bool reports
	// whether this caller won the transition.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from []CampaignStatus, target CampaignStatus, at time.Time) (bool, error)

	// DebitCredits conditionally spends amount from the campaign's
	// credit pool; it fails (false) when the campaign is not active or
	// the pool would go negative.
	DebitCredits(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64, at time.Time) (bool, error)

	InsertArtifact(ctx context.Context, db *gorm.DB, artifact *ReferralArtifact) error
	FindArtifactByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ReferralArtifact, error)
	FindArtifactByCode(ctx context.Context, db *gorm.DB, code string) (*ReferralArtifact, error)
	FindArtifactByBinding(ctx context.Context, db *gorm.DB, campaignID, influencerID snowflake.ID) (*ReferralArtifact, error)

	// IncrementArtifactUsage conditionally bumps usage_count while the
	// artifact is active, unexpired at the given time, and under its
	// cap. Two concurrent approvals can never jointly exceed the cap.
	IncrementArtifactUsage(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error)
}
