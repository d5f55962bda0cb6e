package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type VisitStatus string

const (
	VisitStatusPending  VisitStatus = "pending"
	VisitStatusApproved VisitStatus = "approved"
	VisitStatusRejected VisitStatus = "rejected"
)

// Terminal reports whether no further transition is allowed out of s.
func (s VisitStatus) Terminal() bool {
	return s == VisitStatusApproved || s == VisitStatusRejected
}

// Visit is one verified proof scan awaiting the business's decision.
// CreditsEarned and PointsEarned stay zero until approval stamps them.
type Visit struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	CampaignID   snowflake.ID  `gorm:"index;not null" json:"campaign_id"`
	BusinessID   snowflake.ID  `gorm:"index;not null" json:"business_id"`
	InfluencerID snowflake.ID  `gorm:"not null" json:"influencer_id"`
	CustomerID   snowflake.ID  `gorm:"index;not null" json:"customer_id"`
	ArtifactID   *snowflake.ID `json:"artifact_id,omitempty"`

	Status        VisitStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	CreditsEarned int64       `gorm:"not null;default:0" json:"credits_earned"`
	PointsEarned  int64       `gorm:"not null;default:0" json:"points_earned"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

func (Visit) TableName() string { return "visits" }
