package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type TransactionType string

const (
	TransactionTypeEarn   TransactionType = "earn"
	TransactionTypeSpend  TransactionType = "spend"
	TransactionTypeExpire TransactionType = "expire"
	TransactionTypeAdjust TransactionType = "adjust"
)

// LoyaltyPoints is one customer's balance at one business. Balance is
// only ever changed through guarded updates and never drops below zero.
type LoyaltyPoints struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID  snowflake.ID `gorm:"index:idx_loyalty_owner,unique" json:"customer_id"`
	BusinessID  snowflake.ID `gorm:"index:idx_loyalty_owner,unique" json:"business_id"`
	Balance     int64        `gorm:"not null;default:0" json:"balance"`
	TotalEarned int64        `gorm:"not null;default:0" json:"total_earned"`
	TotalSpent  int64        `gorm:"not null;default:0" json:"total_spent"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (LoyaltyPoints) TableName() string { return "loyalty_points" }

// LoyaltyTransaction is one append-only ledger row. Points is always
// positive; Type carries the direction. ReferenceID is unique per
// ledger and makes writes idempotent.
type LoyaltyTransaction struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	LoyaltyID   snowflake.ID    `gorm:"index:idx_loyalty_txn_reference,unique" json:"loyalty_id"`
	CampaignID  *snowflake.ID   `json:"campaign_id,omitempty"`
	Type        TransactionType `gorm:"type:varchar(16);not null" json:"type"`
	Points      int64           `gorm:"not null" json:"points"`
	ReferenceID string          `gorm:"type:varchar(128);index:idx_loyalty_txn_reference,unique" json:"reference_id"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (LoyaltyTransaction) TableName() string { return "loyalty_transactions" }

// Debit reports whether t's type removes points from the balance.
func (t TransactionType) Debit() bool {
	return t == TransactionTypeSpend || t == TransactionTypeExpire
}
