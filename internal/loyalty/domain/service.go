package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/tonynham/collabuu/pkg/db/pagination"
	"gorm.io/gorm"
)

// EntryRequest describes one ledger write. ReferenceID identifies the
// business event behind the write; replaying the same reference is a
// no-op that returns the original transaction.
type EntryRequest struct {
	CustomerID  snowflake.ID
	BusinessID  snowflake.ID
	CampaignID  *snowflake.ID
	Type        TransactionType
	Points      int64
	ReferenceID string
	Description string
}

type ListTransactionsRequest struct {
	CustomerID string
	BusinessID string
	PageSize   int
	PageToken  string
}

type ListTransactionsResponse struct {
	Transactions []*LoyaltyTransaction `json:"transactions"`
	PageInfo     *pagination.PageInfo  `json:"page_info,omitempty"`
}

type Service interface {
	// Credit and Debit run inside the caller's transaction so that ledger
	// writes commit atomically with the state transition that caused them.
	Credit(ctx context.Context, tx *gorm.DB, req EntryRequest) (LoyaltyTransaction, error)
	Debit(ctx context.Context, tx *gorm.DB, req EntryRequest) (LoyaltyTransaction, error)

	GetBalance(ctx context.Context, customerID, businessID string) (LoyaltyPoints, error)
	ListTransactions(ctx context.Context, req ListTransactionsRequest) (ListTransactionsResponse, error)
}

// InsufficientPointsError carries the amounts so the API edge can
// render a precise message. It matches ErrInsufficientPoints under
// errors.Is.
type InsufficientPointsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientPointsError) Error() string { return "insufficient_points" }

func (e *InsufficientPointsError) Is(target error) bool { return target == ErrInsufficientPoints }

var (
	ErrInsufficientPoints = errors.New("insufficient_points")
	ErrLedgerNotFound     = errors.New("ledger_not_found")
	ErrInvalidPoints      = errors.New("invalid_points")
	ErrInvalidReference   = errors.New("invalid_reference")
	ErrInvalidCustomer    = errors.New("invalid_customer")
	ErrInvalidBusiness    = errors.New("invalid_business")
	ErrInvalidEntryType   = errors.New("invalid_entry_type")
	ErrInvalidPageToken   = errors.New("invalid_page_token")
)
