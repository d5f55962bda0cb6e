package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// EnsureLedger creates the (customer, business) ledger row if it does
	// not exist yet and returns the current row either way. newID is only
	// consumed when a row is created.
	EnsureLedger(ctx context.Context, db *gorm.DB, newID, customerID, businessID snowflake.ID, at time.Time) (*LoyaltyPoints, error)
	FindLedger(ctx context.Context, db *gorm.DB, customerID, businessID snowflake.ID) (*LoyaltyPoints, error)

	// Credit unconditionally adds points to the ledger balance.
	Credit(ctx context.Context, db *gorm.DB, loyaltyID snowflake.ID, points int64, at time.Time) error

	// Debit subtracts points only while the balance covers them. The
	// boolean result is false when the guard rejected the write.
	Debit(ctx context.Context, db *gorm.DB, loyaltyID snowflake.ID, points int64, at time.Time) (bool, error)

	// InsertTransaction appends a ledger row. A duplicate
	// (loyalty_id, reference_id) pair is swallowed and reported as false.
	InsertTransaction(ctx context.Context, db *gorm.DB, txn *LoyaltyTransaction) (bool, error)
	FindTransactionByReference(ctx context.Context, db *gorm.DB, loyaltyID snowflake.ID, referenceID string) (*LoyaltyTransaction, error)
	// ListTransactions pages newest-first. A non-zero beforeID restricts
	// the page to rows older than that cursor.
	ListTransactions(ctx context.Context, db *gorm.DB, loyaltyID snowflake.ID, beforeID snowflake.ID, limit int) ([]*LoyaltyTransaction, error)
}
