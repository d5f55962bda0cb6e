package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	loyaltydomain "github.com/tonynham/collabuu/internal/loyalty/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() loyaltydomain.Repository {
	return &repo{}
}

func (r *repo) EnsureLedger(ctx context.Context, db *gorm.DB, newID, customerID, businessID snowflake.ID, at time.Time) (*loyaltydomain.LoyaltyPoints, error) {
	row := loyaltydomain.LoyaltyPoints{
		ID:         newID,
		CustomerID: customerID,
		BusinessID: businessID,
		CreatedAt:  at.UTC(),
		UpdatedAt:  at.UTC(),
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}, {Name: "business_id"}},
			DoNothing: true,
		}).
		Create(&row).Error
	if err != nil {
		return nil, err
	}
	return r.FindLedger(ctx, db, customerID, businessID)
}

func (r *repo) FindLedger(ctx context.Context, db *gorm.DB, customerID, businessID snowflake.ID) (*loyaltydomain.LoyaltyPoints, error) {
	var row loyaltydomain.LoyaltyPoints
	err := db.WithContext(ctx).
		Where("customer_id = ? AND business_id = ?", customerID, businessID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repo) Credit(ctx context.Context, db *gorm.DB, loyaltyID snowflake.ID, points int64, at time.Time) error {
	return db.WithContext(ctx).
		Model(&loyaltydomain.LoyaltyPoints{}).
		Where("id = ?", loyaltyID).
		Updates(map[string]any{
			"balance":      gorm.Expr("balance + ?", points),
			"total_earned": gorm.Expr("total_earned + ?", points),
			"updated_at":   at.UTC(),
		}).Error
}

func (r *repo) Debit(ctx context.Context, db *gorm.DB, loyaltyID snowflake.ID, points int64, at time.Time) (bool, error) {
	result := db.WithContext(ctx).
		Model(&loyaltydomain.LoyaltyPoints{}).
		Where("id = ? AND balance >= ?", loyaltyID, points).
		Updates(map[string]any{
			"balance":     gorm.Expr("balance - ?", points),
			"total_spent": gorm.Expr("total_spent + ?", points),
			"updated_at":  at.UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) InsertTransaction(ctx context.Context, db *gorm.DB, txn *loyaltydomain.LoyaltyTransaction) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "loyalty_id"}, {Name: "reference_id"}},
			DoNothing: true,
		}).
		Create(txn)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindTransactionByReference(ctx context.Context, db *gorm.DB, loyaltyID snowflake.ID, referenceID string) (*loyaltydomain.LoyaltyTransaction, error) {
	var row loyaltydomain.LoyaltyTransaction
	err := db.WithContext(ctx).
		Where("loyalty_id = ? AND reference_id = ?", loyaltyID, referenceID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repo) ListTransactions(ctx context.Context, db *gorm.DB, loyaltyID snowflake.ID, beforeID snowflake.ID, limit int) ([]*loyaltydomain.LoyaltyTransaction, error) {
	query := db.WithContext(ctx).Where("loyalty_id = ?", loyaltyID)
	if beforeID != 0 {
		query = query.Where("id < ?", beforeID)
	}

	var rows []*loyaltydomain.LoyaltyTransaction
	err := query.Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
