package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	visitdomain "github.com/tonynham/collabuu/internal/visit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() visitdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, visit *visitdomain.Visit) error {
	return db.WithContext(ctx).Create(visit).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*visitdomain.Visit, error) {
	var row visitdomain.Visit
	err := db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, businessID snowflake.ID, status visitdomain.VisitStatus, limit int) ([]*visitdomain.Visit, error) {
	query := db.WithContext(ctx).Where("business_id = ?", businessID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var rows []*visitdomain.Visit
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *repo) Transition(ctx context.Context, db *gorm.DB, id, businessID snowflake.ID, target visitdomain.VisitStatus, creditsEarned, pointsEarned int64, at time.Time) (bool, error) {
	result := db.WithContext(ctx).
		Model(&visitdomain.Visit{}).
		Where("id = ? AND business_id = ? AND status = ?", id, businessID, visitdomain.VisitStatusPending).
		Updates(map[string]any{
			"status":         target,
			"credits_earned": creditsEarned,
			"points_earned":  pointsEarned,
			"processed_at":   at,
			"updated_at":     at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
