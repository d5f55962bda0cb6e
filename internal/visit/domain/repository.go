package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, visit *Visit) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Visit, error)
	List(ctx context.Context, db *gorm.DB, businessID snowflake.ID, status VisitStatus, limit int) ([]*Visit, error)

	// Transition flips a pending visit owned by businessID into target,
	// stamping the settlement columns. False means the guard matched no
	// row, either because the visit is gone or already processed.
	Transition(ctx context.Context, db *gorm.DB, id, businessID snowflake.ID, target VisitStatus, creditsEarned, pointsEarned int64, at time.Time) (bool, error)
}
