package repository

import (
	"context"
	"time"

	"pdvinova/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimeClockRepository is the data access contract of the ponto ledger.
type TimeClockRepository interface {
	// FindOpen returns the latest punch with no clock-out, or ErrNotFound.
	FindOpen(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*model.TimeClockRecord, error)
	// Create fails with ErrDuplicate when the worker already has an open punch.
	Create(ctx context.Context, tx *gorm.DB, rec *model.TimeClockRecord) error
	// Close sets clock_out only if the punch is still open.
	Close(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error)
	ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.TimeClockRecord, error)
	DB() *gorm.DB
}

type timeClockRepo struct{ db *gorm.DB }

func NewTimeClockRepository(db *gorm.DB) TimeClockRepository { return &timeClockRepo{db: db} }

func (r *timeClockRepo) DB() *gorm.DB { return r.db }

func (r *timeClockRepo) FindOpen(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*model.TimeClockRecord, error) {
	var rec model.TimeClockRecord
	err := conn(ctx, r.db, tx).
		Where("user_id = ? AND saida IS NULL", userID).
		Order("entrada DESC").
		First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (r *timeClockRepo) Create(ctx context.Context, tx *gorm.DB, rec *model.TimeClockRecord) error {
	return translate(conn(ctx, r.db, tx).Create(rec).Error)
}

func (r *timeClockRepo) Close(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error) {
	res := conn(ctx, r.db, tx).
		Model(&model.TimeClockRecord{}).
		Where("id = ? AND saida IS NULL", id).
		Updates(map[string]interface{}{"saida": at, "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *timeClockRepo) ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.TimeClockRecord, error) {
	var recs []model.TimeClockRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND entrada >= ? AND entrada < ?", userID, from, to).
		Order("entrada DESC").
		Find(&recs).Error
	return recs, err
}
