package repository

import (
	"context"
	"time"

	"pdvinova/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShiftRepository covers active_shifts and shift_closures.
type ShiftRepository interface {
	// ListActive returns the worker's active shifts, latest start_time first.
	ListActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]model.ActiveShift, error)
	CreateActive(ctx context.Context, tx *gorm.DB, s *model.ActiveShift) error
	// UpdateStartTime rewrites start_time and bumps the version if the row still
	// carries the expected version.
	UpdateStartTime(ctx context.Context, tx *gorm.DB, id uuid.UUID, version int, start time.Time) (bool, error)
	DeleteActive(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteActiveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	// ClaimActive deletes the row only if its version is unchanged. False means
	// another caller finalized or rewrote the shift first.
	ClaimActive(ctx context.Context, tx *gorm.DB, id uuid.UUID, version int) (bool, error)

	CreateClosure(ctx context.Context, tx *gorm.DB, c *model.ShiftClosure) error
	ListClosures(ctx context.Context, userID uuid.UUID, limit int) ([]model.ShiftClosure, error)
	DB() *gorm.DB
}

type shiftRepo struct{ db *gorm.DB }

func NewShiftRepository(db *gorm.DB) ShiftRepository { return &shiftRepo{db: db} }

func (r *shiftRepo) DB() *gorm.DB { return r.db }

func (r *shiftRepo) ListActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]model.ActiveShift, error) {
	var shifts []model.ActiveShift
	err := conn(ctx, r.db, tx).
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) CreateActive(ctx context.Context, tx *gorm.DB, s *model.ActiveShift) error {
	return translate(conn(ctx, r.db, tx).Create(s).Error)
}

func (r *shiftRepo) UpdateStartTime(ctx context.Context, tx *gorm.DB, id uuid.UUID, version int, start time.Time) (bool, error) {
	res := conn(ctx, r.db, tx).
		Model(&model.ActiveShift{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"start_time": start,
			"version":    gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *shiftRepo) DeleteActive(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return conn(ctx, r.db, tx).Where("id IN ?", ids).Delete(&model.ActiveShift{}).Error
}

func (r *shiftRepo) DeleteActiveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	res := conn(ctx, r.db, tx).Where("user_id = ?", userID).Delete(&model.ActiveShift{})
	return res.RowsAffected, res.Error
}

func (r *shiftRepo) ClaimActive(ctx context.Context, tx *gorm.DB, id uuid.UUID, version int) (bool, error) {
	res := conn(ctx, r.db, tx).
		Where("id = ? AND version = ?", id, version).
		Delete(&model.ActiveShift{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *shiftRepo) CreateClosure(ctx context.Context, tx *gorm.DB, c *model.ShiftClosure) error {
	return translate(conn(ctx, r.db, tx).Create(c).Error)
}

func (r *shiftRepo) ListClosures(ctx context.Context, userID uuid.UUID, limit int) ([]model.ShiftClosure, error) {
	var closures []model.ShiftClosure
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("shift_end_time DESC").
		Limit(limit).
		Find(&closures).Error
	return closures, err
}
