package repository

import (
	"context"
	"time"

	"pdvinova/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleFilter narrows List. Zero values are ignored.
type SaleFilter struct {
	UserID *uuid.UUID
	From   time.Time
	To     time.Time
	Limit  int
}

type SaleRepository interface {
	// Create inserts the sale together with its items.
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	// Delete removes the items first, then the sale. False when no sale matched.
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	// ListByUserBetween returns the worker's sales with created_at in [from, to].
	ListByUserBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.Sale, error)
	List(ctx context.Context, f SaleFilter) ([]model.Sale, error)
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	return translate(conn(ctx, r.db, tx).Create(s).Error)
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	if err := r.db.WithContext(ctx).Preload("Items").First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *saleRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	q := conn(ctx, r.db, tx)
	if err := q.Where("sale_id = ?", id).Delete(&model.SaleItem{}).Error; err != nil {
		return false, err
	}
	res := q.Where("id = ?", id).Delete(&model.Sale{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *saleRepo) ListByUserBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, from, to).
		Order("created_at ASC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) List(ctx context.Context, f SaleFilter) ([]model.Sale, error) {
	q := r.db.WithContext(ctx).Model(&model.Sale{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var sales []model.Sale
	err := q.Preload("Items").Order("created_at DESC").Find(&sales).Error
	return sales, err
}
