package repository

import (
	"context"
	"time"

	"pdvinova/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryFilter narrows ListCounts. Zero values match everything.
type InventoryFilter struct {
	From      time.Time
	To        time.Time
	UserName  string
	ProductID *uuid.UUID
}

type InventoryRepository interface {
	// UpsertOpen writes the product's open count, replacing an existing open
	// one in place: same id, every other column including created_at taken
	// from c. c.ID is set to the stored row.
	UpsertOpen(ctx context.Context, c *model.InventoryCount) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryCount, error)
	LatestForProduct(ctx context.Context, productID uuid.UUID) (*model.InventoryCount, error)
	// UpdateOpen changes an open count. False means it is closed or gone.
	UpdateOpen(ctx context.Context, id uuid.UUID, counted, difference int, category string) (bool, error)
	Close(ctx context.Context, id uuid.UUID) (bool, error)
	ListCounts(ctx context.Context, f InventoryFilter) ([]model.InventoryCount, error)
	// ApplySale takes qty units off the product's open count, on both sides.
	ApplySale(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepository(db *gorm.DB) InventoryRepository { return &inventoryRepo{db: db} }

func (r *inventoryRepo) UpsertOpen(ctx context.Context, c *model.InventoryCount) error {
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "product_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "contagem_fechada = false"}}},
			DoUpdates: clause.AssignmentColumns([]string{
				"codigo_barras", "nome", "descricao", "categoria",
				"quantidade_estoque", "quantidade_contada", "diferenca", "usuario", "created_at", "updated_at",
			}),
		}).
		Create(c).Error)
}

func (r *inventoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryCount, error) {
	var c model.InventoryCount
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *inventoryRepo) LatestForProduct(ctx context.Context, productID uuid.UUID) (*model.InventoryCount, error) {
	var c model.InventoryCount
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *inventoryRepo) UpdateOpen(ctx context.Context, id uuid.UUID, counted, difference int, category string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryCount{}).
		Where("id = ? AND contagem_fechada = ?", id, false).
		Updates(map[string]interface{}{
			"quantidade_contada": counted,
			"diferenca":          difference,
			"categoria":          category,
			"updated_at":         time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *inventoryRepo) Close(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryCount{}).
		Where("id = ? AND contagem_fechada = ?", id, false).
		Updates(map[string]interface{}{"contagem_fechada": true, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *inventoryRepo) ListCounts(ctx context.Context, f InventoryFilter) ([]model.InventoryCount, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryCount{})
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}
	if f.UserName != "" {
		q = q.Where("usuario = ?", f.UserName)
	}
	if f.ProductID != nil {
		q = q.Where("product_id = ?", *f.ProductID)
	}
	var counts []model.InventoryCount
	err := q.Order("categoria, nome").Find(&counts).Error
	return counts, err
}

func (r *inventoryRepo) ApplySale(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	return conn(ctx, r.db, tx).
		Model(&model.InventoryCount{}).
		Where("product_id = ? AND contagem_fechada = ?", productID, false).
		Updates(map[string]interface{}{
			"quantidade_contada": gorm.Expr("quantidade_contada - ?", qty),
			"quantidade_estoque": gorm.Expr("quantidade_estoque - ?", qty),
		}).Error
}
