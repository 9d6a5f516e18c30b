package repository

import (
	"context"

	"pdvinova/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	// AdjustStock adds delta to quantidade_estoque. Stock may go negative.
	AdjustStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error
	CreateMovement(ctx context.Context, tx *gorm.DB, m *model.StockMovement) error
	// Upsert inserts products, updating rows whose barcode already exists.
	Upsert(ctx context.Context, products []model.Product) error
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Product, error) {
	out := make(map[uuid.UUID]model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []model.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("codigo_barras = ?", barcode).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *productRepo) AdjustStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error {
	return conn(ctx, r.db, tx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("quantidade_estoque", gorm.Expr("quantidade_estoque + ?", delta)).Error
}

func (r *productRepo) CreateMovement(ctx context.Context, tx *gorm.DB, m *model.StockMovement) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

func (r *productRepo) Upsert(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "codigo_barras"}},
			DoUpdates: clause.AssignmentColumns([]string{"nome", "preco", "quantidade_estoque", "unidade", "descricao", "updated_at"}),
		}).
		Create(&products).Error
}
