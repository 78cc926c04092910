package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmdatafocus/areabasket_sync/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VariantRepository is the MySQL side of the sync: it joins product variants
// to products and upserts area basket variants.
type VariantRepository struct {
	db *gorm.DB
}

func NewVariantRepository(db *gorm.DB) *VariantRepository {
	return &VariantRepository{db: db}
}

// Enrich loads the given variants with their product in one query. Variants
// without a product, and ids with no variant, are missing from the result.
func (r *VariantRepository) Enrich(ctx context.Context, variantIds []string) (map[string]schema.Document, error) {
	out := map[string]schema.Document{}
	if len(variantIds) == 0 {
		return out, nil
	}
	var variants []ProductVariant
	err := r.db.WithContext(ctx).
		InnerJoins("Product").
		Where("product_variants.id IN ?", variantIds).
		Find(&variants).Error
	if err != nil {
		return nil, fmt.Errorf("enrich %d variants: %w", len(variantIds), err)
	}
	for _, v := range variants {
		out[v.ID] = v.ToDocument()
	}
	return out, nil
}

// UpsertAreaBasketVariant inserts rec, or replaces every column but id on the
// row with the same variant_hex_code.
func (r *VariantRepository) UpsertAreaBasketVariant(ctx context.Context, rec *AreaBasketVariant) error {
	if rec == nil || rec.VariantHexCode == "" {
		return errors.New("area basket variant without variantHexCode")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "variant_hex_code"}},
		DoUpdates: clause.AssignmentColumns(areaBasketVariantUpdateColumns),
	}).Create(rec).Error
}

func (r *VariantRepository) GetAreaBasketVariant(ctx context.Context, variantHexCode string) (*AreaBasketVariant, error) {
	var rec AreaBasketVariant
	err := r.db.WithContext(ctx).Where("variant_hex_code = ?", variantHexCode).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *VariantRepository) RecordSyncRun(ctx context.Context, run *SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}
