package models

import (
	"time"

	"github.com/mmdatafocus/areabasket_sync/schema"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProductVariant is owned by the catalog service; this module only reads it,
// always together with its Product.
type ProductVariant struct {
	ID                  string                              `gorm:"primaryKey;size:32" json:"_id"`
	ProductId           string                              `gorm:"index;size:32;not null" json:"productId"`
	Product             Product                             `gorm:"foreignKey:ProductId" json:"productDetail"`
	Code                string                              `gorm:"size:100" json:"code"`
	Name                string                              `gorm:"size:255" json:"name"`
	Description         *string                             `gorm:"type:text" json:"description"`
	Price               *decimal.Decimal                    `gorm:"type:decimal(20,4)" json:"price"`
	CustomerGroupPrices datatypes.JSONMap                   `gorm:"type:json" json:"customerGroupPrices"`
	Currency            *Currency                           `gorm:"embedded;embeddedPrefix:currency_" json:"currency"`
	Category            string                              `gorm:"size:255" json:"category"`
	CategoryGroupId     string                              `gorm:"size:64" json:"categoryGroupId"`
	CategoryId          string                              `gorm:"size:64" json:"categoryId"`
	Enabled             *bool                               `json:"enabled"`
	IsFeatured          *bool                               `json:"isFeatured"`
	SubUnit             datatypes.JSONMap                   `gorm:"type:json" json:"subUnit"`
	UnitDescription     datatypes.JSONSlice[map[string]any] `gorm:"type:json" json:"unitDescription"`
	CreatedAt           *time.Time                          `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt           *time.Time                          `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

// ToDocument renders the joined row the way the document store would return
// it: variant fields on top, product fields under "productDetail". Empty
// columns are left out so they never shadow anything during the merge.
func (v ProductVariant) ToDocument() schema.Document {
	doc := schema.Document{
		"_id":           v.ID,
		"productDetail": v.Product.detailDocument(),
	}
	putString(doc, "productId", v.ProductId)
	putString(doc, "code", v.Code)
	putString(doc, "name", v.Name)
	putString(doc, "category", v.Category)
	putString(doc, "categoryGroupId", v.CategoryGroupId)
	putString(doc, "categoryId", v.CategoryId)
	if v.Description != nil {
		doc["description"] = *v.Description
	}
	if v.Price != nil {
		doc["price"] = *v.Price
	}
	if len(v.CustomerGroupPrices) > 0 {
		doc["customerGroupPrices"] = map[string]any(v.CustomerGroupPrices)
	}
	if v.Currency != nil && v.Currency.Iso != "" {
		currency := map[string]any{"iso": v.Currency.Iso}
		if v.Currency.Symbol != nil {
			currency["symbol"] = *v.Currency.Symbol
		}
		doc["currency"] = currency
	}
	if v.Enabled != nil {
		doc["enabled"] = *v.Enabled
	}
	if v.IsFeatured != nil {
		doc["isFeatured"] = *v.IsFeatured
	}
	if len(v.SubUnit) > 0 {
		doc["subUnit"] = map[string]any(v.SubUnit)
	}
	if len(v.UnitDescription) > 0 {
		items := make([]any, len(v.UnitDescription))
		for i, item := range v.UnitDescription {
			items[i] = item
		}
		doc["unitDescription"] = items
	}
	if v.CreatedAt != nil {
		doc["createdAt"] = v.CreatedAt.UTC()
	}
	if v.UpdatedAt != nil {
		doc["updatedAt"] = v.UpdatedAt.UTC()
	}
	return doc
}

func putString(doc map[string]any, key string, value string) {
	if value != "" {
		doc[key] = value
	}
}
