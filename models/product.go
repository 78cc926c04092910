package models

import (
	"time"

	"gorm.io/datatypes"
)

// Product is owned by the catalog service; this module only reads it.
type Product struct {
	ID        string                      `gorm:"primaryKey;size:32" json:"_id"`
	Name      string                      `gorm:"size:255" json:"name"`
	BrandId   string                      `gorm:"size:64" json:"brandId"`
	Brand     string                      `gorm:"size:255" json:"brand"`
	Tags      datatypes.JSONSlice[string] `gorm:"type:json" json:"tags"`
	CreatedAt *time.Time                  `gorm:"autoCreateTime:false" json:"createdAt"`
}

func (Product) TableName() string {
	return "products"
}

// detailDocument is the shape the builder expects under "productDetail".
func (p Product) detailDocument() map[string]any {
	doc := map[string]any{"_id": p.ID}
	putString(doc, "name", p.Name)
	putString(doc, "brandId", p.BrandId)
	putString(doc, "brand", p.Brand)
	if len(p.Tags) > 0 {
		tags := make([]any, len(p.Tags))
		for i, t := range p.Tags {
			tags[i] = t
		}
		doc["tags"] = tags
	}
	if p.CreatedAt != nil {
		doc["createdAt"] = p.CreatedAt.UTC()
	}
	return doc
}
