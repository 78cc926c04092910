package models

import (
	"time"

	"github.com/mmdatafocus/areabasket_sync/schema"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// AreaBasketVariant is a product variant as sold in one area basket (hexCode).
// VariantHexCode is the natural key: every sync pass upserts on it and the
// minted ID is only written on insert.
type AreaBasketVariant struct {
	ID               string                              `gorm:"primaryKey;size:32" json:"_id"`
	VariantHexCode   string                              `gorm:"uniqueIndex;size:191;not null" json:"variantHexCode"`
	HexCode          string                              `gorm:"index;size:64;not null" json:"hexCode"`
	VariantId        string                              `gorm:"size:64;not null" json:"variantId"`
	ProductId        string                              `gorm:"size:64;not null" json:"productId"`
	ProductName      string                              `gorm:"size:255" json:"productName,omitempty"`
	BrandId          string                              `gorm:"size:64" json:"brandId"`
	BrandName        string                              `gorm:"size:255" json:"brandName"`
	Category         string                              `gorm:"size:255" json:"category"`
	CategoryGroupId  string                              `gorm:"size:64" json:"categoryGroupId"`
	CategoryId       string                              `gorm:"size:64" json:"categoryId"`
	Code             string                              `gorm:"size:100;not null" json:"code"`
	Name             string                              `gorm:"size:255;not null" json:"name"`
	Description      *string                             `gorm:"type:text" json:"description,omitempty"`
	Price            decimal.Decimal                     `gorm:"type:decimal(20,4);not null" json:"price"`
	Enabled          *bool                               `gorm:"not null;default:true" json:"enabled"`
	IsFeatured       *bool                               `gorm:"not null;default:false" json:"isFeatured"`
	Currency         *Currency                           `gorm:"embedded;embeddedPrefix:currency_" json:"currency,omitempty"`
	SubUnit          datatypes.JSONMap                   `gorm:"type:json" json:"subUnit"`
	Tags             datatypes.JSONSlice[string]         `gorm:"type:json" json:"tags,omitempty"`
	UnitDescription  datatypes.JSONSlice[map[string]any] `gorm:"type:json" json:"unitDescription,omitempty"`
	DateAdded        *time.Time                          `json:"dateAdded,omitempty"`
	ProductCreatedAt *time.Time                          `json:"productCreatedAt,omitempty"`
	VariantCreatedAt *time.Time                          `json:"variantCreatedAt,omitempty"`
	UpdatedAt        *time.Time                          `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`
}

type Currency struct {
	Iso    string  `gorm:"size:8" json:"iso"`
	Symbol *string `gorm:"size:16" json:"symbol,omitempty"`
}

func (AreaBasketVariant) TableName() string {
	return "area_basket_variants"
}

// areaBasketVariantUpdateColumns are replaced on conflict. id is never updated.
var areaBasketVariantUpdateColumns = []string{
	"variant_hex_code", "hex_code", "variant_id", "product_id", "product_name",
	"brand_id", "brand_name", "category", "category_group_id", "category_id",
	"code", "name", "description", "price", "enabled", "is_featured",
	"currency_iso", "currency_symbol", "sub_unit", "tags", "unit_description",
	"date_added", "product_created_at", "variant_created_at", "updated_at",
}

// PriceScale matches the price column; finer prices are rejected, not rounded.
const PriceScale = 4

// VariantHexCode derives the idempotency key. It is empty unless both parts are.
func VariantHexCode(variantId string, hexCode string) string {
	if variantId == "" || hexCode == "" {
		return ""
	}
	return variantId + "_" + hexCode
}

// AreaBasketVariantSchema is the write contract for area basket variants.
// Keys are the document field names shared by every store.
var AreaBasketVariantSchema = schema.New(map[string]schema.Field{
	"_id":               {Type: schema.String, Optional: true},
	"brandId":           {Type: schema.String, Optional: true},
	"brandName":         {Type: schema.String, Optional: true},
	"category":          {Type: schema.String, Optional: true},
	"categoryGroupId":   {Type: schema.String, Optional: true},
	"categoryId":        {Type: schema.String, Optional: true},
	"code":              {Type: schema.String},
	"currency":          {Type: schema.Object, Optional: true},
	"currency.iso":      {Type: schema.String},
	"currency.symbol":   {Type: schema.String, Optional: true},
	"dateAdded":         {Type: schema.Date, Optional: true},
	"description":       {Type: schema.String, Optional: true},
	"enabled":           {Type: schema.Boolean, Default: true},
	"isFeatured":        {Type: schema.Boolean, Optional: true, Default: false},
	"name":              {Type: schema.String},
	"hexCode":           {Type: schema.String, Index: 1},
	"price":             {Type: schema.Number, Decimal: true, Scale: PriceScale},
	"productCreatedAt":  {Type: schema.Date, Optional: true},
	"productId":         {Type: schema.String},
	"productName":       {Type: schema.String, Optional: true},
	"subUnit":           {Type: schema.Object, Blackbox: true},
	"subUnit.syncedAt":  {Type: schema.Date, Optional: true},
	"tags":              {Type: schema.Array, Optional: true},
	"tags.$":            {Type: schema.String},
	"unitDescription":   {Type: schema.Array, Optional: true},
	"unitDescription.$": {Type: schema.Object, Blackbox: true},
	"updatedAt":         {Type: schema.Date, Optional: true},
	"variantCreatedAt":  {Type: schema.Date, Optional: true},
	"variantId":         {Type: schema.String},
	"variantHexCode":    {Type: schema.String, Optional: true, Unique: true},
})

const ErrDerivedMismatch = "derivedMismatch"

type ValidationResult struct {
	Valid  bool
	Errors []schema.FieldError
	// Record is the normalized, typed record; nil unless Valid.
	Record *AreaBasketVariant
}

// ValidateAreaBasketVariant checks a fully derived document and, when it
// passes, converts it to the typed record. It does not fill or change values.
func ValidateAreaBasketVariant(doc schema.Document) ValidationResult {
	errs := AreaBasketVariantSchema.Validate(doc)

	if key := schema.GetString(doc, "variantHexCode"); key != "" {
		want := VariantHexCode(schema.GetString(doc, "variantId"), schema.GetString(doc, "hexCode"))
		if want != "" && key != want {
			errs = append(errs, schema.FieldError{Name: "variantHexCode", Type: ErrDerivedMismatch, Value: key})
		}
	}

	if len(errs) > 0 {
		return ValidationResult{Valid: false, Errors: errs}
	}
	return ValidationResult{Valid: true, Record: newAreaBasketVariantFromDocument(doc)}
}

// newAreaBasketVariantFromDocument assumes doc already passed the schema.
func newAreaBasketVariantFromDocument(doc schema.Document) *AreaBasketVariant {
	price, _ := schema.ToDecimal(doc["price"])
	rec := &AreaBasketVariant{
		ID:               schema.GetString(doc, "_id"),
		HexCode:          schema.GetString(doc, "hexCode"),
		VariantId:        schema.GetString(doc, "variantId"),
		ProductId:        schema.GetString(doc, "productId"),
		ProductName:      schema.GetString(doc, "productName"),
		BrandId:          schema.GetString(doc, "brandId"),
		BrandName:        schema.GetString(doc, "brandName"),
		Category:         schema.GetString(doc, "category"),
		CategoryGroupId:  schema.GetString(doc, "categoryGroupId"),
		CategoryId:       schema.GetString(doc, "categoryId"),
		Code:             schema.GetString(doc, "code"),
		Name:             schema.GetString(doc, "name"),
		Description:      optionalString(doc, "description"),
		Price:            price,
		Enabled:          boolOrDefault(doc, "enabled", true),
		IsFeatured:       boolOrDefault(doc, "isFeatured", false),
		DateAdded:        optionalTime(doc, "dateAdded"),
		ProductCreatedAt: optionalTime(doc, "productCreatedAt"),
		VariantCreatedAt: optionalTime(doc, "variantCreatedAt"),
		UpdatedAt:        optionalTime(doc, "updatedAt"),
	}
	rec.VariantHexCode = schema.GetString(doc, "variantHexCode")
	if rec.VariantHexCode == "" {
		rec.VariantHexCode = VariantHexCode(rec.VariantId, rec.HexCode)
	}

	if _, ok := schema.Get(doc, "currency"); ok {
		rec.Currency = &Currency{
			Iso:    schema.GetString(doc, "currency", "iso"),
			Symbol: optionalString(doc, "currency", "symbol"),
		}
	}
	if v, ok := schema.Get(doc, "subUnit"); ok {
		subUnit, _ := schema.AsObject(v)
		rec.SubUnit = datatypes.JSONMap(subUnit)
	}
	if v, ok := schema.Get(doc, "tags"); ok {
		for _, tag := range schema.AsArray(v) {
			rec.Tags = append(rec.Tags, tag.(string))
		}
	}
	if v, ok := schema.Get(doc, "unitDescription"); ok {
		for _, item := range schema.AsArray(v) {
			obj, _ := schema.AsObject(item)
			rec.UnitDescription = append(rec.UnitDescription, obj)
		}
	}
	return rec
}

func optionalString(doc schema.Document, path ...string) *string {
	v, ok := schema.Get(doc, path...)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func optionalTime(doc schema.Document, path ...string) *time.Time {
	v, ok := schema.Get(doc, path...)
	if !ok {
		return nil
	}
	t, ok := schema.AsTime(v)
	if !ok {
		return nil
	}
	t = t.UTC()
	return &t
}

func boolOrDefault(doc schema.Document, key string, def bool) *bool {
	b := def
	if v, ok := doc[key].(bool); ok {
		b = v
	}
	return &b
}
