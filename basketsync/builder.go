package basketsync

import (
	"time"

	"github.com/mmdatafocus/areabasket_sync/models"
	"github.com/mmdatafocus/areabasket_sync/schema"
	"github.com/mmdatafocus/areabasket_sync/utils"
)

const DefaultPriceGroup = "ROT"

type BuildOptions struct {
	Now        func() time.Time
	NewID      func() string
	PriceGroup string
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = utils.NewRandomId
	}
	if o.PriceGroup == "" {
		o.PriceGroup = DefaultPriceGroup
	}
	return o
}

// Build derives the area basket variant document for hexCode from a merged
// (enrichment + source) record. It only reads merged and performs no I/O; the
// result has every derived value filled in and is ready for validation.
func Build(hexCode string, merged schema.Document, opts BuildOptions) schema.Document {
	opts = opts.withDefaults()
	now := opts.Now().UTC()

	variantId := schema.GetString(merged, "variantId")
	if variantId == "" {
		variantId = schema.GetString(merged, "_id")
	}

	upc := schema.GetString(merged, "subUnit", "upc")

	doc := schema.Document{
		"_id":             opts.NewID(),
		"brandId":         schema.GetString(merged, "productDetail", "brandId"),
		"brandName":       schema.GetString(merged, "productDetail", "brand"),
		"category":        schema.GetString(merged, "category"),
		"categoryGroupId": schema.GetString(merged, "categoryGroupId"),
		"categoryId":      schema.GetString(merged, "categoryId"),
		"dateAdded":       now,
		"hexCode":         hexCode,
		"subUnit": map[string]any{
			"upc":      upc,
			"syncedAt": now,
		},
	}
	if variantId != "" {
		doc["variantId"] = variantId
	}
	if key := models.VariantHexCode(variantId, hexCode); key != "" {
		doc["variantHexCode"] = key
	}
	if price, ok := priceFor(merged, opts.PriceGroup); ok {
		doc["price"] = price
	}
	for _, key := range []string{"enabled", "isFeatured", "code", "name", "description", "productId", "currency", "unitDescription", "updatedAt"} {
		if v, ok := schema.Get(merged, key); ok {
			doc[key] = v
		}
	}
	copyPath(doc, "variantCreatedAt", merged, "createdAt")
	copyPath(doc, "productName", merged, "productDetail", "name")
	copyPath(doc, "productCreatedAt", merged, "productDetail", "createdAt")
	copyPath(doc, "tags", merged, "productDetail", "tags")

	return models.AreaBasketVariantSchema.Clean(doc)
}

// priceFor prefers customerGroupPrices.<group> over the base price.
func priceFor(merged schema.Document, group string) (any, bool) {
	if v, ok := schema.Get(merged, "customerGroupPrices", group); ok {
		return v, true
	}
	return schema.Get(merged, "price")
}

func copyPath(dst schema.Document, key string, src schema.Document, path ...string) {
	if v, ok := schema.Get(src, path...); ok {
		dst[key] = v
	}
}
