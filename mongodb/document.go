package mongodb

import (
	"github.com/mmdatafocus/areabasket_sync/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// areaBasketVariantUpdate splits rec into the fields every pass replaces and
// the ones written only when the document is created.
func areaBasketVariantUpdate(rec *models.AreaBasketVariant) (bson.M, error) {
	price, err := primitive.ParseDecimal128(rec.Price.String())
	if err != nil {
		return nil, err
	}
	set := bson.M{
		"variantHexCode":  rec.VariantHexCode,
		"hexCode":         rec.HexCode,
		"variantId":       rec.VariantId,
		"productId":       rec.ProductId,
		"brandId":         rec.BrandId,
		"brandName":       rec.BrandName,
		"category":        rec.Category,
		"categoryGroupId": rec.CategoryGroupId,
		"categoryId":      rec.CategoryId,
		"code":            rec.Code,
		"name":            rec.Name,
		"price":           price,
		"enabled":         rec.Enabled == nil || *rec.Enabled,
		"isFeatured":      rec.IsFeatured != nil && *rec.IsFeatured,
		"subUnit":         map[string]any(rec.SubUnit),
	}
	putOptional(set, "productName", rec.ProductName != "", rec.ProductName)
	putOptional(set, "description", rec.Description != nil, rec.Description)
	putOptional(set, "tags", rec.Tags != nil, []string(rec.Tags))
	putOptional(set, "unitDescription", rec.UnitDescription != nil, []map[string]any(rec.UnitDescription))
	putOptional(set, "dateAdded", rec.DateAdded != nil, rec.DateAdded)
	putOptional(set, "productCreatedAt", rec.ProductCreatedAt != nil, rec.ProductCreatedAt)
	putOptional(set, "variantCreatedAt", rec.VariantCreatedAt != nil, rec.VariantCreatedAt)
	putOptional(set, "updatedAt", rec.UpdatedAt != nil, rec.UpdatedAt)
	if rec.Currency != nil {
		currency := bson.M{"iso": rec.Currency.Iso}
		if rec.Currency.Symbol != nil {
			currency["symbol"] = *rec.Currency.Symbol
		}
		set["currency"] = currency
	}

	return bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": rec.ID},
	}, nil
}

func putOptional(m bson.M, key string, present bool, value any) {
	if present {
		m[key] = value
	}
}
