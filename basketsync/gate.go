package basketsync

import (
	"context"

	"github.com/mmdatafocus/areabasket_sync/models"
	"github.com/mmdatafocus/areabasket_sync/schema"
)

// VariantWriter upserts one record matched by its variantHexCode. The record id
// is only written when the key is new.
type VariantWriter interface {
	UpsertAreaBasketVariant(ctx context.Context, rec *models.AreaBasketVariant) error
}

// sellable reports whether the built document has a strictly positive price.
// Anything else is not written this pass, and not removed if already synced.
func sellable(doc schema.Document) bool {
	price, ok := schema.ToDecimal(doc["price"])
	return ok && price.IsPositive()
}
