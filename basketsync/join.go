package basketsync

import (
	"context"

	"github.com/mmdatafocus/areabasket_sync/schema"
	"github.com/mmdatafocus/areabasket_sync/utils"
)

// Enricher joins variant ids against the variants and products collections in
// one batched lookup. Ids without a variant, or whose variant has no product,
// are absent from the result.
type Enricher interface {
	Enrich(ctx context.Context, variantIds []string) (map[string]schema.Document, error)
}

// variantIds collects the distinct foreign keys of docs in source order.
func variantIds(docs []schema.Document) []string {
	var ids []string
	for _, doc := range docs {
		if id := schema.GetString(doc, "variantId"); id != "" {
			ids = append(ids, id)
		}
	}
	return utils.UniqueSlice(ids)
}

// Merge lays source over enrichment: source fields win on conflict. A nil
// enrichment yields a copy of source.
func Merge(enrichment schema.Document, source schema.Document) schema.Document {
	merged := make(schema.Document, len(enrichment)+len(source))
	for k, v := range enrichment {
		merged[k] = v
	}
	for k, v := range source {
		merged[k] = v
	}
	return merged
}
