package mongodb

import (
	"context"
	"strings"

	"github.com/mmdatafocus/areabasket_sync/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the destination indexes declared by the schema
// (unique variantHexCode, hexCode lookup).
func (r *Repository) EnsureIndexes(ctx context.Context, s *schema.Schema) error {
	col := r.db.Collection(ColAreaBasketVariants)
	for _, hint := range s.Indexes() {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: hint.Key, Value: hint.Order}},
			Options: options.Index().SetName(indexName(hint)).SetUnique(hint.Unique),
		}
		if hint.Unique {
			// older documents written before the key was derived have no variantHexCode
			model.Options.SetSparse(true)
		}
		if _, err := col.Indexes().CreateOne(ctx, model); err != nil && !isIndexExistsError(err) {
			return err
		}
	}
	return nil
}

func indexName(hint schema.IndexHint) string {
	name := "abv_" + strings.ReplaceAll(hint.Key, ".", "_")
	if hint.Unique {
		name += "_unique"
	}
	return name
}

func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "already exists") || strings.Contains(s, "duplicate")
}
