package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmdatafocus/areabasket_sync/models"
	"github.com/mmdatafocus/areabasket_sync/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ColProductVariants    = "productvariants"
	ColProducts           = "products"
	ColAreaBasketVariants = "areabasketvariants"
	ColSyncRuns           = "syncruns"
)

// Repository is the MongoDB flavour of the secondary and destination stores.
type Repository struct {
	db *mongo.Database
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{db: db}
}

// Enrich runs one aggregation: match the variants, look up their product and
// unwind it, which drops variants that have no product.
func (r *Repository) Enrich(ctx context.Context, variantIds []string) (map[string]schema.Document, error) {
	out := map[string]schema.Document{}
	if len(variantIds) == 0 {
		return out, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": bson.M{"$in": variantIds}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         ColProducts,
			"localField":   "productId",
			"foreignField": "_id",
			"as":           "productDetail",
		}}},
		{{Key: "$unwind", Value: "$productDetail"}},
	}
	cur, err := r.db.Collection(ColProductVariants).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate productvariants: %w", err)
	}
	var rows []bson.M
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode productvariants: %w", err)
	}
	for _, row := range rows {
		doc := normalizeMap(row)
		id, ok := doc["_id"].(string)
		if !ok {
			continue
		}
		out[id] = doc
	}
	return out, nil
}

// UpsertAreaBasketVariant matches on variantHexCode; _id is only written on insert.
func (r *Repository) UpsertAreaBasketVariant(ctx context.Context, rec *models.AreaBasketVariant) error {
	if rec == nil || rec.VariantHexCode == "" {
		return errors.New("area basket variant without variantHexCode")
	}
	update, err := areaBasketVariantUpdate(rec)
	if err != nil {
		return err
	}
	_, err = r.db.Collection(ColAreaBasketVariants).UpdateOne(ctx,
		bson.M{"variantHexCode": rec.VariantHexCode},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *Repository) RecordSyncRun(ctx context.Context, run *models.SyncRun) error {
	_, err := r.db.Collection(ColSyncRuns).InsertOne(ctx, bson.M{
		"runId":             run.RunId,
		"status":            run.Status,
		"partitions":        run.Partitions,
		"partitionsFailed":  run.PartitionsFailed,
		"partitionsAborted": run.PartitionsAborted,
		"records":           run.Records,
		"upserted":          run.Upserted,
		"skippedPrice":      run.SkippedPrice,
		"invalid":           run.Invalid,
		"writeFailed":       run.WriteFailed,
		"duplicates":        run.Duplicates,
		"listError":         run.ListError,
		"startedAt":         run.StartedAt,
		"finishedAt":        run.FinishedAt,
		"durationMs":        run.DurationMs,
	})
	return err
}
