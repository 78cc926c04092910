package mongodb

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/areabasket_sync/config"
	"github.com/mmdatafocus/areabasket_sync/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Run (requires Docker): INTEGRATION_TESTS=1 go test ./mongodb -run Repository -v

func openTestDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}
	name := fmt.Sprintf("areabasket-test-mongo-%d", time.Now().UnixNano())
	if out, err := dockerRun("run", "-d", "--name", name, "-p", "127.0.0.1:0:27017", "mongo:7"); err != nil {
		t.Fatalf("start mongo container: %v\n%s", err, out)
	}
	t.Cleanup(func() { _, _ = dockerRun("rm", "-f", name) })

	out, err := dockerRun("port", name, "27017/tcp")
	if err != nil {
		t.Fatalf("mongo docker port: %v\n%s", err, out)
	}
	m := regexp.MustCompile(`:(\d+)`).FindStringSubmatch(out)
	if len(m) != 2 {
		t.Fatalf("unexpected docker port output: %q", out)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	settings := config.Settings{MongoURL: fmt.Sprintf("mongodb://127.0.0.1:%s/catalog_test", m[1]), Workers: 2}

	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for {
		client, db, err := config.ConnectMongo(context.Background(), settings, logger)
		if err == nil {
			t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
			return db
		}
		if time.Now().After(deadline) {
			t.Fatalf("mongo did not become ready: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func dockerRun(args ...string) (string, error) {
	b, err := exec.Command("docker", args...).CombinedOutput()
	return string(b), err
}

func TestRepository_EnrichAndUpsert(t *testing.T) {
	db := openTestDatabase(t)
	ctx := context.Background()
	repo := NewRepository(db)

	if err := repo.EnsureIndexes(ctx, models.AreaBasketVariantSchema); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	if err := repo.EnsureIndexes(ctx, models.AreaBasketVariantSchema); err != nil {
		t.Fatalf("EnsureIndexes must be repeatable: %v", err)
	}

	if _, err := db.Collection(ColProducts).InsertOne(ctx, bson.M{"_id": "P1", "name": "Rice", "brand": "Golden", "tags": bson.A{"grain"}}); err != nil {
		t.Fatalf("insert product: %v", err)
	}
	if _, err := db.Collection(ColProductVariants).InsertMany(ctx, []any{
		bson.M{"_id": "V1", "productId": "P1", "code": "C1", "name": "Rice 5kg", "price": 10.0},
		bson.M{"_id": "V2", "productId": "P-missing", "code": "C2", "name": "Orphan", "price": 10.0},
	}); err != nil {
		t.Fatalf("insert variants: %v", err)
	}

	enriched, err := repo.Enrich(ctx, []string{"V1", "V2"})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(enriched) != 1 {
		t.Fatalf("expected only V1 to join a product, got %v", enriched)
	}
	detail := enriched["V1"]["productDetail"].(map[string]any)
	if tags := detail["tags"].([]any); detail["brand"] != "Golden" || len(tags) != 1 {
		t.Fatalf("unexpected product detail %v", detail)
	}

	rec := &models.AreaBasketVariant{
		ID: "firstfirstfirstfir", VariantHexCode: "V1_H1", HexCode: "H1", VariantId: "V1", ProductId: "P1",
		Code: "C1", Name: "Rice 5kg", Price: decimal.RequireFromString("12.5"),
		Currency: &models.Currency{Iso: "MMK"}, SubUnit: map[string]any{"upc": ""},
	}
	if err := repo.UpsertAreaBasketVariant(ctx, rec); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second := *rec
	second.ID = "secondsecondsecond"
	second.Price = decimal.NewFromInt(13)
	if err := repo.UpsertAreaBasketVariant(ctx, &second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var stored bson.M
	if err := db.Collection(ColAreaBasketVariants).FindOne(ctx, bson.M{"variantHexCode": "V1_H1"}).Decode(&stored); err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored["_id"] != "firstfirstfirstfir" {
		t.Fatalf("_id must survive the update, got %v", stored["_id"])
	}
	doc := normalizeMap(stored)
	if p, ok := doc["price"].(decimal.Decimal); !ok || !p.Equal(decimal.NewFromInt(13)) {
		t.Fatalf("expected replaced price 13, got %v", doc["price"])
	}
	n, _ := db.Collection(ColAreaBasketVariants).CountDocuments(ctx, bson.M{})
	if n != 1 {
		t.Fatalf("expected a single document, got %d", n)
	}

	now := time.Now().UTC()
	if err := repo.RecordSyncRun(ctx, &models.SyncRun{RunId: "run-1", Status: models.SyncRunStatusSuccess, StartedAt: now, FinishedAt: now}); err != nil {
		t.Fatalf("RecordSyncRun: %v", err)
	}
}
