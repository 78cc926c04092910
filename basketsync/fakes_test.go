package basketsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mmdatafocus/areabasket_sync/models"
	"github.com/mmdatafocus/areabasket_sync/schema"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type fakeSource struct {
	partitions []string
	listErr    error
	variants   map[string][]schema.Document
	fetchErr   map[string]error
	delay      time.Duration
	// hang makes FetchVariants wait for its context on these hexCodes.
	hang map[string]bool

	mu        sync.Mutex
	active    int
	maxActive int
}

func (f *fakeSource) ListPartitions(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.partitions...), nil
}

func (f *fakeSource) FetchVariants(ctx context.Context, hexCode string) ([]schema.Document, error) {
	f.mu.Lock()
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.hang[hexCode] {
		<-ctx.Done()
		return nil, fmt.Errorf("get areabaskets/%s/variants: %w", hexCode, ctx.Err())
	}
	if err := f.fetchErr[hexCode]; err != nil {
		return nil, err
	}
	var docs []schema.Document
	for _, doc := range f.variants[hexCode] {
		docs = append(docs, Merge(nil, doc))
	}
	return docs, nil
}

type fakeEnricher struct {
	variants map[string]schema.Document
	err      error

	mu    sync.Mutex
	calls [][]string
}

func (f *fakeEnricher) Enrich(ctx context.Context, variantIds []string) (map[string]schema.Document, error) {
	f.mu.Lock()
	f.calls = append(f.calls, variantIds)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]schema.Document{}
	for _, id := range variantIds {
		if v, ok := f.variants[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// fakeWriter behaves like the destination upsert: keyed by variantHexCode,
// keeping the id of the first insert.
type fakeWriter struct {
	failKeys map[string]bool

	mu      sync.Mutex
	records map[string]models.AreaBasketVariant
	writes  int
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{records: map[string]models.AreaBasketVariant{}}
}

func (f *fakeWriter) UpsertAreaBasketVariant(ctx context.Context, rec *models.AreaBasketVariant) error {
	if f.failKeys[rec.VariantHexCode] {
		return errors.New("connection reset")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	cp := *rec
	if existing, ok := f.records[rec.VariantHexCode]; ok {
		cp.ID = existing.ID
	}
	f.records[rec.VariantHexCode] = cp
	return nil
}

func (f *fakeWriter) get(key string) (models.AreaBasketVariant, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[key]
	return rec, ok
}

func (f *fakeWriter) keys() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]bool{}
	for k := range f.records {
		out[k] = true
	}
	return out
}

// content renders the destination without ids and sync timestamps.
func (f *fakeWriter) content() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for k, rec := range f.records {
		rec.ID = ""
		rec.DateAdded = nil
		subUnit := map[string]any{}
		for sk, sv := range rec.SubUnit {
			if sk != "syncedAt" {
				subUnit[sk] = sv
			}
		}
		rec.SubUnit = subUnit
		b, _ := json.Marshal(rec)
		out[k] = string(b)
	}
	return out
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var (
	variantCreated = time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	productCreated = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
)

// enrichedVariant looks like a joined productvariants row.
func enrichedVariant(id string) schema.Document {
	return schema.Document{
		"_id":       id,
		"productId": "P-" + id,
		"code":      "C-" + id,
		"name":      "Variant " + id,
		"price":     decimal.NewFromInt(10),
		"currency":  map[string]any{"iso": "MMK", "symbol": "K"},
		"category":  "Food",
		"createdAt": variantCreated,
		"productDetail": map[string]any{
			"_id":       "P-" + id,
			"name":      "Product " + id,
			"brand":     "Golden",
			"brandId":   "B1",
			"tags":      []any{"grain"},
			"createdAt": productCreated,
		},
	}
}

func sourceVariant(variantId string) schema.Document {
	return schema.Document{
		"variantId": variantId,
		"subUnit":   map[string]any{"upc": "885" + variantId},
	}
}

// catalog builds a source with one sellable variant per hexCode and an
// enricher that knows every variant.
func catalog(hexCodes ...string) (*fakeSource, *fakeEnricher) {
	src := &fakeSource{partitions: hexCodes, variants: map[string][]schema.Document{}, fetchErr: map[string]error{}}
	enr := &fakeEnricher{variants: map[string]schema.Document{}}
	for i, hexCode := range hexCodes {
		for j := 0; j < 2; j++ {
			id := fmt.Sprintf("V%d%d", i, j)
			src.variants[hexCode] = append(src.variants[hexCode], sourceVariant(id))
			enr.variants[id] = enrichedVariant(id)
		}
	}
	return src, enr
}
