package basketsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/areabasket_sync/config"
	"github.com/mmdatafocus/areabasket_sync/models"
	"github.com/mmdatafocus/areabasket_sync/schema"
	"github.com/mmdatafocus/areabasket_sync/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkSize = 50
	DefaultWorkers   = 8
)

type Options struct {
	// ChunkSize bounds how many hexCodes are handed to the pool at a time.
	ChunkSize int
	// Workers is the number of partitions processed concurrently.
	Workers          int
	RunTimeout       time.Duration
	PartitionTimeout time.Duration
	PriceGroup       string
}

// Syncer runs one pass of the area basket sync.
type Syncer struct {
	source   PartitionSource
	enricher Enricher
	writer   VariantWriter
	logger   *logrus.Logger
	opts     Options
	build    BuildOptions
	tracer   trace.Tracer
}

func NewSyncer(source PartitionSource, enricher Enricher, writer VariantWriter, logger *logrus.Logger, opts Options) *Syncer {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Syncer{
		source:   source,
		enricher: enricher,
		writer:   writer,
		logger:   logger,
		opts:     opts,
		build:    BuildOptions{PriceGroup: opts.PriceGroup}.withDefaults(),
		tracer:   otel.Tracer("github.com/mmdatafocus/areabasket_sync/basketsync"),
	}
}

// WithClock replaces the clock and the id minter used when building records.
func (s *Syncer) WithClock(now func() time.Time, newID func() string) *Syncer {
	s.build.Now = now
	s.build.NewID = newID
	s.build = s.build.withDefaults()
	return s
}

// Run enumerates the partitions and syncs each of them on a bounded pool.
// Failures are isolated to the record or partition they happen in and end up
// in the returned Summary; Run itself never fails.
func (s *Syncer) Run(ctx context.Context) Summary {
	summary := newSummary(uuid.NewString(), s.build.Now().UTC())
	ctx = utils.SetRunIdInContext(ctx, summary.RunId)
	log := s.logEntry(ctx)

	if s.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
		defer cancel()
	}
	ctx, span := s.tracer.Start(ctx, "basketsync.Run", trace.WithAttributes(attribute.String("run_id", summary.RunId)))
	defer span.End()

	hexCodes, err := s.source.ListPartitions(ctx)
	if err != nil {
		config.LogError(s.logger, "basketsync", "Run", "Error occurred while getting hexCodes", summary.RunId, err)
		span.RecordError(err)
		summary.ListError = err.Error()
		hexCodes = nil
	}
	summary.Partitions = len(hexCodes)
	log.WithField("partitions", len(hexCodes)).Info("Fetched area baskets from source")

	var mu sync.Mutex
	collect := func(res PartitionResult) {
		mu.Lock()
		defer mu.Unlock()
		summary.add(res)
	}

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for _, chunk := range utils.Chunk(hexCodes, s.opts.ChunkSize) {
		for _, hexCode := range chunk {
			if ctx.Err() != nil {
				collect(PartitionResult{HexCode: hexCode, Outcome: PartitionAborted, Err: ctx.Err()})
				continue
			}
			g.Go(func() error {
				collect(s.syncPartition(ctx, hexCode))
				return nil
			})
		}
	}
	_ = g.Wait()

	summary.FinishedAt = s.build.Now().UTC()
	span.SetAttributes(
		attribute.Int("partitions", summary.Partitions),
		attribute.Int("records", summary.Records),
		attribute.Int("upserted", summary.Upserted()),
	)
	if status := summary.Status(); status != models.SyncRunStatusSuccess {
		span.SetStatus(codes.Error, status)
	}
	return summary
}

// syncPartition fetches, joins, builds, validates and writes one hexCode.
// Records are handled in source order. When several records resolve to the
// same variantHexCode the last one wins and is written once.
func (s *Syncer) syncPartition(runCtx context.Context, hexCode string) (res PartitionResult) {
	res = PartitionResult{HexCode: hexCode, Outcome: PartitionSynced, Counts: map[RecordOutcome]int{}}
	ctx := utils.SetHexCodeInContext(runCtx, hexCode)
	log := s.logEntry(ctx)

	if s.opts.PartitionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.PartitionTimeout)
		defer cancel()
	}
	ctx, span := s.tracer.Start(ctx, "basketsync.syncPartition", trace.WithAttributes(attribute.String("hex_code", hexCode)))
	defer func() {
		span.SetAttributes(attribute.String("outcome", string(res.Outcome)), attribute.Int("records", res.Records))
		if res.Err != nil {
			span.RecordError(res.Err)
		}
		span.End()
	}()

	docs, err := s.source.FetchVariants(ctx, hexCode)
	if err != nil {
		return s.failPartition(runCtx, ctx, res, PartitionFetchFailed, err)
	}
	res.Records = len(docs)

	enrichment, err := s.enricher.Enrich(ctx, variantIds(docs))
	if err != nil {
		return s.failPartition(runCtx, ctx, res, PartitionJoinFailed, err)
	}

	var (
		order   []string
		pending = map[string]*models.AreaBasketVariant{}
	)
	for _, doc := range docs {
		merged := Merge(enrichment[schema.GetString(doc, "variantId")], doc)
		built := Build(hexCode, merged, s.build)

		if !sellable(built) {
			res.Counts[RecordSkippedPrice]++
			log.WithField("variant_id", built["variantId"]).Debug("Skipping variant without a positive price")
			continue
		}
		result := models.ValidateAreaBasketVariant(built)
		if !result.Valid {
			res.Counts[RecordInvalid]++
			log.WithFields(logrus.Fields{
				"variant_hex_code": built["variantHexCode"],
				"errors":           result.Errors,
			}).Warn("AreaBasketVariant is not valid")
			continue
		}
		key := result.Record.VariantHexCode
		if _, seen := pending[key]; seen {
			res.Counts[RecordDuplicate]++
		} else {
			order = append(order, key)
		}
		pending[key] = result.Record
	}

	for i, key := range order {
		if ctx.Err() != nil {
			res.Counts[RecordNotWritten] += len(order) - i
			return s.failPartition(runCtx, ctx, res, PartitionAborted, ctx.Err())
		}
		if err := s.writer.UpsertAreaBasketVariant(ctx, pending[key]); err != nil {
			res.Counts[RecordWriteFailed]++
			config.LogError(s.logger, "basketsync", "syncPartition", "Error upserting variant", key, err)
			continue
		}
		res.Counts[RecordUpserted]++
	}
	log.WithFields(logrus.Fields{
		"records":  res.Records,
		"upserted": res.Counts[RecordUpserted],
	}).Debug("Partition synced")
	return res
}

// logEntry tags log lines with the run and partition carried by ctx.
func (s *Syncer) logEntry(ctx context.Context) *logrus.Entry {
	fields := logrus.Fields{}
	if runId, ok := utils.GetRunIdFromContext(ctx); ok {
		fields["run_id"] = runId
	}
	if hexCode, ok := utils.GetHexCodeFromContext(ctx); ok {
		fields["hex_code"] = hexCode
	}
	return s.logger.WithFields(fields)
}

// failPartition reports a done run context as aborted and a partition that
// only outlived its own deadline as timed out, whatever step noticed it.
func (s *Syncer) failPartition(runCtx, ctx context.Context, res PartitionResult, outcome PartitionOutcome, err error) PartitionResult {
	switch {
	case runCtx.Err() != nil:
		outcome = PartitionAborted
	case ctx.Err() != nil:
		outcome = PartitionTimedOut
	}
	res.Outcome = outcome
	res.Err = err
	config.LogError(s.logger, "basketsync", "syncPartition", fmt.Sprintf("Partition %s", outcome), res.HexCode, err)
	return res
}
