package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmdatafocus/areabasket_sync/basketsync"
	"github.com/mmdatafocus/areabasket_sync/config"
	"github.com/mmdatafocus/areabasket_sync/models"
	"github.com/mmdatafocus/areabasket_sync/mongodb"
	"github.com/mmdatafocus/areabasket_sync/utils"
	"github.com/sirupsen/logrus"
)

// store is the secondary (join) and destination side of the sync.
type store interface {
	basketsync.Enricher
	basketsync.VariantWriter
	basketsync.RunRecorder
}

func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := config.NewLogger(settings.LogLevel, settings.LogFile)

	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if err := run(ctx, settings, logger); err != nil {
		logger.WithFields(logrus.Fields{"field": "bootstrap"}).Error(err)
		stopSignals()
		os.Exit(1)
	}
}

func run(ctx context.Context, settings config.Settings, logger *logrus.Logger) error {
	fsClient, err := config.NewFirestoreClient(ctx, settings, logger)
	if errors.Is(err, config.ErrFirebaseNotConfigured) {
		logger.Warn("FIREBASE_DBURL or FIREBASE_AUTH_KEYFILE not set; skipping area basket sync")
		return nil
	} else if err != nil {
		return err
	}
	defer fsClient.Close()

	st, closeStore, err := connectStore(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	redisClient, locker, err := config.ConnectRedis(ctx, settings, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	release, err := utils.ObtainRunLock(ctx, logger, locker, settings.LockKey, lockTTL(settings))
	if errors.Is(err, utils.ErrorLockNotObtained) {
		logger.WithField("lock_key", settings.LockKey).Info("Another sync pass is running; exiting")
		return nil
	} else if err != nil {
		return err
	}
	defer release()

	pubsubClient, err := config.NewPubSubClient(ctx, settings, logger)
	if err != nil {
		return err
	}
	if pubsubClient != nil {
		defer pubsubClient.Close()
	}

	logger.Info("Syncing firestore variants to the destination store...")
	source := basketsync.NewFirestoreSource(fsClient, settings.SourceCollection, settings.SourceSubcollection)
	syncer := basketsync.NewSyncer(source, st, st, logger, basketsync.Options{
		ChunkSize:        settings.ChunkSize,
		Workers:          settings.Workers,
		RunTimeout:       settings.RunTimeout,
		PartitionTimeout: settings.PartitionTimeout,
		PriceGroup:       settings.PriceGroup,
	})
	summary := syncer.Run(ctx)

	// bookkeeping runs even when ctx was cancelled by a signal
	afterCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := st.RecordSyncRun(afterCtx, summary.SyncRun()); err != nil {
		config.LogError(logger, "main", "run", "Error recording sync run", summary.RunId, err)
	}
	if err := basketsync.PublishSummary(afterCtx, pubsubClient, settings.PubSubTopic, summary); err != nil {
		config.LogError(logger, "main", "run", "Error publishing sync summary", summary.RunId, err)
	}
	if settings.ReportBucket != "" {
		name, err := basketsync.WriteReport(afterCtx, settings.ReportBucket, summary)
		if err != nil {
			config.LogError(logger, "main", "run", "Error writing sync report", summary.RunId, err)
		} else {
			logger.WithField("object", name).Info("Sync report uploaded")
		}
	}

	logger.WithFields(logrus.Fields{
		"run_id":       summary.RunId,
		"status":       summary.Status(),
		"partitions":   summary.Partitions,
		"records":      summary.Records,
		"upserted":     summary.Upserted(),
		"by_partition": summary.ByPartition,
		"by_record":    summary.ByRecord,
		"duration":     summary.Duration().String(),
	}).Info("Synced")
	return nil
}

// connectStore opens the backend selected by STORE_DRIVER and prepares its
// schema (tables or indexes).
func connectStore(ctx context.Context, settings config.Settings, logger *logrus.Logger) (store, func(), error) {
	switch settings.StoreDriver {
	case config.StoreDriverMongo:
		client, db, err := config.ConnectMongo(ctx, settings, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = client.Disconnect(closeCtx)
		}
		repo := mongodb.NewRepository(db)
		if !settings.SkipMigrations {
			if err := repo.EnsureIndexes(ctx, models.AreaBasketVariantSchema); err != nil {
				closeFn()
				return nil, nil, fmt.Errorf("ensure indexes: %w", err)
			}
		} else {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping index creation on startup")
		}
		return repo, closeFn, nil
	default:
		db, err := config.ConnectDatabaseWithRetry(settings, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		if !settings.SkipMigrations {
			if err := models.MigrateTable(db); err != nil {
				closeFn()
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
		} else {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
		}
		return models.NewVariantRepository(db), closeFn, nil
	}
}

// lockTTL outlives the run deadline so the lock is never lost mid-pass.
func lockTTL(s config.Settings) time.Duration {
	if s.RunTimeout <= 0 {
		return time.Hour
	}
	return s.RunTimeout + time.Minute
}
