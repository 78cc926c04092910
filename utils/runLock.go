package utils

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/areabasket_sync/config"
	"github.com/sirupsen/logrus"
)

// ObtainRunLock takes the single-run guard for a sync pass. A nil locker means
// no Redis is configured and the pass runs unguarded; the returned release func
// is always safe to call.
func ObtainRunLock(ctx context.Context, logger *logrus.Logger, locker *redislock.Client, key string, ttl time.Duration) (func(), error) {
	if locker == nil {
		return func() {}, nil
	}
	lock, err := locker.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(logger, "utils", "ObtainRunLock", "Could not obtain lock for sync run", key, err)
		return func() {}, ErrorLockNotObtained
	} else if err != nil {
		config.LogError(logger, "utils", "ObtainRunLock", "Error obtaining lock for sync run", key, err)
		return func() {}, err
	}
	return func() {
		// the run may outlive ctx (signal), so release on a fresh one
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			config.LogError(logger, "utils", "ObtainRunLock", "Error releasing sync lock", key, err)
		}
	}, nil
}
