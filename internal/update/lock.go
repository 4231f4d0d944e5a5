package update

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// The run lock keeps two update processes from advancing the same journey at
// once. Each day depends on the previous day's committed state.
const (
	lockKey = "journey:update:lock"
	lockTTL = 10 * time.Minute
)

var ErrUpdateRunning = errors.New("journey update already running")

func (r *Runner) acquireLock(ctx context.Context) (func(), bool, error) {
	if r.redis == nil {
		return func() {}, true, nil
	}

	token := uuid.NewString()
	ok, err := r.redis.SetNX(ctx, lockKey, token, lockTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		bg := context.Background()
		if val, err := r.redis.Get(bg, lockKey).Result(); err == nil && val == token {
			r.redis.Del(bg, lockKey)
		}
	}
	return release, true, nil
}
