package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Cooldown allows one action per key per period. It throttles issuance of
// verification and reset codes per email address.
type Cooldown struct {
	limiter *limiter.Limiter
	period  time.Duration
	now     func() time.Time
}

// NewCooldown creates an in-memory cooldown of period
func NewCooldown(period time.Duration) *Cooldown {
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          "cooldown",
		CleanUpInterval: period * 10,
	})
	return &Cooldown{
		limiter: limiter.New(store, limiter.Rate{Period: period, Limit: 1}),
		period:  period,
		now:     time.Now,
	}
}

// Key builds the cooldown key for an email and purpose
func Key(purpose, email string) string {
	return fmt.Sprintf("%s:%s", purpose, email)
}

// Allow records an attempt for key. When the key is still cooling down it
// returns false and how long until the next attempt is allowed.
func (c *Cooldown) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if c == nil || c.period <= 0 {
		return true, 0, nil
	}
	res, err := c.limiter.Get(ctx, key)
	if err != nil {
		slog.Error("Cooldown store failed", "key", key, "error", err)
		return false, 0, err
	}
	if !res.Reached {
		return true, 0, nil
	}
	retry := time.Unix(res.Reset, 0).Sub(c.now())
	if retry < time.Second {
		retry = time.Second
	}
	return false, retry, nil
}

// Reset clears the cooldown for key
func (c *Cooldown) Reset(ctx context.Context, key string) error {
	if c == nil || c.period <= 0 {
		return nil
	}
	_, err := c.limiter.Reset(ctx, key)
	return err
}

// Period returns the cooldown length, zero when disabled
func (c *Cooldown) Period() time.Duration {
	if c == nil {
		return 0
	}
	return c.period
}
