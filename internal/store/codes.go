package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TicketCodes hands out the sequential display numbers printed on
// tickets (CAR-001, CAR-002, ...). Counters live in Redis, one per
// specialization per day, and expire two days after creation so stale
// days clean themselves up.
type TicketCodes struct {
	Redis *redis.Client
}

func (t *TicketCodes) Next(ctx context.Context, specializationID int64) (int64, error) {
	key := fmt.Sprintf("tickets:spec:%d:%s", specializationID, time.Now().Format("2006-01-02"))
	n, err := t.Redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		t.Redis.Expire(ctx, key, 48*time.Hour)
	}
	return n, nil
}
