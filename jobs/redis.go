package jobs

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisQueueConfig configures a RedisQueue
type RedisQueueConfig struct {
	// Key is the sorted set holding waiting jobs, scored by due time in unix milliseconds
	Key       string
	Interval  time.Duration
	BatchSize int64
}

// RedisQueue is a durable delay queue on a redis sorted set. Any instance may deliver a
// due job; the instance whose ZREM removes the member owns it.
type RedisQueue struct {
	client *redis.Client
	cfg    RedisQueueConfig

	once      sync.Once
	started   atomic.Bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewRedisQueue returns a queue over client
func NewRedisQueue(client *redis.Client, cfg RedisQueueConfig) *RedisQueue {
	if cfg.Key == "" {
		cfg.Key = "legalcase:jobs"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &RedisQueue{
		client:    client,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (q *RedisQueue) Schedule(ctx context.Context, job Job, delay time.Duration) error {
	due := time.Now().Add(delay).UnixMilli()
	err := q.client.ZAddNX(ctx, q.cfg.Key, redis.Z{Score: float64(due), Member: job.Key()}).Err()
	if err != nil {
		return errors.Wrapf(err, "schedule job %s", job.Key())
	}
	return nil
}

func (q *RedisQueue) Cancel(ctx context.Context, job Job) error {
	if err := q.client.ZRem(ctx, q.cfg.Key, job.Key()).Err(); err != nil {
		return errors.Wrapf(err, "cancel job %s", job.Key())
	}
	return nil
}

// Start runs the delivery loop in the background until Close or ctx is done
func (q *RedisQueue) Start(ctx context.Context, h Handler) {
	if !q.started.CompareAndSwap(false, true) {
		return
	}
	go q.loop(ctx, h)
}

func (q *RedisQueue) loop(ctx context.Context, h Handler) {
	defer close(q.stoppedCh)

	ticker := time.NewTicker(q.cfg.Interval)
	defer ticker.Stop()

	zap.S().Infow("job queue started", "key", q.cfg.Key, "interval", q.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopCh:
			return
		case <-ticker.C:
			if err := q.deliverDue(ctx, h); err != nil {
				zap.S().Errorw("job delivery cycle failed", "error", err)
			}
		}
	}
}

// deliverDue claims and runs every job that is due now
func (q *RedisQueue) deliverDue(ctx context.Context, h Handler) error {
	members, err := q.client.ZRangeByScore(ctx, q.cfg.Key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(time.Now().UnixMilli(), 10),
		Count: q.cfg.BatchSize,
	}).Result()
	if err != nil {
		return errors.Wrap(err, "read due jobs")
	}

	for _, key := range members {
		removed, err := q.client.ZRem(ctx, q.cfg.Key, key).Result()
		if err != nil {
			return errors.Wrapf(err, "claim job %s", key)
		}
		if removed == 0 {
			// another instance claimed it
			continue
		}
		job, err := ParseKey(key)
		if err != nil {
			zap.S().Errorw("dropping malformed job", "key", key, "error", err)
			continue
		}
		run(ctx, h, job)
	}
	return nil
}

// Close stops the delivery loop. It does not close the redis client.
func (q *RedisQueue) Close() error {
	q.once.Do(func() { close(q.stopCh) })
	if !q.started.Load() {
		return nil
	}
	select {
	case <-q.stoppedCh:
	case <-time.After(5 * time.Second):
	}
	return nil
}
