package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// Errors
// =============================================================================

// ErrLockTimeout is returned when a sequence bucket stays locked past the wait budget
var ErrLockTimeout = errors.New("sequence lock wait exceeded")

// releaseLockScript deletes the lock key only when it still holds our token,
// so an expired lock re-acquired by another instance is never released by us.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// =============================================================================
// Constants
// =============================================================================

const (
	RedisSequenceLockKeyPrefix = "identity:sequence_lock:"

	lockPollInterval = 25 * time.Millisecond

	// Interval for cleaning up stale bucket locks
	bucketCleanupInterval = 10 * time.Minute

	// How long a bucket lock must be unused before cleanup
	bucketStaleThreshold = 10 * time.Minute
)

// =============================================================================
// Types
// =============================================================================

// SequenceLocker serializes identifier generation per sequence bucket
// (MED2506, ADM2506, MIN). It narrows the read-max-then-insert window; the
// primary key constraint stays the backstop.
type SequenceLocker interface {
	Acquire(ctx context.Context, bucket string) (release func(), err error)
}

// SequenceLockService holds an in-process lock per bucket and, when a Redis
// client is configured, a cross-instance lock on top of it.
//
// Lock Ordering:
// 1. Acquire bucket lock in process FIRST
// 2. Then the Redis key
type SequenceLockService struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
	wait        time.Duration

	// Per-bucket lock, map[string]*bucketLock
	buckets sync.Map

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// bucketLock is a one-slot semaphore so waiters can give up on timeout
type bucketLock struct {
	slot     chan struct{}
	lastUsed atomic.Int64 // Unix timestamp
}

// =============================================================================
// Constructor
// =============================================================================

// NewSequenceLockService creates a SequenceLockService. redisClient may be nil.
// Starts background goroutine for bucket cleanup.
// Call Stop() during graceful shutdown.
func NewSequenceLockService(redisClient *redis.Client, log *logrus.Logger, ttl, wait time.Duration) *SequenceLockService {
	svc := &SequenceLockService{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
		wait:        wait,
		stopChan:    make(chan struct{}),
	}

	svc.wg.Add(1)
	go svc.cleanupBucketLoop()

	return svc
}

// =============================================================================
// Lifecycle Methods
// =============================================================================

// Stop gracefully shuts down the service.
// Safe to call multiple times.
func (s *SequenceLockService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("SequenceLockService stopped")
	}
}

// =============================================================================
// Public Methods
// =============================================================================

// Acquire blocks until bucket is locked, ctx is done or the wait budget runs
// out. The returned release func is safe to call once.
func (s *SequenceLockService) Acquire(ctx context.Context, bucket string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, s.wait)
	defer cancel()

	bl := s.getBucketLock(bucket)
	select {
	case bl.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, s.waitError(ctx, bucket)
	}
	var localOnce sync.Once
	releaseLocal := func() {
		localOnce.Do(func() {
			bl.lastUsed.Store(time.Now().Unix())
			<-bl.slot
		})
	}

	if s.redisClient == nil {
		return releaseLocal, nil
	}

	key := RedisSequenceLockKeyPrefix + bucket
	token := uuid.NewString()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := s.redisClient.SetNX(ctx, key, token, s.ttl).Result()
		if err != nil && ctx.Err() == nil {
			releaseLocal()
			s.log.Warnf("Failed to acquire Redis sequence lock %s: %+v", bucket, err)
			return nil, fmt.Errorf("redis lock %s: %w", bucket, err)
		}
		if ok {
			break
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			releaseLocal()
			return nil, s.waitError(ctx, bucket)
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's ctx may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), s.wait)
			defer cancel()

			if err := releaseLockScript.Run(releaseCtx, s.redisClient, []string{key}, token).Err(); err != nil {
				s.log.Warnf("Failed to release Redis sequence lock %s: %+v", bucket, err)
			}
		})
		releaseLocal()
	}, nil
}

// =============================================================================
// Private Helper Methods
// =============================================================================

func (s *SequenceLockService) waitError(ctx context.Context, bucket string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("bucket %s: %w", bucket, ErrLockTimeout)
	}
	return ctx.Err()
}

// getBucketLock returns the lock for a specific bucket
func (s *SequenceLockService) getBucketLock(bucket string) *bucketLock {
	bl, _ := s.buckets.LoadOrStore(bucket, &bucketLock{slot: make(chan struct{}, 1)})
	result := bl.(*bucketLock)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

// cleanupBucketLoop runs in background to clean stale bucket locks
func (s *SequenceLockService) cleanupBucketLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(bucketCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			s.log.Debug("Bucket cleanup goroutine stopping")
			return
		case <-ticker.C:
			s.cleanupStaleBuckets()
		}
	}
}

// cleanupStaleBuckets removes unused bucket locks. A bucket is only removed
// while we hold its slot so a concurrent Acquire never loses its lock.
func (s *SequenceLockService) cleanupStaleBuckets() {
	cutoffTime := time.Now().Add(-bucketStaleThreshold).Unix()
	var cleaned int

	s.buckets.Range(func(key, value any) bool {
		bl, ok := value.(*bucketLock)
		if !ok {
			return true
		}

		select {
		case bl.slot <- struct{}{}:
			if bl.lastUsed.Load() < cutoffTime {
				s.buckets.Delete(key)
				cleaned++
			}
			<-bl.slot
		default:
		}
		return true
	})

	if cleaned > 0 {
		s.log.Debugf("Cleaned up %d stale bucket locks", cleaned)
	}
}
