// Package lock implements the distributed single-flight lock (C8) the
// run coordinator uses to guarantee at most one run proceeds
// cluster-wide at any instant (I1). It is grounded directly on the
// donor's services/api/internal/notification/queue.go AcquireLock /
// ReleaseLock pair: SET NX EX for acquisition, a Lua compare-and-delete
// script for release, generalized from a per-notification lock keyed
// by uuid to a single named lock key.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Lock is a Redis-backed mutex with a TTL and compare-and-delete
// release. It has no fencing tokens and performs no TTL extension (§11):
// operators must size the TTL above the P99 run duration.
type Lock struct {
	client *redis.Client
}

// New wraps an existing Redis client. The client's connection pool
// should be sized independently of lock usage since the lock issues at
// most two commands per run.
func New(client *redis.Client) *Lock {
	return &Lock{client: client}
}

// Acquire attempts non-blocking acquisition of key with the given TTL.
// A miss (ok=false, err=nil) is the expected "already running" outcome,
// not an error.
func (l *Lock) Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.New().String()

	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("lock: acquire %q: %w", key, err)
	}
	if !acquired {
		return "", false, nil
	}
	return token, true, nil
}

// Release deletes key only if it is still held by token (compare-and-
// delete), so a run that overran its TTL cannot release a lock a later
// run has since acquired. Release is idempotent: releasing an already-
// released or reassigned lock is not an error.
func (l *Lock) Release(ctx context.Context, key, token string) error {
	_, err := releaseScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("lock: release %q: %w", key, err)
	}
	return nil
}
