// Package authz resolves callers and decides region-scoped approval authority.
package authz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/shared"
)

// Directory supplies caller identity and the region of each location.
type Directory interface {
	LookupPrincipal(ctx context.Context, userID int64) (shared.Principal, error)
	RegionOf(ctx context.Context, loc location.Location) (int64, error)
}

// CachedDirectory fronts a Directory with redis. Concurrent misses for the
// same key share one upstream call.
type CachedDirectory struct {
	next   Directory
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewCachedDirectory wraps next. A nil client disables caching.
func NewCachedDirectory(next Directory, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedDirectory{next: next, client: client, ttl: ttl, logger: logger}
}

func principalKey(userID int64) string {
	return "authz:principal:" + strconv.FormatInt(userID, 10)
}

func regionKey(loc location.Location) string {
	return fmt.Sprintf("authz:region:%s:%d", loc.Kind, loc.ID)
}

// LookupPrincipal returns the cached principal or loads it.
func (d *CachedDirectory) LookupPrincipal(ctx context.Context, userID int64) (shared.Principal, error) {
	var p shared.Principal
	err := d.fetch(ctx, principalKey(userID), &p, func(ctx context.Context) (any, error) {
		return d.next.LookupPrincipal(ctx, userID)
	})
	return p, err
}

// RegionOf returns the cached region or loads it.
func (d *CachedDirectory) RegionOf(ctx context.Context, loc location.Location) (int64, error) {
	var region int64
	err := d.fetch(ctx, regionKey(loc), &region, func(ctx context.Context) (any, error) {
		return d.next.RegionOf(ctx, loc)
	})
	return region, err
}

// Invalidate drops the cached principal, e.g. after a region reassignment.
func (d *CachedDirectory) Invalidate(ctx context.Context, userID int64) error {
	if d.client == nil {
		return nil
	}
	return d.client.Del(ctx, principalKey(userID)).Err()
}

func (d *CachedDirectory) fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if d.client != nil {
		payload, err := d.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			d.logger.Warn("authz cache read failed", slog.String("key", key), slog.Any("error", err))
		}
	}

	// The shared load outlives any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	ch := d.group.DoChan(key, func() (any, error) {
		value, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if d.client != nil {
			if err := d.client.Set(loadCtx, key, raw, d.ttl).Err(); err != nil {
				d.logger.Warn("authz cache write failed", slog.String("key", key), slog.Any("error", err))
			}
		}
		return raw, nil
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return res.Err
	}
	raw := res.Val.([]byte)
	return json.Unmarshal(raw, dest)
}
