package authz

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/shared"
)

type staticDirectory struct {
	principals map[int64]shared.Principal
	regions    map[location.Location]int64
	lookups    atomic.Int32
}

func (d *staticDirectory) LookupPrincipal(_ context.Context, userID int64) (shared.Principal, error) {
	d.lookups.Add(1)
	p, ok := d.principals[userID]
	if !ok {
		return shared.Principal{}, fmt.Errorf("user %d %w", userID, shared.ErrNotFound)
	}
	return p, nil
}

func (d *staticDirectory) RegionOf(_ context.Context, loc location.Location) (int64, error) {
	region, ok := d.regions[loc]
	if !ok {
		return 0, fmt.Errorf("region %w", shared.ErrNotFound)
	}
	return region, nil
}

var (
	plantNorth = location.Must(location.Plant, 1)
	plantSouth = location.Must(location.Plant, 2)
)

func newDirectory() *staticDirectory {
	return &staticDirectory{
		principals: map[int64]shared.Principal{
			10: {UserID: 10, Role: shared.RoleRSM, RegionIDs: []int64{100}},
			11: {UserID: 11, Role: shared.RoleASC, RegionIDs: []int64{100}},
		},
		regions: map[location.Location]int64{plantNorth: 100, plantSouth: 200},
	}
}

func TestAuthorizeApproval(t *testing.T) {
	dir := newDirectory()
	a := NewAuthorizer(dir)
	ctx := context.Background()

	rsm, err := a.Principal(ctx, 10)
	require.NoError(t, err)
	require.NoError(t, a.AuthorizeApproval(ctx, rsm, plantNorth))
	require.ErrorIs(t, a.AuthorizeApproval(ctx, rsm, plantSouth), shared.ErrForbidden)

	asc, err := a.Principal(ctx, 11)
	require.NoError(t, err)
	require.ErrorIs(t, a.AuthorizeApproval(ctx, asc, plantNorth), shared.ErrForbidden)

	_, err = a.Principal(ctx, 0)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestCachedDirectoryServesFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	dir := newDirectory()
	cached := NewCachedDirectory(dir, client, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := cached.LookupPrincipal(ctx, 10)
		require.NoError(t, err)
		require.Equal(t, []int64{100}, p.RegionIDs)
	}
	require.Equal(t, int32(1), dir.lookups.Load())
	require.True(t, mr.Exists(principalKey(10)))

	region, err := cached.RegionOf(ctx, plantSouth)
	require.NoError(t, err)
	require.Equal(t, int64(200), region)

	require.NoError(t, cached.Invalidate(ctx, 10))
	_, err = cached.LookupPrincipal(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, int32(2), dir.lookups.Load())
}

type gatedDirectory struct {
	*staticDirectory
	started chan struct{}
	release chan struct{}
	loadErr chan error
}

func (d *gatedDirectory) LookupPrincipal(ctx context.Context, userID int64) (shared.Principal, error) {
	close(d.started)
	<-d.release
	d.loadErr <- ctx.Err()
	return d.staticDirectory.LookupPrincipal(ctx, userID)
}

func TestCachedDirectoryLoadSurvivesCallerCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	dir := &gatedDirectory{
		staticDirectory: newDirectory(),
		started:         make(chan struct{}),
		release:         make(chan struct{}),
		loadErr:         make(chan error, 1),
	}
	cached := NewCachedDirectory(dir, client, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := cached.LookupPrincipal(ctx, 10)
		done <- err
	}()

	<-dir.started
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(dir.release)
	require.NoError(t, <-dir.loadErr)
	require.Eventually(t, func() bool { return mr.Exists(principalKey(10)) }, time.Second, 10*time.Millisecond)

	p, err := cached.LookupPrincipal(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, shared.RoleRSM, p.Role)
	require.Equal(t, int32(1), dir.lookups.Load())
}

func TestCachedDirectoryDoesNotCacheMisses(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cached := NewCachedDirectory(newDirectory(), client, time.Minute, nil)
	_, err := cached.LookupPrincipal(context.Background(), 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.False(t, mr.Exists(principalKey(99)))
}

func TestCachedDirectoryWithoutRedis(t *testing.T) {
	dir := newDirectory()
	cached := NewCachedDirectory(dir, nil, time.Minute, nil)
	p, err := cached.LookupPrincipal(context.Background(), 11)
	require.NoError(t, err)
	require.Equal(t, shared.RoleASC, p.Role)
}

func TestMiddlewareRequiresPrincipal(t *testing.T) {
	mw := Middleware{Directory: newDirectory()}
	var seen *shared.Principal
	h := mw.RequirePrincipal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserHeader, "99")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserHeader, "10")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	require.Equal(t, int64(10), seen.UserID)
}
