package redisad_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot_explorer/internal/adapters/observability"
	redisad "spot_explorer/internal/adapters/redis"
	"spot_explorer/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_RoundTrip(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	p := domain.NewSpotProfile("東京タワー", "ja")
	founded := "1958年"
	p.History.Founded = &founded
	p.Sources[domain.SourceWikidata] = domain.SourceFound

	require.NoError(t, c.Set(ctx, "profile:ja:abc", p, 60))
	assert.True(t, mr.Exists("spotgo:profile:ja:abc"))
	assert.Equal(t, 60*time.Second, mr.TTL("spotgo:profile:ja:abc"))

	var got domain.SpotProfile
	ok, err := c.Get(ctx, "profile:ja:abc", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "東京タワー", got.Name)
	require.NotNil(t, got.History.Founded)
	assert.Equal(t, "1958年", *got.History.Founded)
	assert.Equal(t, domain.SourceFound, got.Sources[domain.SourceWikidata])
	assert.NotNil(t, got.Images)
}

func TestCache_MissAndExpiry(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	var dst map[string]any
	ok, err := c.Get(ctx, "nope", &dst)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}, 1))
	mr.FastForward(2 * time.Second)
	ok, err = c.Get(ctx, "k", &dst)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Del(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 60))
	require.NoError(t, c.Del(ctx, "k"))
	assert.False(t, mr.Exists("spotgo:k"))
}

// cacheEvents reads spotgo_cache_events_total for the redis cache from the
// metrics endpoint.
func cacheEvents(t *testing.T, event string) float64 {
	t.Helper()
	rr := httptest.NewRecorder()
	observability.MetricsHandler(metricsReg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	prefix := `spotgo_cache_events_total{cache="redis",event="` + event + `"} `
	for _, ln := range strings.Split(string(body), "\n") {
		if v, ok := strings.CutPrefix(ln, prefix); ok {
			f, err := strconv.ParseFloat(v, 64)
			require.NoError(t, err)
			return f
		}
	}
	return 0
}

var metricsReg = observability.InitRegistry()

func TestCache_CorruptValueIsDropped(t *testing.T) {
	c, mr := newCache(t)
	require.NoError(t, mr.Set("spotgo:bad", "{not json"))
	errs, misses := cacheEvents(t, "error"), cacheEvents(t, "miss")

	var dst domain.SpotProfile
	ok, err := c.Get(context.Background(), "bad", &dst)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("spotgo:bad"))
	assert.Equal(t, errs+1, cacheEvents(t, "error"))
	assert.Equal(t, misses, cacheEvents(t, "miss"))
}

func TestCache_Unreachable(t *testing.T) {
	c, mr := newCache(t)
	mr.Close()

	var dst string
	ok, err := c.Get(context.Background(), "k", &dst)
	assert.Error(t, err)
	assert.False(t, ok)
}
