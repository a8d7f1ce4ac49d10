package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/cfpqc/internal/model"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return mr, client, func() {
		client.Close()
		mr.Close()
	}
}

func TestReportKey(t *testing.T) {
	draft := model.Draft{SubjectLine: "Call for papers", Body: "Hello", SubmitURL: "https://x.org/submit"}
	day := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	key := ReportKey(draft, day, "abc")
	assert.Contains(t, key, keyPrefix)
	assert.Equal(t, key, ReportKey(draft, day.Add(3*time.Hour), "abc"), "same calendar day shares a key")
	assert.NotEqual(t, key, ReportKey(draft, day.AddDate(0, 0, 1), "abc"))
	assert.NotEqual(t, key, ReportKey(draft, day, "def"))

	draft.Body = "Hello!"
	assert.NotEqual(t, key, ReportKey(draft, day, "abc"))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(model.DefaultConfig().Rules)
	b := model.DefaultConfig().Rules
	b.MaxHypeWords = 5

	assert.Len(t, a, 16)
	assert.Equal(t, a, Fingerprint(model.DefaultConfig().Rules))
	assert.NotEqual(t, a, Fingerprint(b))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_, found := c.Get("missing")
	assert.False(t, found)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	val, found := c.Get("k")
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("k"))
	_, found = c.Get("k")
	assert.False(t, found)

	require.NoError(t, c.Set("a", []byte("1"), 0))
	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Len())
}

func TestDiskCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	c := NewDiskCache(dir, time.Hour)

	key := CacheKey("draft-1")
	require.NoError(t, c.Set(key, []byte(`{"passed":true}`), 0))

	val, found := c.Get(key)
	assert.True(t, found)
	assert.Equal(t, `{"passed":true}`, string(val))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), ":")

	require.NoError(t, c.Delete(key))
	require.NoError(t, c.Delete(key), "deleting twice is fine")
	_, found = c.Get(key)
	assert.False(t, found)
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("k", []byte("v"), time.Minute))
	require.NoError(t, c.Set("forever", []byte("v"), -1))

	now = now.Add(2 * time.Minute)
	_, found := c.Get("k")
	assert.False(t, found)
	_, err := os.Stat(c.path("k"))
	assert.True(t, os.IsNotExist(err), "expired entry is removed")

	now = now.AddDate(1, 0, 0)
	_, found = c.Get("forever")
	assert.True(t, found)
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	require.NoError(t, os.WriteFile(c.path("bad"), []byte("not json"), 0644))

	_, found := c.Get("bad")
	assert.False(t, found)
}

func TestLayeredCache_PromotesBackHits(t *testing.T) {
	front := NewMemoryCache(time.Minute, time.Minute)
	back := NewDiskCache(t.TempDir(), time.Hour)
	c := NewLayered(front, back)

	require.NoError(t, back.Set("k", []byte("v"), 0))

	val, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), val)

	val, found = front.Get("k")
	assert.True(t, found, "back-layer hit is promoted")
	assert.Equal(t, []byte("v"), val)

	require.NoError(t, c.Delete("k"))
	_, found = c.Get("k")
	assert.False(t, found)
}

func TestLayeredCache_WritesBothLayers(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Hour)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	_, inFront := c.front.Get("k")
	_, inBack := c.back.Get("k")
	assert.True(t, inFront)
	assert.True(t, inBack)

	require.NoError(t, c.Clear())
	_, found := c.Get("k")
	assert.False(t, found)
}

func TestRedisCache(t *testing.T) {
	mr, client, cleanup := setupTestRedis(t)
	defer cleanup()

	c := NewRedisCache(client, time.Hour)
	key := CacheKey("draft-1")

	_, found := c.Get(key)
	assert.False(t, found)

	require.NoError(t, c.Set(key, []byte("report"), 0))
	val, found := c.Get(key)
	require.True(t, found)
	assert.Equal(t, []byte("report"), val)
	assert.Equal(t, time.Hour, mr.TTL(key))

	mr.FastForward(2 * time.Hour)
	_, found = c.Get(key)
	assert.False(t, found, "entry expires with the ttl")

	require.NoError(t, c.Set(key, []byte("report"), 0))
	require.NoError(t, c.Delete(key))
	assert.False(t, mr.Exists(key))
}

func TestRedisCache_ClearOnlyOwnKeys(t *testing.T) {
	mr, client, cleanup := setupTestRedis(t)
	defer cleanup()

	c := NewRedisCache(client, time.Hour)
	for _, s := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(CacheKey(s), []byte(s), 0))
	}
	require.NoError(t, mr.Set("other:app:key", "keep"))

	require.NoError(t, c.Clear())

	assert.Len(t, mr.Keys(), 1)
	assert.True(t, mr.Exists("other:app:key"))
}

func TestRedisCache_UnreachableIsMiss(t *testing.T) {
	mr, client, cleanup := setupTestRedis(t)
	defer cleanup()
	mr.Close()

	c := NewRedisCache(client, time.Hour)
	_, found := c.Get(CacheKey("x"))
	assert.False(t, found)
	assert.Error(t, c.Set(CacheKey("x"), []byte("v"), 0))
}
