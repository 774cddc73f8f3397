package cache

import (
	"os"
	"sync"
	"testing"
	"time"

	"Bt1QCast/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload(ids ...string) *model.Payload {
	coll := &model.Collection{Title: "测试播放列表"}
	for _, id := range ids {
		coll.Items = append(coll.Items, &model.Item{ID: id, Title: "第" + id + "期", UploadDate: "20240101"})
	}
	return &model.Payload{Collection: coll}
}

func TestPutGetRoundTrip(t *testing.T) {
	store, err := NewMetaStore(t.TempDir())
	require.NoError(t, err)

	fetchedAt := time.Now().Truncate(time.Second)
	require.NoError(t, store.Put("https://example.com/playlist", testPayload("a1", "b2"), fetchedAt))

	rec, ok := store.Get("https://example.com/playlist")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/playlist", rec.URL)
	assert.True(t, rec.FetchedAt.Equal(fetchedAt))
	require.Len(t, rec.Payload.Items(), 2)
	assert.Equal(t, "a1", rec.Payload.Items()[0].ID)
}

func TestGetMissing(t *testing.T) {
	store, err := NewMetaStore(t.TempDir())
	require.NoError(t, err)

	_, ok := store.Get("https://example.com/nothing")
	assert.False(t, ok)
}

func TestPutOverwritesWholeRecord(t *testing.T) {
	store, err := NewMetaStore(t.TempDir())
	require.NoError(t, err)

	url := "https://example.com/playlist"
	require.NoError(t, store.Put(url, testPayload("old1", "old2", "old3"), time.Now()))
	require.NoError(t, store.Put(url, testPayload("new1"), time.Now()))

	rec, ok := store.Get(url)
	require.True(t, ok)
	require.Len(t, rec.Payload.Items(), 1)
	assert.Equal(t, "new1", rec.Payload.Items()[0].ID)
}

// 损坏的记录必须按缺失处理，不能让调用方崩溃
func TestCorruptRecordTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewMetaStore(dir)
	require.NoError(t, err)

	url := "https://example.com/broken"
	require.NoError(t, os.WriteFile(store.recordPath(url), []byte("{not json"), 0644))

	_, ok := store.Get(url)
	assert.False(t, ok)
	assert.True(t, store.IsStale(url, time.Hour))
}

func TestTruncatedRecordTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewMetaStore(dir)
	require.NoError(t, err)

	url := "https://example.com/truncated"
	require.NoError(t, store.Put(url, testPayload("x"), time.Now()))

	data, err := os.ReadFile(store.recordPath(url))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.recordPath(url), data[:len(data)/2], 0644))

	_, ok := store.Get(url)
	assert.False(t, ok)
}

func TestIsStale(t *testing.T) {
	store, err := NewMetaStore(t.TempDir())
	require.NoError(t, err)

	url := "https://example.com/playlist"

	// 无记录视为过期
	assert.True(t, store.IsStale(url, time.Hour))

	// 刚写入的记录不过期
	require.NoError(t, store.Put(url, testPayload("a"), time.Now()))
	assert.False(t, store.IsStale(url, time.Hour))
	assert.False(t, store.IsStale(url, time.Second))

	// 写入时间早于 TTL 则过期
	require.NoError(t, store.Put(url, testPayload("a"), time.Now().Add(-2*time.Hour)))
	assert.True(t, store.IsStale(url, time.Hour))
	assert.False(t, store.IsStale(url, 3*time.Hour))
}

// 写入过程中并发读取，读者要么看到旧记录要么看到新记录，不会出错
func TestConcurrentReadWrite(t *testing.T) {
	store, err := NewMetaStore(t.TempDir())
	require.NoError(t, err)

	url := "https://example.com/playlist"
	require.NoError(t, store.Put(url, testPayload("seed"), time.Now()))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				rec, ok := store.Get(url)
				if ok {
					assert.NotEmpty(t, rec.Payload.Items())
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		require.NoError(t, store.Put(url, testPayload("seed", "extra"), time.Now()))
	}
	wg.Wait()
}
