package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"Bt1QCast/cache"
	"Bt1QCast/config"
	"Bt1QCast/core/download"
	"Bt1QCast/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher 按 URL 返回预置的负载或错误，并统计调用次数
type fakeFetcher struct {
	mu       sync.Mutex
	payloads map[string]*model.Payload
	fails    map[string]bool
	calls    map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		payloads: make(map[string]*model.Payload),
		fails:    make(map[string]bool),
		calls:    make(map[string]int),
	}
}

func (f *fakeFetcher) FetchMetadata(ctx context.Context, url string) (*model.Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if f.fails[url] {
		return nil, errors.New("extractor blew up")
	}
	if p, ok := f.payloads[url]; ok {
		return p, nil
	}
	return nil, errors.New("no payload configured")
}

func (f *fakeFetcher) Download(ctx context.Context, id string) (string, error) {
	return "", errors.New("not used by the refresher")
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func daysAgo(n int) string {
	return time.Now().UTC().AddDate(0, 0, -n).Format("20060102")
}

func collection(ids map[string]string) *model.Payload {
	coll := &model.Collection{Title: "列表"}
	for id, date := range ids {
		coll.Items = append(coll.Items, &model.Item{ID: id, UploadDate: date})
	}
	return &model.Payload{Collection: coll}
}

func testConfig() *config.Config {
	return &config.Config{
		MetadataTTL:     time.Hour,
		RetentionWeeks:  12,
		RefreshInterval: time.Millisecond,
	}
}

func staticSources(sources ...*model.Source) SourceLoader {
	return func() ([]*model.Source, error) { return sources, nil }
}

func TestRefreshOnceCachesAndEnqueues(t *testing.T) {
	store, err := cache.NewMetaStore(t.TempDir())
	require.NoError(t, err)
	queue := download.NewQueue(download.PolicyNewestFirst, nil)

	url := "https://example.com/pl"
	f := newFakeFetcher()
	f.payloads[url] = collection(map[string]string{"fresh": daysAgo(2)})

	r := NewRefresher(store, queue, f, testConfig(), staticSources(
		&model.Source{Key: "feed", URLs: []string{url}},
	), nil)
	r.RefreshOnce(context.Background())

	rec, ok := store.Get(url)
	require.True(t, ok)
	assert.Equal(t, "fresh", rec.Payload.Items()[0].ID)
	assert.Equal(t, 1, queue.Len())
}

// 同一周期内 A 失败不影响 B：A 的旧记录原样保留，B 正常更新
func TestRefreshFailSoft(t *testing.T) {
	store, err := cache.NewMetaStore(t.TempDir())
	require.NoError(t, err)
	queue := download.NewQueue(download.PolicyNewestFirst, nil)

	urlA := "https://example.com/a"
	urlB := "https://example.com/b"

	// A 已有两小时前的旧记录，按 1h TTL 算过期
	oldPayload := collection(map[string]string{"a-old": daysAgo(10)})
	require.NoError(t, store.Put(urlA, oldPayload, time.Now().Add(-2*time.Hour)))

	f := newFakeFetcher()
	f.fails[urlA] = true
	f.payloads[urlB] = collection(map[string]string{"b-new": daysAgo(1)})

	r := NewRefresher(store, queue, f, testConfig(), staticSources(
		&model.Source{Key: "feed", URLs: []string{urlA, urlB}},
	), nil)
	r.RefreshOnce(context.Background())

	// A 的旧记录未被破坏
	rec, ok := store.Get(urlA)
	require.True(t, ok)
	assert.Equal(t, "a-old", rec.Payload.Items()[0].ID)

	// B 更新成功
	rec, ok = store.Get(urlB)
	require.True(t, ok)
	assert.Equal(t, "b-new", rec.Payload.Items()[0].ID)

	// 失败的 A 本周期不入队任何条目
	id, _ := queue.Dequeue()
	assert.Equal(t, "b-new", id)
	assert.Equal(t, 0, queue.Len())
}

// TTL 内的记录不触发抓取，刷新按 URL 单独判断
func TestRefreshSkipsFreshURLs(t *testing.T) {
	store, err := cache.NewMetaStore(t.TempDir())
	require.NoError(t, err)
	queue := download.NewQueue(download.PolicyNewestFirst, nil)

	urlFresh := "https://example.com/fresh"
	urlStale := "https://example.com/stale"
	require.NoError(t, store.Put(urlFresh, collection(map[string]string{"f": daysAgo(1)}), time.Now()))
	require.NoError(t, store.Put(urlStale, collection(map[string]string{"s": daysAgo(1)}), time.Now().Add(-2*time.Hour)))

	f := newFakeFetcher()
	f.payloads[urlStale] = collection(map[string]string{"s2": daysAgo(1)})

	r := NewRefresher(store, queue, f, testConfig(), staticSources(
		&model.Source{Key: "feed", URLs: []string{urlFresh, urlStale}},
	), nil)
	r.RefreshOnce(context.Background())

	assert.Equal(t, 0, f.callCount(urlFresh))
	assert.Equal(t, 1, f.callCount(urlStale))
}

func TestRefreshEnqueuesOnlyWithinRetention(t *testing.T) {
	store, err := cache.NewMetaStore(t.TempDir())
	require.NoError(t, err)
	queue := download.NewQueue(download.PolicyNewestFirst, nil)

	url := "https://example.com/pl"
	f := newFakeFetcher()
	f.payloads[url] = collection(map[string]string{
		"recent":  daysAgo(3),
		"ancient": daysAgo(400),
	})

	r := NewRefresher(store, queue, f, testConfig(), staticSources(
		&model.Source{Key: "feed", URLs: []string{url}},
	), nil)
	r.RefreshOnce(context.Background())

	// 缓存保留全部条目，但只有窗口内的进下载队列
	rec, ok := store.Get(url)
	require.True(t, ok)
	assert.Len(t, rec.Payload.Items(), 2)

	id, _ := queue.Dequeue()
	assert.Equal(t, "recent", id)
	assert.Equal(t, 0, queue.Len())
}

// 每轮重新加载源配置，新增的 URL 下一轮就会被抓取
func TestRefreshReloadsSourcesEachCycle(t *testing.T) {
	store, err := cache.NewMetaStore(t.TempDir())
	require.NoError(t, err)
	queue := download.NewQueue(download.PolicyNewestFirst, nil)

	urlOld := "https://example.com/old"
	urlNew := "https://example.com/new"
	f := newFakeFetcher()
	f.payloads[urlOld] = collection(map[string]string{"o": daysAgo(1)})
	f.payloads[urlNew] = collection(map[string]string{"n": daysAgo(1)})

	var mu sync.Mutex
	urls := []string{urlOld}
	loader := func() ([]*model.Source, error) {
		mu.Lock()
		defer mu.Unlock()
		return []*model.Source{{Key: "feed", URLs: urls}}, nil
	}

	r := NewRefresher(store, queue, f, testConfig(), loader, nil)
	r.RefreshOnce(context.Background())
	assert.Equal(t, 0, f.callCount(urlNew))

	mu.Lock()
	urls = []string{urlOld, urlNew}
	mu.Unlock()

	r.RefreshOnce(context.Background())
	assert.Equal(t, 1, f.callCount(urlNew))
}

func TestRefreshSourceLoadFailureSkipsCycle(t *testing.T) {
	store, err := cache.NewMetaStore(t.TempDir())
	require.NoError(t, err)
	queue := download.NewQueue(download.PolicyNewestFirst, nil)

	f := newFakeFetcher()
	r := NewRefresher(store, queue, f, testConfig(), func() ([]*model.Source, error) {
		return nil, errors.New("sources file unreadable")
	}, nil)

	// 不 panic，不入队
	r.RefreshOnce(context.Background())
	assert.Equal(t, 0, queue.Len())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store, err := cache.NewMetaStore(t.TempDir())
	require.NoError(t, err)
	queue := download.NewQueue(download.PolicyNewestFirst, nil)

	r := NewRefresher(store, queue, newFakeFetcher(), testConfig(), staticSources(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop after context cancellation")
	}
}
