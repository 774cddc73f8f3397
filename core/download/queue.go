package download

import "sync"

// Policy 决定下载队列的出队顺序
type Policy string

const (
	// PolicyNewestFirst 后进先出：最新发现的内容优先下载
	// 冷启动后的积压可能很大，而听众最关心的是最近的节目
	PolicyNewestFirst Policy = "lifo"
	// PolicyOldestFirst 先进先出，按发现顺序下载
	PolicyOldestFirst Policy = "fifo"
)

// ArtifactChecker 判断某个条目的音频产物是否已经存在
type ArtifactChecker func(id string) bool

// Queue 是去重的待下载队列
// 同一 ID 至多出现一次；产物已落盘的 ID 不会入队
// 刷新调度器和预扫描写入、下载协程读取，所有操作都在锁内完成
type Queue struct {
	mu          sync.Mutex
	ids         []string
	pending     map[string]struct{}
	hasArtifact ArtifactChecker
	policy      Policy
}

// NewQueue 创建下载队列；policy 非法时回落到后进先出
func NewQueue(policy Policy, hasArtifact ArtifactChecker) *Queue {
	if policy != PolicyOldestFirst {
		policy = PolicyNewestFirst
	}
	return &Queue{
		pending:     make(map[string]struct{}),
		hasArtifact: hasArtifact,
		policy:      policy,
	}
}

// Enqueue 将 id 追加到队列，返回是否真正入队
// 已在队列中、或产物已存在时是空操作；查重和追加在同一把锁内，
// 并发入队同一个 id 也不会产生重复
func (q *Queue) Enqueue(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.pending[id]; ok {
		return false
	}
	if q.hasArtifact != nil && q.hasArtifact(id) {
		return false
	}
	q.pending[id] = struct{}{}
	q.ids = append(q.ids, id)
	return true
}

// Dequeue 按既定顺序取出一个待下载 ID，队列为空时返回 false
// 被取出的 ID 不会自动回队，只有后续刷新重新发现且产物仍缺失时才会再入队
func (q *Queue) Dequeue() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ids) == 0 {
		return "", false
	}

	var id string
	if q.policy == PolicyOldestFirst {
		id = q.ids[0]
		q.ids = q.ids[1:]
	} else {
		id = q.ids[len(q.ids)-1]
		q.ids = q.ids[:len(q.ids)-1]
	}
	delete(q.pending, id)
	return id, true
}

// Len 返回当前排队数量
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}
