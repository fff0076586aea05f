package session

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fieldpulse/internal/dashboard"
	"fieldpulse/internal/model"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidInputs   = errors.New("invalid manual inputs")
)

// Builder 根据数据集与手动输入构建看板
type Builder func(ds *model.Dataset, inputs model.ManualInputs) *dashboard.Dashboard

// Session 一次上传：数据集、手动输入与当前看板
type Session struct {
	ID        string               `json:"id"`
	Dataset   *model.Dataset       `json:"dataset"`
	Inputs    model.ManualInputs   `json:"inputs"`
	Dashboard *dashboard.Dashboard `json:"-"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`

	seq uint64
}

// MemoryStore 内存会话存储
type MemoryStore struct {
	sessions    map[string]*Session
	updating    map[string]*sync.Mutex // 同一会话的输入更新串行执行
	build       Builder
	maxSessions int
	seq         uint64
	mu          sync.RWMutex
}

// NewMemoryStore 创建会话存储；maxSessions<=0 表示不限制
func NewMemoryStore(build Builder, maxSessions int) *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]*Session),
		updating:    make(map[string]*sync.Mutex),
		build:       build,
		maxSessions: maxSessions,
	}
}

// Create 保存数据集并构建看板，超出上限时淘汰最早的会话
func (s *MemoryStore) Create(ds *model.Dataset) Session {
	inputs := model.ManualInputs{Overtime: map[string]float64{}}
	board := s.build(ds, inputs)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Dataset:   ds,
		Inputs:    inputs,
		Dashboard: board,
		CreatedAt: now,
		UpdatedAt: now,
		seq:       s.seq,
	}
	s.sessions[sess.ID] = sess
	s.evictLocked()

	return *sess
}

// Get 获取会话快照
func (s *MemoryStore) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return *sess, nil
}

// UpdateInputs 更新手动输入并重新构建看板。
// 同一会话的更新按获得锁的顺序依次构建并提交，最后提交的输入与看板保持一致。
func (s *MemoryStore) UpdateInputs(id string, inputs model.ManualInputs) (Session, error) {
	if err := ValidateInputs(inputs); err != nil {
		return Session{}, err
	}
	inputs = inputs.Clone()

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	lock := s.updating[id]
	if lock == nil {
		lock = &sync.Mutex{}
		s.updating[id] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	board := s.build(sess.Dataset, inputs)

	s.mu.Lock()
	defer s.mu.Unlock()

	// 构建期间会话可能已被删除
	sess, ok = s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.Inputs = inputs
	sess.Dashboard = board
	sess.UpdatedAt = time.Now()
	return *sess, nil
}

// Delete 删除会话
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	delete(s.updating, id)
	return nil
}

// List 按创建顺序列出会话
func (s *MemoryStore) List() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Count 会话数量
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Clear 清空会话
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*Session)
	s.updating = make(map[string]*sync.Mutex)
}

func (s *MemoryStore) evictLocked() {
	for s.maxSessions > 0 && len(s.sessions) > s.maxSessions {
		var oldest *Session
		for _, sess := range s.sessions {
			if oldest == nil || sess.seq < oldest.seq {
				oldest = sess
			}
		}
		delete(s.sessions, oldest.ID)
		delete(s.updating, oldest.ID)
	}
}

// ValidateInputs 校验手动输入：团队人数与加班小时不能为负
func ValidateInputs(inputs model.ManualInputs) error {
	if inputs.TeamSize < 0 {
		return fmt.Errorf("%w: team size %d", ErrInvalidInputs, inputs.TeamSize)
	}
	for tech, hours := range inputs.Overtime {
		if hours < 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
			return fmt.Errorf("%w: overtime %v for %s", ErrInvalidInputs, hours, tech)
		}
	}
	return nil
}
