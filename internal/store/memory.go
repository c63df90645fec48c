package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"northwind-chat/internal/viz"
)

type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// Message is one turn. It is never modified after Append; Payload is shared
// and must be treated as read-only.
type Message struct {
	ID        string
	Seq       int64
	Origin    Origin
	Text      string
	CreatedAt time.Time
	Payload   *viz.Descriptor
	Failed    bool
}

type ConversationState struct {
	Messages         []Message
	AwaitingResponse bool
}

func (s ConversationState) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// MemoryStore is the append-only conversation log plus the awaiting flag.
// Order is insertion order; Seq breaks any CreatedAt ties.
type MemoryStore struct {
	mu       sync.RWMutex
	messages []Message
	awaiting bool
	seq      int64

	now   func() time.Time
	newID func() string

	// notifyMu serializes change notifications so listeners see states in order.
	notifyMu sync.Mutex
	subMu    sync.Mutex
	subs     map[int]func(ConversationState)
	nextSub  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:   time.Now,
		newID: uuid.NewString,
		subs:  make(map[int]func(ConversationState)),
	}
}

// Append adds msg at the tail, assigning its ID, sequence number and creation
// time (if unset), and returns the stored copy.
func (m *MemoryStore) Append(msg Message) Message {
	m.mu.Lock()
	m.seq++
	msg.Seq = m.seq
	if msg.ID == "" {
		msg.ID = m.newID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = m.now()
	}
	m.messages = append(m.messages, msg)
	m.mu.Unlock()
	m.notify()
	return msg
}

func (m *MemoryStore) State() ConversationState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := make([]Message, len(m.messages))
	copy(msgs, m.messages)
	return ConversationState{Messages: msgs, AwaitingResponse: m.awaiting}
}

func (m *MemoryStore) Awaiting() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.awaiting
}

func (m *MemoryStore) SetAwaiting(v bool) {
	m.mu.Lock()
	changed := m.awaiting != v
	m.awaiting = v
	m.mu.Unlock()
	if changed {
		m.notify()
	}
}

// Clear drops the whole conversation. Sequence numbers keep increasing.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	m.messages = nil
	m.mu.Unlock()
	m.notify()
}

// Subscribe registers fn to receive a snapshot after every change. fn runs on
// the mutating goroutine and must not call back into the store's mutators.
func (m *MemoryStore) Subscribe(fn func(ConversationState)) (cancel func()) {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()
	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *MemoryStore) notify() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	m.subMu.Lock()
	fns := make([]func(ConversationState), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()
	if len(fns) == 0 {
		return
	}
	st := m.State()
	for _, fn := range fns {
		fn(st)
	}
}
