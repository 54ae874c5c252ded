// Package session keeps per-user dashboard state: chat history per dataset
// and the last audio transcription.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/Yates-Labs/auditbot/internal/prompt"
	"github.com/google/uuid"
)

const chatKeyPrefix = "chat_messages_"

// ChatKey is the history slot for a dataset.
func ChatKey(dataset string) string {
	return chatKeyPrefix + dataset
}

// Transcription is the outcome of the last processed recording.
type Transcription struct {
	Filename      string    `json:"filename"`
	URI           string    `json:"uri"`
	Transcription string    `json:"transcription"`
	Timestamp     time.Time `json:"timestamp"`
}

// Session is the state of one user. Methods are safe for concurrent use.
type Session struct {
	ID string

	// lastSeen is guarded by the owning Store's mutex.
	lastSeen time.Time

	mu    sync.Mutex
	chats map[string][]prompt.Message
	last  *Transcription
}

func newSession(id string) *Session {
	return &Session{ID: id, chats: make(map[string][]prompt.Message)}
}

// History returns a copy of the chat messages for dataset.
func (s *Session) History(dataset string) []prompt.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.chats[ChatKey(dataset)]
	out := make([]prompt.Message, len(msgs))
	copy(out, msgs)
	return out
}

// Append adds messages to the dataset's chat history.
func (s *Session) Append(dataset string, msgs ...prompt.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ChatKey(dataset)
	s.chats[key] = append(s.chats[key], msgs...)
}

// ResetChat clears the dataset's chat history.
func (s *Session) ResetChat(dataset string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, ChatKey(dataset))
}

// SetLastTranscription records the latest successful transcription.
func (s *Session) SetLastTranscription(t Transcription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &t
}

// LastTranscription returns the latest transcription, if any.
func (s *Session) LastTranscription() (Transcription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Transcription{}, false
	}
	return *s.last, true
}

// DefaultIdleTTL is how long an untouched session survives.
const DefaultIdleTTL = 30 * time.Minute

// Store maps session ids to sessions. Sessions idle for longer than the TTL
// are evicted together with their history.
type Store struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewStore creates a store with DefaultIdleTTL.
func NewStore() *Store {
	return NewStoreWithTTL(DefaultIdleTTL)
}

// NewStoreWithTTL creates a store evicting sessions idle for longer than ttl.
// A ttl of zero or less uses DefaultIdleTTL.
func NewStoreWithTTL(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// NewID mints a session id.
func NewID() string {
	return uuid.NewString()
}

// Get returns the session for id, creating it on first use. An empty id
// mints a new one.
func (st *Store) Get(id string) *Session {
	if id == "" {
		id = NewID()
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	st.sweepLocked(now)

	s, ok := st.sessions[id]
	if !ok {
		s = newSession(id)
		st.sessions[id] = s
	}
	s.lastSeen = now
	return s
}

// Lookup returns an existing session without creating one. Expired
// sessions are not returned.
func (st *Store) Lookup(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	if st.expired(s, now) {
		delete(st.sessions, id)
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

// End discards the session and everything it holds.
func (st *Store) End(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Sweep evicts every idle session and returns how many were removed.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.evictLocked(st.now())
}

// Run sweeps on every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = st.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}

// Len is the number of sessions held, including idle ones not yet swept.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) expired(s *Session, now time.Time) bool {
	return now.Sub(s.lastSeen) > st.ttl
}

// sweepLocked evicts idle sessions at most once per quarter TTL so Get
// stays cheap under load.
func (st *Store) sweepLocked(now time.Time) {
	if now.Sub(st.lastSweep) < st.ttl/4 {
		return
	}
	st.evictLocked(now)
}

func (st *Store) evictLocked(now time.Time) int {
	st.lastSweep = now
	removed := 0
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}
