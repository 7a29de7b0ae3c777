package sms

import "sync"

// STORE_CAPACITY is the number of messages kept before the oldest is evicted
const STORE_CAPACITY = 10

// Store keeps the most recent messages in arrival order. Index 0 is the
// oldest. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	ring  [STORE_CAPACITY]Message
	head  int
	count int
}

// NewStore creates an empty message store
func NewStore() *Store {
	return &Store{}
}

func (s *Store) slot(i int) int {
	return (s.head + i) % STORE_CAPACITY
}

// Add appends a message, evicting the oldest when full. It reports whether
// a message was evicted.
func (s *Store) Add(m Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == STORE_CAPACITY {
		s.ring[s.head] = m
		s.head = s.slot(1)
		return true
	}
	s.ring[s.slot(s.count)] = m
	s.count++
	return false
}

// Len returns the number of stored messages
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Get returns message i
func (s *Store) Get(i int) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i < 0 || i >= s.count {
		return Message{}, false
	}
	return s.ring[s.slot(i)], true
}

// Delete removes message i, closing the gap
func (s *Store) Delete(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= s.count {
		return false
	}
	for j := i; j < s.count-1; j++ {
		s.ring[s.slot(j)] = s.ring[s.slot(j+1)]
	}
	s.count--
	s.ring[s.slot(s.count)] = Message{}
	return true
}

// Clear removes all messages
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ring = [STORE_CAPACITY]Message{}
	s.head = 0
	s.count = 0
}

// All returns a copy of the stored messages, oldest first
func (s *Store) All() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, 0, s.count)
	for i := 0; i < s.count; i++ {
		out = append(out, s.ring[s.slot(i)])
	}
	return out
}
