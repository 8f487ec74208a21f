package thread

import (
	"math"
	"sync"
	"sync/atomic"
)

// RunState is the counter and stub registry shared by every task of one
// run. Create one per run with NewRunState and pass it explicitly.
type RunState struct {
	max int64

	count    atomic.Int64
	declared atomic.Int64
	comments atomic.Int64

	mu      sync.Mutex
	pending []string
	next    int
	seen    map[string]struct{}
}

// NewRunState returns a state with the given node budget. A non-positive
// budget means unlimited.
func NewRunState(maxNodes int) *RunState {
	max := int64(maxNodes)
	if max <= 0 {
		max = math.MaxInt64
	}
	return &RunState{
		max:  max,
		seen: make(map[string]struct{}),
	}
}

// Max returns the node budget.
func (s *RunState) Max() int64 { return s.max }

// Count returns the number of nodes decoded so far.
func (s *RunState) Count() int64 { return s.count.Load() }

// Exhausted reports whether the node budget is used up.
func (s *RunState) Exhausted() bool { return s.count.Load() >= s.max }

// Remaining returns how many more nodes may be decoded.
func (s *RunState) Remaining() int64 {
	r := s.max - s.count.Load()
	if r < 0 {
		return 0
	}
	return r
}

func (s *RunState) addNode() { s.count.Add(1) }

// Uncount takes back one node that was counted twice.
func (s *RunState) Uncount() { s.count.Add(-1) }

// Declared returns the total of the "count" values of every stub seen.
func (s *RunState) Declared() int64 { return s.declared.Load() }

// DeclaredComments returns the root post's declared comment count.
func (s *RunState) DeclaredComments() int64 { return s.comments.Load() }

func (s *RunState) setDeclaredComments(n int64) {
	s.comments.CompareAndSwap(0, n)
}

// AddStubs records a stub's declared count and its continuation ids.
// Ids already registered are ignored.
func (s *RunState) AddStubs(count int, ids ...string) {
	if count > 0 {
		s.declared.Add(int64(count))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		s.pending = append(s.pending, id)
	}
}

// NextStub hands out the next unclaimed stub id.
func (s *RunState) NextStub() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.pending) {
		return "", false
	}
	id := s.pending[s.next]
	s.next++
	return id, true
}

// DrainStubs claims every unclaimed stub id.
func (s *RunState) DrainStubs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.pending[s.next:]...)
	s.next = len(s.pending)
	return out
}

// Stubs returns every stub id registered so far, claimed or not.
func (s *RunState) Stubs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.pending...)
}

// Registered returns the number of distinct stub ids seen.
func (s *RunState) Registered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Pending returns the number of unclaimed stub ids.
func (s *RunState) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) - s.next
}
