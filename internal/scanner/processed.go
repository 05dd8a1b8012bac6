package scanner

import (
	"sync"

	"golang.org/x/net/html"
)

// ProcessedSet records the anchors a page session has already handled,
// whether they were submitted or filtered out. It only grows; a reload
// starts a new set.
type ProcessedSet struct {
	mu   sync.Mutex
	seen map[*html.Node]struct{}
}

func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{seen: make(map[*html.Node]struct{})}
}

// Mark records n and reports whether it was new.
func (s *ProcessedSet) Mark(n *html.Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[n]; ok {
		return false
	}
	s.seen[n] = struct{}{}
	return true
}

func (s *ProcessedSet) Has(n *html.Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[n]
	return ok
}

func (s *ProcessedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
