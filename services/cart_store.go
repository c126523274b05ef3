package services

import (
	"sync"

	"github.com/Nappiz/tcmudah-storefront/models"
)

// CartStore is the ordered quantity map of one visitor. Lines keep insertion
// order and never hold a quantity below 1. It is safe for concurrent use.
type CartStore struct {
	mu       sync.Mutex
	lines    []models.CartLine
	index    map[string]int
	onChange func([]models.CartLine)
}

func NewCartStore() *CartStore {
	return &CartStore{index: make(map[string]int)}
}

// OnChange registers fn to receive a copy of the lines after every mutation.
// fn runs under the store lock so writes reach it in order; it must not call
// back into the store.
func (s *CartStore) OnChange(fn func([]models.CartLine)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *CartStore) Increment(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[id]; ok {
		s.lines[i].Qty++
	} else {
		s.index[id] = len(s.lines)
		s.lines = append(s.lines, models.CartLine{ID: id, Qty: 1})
	}
	s.notifyLocked()
}

// Decrement lowers the quantity and drops the line at zero. Unknown ids are ignored.
func (s *CartStore) Decrement(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return
	}
	if s.lines[i].Qty > 1 {
		s.lines[i].Qty--
	} else {
		s.removeLocked(i)
	}
	s.notifyLocked()
}

func (s *CartStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.index = make(map[string]int)
	s.notifyLocked()
}

func (s *CartStore) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, l := range s.lines {
		total += l.Qty
	}
	return total
}

// Lines returns a copy of the lines in insertion order.
func (s *CartStore) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Snapshot freezes the current lines for a checkout submission.
func (s *CartStore) Snapshot() []models.CartLine {
	return s.Lines()
}

// Restore replaces the contents with persisted lines. Entries with qty < 1
// are dropped and repeated ids are merged into their first position.
// The change hook is not fired.
func (s *CartStore) Restore(lines []models.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.index = make(map[string]int)
	for _, l := range lines {
		if l.Qty < 1 || l.ID == "" {
			continue
		}
		if i, ok := s.index[l.ID]; ok {
			s.lines[i].Qty += l.Qty
			continue
		}
		s.index[l.ID] = len(s.lines)
		s.lines = append(s.lines, l)
	}
}

func (s *CartStore) removeLocked(i int) {
	delete(s.index, s.lines[i].ID)
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	for j := i; j < len(s.lines); j++ {
		s.index[s.lines[j].ID] = j
	}
}

func (s *CartStore) copyLocked() []models.CartLine {
	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *CartStore) notifyLocked() {
	if s.onChange != nil {
		s.onChange(s.copyLocked())
	}
}
