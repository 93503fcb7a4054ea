// Package session holds the in-progress answers of multi-step chat flows,
// one record per (user, flow).
package session

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tablemoney/moneybot/internal/model"
)

// Flow identifies a kind of guided dialogue.
type Flow string

const (
	FlowIncome  Flow = "inc"
	FlowExpense Flow = "exp"
	FlowReport  Flow = "rep"
	FlowExport  Flow = "out"
)

// Valid reports whether f is a known flow.
func (f Flow) Valid() bool {
	switch f {
	case FlowIncome, FlowExpense, FlowReport, FlowExport:
		return true
	}
	return false
}

// Step is the position of a flow. Codes are short because they travel in
// button payloads.
type Step string

const (
	StepMenu        Step = "go"
	StepCategory    Step = "cat"
	StepAmount      Step = "amt"
	StepDescription Step = "dsc"
	StepStartYear   Step = "sy"
	StepStartMonth  Step = "sm"
	StepEndYear     Step = "ey"
	StepEndMonth    Step = "em"
	StepInsights    Step = "ins"
	StepDone        Step = "done"
)

// Key addresses one record.
type Key struct {
	UserID int64
	Flow   Flow
}

// Selection is the typed scratch record of one flow in progress.
type Selection struct {
	Flow Flow
	Step Step

	// entry capture
	Category    string
	Status      model.Status
	Amount      decimal.Decimal
	Description string

	// period selection
	StartYear  int
	StartMonth time.Month
	EndYear    int
	EndMonth   time.Month

	StartedAt time.Time
	UpdatedAt time.Time
}

// Start returns the chosen start month.
func (s Selection) Start() model.YearMonth {
	return model.YearMonth{Year: s.StartYear, Month: s.StartMonth}
}

// End returns the chosen end month.
func (s Selection) End() model.YearMonth {
	return model.YearMonth{Year: s.EndYear, Month: s.EndMonth}
}

// Store maps (user, flow) to a Selection for the life of the process.
// Concurrent writes to the same key resolve as last write wins.
type Store struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[Key]Selection
}

// NewStore creates a Store. Records untouched for longer than ttl count as
// abandoned; a zero ttl keeps them until cleared.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[Key]Selection),
	}
}

// SetClock replaces the time source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Start replaces any record of (user, flow) with an empty one at step first.
func (s *Store) Start(user int64, flow Flow, first Step) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sel := Selection{Flow: flow, Step: first, StartedAt: now, UpdatedAt: now}
	s.items[Key{user, flow}] = sel
	return sel
}

// Get returns the record of (user, flow).
func (s *Store) Get(user int64, flow Flow) (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := Key{user, flow}
	sel, ok := s.items[k]
	if !ok {
		return Selection{}, false
	}
	if s.expired(sel) {
		delete(s.items, k)
		return Selection{}, false
	}
	return sel, true
}

// Put stores sel as the record of (user, sel.Flow). It does not validate.
func (s *Store) Put(user int64, sel Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sel.StartedAt.IsZero() {
		sel.StartedAt = now
	}
	sel.UpdatedAt = now
	s.items[Key{user, sel.Flow}] = sel
}

// Update applies fn to the live record of (user, flow) and stores the result.
// It reports false when there is no such record.
func (s *Store) Update(user int64, flow Flow, fn func(*Selection)) (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := Key{user, flow}
	sel, ok := s.items[k]
	if !ok || s.expired(sel) {
		delete(s.items, k)
		return Selection{}, false
	}
	fn(&sel)
	sel.Flow = flow
	sel.UpdatedAt = s.now()
	s.items[k] = sel
	return sel, true
}

// Clear removes the record of (user, flow).
func (s *Store) Clear(user int64, flow Flow) {
	s.mu.Lock()
	delete(s.items, Key{user, flow})
	s.mu.Unlock()
}

// ClearUser removes every record of user and returns how many there were.
func (s *Store) ClearUser(user int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k := range s.items {
		if k.UserID == user {
			delete(s.items, k)
			n++
		}
	}
	return n
}

// Latest returns the most recently updated live record of user that waits at
// one of steps.
func (s *Store) Latest(user int64, steps ...Step) (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		best  Selection
		found bool
	)
	for k, sel := range s.items {
		if k.UserID != user || s.expired(sel) || !hasStep(steps, sel.Step) {
			continue
		}
		if !found || sel.UpdatedAt.After(best.UpdatedAt) {
			best, found = sel, true
		}
	}
	return best, found
}

// Sweep drops expired records and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, sel := range s.items {
		if s.expired(sel) {
			delete(s.items, k)
			n++
		}
	}
	return n
}

// Len returns the number of records held, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) expired(sel Selection) bool {
	return s.ttl > 0 && s.now().Sub(sel.UpdatedAt) > s.ttl
}

func hasStep(steps []Step, st Step) bool {
	if len(steps) == 0 {
		return true
	}
	for _, x := range steps {
		if x == st {
			return true
		}
	}
	return false
}
