package reconcile

import (
	"sync"
	"time"

	"catalog-content-sync/internal/domain"
)

// Tracker records the outcome of every write of a run for the final report.
type Tracker struct {
	mu       sync.RWMutex
	actions  map[string]*domain.Action
	order    []string
	observer func(domain.Action)
}

func NewTracker() *Tracker {
	return &Tracker{actions: make(map[string]*domain.Action)}
}

// Observe registers fn to receive a copy of every action change.
func (t *Tracker) Observe(fn func(domain.Action)) {
	t.mu.Lock()
	t.observer = fn
	t.mu.Unlock()
}

// Add registers a pending action, replacing any previous action with the same id.
func (t *Tracker) Add(id, actionType, family string, data any) {
	t.update(id, func(a *domain.Action) {
		a.Type = actionType
		a.Family = family
		a.Status = domain.ActionPending
		a.Data = data
		a.Error = ""
	}, true)
}

func (t *Tracker) MarkSuccess(id string) {
	t.update(id, func(a *domain.Action) { a.Status = domain.ActionSuccess }, false)
}

func (t *Tracker) MarkFailed(id string, err error) {
	t.update(id, func(a *domain.Action) {
		a.Status = domain.ActionFailed
		if err != nil {
			a.Error = err.Error()
		}
	}, false)
}

func (t *Tracker) MarkSkipped(id string) {
	t.update(id, func(a *domain.Action) { a.Status = domain.ActionSkipped }, false)
}

// Get returns a copy of the action with the given id.
func (t *Tracker) Get(id string) (domain.Action, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.actions[id]
	if !ok {
		return domain.Action{}, false
	}
	return *a, true
}

// Actions returns copies of all actions in registration order.
func (t *Tracker) Actions() []domain.Action {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Action, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.actions[id])
	}
	return out
}

// Report counts actions by status.
func (t *Tracker) Report() domain.ActionSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var s domain.ActionSummary
	for _, a := range t.actions {
		s.Total++
		switch a.Status {
		case domain.ActionSuccess:
			s.Success++
		case domain.ActionFailed:
			s.Failed++
		case domain.ActionPending:
			s.Pending++
		case domain.ActionSkipped:
			s.Skipped++
		}
	}
	return s
}

func (t *Tracker) update(id string, fn func(*domain.Action), create bool) {
	t.mu.Lock()
	a, ok := t.actions[id]
	if !ok {
		if !create {
			t.mu.Unlock()
			return
		}
		a = &domain.Action{ID: id}
		t.actions[id] = a
		t.order = append(t.order, id)
	}
	fn(a)
	a.UpdatedAt = time.Now()
	snapshot, observer := *a, t.observer
	t.mu.Unlock()

	if observer != nil {
		observer(snapshot)
	}
}
