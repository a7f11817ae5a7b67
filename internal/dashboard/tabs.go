package dashboard

import "sync"

// TabSet tracks which dashboard tab is active. Exactly one panel is
// active at a time, except after activating an id with no matching panel,
// which leaves none active. Ids are not validated and nothing persists.
type TabSet struct {
	mu     sync.Mutex
	panels map[string]bool
	active string
}

// NewTabSet creates a tab set over the given panel ids. The first id
// starts active, matching the initial page render.
func NewTabSet(ids ...string) *TabSet {
	t := &TabSet{panels: make(map[string]bool, len(ids))}
	for _, id := range ids {
		t.panels[id] = true
	}
	if len(ids) > 0 {
		t.active = ids[0]
	}
	return t
}

// Activate deactivates every panel and then activates the one matching
// id. An id with no matching panel deactivates everything.
func (t *TabSet) Activate(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.panels[id] {
		t.active = id
	} else {
		t.active = ""
	}
}

// Active returns the active panel id, or "" when none is active.
func (t *TabSet) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// IsActive reports whether the given panel is the active one.
func (t *TabSet) IsActive(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active != "" && t.active == id
}
