// internal/game/registry.go
package game

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcmillan1999/sluff-project-sub002/engine"
	"github.com/sirupsen/logrus"
)

// TableInfo summarizes a table for listings.
type TableInfo struct {
	ID          uuid.UUID `json:"id"`
	Seats       int       `json:"seats"`
	InRound     bool      `json:"inRound"`
	RoundNumber int       `json:"roundNumber"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Registry owns the live tables. It is constructed once and passed to
// whatever needs table lookup.
type Registry struct {
	mu       sync.RWMutex
	tables   map[uuid.UUID]*Table
	created  map[uuid.UUID]time.Time
	defaults TableOptions
	log      logrus.FieldLogger

	// Wired into every table created after they are set.
	Recorder  Recorder
	Analytics AnalyticsSink
}

// NewRegistry creates an empty registry. defaults is used by Create when no
// options are given.
func NewRegistry(defaults TableOptions, log logrus.FieldLogger) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		tables:   make(map[uuid.UUID]*Table),
		created:  make(map[uuid.UUID]time.Time),
		defaults: defaults,
		log:      log,
	}
}

// Defaults returns the options used for tables created without their own.
func (r *Registry) Defaults() TableOptions {
	return r.defaults
}

// Create builds and registers a table. With no options the registry
// defaults apply.
func (r *Registry) Create(opts ...TableOptions) (*Table, error) {
	o := r.defaults
	if len(opts) > 0 {
		o = opts[0]
	}
	t, err := NewTable(o, r.log)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	t.Recorder = r.Recorder
	t.Analytics = r.Analytics
	r.tables[t.ID] = t
	r.created[t.ID] = time.Now()
	r.mu.Unlock()
	r.log.WithField("table", t.ID).Info("table created")
	return t, nil
}

// Get returns the table with id or engine.ErrNotFound.
func (r *Registry) Get(id uuid.UUID) (*Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: table %s", engine.ErrNotFound, id)
	}
	return t, nil
}

// Remove closes and forgets the table. Removing an unknown id is a no-op
// and reports false.
func (r *Registry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	t, ok := r.tables[id]
	delete(r.tables, id)
	delete(r.created, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	t.Close()
	r.log.WithField("table", id).Info("table removed")
	return true
}

// List summarizes every table, oldest first.
func (r *Registry) List() []TableInfo {
	r.mu.RLock()
	tables := make([]*Table, 0, len(r.tables))
	created := make(map[uuid.UUID]time.Time, len(r.tables))
	for id, t := range r.tables {
		tables = append(tables, t)
		created[id] = r.created[id]
	}
	r.mu.RUnlock()

	out := make([]TableInfo, 0, len(tables))
	for _, t := range tables {
		t.Mu.Lock()
		out = append(out, TableInfo{
			ID:          t.ID,
			Seats:       t.roster.Len(),
			InRound:     t.InRound,
			RoundNumber: t.RoundNumber,
			CreatedAt:   created[t.ID],
		})
		t.Mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
