package sessions

import (
	"sync"
	"time"

	"actionplan-backend/internal/guide"
	"actionplan-backend/internal/plans"
	"actionplan-backend/internal/workflow"
)

// Session is one interactive review of an action plan. It owns the guide
// loaded at creation, the backend credential and the workflow over the
// current plan's findings.
type Session struct {
	ID        string
	Locale    string
	CreatedAt time.Time
	Guide     *guide.Index

	mu       sync.RWMutex
	apiKey   string
	plan     *plans.Plan
	workflow *workflow.Workflow
}

// APIKey returns the session credential.
func (s *Session) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// SetAPIKey replaces the session credential.
func (s *Session) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
}

// Plan returns the current plan, if any.
func (s *Session) Plan() (plans.Plan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.plan == nil {
		return plans.Plan{}, false
	}
	return *s.plan, true
}

// Workflow returns the workflow over the current plan.
func (s *Session) Workflow() (*workflow.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.workflow == nil {
		return nil, ErrPlanRequired
	}
	return s.workflow, nil
}

// attach replaces the plan. Item states start over since finding identities
// belong to one parse.
func (s *Session) attach(plan plans.Plan, wf *workflow.Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = &plan
	s.workflow = wf
}

// restore attaches plan only when the session has none yet and returns the
// workflow the session ends up with.
func (s *Session) restore(plan plans.Plan, wf *workflow.Workflow) *workflow.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workflow != nil {
		return s.workflow
	}
	s.plan = &plan
	s.workflow = wf
	return wf
}

// Registry holds live sessions in memory.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get returns a session by ID.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete drops a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
