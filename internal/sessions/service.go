package sessions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"actionplan-backend/internal/findings"
	"actionplan-backend/internal/generator"
	"actionplan-backend/internal/guide"
	"actionplan-backend/internal/plans"
	"actionplan-backend/internal/prompt"
	"actionplan-backend/internal/shared/telemetry"
	"actionplan-backend/internal/workflow"
)

// Service creates sessions and routes item operations to their workflow.
type Service struct {
	Guide         guide.Source
	Plans         *plans.Service
	Generator     *generator.Generator
	Registry      *Registry
	Locale        string
	DefaultAPIKey string
	Now           func() time.Time
}

// CreateInput carries optional session settings.
type CreateInput struct {
	APIKey string
	Locale string
}

// Item pairs a finding with its workflow state.
type Item struct {
	Finding findings.Finding   `json:"finding"`
	State   workflow.ItemState `json:"state"`
}

// Create loads the guide and registers a new session. A guide that cannot be
// loaded fails the whole session.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Session, error) {
	locale := strings.ToLower(strings.TrimSpace(in.Locale))
	if locale == "" {
		locale = s.Locale
	}
	if _, ok := prompt.Template(locale); !ok {
		return nil, fmt.Errorf("%w: unsupported locale %q", ErrInvalidInput, in.Locale)
	}

	index, err := s.Guide.Load(ctx)
	if err != nil {
		telemetry.Error("session.guide_unavailable", map[string]any{"error": err})
		return nil, err
	}

	session := &Session{
		ID:        uuid.NewString(),
		Locale:    locale,
		CreatedAt: s.now(),
		Guide:     index,
		apiKey:    strings.TrimSpace(in.APIKey),
	}
	s.Registry.put(session)
	telemetry.Info("session.created", map[string]any{
		"session_id":   session.ID,
		"locale":       locale,
		"guide_source": index.Source(),
		"guide_rows":   index.Len(),
	})
	return session, nil
}

// Get returns a session by ID.
func (s *Service) Get(id string) (*Session, error) {
	return s.Registry.Get(id)
}

// Delete ends a session.
func (s *Service) Delete(id string) error {
	return s.Registry.Delete(id)
}

// SetCredential stores the backend credential for a session.
func (s *Service) SetCredential(id, apiKey string) error {
	session, err := s.Registry.Get(id)
	if err != nil {
		return err
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("%w: apiKey is required", ErrInvalidInput)
	}
	session.SetAPIKey(apiKey)
	return nil
}

// HasCredential reports whether generation has a credential to use.
func (s *Service) HasCredential(session *Session) bool {
	return s.credential(session) != ""
}

// UploadPlan stores and parses a plan, then starts a fresh workflow over its findings.
// A rejected upload leaves the session's previous plan in place.
func (s *Service) UploadPlan(ctx context.Context, id, fileName string, r io.Reader) (plans.Plan, error) {
	session, err := s.Registry.Get(id)
	if err != nil {
		return plans.Plan{}, err
	}
	plan, err := s.Plans.Upload(ctx, id, fileName, r)
	if err != nil {
		return plans.Plan{}, err
	}
	s.attach(session, plan)
	return plan, nil
}

// ReparsePlan reads the session's current plan again with other options.
func (s *Service) ReparsePlan(ctx context.Context, id string, opts findings.Options) (plans.Plan, error) {
	session, err := s.Registry.Get(id)
	if err != nil {
		return plans.Plan{}, err
	}
	if _, err := s.workflow(ctx, session); err != nil {
		return plans.Plan{}, err
	}
	current, ok := session.Plan()
	if !ok {
		return plans.Plan{}, ErrPlanRequired
	}
	plan, err := s.Plans.Reparse(ctx, id, current.ID, opts)
	if err != nil {
		return plans.Plan{}, err
	}
	s.attach(session, plan)
	return plan, nil
}

// Items lists every finding of the current plan with its state.
func (s *Service) Items(ctx context.Context, id string) ([]Item, error) {
	wf, err := s.sessionWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}
	states := wf.States()
	out := make([]Item, len(states))
	for i, state := range states {
		out[i] = Item{Finding: wf.Findings[i], State: state}
	}
	return out, nil
}

// Item returns one finding with its state.
func (s *Service) Item(ctx context.Context, id string, index int) (Item, error) {
	wf, err := s.sessionWorkflow(ctx, id)
	if err != nil {
		return Item{}, err
	}
	return item(wf, index)
}

// Trigger starts a generation cycle for one finding.
func (s *Service) Trigger(ctx context.Context, id string, index int) (Item, error) {
	wf, err := s.sessionWorkflow(ctx, id)
	if err != nil {
		return Item{}, err
	}
	state, err := wf.Trigger(ctx, index)
	if err != nil {
		return itemOrEmpty(wf, index, state), err
	}
	return Item{Finding: wf.Findings[index], State: state}, nil
}

// Submit records answers and blocks until the recommendation is generated or fails.
func (s *Service) Submit(ctx context.Context, id string, index int, answers []string) (Item, error) {
	session, err := s.Registry.Get(id)
	if err != nil {
		return Item{}, err
	}
	wf, err := s.workflow(ctx, session)
	if err != nil {
		return Item{}, err
	}
	state, err := wf.Submit(ctx, index, s.credential(session), answers)
	if err != nil {
		return itemOrEmpty(wf, index, state), err
	}
	return Item{Finding: wf.Findings[index], State: state}, nil
}

func (s *Service) attach(session *Session, plan plans.Plan) {
	session.attach(plan, s.newWorkflow(session, plan))
}

func (s *Service) newWorkflow(session *Session, plan plans.Plan) *workflow.Workflow {
	wf := workflow.New(session.ID, plan.Findings, session.Guide, workflow.NewStore(), s.Generator, session.Locale)
	wf.Now = s.Now
	return wf
}

func (s *Service) sessionWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	session, err := s.Registry.Get(id)
	if err != nil {
		return nil, err
	}
	return s.workflow(ctx, session)
}

// workflow returns the session's workflow. A session with no plan in memory
// picks up the latest plan stored for it.
func (s *Service) workflow(ctx context.Context, session *Session) (*workflow.Workflow, error) {
	wf, err := session.Workflow()
	if !errors.Is(err, ErrPlanRequired) || s.Plans == nil {
		return wf, err
	}
	plan, err := s.Plans.Current(ctx, session.ID)
	if errors.Is(err, plans.ErrNotFound) {
		return nil, ErrPlanRequired
	}
	if err != nil {
		return nil, err
	}
	telemetry.Info("session.plan_restored", map[string]any{
		"session_id": session.ID,
		"plan_id":    plan.ID,
		"findings":   len(plan.Findings),
	})
	return session.restore(plan, s.newWorkflow(session, plan)), nil
}

func (s *Service) credential(session *Session) string {
	if key := session.APIKey(); key != "" {
		return key
	}
	return strings.TrimSpace(s.DefaultAPIKey)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func item(wf *workflow.Workflow, index int) (Item, error) {
	state, err := wf.State(index)
	if err != nil {
		return Item{}, err
	}
	return Item{Finding: wf.Findings[index], State: state}, nil
}

func itemOrEmpty(wf *workflow.Workflow, index int, state workflow.ItemState) Item {
	f, err := wf.Finding(index)
	if err != nil {
		return Item{}
	}
	return Item{Finding: f, State: state}
}
