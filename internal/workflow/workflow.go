// Package workflow drives each finding through trigger, answer collection and
// generation, recording the outcome in a session-scoped Store.
package workflow

import (
	"context"
	"fmt"
	"time"

	"actionplan-backend/internal/findings"
	"actionplan-backend/internal/generator"
	"actionplan-backend/internal/guide"
	"actionplan-backend/internal/prompt"
	"actionplan-backend/internal/questions"
	"actionplan-backend/internal/shared/metrics"
	"actionplan-backend/internal/shared/telemetry"
)

// Workflow coordinates lookup, questions, prompt and generation for one session's findings.
type Workflow struct {
	SessionID string
	Findings  []findings.Finding
	Guide     *guide.Index
	Store     *Store
	Generator *generator.Generator
	Locale    string
	Now       func() time.Time
}

// New constructs a Workflow. A nil store gets a fresh one.
func New(sessionID string, items []findings.Finding, index *guide.Index, store *Store, gen *generator.Generator, locale string) *Workflow {
	if store == nil {
		store = NewStore()
	}
	return &Workflow{
		SessionID: sessionID,
		Findings:  items,
		Guide:     index,
		Store:     store,
		Generator: gen,
		Locale:    locale,
	}
}

// Finding returns the finding at index.
func (w *Workflow) Finding(index int) (findings.Finding, error) {
	if index < 0 || index >= len(w.Findings) {
		return findings.Finding{}, fmt.Errorf("%w: %d", ErrUnknownFinding, index)
	}
	return w.Findings[index], nil
}

// State returns the current state of one finding.
func (w *Workflow) State(index int) (ItemState, error) {
	if _, err := w.Finding(index); err != nil {
		return ItemState{}, err
	}
	return w.Store.Get(index), nil
}

// States returns the state of every finding in upload order.
func (w *Workflow) States() []ItemState {
	out := make([]ItemState, len(w.Findings))
	for i := range w.Findings {
		out[i] = w.Store.Get(i)
	}
	return out
}

// Trigger starts a new cycle: it looks up guidance and stores fresh questions,
// discarding any earlier questions, answers and outcome. When no guide row
// matches, the stored state is left as it was and a LOOKUP_NOT_FOUND StepError
// is returned.
func (w *Workflow) Trigger(ctx context.Context, index int) (ItemState, error) {
	f, err := w.Finding(index)
	if err != nil {
		return ItemState{}, err
	}

	row, err := w.Guide.Lookup(f.RequirementID)
	if err != nil {
		stepErr := newStepError(f, StepLookup, ErrorCodeLookupNotFound, err)
		metrics.IncLookupNotFound()
		telemetry.Info("item.lookup_not_found", map[string]any{
			"request_id":     requestIDFromContext(ctx),
			"session_id":     w.SessionID,
			"finding_index":  f.Index,
			"requirement_id": f.RequirementID,
		})
		return w.Store.Get(index), stepErr
	}

	set := questions.Compose(w.Locale, f, row)
	var from Status
	state := w.Store.Update(index, func(prev ItemState) ItemState {
		from = prev.Status
		return ItemState{
			Status:    StatusAwaitingAnswers,
			Cycle:     prev.Cycle + 1,
			Guidance:  &row,
			Questions: set.Slice(),
			UpdatedAt: w.now(),
		}
	})
	w.logTransition(ctx, f, state, from, nil)
	return state, nil
}

// Submit records answers for the current cycle and generates the
// recommendation, blocking until the generator returns. Blank answers are
// allowed; the answer count must match the question count. A missing
// credential fails the cycle before it reaches generating.
func (w *Workflow) Submit(ctx context.Context, index int, apiKey string, answers []string) (ItemState, error) {
	f, err := w.Finding(index)
	if err != nil {
		return ItemState{}, err
	}
	gen := w.Generator
	if gen == nil {
		gen = generator.New(nil, "", 0, 0)
	}

	var (
		stepErr *StepError
		from    Status
	)
	state := w.Store.Update(index, func(prev ItemState) ItemState {
		from = prev.Status
		if prev.Status != StatusAwaitingAnswers {
			stepErr = newStepError(f, StepAnswers, ErrorCodeInvalidState, fmt.Errorf("%w (status %s)", ErrInvalidState, prev.Status))
			return prev
		}
		if len(answers) != len(prev.Questions) {
			stepErr = newStepError(f, StepAnswers, ErrorCodeInvalidAnswers, fmt.Errorf("%w: got %d, want %d", ErrInvalidAnswers, len(answers), len(prev.Questions)))
			return prev
		}

		next := prev
		next.Answers = append([]string(nil), answers...)
		next.UpdatedAt = w.now()
		if err := gen.CheckCredential(apiKey); err != nil {
			stepErr = newStepError(f, StepGenerate, ErrorCodeMissingCredential, err)
			next.Status = StatusFailed
			next.Failure = stepErr.Failure()
			return next
		}
		next.Status = StatusGenerating
		return next
	})
	if stepErr != nil {
		if state.Status == StatusFailed {
			metrics.IncGenerationFailed()
			w.logTransition(ctx, f, state, from, nil)
		}
		return state, stepErr
	}
	w.logTransition(ctx, f, state, from, nil)
	metrics.IncGenerationStarted()

	var row guide.Row
	if state.Guidance != nil {
		row = *state.Guidance
	}
	text := prompt.Build(w.Locale, f, row, state.Answers)

	startedAt := time.Now()
	// The generator bounds the wait; a dropped caller does not cancel the call.
	rec, genErr := gen.Generate(context.WithoutCancel(ctx), apiKey, text)
	duration := float64(time.Since(startedAt).Microseconds()) / 1000.0
	metrics.ObserveGenerationDurationMs(duration)

	terminal := state
	terminal.UpdatedAt = w.now()
	if genErr != nil {
		stepErr = newStepError(f, StepGenerate, failureCode(genErr), genErr)
		terminal.Status = StatusFailed
		terminal.Recommendation = nil
		terminal.Failure = stepErr.Failure()
	} else {
		terminal.Status = StatusCompleted
		terminal.Recommendation = &rec
		terminal.Failure = nil
	}

	// Terminal writes race last-write-wins. A newer cycle still awaiting
	// answers keeps its questions, and the cycle number never goes back.
	var superseded, discarded bool
	final := w.Store.Update(index, func(prev ItemState) ItemState {
		from = prev.Status
		superseded = prev.Cycle != terminal.Cycle
		if superseded && prev.Status == StatusAwaitingAnswers {
			discarded = true
			return prev
		}
		next := terminal
		if prev.Cycle > next.Cycle {
			next.Cycle = prev.Cycle
		}
		return next
	})

	extra := map[string]any{"duration_ms": duration}
	if superseded {
		extra["superseded_newer_cycle"] = true
	}
	if discarded {
		extra["discarded_result"] = true
	}
	if genErr == nil {
		metrics.IncGenerationCompleted()
		extra["prompt_hash"] = rec.PromptHash
	} else {
		metrics.IncGenerationFailed()
	}
	w.logTransition(ctx, f, final, from, extra)

	if stepErr != nil {
		return final, stepErr
	}
	return final, nil
}

func (w *Workflow) now() time.Time {
	if w.Now != nil {
		return w.Now().UTC()
	}
	return time.Now().UTC()
}

func (w *Workflow) logTransition(ctx context.Context, f findings.Finding, state ItemState, from Status, extra map[string]any) {
	if from == "" {
		from = StatusIdle
	}
	fields := map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"session_id":        w.SessionID,
		"finding_index":     f.Index,
		"requirement_id":    f.RequirementID,
		"cycle":             state.Cycle,
		"status":            state.Status,
		"status_transition": fmt.Sprintf("%s->%s", from, state.Status),
	}
	if state.Failure != nil {
		fields["error_code"] = state.Failure.Code
	}
	for k, v := range extra {
		fields[k] = v
	}
	if state.Status == StatusFailed {
		telemetry.Error("item.status", fields)
		return
	}
	telemetry.Info("item.status", fields)
}

func newStepError(f findings.Finding, step, code string, err error) *StepError {
	return &StepError{
		FindingIndex:  f.Index,
		RequirementID: f.RequirementID,
		Step:          step,
		Code:          code,
		Err:           err,
	}
}

func failureCode(err error) string {
	kind, ok := generator.KindOf(err)
	if !ok {
		return ErrorCodeBackendError
	}
	switch kind {
	case generator.KindMissingCredential:
		return ErrorCodeMissingCredential
	case generator.KindBackendTimeout:
		return ErrorCodeBackendTimeout
	default:
		return ErrorCodeBackendError
	}
}
