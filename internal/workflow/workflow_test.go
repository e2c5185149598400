package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"actionplan-backend/internal/guide"
	"actionplan-backend/internal/llm"
)

func TestTriggerAndSubmitCompletes(t *testing.T) {
	client := &fakeLLM{}
	w := newTestWorkflow(client, time.Second)
	ctx := context.Background()

	state, err := w.Trigger(ctx, 0)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if state.Status != StatusAwaitingAnswers || state.Cycle != 1 {
		t.Fatalf("unexpected state %+v", state)
	}
	if len(state.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(state.Questions))
	}
	for i, q := range state.Questions {
		if !strings.Contains(q, "Daily log") && !strings.Contains(q, "No log found for line 3") {
			t.Fatalf("question %d embeds neither guidance nor comment: %q", i, q)
		}
	}

	state, err = w.Submit(ctx, 0, "key", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if state.Status != StatusCompleted || state.Recommendation == nil || state.Failure != nil {
		t.Fatalf("unexpected state %+v", state)
	}
	if state.Recommendation.Text != "recommendation" || state.Recommendation.PromptHash == "" {
		t.Fatalf("unexpected recommendation %+v", state.Recommendation)
	}
	if !strings.Contains(client.lastPrompt(), "a\nb\nc") {
		t.Fatalf("prompt missing answers in order:\n%s", client.lastPrompt())
	}
	if got := w.Store.Get(0); got.Status != StatusCompleted {
		t.Fatalf("store not updated: %+v", got)
	}
}

func TestTriggerLookupNotFoundStaysIdle(t *testing.T) {
	client := &fakeLLM{}
	w := newTestWorkflow(client, time.Second)

	state, err := w.Trigger(context.Background(), 1)
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected step error, got %v", err)
	}
	if stepErr.Code != ErrorCodeLookupNotFound || stepErr.Step != StepLookup || !errors.Is(err, guide.ErrNotFound) {
		t.Fatalf("unexpected step error %+v", stepErr)
	}
	if !strings.Contains(err.Error(), "finding #1 (9.9.9): lookup") {
		t.Fatalf("message should name finding and step: %q", err.Error())
	}
	if state.Status != StatusIdle {
		t.Fatalf("expected idle, got %s", state.Status)
	}
	if len(w.Store.Snapshot()) != 0 {
		t.Fatalf("lookup miss should not write state")
	}
	if client.calls() != 0 {
		t.Fatalf("no backend call expected")
	}
}

func TestSubmitMissingCredentialFailsWithoutCall(t *testing.T) {
	client := &fakeLLM{}
	w := newTestWorkflow(client, time.Second)
	ctx := context.Background()

	if _, err := w.Trigger(ctx, 0); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	state, err := w.Submit(ctx, 0, "", []string{"a", "b", "c"})
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Code != ErrorCodeMissingCredential {
		t.Fatalf("expected missing credential, got %v", err)
	}
	if state.Status != StatusFailed || state.Failure == nil || state.Failure.Code != ErrorCodeMissingCredential {
		t.Fatalf("unexpected state %+v", state)
	}
	if state.Recommendation != nil {
		t.Fatalf("failed item must not carry a recommendation")
	}
	if client.calls() != 0 {
		t.Fatalf("backend was called without a credential")
	}
}

func TestSubmitTimeoutIsolatedToItem(t *testing.T) {
	client := &fakeLLM{complete: func(ctx context.Context, req llm.Request) (llm.Completion, error) {
		if strings.Contains(req.Prompt, "slow-answer") {
			<-ctx.Done()
			return llm.Completion{}, ctx.Err()
		}
		return llm.Completion{Text: "ok"}, nil
	}}
	w := newTestWorkflow(client, 30*time.Millisecond)
	ctx := context.Background()

	if _, err := w.Trigger(ctx, 2); err != nil {
		t.Fatalf("trigger 2: %v", err)
	}
	if _, err := w.Submit(ctx, 2, "key", []string{"x", "y", "z"}); err != nil {
		t.Fatalf("submit 2: %v", err)
	}
	if _, err := w.Trigger(ctx, 0); err != nil {
		t.Fatalf("trigger 0: %v", err)
	}

	state, err := w.Submit(ctx, 0, "key", []string{"slow-answer", "", ""})
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Code != ErrorCodeBackendTimeout || stepErr.Step != StepGenerate {
		t.Fatalf("expected timeout, got %v", err)
	}
	if state.Status != StatusFailed || state.Failure.Code != ErrorCodeBackendTimeout {
		t.Fatalf("unexpected state %+v", state)
	}
	if other := w.Store.Get(2); other.Status != StatusCompleted || other.Recommendation.Text != "ok" {
		t.Fatalf("other item affected: %+v", other)
	}
}

func TestSubmitBackendErrorRecorded(t *testing.T) {
	client := &fakeLLM{complete: func(ctx context.Context, req llm.Request) (llm.Completion, error) {
		return llm.Completion{}, errors.New("llm http status 401: invalid api key")
	}}
	w := newTestWorkflow(client, time.Second)
	ctx := context.Background()
	_, _ = w.Trigger(ctx, 0)

	state, err := w.Submit(ctx, 0, "bad", []string{"", "", ""})
	if err == nil || state.Status != StatusFailed || state.Failure.Code != ErrorCodeBackendError {
		t.Fatalf("expected backend error, got state=%+v err=%v", state, err)
	}
	if !strings.Contains(state.Failure.Message, "finding #0 (4.1): generate") {
		t.Fatalf("failure message should name finding and step: %q", state.Failure.Message)
	}
}

func TestSubmitRequiresAwaitingAnswers(t *testing.T) {
	w := newTestWorkflow(&fakeLLM{}, time.Second)

	state, err := w.Submit(context.Background(), 0, "key", []string{"a", "b", "c"})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if state.Status != StatusIdle {
		t.Fatalf("state changed: %+v", state)
	}
}

func TestSubmitChecksAnswerCount(t *testing.T) {
	client := &fakeLLM{}
	w := newTestWorkflow(client, time.Second)
	ctx := context.Background()
	_, _ = w.Trigger(ctx, 0)

	state, err := w.Submit(ctx, 0, "key", []string{"a", "b"})
	if !errors.Is(err, ErrInvalidAnswers) {
		t.Fatalf("expected invalid answers, got %v", err)
	}
	if state.Status != StatusAwaitingAnswers || client.calls() != 0 {
		t.Fatalf("arity failure should not advance: %+v", state)
	}
}

func TestSubmitAllowsBlankAnswers(t *testing.T) {
	client := &fakeLLM{}
	w := newTestWorkflow(client, time.Second)
	ctx := context.Background()
	_, _ = w.Trigger(ctx, 0)

	state, err := w.Submit(ctx, 0, "key", []string{"", "", ""})
	if err != nil || state.Status != StatusCompleted {
		t.Fatalf("blank answers should be accepted: state=%+v err=%v", state, err)
	}
	if len(state.Answers) != 3 {
		t.Fatalf("blank answers should be kept")
	}
}

func TestRetriggerDiscardsPriorCycle(t *testing.T) {
	w := newTestWorkflow(&fakeLLM{}, time.Second)
	ctx := context.Background()
	_, _ = w.Trigger(ctx, 0)
	_, _ = w.Submit(ctx, 0, "key", []string{"a", "b", "c"})

	state, err := w.Trigger(ctx, 0)
	if err != nil {
		t.Fatalf("retrigger: %v", err)
	}
	if state.Status != StatusAwaitingAnswers || state.Cycle != 2 {
		t.Fatalf("unexpected state %+v", state)
	}
	if state.Recommendation != nil || state.Answers != nil || state.Failure != nil {
		t.Fatalf("prior cycle not discarded: %+v", state)
	}
}

func TestLastWriteWins(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	client := &fakeLLM{complete: func(ctx context.Context, req llm.Request) (llm.Completion, error) {
		if strings.Contains(req.Prompt, "first-cycle") {
			close(entered)
			<-release
			return llm.Completion{Text: "first result"}, nil
		}
		return llm.Completion{Text: "second result"}, nil
	}}
	w := newTestWorkflow(client, 5*time.Second)
	ctx := context.Background()

	if _, err := w.Trigger(ctx, 0); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	done := make(chan ItemState, 1)
	go func() {
		state, _ := w.Submit(ctx, 0, "key", []string{"first-cycle", "", ""})
		done <- state
	}()
	<-entered

	if _, err := w.Trigger(ctx, 0); err != nil {
		t.Fatalf("retrigger: %v", err)
	}
	second, err := w.Submit(ctx, 0, "key", []string{"second-cycle", "", ""})
	if err != nil || second.Recommendation.Text != "second result" || second.Cycle != 2 {
		t.Fatalf("unexpected second cycle: %+v err=%v", second, err)
	}

	close(release)
	first := <-done
	if first.Recommendation.Text != "first result" {
		t.Fatalf("unexpected first cycle: %+v", first)
	}

	final := w.Store.Get(0)
	if final.Cycle != 2 || final.Recommendation.Text != "first result" {
		t.Fatalf("expected the last write to be retained, got %+v", final)
	}
	if final.Answers[0] != "first-cycle" {
		t.Fatalf("retained state mixes cycles: %+v", final.Answers)
	}
}

func TestLateResultKeepsNewerQuestions(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	client := &fakeLLM{complete: func(ctx context.Context, req llm.Request) (llm.Completion, error) {
		if strings.Contains(req.Prompt, "first-cycle") {
			close(entered)
			<-release
			return llm.Completion{Text: "first result"}, nil
		}
		return llm.Completion{Text: "second result"}, nil
	}}
	w := newTestWorkflow(client, 5*time.Second)
	ctx := context.Background()

	if _, err := w.Trigger(ctx, 0); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	done := make(chan ItemState, 1)
	go func() {
		state, _ := w.Submit(ctx, 0, "key", []string{"first-cycle", "", ""})
		done <- state
	}()
	<-entered

	retriggered, err := w.Trigger(ctx, 0)
	if err != nil || retriggered.Cycle != 2 {
		t.Fatalf("retrigger: %+v err=%v", retriggered, err)
	}
	close(release)
	<-done

	pending := w.Store.Get(0)
	if pending.Status != StatusAwaitingAnswers || pending.Cycle != 2 {
		t.Fatalf("expected cycle 2 awaiting answers, got status=%s cycle=%d", pending.Status, pending.Cycle)
	}
	if pending.Recommendation != nil || len(pending.Questions) != 3 {
		t.Fatalf("newer cycle lost its questions: %+v", pending)
	}

	second, err := w.Submit(ctx, 0, "key", []string{"second-cycle", "", ""})
	if err != nil {
		t.Fatalf("submit for cycle 2: %v", err)
	}
	if second.Status != StatusCompleted || second.Cycle != 2 || second.Recommendation.Text != "second result" {
		t.Fatalf("unexpected cycle 2 outcome: %+v", second)
	}
}

func TestUnknownFinding(t *testing.T) {
	w := newTestWorkflow(&fakeLLM{}, time.Second)
	ctx := context.Background()
	if _, err := w.Trigger(ctx, 9); !errors.Is(err, ErrUnknownFinding) {
		t.Fatalf("trigger: expected unknown finding, got %v", err)
	}
	if _, err := w.Submit(ctx, -1, "k", nil); !errors.Is(err, ErrUnknownFinding) {
		t.Fatalf("submit: expected unknown finding, got %v", err)
	}
	if _, err := w.State(3); !errors.Is(err, ErrUnknownFinding) {
		t.Fatalf("state: expected unknown finding, got %v", err)
	}
	if got := len(w.States()); got != 3 {
		t.Fatalf("expected 3 states, got %d", got)
	}
}

func TestStateMachineInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := newTestWorkflow(&fakeLLM{}, time.Second)
		ctx := context.Background()

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			index := rapid.IntRange(0, 2).Draw(t, "index")
			before := w.Store.Get(index)

			switch rapid.IntRange(0, 2).Draw(t, "action") {
			case 0:
				state, err := w.Trigger(ctx, index)
				if index == 1 {
					if err == nil || state.Status != before.Status || state.Cycle != before.Cycle {
						t.Fatalf("lookup miss advanced state: %+v", state)
					}
				} else if err != nil || state.Status != StatusAwaitingAnswers || state.Cycle != before.Cycle+1 {
					t.Fatalf("trigger did not start a cycle: %+v err=%v", state, err)
				}
			case 1:
				key := rapid.SampledFrom([]string{"", "key"}).Draw(t, "key")
				n := rapid.IntRange(2, 4).Draw(t, "answers")
				answers := make([]string, n)
				state, err := w.Submit(ctx, index, key, answers)
				valid := before.Status == StatusAwaitingAnswers && n == len(before.Questions)
				if !valid && (err == nil || state.Status != before.Status) {
					t.Fatalf("invalid submit changed state: %+v err=%v", state, err)
				}
				if valid && key == "" && state.Status != StatusFailed {
					t.Fatalf("missing key did not fail: %+v", state)
				}
				if valid && key != "" && state.Status != StatusCompleted {
					t.Fatalf("submit did not complete: %+v err=%v", state, err)
				}
			case 2:
				if _, err := w.State(index); err != nil {
					t.Fatalf("state: %v", err)
				}
			}

			for _, s := range w.States() {
				if (s.Recommendation != nil) != (s.Status == StatusCompleted) {
					t.Fatalf("recommendation present iff completed violated: %+v", s)
				}
				if (s.Failure != nil) != (s.Status == StatusFailed) {
					t.Fatalf("failure present iff failed violated: %+v", s)
				}
				if s.Answers != nil && len(s.Answers) != len(s.Questions) {
					t.Fatalf("answers and questions misaligned: %+v", s)
				}
			}
			if w.Store.Get(1).Status != StatusIdle {
				t.Fatalf("unmatched finding left idle state")
			}
		}
	})
}
