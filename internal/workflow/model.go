package workflow

import (
	"time"

	"actionplan-backend/internal/generator"
	"actionplan-backend/internal/guide"
)

// Status is the generation state of one finding.
type Status string

const (
	StatusIdle            Status = "idle"
	StatusAwaitingAnswers Status = "awaiting_answers"
	StatusGenerating      Status = "generating"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)

// Steps named in failures.
const (
	StepLookup   = "lookup"
	StepAnswers  = "answers"
	StepGenerate = "generate"
)

// Failure describes why a cycle ended in StatusFailed.
type Failure struct {
	Code    string `json:"code"`
	Step    string `json:"step"`
	Message string `json:"message"`
}

// ItemState is the per-finding workflow state. Recommendation is set only when
// Status is completed and Failure only when it is failed.
type ItemState struct {
	FindingIndex   int                       `json:"findingIndex"`
	Status         Status                    `json:"status"`
	Cycle          int                       `json:"cycle"`
	Guidance       *guide.Row                `json:"guidance,omitempty"`
	Questions      []string                  `json:"questions,omitempty"`
	Answers        []string                  `json:"answers,omitempty"`
	Recommendation *generator.Recommendation `json:"recommendation,omitempty"`
	Failure        *Failure                  `json:"failure,omitempty"`
	UpdatedAt      time.Time                 `json:"updatedAt,omitempty"`
}

func (s ItemState) clone() ItemState {
	out := s
	if s.Guidance != nil {
		row := *s.Guidance
		out.Guidance = &row
	}
	if s.Questions != nil {
		out.Questions = append([]string(nil), s.Questions...)
	}
	if s.Answers != nil {
		out.Answers = append([]string(nil), s.Answers...)
	}
	if s.Recommendation != nil {
		rec := *s.Recommendation
		out.Recommendation = &rec
	}
	if s.Failure != nil {
		failure := *s.Failure
		out.Failure = &failure
	}
	return out
}
