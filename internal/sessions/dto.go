package sessions

import (
	"time"

	"actionplan-backend/internal/plans"
)

type createRequest struct {
	APIKey string `json:"apiKey"`
	Locale string `json:"locale"`
}

type credentialRequest struct {
	APIKey string `json:"apiKey"`
}

type reparseRequest struct {
	HeaderRow *int   `json:"headerRow"`
	Sheet     string `json:"sheet"`
}

type answersRequest struct {
	Answers []string `json:"answers"`
}

type guideResponse struct {
	Source string `json:"source"`
	Rows   int    `json:"rows"`
}

type planResponse struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	MimeType  string    `json:"mimeType"`
	SizeBytes int64     `json:"sizeBytes"`
	HeaderRow int       `json:"headerRow"`
	Findings  int       `json:"findings"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionResponse struct {
	ID            string        `json:"id"`
	Locale        string        `json:"locale"`
	CreatedAt     time.Time     `json:"createdAt"`
	HasCredential bool          `json:"hasCredential"`
	Guide         guideResponse `json:"guide"`
	Plan          *planResponse `json:"plan,omitempty"`
}

type planUploadResponse struct {
	Plan  planResponse `json:"plan"`
	Items []Item       `json:"items"`
}

func toPlanResponse(plan plans.Plan) planResponse {
	return planResponse{
		ID:        plan.ID,
		FileName:  plan.FileName,
		MimeType:  plan.MimeType,
		SizeBytes: plan.SizeBytes,
		HeaderRow: plan.HeaderRow,
		Findings:  len(plan.Findings),
		CreatedAt: plan.CreatedAt,
	}
}
