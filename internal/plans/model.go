package plans

import (
	"time"

	"actionplan-backend/internal/findings"
)

// Plan is an uploaded action plan and the findings parsed from it.
type Plan struct {
	ID         string             `json:"id"`
	SessionID  string             `json:"sessionId"`
	FileName   string             `json:"fileName"`
	MimeType   string             `json:"mimeType"`
	SizeBytes  int64              `json:"sizeBytes"`
	StorageKey string             `json:"-"`
	HeaderRow  int                `json:"headerRow"`
	Findings   []findings.Finding `json:"findings"`
	CreatedAt  time.Time          `json:"createdAt"`
}
