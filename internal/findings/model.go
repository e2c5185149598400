package findings

// Column headers consumed from an exported action plan.
const (
	ColumnRequirementID   = "requirementNo"
	ColumnRequirementText = "requirementText"
	ColumnAuditorComment  = "requirementExplanation"
)

// DefaultHeaderRow is the number of metadata rows preceding the header in checklist exports.
const DefaultHeaderRow = 11

// Finding is one non-conformity of an uploaded action plan. Index is its
// identity: the 0-based position among the kept data rows.
type Finding struct {
	Index           int    `json:"index"`
	RequirementID   string `json:"requirementId"`
	RequirementText string `json:"requirementText"`
	AuditorComment  string `json:"auditorComment"`
}

// Options controls how an uploaded plan is read.
type Options struct {
	// HeaderRow is the 0-based row index holding the column headers.
	HeaderRow int
	// Sheet selects a worksheet by name; the first sheet is used when empty.
	Sheet string
}

// DefaultOptions returns options matching the checklist export layout.
func DefaultOptions() Options {
	return Options{HeaderRow: DefaultHeaderRow}
}
