package guide

// Column headers of the IFS Food 8 checklist guide.
const (
	ColumnRequirementID    = "NUM_REQ"
	ColumnGoodPractice     = "Good practice"
	ColumnElementsToCheck  = "Elements to check"
	ColumnExampleQuestions = "Example questions"
)

// RequiredColumns lists the headers a guide must provide.
var RequiredColumns = []string{
	ColumnRequirementID,
	ColumnGoodPractice,
	ColumnElementsToCheck,
	ColumnExampleQuestions,
}

// Row is one guidance entry of the reference table.
type Row struct {
	RequirementID    string `json:"requirementId"`
	GoodPractice     string `json:"goodPractice"`
	ElementsToCheck  string `json:"elementsToCheck"`
	ExampleQuestions string `json:"exampleQuestions"`
}
