package main

// Render the questions and prompt for one finding of a local action plan:
//   go run ./cmd/prompttest --plan plan.xlsx --guide guide.csv --index 0 \
//     --answer "..." --answer "..." --answer "..." [--generate]

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
