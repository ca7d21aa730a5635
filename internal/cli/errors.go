package cli

import (
	"fmt"
	"io"

	perrors "github.com/agb-planner/planner/internal/errors"
)

// PrintError prints an error with appropriate formatting.
// If the error is a PlannerError, it uses the user-friendly format.
// Otherwise, it prints a simple error message.
func PrintError(w io.Writer, err error, verbose bool) {
	if pe := perrors.AsPlannerError(err); pe != nil {
		fmt.Fprintln(w, pe.UserMessage())
		if verbose {
			fmt.Fprintf(w, "\nCode: %s\n", pe.Code)
			if pe.Cause != nil {
				fmt.Fprintf(w, "Cause: %v\n", pe.Cause)
			}
		}
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
