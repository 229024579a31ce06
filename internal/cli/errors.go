package cli

import (
	"fmt"
	"io"

	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
)

// PrintError prints err for the user. Trackr errors print their user
// message, plus code and cause in verbose mode.
func PrintError(w io.Writer, err error, verbose bool) {
	if te := trackrerrors.AsTrackrError(err); te != nil {
		_, _ = fmt.Fprintln(w, te.UserMessage())
		if verbose {
			_, _ = fmt.Fprintf(w, "\nCode: %s\n", te.Code)
			if te.Cause != nil {
				_, _ = fmt.Fprintf(w, "Cause: %v\n", te.Cause)
			}
		}
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
}
