package encrypt

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/deploymenttheory/go-officecrypto/pkg/app"
)

// FormatOutput formats an encryption result according to output format
func FormatOutput(w io.Writer, response *Response, format string) error {
	if done, err := app.WriteStructured(w, format, response); done {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Input:\t%s (%s)\n", response.InputPath, app.FormatBytes(response.InputSize))
	fmt.Fprintf(tw, "Output:\t%s (%s)\n", response.OutputPath, app.FormatBytes(response.OutputSize))
	fmt.Fprintf(tw, "Format:\t%s\n", response.Format)
	fmt.Fprintf(tw, "Cipher:\t%s\n", response.Cipher)
	fmt.Fprintf(tw, "Hash:\t%s (%d spins)\n", response.Hash, response.SpinCount)
	fmt.Fprintf(tw, "Duration:\t%v\n", response.Duration)
	return tw.Flush()
}
