package inspect

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/deploymenttheory/go-officecrypto/pkg/app"
	"github.com/deploymenttheory/go-officecrypto/pkg/services"
)

// FormatOutput formats inspection results according to output format
func FormatOutput(w io.Writer, response *Response, format string) error {
	if done, err := app.WriteStructured(w, format, response); done {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, doc := range response.Documents {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		formatDocument(tw, doc)
	}
	if len(response.Documents) > 1 {
		fmt.Fprintf(tw, "\n%d of %d documents encrypted\n", response.Encrypted, len(response.Documents))
	}
	return tw.Flush()
}

func formatDocument(w io.Writer, doc *services.DocumentInfo) {
	fmt.Fprintf(w, "Path:\t%s\n", doc.Path)
	fmt.Fprintf(w, "Size:\t%s\n", app.FormatBytes(doc.Size))
	if !doc.Encrypted {
		fmt.Fprintf(w, "Encrypted:\tno\n")
		return
	}
	e := doc.Encryption
	fmt.Fprintf(w, "Encrypted:\tyes\n")
	fmt.Fprintf(w, "Format:\t%s (version %d.%d)\n", e.Format, e.MajorVersion, e.MinorVersion)
	fmt.Fprintf(w, "Cipher:\t%s %s\n", e.CipherAlgorithm, e.CipherChaining)
	fmt.Fprintf(w, "Hash:\t%s (%d spins, %d byte salt)\n", e.HashAlgorithm, e.SpinCount, e.SaltSize)
	fmt.Fprintf(w, "Data integrity:\t%s\n", yesNo(e.HasDataIntegrity))
	fmt.Fprintf(w, "Package size:\t%s\n", app.FormatBytes(int64(e.PackageSize)))
	if e.HasDataSpaces {
		fmt.Fprintf(w, "Data space:\t%s (%s)\n", e.DataSpace, e.Transform)
	} else {
		fmt.Fprintf(w, "Data space:\tnone\n")
	}
}

// FormatVerifyOutput formats a password check according to output format
func FormatVerifyOutput(w io.Writer, response *VerifyResponse, format string) error {
	if done, err := app.WriteStructured(w, format, response); done {
		return err
	}
	if response.Valid {
		_, err := fmt.Fprintf(w, "%s: password OK (%s)\n", response.Path, response.Format)
		return err
	}
	_, err := fmt.Fprintf(w, "%s: password incorrect\n", response.Path)
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
