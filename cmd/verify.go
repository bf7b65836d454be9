package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-officecrypto/pkg/app"
	"github.com/deploymenttheory/go-officecrypto/pkg/app/inspect"
	"github.com/deploymenttheory/go-officecrypto/pkg/officecrypto"
)

var verifyPassword string

var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Check a document password without decrypting",
	Long: `Check whether a password opens an encrypted document. The exit status
is 0 when it does and 2 when it does not.

Examples:
  officecrypt verify report.protected.docx -p secret`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&verifyPassword, "password", "p", "", "document password (prompted when omitted)")
}

func runVerify(cmd *cobra.Command, path string) error {
	ctx, err := newContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := ctx.WithTimeout(ctx.DefaultTimeout)
	defer cancel()

	password, err := resolvePassword(cmd, verifyPassword, false)
	if err != nil {
		return err
	}

	svc, err := newService(ctx, false)
	if err != nil {
		return err
	}
	response, err := inspect.HandleVerify(ctx, svc, &inspect.VerifyRequest{Path: path, Password: password})
	if err != nil {
		return err
	}
	if !ctx.Quiet {
		if err := inspect.FormatVerifyOutput(ctx.Output(), response, ctx.OutputFormat); err != nil {
			return err
		}
	}
	if !response.Valid {
		return app.NewError(app.ErrCodeInvalidPassword, "password incorrect", officecrypto.ErrInvalidPassword)
	}
	return nil
}
