package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-officecrypto/pkg/app/inspect"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>...",
	Short: "Show how Office documents are encrypted",
	Long: `Report whether each document is encrypted and with which parameters.
No password is needed.

Examples:
  officecrypt info report.docx
  officecrypt info *.xlsx -o json`,

	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, paths []string) error {
	ctx, err := newContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := ctx.WithTimeout(ctx.DefaultTimeout)
	defer cancel()

	svc, err := newService(ctx, false)
	if err != nil {
		return err
	}
	response, err := inspect.Handle(ctx, svc, &inspect.Request{Paths: paths})
	if err != nil {
		return err
	}
	return inspect.FormatOutput(ctx.Output(), response, ctx.OutputFormat)
}
