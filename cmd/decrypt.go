package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-officecrypto/pkg/app/decrypt"
)

var (
	decryptPassword string
	decryptForce    bool
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt <input> <output>",
	Short: "Remove the password from an Office document",
	Long: `Decrypt a password protected Office document back into its package.

Nothing is written when the password is wrong or the document fails its
integrity check. An empty password opens documents that were protected
without one.

Examples:
  officecrypt decrypt report.protected.docx report.docx -p secret
  echo secret | officecrypt decrypt book.enc.xlsx book.xlsx --force`,

	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecrypt(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(decryptCmd)

	decryptCmd.Flags().StringVarP(&decryptPassword, "password", "p", "", "document password (prompted when omitted)")
	decryptCmd.Flags().BoolVar(&decryptForce, "force", false, "overwrite an existing output file")
}

func runDecrypt(cmd *cobra.Command, input, output string) error {
	ctx, err := newContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := ctx.WithTimeout(ctx.DefaultTimeout)
	defer cancel()

	password, err := resolvePassword(cmd, decryptPassword, false)
	if err != nil {
		return err
	}

	svc, err := newService(ctx, decryptForce)
	if err != nil {
		return err
	}
	response, err := decrypt.Handle(ctx, svc, &decrypt.Request{
		InputPath:  input,
		OutputPath: output,
		Password:   password,
		Force:      decryptForce,
	})
	if err != nil {
		return err
	}
	if ctx.Quiet {
		return nil
	}
	return decrypt.FormatOutput(ctx.Output(), response, ctx.OutputFormat)
}
