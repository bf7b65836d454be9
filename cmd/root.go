package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-officecrypto/pkg/app"
	"github.com/deploymenttheory/go-officecrypto/pkg/services"
)

var (
	// Global output flags only
	verbose      bool
	quiet        bool
	outputFormat string
	configFile   string

	// cfg is loaded before every command runs
	cfg = &Config{}

	// fs is the filesystem documents and config files are read from
	fs afero.Fs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:   "officecrypt",
	Short: "Encrypt, decrypt and inspect password protected Office documents",
	Long: `officecrypt reads and writes password protected Office Open XML documents
(.docx, .xlsx, .pptx) using ECMA-376 Standard or Agile encryption.

Commands:
  encrypt     Password protect a document
  decrypt     Remove the password from a document
  info        Show how a document is encrypted
  verify      Check a password without decrypting`,
	Version:           "0.1.0-dev",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", app.FormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default officecrypt.yaml in ., ./config, $HOME/.officecrypt)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

func loadConfig(_ *cobra.Command, _ []string) error {
	loaded, err := LoadConfig(fs, configFile)
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// newContext builds the application context for a command from the global
// flags and the loaded config
func newContext(cmd *cobra.Command) (*app.Context, error) {
	ctx := app.NewContext()
	if cmd.Context() != nil {
		ctx.Context = cmd.Context()
	}
	ctx.OutputFormat = outputFormat
	if !cmd.Flags().Changed("output") && cfg.Output != "" {
		ctx.OutputFormat = cfg.Output
	}
	if err := app.ValidateOutputFormat(ctx.OutputFormat); err != nil {
		return nil, err
	}
	ctx.Verbose = verbose
	ctx.Quiet = quiet
	ctx.Out = cmd.OutOrStdout()
	ctx.Logger = app.NewLogger(cmd.ErrOrStderr(), verbose, quiet)
	ctx.SetProgress(func(message string, percent int) {
		ctx.Logger.Debug(message, "percent", percent)
	})
	return ctx, nil
}

// newService creates the document service commands run against
func newService(ctx *app.Context, overwrite bool) (services.DocumentService, error) {
	factory := services.NewServiceFactory(fs, ctx.Logger, services.WithOverwrite(overwrite))
	return factory.DocumentService()
}

// exitCode distinguishes a rejected password and a failed integrity check
// from every other failure
func exitCode(err error) int {
	switch app.ErrorCode(err) {
	case app.ErrCodeInvalidPassword:
		return 2
	case app.ErrCodeIntegrity:
		return 3
	default:
		return 1
	}
}
