package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/deploymenttheory/go-officecrypto/pkg/app"
)

// resolvePassword returns the --password flag, then the configured password,
// then prompts. A terminal is prompted without echo; any other input supplies
// the password on its first line.
func resolvePassword(cmd *cobra.Command, flagValue string, confirm bool) (string, error) {
	if cmd.Flags().Changed("password") {
		return flagValue, nil
	}
	if cfg.Password != "" {
		return cfg.Password, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return promptPassword(cmd.ErrOrStderr(), int(f.Fd()), confirm)
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", app.NewError(app.ErrCodeIO, "failed to read password", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func promptPassword(w io.Writer, fd int, confirm bool) (string, error) {
	fmt.Fprint(w, "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", app.NewError(app.ErrCodeIO, "failed to read password", err)
	}
	if !confirm {
		return string(password), nil
	}

	fmt.Fprint(w, "Confirm password: ")
	again, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", app.NewError(app.ErrCodeIO, "failed to read password", err)
	}
	if string(password) != string(again) {
		return "", app.NewError(app.ErrCodeInvalidInput, "passwords do not match", nil)
	}
	return string(password), nil
}
