package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zx06/pwclip/internal/errors"
	"github.com/zx06/pwclip/internal/output"
)

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// NewSetCommand creates the set command
func NewSetCommand(w *output.Writer) *cobra.Command {
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set or change the stored password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd, fromStdin, w)
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the password from stdin instead of prompting")
	return cmd
}

func runSet(cmd *cobra.Command, fromStdin bool, w *output.Writer) error {
	format, err := parseOutputFormat(GlobalConfig.FormatStr)
	if err != nil {
		return err
	}

	var password string
	if !fromStdin && stdinIsTerminal() {
		password, err = promptForPassword(cmd.ErrOrStderr())
	} else {
		password, err = readLine(cmd.InOrStdin())
	}
	if err != nil {
		return err
	}

	ctrl, xe := newController()
	if xe != nil {
		return xe
	}
	res, xe := ctrl.SetPassword(password)
	if xe != nil {
		return xe
	}
	return w.WriteOK(format, res)
}

// promptForPassword is replaced in tests.
var promptForPassword = promptPassword

func promptPassword(prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(prompt)
	if err != nil {
		return "", errors.Wrap(errors.CodeInternal, "failed to read password", nil, err)
	}
	fmt.Fprint(prompt, "Confirm password: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(prompt)
	if err != nil {
		return "", errors.Wrap(errors.CodeInternal, "failed to read password", nil, err)
	}
	if string(first) != string(second) {
		return "", errors.New(errors.CodeCfgInvalid, "passwords do not match", nil)
	}
	return string(first), nil
}

// readLine 读取第一行，只去掉行尾换行符；密码中的空格保留。
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrap(errors.CodeInternal, "failed to read password from stdin", nil, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
