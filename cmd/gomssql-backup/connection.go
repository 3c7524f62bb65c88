package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fgeck/gomssql-backup/internal/models"
	"github.com/fgeck/gomssql-backup/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// passwordEnv is read when --password is not given.
const passwordEnv = "GOMSSQL_PASSWORD"

// errOperationFailed is returned after a failure has already been rendered.
var errOperationFailed = errors.New("operation failed")

// connectionFlags are shared by the commands that talk to a server directly.
type connectionFlags struct {
	server   string
	user     string
	password string
	output   string
}

func (f *connectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.server, "server", "S", "", `server as HOST or HOST\INSTANCE (required)`)
	cmd.Flags().StringVarP(&f.user, "user", "U", "", "SQL Server login (required)")
	cmd.Flags().StringVarP(&f.password, "password", "P", "", "login password (default $"+passwordEnv+", else prompt)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "table", "output format: table, json or yaml")
	_ = cmd.MarkFlagRequired("server")
	_ = cmd.MarkFlagRequired("user")
}

func (f *connectionFlags) request(cmd *cobra.Command) (models.ConnectionRequest, error) {
	password, err := f.resolvePassword(cmd)
	if err != nil {
		return models.ConnectionRequest{}, err
	}

	return models.ConnectionRequest{
		Server:   strings.TrimSpace(f.server),
		User:     f.user,
		Password: password,
	}, nil
}

// resolvePassword prefers the flag, then the environment, then an
// interactive prompt. Without a terminal the password stays empty.
func (f *connectionFlags) resolvePassword(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed("password") {
		return f.password, nil
	}

	v := viper.New()
	if err := v.BindEnv("password", passwordEnv); err != nil {
		return "", err
	}
	if p := v.GetString("password"); p != "" {
		return p, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}

	fmt.Fprintf(os.Stderr, "Password for %s@%s: ", f.user, f.server)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	return string(raw), nil
}

func (f *connectionFlags) renderer() (*output.Renderer, error) {
	format, err := output.ParseFormat(f.output)
	if err != nil {
		return nil, err
	}
	return output.New(os.Stdout, format), nil
}
