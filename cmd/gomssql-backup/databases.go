package main

import (
	"github.com/fgeck/gomssql-backup/internal/services/operator"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var databasesFlags connectionFlags

var databasesCmd = &cobra.Command{
	Use:          "databases",
	Short:        "List online user databases",
	Long:         `List the online databases of the server, excluding master, model and msdb, sorted by name.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runDatabases,
}

func init() {
	databasesFlags.register(databasesCmd)
}

func runDatabases(cmd *cobra.Command, args []string) error {
	r, err := databasesFlags.renderer()
	if err != nil {
		return err
	}

	req, err := databasesFlags.request(cmd)
	if err != nil {
		return err
	}

	resp := operator.New(log.Logger).ListDatabases(cmd.Context(), req)
	if err := r.Databases(resp); err != nil {
		return err
	}
	if !resp.OK {
		return errOperationFailed
	}

	return nil
}
