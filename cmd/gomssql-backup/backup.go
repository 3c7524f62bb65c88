package main

import (
	"context"
	"errors"

	"github.com/fgeck/gomssql-backup/internal/models"
	"github.com/fgeck/gomssql-backup/internal/output"
	"github.com/fgeck/gomssql-backup/internal/services/operator"
	"github.com/fgeck/gomssql-backup/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	backupFlags     connectionFlags
	backupDatabases []string
	backupAll       bool
	backupFolder    string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up databases into a folder on the server",
	Long: `Back up the given databases, in the given order, into a folder on the
server's filesystem. Each database is written to <folder>/<db>_<yyyyMMdd_HHmmss>.bak.
A failing database does not stop the remaining ones. Use --all instead of
--databases to back up every online user database.`,
	Example: `  gomssql-backup backup -S 10.0.0.5 -U sa -d Sales,HR -f 'D:\Backups'
  gomssql-backup backup -S 'sql01\SQLEXPRESS' -U sa --all -f /var/opt/mssql/backups -o json`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runBackupDatabases,
}

func init() {
	backupFlags.register(backupCmd)
	backupCmd.Flags().StringSliceVarP(&backupDatabases, "databases", "d", nil, "databases to back up, in order")
	backupCmd.Flags().BoolVar(&backupAll, "all", false, "back up every online user database")
	backupCmd.Flags().StringVarP(&backupFolder, "folder", "f", "", "destination folder as seen by the server (required)")
	backupCmd.MarkFlagsOneRequired("databases", "all")
	backupCmd.MarkFlagsMutuallyExclusive("databases", "all")
	_ = backupCmd.MarkFlagRequired("folder")
}

func runBackupDatabases(cmd *cobra.Command, args []string) error {
	r, err := backupFlags.renderer()
	if err != nil {
		return err
	}

	conn, err := backupFlags.request(cmd)
	if err != nil {
		return err
	}

	op := operator.New(log.Logger)
	ctx := cmd.Context()

	databases, err := selectDatabases(ctx, op, conn, backupAll, backupDatabases)
	if err != nil {
		return renderBackupFailure(r, err.Error())
	}

	resp := op.BackupDatabases(ctx, models.BackupRequest{
		ConnectionRequest: conn,
		Databases:         databases,
		Folder:            backupFolder,
	})
	if err := r.Backup(resp); err != nil {
		return err
	}
	if !resp.OK {
		return errOperationFailed
	}
	for _, outcome := range resp.Results {
		if !outcome.OK {
			return errOperationFailed
		}
	}

	return nil
}

// selectDatabases returns named as given, or the server's online user
// databases when all is set.
func selectDatabases(ctx context.Context, op operator.Service, conn models.ConnectionRequest, all bool, named []string) ([]string, error) {
	if !all {
		return named, nil
	}

	listed := op.ListDatabases(ctx, conn)
	if !listed.OK {
		return nil, errors.New(listed.Error)
	}
	if len(listed.Databases) == 0 {
		return nil, runner.ErrNoDatabases
	}

	return listed.Databases, nil
}

func renderBackupFailure(r *output.Renderer, msg string) error {
	if err := r.Backup(models.BackupResponse{Error: msg}); err != nil {
		return err
	}
	return errOperationFailed
}
