package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/gomssql-backup/internal/config"
	"github.com/fgeck/gomssql-backup/internal/models"
	"github.com/fgeck/gomssql-backup/internal/output"
	"github.com/fgeck/gomssql-backup/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configFile string
	runOutput  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the configured backup job",
	Long: `Execute the complete backup job described by the config file:
1. Wake-on-LAN of the database host (if configured)
2. Probe the server
3. Resolve the database selection (no databases listed = every online user database)
4. Back up each database into the configured folder
5. SSH shutdown of the database host (if configured)
6. Send Telegram notification (if configured)`,
	RunE: runJob,
}

func init() {
	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (required)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "table", "report format: table, json or yaml")
}

func runJob(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		log.Error().Msg("config file is required")
		return cmd.Help()
	}

	format, err := output.ParseFormat(runOutput)
	if err != nil {
		return err
	}

	parser := config.NewParser()
	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to load config")
		return err
	}

	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}

	log.Info().
		Str("config", configFile).
		Str("server", cfg.SQLServer.Server).
		Str("folder", cfg.SQLServer.Folder).
		Msg("configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("received signal, stopping after the current database")
			cancel()
		case <-ctx.Done():
		}
	}()

	runnerSvc := runner.New(log.Logger)
	report, runErr := runnerSvc.Run(ctx, *cfg)

	if report != nil {
		resp := models.BackupResponse{OK: true, BatchID: report.BatchID, Results: report.Outcomes}
		if err := output.New(os.Stdout, format).Backup(resp); err != nil {
			log.Error().Err(err).Msg("failed to render report")
		}
	}

	if runErr != nil {
		log.Error().Err(runErr).Msg("backup run failed")
		return runErr
	}

	log.Info().Msg("backup run completed successfully")
	return nil
}
