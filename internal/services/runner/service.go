// Package runner orchestrates a scheduled SQL Server backup run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fgeck/gomssql-backup/internal/models"
	"github.com/fgeck/gomssql-backup/internal/services/sqlserver"
	"github.com/fgeck/gomssql-backup/internal/services/ssh"
	"github.com/fgeck/gomssql-backup/internal/services/telegram"
	"github.com/fgeck/gomssql-backup/internal/services/wol"
	"github.com/rs/zerolog"
)

// ErrNoDatabases is returned when the selection resolves to zero databases.
var ErrNoDatabases = errors.New("no online user databases to back up")

// Service defines the interface for the backup runner.
type Service interface {
	Run(ctx context.Context, cfg models.JobConfig) (*models.BatchReport, error)
}

// Impl implements the runner Service interface.
type Impl struct {
	sqlSvc      sqlserver.Service
	wolSvc      wol.Service
	sshSvc      ssh.Service
	telegramSvc telegram.Service
	logger      zerolog.Logger
}

// New creates a new runner service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		sqlSvc:      sqlserver.New(logger),
		wolSvc:      wol.New(logger),
		sshSvc:      ssh.New(logger),
		telegramSvc: telegram.New(logger),
		logger:      logger,
	}
}

// NewWithServices creates a new runner service with custom services (for testing).
func NewWithServices(
	logger zerolog.Logger,
	sqlSvc sqlserver.Service,
	wolSvc wol.Service,
	sshSvc ssh.Service,
	telegramSvc telegram.Service,
) *Impl {
	return &Impl{
		sqlSvc:      sqlSvc,
		wolSvc:      wolSvc,
		sshSvc:      sshSvc,
		telegramSvc: telegramSvc,
		logger:      logger,
	}
}

// Run wakes the host, backs up the selected databases, shuts the host down
// and reports the outcome. The report is returned whenever the batch ran,
// even if the run as a whole failed.
//
//nolint:gocognit,gocyclo // sequential workflow steps
func (s *Impl) Run(ctx context.Context, cfg models.JobConfig) (*models.BatchReport, error) {
	startTime := time.Now()
	var failedStep string
	var runErr error
	var identity *models.ServerIdentity
	var report *models.BatchReport

	s.logger.Info().
		Str("server", cfg.SQLServer.Server).
		Str("folder", cfg.SQLServer.Folder).
		Msg("starting backup run")

	defer func() {
		if cfg.Telegram != nil {
			s.sendNotification(ctx, cfg, startTime, identity, report, failedStep, runErr)
		}
	}()

	// Step 1: Wake-on-LAN (if configured)
	if cfg.WOL != nil {
		failedStep = "wol"
		if err := s.runWOL(ctx, cfg.WOL); err != nil {
			runErr = err
			return nil, err
		}
	}

	profile := sqlserver.ProfileFor(cfg.SQLServer.Server, models.Credentials{
		User:     cfg.SQLServer.User,
		Password: cfg.SQLServer.Password,
	})

	// Step 2: Probe
	failedStep = "probe"
	var err error
	identity, err = s.sqlSvc.Probe(ctx, profile)
	if err != nil {
		runErr = fmt.Errorf("probe failed: %w", err)
		return nil, runErr
	}

	// Step 3: Resolve the database selection
	failedStep = "list"
	databases, err := s.selectDatabases(ctx, profile, cfg.SQLServer)
	if err != nil {
		runErr = err
		return nil, err
	}

	// Step 4: Backup
	failedStep = "backup"
	jobs := make([]models.BackupJob, 0, len(databases))
	for _, db := range databases {
		jobs = append(jobs, models.BackupJob{Database: db, DestinationDir: cfg.SQLServer.Folder})
	}

	report, err = s.sqlSvc.RunBackups(ctx, profile, jobs)
	if err != nil {
		runErr = fmt.Errorf("backup failed: %w", err)
		return nil, runErr
	}

	s.logger.Info().
		Str("batch_id", report.BatchID).
		Int("succeeded", report.Succeeded()).
		Int("failed", report.Failed()).
		Msg("backup batch completed")

	// A partially failed batch still lets the host power down.
	var batchErr error
	if report.Failed() > 0 {
		batchErr = fmt.Errorf("%d of %d database backups failed", report.Failed(), len(report.Outcomes))
	}

	// Step 5: SSH shutdown (if configured)
	if cfg.SSHShutdown != nil {
		failedStep = "ssh_shutdown"
		if err := s.runSSHShutdown(ctx, cfg.SSHShutdown); err != nil {
			runErr = errors.Join(batchErr, err)
			return report, runErr
		}
	}

	if batchErr != nil {
		failedStep = "backup"
		runErr = batchErr
		return report, batchErr
	}

	failedStep = ""
	s.logger.Info().
		Dur("duration", time.Since(startTime)).
		Msg("backup run completed successfully")

	return report, nil
}

func (s *Impl) selectDatabases(ctx context.Context, profile models.ConnectionProfile, settings models.SQLServerSettings) ([]string, error) {
	if !settings.AllDatabases() {
		return settings.Databases, nil
	}

	databases, err := s.sqlSvc.ListDatabases(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("listing databases failed: %w", err)
	}
	if len(databases) == 0 {
		return nil, ErrNoDatabases
	}

	s.logger.Info().Strs("databases", databases).Msg("backing up all online user databases")

	return databases, nil
}

func (s *Impl) runWOL(ctx context.Context, cfg *models.WOLConfig) error {
	s.logger.Info().
		Str("mac", cfg.MACAddress).
		Str("poll_address", cfg.PollAddress).
		Msg("sending Wake-on-LAN packet")

	result, err := s.wolSvc.Wake(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("WOL failed: %w", err)
	}
	if result.Error != nil {
		return fmt.Errorf("WOL failed: %w", result.Error)
	}

	if !result.HostReady && cfg.PollAddress != "" {
		return fmt.Errorf("database host did not become ready after WOL")
	}

	s.logger.Info().
		Bool("packet_sent", result.PacketSent).
		Bool("host_ready", result.HostReady).
		Dur("wait_duration", result.WaitDuration).
		Msg("WOL completed")

	return nil
}

func (s *Impl) runSSHShutdown(ctx context.Context, cfg *models.SSHShutdownConfig) error {
	result, err := s.sshSvc.Shutdown(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("SSH shutdown failed: %w", err)
	}
	if result.Error != nil {
		// The session can drop while the host powers off.
		if !result.CommandRun {
			return fmt.Errorf("SSH shutdown failed: %w", result.Error)
		}
		s.logger.Warn().
			Err(result.Error).
			Str("output", result.Output).
			Msg("shutdown command returned error (may be expected)")
	}

	s.logger.Info().
		Bool("command_run", result.CommandRun).
		Str("output", result.Output).
		Msg("SSH shutdown command sent")

	return nil
}

func (s *Impl) sendNotification(
	ctx context.Context,
	cfg models.JobConfig,
	startTime time.Time,
	identity *models.ServerIdentity,
	report *models.BatchReport,
	failedStep string,
	runErr error,
) {
	msg := models.TelegramMessage{
		Success:   runErr == nil,
		Server:    cfg.SQLServer.Server,
		Folder:    cfg.SQLServer.Folder,
		StartTime: startTime,
		Duration:  time.Since(startTime),
	}

	if identity != nil {
		msg.ProductVersion = identity.ProductVersion
		msg.Year = identity.Year
	}
	if report != nil {
		msg.Outcomes = report.Outcomes
	}
	if runErr != nil {
		msg.FailedStep = failedStep
		msg.ErrorMessage = runErr.Error()
	}

	// Notify even when the run was cancelled.
	notifyCtx := context.WithoutCancel(ctx)

	result, err := s.telegramSvc.SendNotification(notifyCtx, *cfg.Telegram, msg)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to send Telegram notification")
		return
	}
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Msg("failed to send Telegram notification")
		return
	}

	s.logger.Info().Msg("Telegram notification sent")
}
