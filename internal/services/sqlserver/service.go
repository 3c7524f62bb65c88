// Package sqlserver probes SQL Server instances, lists their databases and runs
// server-side full backups.
package sqlserver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fgeck/gomssql-backup/internal/models"
	"github.com/google/uuid"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/rs/zerolog"
)

const (
	probeQuery = `SELECT
	CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(100)) AS ProductVersion,
	CAST(SERVERPROPERTY('ProductLevel') AS NVARCHAR(100)) AS ProductLevel,
	CAST(SERVERPROPERTY('Edition') AS NVARCHAR(100)) AS Edition`

	listDatabasesQuery = `SELECT name FROM sys.databases WHERE state = 0 AND name NOT IN ('master','model','msdb') ORDER BY name`
)

// Service defines the interface for SQL Server operations.
type Service interface {
	Probe(ctx context.Context, profile models.ConnectionProfile) (*models.ServerIdentity, error)
	ListDatabases(ctx context.Context, profile models.ConnectionProfile) ([]string, error)
	RunBackups(ctx context.Context, profile models.ConnectionProfile, jobs []models.BackupJob) (*models.BatchReport, error)
}

// Opener creates a database handle for a profile. Connections are opened lazily.
type Opener interface {
	Open(profile models.ConnectionProfile) (*sql.DB, error)
}

// DefaultOpener opens handles through go-mssqldb.
type DefaultOpener struct{}

// Open returns a handle limited to a single connection.
func (o *DefaultOpener) Open(profile models.ConnectionProfile) (*sql.DB, error) {
	connector, err := mssql.NewConnector(ConnectionURL(profile).String())
	if err != nil {
		return nil, fmt.Errorf("invalid connection settings: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return db, nil
}

// Impl implements the SQL Server Service interface.
type Impl struct {
	opener Opener
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a new SQL Server service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		opener: &DefaultOpener{},
		logger: logger,
		now:    time.Now,
	}
}

// NewWithOpener creates a new SQL Server service with a custom opener (for testing).
func NewWithOpener(logger zerolog.Logger, opener Opener) *Impl {
	return &Impl{
		opener: opener,
		logger: logger,
		now:    time.Now,
	}
}

// Probe connects once, reads the server version and closes the connection.
func (s *Impl) Probe(ctx context.Context, profile models.ConnectionProfile) (*models.ServerIdentity, error) {
	s.logger.Info().
		Str("server", ServerLabel(profile)).
		Str("user", profile.User).
		Msg("probing SQL Server")

	db, conn, err := s.connect(ctx, "probe", profile)
	if err != nil {
		return nil, err
	}
	defer s.release(db, conn)

	opCtx, cancel := withTimeout(ctx, profile.OperationTimeout)
	defer cancel()

	var version, level, edition sql.NullString
	if err := conn.QueryRowContext(opCtx, probeQuery).Scan(&version, &level, &edition); err != nil {
		return nil, &ConnectionError{Op: "probe", Err: err}
	}

	identity := &models.ServerIdentity{
		ProductVersion: version.String,
		ProductLevel:   level.String,
		Edition:        edition.String,
		Year:           YearForVersion(version.String),
	}

	s.logger.Info().
		Str("version", identity.ProductVersion).
		Str("level", identity.ProductLevel).
		Str("edition", identity.Edition).
		Str("year", identity.Year).
		Msg("SQL Server reachable")

	return identity, nil
}

// ListDatabases returns the online user databases in name order.
func (s *Impl) ListDatabases(ctx context.Context, profile models.ConnectionProfile) ([]string, error) {
	s.logger.Debug().Str("server", ServerLabel(profile)).Msg("listing databases")

	db, conn, err := s.connect(ctx, "list", profile)
	if err != nil {
		return nil, err
	}
	defer s.release(db, conn)

	opCtx, cancel := withTimeout(ctx, profile.OperationTimeout)
	defer cancel()

	rows, err := conn.QueryContext(opCtx, listDatabasesQuery)
	if err != nil {
		return nil, &ConnectionError{Op: "list", Err: err}
	}
	defer func() { _ = rows.Close() }()

	databases := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &ConnectionError{Op: "list", Err: err}
		}
		databases = append(databases, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &ConnectionError{Op: "list", Err: err}
	}

	s.logger.Info().Int("count", len(databases)).Msg("databases listed")

	return databases, nil
}

// RunBackups backs up each job's database in order over one shared connection.
// Only a failure to open that connection fails the call; every job failure is
// recorded in the report and the batch moves on.
func (s *Impl) RunBackups(ctx context.Context, profile models.ConnectionProfile, jobs []models.BackupJob) (*models.BatchReport, error) {
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}

	batchID := uuid.NewString()
	logger := s.logger.With().
		Str("batch_id", batchID).
		Str("server", ServerLabel(profile)).
		Logger()

	logger.Info().Int("jobs", len(jobs)).Msg("starting backup batch")

	db, conn, err := s.connect(ctx, "backup", profile)
	if err != nil {
		logger.Error().Err(err).Msg("could not open batch connection")
		return nil, err
	}
	defer s.release(db, conn)

	report := models.NewBatchReport(batchID, len(jobs))
	for _, job := range jobs {
		report.Add(s.runJob(ctx, conn, profile, job, logger))
	}

	logger.Info().
		Int("succeeded", report.Succeeded()).
		Int("failed", report.Failed()).
		Msg("backup batch finished")

	return report, nil
}

func (s *Impl) runJob(
	ctx context.Context,
	conn *sql.Conn,
	profile models.ConnectionProfile,
	job models.BackupJob,
	logger zerolog.Logger,
) models.BackupOutcome {
	start := s.now()
	file := JoinDestination(job.DestinationDir, BackupFileName(job.Database, start))
	outcome := models.BackupOutcome{
		Database:  job.Database,
		StartedAt: start,
	}

	if err := ctx.Err(); err != nil {
		outcome.Error = err.Error()
		logger.Warn().Str("database", job.Database).Err(err).Msg("backup skipped")
		return outcome
	}

	logger.Info().
		Str("database", job.Database).
		Str("file", file).
		Msg("backing up database")

	opCtx, cancel := withTimeout(ctx, profile.OperationTimeout)
	defer cancel()

	_, err := conn.ExecContext(opCtx, BackupCommand(job.Database), sql.Named("file", file))
	outcome.Duration = s.now().Sub(start)

	if err != nil {
		outcome.Error = ErrorDetail(err)
		logger.Error().
			Str("database", job.Database).
			Str("error", outcome.Error).
			Dur("duration", outcome.Duration).
			Msg("backup failed")
		return outcome
	}

	outcome.OK = true
	outcome.File = file
	logger.Info().
		Str("database", job.Database).
		Str("file", file).
		Dur("duration", outcome.Duration).
		Msg("backup completed")

	return outcome
}

// connect opens a handle and pins its single connection within the connect timeout.
func (s *Impl) connect(ctx context.Context, op string, profile models.ConnectionProfile) (*sql.DB, *sql.Conn, error) {
	db, err := s.opener.Open(profile)
	if err != nil {
		return nil, nil, &ConnectionError{Op: op, Err: err}
	}

	connectCtx, cancel := withTimeout(ctx, profile.ConnectTimeout)
	defer cancel()

	conn, err := db.Conn(connectCtx)
	if err != nil {
		_ = db.Close()
		s.logger.Debug().Err(err).Str("op", op).Msg("connection failed")
		return nil, nil, &ConnectionError{Op: op, Err: err}
	}

	return db, conn, nil
}

func (s *Impl) release(db *sql.DB, conn *sql.Conn) {
	if err := conn.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("closing connection")
	}
	if err := db.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("closing database handle")
	}
}

// withTimeout applies d to ctx; a zero d leaves ctx without a deadline.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
