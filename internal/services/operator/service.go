// Package operator exposes the operations a front end may call: connection
// test, database listing and backup. Each call takes a request value and
// returns a response value; failures are reported inside the response.
package operator

import (
	"context"

	"github.com/fgeck/gomssql-backup/internal/models"
	"github.com/fgeck/gomssql-backup/internal/services/sqlserver"
	"github.com/rs/zerolog"
)

// Service defines the caller-facing operations.
type Service interface {
	TestConnection(ctx context.Context, req models.ConnectionRequest) models.TestConnectionResponse
	ListDatabases(ctx context.Context, req models.ConnectionRequest) models.ListDatabasesResponse
	BackupDatabases(ctx context.Context, req models.BackupRequest) models.BackupResponse
}

// Impl implements the operator Service interface.
type Impl struct {
	sqlSvc sqlserver.Service
	logger zerolog.Logger
}

// New creates a new operator service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		sqlSvc: sqlserver.New(logger),
		logger: logger,
	}
}

// NewWithService creates a new operator service with a custom SQL Server service (for testing).
func NewWithService(logger zerolog.Logger, sqlSvc sqlserver.Service) *Impl {
	return &Impl{
		sqlSvc: sqlSvc,
		logger: logger,
	}
}

// TestConnection probes the server and reports its identity.
func (s *Impl) TestConnection(ctx context.Context, req models.ConnectionRequest) models.TestConnectionResponse {
	if err := ValidateRequest(req); err != nil {
		return models.TestConnectionResponse{Error: err.Error()}
	}

	identity, err := s.sqlSvc.Probe(ctx, sqlserver.ProfileFor(req.Server, req.Credentials()))
	if err != nil {
		s.logger.Warn().Str("server", req.Server).Err(err).Msg("connection test failed")
		return models.TestConnectionResponse{Error: err.Error()}
	}

	return models.TestConnectionResponse{OK: true, Info: identity}
}

// ListDatabases lists the online user databases of the server.
func (s *Impl) ListDatabases(ctx context.Context, req models.ConnectionRequest) models.ListDatabasesResponse {
	if err := ValidateRequest(req); err != nil {
		return models.ListDatabasesResponse{Error: err.Error()}
	}

	databases, err := s.sqlSvc.ListDatabases(ctx, sqlserver.ProfileFor(req.Server, req.Credentials()))
	if err != nil {
		s.logger.Warn().Str("server", req.Server).Err(err).Msg("listing databases failed")
		return models.ListDatabasesResponse{Error: err.Error()}
	}

	return models.ListDatabasesResponse{OK: true, Databases: databases}
}

// BackupDatabases backs up the requested databases in request order.
func (s *Impl) BackupDatabases(ctx context.Context, req models.BackupRequest) models.BackupResponse {
	if err := ValidateRequest(req); err != nil {
		return models.BackupResponse{Error: err.Error()}
	}

	profile := sqlserver.ProfileFor(req.Server, req.Credentials())
	report, err := s.sqlSvc.RunBackups(ctx, profile, req.Jobs())
	if err != nil {
		s.logger.Error().Str("server", req.Server).Err(err).Msg("backup batch failed")
		return models.BackupResponse{Error: err.Error()}
	}

	return models.BackupResponse{
		OK:      true,
		BatchID: report.BatchID,
		Results: report.Outcomes,
	}
}
