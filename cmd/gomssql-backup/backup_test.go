package main

import (
	"context"
	"testing"

	"github.com/fgeck/gomssql-backup/internal/models"
	"github.com/fgeck/gomssql-backup/internal/services/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOperator struct {
	listFunc   func(ctx context.Context, req models.ConnectionRequest) models.ListDatabasesResponse
	listCalled bool
}

func (m *mockOperator) TestConnection(ctx context.Context, req models.ConnectionRequest) models.TestConnectionResponse {
	return models.TestConnectionResponse{OK: true}
}

func (m *mockOperator) ListDatabases(ctx context.Context, req models.ConnectionRequest) models.ListDatabasesResponse {
	m.listCalled = true
	if m.listFunc != nil {
		return m.listFunc(ctx, req)
	}
	return models.ListDatabasesResponse{OK: true, Databases: []string{"HR", "Sales"}}
}

func (m *mockOperator) BackupDatabases(ctx context.Context, req models.BackupRequest) models.BackupResponse {
	return models.BackupResponse{OK: true}
}

var testConn = models.ConnectionRequest{Server: "10.0.0.5", User: "sa", Password: "x"}

func TestSelectDatabases_NamedDatabasesAsGiven(t *testing.T) {
	op := &mockOperator{}

	databases, err := selectDatabases(context.Background(), op, testConn, false, []string{"Sales", "all", "HR"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Sales", "all", "HR"}, databases)
	assert.False(t, op.listCalled)
}

func TestSelectDatabases_AllListsServer(t *testing.T) {
	op := &mockOperator{}

	databases, err := selectDatabases(context.Background(), op, testConn, true, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"HR", "Sales"}, databases)
	assert.True(t, op.listCalled)
}

func TestSelectDatabases_ListFailure(t *testing.T) {
	op := &mockOperator{
		listFunc: func(ctx context.Context, req models.ConnectionRequest) models.ListDatabasesResponse {
			return models.ListDatabasesResponse{Error: "Login failed for user 'sa'."}
		},
	}

	_, err := selectDatabases(context.Background(), op, testConn, true, nil)

	require.Error(t, err)
	assert.Equal(t, "Login failed for user 'sa'.", err.Error())
}

func TestSelectDatabases_NoneOnline(t *testing.T) {
	op := &mockOperator{
		listFunc: func(ctx context.Context, req models.ConnectionRequest) models.ListDatabasesResponse {
			return models.ListDatabasesResponse{OK: true}
		},
	}

	_, err := selectDatabases(context.Background(), op, testConn, true, nil)

	assert.ErrorIs(t, err, runner.ErrNoDatabases)
}
