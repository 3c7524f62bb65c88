package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fgeck/gomssql-backup/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOperator struct {
	testConnectionFunc func(ctx context.Context, req models.ConnectionRequest) models.TestConnectionResponse
	listFunc           func(ctx context.Context, req models.ConnectionRequest) models.ListDatabasesResponse
	backupFunc         func(ctx context.Context, req models.BackupRequest) models.BackupResponse
}

func (m *mockOperator) TestConnection(ctx context.Context, req models.ConnectionRequest) models.TestConnectionResponse {
	if m.testConnectionFunc != nil {
		return m.testConnectionFunc(ctx, req)
	}
	return models.TestConnectionResponse{OK: true, Info: &models.ServerIdentity{ProductVersion: "15.0.2000.5", Year: "2019"}}
}

func (m *mockOperator) ListDatabases(ctx context.Context, req models.ConnectionRequest) models.ListDatabasesResponse {
	if m.listFunc != nil {
		return m.listFunc(ctx, req)
	}
	return models.ListDatabasesResponse{OK: true, Databases: []string{"HR", "Sales"}}
}

func (m *mockOperator) BackupDatabases(ctx context.Context, req models.BackupRequest) models.BackupResponse {
	if m.backupFunc != nil {
		return m.backupFunc(ctx, req)
	}
	return models.BackupResponse{OK: true}
}

func newTestServer(op *mockOperator) *Server {
	return New(zerolog.New(io.Discard), op)
}

func post(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(&mockOperator{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestTestConnection(t *testing.T) {
	var captured models.ConnectionRequest
	op := &mockOperator{
		testConnectionFunc: func(ctx context.Context, req models.ConnectionRequest) models.TestConnectionResponse {
			captured = req
			return models.TestConnectionResponse{OK: true, Info: &models.ServerIdentity{
				ProductVersion: "15.0.2000.5",
				ProductLevel:   "RTM",
				Edition:        "Express Edition",
				Year:           "2019",
			}}
		},
	}

	w := post(t, newTestServer(op), "/api/v1/sql/test-connection", `{"server":"10.0.0.5","user":"sa","password":"x"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, models.ConnectionRequest{Server: "10.0.0.5", User: "sa", Password: "x"}, captured)
	assert.JSONEq(t,
		`{"ok":true,"info":{"productVersion":"15.0.2000.5","productLevel":"RTM","edition":"Express Edition","year":"2019"}}`,
		w.Body.String())
}

func TestTestConnection_FailureIsStill200(t *testing.T) {
	op := &mockOperator{
		testConnectionFunc: func(ctx context.Context, req models.ConnectionRequest) models.TestConnectionResponse {
			return models.TestConnectionResponse{Error: "Login failed for user 'sa'."}
		},
	}

	w := post(t, newTestServer(op), "/api/v1/sql/test-connection", `{"server":"h","user":"sa"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Login failed for user 'sa'."}`, w.Body.String())
}

func TestListDatabases(t *testing.T) {
	w := post(t, newTestServer(&mockOperator{}), "/api/v1/sql/databases", `{"server":"h","user":"sa","password":"x"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"databases":["HR","Sales"]}`, w.Body.String())
}

func TestBackupDatabases(t *testing.T) {
	var captured models.BackupRequest
	op := &mockOperator{
		backupFunc: func(ctx context.Context, req models.BackupRequest) models.BackupResponse {
			captured = req
			return models.BackupResponse{
				OK:      true,
				BatchID: "b-1",
				Results: []models.BackupOutcome{
					{Database: "Sales", OK: true, File: `D:\Backups\Sales_20240305_070809.bak`},
					{Database: "HR", Error: "permission denied"},
				},
			}
		},
	}

	body := `{"server":"10.0.0.5","user":"sa","password":"x","databases":["Sales","HR"],"folder":"D:\\Backups"}`
	w := post(t, newTestServer(op), "/api/v1/sql/backups", body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Sales", "HR"}, captured.Databases)
	assert.Equal(t, `D:\Backups`, captured.Folder)
	assert.Equal(t, "10.0.0.5", captured.Server)

	assert.JSONEq(t, `{
		"ok": true,
		"batchId": "b-1",
		"results": [
			{"db": "Sales", "ok": true, "file": "D:\\Backups\\Sales_20240305_070809.bak"},
			{"db": "HR", "ok": false, "error": "permission denied"}
		]
	}`, w.Body.String())
}

func TestBackupDatabases_IgnoresClientCancellation(t *testing.T) {
	var batchCtxErr error
	op := &mockOperator{
		backupFunc: func(ctx context.Context, req models.BackupRequest) models.BackupResponse {
			batchCtxErr = ctx.Err()
			return models.BackupResponse{OK: true}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body := `{"server":"h","user":"sa","password":"x","databases":["A","B"],"folder":"/b"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sql/backups", strings.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newTestServer(op).Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, batchCtxErr)
}

func TestBackupDatabases_ValidationError(t *testing.T) {
	called := false
	op := &mockOperator{
		backupFunc: func(ctx context.Context, req models.BackupRequest) models.BackupResponse {
			called = true
			return models.BackupResponse{}
		},
	}

	w := post(t, newTestServer(op), "/api/v1/sql/backups", `{"server":"h","user":"sa","databases":[],"folder":"/b"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.OK)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "databases", resp.Details[0].Field)
}

func TestInvalidJSON(t *testing.T) {
	w := post(t, newTestServer(&mockOperator{}), "/api/v1/sql/databases", `{not json`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid JSON body")
}

func TestUnknownField(t *testing.T) {
	w := post(t, newTestServer(&mockOperator{}), "/api/v1/sql/databases", `{"server":"h","user":"sa","port":1433}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sql/backups", nil)
	w := httptest.NewRecorder()
	newTestServer(&mockOperator{}).Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
