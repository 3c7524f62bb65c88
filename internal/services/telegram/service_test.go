package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/fgeck/gomssql-backup/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if m.doFunc != nil {
		return m.doFunc(req)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("{}")),
	}, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testConfig() models.TelegramConfig {
	return models.TelegramConfig{
		BotToken: "123456:ABC-DEF",
		ChatID:   "-100123456789",
	}
}

func TestSendNotification_Success(t *testing.T) {
	var capturedRequest *http.Request
	var capturedBody sendMessageRequest

	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			capturedRequest = req
			body, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(body, &capturedBody)
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader("{\"ok\":true}")),
			}, nil
		},
	}

	svc := NewWithClient(testLogger(), httpClient, "https://api.telegram.org")

	msg := models.TelegramMessage{
		Success:   true,
		Server:    "sql01",
		Folder:    `D:\Backups`,
		StartTime: time.Now().Add(-5 * time.Minute),
		Duration:  5 * time.Minute,
		Outcomes:  []models.BackupOutcome{{Database: "Sales", OK: true, File: `D:\Backups\Sales_20240305_070809.bak`}},
	}

	result, err := svc.SendNotification(context.Background(), testConfig(), msg)

	require.NoError(t, err)
	assert.True(t, result.MessageSent)
	assert.Nil(t, result.Error)

	assert.Equal(t, http.MethodPost, capturedRequest.Method)
	assert.Contains(t, capturedRequest.URL.String(), "/bot123456:ABC-DEF/sendMessage")
	assert.Equal(t, "application/json", capturedRequest.Header.Get("Content-Type"))

	assert.Equal(t, "-100123456789", capturedBody.ChatID)
	assert.Equal(t, "HTML", capturedBody.ParseMode)
	assert.Contains(t, capturedBody.Text, "Backup Successful")
}

func TestSendNotification_FailureMessage(t *testing.T) {
	var capturedBody sendMessageRequest

	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(body, &capturedBody)
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader("{}")),
			}, nil
		},
	}

	svc := NewWithClient(testLogger(), httpClient, "https://api.telegram.org")

	msg := models.TelegramMessage{
		Success:      false,
		Server:       "sql01",
		Folder:       "/backups",
		StartTime:    time.Now(),
		Duration:     1 * time.Minute,
		FailedStep:   "backup",
		ErrorMessage: "connection refused",
	}

	result, err := svc.SendNotification(context.Background(), testConfig(), msg)

	require.NoError(t, err)
	assert.True(t, result.MessageSent)

	assert.Contains(t, capturedBody.Text, "Backup Failed")
	assert.Contains(t, capturedBody.Text, "Failed step")
	assert.Contains(t, capturedBody.Text, "connection refused")
}

func TestSendNotification_HTTPError(t *testing.T) {
	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("network error")
		},
	}

	svc := NewWithClient(testLogger(), httpClient, "https://api.telegram.org")

	msg := models.TelegramMessage{
		Success: true,
		Server:  "sql01",
	}

	result, err := svc.SendNotification(context.Background(), testConfig(), msg)

	require.NoError(t, err)
	assert.False(t, result.MessageSent)
	assert.NotNil(t, result.Error)
	assert.Contains(t, result.Error.Error(), "failed to send request")
}

func TestSendNotification_APIError(t *testing.T) {
	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusBadRequest,
				Body:       io.NopCloser(strings.NewReader("{\"ok\":false}")),
			}, nil
		},
	}

	svc := NewWithClient(testLogger(), httpClient, "https://api.telegram.org")

	msg := models.TelegramMessage{
		Success: true,
		Server:  "sql01",
	}

	result, err := svc.SendNotification(context.Background(), testConfig(), msg)

	require.NoError(t, err)
	assert.False(t, result.MessageSent)
	assert.NotNil(t, result.Error)
	assert.Contains(t, result.Error.Error(), "status 400")
}

func TestFormatMessage_Success(t *testing.T) {
	svc := New(testLogger())

	msg := models.TelegramMessage{
		Success:        true,
		Server:         `sql01\SQLEXPRESS`,
		Folder:         `D:\Backups`,
		StartTime:      time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Duration:       3*time.Minute + 45*time.Second,
		ProductVersion: "16.0.1000.6",
		Year:           "2022",
		Outcomes: []models.BackupOutcome{
			{Database: "Sales", OK: true, File: `D:\Backups\Sales_20240115_103000.bak`, Duration: 90 * time.Second},
			{Database: "HR", OK: true, File: `D:\Backups\HR_20240115_103130.bak`, Duration: 2 * time.Second},
		},
	}

	result := svc.formatMessage(msg)

	assert.Contains(t, result, "SQL Server Backup Successful")
	assert.Contains(t, result, `sql01\SQLEXPRESS`)
	assert.Contains(t, result, "16.0.1000.6 (SQL Server 2022)")
	assert.Contains(t, result, "2024-01-15 10:30:00")
	assert.Contains(t, result, "3m45s")
	assert.Contains(t, result, "Databases (2 ok, 0 failed)")
	assert.Contains(t, result, `Sales: <code>D:\Backups\Sales_20240115_103000.bak</code> (1m30s)`)
	assert.NotContains(t, result, "Error Details")
}

func TestFormatMessage_PartialFailure(t *testing.T) {
	svc := New(testLogger())

	msg := models.TelegramMessage{
		Success: false,
		Server:  "sql01",
		Folder:  "/backups",
		Outcomes: []models.BackupOutcome{
			{Database: "Sales", OK: true, File: "/backups/Sales.bak"},
			{Database: "HR", Error: "BACKUP DATABASE permission denied in database 'HR'."},
		},
		FailedStep:   "backup",
		ErrorMessage: "1 of 2 database backups failed",
	}

	result := svc.formatMessage(msg)

	assert.Contains(t, result, "Completed With Errors")
	assert.Contains(t, result, "Databases (1 ok, 1 failed)")
	assert.Contains(t, result, "HR: FAILED <code>BACKUP DATABASE permission denied in database 'HR'.</code>")
	assert.Contains(t, result, "Failed step: backup")
}

func TestFormatMessage_Failure(t *testing.T) {
	svc := New(testLogger())

	msg := models.TelegramMessage{
		Success:      false,
		Server:       "sql01",
		Folder:       "/backups",
		StartTime:    time.Now(),
		Duration:     1 * time.Minute,
		FailedStep:   "wol",
		ErrorMessage: "timeout waiting for host at 10.0.0.5:1433",
	}

	result := svc.formatMessage(msg)

	assert.Contains(t, result, "SQL Server Backup Failed")
	assert.NotContains(t, result, "Version:")
	assert.NotContains(t, result, "Databases (")
	assert.Contains(t, result, "Failed step: wol")
	assert.Contains(t, result, "timeout waiting for host at 10.0.0.5:1433")
}

func TestFormatMessage_EscapesNames(t *testing.T) {
	svc := New(testLogger())

	result := svc.formatMessage(models.TelegramMessage{
		Outcomes: []models.BackupOutcome{{Database: "R&D<1>", Error: "x"}},
	})

	assert.Contains(t, result, "R&amp;D&lt;1&gt;")
}

func TestEscapeHTML(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"<script>", "&lt;script&gt;"},
		{"a & b", "a &amp; b"},
		{"<>&", "&lt;&gt;&amp;"},
		{"normal text", "normal text"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := escapeHTML(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSendNotification_ContextCancelled(t *testing.T) {
	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return nil, context.Canceled
		},
	}

	svc := NewWithClient(testLogger(), httpClient, "https://api.telegram.org")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg := models.TelegramMessage{
		Success: true,
		Server:  "sql01",
	}

	result, err := svc.SendNotification(ctx, testConfig(), msg)

	require.NoError(t, err)
	assert.False(t, result.MessageSent)
	assert.NotNil(t, result.Error)
}
