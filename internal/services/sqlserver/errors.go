package sqlserver

import (
	"errors"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
)

// ErrNoJobs is returned by RunBackups when it is given nothing to do.
var ErrNoJobs = errors.New("no databases selected for backup")

// ConnectionError reports a failure to connect to or query a server.
// Its message is the driver's message, unchanged.
type ConnectionError struct {
	Op  string // "probe", "list", or "backup"
	Err error
}

func (e *ConnectionError) Error() string {
	return e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ErrorDetail flattens a command error into one line: the primary message first,
// then every other message the server raised for the same command, joined by " | ".
func ErrorDetail(err error) string {
	if err == nil {
		return ""
	}

	var sqlErr mssql.Error
	if !errors.As(err, &sqlErr) {
		return err.Error()
	}

	parts := make([]string, 0, len(sqlErr.All)+1)
	seen := make(map[string]bool, len(sqlErr.All)+1)
	add := func(msg string) {
		msg = strings.TrimSpace(msg)
		if msg == "" || seen[msg] {
			return
		}
		seen[msg] = true
		parts = append(parts, msg)
	}

	add(sqlErr.Message)
	for _, e := range sqlErr.All {
		add(e.Message)
	}

	if len(parts) == 0 {
		return err.Error()
	}
	return strings.Join(parts, " | ")
}
