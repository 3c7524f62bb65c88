// Package models contains the data structures used throughout gomssql-backup.
package models

// JobConfig holds the complete configuration for a scheduled backup run.
type JobConfig struct {
	SQLServer   SQLServerSettings
	WOL         *WOLConfig         // nil if not configured
	SSHShutdown *SSHShutdownConfig // nil if not configured
	Telegram    *TelegramConfig    // nil if not configured
}

// SQLServerSettings holds the server, credentials and backup selection.
type SQLServerSettings struct {
	Server    string // HOST or HOST\INSTANCE
	User      string
	Password  string
	Folder    string   // destination directory as seen by the server
	Databases []string // empty means every online user database
}

// AllDatabases reports whether the selection covers every online user database.
// Only an empty list does; every listed name is a database name.
func (s SQLServerSettings) AllDatabases() bool {
	return len(s.Databases) == 0
}
