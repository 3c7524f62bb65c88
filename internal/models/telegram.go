package models

import "time"

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// TelegramMessage holds the data for a batch notification.
type TelegramMessage struct {
	Success   bool
	Server    string
	Folder    string
	StartTime time.Time
	Duration  time.Duration

	// Server identity, empty if the probe never succeeded.
	ProductVersion string
	Year           string

	// Per-database outcomes, nil if the batch never started.
	Outcomes []BackupOutcome

	// Set when the run failed before or outside the batch.
	ErrorMessage string
	FailedStep   string
}

// TelegramResult holds the result of a Telegram notification.
type TelegramResult struct {
	MessageSent bool
	Error       error
}
