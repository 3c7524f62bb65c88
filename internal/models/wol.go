package models

import "time"

// WOLConfig holds Wake-on-LAN configuration for the database host.
type WOLConfig struct {
	MACAddress    string
	BroadcastIP   string
	PollAddress   string        // host:port that must accept TCP connections once the host is up
	Timeout       time.Duration // max time to wait for PollAddress
	PollInterval  time.Duration
	StabilizeWait time.Duration // extra wait after PollAddress answers, lets SQL Server finish recovery
}

// WOLResult holds the result of a Wake-on-LAN operation.
type WOLResult struct {
	PacketSent   bool
	HostReady    bool
	WaitDuration time.Duration
	Error        error
}
