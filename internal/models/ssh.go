package models

// SSHShutdownConfig holds configuration for shutting down the database host after a batch.
type SSHShutdownConfig struct {
	Host          string
	Port          int
	Username      string
	PrivateKey    []byte // loaded from KeyPath when nil
	KeyPath       string
	ShutdownDelay int    // minutes
	OS            string // "linux" (default) or "windows"
}

// SSHResult holds the result of an SSH operation.
type SSHResult struct {
	CommandRun bool
	Output     string
	Error      error
}
