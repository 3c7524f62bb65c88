package models

// ConnectionRequest identifies a server and the login to use.
type ConnectionRequest struct {
	Server   string `json:"server" validate:"required"`
	User     string `json:"user" validate:"required"`
	Password string `json:"password"`
}

// Credentials returns the login part of the request.
func (r ConnectionRequest) Credentials() Credentials {
	return Credentials{User: r.User, Password: r.Password}
}

// BackupRequest selects databases to back up into Folder.
type BackupRequest struct {
	ConnectionRequest
	Databases []string `json:"databases" validate:"required,min=1,dive,required"`
	Folder    string   `json:"folder" validate:"required"`
}

// Jobs returns one backup job per requested database, in request order.
func (r BackupRequest) Jobs() []BackupJob {
	jobs := make([]BackupJob, 0, len(r.Databases))
	for _, db := range r.Databases {
		jobs = append(jobs, BackupJob{Database: db, DestinationDir: r.Folder})
	}
	return jobs
}

// TestConnectionResponse is the result of a connection test.
type TestConnectionResponse struct {
	OK    bool            `json:"ok" yaml:"ok"`
	Info  *ServerIdentity `json:"info,omitempty" yaml:"info,omitempty"`
	Error string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// ListDatabasesResponse is the result of a database listing.
type ListDatabasesResponse struct {
	OK        bool     `json:"ok" yaml:"ok"`
	Databases []string `json:"databases,omitempty" yaml:"databases,omitempty"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// BackupResponse is the result of a backup batch. OK only reports whether the
// batch connection could be opened; per-database failures live in Results.
type BackupResponse struct {
	OK      bool            `json:"ok" yaml:"ok"`
	BatchID string          `json:"batchId,omitempty" yaml:"batchId,omitempty"`
	Results []BackupOutcome `json:"results,omitempty" yaml:"results,omitempty"`
	Error   string          `json:"error,omitempty" yaml:"error,omitempty"`
}
