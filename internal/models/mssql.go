package models

import "time"

// ConnectionTarget is a parsed server address.
type ConnectionTarget struct {
	Host         string
	InstanceName string // empty if the default instance is targeted
}

// HasInstance reports whether the target names a SQL Server named instance.
func (t ConnectionTarget) HasInstance() bool {
	return t.InstanceName != ""
}

// Credentials holds SQL Server login credentials.
type Credentials struct {
	User     string
	Password string
}

// ConnectionProfile holds everything needed to open a connection.
// Port is 0 whenever InstanceName is set; the port of a named instance
// is discovered through the SQL Server Browser service.
type ConnectionProfile struct {
	Host                   string
	InstanceName           string
	User                   string
	Password               string
	DefaultCatalog         string
	Encrypt                bool
	TrustServerCertificate bool
	Port                   int
	ConnectTimeout         time.Duration
	OperationTimeout       time.Duration
}

// ServerIdentity holds the version metadata reported by a server.
type ServerIdentity struct {
	ProductVersion string `json:"productVersion" yaml:"productVersion"`
	ProductLevel   string `json:"productLevel" yaml:"productLevel"`
	Edition        string `json:"edition" yaml:"edition"`
	Year           string `json:"year,omitempty" yaml:"year,omitempty"` // empty for unknown major versions
}

// BackupJob is a single database to back up into a destination directory.
type BackupJob struct {
	Database       string
	DestinationDir string
}

// BackupOutcome holds the result of a single backup job.
// File is set when OK is true, Error otherwise.
type BackupOutcome struct {
	Database  string        `json:"db" yaml:"db"`
	OK        bool          `json:"ok" yaml:"ok"`
	File      string        `json:"file,omitempty" yaml:"file,omitempty"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt time.Time     `json:"-" yaml:"-"`
	Duration  time.Duration `json:"-" yaml:"-"`
}

// BatchReport holds the outcomes of a backup batch in job order.
type BatchReport struct {
	BatchID  string          `json:"batchId" yaml:"batchId"`
	Outcomes []BackupOutcome `json:"outcomes" yaml:"outcomes"`
}

// NewBatchReport creates an empty report sized for n jobs.
func NewBatchReport(batchID string, n int) *BatchReport {
	return &BatchReport{
		BatchID:  batchID,
		Outcomes: make([]BackupOutcome, 0, n),
	}
}

// Add appends an outcome. Outcomes are never reordered or filtered.
func (r *BatchReport) Add(outcome BackupOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)
}

// Succeeded returns the number of successful outcomes.
func (r *BatchReport) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK {
			n++
		}
	}
	return n
}

// Failed returns the number of failed outcomes.
func (r *BatchReport) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}
