// Package snapshot defines the metadata model shared by the backup
// strategies, the catalog manager, and the restore manager. One Metadata
// record describes one persisted snapshot.
package snapshot

import "time"

// Type identifies how a snapshot relates to its predecessors.
type Type string

const (
	TypeFull         Type = "full"
	TypeIncremental  Type = "incremental"
	TypeDifferential Type = "differential"
)

// Status is the lifecycle state of a snapshot. Terminal states are final.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// VerificationStatus is set by the manager after a post-backup validation.
type VerificationStatus string

const (
	VerificationPending VerificationStatus = "pending"
	VerificationPassed  VerificationStatus = "passed"
	VerificationFailed  VerificationStatus = "failed"
)

// ChecksumBackup is the key in Metadata.Checksums holding the checksum of
// the snapshot's own metadata file. It authenticates the catalog record,
// not the backed-up file contents individually.
const ChecksumBackup = "backup"

// FileInfo describes one backed-up source file. Path is the original
// source path, not the encoded on-disk snapshot path.
type FileInfo struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	ModifiedTime time.Time `json:"modified_time"`
	Checksum     string    `json:"checksum"`
	Compressed   bool      `json:"compressed"`
	Encrypted    bool      `json:"encrypted"`
}

// Metadata is the catalog record for a single snapshot. It is created at
// the start of a backup, mutated only during that single call, and owned
// read-only by the catalog afterward.
type Metadata struct {
	ID           string `json:"id"`
	JobName      string `json:"job_name,omitempty"`
	StrategyName string `json:"strategy"`
	Type         Type   `json:"type"`

	Timestamp time.Time `json:"timestamp"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Status Status `json:"status"`

	Size           int64 `json:"size"`
	CompressedSize int64 `json:"compressed_size,omitempty"`

	Checksums map[string]string `json:"checksums"`
	Files     []FileInfo        `json:"files"`

	ParentBackupID string `json:"parent_backup_id,omitempty"`

	// BackupPath is recorded so restores never have to recompute a path
	// convention that depends on mutable inputs.
	BackupPath string `json:"backup_path,omitempty"`

	VerificationStatus VerificationStatus `json:"verification_status,omitempty"`
	ErrorMessage       string             `json:"error_message,omitempty"`
}

// FileByPath returns the FileInfo recorded for the given original source
// path, by exact path match.
func (m *Metadata) FileByPath(path string) (FileInfo, bool) {
	for _, f := range m.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileInfo{}, false
}

// BackupResult is what a strategy's Backup returns. Execution failures are
// data here, never errors: a failed run carries Success=false and the
// failure message, and the metadata record is still returned.
type BackupResult struct {
	Success  bool
	Metadata *Metadata
	Error    string
	Duration time.Duration
}

// RestoreRequest describes one restore invocation.
type RestoreRequest struct {
	BackupID   string
	TargetPath string
	// Files optionally narrows the restore to a subset of original
	// source paths. Empty means the whole snapshot.
	Files               []string
	Overwrite           bool
	PreservePermissions bool
	DryRun              bool
}

// RestoreResult accumulates the outcome of a restore. Per-file failures
// land in Errors and never abort the run; Success means Errors is empty.
type RestoreResult struct {
	Success       bool
	RestoredFiles int
	TotalFiles    int
	SkippedFiles  int
	Errors        []string
	Duration      time.Duration
}
