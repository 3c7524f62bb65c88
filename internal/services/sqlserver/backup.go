package sqlserver

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the layout of the timestamp embedded in backup file names.
const TimestampLayout = "20060102_150405"

// BackupFileName returns <database>_<YYYYMMDD_HHMMSS>.bak. Two jobs for the same
// database started within the same second get the same name.
func BackupFileName(database string, at time.Time) string {
	return fmt.Sprintf("%s_%s.bak", database, at.Format(TimestampLayout))
}

// JoinDestination joins a file name onto a destination directory. The directory
// is a path on the server, so its own separator style wins: a directory written
// with backslashes only (D:\Backups) is joined with a backslash.
func JoinDestination(dir, name string) string {
	if dir == "" {
		return name
	}

	sep := "/"
	if strings.Contains(dir, `\`) && !strings.Contains(dir, "/") {
		sep = `\`
	}

	if strings.HasSuffix(dir, sep) {
		return dir + name
	}
	return dir + sep + name
}

// BackupCommand returns the T-SQL for a full backup of database to the @file parameter.
// The name is bracket-quoted, not escaped; callers pass trusted names.
func BackupCommand(database string) string {
	return "BACKUP DATABASE [" + database + "] TO DISK = @file WITH INIT"
}
