package sqlserver

import (
	"strings"

	"github.com/fgeck/gomssql-backup/internal/models"
)

// ResolveTarget parses HOST or HOST\INSTANCE. Only the first backslash separates
// host from instance; anything after it is the instance name verbatim.
// No validation happens here, a bad address surfaces as a connection error.
func ResolveTarget(raw string) models.ConnectionTarget {
	host, instance, found := strings.Cut(raw, `\`)
	if !found {
		return models.ConnectionTarget{Host: raw}
	}
	return models.ConnectionTarget{Host: host, InstanceName: instance}
}
