package sqlserver

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fgeck/gomssql-backup/internal/models"
)

// Connection policy constants.
const (
	DefaultPort             = 1433
	DefaultCatalog          = "master"
	DefaultConnectTimeout   = 60 * time.Second
	DefaultOperationTimeout = 10 * time.Minute

	appName = "gomssql-backup"
)

// NewProfile builds the connection profile for a target. Encryption is off and
// the server certificate is always trusted.
func NewProfile(target models.ConnectionTarget, creds models.Credentials) models.ConnectionProfile {
	profile := models.ConnectionProfile{
		Host:                   target.Host,
		InstanceName:           target.InstanceName,
		User:                   creds.User,
		Password:               creds.Password,
		DefaultCatalog:         DefaultCatalog,
		Encrypt:                false,
		TrustServerCertificate: true,
		ConnectTimeout:         DefaultConnectTimeout,
		OperationTimeout:       DefaultOperationTimeout,
	}

	// Named instances listen on a dynamic port resolved via the Browser service (UDP 1434).
	if !target.HasInstance() {
		profile.Port = DefaultPort
	}

	return profile
}

// ProfileFor resolves a raw server address and builds its profile.
func ProfileFor(server string, creds models.Credentials) models.ConnectionProfile {
	return NewProfile(ResolveTarget(server), creds)
}

// ConnectionURL renders the profile as a go-mssqldb sqlserver:// URL.
func ConnectionURL(profile models.ConnectionProfile) *url.URL {
	query := url.Values{}
	query.Set("database", profile.DefaultCatalog)
	query.Set("encrypt", strconv.FormatBool(profile.Encrypt))
	query.Set("TrustServerCertificate", strconv.FormatBool(profile.TrustServerCertificate))
	query.Set("connection timeout", strconv.Itoa(int(profile.ConnectTimeout/time.Second)))
	query.Set("app name", appName)

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(profile.User, profile.Password),
		RawQuery: query.Encode(),
	}

	if profile.InstanceName != "" {
		u.Host = bracketIPv6(profile.Host)
		u.Path = profile.InstanceName
	} else {
		u.Host = net.JoinHostPort(profile.Host, strconv.Itoa(profile.Port))
	}

	return u
}

// ServerLabel formats the profile target the way operators type it.
func ServerLabel(profile models.ConnectionProfile) string {
	if profile.InstanceName != "" {
		return profile.Host + `\` + profile.InstanceName
	}
	return profile.Host
}

func bracketIPv6(host string) string {
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		return "[" + host + "]"
	}
	return host
}
