// Package config provides configuration file parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fgeck/gomssql-backup/internal/models"
	"github.com/spf13/viper"
)

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	return &Parser{v: v}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.JobConfig, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.JobConfig, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

//nolint:gocognit,gocyclo // parsing config requires checking many fields
func (p *Parser) parse() (*models.JobConfig, error) {
	cfg := &models.JobConfig{}

	// Parse SQL Server settings (required).
	cfg.SQLServer = models.SQLServerSettings{
		Server:    p.expandEnv(p.v.GetString("sqlserver.server")),
		User:      p.expandEnv(p.v.GetString("sqlserver.user")),
		Password:  p.expandEnv(p.v.GetString("sqlserver.password")),
		Folder:    p.expandEnv(p.v.GetString("sqlserver.folder")),
		Databases: trimAll(p.v.GetStringSlice("sqlserver.databases")),
	}

	if cfg.SQLServer.Server == "" {
		return nil, fmt.Errorf("sqlserver.server is required")
	}
	if cfg.SQLServer.User == "" {
		return nil, fmt.Errorf("sqlserver.user is required")
	}
	if cfg.SQLServer.Password == "" {
		return nil, fmt.Errorf("sqlserver.password is required")
	}
	if cfg.SQLServer.Folder == "" {
		return nil, fmt.Errorf("sqlserver.folder is required")
	}
	for _, db := range cfg.SQLServer.Databases {
		if db == "" {
			return nil, fmt.Errorf("sqlserver.databases must not contain empty names")
		}
	}

	// Parse optional WOL config.
	if p.v.IsSet("wol") { //nolint:nestif // config parsing with defaults
		cfg.WOL = &models.WOLConfig{
			MACAddress:    p.v.GetString("wol.mac_address"),
			BroadcastIP:   p.v.GetString("wol.broadcast_ip"),
			PollAddress:   p.v.GetString("wol.poll_address"),
			Timeout:       p.v.GetDuration("wol.timeout"),
			PollInterval:  p.v.GetDuration("wol.poll_interval"),
			StabilizeWait: p.v.GetDuration("wol.stabilize_wait"),
		}

		if cfg.WOL.MACAddress == "" {
			return nil, fmt.Errorf("wol.mac_address is required when wol is configured")
		}

		// Set defaults.
		if cfg.WOL.BroadcastIP == "" {
			cfg.WOL.BroadcastIP = "255.255.255.255"
		}
		if cfg.WOL.Timeout == 0 {
			cfg.WOL.Timeout = 5 * time.Minute
		}
		if cfg.WOL.PollInterval == 0 {
			cfg.WOL.PollInterval = 10 * time.Second
		}
		if cfg.WOL.StabilizeWait == 0 {
			cfg.WOL.StabilizeWait = 10 * time.Second
		}
	}

	// Parse optional SSH shutdown config.
	if p.v.IsSet("ssh_shutdown") { //nolint:nestif // config parsing with defaults
		cfg.SSHShutdown = &models.SSHShutdownConfig{
			Host:          p.v.GetString("ssh_shutdown.host"),
			Port:          p.v.GetInt("ssh_shutdown.port"),
			Username:      p.v.GetString("ssh_shutdown.username"),
			KeyPath:       p.expandEnv(p.v.GetString("ssh_shutdown.key_path")),
			ShutdownDelay: p.v.GetInt("ssh_shutdown.shutdown_delay"),
			OS:            p.v.GetString("ssh_shutdown.os"),
		}

		if cfg.SSHShutdown.Host == "" {
			return nil, fmt.Errorf("ssh_shutdown.host is required when ssh_shutdown is configured")
		}
		if cfg.SSHShutdown.Port == 0 {
			cfg.SSHShutdown.Port = 22
		}
		if cfg.SSHShutdown.Username == "" {
			cfg.SSHShutdown.Username = "root"
		}
		if cfg.SSHShutdown.KeyPath == "" {
			return nil, fmt.Errorf("ssh_shutdown.key_path is required when ssh_shutdown is configured")
		}
		if cfg.SSHShutdown.ShutdownDelay == 0 {
			cfg.SSHShutdown.ShutdownDelay = 1
		}
		if cfg.SSHShutdown.OS == "" {
			cfg.SSHShutdown.OS = "linux"
		}
		validOS := map[string]bool{"linux": true, "windows": true}
		if !validOS[cfg.SSHShutdown.OS] {
			return nil, fmt.Errorf("ssh_shutdown.os must be one of: linux, windows")
		}
	}

	// Parse optional Telegram config.
	if p.v.IsSet("telegram") {
		cfg.Telegram = &models.TelegramConfig{
			BotToken: p.expandEnv(p.v.GetString("telegram.bot_token")),
			ChatID:   p.expandEnv(p.v.GetString("telegram.chat_id")),
		}

		if cfg.Telegram.BotToken == "" {
			return nil, fmt.Errorf("telegram.bot_token is required when telegram is configured")
		}
		if cfg.Telegram.ChatID == "" {
			return nil, fmt.Errorf("telegram.chat_id is required when telegram is configured")
		}
	}

	return cfg, nil
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

// Validate performs validation on the loaded configuration.
func Validate(cfg *models.JobConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.SQLServer.Server == "" {
		return fmt.Errorf("sqlserver.server is required")
	}

	if cfg.SQLServer.User == "" {
		return fmt.Errorf("sqlserver.user is required")
	}

	if cfg.SQLServer.Password == "" {
		return fmt.Errorf("sqlserver.password is required")
	}

	if cfg.SQLServer.Folder == "" {
		return fmt.Errorf("sqlserver.folder is required")
	}

	return nil
}
