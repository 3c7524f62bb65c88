package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fgeck/gomssql-backup/internal/config"
	"github.com/fgeck/gomssql-backup/internal/services/sqlserver"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file without contacting any server.`,
	RunE:  validateConfig,
}

func init() {
	validateCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (required)")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		log.Error().Msg("config file is required")
		return cmd.Help()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Error().Str("file", configFile).Msg("config file not found")
		return fmt.Errorf("config file not found: %s", configFile)
	}

	parser := config.NewParser()
	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to parse config")
		return err
	}

	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("configuration validation failed")
		return err
	}

	target := sqlserver.ResolveTarget(cfg.SQLServer.Server)

	fmt.Println("Configuration is valid!")
	fmt.Println()
	fmt.Println("SQL Server:")
	fmt.Printf("  Host: %s\n", target.Host)
	if target.HasInstance() {
		fmt.Printf("  Instance: %s (port via SQL Server Browser)\n", target.InstanceName)
	} else {
		fmt.Printf("  Port: %d\n", sqlserver.DefaultPort)
	}
	fmt.Printf("  User: %s\n", cfg.SQLServer.User)
	fmt.Printf("  Folder: %s\n", cfg.SQLServer.Folder)
	if cfg.SQLServer.AllDatabases() {
		fmt.Println("  Databases: all online user databases")
	} else {
		fmt.Printf("  Databases: %s\n", strings.Join(cfg.SQLServer.Databases, ", "))
	}
	fmt.Println()
	fmt.Println("Optional Features:")
	fmt.Printf("  Wake-on-LAN: %v\n", cfg.WOL != nil)
	fmt.Printf("  SSH Shutdown: %v\n", cfg.SSHShutdown != nil)
	fmt.Printf("  Telegram: %v\n", cfg.Telegram != nil)

	if cfg.WOL != nil {
		fmt.Println()
		fmt.Println("WOL Configuration:")
		fmt.Printf("  MAC Address: %s\n", cfg.WOL.MACAddress)
		fmt.Printf("  Broadcast IP: %s\n", cfg.WOL.BroadcastIP)
		if cfg.WOL.PollAddress != "" {
			fmt.Printf("  Poll Address: %s\n", cfg.WOL.PollAddress)
			fmt.Printf("  Timeout: %s\n", cfg.WOL.Timeout)
		}
	}

	if cfg.SSHShutdown != nil {
		fmt.Println()
		fmt.Println("SSH Shutdown Configuration:")
		fmt.Printf("  Host: %s\n", cfg.SSHShutdown.Host)
		fmt.Printf("  Port: %d\n", cfg.SSHShutdown.Port)
		fmt.Printf("  Username: %s\n", cfg.SSHShutdown.Username)
		fmt.Printf("  OS: %s\n", cfg.SSHShutdown.OS)
		fmt.Printf("  Shutdown Delay: %d minute(s)\n", cfg.SSHShutdown.ShutdownDelay)
	}

	if cfg.Telegram != nil {
		fmt.Println()
		fmt.Println("Telegram Configuration:")
		fmt.Printf("  Chat ID: %s\n", cfg.Telegram.ChatID)
		fmt.Printf("  Bot Token: (configured)\n")
	}

	return nil
}
