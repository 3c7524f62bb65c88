// Package ssh powers down the database host over SSH once a batch has finished.
package ssh

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/fgeck/gomssql-backup/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// Service defines the interface for SSH operations.
type Service interface {
	Shutdown(ctx context.Context, cfg models.SSHShutdownConfig) (*models.SSHResult, error)
	TestConnection(ctx context.Context, cfg models.SSHShutdownConfig) (*models.SSHResult, error)
}

// SSHClient wraps ssh.Client for mocking.
type SSHClient interface {
	NewSession() (SSHSession, error)
	Close() error
}

// SSHSession wraps ssh.Session for mocking.
type SSHSession interface {
	CombinedOutput(cmd string) ([]byte, error)
	Close() error
}

// ClientFactory creates SSH clients.
type ClientFactory interface {
	NewClient(network, addr string, config *ssh.ClientConfig) (SSHClient, error)
}

// DefaultClientFactory is the default SSH client factory.
type DefaultClientFactory struct{}

// NewClient creates a new SSH client.
func (f *DefaultClientFactory) NewClient(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
	client, err := ssh.Dial(network, addr, config)
	if err != nil {
		return nil, err
	}
	return &defaultSSHClient{client: client}, nil
}

type defaultSSHClient struct {
	client *ssh.Client
}

func (c *defaultSSHClient) NewSession() (SSHSession, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (c *defaultSSHClient) Close() error {
	return c.client.Close()
}

// Impl implements the SSH Service interface.
type Impl struct {
	clientFactory ClientFactory
	logger        zerolog.Logger
}

// New creates a new SSH service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		clientFactory: &DefaultClientFactory{},
		logger:        logger,
	}
}

// NewWithClientFactory creates a new SSH service with a custom client factory (for testing).
func NewWithClientFactory(logger zerolog.Logger, factory ClientFactory) *Impl {
	return &Impl{
		clientFactory: factory,
		logger:        logger,
	}
}

// ShutdownCommand returns the power-off command for the configured host OS.
func ShutdownCommand(cfg models.SSHShutdownConfig) string {
	if cfg.OS == "windows" {
		delaySeconds := cfg.ShutdownDelay * 60
		if delaySeconds == 0 {
			delaySeconds = 60
		}
		return fmt.Sprintf("shutdown /s /t %d", delaySeconds)
	}

	if cfg.ShutdownDelay == 0 {
		return "sudo shutdown -h now"
	}
	return fmt.Sprintf("sudo shutdown -h +%d", cfg.ShutdownDelay)
}

func (s *Impl) buildConfig(cfg models.SSHShutdownConfig) (*ssh.ClientConfig, error) {
	key := cfg.PrivateKey
	if len(key) == 0 {
		if cfg.KeyPath == "" {
			return nil, fmt.Errorf("no private key provided")
		}
		var err error
		key, err = os.ReadFile(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key from %s: %w", cfg.KeyPath, err)
		}
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &ssh.ClientConfig{
		User: cfg.Username,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // hosts on the local network
		Timeout:         30 * time.Second,
	}, nil
}

type dialResult struct {
	client SSHClient
	err    error
}

// dial connects to the host, giving up when ctx is done.
func (s *Impl) dial(ctx context.Context, cfg models.SSHShutdownConfig) (SSHClient, error) {
	sshConfig, err := s.buildConfig(cfg)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	done := make(chan dialResult, 1)

	go func() {
		client, err := s.clientFactory.NewClient("tcp", addr, sshConfig)
		done <- dialResult{client: client, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("failed to connect: %w", res.err)
		}
		return res.client, nil
	}
}

// execute runs cmd on a fresh connection. Connection failures land in
// result.Error; the command's own error is returned separately.
func (s *Impl) execute(ctx context.Context, cfg models.SSHShutdownConfig, cmd string) (*models.SSHResult, error) {
	result := &models.SSHResult{}

	client, err := s.dial(ctx, cfg)
	if err != nil {
		result.Error = err
		return result, nil
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		return result, nil
	}
	defer func() { _ = session.Close() }()

	output, cmdErr := session.CombinedOutput(cmd)
	result.Output = string(output)
	result.CommandRun = true

	return result, cmdErr
}

// Shutdown initiates a system shutdown via SSH.
func (s *Impl) Shutdown(ctx context.Context, cfg models.SSHShutdownConfig) (*models.SSHResult, error) {
	cmd := ShutdownCommand(cfg)

	s.logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("user", cfg.Username).
		Str("os", cfg.OS).
		Int("delay", cfg.ShutdownDelay).
		Msg("initiating remote shutdown")

	s.logger.Debug().Str("command", cmd).Msg("executing shutdown command")

	result, cmdErr := s.execute(ctx, cfg, cmd)
	if !result.CommandRun {
		return result, nil
	}

	if cmdErr != nil {
		// The host may drop the session while powering off.
		if ctx.Err() != nil {
			result.Error = ctx.Err()
		} else {
			s.logger.Warn().Err(cmdErr).Str("output", result.Output).Msg("shutdown command returned error (may be expected)")
		}
	}

	s.logger.Info().
		Bool("command_run", result.CommandRun).
		Str("output", result.Output).
		Msg("shutdown command completed")

	return result, nil
}

// TestConnection verifies SSH connectivity without executing shutdown.
func (s *Impl) TestConnection(ctx context.Context, cfg models.SSHShutdownConfig) (*models.SSHResult, error) {
	s.logger.Debug().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("testing SSH connection")

	result, cmdErr := s.execute(ctx, cfg, "echo OK")
	if cmdErr != nil {
		result.Error = fmt.Errorf("test command failed: %w", cmdErr)
	}

	return result, nil
}
