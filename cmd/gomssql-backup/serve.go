package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/gomssql-backup/internal/server"
	"github.com/fgeck/gomssql-backup/internal/services/operator"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the connection test, database listing and backup operations over HTTP",
	Long: `Serve JSON endpoints for a front end:

  GET  /health
  POST /api/v1/sql/test-connection   {"server","user","password"}
  POST /api/v1/sql/databases         {"server","user","password"}
  POST /api/v1/sql/backups           {"server","user","password","databases":[...],"folder"}

Operation failures are reported as {"ok":false,"error":"..."} with status 200.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", ":8080", "address to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(log.Logger, operator.New(log.Logger))
	if err := srv.Start(ctx, listenAddr); err != nil {
		log.Error().Err(err).Msg("server failed")
		return err
	}

	return nil
}
