package main

import (
	"github.com/fgeck/gomssql-backup/internal/services/operator"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var probeFlags connectionFlags

var probeCmd = &cobra.Command{
	Use:          "probe",
	Short:        "Check connectivity and report the server version",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runProbe,
}

func init() {
	probeFlags.register(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	r, err := probeFlags.renderer()
	if err != nil {
		return err
	}

	req, err := probeFlags.request(cmd)
	if err != nil {
		return err
	}

	resp := operator.New(log.Logger).TestConnection(cmd.Context(), req)
	if err := r.Identity(resp); err != nil {
		return err
	}
	if !resp.OK {
		return errOperationFailed
	}

	return nil
}
