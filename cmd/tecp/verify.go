package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tecp-protocol/tecp-go/receipt"
	"github.com/tecp-protocol/tecp-go/translog/logclient"
)

func newVerifyCmd(lg zerolog.Logger) *cobra.Command {
	var (
		profile string
		logURL  string
	)

	cmd := &cobra.Command{
		Use:   "verify <receipt.json>",
		Short: "Verify a receipt envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read receipt: %w", err)
			}
			var r receipt.Receipt
			if err := json.Unmarshal(b, &r); err != nil {
				return fmt.Errorf("parse receipt: %w", err)
			}

			opts := receipt.VerifyOptions{Profile: receipt.Profile(profile), Now: time.Now()}
			if logURL != "" {
				opts.LogVerifier = logclient.NewClient(logURL, lg)
				opts.Ctx = cmd.Context()
			}

			res := receipt.Verify(&r, opts)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.Valid {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", string(receipt.ProfileDefault), "LITE | DEFAULT | STRICT")
	cmd.Flags().StringVar(&logURL, "log-url", "", "base URL of a transparency log to check inclusion against")
	return cmd
}
