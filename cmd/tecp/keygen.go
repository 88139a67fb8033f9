package main

import (
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tecp-protocol/tecp-go/receipt"
)

func newKeygenCmd(lg zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate an Ed25519 receipt-signing keypair",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := receipt.GenerateSigner()
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "pubkey (base64):  %s\n", base64.StdEncoding.EncodeToString(s.PublicKey()))
			fmt.Fprintf(cmd.OutOrStdout(), "fingerprint:      %s\n", s.Fingerprint())
			fmt.Fprintf(cmd.OutOrStdout(), "privkey (hex):    %s\n", s.PrivateKeyHex())
			fmt.Fprintln(cmd.OutOrStdout(), "warning: the private key above is printed once; store it in a secrets manager, never in shell history or logs")
			return nil
		},
	}
}
