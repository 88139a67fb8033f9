package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRootCmd(lg zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "tecp",
		Short: "Issue and verify Trusted Ephemeral Computation Protocol receipts",
	}
	root.AddCommand(newKeygenCmd(lg))
	root.AddCommand(newIssueCmd(lg))
	root.AddCommand(newVerifyCmd(lg))
	return root
}
