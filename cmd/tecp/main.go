// Command tecp is a thin CLI over the receipt, policy, and
// translog/logclient packages: keygen, issue, verify (spec.md §6's CLI
// surface, SPEC_FULL.md §6). Built with cobra, grounded on its presence
// across the retrieval corpus.
package main

import (
	"os"

	"github.com/tecp-protocol/tecp-go/internal/logging"
)

func main() {
	lg := logging.New(envOr("TECP_LOG_LEVEL", "info"))
	root := newRootCmd(lg)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
