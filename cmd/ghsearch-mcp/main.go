// Command ghsearch-mcp serves GitHub repository search as a JSON-RPC tool
// over standard input and output.
package main

import (
	"os"

	"github.com/felixgeelhaar/ghsearch-mcp/cmd/ghsearch-mcp/root"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	root.SetVersion(version)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
