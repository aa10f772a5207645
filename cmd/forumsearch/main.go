// Command forumsearch is the CLI and daemon entrypoint for the
// forumsearch search-engine core: index building, the durable job
// worker, interactive search/suggest, status reporting, and the MCP
// tool server all live behind one binary's subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/forumsearch/core/cmd/forumsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
