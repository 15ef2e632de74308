// Command graphmem serves the workspace knowledge graph over MCP and runs the
// DynamoDB Streams workspace registration handler.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
