// Command bulk-report exports the Salesforce Bulk API 2.0 ingest job list
// of an org to a JSON dump and a CSV report.
//
// The first run authenticates with the connected-app credentials in
// --creds-file and caches the token response; later runs reuse the cached
// token until --refresh is given.
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	rootCmd := newRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(mapErrorToExitCode(err))
	}
}
