// Command harness runs assertion suites and encodes their result.
package main

import (
	"fmt"
	"os"

	"digital.vasic.harness/pkg/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "harness:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
