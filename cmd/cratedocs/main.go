// Command cratedocs caches Rust crate sources and their rustdoc JSON
// artifacts for offline use.
package main

import (
	"os"

	"github.com/cratedocs/cratedocs/internal/cli"
	"github.com/cratedocs/cratedocs/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps the result to a process exit
// code. Cobra has already printed the error by the time this returns.
func run() int {
	rootCmd := cli.NewRootCmd(version.GetVersion())
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}
