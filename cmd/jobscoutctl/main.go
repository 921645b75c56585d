// Command jobscoutctl runs operator tasks against the JobScout store.
package main

import (
	"os"

	"github.com/jobscout/jobscout/config"
)

func main() {
	cmd := newRootCmd(config.Load(), openRepositories)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
