// Command objectbase manages objectbase databases from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/safing/objectbase/database"
	"github.com/safing/objectbase/info"
	"github.com/safing/objectbase/log"
)

func main() {
	info.Set("objectbase", "", "")

	log.SetOutput(os.Stderr)
	if err := log.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start logging: %s\n", err)
	}

	err := newRootCommand().Execute()
	if closeErr := database.CloseAll(); closeErr != nil {
		log.Errorf("objectbase: failed to close databases: %s", closeErr)
	}
	log.Shutdown()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
