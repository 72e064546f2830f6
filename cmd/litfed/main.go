// litfed is the command-line interface for the LitFed service.
package main

import (
	"os"

	"github.com/turtacn/LitFed/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
