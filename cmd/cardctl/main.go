// Command cardctl inspects and migrates a card vault deployment.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"cardvault-api/internal/cli"
)

func main() {
	_ = godotenv.Load()
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
