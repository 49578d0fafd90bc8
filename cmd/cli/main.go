package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/signal-works/pulse/pkg/runtime/terminal"
	"github.com/signal-works/pulse/pkg/services/ingest"
)

func main() {
	// Reports go to stdout; logs stay on stderr so output can be piped.
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cli := terminal.NewCLI(terminal.Options{
		Registry: ingest.DefaultRegistry(),
		Output:   os.Stdout,
		Logger:   &logger,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
