package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/cfpqc/internal/cli"
	"github.com/ppiankov/cfpqc/internal/lexicon"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}

	var cfgErr *lexicon.ConfigurationError
	switch {
	case errors.Is(err, cli.ErrChecksFailed):
		os.Exit(2)
	case errors.As(err, &cfgErr):
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(3)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
