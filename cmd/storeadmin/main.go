package main

import (
	"fmt"
	"os"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storeadmin: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	subcmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "serve":
		return cmdServe(args)
	case "init":
		return cmdInit()
	case "status":
		return cmdStatus()
	case "refresh":
		return cmdRefresh(args)
	case "version":
		fmt.Println(version)
		return nil
	default:
		return fmt.Errorf("unknown command: %s\nUsage: storeadmin [serve|init|status|refresh <resource>|version]", subcmd)
	}
}
