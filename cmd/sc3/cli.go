package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func run(args []string) int {
	if len(args) < 2 {
		usage(args)
		return 1
	}

	switch args[1] {
	case "verify":
		return runVerify(args[2:])
	case "quick":
		return runQuick(args[2:])
	case "report":
		return runReport(args[2:])
	}

	usage(args)
	return 1
}

func usage(args []string) {
	name := "sc3"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  %s verify --bundle <bundle.json> [--policy <policy.yaml>] [--time-bound <rfc3339>] [--threshold <severity>] [--out <file>]\n", name)
	fmt.Fprintf(os.Stderr, "  %s quick --bundle <bundle.json> [--policy <policy.yaml>]\n", name)
	fmt.Fprintf(os.Stderr, "  %s report --bundle <bundle.json> [--policy <policy.yaml>] [--out <file>]\n", name)
}
