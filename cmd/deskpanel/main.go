package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattjoyce/deskpanel/internal/config"
)

const version = "0.3.0"

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "serve":
		os.Exit(runServe(args))
	case "lookup":
		os.Exit(runLookup(args))
	case "sign":
		os.Exit(runSign(args))
	case "config":
		os.Exit(runConfigNoun(args))
	case "store":
		os.Exit(runStoreNoun(args))
	case "actions":
		os.Exit(runActionsNoun(args))
	case "version":
		fmt.Printf("deskpanel version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage(os.Stderr)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `deskpanel - customer overview sidebar for helpdesk tickets

Usage:
  deskpanel <command> [flags]

Commands:
  serve                   Run the sidebar webhook server in the foreground
  lookup --email ADDR     Print the customer overview for one or more emails
  sign                    Sign a payload from stdin, or an action link with --action

Config Commands:
  config check            Load and validate the configuration
  config lock             Write BLAKE3 integrity hashes to .checksums

Store Commands:
  store init              Create the store schema
  store import FILE       Replace the commerce data with a YAML dataset

Action Commands:
  actions list            Show queued action requests
  actions complete ID     Mark an action request done (or --failed)

General:
  version                 Show version information
  help                    Show this help message

Every command accepts --config PATH. Without it the config is discovered from
$DESKPANEL_CONFIG, ~/.config/deskpanel, /etc/deskpanel or ./config.yaml.
`)
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

// loadConfig loads the config at path, discovering it when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		discovered, err := config.Discover()
		if err != nil {
			return nil, err
		}
		path = discovered
	}
	return config.Load(path)
}

// splitArgs separates positional arguments from flags so that flags may follow
// them, as in "actions complete ID --failed".
func splitArgs(args []string, boolFlags ...string) (positional, flags []string) {
	isBool := make(map[string]bool, len(boolFlags))
	for _, f := range boolFlags {
		isBool["-"+f] = true
		isBool["--"+f] = true
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case len(arg) > 1 && strings.HasPrefix(arg, "-"):
			flags = append(flags, arg)
			if !strings.Contains(arg, "=") && !isBool[arg] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		default:
			positional = append(positional, arg)
		}
	}
	return positional, flags
}
