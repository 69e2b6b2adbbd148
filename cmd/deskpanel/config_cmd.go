package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mattjoyce/deskpanel/internal/config"
	"github.com/mattjoyce/deskpanel/internal/doctor"
	"github.com/mattjoyce/deskpanel/internal/storage"
)

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "check":
		if hasHelpFlag(actionArgs) {
			printConfigCheckHelp()
			return 0
		}
		return runConfigCheck(actionArgs)
	case "lock":
		if hasHelpFlag(actionArgs) {
			printConfigLockHelp()
			return 0
		}
		return runConfigLock(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: deskpanel config <action> [flags]")
	fmt.Fprintln(w, "Actions: check, lock")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: deskpanel config check [--config PATH] [--format human|json] [--json] [--strict] [--store]")
	fmt.Println("Validate configuration syntax, integrity and policy. Exit 2 on warnings with --strict.")
}

func printConfigLockHelp() {
	fmt.Println("Usage: deskpanel config lock [--config PATH] [--include FILE ...] [-v|--verbose] [--dry-run]")
	fmt.Println("Authorize the current configuration by writing BLAKE3 hashes to .checksums.")
}

func runConfigCheck(args []string) int {
	var configPath, format string
	var strict, jsonOut, probeStore bool

	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&strict, "strict", false, "Treat warnings as errors")
	fs.BoolVar(&probeStore, "store", false, "Also open the store and check its tables")
	fs.StringVar(&format, "format", "human", "Output format (human, json)")
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if jsonOut {
		format = "json"
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	var db *storage.DB
	if probeStore {
		db, err = storage.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Store error: %v\n", err)
			return 1
		}
		defer db.Close()
	}

	result := doctor.New(cfg, db).Validate(ctx)

	switch format {
	case "json":
		out, err := doctor.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		fmt.Println(out)
	default:
		fmt.Print(doctor.FormatHuman(result))
	}

	if !result.Valid {
		return 1
	}
	if strict && len(result.Warnings) > 0 {
		return 2
	}
	return 0
}

func runConfigLock(args []string) int {
	var configPath string
	var include stringList
	var verbose, verboseShort, dryRun bool

	fs := flag.NewFlagSet("lock", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.Var(&include, "include", "Extra file next to the config to hash (repeatable)")
	fs.BoolVar(&verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&verboseShort, "v", false, "Verbose output")
	fs.BoolVar(&dryRun, "dry-run", false, "Dry run")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	isVerbose := verbose || verboseShort

	if configPath == "" {
		discovered, err := config.Discover()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		configPath = discovered
	}

	report, err := config.Lock(configPath, include, dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lock config: %v\n", err)
		return 1
	}

	if isVerbose {
		for _, f := range report.Files {
			fmt.Printf("  HASH %s: %s\n", f.Filename, f.Hash)
		}
		if report.Written {
			fmt.Printf("  WROTE .checksums: %s\n", report.ChecksumPath)
		} else {
			fmt.Printf("  DRY-RUN .checksums: %s (not written)\n", report.ChecksumPath)
		}
	}

	if dryRun {
		fmt.Printf("Dry run completed for %d file(s) (no files written)\n", len(report.Files))
	} else {
		fmt.Printf("Successfully locked configuration: %s\n", report.ChecksumPath)
	}
	return 0
}
