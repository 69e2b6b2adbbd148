package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/mattjoyce/deskpanel/internal/console"
	"github.com/mattjoyce/deskpanel/internal/log"
	"github.com/mattjoyce/deskpanel/internal/signing"
	"github.com/mattjoyce/deskpanel/internal/storage"
)

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func printLookupHelp() {
	fmt.Println("Usage: deskpanel lookup --email ADDR [--email ADDR ...] [--config PATH] [--format text|dump]")
	fmt.Println("Print the customer overview the sidebar would show for the given emails.")
}

func runLookup(args []string) int {
	if hasHelpFlag(args) {
		printLookupHelp()
		return 0
	}
	var emails stringList
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	format := fs.String("format", "text", "Output format (text, dump)")
	fs.Var(&emails, "email", "Customer email (repeatable)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	emails = append(emails, fs.Args()...)
	if len(emails) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: deskpanel lookup --email ADDR [--config PATH] [--format text|dump]")
		return 1
	}
	if *format != "text" && *format != "dump" {
		fmt.Fprintf(os.Stderr, "Unknown format: %s\n", *format)
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx := context.Background()
	db, err := storage.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		return 1
	}
	defer db.Close()

	// Logs go to stderr so the overview on stdout stays clean.
	pipeline := newPipeline(cfg, db, log.New(os.Stderr, "warn"))
	view, err := pipeline.Lookup(ctx, emails...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
		return 1
	}

	if *format == "dump" {
		cs := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
		cs.Fdump(os.Stdout, view)
		return 0
	}
	fmt.Println(console.Render(view, console.NewDefaultTheme()))
	return 0
}

func printSignHelp() {
	fmt.Println("Usage: deskpanel sign [--config PATH] [--secret S] < body.json")
	fmt.Println("       deskpanel sign --action NAME [--param k=v ...] [--ttl 24h] [--config PATH]")
	fmt.Println("Print the signature of a sidebar payload read from stdin, or a signed action link.")
}

func runSign(args []string) int {
	return sign(args, os.Stdin, os.Stdout)
}

func sign(args []string, in io.Reader, out io.Writer) int {
	if hasHelpFlag(args) {
		printSignHelp()
		return 0
	}
	var params stringList
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	secret := fs.String("secret", "", "Shared secret (defaults to signing.secret)")
	action := fs.String("action", "", "Sign an action link instead of a payload")
	baseURL := fs.String("base-url", "", "Action base URL (defaults to signing.action_base_url)")
	ttl := fs.Duration("ttl", 0, "Action link lifetime (defaults to signing.action_ttl)")
	fs.Var(&params, "param", "Action parameter as key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	needConfig := *secret == "" || (*action != "" && (*baseURL == "" || *ttl == 0))
	if needConfig {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			return 1
		}
		if *secret == "" {
			*secret = cfg.Signing.Secret
		}
		if *baseURL == "" {
			*baseURL = cfg.Signing.ActionBaseURL
		}
		if *ttl == 0 {
			*ttl = cfg.Signing.ActionTTL
		}
	}
	if *secret == "" {
		fmt.Fprintln(os.Stderr, "No signing secret configured")
		return 1
	}

	if *action == "" {
		body, err := io.ReadAll(in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read payload: %v\n", err)
			return 1
		}
		sig, err := signing.New(*secret).Sign(body)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Sign failed: %v\n", err)
			return 1
		}
		fmt.Fprintln(out, sig)
		return 0
	}

	values := make(map[string]string, len(params))
	for _, p := range params {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			fmt.Fprintf(os.Stderr, "Invalid --param %q, want key=value\n", p)
			return 1
		}
		values[k] = v
	}
	if *ttl <= 0 {
		*ttl = 24 * time.Hour
	}
	link, err := signing.New(*secret, signing.WithActionURL(*baseURL)).SignedURL(*action, values, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sign failed: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, link)
	return 0
}
