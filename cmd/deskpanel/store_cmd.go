package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mattjoyce/deskpanel/internal/actions"
	"github.com/mattjoyce/deskpanel/internal/storage"
)

func runStoreNoun(args []string) int {
	if len(args) < 1 {
		printStoreNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printStoreNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "init":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: deskpanel store init [--config PATH]")
			fmt.Println("Create the store schema. Existing data is kept.")
			return 0
		}
		return runStoreInit(actionArgs)
	case "import":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: deskpanel store import FILE [--config PATH]")
			fmt.Println("Replace customers, payments, licenses and subscriptions with a YAML dataset.")
			return 0
		}
		return runStoreImport(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown store action: %s\n", action)
		return 1
	}
}

func printStoreNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: deskpanel store <action> [flags]")
	fmt.Fprintln(w, "Actions: init, import")
}

// openStore loads the config and opens its store.
func openStore(ctx context.Context, configPath string) (*storage.DB, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return storage.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
}

func runStoreInit(args []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	db, err := openStore(context.Background(), *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		return 1
	}
	defer db.Close()

	fmt.Printf("Store ready (%s): %s\n", db.Driver(), strings.Join(storage.Tables, ", "))
	return 0
}

func runStoreImport(args []string) int {
	positional, flags := splitArgs(args)
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	if err := fs.Parse(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if len(positional) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: deskpanel store import FILE [--config PATH]")
		return 1
	}

	ds, err := storage.LoadDataset(positional[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load dataset: %v\n", err)
		return 1
	}

	ctx := context.Background()
	db, err := openStore(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		return 1
	}
	defer db.Close()

	if err := storage.Import(ctx, db, ds); err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		return 1
	}
	fmt.Printf("Imported %d customers, %d payments, %d licenses, %d subscriptions\n",
		len(ds.Customers), len(ds.Payments), len(ds.Licenses), len(ds.Subscriptions))
	return 0
}

func runActionsNoun(args []string) int {
	if len(args) < 1 {
		printActionsNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printActionsNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "list":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: deskpanel actions list [--status queued|done|failed] [--limit N] [--json] [--config PATH]")
			fmt.Println("Show action requests queued through signed sidebar links.")
			return 0
		}
		return runActionsList(actionArgs)
	case "complete":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: deskpanel actions complete ID [--failed] [--config PATH]")
			fmt.Println("Mark a queued action request done, or failed with --failed.")
			return 0
		}
		return runActionsComplete(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown actions action: %s\n", action)
		return 1
	}
}

func printActionsNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: deskpanel actions <action> [flags]")
	fmt.Fprintln(w, "Actions: list, complete")
}

func parseStatus(s string) (actions.Status, error) {
	switch st := actions.Status(s); st {
	case actions.StatusQueued, actions.StatusDone, actions.StatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

func runActionsList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	statusFlag := fs.String("status", string(actions.StatusQueued), "Status to list (queued, done, failed)")
	limit := fs.Int("limit", 50, "Maximum number of requests (0 for all)")
	jsonOut := fs.Bool("json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	status, err := parseStatus(*statusFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	db, err := openStore(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		return 1
	}
	defer db.Close()

	reqs, err := actions.NewQueue(db).List(ctx, status, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
		return 1
	}

	if *jsonOut {
		out, err := json.MarshalIndent(reqs, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		fmt.Println(string(out))
		return 0
	}
	if len(reqs) == 0 {
		fmt.Printf("No %s action requests\n", status)
		return 0
	}
	fmt.Println(actionsTable(reqs))
	return 0
}

func actionsTable(reqs []actions.Request) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "ACTION", "PARAMS", "STATUS", "REQUESTED")
	for _, r := range reqs {
		t.Row(r.ID, r.Action, formatParams(r.Params), string(r.Status), r.RequestedAt.Format(time.RFC3339))
	}
	return t.String()
}

func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, " ")
}

func runActionsComplete(args []string) int {
	positional, flags := splitArgs(args, "failed")
	fs := flag.NewFlagSet("complete", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	failed := fs.Bool("failed", false, "Mark the request failed instead of done")
	if err := fs.Parse(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if len(positional) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: deskpanel actions complete ID [--failed] [--config PATH]")
		return 1
	}
	status := actions.StatusDone
	if *failed {
		status = actions.StatusFailed
	}

	ctx := context.Background()
	db, err := openStore(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		return 1
	}
	defer db.Close()

	if err := actions.NewQueue(db).Complete(ctx, positional[0], status); err != nil {
		if errors.Is(err, actions.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "No queued action request %s\n", positional[0])
			return 1
		}
		fmt.Fprintf(os.Stderr, "Complete failed: %v\n", err)
		return 1
	}
	fmt.Printf("Action request %s marked %s\n", positional[0], status)
	return 0
}
