package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/mattjoyce/deskpanel/internal/actions"
	"github.com/mattjoyce/deskpanel/internal/aggregate"
	"github.com/mattjoyce/deskpanel/internal/config"
	"github.com/mattjoyce/deskpanel/internal/hooks"
	"github.com/mattjoyce/deskpanel/internal/lock"
	"github.com/mattjoyce/deskpanel/internal/log"
	"github.com/mattjoyce/deskpanel/internal/sidebar"
	"github.com/mattjoyce/deskpanel/internal/signing"
	"github.com/mattjoyce/deskpanel/internal/storage"
	"github.com/mattjoyce/deskpanel/internal/webhook"
)

func printServeHelp() {
	fmt.Println("Usage: deskpanel serve [--config PATH]")
	fmt.Println("Run the sidebar webhook server in the foreground.")
}

func runServe(args []string) int {
	if hasHelpFlag(args) {
		printServeHelp()
		return 0
	}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("deskpanel starting", "version", version, "config", cfg.Path)

	if cfg.Fixture.Enabled {
		logger.Warn("fixture mode enabled, request signatures are not checked", "email", cfg.Fixture.Email)
	}

	if cfg.Store.Driver == storage.DriverSQLite && cfg.Store.DSN != ":memory:" {
		pidLock, err := lock.Acquire(lock.PathFor(cfg.Store.DSN))
		if err != nil {
			logger.Error("failed to acquire PID lock (another instance may be running)", "error", err)
			return 1
		}
		defer pidLock.Release()
		logger.Info("acquired PID lock", "path", pidLock.Path())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("store opened", "driver", db.Driver())

	pipeline := newPipeline(cfg, db, log.WithComponent("sidebar"))
	svc := actions.NewService(pipeline.Signer(), actions.NewQueue(db), log.WithComponent("actions"))

	webhookConfig, err := webhook.FromGlobalConfig(cfg.Server)
	if err != nil {
		logger.Error("failed to configure server", "error", err)
		return 1
	}
	srv := webhook.New(webhookConfig, pipeline, svc, log.WithComponent("webhook"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Start(ctx); err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("webhook: %w", err)
		}
	}()
	logger.Info("deskpanel running (press Ctrl+C to stop)",
		"listen", webhookConfig.Listen,
		"sidebar_path", webhookConfig.SidebarPath,
		"action_path", webhookConfig.ActionPath,
	)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
		<-done
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("deskpanel stopped")
	return 0
}

// newPipeline wires the sidebar pipeline to the store behind db.
func newPipeline(cfg *config.Config, db *storage.DB, logger *slog.Logger) *sidebar.Pipeline {
	store := storage.NewStore(db, storage.Options{
		LicensingEnabled: cfg.Integrations.Licensing.Enabled,
		LicensingVersion: cfg.Integrations.Licensing.Version,
		RecurringEnabled: cfg.Integrations.Recurring.Enabled,
	})

	var signerOpts []signing.Option
	if cfg.Signing.ActionBaseURL != "" {
		signerOpts = append(signerOpts, signing.WithActionURL(cfg.Signing.ActionBaseURL))
	}

	return sidebar.New(sidebar.Options{
		SharedSecret: cfg.Signing.Secret,
		FixtureMode:  cfg.Fixture.Enabled,
		FixtureEmail: cfg.Fixture.Email,
	}, sidebar.Deps{
		Customers: store,
		Stores: aggregate.Stores{
			Orders:        store,
			Licenses:      store.Licensing(),
			Subscriptions: store.Recurring(),
		},
		Hooks: newHooks(cfg.Hooks),
		Aggregate: aggregate.Config{
			AdminURL: cfg.Admin.BaseURL,
			LinkTTL:  cfg.Signing.ActionTTL,
		},
		SignerOptions: signerOpts,
	}, logger)
}

// newHooks registers the filters named in the hooks config section. Gateways
// are registered in name order so the chain is stable across runs.
func newHooks(cfg config.HooksConfig) *hooks.Registry {
	registry := hooks.NewRegistry()
	if len(cfg.EmailAliases) > 0 {
		registry.OnCustomerEmails(hooks.EmailAliases(cfg.EmailAliases))
	}

	gateways := make([]string, 0, len(cfg.GatewayLinks))
	for gateway := range cfg.GatewayLinks {
		gateways = append(gateways, gateway)
	}
	sort.Strings(gateways)
	for _, gateway := range gateways {
		registry.OnGatewayLink(hooks.GatewayLinkTemplate(gateway, cfg.GatewayLinks[gateway]))
	}
	return registry
}
