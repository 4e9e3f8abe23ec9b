package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"seleniumrobot/infoserver/pkg/api"
	"seleniumrobot/infoserver/pkg/cli"
	"seleniumrobot/infoserver/pkg/config"
	"seleniumrobot/infoserver/pkg/elementinfo/retention"
	"seleniumrobot/infoserver/pkg/security/auth"
	securitytls "seleniumrobot/infoserver/pkg/security/tls"
	"seleniumrobot/infoserver/pkg/server"
	"seleniumrobot/infoserver/pkg/telemetry/health"
	"seleniumrobot/infoserver/pkg/telemetry/metrics"
	"seleniumrobot/infoserver/pkg/variables"
)

var serveFlags struct {
	listenAddress string
	watch         bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the info server",
	Long: `Start the info server with the specified configuration.

The element-info list endpoints delete records older than the retention
window before answering. Set elementinfo.retention.schedule to also sweep
on a cron schedule.

Examples:
  # Start with defaults (sqlite database under ./data)
  infoserver serve

  # Start with a config file, reloading it when it changes
  infoserver serve --config /etc/infoserver/config.yaml --watch

  # Override listen address
  infoserver serve --listen 0.0.0.0:8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.watch, "watch", false, "reload the config file when it changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	holder, err := loadHolder()
	if err != nil {
		return err
	}
	cfg := overrideListen(holder, serveFlags.listenAddress)

	logger, err := setupLogging(cfg, os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	st, err := openStores(ctx, cfg.Storage)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer st.Close()

	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)

	sweeper := retention.NewSweeper(st.elements, cfg.ElementInfo.Retention.Window,
		retention.WithObserver(collector),
	)
	scheduler := retention.NewScheduler(sweeper, cfg.ElementInfo.Retention.Schedule)
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer scheduler.Stop()

	authMiddleware := auth.NewMiddleware(holder, cfg.Security.Authentication)

	checker := health.New(Version, 0)
	if st.db != nil {
		checker.RegisterCheck("database", health.PingCheck(st.db))
	}

	tlsConfig, reloader, err := securitytls.ServerConfig(cfg.Security.TLS)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	if reloader != nil {
		go reloader.Run(ctx)
	}

	if serveFlags.watch && holder.Path() != "" {
		watcher, err := config.NewWatcher(holder, 0, func(next *config.Config) {
			authMiddleware.Reload(next.Security.Authentication)
		})
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	a := api.New(api.Deps{
		Config:    holder,
		Commons:   st.commons,
		Elements:  st.elements,
		Sweeper:   sweeper,
		Variables: st.variables,
		Resolver:  variables.NewResolver(st.variables, st.commons),
		Redactor:  variables.NewRedactor(holder.SecurityEnabled, nil, variables.WithMaskObserver(collector)),
		Visibility: variables.NewVisibility(func() bool {
			return holder.Get().Security.RestrictToApplication
		}, nil, st.commons),
		Auth:    authMiddleware,
		Health:  checker,
		Metrics: collector,
	})

	logger.Info("starting infoserver",
		"version", Version,
		"config", cfgFile,
		"storage", cfg.Storage.Driver,
		"security_enabled", holder.SecurityEnabled(),
		"retention_window", cfg.ElementInfo.Retention.Window.String(),
		"sweep_schedule", cfg.ElementInfo.Retention.Schedule,
	)
	if !holder.SecurityEnabled() {
		logger.Warn("API security is disabled: requests are not authenticated and protected values are returned in clear")
	}

	srv := server.New(cfg.Server, a.Handler(), tlsConfig)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", cfg.Server.ListenAddress)
	if err := srv.Start(ctx); err != nil {
		slog.Error("server stopped", "error", err)
		return cli.NewCommandError("serve", err)
	}
	return nil
}

// overrideListen publishes a copy of the holder's configuration with the
// listen address replaced. The loaded configuration is never mutated.
func overrideListen(holder *config.Holder, addr string) *config.Config {
	cfg := holder.Get()
	if addr == "" {
		return cfg
	}
	next := *cfg
	next.Server.ListenAddress = addr
	holder.Set(&next)
	return &next
}
