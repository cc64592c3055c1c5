package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/sidecarhost/cmd"
	"github.com/smazurov/sidecarhost/internal/api"
	"github.com/smazurov/sidecarhost/internal/backend"
	"github.com/smazurov/sidecarhost/internal/config"
	"github.com/smazurov/sidecarhost/internal/events"
	"github.com/smazurov/sidecarhost/internal/host"
	"github.com/smazurov/sidecarhost/internal/logging"
	"github.com/smazurov/sidecarhost/internal/metrics/exporters"
	"github.com/smazurov/sidecarhost/internal/process"
	"github.com/smazurov/sidecarhost/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"sidecarhost.toml"`

	// Server settings
	Addr string `help:"Address for the local API" short:"a" default:"127.0.0.1:8091" toml:"server.addr" env:"SERVER_ADDR"`

	// Sidecar settings
	SidecarName  string `help:"Sidecar executable name" default:"backend_server" toml:"sidecar.name" env:"SIDECAR_NAME"`
	SidecarPath  string `help:"Explicit sidecar executable path" default:"" toml:"sidecar.path" env:"SIDECAR_PATH"`
	SidecarArgs  string `help:"Extra sidecar arguments, shell quoted" default:"" toml:"sidecar.args" env:"SIDECAR_ARGS"`
	ForceSidecar bool   `help:"Spawn the sidecar even in debug builds" default:"false" toml:"sidecar.force" env:"FORCE_SIDECAR"`

	// Development backend settings
	DevPort       int    `help:"Port of the externally started dev backend" default:"8000" toml:"dev.port" env:"DEV_PORT"`
	DevReadyDelay string `help:"Delay before announcing the dev backend" default:"1s" toml:"dev.ready_delay" env:"DEV_READY_DELAY"`

	// Port query settings
	QueryTimeout  string `help:"Default wait for the backend port" default:"5s" toml:"query.timeout" env:"QUERY_TIMEOUT"`
	QueryInterval string `help:"Polling interval while waiting for the port" default:"100ms" toml:"query.interval" env:"QUERY_INTERVAL"`

	// Auth settings
	AuthUsername string `help:"Basic auth username, empty disables auth" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingBackend string `help:"Backend supervisor logging level" default:"info" toml:"logging.backend" env:"LOGGING_BACKEND"`
	LoggingHost    string `help:"Host window logging level" default:"info" toml:"logging.host" env:"LOGGING_HOST"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingSidecar string `help:"Sidecar output logging level" default:"info" toml:"logging.sidecar" env:"LOGGING_SIDECAR"`
}

func parseDuration(logger logging.Logger, name, value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		logger.Warn("Invalid duration, using default", "option", name, "value", value, "default", fallback)
		return fallback
	}
	return d
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			logging.GetLogger("main").Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"backend": opts.LoggingBackend,
				"host":    opts.LoggingHost,
				"api":     opts.LoggingAPI,
				"sidecar": opts.LoggingSidecar,
			},
		})

		logger := logging.GetLogger("main")

		// Create event bus for in-process event handling
		eventBus := events.New()
		api.ForwardLogs(eventBus)

		state := backend.NewState()
		mode := backend.ResolveMode(version.IsRelease(), opts.ForceSidecar)

		sidecarArgs, argsErr := process.ParseArgs(opts.SidecarArgs)
		if argsErr != nil {
			logger.Warn("Ignoring invalid sidecar arguments", "args", opts.SidecarArgs, "error", argsErr)
			sidecarArgs = nil
		}

		devPort := opts.DevPort
		if devPort <= 0 || devPort > 65535 {
			logger.Warn("Invalid dev port, using default", "dev_port", devPort)
			devPort = backend.DefaultDevPort
		}

		supervisor := backend.NewSupervisor(state, backend.Options{
			Mode:          mode,
			SidecarName:   opts.SidecarName,
			SidecarPath:   opts.SidecarPath,
			SidecarArgs:   sidecarArgs,
			DevPort:       uint16(devPort),
			DevReadyDelay: parseDuration(logger, "dev.ready_delay", opts.DevReadyDelay, backend.DefaultDevReadyDelay),
			Events:        eventBus,
			Logger:        logging.GetLogger("backend"),
			OutputLogger:  logging.GetLogger("sidecar"),
		})

		orchestrator := backend.NewOrchestrator(
			state,
			process.NewNameKiller(logging.GetLogger("backend")),
			opts.SidecarName,
			eventBus,
			logging.GetLogger("backend"),
		)

		window := host.NewWindow(func(w *host.Window, req *host.CloseRequest) {
			orchestrator.HandleCloseRequested(w, req)
		}, logging.GetLogger("host"))

		server := api.NewServer(&api.Options{
			Backend:           supervisor,
			Window:            window,
			EventBus:          eventBus,
			QueryInterval:     parseDuration(logger, "query.interval", opts.QueryInterval, backend.DefaultQueryInterval),
			QueryTimeout:      parseDuration(logger, "query.timeout", opts.QueryTimeout, backend.DefaultQueryTimeout),
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			PrometheusHandler: exporters.HTTPHandler(),
		})

		// Log levels follow edits to the config file without a restart.
		watcher := config.NewConfigWatcher(opts.Config, config.LoadLoggingConfig, logger)
		watcher.OnReload(func(cfg logging.Config) {
			logging.SetLevels(cfg)
			logger.Info("Logging levels reloaded", "level", cfg.Level)
		})

		stopped := make(chan struct{})

		hooks.OnStart(func() {
			defer close(stopped)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			logger.Info("Starting sidecarhost",
				"version", version.String(),
				"build_mode", version.BuildMode,
				"mode", mode.String())

			if _, statErr := os.Stat(opts.Config); statErr == nil {
				if startErr := watcher.Start(); startErr != nil {
					logger.Warn("Failed to watch config file", "path", opts.Config, "error", startErr)
				}
			}

			go window.Run()

			go func() {
				logger.Info("Starting HTTP server", "addr", opts.Addr)
				if startErr := server.Start(opts.Addr); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
					logger.Error("Failed to start HTTP server", "error", startErr)
				}
			}()

			if launchErr := supervisor.Launch(ctx); launchErr != nil {
				logger.Error("Backend unavailable", "mode", mode.String(), "error", launchErr)
			}

			<-window.Done()

			logger.Info("Window closed, shutting down")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Signal received, closing window")
			window.RequestClose("signal")
			select {
			case <-stopped:
			case <-time.After(10 * time.Second):
				logger.Warn("Timed out waiting for shutdown")
			}
		})
	})

	cli.Root().Use = "sidecarhost"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreatePortCmd())
	cli.Root().AddCommand(cmd.CreateKillStrayCmd(func() backend.NameKiller {
		return process.NewNameKiller(logging.GetLogger("process"))
	}))
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	// Run the CLI
	cli.Run()
}
