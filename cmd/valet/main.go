package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/valet/internal/config"
	"github.com/edvin/valet/internal/host"
	"github.com/edvin/valet/internal/logging"
	"github.com/edvin/valet/internal/metrics"
	"github.com/edvin/valet/internal/phpfpm"
)

type command func(ctx context.Context, fpm *phpfpm.FPM, out io.Writer) error

var commands = map[string]command{
	"install": func(ctx context.Context, fpm *phpfpm.FPM, _ io.Writer) error {
		return fpm.Install(ctx)
	},
	"uninstall": func(ctx context.Context, fpm *phpfpm.FPM, _ io.Writer) error {
		return fpm.Uninstall(ctx)
	},
	"restart": func(ctx context.Context, fpm *phpfpm.FPM, _ io.Writer) error {
		return fpm.Restart(ctx)
	},
	"stop": func(ctx context.Context, fpm *phpfpm.FPM, _ io.Writer) error {
		return fpm.Stop(ctx)
	},
	"config-path": func(_ context.Context, fpm *phpfpm.FPM, out io.Writer) error {
		dir, err := fpm.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, dir)
		return nil
	},
	"service-name": func(ctx context.Context, fpm *phpfpm.FPM, out io.Writer) error {
		name, err := fpm.ServiceName(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, name)
		return nil
	},
	"version": func(_ context.Context, fpm *phpfpm.FPM, out io.Writer) error {
		fmt.Fprintln(out, fpm.Version())
		return nil
	},
}

func main() {
	fs := flag.NewFlagSet("valet", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML configuration file (default: "+config.DefaultPath+")")
	logLevel := fs.String("log-level", "", "Log level, overrides LOG_LEVEL")
	fs.Usage = printUsage
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, fs.Arg(0), *configPath, *logLevel, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, name, configPath, logLevel string, stdout, stderr io.Writer) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command: %s (want one of %s)", name, strings.Join(commandNames(), ", "))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.NewLogger(stderr, cfg)

	fpm, err := newFPM(ctx, logger, cfg, stdout)
	if err != nil {
		return err
	}

	ops := metrics.NewOperations()
	started := time.Now()
	err = cmd(ctx, fpm, stdout)
	ops.Observe(name, started, err)

	if cfg.MetricsTextfile != "" {
		if werr := ops.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			logger.Warn().Err(werr).Str("path", cfg.MetricsTextfile).Msg("could not write metrics textfile")
		}
	}

	if err != nil {
		logger.Error().Err(err).Str("command", name).Str("result", metrics.Classify(err)).Msg("command failed")
		return err
	}
	logger.Debug().Str("command", name).Dur("elapsed", time.Since(started)).Msg("command finished")
	return nil
}

func newFPM(ctx context.Context, logger zerolog.Logger, cfg *config.Config, installerOut io.Writer) (*phpfpm.FPM, error) {
	pm, err := host.DetectPackageManager(logger, cfg.PackageManager, installerOut)
	if err != nil {
		return nil, err
	}
	sm, err := host.DetectServiceManager(logger, cfg.ServiceManager)
	if err != nil {
		return nil, err
	}

	settings := phpfpm.Settings{
		User:         cfg.User,
		HomePath:     cfg.HomePath,
		LogDir:       cfg.LogDir,
		Version:      cfg.PHPVersion,
		TemplatePath: cfg.FPMTemplate,
	}
	return phpfpm.New(ctx, logger, settings, pm, sm, host.NewCommandLine(logger), host.NewFilesystem(logger))
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  valet [-config FILE] [-log-level LEVEL] <command>

Commands:
  install        Install php-fpm if needed, write the valet pool config and restart
  uninstall      Remove the valet pool config (if present) and restart
  restart        Restart the php-fpm service
  stop           Stop the php-fpm service
  config-path    Print the resolved php-fpm pool directory
  service-name   Print the resolved php-fpm service name
  version        Print the targeted PHP version

Flags:
  -config string     Path to YAML configuration file (default: /etc/valet/config.yaml)
  -log-level string  Log level, overrides LOG_LEVEL

Environment:
  VALET_USER, VALET_HOME_PATH, VALET_LOG_DIR, VALET_PHP_VERSION,
  VALET_FPM_TEMPLATE, VALET_PACKAGE_MANAGER, VALET_SERVICE_MANAGER,
  VALET_METRICS_TEXTFILE, LOG_LEVEL`)
}
