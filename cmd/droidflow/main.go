package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/soochol/droidflow/internal/cli"
	"github.com/soochol/droidflow/internal/config"
	"github.com/soochol/droidflow/internal/device/adb"
	"github.com/soochol/droidflow/internal/device/fake"
	"github.com/soochol/droidflow/internal/droidflow"
	"github.com/soochol/droidflow/internal/droidflow/ports"
	"github.com/soochol/droidflow/internal/logging"
	"github.com/soochol/droidflow/internal/notify"
	"github.com/soochol/droidflow/internal/registry"
	"github.com/soochol/droidflow/internal/secret"
	"github.com/soochol/droidflow/internal/services"
	"github.com/soochol/droidflow/internal/workflows/script"

	_ "github.com/soochol/droidflow/internal/workflows/hello" // auto-register
)

const dryRunSerial = "dry-run"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	return runWithInput(args, os.Stdin, stdout, stderr)
}

func runWithInput(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// A missing .env is fine; variables already set take precedence.
	_ = godotenv.Load()

	logging.Setup(stderr, logging.Options{NoColor: os.Getenv("NO_COLOR") != ""})

	appCfg, err := config.LoadDefault()
	if err != nil {
		slog.Error("config error", "err", err)
		return 1
	}
	debug := appCfg.Log.Debug
	if debug {
		logging.Setup(stderr, logging.Options{Debug: true, NoColor: os.Getenv("NO_COLOR") != ""})
	}

	reg := registry.New(
		registry.WithSources(registry.DefaultCatalog(), script.NewLoader()),
		registry.WithExtraRoots(appCfg.Workflows.ExtraRoots...),
	)

	parser, err := cli.NewParser("droidflow", reg, cli.WithOutput(stderr))
	if err != nil {
		slog.Error("workflow discovery failed", "err", err)
		return 1
	}
	opts, err := parser.Parse(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		slog.Error("invalid arguments", "err", err)
		fmt.Fprintln(stderr, "Run 'droidflow --help' for usage.")
		return 1
	}
	if opts.Debug && !debug {
		logging.Setup(stderr, logging.Options{Debug: true, NoColor: os.Getenv("NO_COLOR") != ""})
	}

	if opts.List {
		infos, err := reg.List()
		if err != nil {
			slog.Error("listing workflows failed", "err", err)
			return 1
		}
		cli.PrintList(stdout, infos)
		return 0
	}

	box, err := secret.NewBox(os.Getenv(secret.EnvKey))
	if err != nil {
		slog.Error("secret key error", "err", err)
		return 1
	}
	if opts.SealSecret {
		return sealSecret(box, stdin, stdout)
	}

	cfg := opts.RunConfig()
	// Unknown workflow names are fatal before any device interaction.
	if _, err := reg.Lookup(cfg.Workflow); err != nil {
		slog.Error("configuration error", "err", err)
		return 1
	}

	notifier, err := buildNotifier(opts, appCfg, box)
	if err != nil {
		slog.Error("notification config error", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, err := services.NewOrchestrator(ctx, cfg, buildDriver(opts, appCfg), reg, notifier,
		services.WithSettle(appCfg.Device.Settle),
		services.WithRewakeAfter(appCfg.Device.RewakeAfter),
		services.WithUnlockSwipe(appCfg.Device.UnlockSwipe),
		services.WithLockedPackage(appCfg.Device.LockedPackage),
	)
	if err != nil {
		slog.Error("device unavailable", "err", err)
		return 1
	}

	result, err := orch.Run(ctx)
	if err != nil {
		slog.Error("notification failed", "run_id", orch.RunID(), "err", err)
		return 1
	}
	return result.ExitCode()
}

func buildDriver(opts *cli.Options, appCfg *config.Config) ports.DeviceDriver {
	if opts.DryRun {
		serial := opts.DeviceID
		if serial == "" {
			serial = dryRunSerial
		}
		dev := fake.NewDevice(serial)
		dev.SetState(droidflow.DeviceState{ScreenOn: true, Foreground: fake.LauncherPackage})
		return fake.NewDriver(dev)
	}
	return adb.NewDriver(adb.ExecRunner{
		Path:    appCfg.Device.ADBPath,
		Timeout: appCfg.Device.CommandTimeout,
	})
}

func buildNotifier(opts *cli.Options, appCfg *config.Config, box *secret.Box) (ports.Notifier, error) {
	if opts.NoNotify || opts.DryRun {
		return notify.Discard{}, nil
	}
	path := opts.NotifyConfig
	if path == "" {
		path = appCfg.Notify.Path
	}
	mcfg, err := notify.LoadConfig(path)
	if err != nil {
		// Only the default location may be absent; a supplied path must exist.
		if errors.Is(err, os.ErrNotExist) && path == config.DefaultMessagingPath {
			slog.Warn("messaging config not found, notifications disabled", "path", path)
			return notify.Discard{}, nil
		}
		return nil, fmt.Errorf("%w: %w", droidflow.ErrConfiguration, err)
	}
	if err := mcfg.OpenSecrets(box); err != nil {
		return nil, err
	}
	senders := notify.DefaultSenders(&http.Client{Timeout: 15 * time.Second})
	return notify.NewNotifier(mcfg.Channels, senders, notify.WithRetryPolicy(notify.DefaultRetryPolicy)), nil
}

func sealSecret(box *secret.Box, stdin io.Reader, stdout io.Writer) int {
	data, err := io.ReadAll(stdin)
	if err != nil {
		slog.Error("reading secret", "err", err)
		return 1
	}
	sealed, err := box.Seal(strings.TrimRight(string(data), "\r\n"))
	if err != nil {
		slog.Error("sealing secret", "err", err)
		return 1
	}
	fmt.Fprintln(stdout, sealed)
	return 0
}
