package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gregLibert/desfire-monitor/pkg/config"
	"github.com/gregLibert/desfire-monitor/pkg/desfire"
	"github.com/gregLibert/desfire-monitor/pkg/hexfmt"
	"github.com/gregLibert/desfire-monitor/pkg/lifecycle"
	"github.com/gregLibert/desfire-monitor/pkg/logging"
	"github.com/gregLibert/desfire-monitor/pkg/pcsc"
	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
)

// Set at build time with -ldflags "-X main.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	cfg := config.Default()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid environment: %v\n", err)
		os.Exit(2)
	}

	versionFlag := flag.Bool("version", false, "Print version information and exit")
	cfg.RegisterFlags(flag.CommandLine)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "desfire-monitor - reads a DESFire application file on every card tap\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  desfire-monitor [flags]\n")
		fmt.Fprintf(os.Stderr, "  desfire-monitor version\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEvery flag can also be set as %s<NAME> (e.g. %sAID=7080F4).\n",
			config.EnvPrefix, config.EnvPrefix)
	}
	flag.Parse()

	if *versionFlag || flag.Arg(0) == "version" {
		printVersion()
		return
	}
	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration:\n%v\n", err)
		os.Exit(2)
	}

	os.Exit(run(cfg))
}

func printVersion() {
	fmt.Printf("desfire-monitor %s\n", Version)
	fmt.Printf("Git commit: %s\n", GitCommit)
}

func run(cfg config.Config) int {
	log, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: logging.Format(cfg.LogFormat),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging setup failed: %v\n", err)
		return 2
	}

	defer setupErrorReporting(cfg, log)()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pctx, err := pcsc.Establish()
	if err != nil {
		log.WithError(err).Error("PC/SC unavailable")
		return 1
	}
	defer func() {
		if err := pctx.Release(); err != nil {
			log.WithError(err).Warn("Failed to release PC/SC context")
		}
	}()

	readers, err := pctx.Readers()
	if err != nil {
		log.WithError(err).Error("No smart card reader found")
		return 1
	}
	reader, err := pcsc.SelectReader(readers, cfg.Reader)
	if err != nil {
		log.WithError(err).WithField("readers", readers).Error("Configured reader not found")
		return 1
	}

	watcher, err := pcsc.Watch(reader, cfg.Poll)
	if err != nil {
		log.WithError(err).Error("Cannot watch reader")
		return 1
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.WithError(err).Warn("Failed to release watch context")
		}
	}()

	log.WithFields(logrus.Fields{
		"reader":  reader,
		"aid":     cfg.AID.String(),
		"file":    cfg.FileNumber,
		"framing": cfg.Framing,
	}).Info("Waiting for cards")

	lc := lifecycle.New(
		lifecycle.Target{
			AID:        cfg.AID,
			FileNumber: byte(cfg.FileNumber),
			Offset:     uint32(cfg.Offset),
			Length:     uint32(cfg.Length),
		},
		newReporter(cfg, log).report,
		lifecycle.WithLogger(log),
		lifecycle.WithSessionOptions(
			desfire.WithFraming(cfg.FramingMode()),
			desfire.WithMaxFrames(cfg.MaxFrames),
			desfire.WithLogger(log),
		),
	)
	monitor := lifecycle.NewMonitor(reader, watcher, pctx.Connector(reader), log)

	events := make(chan lifecycle.Event)
	monitorErr := make(chan error, 1)
	go func() {
		defer close(events)
		monitorErr <- monitor.Run(ctx, events)
	}()

	if err := lc.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("Card lifecycle stopped")
	}

	if err := <-monitorErr; err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("Reader monitor stopped")
		return 1
	}

	log.Info("Shutting down")
	return 0
}

// setupErrorReporting starts Sentry when a DSN is configured and returns the
// flush to run on exit. Failures only downgrade to local logging.
func setupErrorReporting(cfg config.Config, log *logrus.Logger) func() {
	if err := logging.InitSentry(logging.SentryOptions{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     Version,
	}); err != nil {
		log.WithError(err).Warn("Error reporting disabled")
	}
	if !logging.SentryEnabled() {
		return func() {}
	}
	if err := logging.AttachSentry(log); err != nil {
		log.WithError(err).Warn("Sentry hook not attached")
	}
	return func() { logging.FlushSentry(2 * time.Second) }
}

// reporter prints every outcome and applies the optional file outputs.
type reporter struct {
	cfg config.Config
	log logrus.FieldLogger
}

func newReporter(cfg config.Config, log logrus.FieldLogger) *reporter {
	return &reporter{cfg: cfg, log: log}
}

func (r *reporter) report(o lifecycle.Outcome) {
	fmt.Println(o.Describe())

	if l, ok := r.log.(*logrus.Logger); ok && l.IsLevelEnabled(logrus.DebugLevel) {
		r.log.Debugf("Outcome: %# v", pretty.Formatter(o))
	}

	if !o.Succeeded() || o.File == nil {
		return
	}

	if r.cfg.FieldWidth > 0 {
		v, err := hexfmt.BigEndian(o.File, int(r.cfg.FieldOffset), int(r.cfg.FieldWidth))
		if err != nil {
			r.log.WithError(err).Warn("Cannot decode numeric field")
		} else {
			fmt.Printf("[=] Field [%d:%d]: %d\n", r.cfg.FieldOffset, r.cfg.FieldOffset+r.cfg.FieldWidth, v)
		}
	}

	if r.cfg.DumpPath != "" {
		if err := writeDump(r.cfg.DumpPath, o.File); err != nil {
			r.log.WithError(err).WithField("path", r.cfg.DumpPath).Error("Failed to write dump")
			return
		}
		r.log.WithFields(logrus.Fields{"path": r.cfg.DumpPath, "length": len(o.File)}).Info("File dumped")
	}
}

// writeDump replaces path atomically: readers never see a partial file.
func writeDump(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
