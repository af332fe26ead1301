package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/librescoot/stepseq"
	"github.com/librescoot/stepseq/concepts"
	"github.com/librescoot/stepseq/internal/config"
	"github.com/librescoot/stepseq/internal/logs"
	"github.com/librescoot/stepseq/internal/tui"
	"github.com/librescoot/stepseq/narration"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "conceptplay:", err)
		os.Exit(1)
	}
}

func run() error {
	configPtr := flag.String("config", "", "Config file (CUE); conceptplay.cue in the working or user config directory is also read")
	conceptPtr := flag.String("concept", "", "Concept to open, e.g. token or softmax")
	listPtr := flag.Bool("list", false, "List the concepts and exit")
	narrationPtr := flag.String("narration", "", "Narration engine: none, reading or command")
	commandPtr := flag.String("command", "", "Speech synthesizer for -narration command (default "+narration.DefaultCommand+")")
	scriptsPtr := flag.String("scripts", "", "Directory with extra concept scripts (*.yaml)")
	logFilePtr := flag.String("log-file", "", "Log file")
	logDebugPtr := flag.Bool("log-debug", false, "Log at debug level")
	flag.Parse()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	paths := config.Search(*configPtr)
	cfg, err := config.Load(config.NewLoader(paths))
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "concept":
			cfg.Concept = *conceptPtr
		case "narration":
			cfg.Narration = *narrationPtr
		case "command":
			cfg.Command = *commandPtr
		case "scripts":
			cfg.Scripts = *scriptsPtr
		case "log-file":
			cfg.LogFile = *logFilePtr
		case "log-debug":
			if *logDebugPtr {
				cfg.LogLevel = "debug"
			}
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The terminal belongs to the presenter, so logs go to a file
	logFile, err := logs.OpenFile(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	if err := logs.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	logger := logs.New(logs.Options{Writer: logFile, Journal: true})
	stepseq.Logger = logger
	narration.Logger = logger
	concepts.Logger = logger

	if len(paths) > 0 {
		logger.Info("config file", "paths", paths)
	}

	catalog, err := concepts.Default()
	if err != nil {
		return err
	}
	if cfg.Scripts != "" {
		if err := catalog.LoadDir(cfg.Scripts); err != nil {
			return fmt.Errorf("load scripts: %w", err)
		}
	}

	if *listPtr {
		for _, c := range catalog.List() {
			fmt.Printf("%-16s %-20s %s\n", c.ID, c.Title, c.Subtitle)
		}
		return nil
	}

	if _, err := catalog.Get(cfg.Concept); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bridge := new(tui.Bridge)
	adapter := narration.New(
		newEngine(cfg, logger, bridge),
		narration.WithLogger(logger),
		narration.WithPreferences(preferences(cfg)),
	)
	narrated := cfg.Narration != config.NarrationNone

	open := func(c *concepts.Concept, observe func(stepseq.Snapshot)) (tui.Session, error) {
		seq, err := c.Sequence(narrated, nil)
		if err != nil {
			return nil, err
		}
		opts := []stepseq.Option{
			stepseq.WithLogger(logger.With("concept", c.ID)),
			stepseq.WithObserver(observe),
			stepseq.WithData(c),
		}
		if narrated {
			opts = append(opts, stepseq.WithNarrator(adapter))
		}
		logger.Info("concept opened", "concept", c.ID, "steps", seq.Len(), "narrated", narrated)
		return stepseq.New(ctx, seq, opts...), nil
	}

	model := tui.New(catalog, open,
		tui.WithInitial(cfg.Concept),
		tui.WithAutoplay(cfg.AutoStart),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	// presenter
	g.Go(func() error {
		defer cancel()
		return tui.Run(ctx, model, bridge, tea.WithAltScreen())
	})

	// silence narration on the way out
	g.Go(func() error {
		<-ctx.Done()
		adapter.Stop()
		return nil
	})

	// reload the log level on SIGHUP
	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-hup:
				reloadLevel(paths, logger)
			}
		}
	})

	return g.Wait()
}

func newEngine(cfg config.Config, logger *slog.Logger, bridge *tui.Bridge) narration.Engine {
	reading := func() narration.Engine {
		e := narration.NewReading(cfg.WordsPerSecond)
		e.OnSpeak = func(u narration.Utterance) {
			bridge.Caption(u.Text)
		}
		return e
	}

	switch cfg.Narration {
	case config.NarrationCommand:
		e := narration.NewCommand(cfg.Command, logger)
		if e.Available() {
			return e
		}
		logger.Warn("speech synthesizer not found, reading narration silently", "command", e.Path)
		return reading()
	case config.NarrationReading:
		return reading()
	}
	return narration.Unavailable{}
}

func preferences(cfg config.Config) narration.Preferences {
	prefs := narration.DefaultPreferences()
	if len(cfg.Voice.Names) > 0 {
		prefs.Voices = cfg.Voice.Names
	}
	if cfg.Voice.Lang != "" {
		prefs.Lang = cfg.Voice.Lang
	}
	prefs.Rate = cfg.Voice.Rate
	prefs.Pitch = cfg.Voice.Pitch
	prefs.Volume = cfg.Voice.Volume
	return prefs
}

func reloadLevel(paths []string, logger *slog.Logger) {
	cfg, err := config.Load(config.NewLoader(paths))
	if err == nil {
		err = cfg.ApplyEnv(os.Getenv)
	}
	if err == nil {
		err = logs.SetLevel(cfg.LogLevel)
	}
	if err != nil {
		logger.Warn("reload log level", "error", err)
		return
	}
	logger.Info("log level reloaded", "level", logs.Level())
}
