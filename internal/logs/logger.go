package logs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

// JournalSocket is where systemd-journald listens
const JournalSocket = "/run/systemd/journal/socket"

var level = new(slog.LevelVar)

// SetLevel sets the level shared by every logger from New
func SetLevel(name string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	level.Set(l)
	return nil
}

// Level returns the current level
func Level() slog.Level {
	return level.Level()
}

type Options struct {
	// Writer receives text logs. Nil writes nothing locally.
	Writer io.Writer
	// Journal also sends logs to systemd-journald when its socket exists
	Journal bool
}

func New(opts Options) *slog.Logger {
	var handlers []slog.Handler

	// local
	var textHandler slog.Handler
	if opts.Writer != nil {
		textHandler = slog.NewTextHandler(
			opts.Writer,
			&slog.HandlerOptions{
				Level: level,
			},
		)
		handlers = append(handlers, textHandler)
	}

	// systemd journal
	if opts.Journal && journalAvailable() {
		journalHandler, err := slogjournal.NewHandler(&slogjournal.Options{
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			if textHandler != nil {
				record := slog.NewRecord(time.Now(), slog.LevelWarn, "new systemd journal handler", 0)
				record.Add("error", err)
				_ = textHandler.Handle(context.Background(), record)
			}
		} else {
			handlers = append(handlers, journalHandler)
		}
	}

	return slog.New(slogmulti.Fanout(handlers...))
}

// OpenFile opens path for appending, creating its directory
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

func journalAvailable() bool {
	_, err := os.Stat(JournalSocket)
	return err == nil
}

func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	str = strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' ||
			r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
	return str
}
