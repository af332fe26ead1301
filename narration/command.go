package narration

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// DefaultCommand is the synthesizer used when none is configured
const DefaultCommand = "espeak-ng"

// Command speaks through an external synthesizer process, one process per
// utterance. Pause and resume suspend the process where the platform allows it.
type Command struct {
	Path string
	// Args builds the argument list for an utterance; the text is written to stdin.
	// Nil uses espeak-ng style flags.
	Args func(u Utterance) []string

	logger *slog.Logger

	mu  sync.Mutex
	cur *process

	voicesOnce sync.Once
	voices     []Voice
}

// process is one running synthesizer
type process struct {
	cmd       *exec.Cmd
	cancelled bool
	once      sync.Once
	done      func(error)
}

func (p *process) finish(err error) {
	p.once.Do(func() {
		p.done(err)
	})
}

// NewCommand creates an engine running path; empty path uses DefaultCommand
func NewCommand(path string, logger *slog.Logger) *Command {
	if path == "" {
		path = DefaultCommand
	}
	if logger == nil {
		logger = Logger
	}
	return &Command{Path: path, logger: logger}
}

func (c *Command) Available() bool {
	_, err := exec.LookPath(c.Path)
	return err == nil
}

// Voices lists the synthesizer's voices, asking it once
func (c *Command) Voices() []Voice {
	c.voicesOnce.Do(func() {
		out, err := exec.Command(c.Path, "--voices").Output()
		if err != nil {
			c.logger.Debug("listing voices failed", "command", c.Path, "error", err)
			return
		}
		c.voices = parseVoices(out)
	})
	return c.voices
}

func (c *Command) Speak(u Utterance, done func(error)) {
	c.Cancel()

	args := espeakArgs(u)
	if c.Args != nil {
		args = c.Args(u)
	}

	cmd := exec.Command(c.Path, args...)
	cmd.Stdin = strings.NewReader(u.Text)

	if err := cmd.Start(); err != nil {
		go done(fmt.Errorf("start %s: %w", c.Path, err))
		return
	}

	p := &process{cmd: cmd, done: done}
	c.mu.Lock()
	c.cur = p
	c.mu.Unlock()

	c.logger.Debug("synthesizer started", "command", c.Path, "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()

		c.mu.Lock()
		cancelled := p.cancelled
		if c.cur == p {
			c.cur = nil
		}
		c.mu.Unlock()

		if cancelled {
			err = ErrInterrupted
		} else if err != nil {
			err = fmt.Errorf("%s: %w", c.Path, err)
		}
		p.finish(err)
	}()
}

func (c *Command) Cancel() {
	c.mu.Lock()
	p := c.cur
	c.cur = nil
	if p != nil {
		p.cancelled = true
	}
	c.mu.Unlock()

	if p == nil {
		return
	}
	// A suspended process must be continued to act on the kill promptly
	_ = continueProcess(p.cmd.Process)
	if err := p.cmd.Process.Kill(); err != nil {
		c.logger.Debug("kill synthesizer failed", "error", err)
	}
}

func (c *Command) Pause() {
	c.mu.Lock()
	p := c.cur
	c.mu.Unlock()

	if p == nil {
		return
	}
	if err := suspendProcess(p.cmd.Process); err != nil {
		c.logger.Debug("pause synthesizer failed", "error", err)
	}
}

func (c *Command) Resume() {
	c.mu.Lock()
	p := c.cur
	c.mu.Unlock()

	if p == nil {
		return
	}
	if err := continueProcess(p.cmd.Process); err != nil {
		c.logger.Debug("resume synthesizer failed", "error", err)
	}
}

// espeakArgs maps utterance settings onto espeak-ng flags: speed in words per
// minute (175 normal), pitch 0-99 (50 normal), amplitude 0-200 (100 normal).
func espeakArgs(u Utterance) []string {
	args := []string{"--stdin"}
	if u.Voice.Lang != "" {
		args = append(args, "-v", u.Voice.Lang)
	}
	if u.Rate > 0 {
		args = append(args, "-s", strconv.Itoa(int(175*u.Rate)))
	}
	if u.Pitch > 0 {
		args = append(args, "-p", strconv.Itoa(clamp(int(50*u.Pitch), 0, 99)))
	}
	if u.Volume > 0 {
		args = append(args, "-a", strconv.Itoa(clamp(int(100*u.Volume), 0, 200)))
	}
	return args
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// parseVoices reads the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  en-gb           --/M      English_(Great_Britain) gmw/en  (en 2)
func parseVoices(out []byte) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		v := Voice{
			Lang: fields[1],
			Name: strings.ReplaceAll(fields[3], "_", " "),
		}
		if _, gender, ok := strings.Cut(fields[2], "/"); ok && gender != "-" {
			v.Gender = gender
		}
		voices = append(voices, v)
	}
	return voices
}
