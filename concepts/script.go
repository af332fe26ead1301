// Package concepts holds the lesson scripts played by the sequencer: one YAML
// script per AI concept, each a list of timed or narrated reveal steps.
package concepts

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/librescoot/stepseq"
	"gopkg.in/yaml.v3"
)

// ErrUnknownConcept is returned when a concept id is not in the catalog
var ErrUnknownConcept = errors.New("unknown concept")

// Logger is the default logger used when none is provided
var Logger = slog.Default()

// Script is the on-disk form of a concept
type Script struct {
	ID       string         `yaml:"id"`
	Title    string         `yaml:"title"`
	Subtitle string         `yaml:"subtitle"`
	Category string         `yaml:"category"`
	Data     map[string]any `yaml:"data"`
	Steps    []ScriptStep   `yaml:"steps"`
}

// ScriptStep is one reveal. When played with narration, a step with Narrate
// fires after the text has been spoken; otherwise it fires AfterMS after the
// previous step.
type ScriptStep struct {
	Name    string   `yaml:"name"`
	AfterMS int      `yaml:"after_ms"`
	Narrate string   `yaml:"narrate"`
	Show    []string `yaml:"show"`
}

// Concept is a parsed, validated script ready to play and render
type Concept struct {
	Script

	shows [][]*template.Template
}

// Parse decodes and validates a YAML script. name is used in error messages.
func Parse(name string, data []byte) (*Concept, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return compile(name, s)
}

func compile(name string, s Script) (*Concept, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("%s: missing id", name)
	}
	if s.Title == "" {
		s.Title = s.ID
	}
	if s.Data == nil {
		s.Data = map[string]any{}
	}

	c := &Concept{Script: s, shows: make([][]*template.Template, len(s.Steps))}
	for i, step := range s.Steps {
		if step.AfterMS < 0 {
			return nil, fmt.Errorf("%s: step %d (%s): negative after_ms %d", name, i, step.Name, step.AfterMS)
		}
		for j, line := range step.Show {
			tmpl, err := template.New(fmt.Sprintf("%s/%d/%d", s.ID, i, j)).
				Funcs(funcs).
				Option("missingkey=error").
				Parse(line)
			if err != nil {
				return nil, fmt.Errorf("%s: step %d (%s): %w", name, i, step.Name, err)
			}
			c.shows[i] = append(c.shows[i], tmpl)
		}
	}

	// Every reveal must render before the concept is accepted
	for i := range s.Steps {
		if _, err := c.render(i); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	return c, nil
}

// Len returns the number of steps
func (c *Concept) Len() int {
	return len(c.Steps)
}

// Narrated reports whether any step carries narration
func (c *Concept) Narrated() bool {
	for _, step := range c.Steps {
		if strings.TrimSpace(step.Narrate) != "" {
			return true
		}
	}
	return false
}

// Sequence compiles the script for a sequencer. With narrated set, steps that
// carry narration wait for their text to be spoken instead of their delay.
// onStep, if non-nil, is called from each step's effect with the step index.
func (c *Concept) Sequence(narrated bool, onStep func(index int)) (*stepseq.Sequence, error) {
	steps := make([]stepseq.Step, 0, len(c.Steps))
	for _, step := range c.Steps {
		trigger := stepseq.After(time.Duration(step.AfterMS) * time.Millisecond)
		if narrated && strings.TrimSpace(step.Narrate) != "" {
			trigger = stepseq.Narrate(step.Narrate)
		}

		opts := []stepseq.StepOption{stepseq.WithName(step.Name)}
		if onStep != nil {
			opts = append(opts, stepseq.WithEffect(func(ctx *stepseq.Context) {
				onStep(ctx.Index)
			}))
		}
		steps = append(steps, stepseq.NewStep(trigger, opts...))
	}

	seq, err := stepseq.NewSequence(steps...)
	if err != nil {
		return nil, fmt.Errorf("concept %s: %w", c.ID, err)
	}
	return seq, nil
}

// Render returns the lines visible once step index has been reached. Lines of
// earlier steps stay visible and are rendered against the current progress, so
// a line can grow as the lesson advances. A show line that renders empty is
// omitted. Index -1 renders nothing.
func (c *Concept) Render(index int) []string {
	lines, err := c.render(index)
	if err != nil {
		// Every index was rendered once at load time
		Logger.Debug("render failed", "concept", c.ID, "index", index, "error", err)
	}
	return lines
}

func (c *Concept) render(index int) ([]string, error) {
	if index >= len(c.Steps) {
		index = len(c.Steps) - 1
	}

	dot := make(map[string]any, len(c.Data)+2)
	for k, v := range c.Data {
		dot[k] = v
	}
	dot["step"] = index
	dot["total"] = len(c.Steps)

	var lines []string
	var b strings.Builder
	for i := 0; i <= index; i++ {
		for _, tmpl := range c.shows[i] {
			b.Reset()
			if err := tmpl.Execute(&b, dot); err != nil {
				return lines, fmt.Errorf("step %d (%s): %w", i, c.Steps[i].Name, err)
			}
			out := strings.TrimRight(b.String(), "\n")
			if out == "" {
				continue
			}
			lines = append(lines, strings.Split(out, "\n")...)
		}
	}
	return lines, nil
}
