package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Narration engines
const (
	NarrationNone    = "none"
	NarrationReading = "reading"
	NarrationCommand = "command"
)

// EnvPrefix prefixes the environment overrides, e.g. CONCEPTPLAY_CONCEPT
const EnvPrefix = "CONCEPTPLAY_"

type Config struct {
	Concept        string  `json:"concept"`
	Narration      string  `json:"narration"`
	Command        string  `json:"command"`
	WordsPerSecond float64 `json:"words_per_second"`
	Scripts        string  `json:"scripts"`
	AutoStart      bool    `json:"autostart"`
	LogFile        string  `json:"log_file"`
	LogLevel       string  `json:"log_level"`
	Voice          Voice   `json:"voice"`
}

type Voice struct {
	Names  []string `json:"names"`
	Lang   string   `json:"lang"`
	Rate   float64  `json:"rate"`
	Pitch  float64  `json:"pitch"`
	Volume float64  `json:"volume"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Concept:        "token",
		Narration:      NarrationReading,
		WordsPerSecond: 2.5,
		AutoStart:      true,
		LogFile:        filepath.Join(os.TempDir(), "conceptplay.log"),
		LogLevel:       "info",
		Voice: Voice{
			Lang:   "en",
			Rate:   0.9,
			Pitch:  1.1,
			Volume: 1.0,
		},
	}
}

// Load reads the first value for every key from the loader's files on top of
// the defaults
func Load(loader Loader) (Config, error) {
	cfg := Default()

	fields := []struct {
		path   string
		target any
	}{
		{"concept", &cfg.Concept},
		{"narration", &cfg.Narration},
		{"command", &cfg.Command},
		{"words_per_second", &cfg.WordsPerSecond},
		{"scripts", &cfg.Scripts},
		{"autostart", &cfg.AutoStart},
		{"log_file", &cfg.LogFile},
		{"log_level", &cfg.LogLevel},
		{"voice.names", &cfg.Voice.Names},
		{"voice.lang", &cfg.Voice.Lang},
		{"voice.rate", &cfg.Voice.Rate},
		{"voice.pitch", &cfg.Voice.Pitch},
		{"voice.volume", &cfg.Voice.Volume},
	}
	for _, f := range fields {
		if err := Assign(loader, f.path, f.target); err != nil {
			return cfg, fmt.Errorf("config %s: %w", f.path, err)
		}
	}

	return cfg, nil
}

// ApplyEnv overrides fields from CONCEPTPLAY_* variables
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, target *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*target = v
		}
	}
	num := func(key string, target *float64) error {
		v := getenv(EnvPrefix + key)
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*target = f
		return nil
	}

	str("CONCEPT", &c.Concept)
	str("NARRATION", &c.Narration)
	str("COMMAND", &c.Command)
	str("SCRIPTS", &c.Scripts)
	str("LOG_FILE", &c.LogFile)
	str("LOG_LEVEL", &c.LogLevel)
	str("VOICE_LANG", &c.Voice.Lang)

	if v := getenv(EnvPrefix + "VOICE_NAMES"); v != "" {
		c.Voice.Names = strings.Split(v, ",")
	}
	if v := getenv(EnvPrefix + "AUTOSTART"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sAUTOSTART: %w", EnvPrefix, err)
		}
		c.AutoStart = b
	}

	for key, target := range map[string]*float64{
		"WORDS_PER_SECOND": &c.WordsPerSecond,
		"VOICE_RATE":       &c.Voice.Rate,
		"VOICE_PITCH":      &c.Voice.Pitch,
		"VOICE_VOLUME":     &c.Voice.Volume,
	} {
		if err := num(key, target); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks values that may have bypassed the schema, e.g. from flags or
// the environment
func (c Config) Validate() error {
	switch c.Narration {
	case NarrationNone, NarrationReading, NarrationCommand:
	default:
		return fmt.Errorf("narration must be none, reading or command, got %q", c.Narration)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.WordsPerSecond <= 0 {
		return fmt.Errorf("words per second must be positive, got %v", c.WordsPerSecond)
	}
	if c.Voice.Rate <= 0 {
		return fmt.Errorf("voice rate must be positive, got %v", c.Voice.Rate)
	}
	if c.Voice.Volume < 0 || c.Voice.Volume > 1 {
		return fmt.Errorf("voice volume must be within 0 and 1, got %v", c.Voice.Volume)
	}
	return nil
}
