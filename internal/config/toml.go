// Package config provides configuration helpers and TOML/YAML parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/Aditya-nis/EyeTalk/internal/decoder"
)

// FileConfig represents the configuration file.
type FileConfig struct {
	Decoder DecoderConfig `toml:"decoder" yaml:"decoder"`
	Session SessionConfig `toml:"session" yaml:"session"`
	Table   TableConfig   `toml:"table" yaml:"table"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

// DecoderConfig maps the blink thresholds. Values are Go durations such as "80ms" or "1.2s".
type DecoderConfig struct {
	ShortBlink  *string `toml:"short-blink" yaml:"short-blink"`
	LongBlink   *string `toml:"long-blink" yaml:"long-blink"`
	LetterPause *string `toml:"letter-pause" yaml:"letter-pause"`
	WordPause   *string `toml:"word-pause" yaml:"word-pause"`
}

// SessionConfig maps live session settings.
type SessionConfig struct {
	SampleInterval *string `toml:"sample-interval" yaml:"sample-interval"`
	QueueSize      *int    `toml:"queue-size" yaml:"queue-size"`
	Record         *bool   `toml:"record" yaml:"record"`
	History        *int    `toml:"history" yaml:"history"`
	Drill          *bool   `toml:"drill" yaml:"drill"`
}

// TableConfig maps symbol table settings.
type TableConfig struct {
	Letters *bool   `toml:"letters" yaml:"letters"`
	Extra   *string `toml:"extra" yaml:"extra"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level" yaml:"level"`
	File  *string `toml:"file" yaml:"file"`
}

// LoadConfig reads a config from the given path. Files ending in .yaml or .yml are decoded as
// YAML, everything else as TOML. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
		}
	}
	return cfg, nil
}

// ParseDuration parses an optional duration value. A nil value reports ok=false.
func ParseDuration(name string, value *string) (time.Duration, bool, error) {
	if value == nil {
		return 0, false, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*value))
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s %q: %w", name, *value, err)
	}
	return d, true, nil
}

// Apply overrides the thresholds set in the file on top of base and validates the result.
func (c DecoderConfig) Apply(base decoder.Config) (decoder.Config, error) {
	fields := []struct {
		name   string
		value  *string
		target *time.Duration
	}{
		{"short-blink", c.ShortBlink, &base.ShortBlinkMin},
		{"long-blink", c.LongBlink, &base.LongBlinkMin},
		{"letter-pause", c.LetterPause, &base.LetterPause},
		{"word-pause", c.WordPause, &base.WordPause},
	}
	for _, f := range fields {
		d, ok, err := ParseDuration(f.name, f.value)
		if err != nil {
			return decoder.Config{}, err
		}
		if ok {
			*f.target = d
		}
	}
	if err := base.Validate(); err != nil {
		return decoder.Config{}, err
	}
	return base, nil
}
