// Package config loads run settings for property tests from propcheck.yaml
// and PROPTEST_* environment variables.
//
// Every setting is optional. An unset value leaves the corresponding
// setting of the property test untouched.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shipq/propcheck/logging"
	"github.com/shipq/propcheck/proptest"
)

// Environment variables read by FromEnv.
const (
	EnvSeed       = "PROPTEST_SEED"
	EnvMaxTests   = "PROPTEST_MAX_TESTS"
	EnvMaxShrinks = "PROPTEST_MAX_SHRINKS"
	EnvTimeout    = "PROPTEST_TIMEOUT"
	EnvCorpus     = "PROPTEST_CORPUS"
	EnvLog        = "PROPTEST_LOG"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Duration is a wrapper around time.Duration for YAML serialization.
type Duration struct {
	time.Duration
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// Settings are the user-tunable run settings.
type Settings struct {
	// MaxTests overrides the number of generated cases.
	MaxTests int `yaml:"max_tests,omitempty"`

	// MaxShrinks overrides the shrink probe budget.
	MaxShrinks int `yaml:"max_shrinks,omitempty"`

	// Timeout overrides the per-execution property timeout.
	Timeout Duration `yaml:"timeout,omitempty"`

	// Seed pins the random seed for every test.
	Seed *int64 `yaml:"seed,omitempty"`

	// MinSize and MaxSize override the size ramp. Both must be set.
	MinSize *int `yaml:"min_size,omitempty"`
	MaxSize *int `yaml:"max_size,omitempty"`

	// CorpusURL is the failure corpus database, e.g. sqlite://.propcheck/corpus.db.
	CorpusURL string `yaml:"corpus_url,omitempty"`

	// LogFormat is one of json, pretty, text or none.
	LogFormat string `yaml:"log_format,omitempty"`
}

// Validate reports every invalid setting.
func (s Settings) Validate() error {
	var errs []error
	if s.MaxTests < 0 {
		errs = append(errs, fmt.Errorf("%w: max_tests must not be negative, got %d", ErrInvalid, s.MaxTests))
	}
	if s.MaxShrinks < 0 {
		errs = append(errs, fmt.Errorf("%w: max_shrinks must not be negative, got %d", ErrInvalid, s.MaxShrinks))
	}
	if s.Timeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("%w: timeout must not be negative, got %s", ErrInvalid, s.Timeout))
	}
	if (s.MinSize == nil) != (s.MaxSize == nil) {
		errs = append(errs, fmt.Errorf("%w: min_size and max_size must be set together", ErrInvalid))
	} else if s.MinSize != nil && (*s.MinSize < 0 || *s.MaxSize < *s.MinSize) {
		errs = append(errs, fmt.Errorf("%w: invalid size range [%d, %d]", ErrInvalid, *s.MinSize, *s.MaxSize))
	}
	switch s.LogFormat {
	case "", logging.FormatJSON, logging.FormatPretty, logging.FormatText, logging.FormatNone:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown log_format %q", ErrInvalid, s.LogFormat))
	}
	return errors.Join(errs...)
}

// Parse decodes and validates YAML settings.
func Parse(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Load reads settings from path. A missing file yields empty settings.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("failed to read settings file '%s': %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("settings file '%s': %w", path, err)
	}
	return s, nil
}

// LoadDefault loads propcheck.yaml for the current directory (see Locate)
// and applies environment overrides.
func LoadDefault() (Settings, error) {
	s := Settings{}
	if cwd, err := os.Getwd(); err == nil {
		if path, ok := Locate(cwd); ok {
			if s, err = Load(path); err != nil {
				return Settings{}, err
			}
		}
	}
	return FromEnv(s, os.LookupEnv)
}

// FromEnv overlays PROPTEST_* variables on s. Empty variables are ignored.
// lookup is usually os.LookupEnv.
func FromEnv(s Settings, lookup func(string) (string, bool)) (Settings, error) {
	var errs []error
	intVar := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, v))
				return
			}
			*dst = n
		}
	}

	if v, ok := lookup(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, EnvSeed, v))
		} else {
			s.Seed = &seed
		}
	}
	intVar(EnvMaxTests, &s.MaxTests)
	intVar(EnvMaxShrinks, &s.MaxShrinks)
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvTimeout, v, err))
		} else {
			s.Timeout = Duration{d}
		}
	}
	if v, ok := lookup(EnvCorpus); ok && v != "" {
		s.CorpusURL = v
	}
	if v, ok := lookup(EnvLog); ok && v != "" {
		s.LogFormat = v
	}

	if len(errs) > 0 {
		return Settings{}, errors.Join(errs...)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Apply returns a copy of t with the settings applied. t is not modified.
func (s Settings) Apply(t *proptest.PropertyTest) *proptest.PropertyTest {
	out := t.WithLimits(s.MaxTests, s.MaxShrinks).WithTimeout(s.Timeout.Duration)
	if s.MinSize != nil && s.MaxSize != nil {
		out = out.WithSizeRange(*s.MinSize, *s.MaxSize)
	}
	if s.Seed != nil {
		out = out.WithSeed(*s.Seed)
	}
	return out
}

// Logger returns a logger for the configured format writing to w.
func (s Settings) Logger(w io.Writer) (*slog.Logger, error) {
	return logging.New(s.LogFormat, w, slog.LevelInfo)
}

// Marshal renders the settings as YAML.
func (s Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
