// Package config loads the permmatch heuristics and ambient settings.
//
// Precedence, highest first:
//  1. Environment variables with the PM_ prefix
//  2. The YAML config file
//  3. Built-in defaults
//
// Environment variables map onto keys by splitting off the section:
//
//	PM_MATCH_SNIPPET_RADIUS    -> match.snippet_radius
//	PM_EXTRACT_MAX_SIZE        -> extract.max_size
//	PM_MATCH_KEYWORDS_REMOVE   -> match.keywords.remove
//	PM_LOG_LEVEL               -> log.level
//
// List values in the environment are comma separated.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/daviddao/permmatch/internal/extract"
	"github.com/daviddao/permmatch/internal/logging"
	"github.com/daviddao/permmatch/internal/match"
	"github.com/daviddao/permmatch/internal/report"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "PM_"

	// FileName is the config file looked up under .permmatch/.
	FileName = "config.yaml"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Config is the full runtime configuration.
type Config struct {
	Match   match.Config   `koanf:"match" yaml:"match"`
	Extract extract.Config `koanf:"extract" yaml:"extract"`
	Report  report.Config  `koanf:"report" yaml:"report"`
	Log     logging.Config `koanf:"log" yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Match:   match.DefaultConfig(),
		Extract: extract.DefaultConfig(),
		Report:  report.DefaultConfig(),
		Log:     logging.DefaultConfig(),
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults, err := Default().YAML()
	if err != nil {
		return nil, err
	}
	if err := k.Load(rawbytes.Provider(defaults), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		content, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	return io.ReadAll(f)
}

// listKeys are split on commas when set from the environment.
var listKeys = map[string]bool{
	"match.manager_keywords":     true,
	"match.header_prefixes":      true,
	"match.keywords.add":         true,
	"match.keywords.remove":      true,
	"match.keywords.modify":      true,
	"match.exclusions":           true,
	"extract.allowed_extensions": true,
}

func envValue(name, value string) (string, any) {
	key := envKey(name)
	if key == "" || !listKeys[key] {
		return key, value
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

// envKey maps PM_SECTION_FIELD_NAME to section.field_name. The keywords
// block of the match section is nested one level deeper.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok || field == "" {
		return ""
	}
	if section == "match" {
		if rest, ok := strings.CutPrefix(field, "keywords_"); ok {
			return "match.keywords." + rest
		}
	}
	return section + "." + field
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	var errs []error
	m := c.Match
	if m.ManagerWindowBefore < 0 || m.ManagerWindowAfter < 0 {
		errs = append(errs, errors.New("match: manager windows must not be negative"))
	}
	if m.SnippetRadius < 0 {
		errs = append(errs, errors.New("match.snippet_radius must not be negative"))
	}
	if len(m.Keywords.Add)+len(m.Keywords.Remove)+len(m.Keywords.Modify) == 0 {
		errs = append(errs, errors.New("match.keywords: at least one keyword is required"))
	}
	if c.Extract.MaxSize <= 0 {
		errs = append(errs, errors.New("extract.max_size must be positive"))
	}
	if len(c.Extract.AllowedExtensions) == 0 {
		errs = append(errs, errors.New("extract.allowed_extensions must not be empty"))
	}
	if c.Report.ResultsSheet == "" || c.Report.DecisionSheet == "" {
		errs = append(errs, errors.New("report: sheet names must not be empty"))
	} else if c.Report.ResultsSheet == c.Report.DecisionSheet {
		errs = append(errs, errors.New("report: results and decision sheets must differ"))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// YAML renders the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	out, err := yamlv3.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}

// Discover finds .permmatch/config.yaml by walking up from cwd. Returns
// empty string if not found.
func Discover() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".permmatch", FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// WriteDefault writes the default configuration to path, refusing to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := Default().YAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
