package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const appName = "openrouter-inspector"

var help = map[string]string{
	"api-key":        "OpenRouter API key. Prefer the OPENROUTER_API_KEY environment variable.",
	"base-url":       "OpenRouter API base URL.",
	"timeout":        "HTTP timeout for listing requests.",
	"max-retries":    "Maximum number of times to retry listing requests.",
	"cache":          "Cache API responses on disk.",
	"cache-ttl":      "How long cached API responses stay fresh.",
	"cache-path":     "Directory for cached responses and snapshots.",
	"concurrency":    "Parallel endpoint requests when counting providers (1-16).",
	"format":         "Output format: table, json, yaml or markdown.",
	"quiet":          "Quiet mode (hide the spinner while loading).",
	"config-file":    "Read settings from this file (.yml, .yaml, .json or .toml).",
	"debug":          "Log requests, cache hits and snapshot writes to stderr.",
	"copy":           "Also copy the output to the clipboard.",
	"no-cache":       "Skip the response cache for this run.",
	"settings":       "Open settings in your $EDITOR.",
	"reset-settings": "Backup your old settings file and reset everything to the defaults.",
	"version":        "Show version and exit.",
	"help":           "Show help and exit.",
	"list":           "List models, optionally filtered by the arguments and --search.",
	"search":         "Search models by id or name.",
	"min-context":    "Minimum context window (accepts 128K, 1M or 131072).",
	"tools":          "Only show entries supporting tool calling.",
	"no-tools":       "Only show entries without tool calling.",
	"reasoning":      "Only show entries supporting reasoning.",
	"no-reasoning":   "Only show entries without reasoning.",
	"img":            "Only show entries accepting image input.",
	"no-img":         "Only show entries without image input.",
	"with-providers": "Count the active providers of each model.",
	"sort-by":        "Sort column.",
	"desc":           "Sort in descending order.",
	"no-diff":        "Do not compare against the previous snapshot.",
	"max-price":      "Maximum price per token for any pricing entry.",
	"provider":       "Only show offers from this provider (repeatable).",
	"min-quant":      "Minimum quantization (fp8, bf16, int4...). Unspecified passes.",
	"max-price-in":   "Maximum input price in $ per 1M tokens.",
	"max-price-out":  "Maximum output price in $ per 1M tokens.",
	"min-uptime":     "Minimum uptime over the last 30 minutes, in percent.",
	"count":          "Number of pings to send.",
	"ping-timeout":   "Per request timeout (plain integers are seconds).",
	"interval":       "Wait between pings.",
	"responses":      "Also drop cached API responses.",
}

// Config holds the main configuration and is mapped to the YAML settings file.
type Config struct {
	APIKey       string  `yaml:"api-key" env:"API_KEY"`
	BaseURL      string  `yaml:"base-url" env:"BASE_URL"`
	Timeout      seconds `yaml:"timeout" env:"TIMEOUT"`
	MaxRetries   int     `yaml:"max-retries" env:"MAX_RETRIES"`
	CacheEnabled bool    `yaml:"cache" env:"CACHE_ENABLED"`
	CacheTTL     seconds `yaml:"cache-ttl" env:"CACHE_TTL"`
	CachePath    string  `yaml:"cache-path" env:"CACHE_PATH"`
	Concurrency  int     `yaml:"concurrency" env:"CONCURRENCY"`
	Format       string  `yaml:"format" env:"FORMAT"`
	Quiet        bool    `yaml:"quiet" env:"QUIET"`

	SettingsPath  string `yaml:"-"`
	Debug         bool   `yaml:"-"`
	Copy          bool   `yaml:"-"`
	NoCache       bool   `yaml:"-"`
	Settings      bool   `yaml:"-"`
	ResetSettings bool   `yaml:"-"`
	List          bool   `yaml:"-"`
	Search        string `yaml:"-"`
}

// seconds is a duration that also accepts plain integers as seconds.
type seconds time.Duration

func (s seconds) String() string {
	return time.Duration(s).String()
}

func (s seconds) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *seconds) UnmarshalText(b []byte) error {
	d, err := parseDuration(string(b))
	if err != nil {
		return err
	}
	*s = seconds(d)
	return nil
}

func (s *seconds) UnmarshalYAML(node *yaml.Node) error {
	return s.UnmarshalText([]byte(node.Value))
}

// Output formats.
const (
	formatTable    = "table"
	formatJSON     = "json"
	formatYAML     = "yaml"
	formatMarkdown = "markdown"
)

var outputFormats = []string{formatTable, formatJSON, formatYAML, formatMarkdown}

func defaultConfig() Config {
	return Config{
		BaseURL:      "https://openrouter.ai/api/v1",
		Timeout:      seconds(30 * time.Second), //nolint:mnd
		MaxRetries:   2,                         //nolint:mnd
		CacheEnabled: true,
		CacheTTL:     seconds(5 * time.Minute), //nolint:mnd
		Concurrency:  4,                        //nolint:mnd
		Format:       formatTable,
	}
}

// ensureConfig loads the settings file (creating the default one when
// configFile is empty), then .env and the OPENROUTER_ environment.
func ensureConfig(configFile string) (Config, error) {
	c := defaultConfig()

	sp := configFile
	if sp == "" {
		var err error
		sp, err = xdg.ConfigFile(filepath.Join(appName, "config.yml"))
		if err != nil {
			return c, inspectorError{err, "Could not find settings path."}
		}
		if err := os.MkdirAll(filepath.Dir(sp), 0o700); err != nil { //nolint:mnd
			return c, inspectorError{err, "Could not create settings directory."}
		}
		if err := writeConfigFile(sp); err != nil {
			return c, err
		}
	}
	c.SettingsPath = sp

	content, err := os.ReadFile(sp)
	if err != nil {
		return c, inspectorError{err, "Could not read settings file."}
	}
	if err := decodeSettings(sp, content, &c); err != nil {
		return c, inspectorError{err, "Could not parse settings file."}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, inspectorError{err, "Could not read .env file."}
	}

	if err := env.ParseWithOptions(&c, env.Options{Prefix: "OPENROUTER_"}); err != nil {
		return c, inspectorError{err, "Could not parse environment into settings."}
	}

	if c.CachePath == "" {
		c.CachePath = filepath.Join(xdg.CacheHome, appName)
	}
	return c, nil
}

// decodeSettings decodes YAML (and therefore JSON) settings, or TOML ones
// when the file has a .toml or .tml extension. Keys may use underscores.
func decodeSettings(path string, content []byte, c *Config) error {
	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		if err := toml.Unmarshal(content, &raw); err != nil {
			return fmt.Errorf("toml: %w", err)
		}
	default:
		if err := yaml.Unmarshal(content, &raw); err != nil {
			return fmt.Errorf("yaml: %w", err)
		}
	}
	norm := make(map[string]any, len(raw))
	for k, v := range raw {
		norm[strings.ReplaceAll(strings.ToLower(k), "_", "-")] = v
	}
	bts, err := yaml.Marshal(norm)
	if err != nil {
		return fmt.Errorf("yaml: %w", err)
	}
	return yaml.Unmarshal(bts, c) //nolint:wrapcheck
}

// configFileArg finds --config-file in args before flags are parsed.
func configFileArg(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			return ""
		}
		if v, ok := strings.CutPrefix(arg, "--config-file="); ok {
			return v
		}
		if arg == "--config-file" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func validateConfig(c Config) error {
	for _, f := range outputFormats {
		if c.Format == f {
			return nil
		}
	}
	return inspectorError{
		err:    newUserErrorf("Unknown format %q, expected one of: %s.", c.Format, strings.Join(outputFormats, ", ")),
		reason: "Invalid output format.",
	}
}

func writeConfigFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return createConfigFile(path)
	} else if err != nil {
		return inspectorError{err, "Could not stat path."}
	}
	return nil
}

func createConfigFile(path string) error {
	tmpl := template.Must(template.New("config").Parse(configTemplate))

	f, err := os.Create(path)
	if err != nil {
		return inspectorError{err, "Could not create configuration file."}
	}
	defer func() { _ = f.Close() }()

	m := struct {
		Config Config
		Help   map[string]string
	}{
		Config: defaultConfig(),
		Help:   help,
	}
	if err := tmpl.Execute(f, m); err != nil {
		return inspectorError{err, "Could not render template."}
	}
	return nil
}
