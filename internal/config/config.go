package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yourorg/apidecl/internal/transform"
)

const (
	defaultConfigRelPath = ".apidecl/config.yaml"
	defaultStoreRelPath  = ".apidecl/apidecl.db"
)

type YApiConfig struct {
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

type GenerateConfig struct {
	TopName             string `yaml:"top_name"`
	DiscardTop          bool   `yaml:"discard_top"`
	Export              bool   `yaml:"export"`
	Indent              string `yaml:"indent"`
	MaxDepth            int    `yaml:"max_depth"`
	DescriptionFallback bool   `yaml:"description_fallback"`
	InlineNested        bool   `yaml:"inline_nested"`
}

type OutputConfig struct {
	Dir     string   `yaml:"dir"`
	Formats []string `yaml:"formats"`
}

type FilterConfig struct {
	IgnoreExtensions   []string `yaml:"ignore_extensions"`
	IgnoreContentTypes []string `yaml:"ignore_content_types"`
	IgnorePaths        []string `yaml:"ignore_paths"`
}

type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	CORSExtensionID string `yaml:"cors_extension_id"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	YApi     YApiConfig     `yaml:"yapi"`
	Generate GenerateConfig `yaml:"generate"`
	Output   OutputConfig   `yaml:"output"`
	Filter   FilterConfig   `yaml:"filter"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
}

// Load loads YAML config, then applies env overrides.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		configPath = filepath.Join(home, defaultConfigRelPath)
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.SetDefaults()
	return cfg, nil
}

func (c *Config) SetDefaults() {
	if c.YApi.TimeoutSeconds == 0 {
		c.YApi.TimeoutSeconds = 30
	}
	if c.YApi.MaxRetries == 0 {
		c.YApi.MaxRetries = 3
	}
	if c.Generate.TopName == "" {
		c.Generate.TopName = "Struct"
	}
	if c.Generate.Indent == "" {
		c.Generate.Indent = "  "
	}
	if c.Generate.MaxDepth == 0 {
		c.Generate.MaxDepth = 64
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
	if len(c.Output.Formats) == 0 {
		c.Output.Formats = []string{"typescript"}
	}
	if len(c.Filter.IgnoreExtensions) == 0 {
		c.Filter.IgnoreExtensions = []string{".js", ".css", ".png", ".jpg", ".gif", ".svg", ".woff", ".woff2", ".ico", ".map"}
	}
	if len(c.Filter.IgnoreContentTypes) == 0 {
		c.Filter.IgnoreContentTypes = []string{"text/html", "text/css", "image/*", "font/*", "application/javascript"}
	}
	if len(c.Filter.IgnorePaths) == 0 {
		c.Filter.IgnorePaths = []string{"/static/", "/assets/", "/favicon"}
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Store.Path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Store.Path = filepath.Join(home, defaultStoreRelPath)
		} else {
			c.Store.Path = "apidecl.db"
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output.Dir) == "" {
		return errors.New("output.dir cannot be empty")
	}
	for _, f := range c.Output.Formats {
		switch f {
		case "typescript", "markdown":
		default:
			return fmt.Errorf("output.formats: unknown format %q", f)
		}
	}
	if c.Generate.MaxDepth < 0 {
		return errors.New("generate.max_depth cannot be negative")
	}
	if strings.TrimSpace(c.Generate.Indent) != "" {
		return errors.New("generate.indent must be whitespace")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return nil
}

// ValidateFetch enforces requirements for commands that call YApi.
func (c *Config) ValidateFetch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.YApi.BaseURL) == "" {
		return errors.New("yapi.base_url cannot be empty")
	}
	return nil
}

// ValidateOutput checks that output.dir is writable.
func (c *Config) ValidateOutput() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := ensureWritableDir(c.Output.Dir); err != nil {
		return fmt.Errorf("output.dir not writable: %w", err)
	}
	return nil
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func applyEnvOverrides(c *Config) {
	setString(&c.YApi.BaseURL, "APIDECL_YAPI_BASE_URL")
	setString(&c.YApi.Token, "APIDECL_YAPI_TOKEN")
	setInt(&c.YApi.TimeoutSeconds, "APIDECL_YAPI_TIMEOUT_SECONDS")
	setString(&c.Generate.TopName, "APIDECL_TOP_NAME")
	setBool(&c.Generate.DiscardTop, "APIDECL_DISCARD_TOP")
	setInt(&c.Generate.MaxDepth, "APIDECL_MAX_DEPTH")
	setString(&c.Output.Dir, "APIDECL_OUTPUT_DIR")
	setString(&c.Server.Host, "APIDECL_SERVER_HOST")
	setInt(&c.Server.Port, "APIDECL_SERVER_PORT")
	setString(&c.Store.Path, "APIDECL_STORE_PATH")
	setString(&c.Log.Level, "APIDECL_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// TransformOptions returns the transform settings from the generate section.
func (c *Config) TransformOptions() transform.Options {
	return transform.Options{
		TopName:             c.Generate.TopName,
		DiscardTop:          c.Generate.DiscardTop,
		InlineNested:        c.Generate.InlineNested,
		DescriptionFallback: c.Generate.DescriptionFallback,
		MaxDepth:            c.Generate.MaxDepth,
		Render: transform.RenderOptions{
			Indent: c.Generate.Indent,
			Export: c.Generate.Export,
		},
	}
}
