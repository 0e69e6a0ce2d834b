package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetDefaults(t *testing.T) {
	c := &Config{}
	c.SetDefaults()
	if c.Generate.TopName != "Struct" {
		t.Fatalf("expected Struct, got %s", c.Generate.TopName)
	}
	if c.Generate.Indent != "  " {
		t.Fatalf("expected two-space indent")
	}
	if c.Generate.MaxDepth != 64 {
		t.Fatalf("expected max depth 64")
	}
	if c.Server.Port != 3000 {
		t.Fatalf("expected port 3000")
	}
	if c.Server.Host != "127.0.0.1" {
		t.Fatalf("expected default host")
	}
	if c.Log.Level != "info" {
		t.Fatalf("expected info level")
	}
	if c.Store.Path == "" {
		t.Fatalf("expected default store path")
	}
}

func TestLoadFromYAML(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	content := "yapi:\n  base_url: https://yapi.example.com\ngenerate:\n  top_name: Resp\n  discard_top: true\n  indent: \"\\t\"\nserver:\n  port: 8080\noutput:\n  dir: ./out\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.YApi.BaseURL != "https://yapi.example.com" {
		t.Fatalf("unexpected base url %s", cfg.YApi.BaseURL)
	}
	if cfg.Generate.TopName != "Resp" || !cfg.Generate.DiscardTop || cfg.Generate.Indent != "\t" {
		t.Fatalf("unexpected generate config %+v", cfg.Generate)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("unexpected port %d", cfg.Server.Port)
	}
	if cfg.Generate.MaxDepth != 64 {
		t.Fatalf("defaults should survive partial config")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APIDECL_YAPI_BASE_URL", "https://env.example.com")
	t.Setenv("APIDECL_DISCARD_TOP", "true")
	t.Setenv("APIDECL_SERVER_PORT", "9090")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.YApi.BaseURL != "https://env.example.com" || !cfg.Generate.DiscardTop || cfg.Server.Port != 9090 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	c := &Config{}
	c.SetDefaults()
	c.Output.Dir = t.TempDir()
	if err := c.ValidateOutput(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if err := c.ValidateFetch(); err == nil {
		t.Fatalf("expected fetch validation error without base url")
	}
	c.YApi.BaseURL = "https://yapi.example.com"
	if err := c.ValidateFetch(); err != nil {
		t.Fatalf("fetch validation failed: %v", err)
	}

	c.Output.Formats = []string{"openapi"}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected unknown format error")
	}
	c.Output.Formats = []string{"typescript"}
	c.Generate.Indent = "--"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected indent error")
	}
}

func TestTransformOptions(t *testing.T) {
	c := &Config{}
	c.Generate.Export = true
	c.Generate.InlineNested = true
	c.SetDefaults()
	opts := c.TransformOptions()
	if opts.TopName != "Struct" || opts.MaxDepth != 64 || !opts.InlineNested {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.Render.Indent != "  " || !opts.Render.Export {
		t.Fatalf("unexpected render options %+v", opts.Render)
	}
}
