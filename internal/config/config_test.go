package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Templates.Dir != DefaultTemplatesDir {
		t.Errorf("Templates.Dir = %q, want %q", cfg.Templates.Dir, DefaultTemplatesDir)
	}
	if !cfg.Templates.Cache {
		t.Error("Templates.Cache should default to true")
	}
	if cfg.Static.Prefix != DefaultStaticPrefix {
		t.Errorf("Static.Prefix = %q, want %q", cfg.Static.Prefix, DefaultStaticPrefix)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Test loading non-existent config
	_, err := Load(tmpDir)
	if err == nil {
		t.Error("Expected error for missing config")
	}
	if !strings.Contains(err.Error(), "E061") {
		t.Errorf("Expected E061 error, got: %v", err)
	}

	// Create a config file
	configPath := filepath.Join(tmpDir, ConfigFileName)
	configJSON := `{
  "name": "demo",
  "server": {
    "port": 8080,
    "host": "0.0.0.0",
    "maxSessions": 50
  },
  "templates": {
    "dir": "views",
    "cache": false
  },
  "static": {
    "dir": "assets"
  },
  "log": {
    "level": "debug"
  }
}
`
	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	// Load the config
	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Name != "demo" {
		t.Errorf("Name = %q, want %q", cfg.Name, "demo")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.MaxSessions != 50 {
		t.Errorf("Server.MaxSessions = %d, want %d", cfg.Server.MaxSessions, 50)
	}
	if cfg.Templates.Dir != "views" {
		t.Errorf("Templates.Dir = %q, want %q", cfg.Templates.Dir, "views")
	}
	if cfg.Templates.Cache {
		t.Error("Templates.Cache should be false when set explicitly")
	}
	if cfg.Templates.Ext != DefaultTemplateExt {
		t.Errorf("Templates.Ext = %q, want default %q", cfg.Templates.Ext, DefaultTemplateExt)
	}
	if cfg.Static.Dir != "assets" {
		t.Errorf("Static.Dir = %q, want %q", cfg.Static.Dir, "assets")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, YAMLConfigFileName)
	configYAML := `name: demo
server:
  port: 4000
  host: 0.0.0.0
templates:
  dir: views
log:
  level: warn
`
	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Name != "demo" {
		t.Errorf("Name = %q, want %q", cfg.Name, "demo")
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 4000)
	}
	if cfg.Templates.Dir != "views" {
		t.Errorf("Templates.Dir = %q, want %q", cfg.Templates.Dir, "views")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}
	// Defaults still apply to untouched sections.
	if cfg.Static.Dir != DefaultStaticDir {
		t.Errorf("Static.Dir = %q, want default %q", cfg.Static.Dir, DefaultStaticDir)
	}
}

func TestLoadPrefersJSON(t *testing.T) {
	tmpDir := t.TempDir()

	jsonPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(jsonPath, []byte(`{"name": "from-json"}`), 0644); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(tmpDir, YAMLConfigFileName)
	if err := os.WriteFile(yamlPath, []byte("name: from-yaml\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Name != "from-json" {
		t.Errorf("Name = %q, want %q", cfg.Name, "from-json")
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	// Write invalid JSON
	if err := os.WriteFile(configPath, []byte("not valid json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(configPath)
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "E060") {
		t.Errorf("Expected E060 error, got: %v", err)
	}
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, YAMLConfigFileName)

	if err := os.WriteFile(configPath, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(configPath)
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "E060") {
		t.Errorf("Expected E060 error, got: %v", err)
	}
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "loom.toml")

	if err := os.WriteFile(configPath, []byte("port = 3000"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(configPath)
	if err == nil {
		t.Error("Expected error for unsupported extension")
	}
	if !strings.Contains(err.Error(), "E063") {
		t.Errorf("Expected E063 error, got: %v", err)
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := New()
	cfg.Server.Port = 9000
	cfg.Name = "saved"

	// Save should fail without configPath set
	err := cfg.Save()
	if err == nil {
		t.Error("Expected error when saving without path")
	}

	// SaveTo should work
	err = cfg.SaveTo(configPath)
	if err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	// Reload and verify
	loaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if loaded.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d", loaded.Server.Port, 9000)
	}
	if loaded.Name != "saved" {
		t.Errorf("Name = %q, want %q", loaded.Name, "saved")
	}

	// Now Save should work
	loaded.Server.Port = 9001
	err = loaded.Save()
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}

	// Reload again
	reloaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if reloaded.Server.Port != 9001 {
		t.Errorf("Server.Port = %d, want %d", reloaded.Server.Port, 9001)
	}
}

func TestSaveYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, YAMLConfigFileName)

	cfg := New()
	cfg.Server.Port = 9100
	cfg.Name = "yaml-saved"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	loaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want %d", loaded.Server.Port, 9100)
	}
	if loaded.Name != "yaml-saved" {
		t.Errorf("Name = %q, want %q", loaded.Name, "yaml-saved")
	}
}

func TestValidate(t *testing.T) {
	cfg := New()

	// Valid config
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate should pass for valid config: %v", err)
	}

	// Invalid port
	cfg.Server.Port = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should fail for negative port")
	}

	cfg.Server.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should fail for port > 65535")
	}

	// Invalid log level
	cfg = New()
	cfg.Log.Level = "verbose"
	err := cfg.Validate()
	if err == nil {
		t.Error("Validate should fail for unknown log level")
	}
	if !strings.Contains(err.Error(), "E065") {
		t.Errorf("Expected E065 error, got: %v", err)
	}

	// Invalid log format
	cfg = New()
	cfg.Log.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should fail for unknown log format")
	}
}

func TestAddress(t *testing.T) {
	cfg := New()
	cfg.Server.Port = 8080
	cfg.Server.Host = "0.0.0.0"

	addr := cfg.Address()
	if addr != "0.0.0.0:8080" {
		t.Errorf("Address = %q, want %q", addr, "0.0.0.0:8080")
	}
}

func TestURL(t *testing.T) {
	cfg := New()

	url := cfg.URL()
	if url != "http://localhost:3000" {
		t.Errorf("URL = %q, want %q", url, "http://localhost:3000")
	}

	cfg.Server.HTTPS = true
	url = cfg.URL()
	if url != "https://localhost:3000" {
		t.Errorf("URL with HTTPS = %q, want %q", url, "https://localhost:3000")
	}
}

func TestPaths(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := New()
	cfg.SaveTo(configPath)

	// Test relative paths
	if got := cfg.TemplatesPath(); got != filepath.Join(tmpDir, "templates") {
		t.Errorf("TemplatesPath = %q, want %q", got, filepath.Join(tmpDir, "templates"))
	}
	if got := cfg.StaticPath(); got != filepath.Join(tmpDir, "public") {
		t.Errorf("StaticPath = %q, want %q", got, filepath.Join(tmpDir, "public"))
	}

	// Test absolute paths
	cfg.Templates.Dir = "/absolute/templates"
	if got := cfg.TemplatesPath(); got != "/absolute/templates" {
		t.Errorf("TemplatesPath absolute = %q, want %q", got, "/absolute/templates")
	}
	cfg.Static.Dir = "/absolute/static"
	if got := cfg.StaticPath(); got != "/absolute/static" {
		t.Errorf("StaticPath absolute = %q, want %q", got, "/absolute/static")
	}
}

func TestHasS3(t *testing.T) {
	cfg := New()

	if cfg.HasS3() {
		t.Error("HasS3 should be false by default")
	}

	cfg.Templates.S3.Bucket = "my-templates"
	if !cfg.HasS3() {
		t.Error("HasS3 should be true when a bucket is set")
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	if Exists(tmpDir) {
		t.Error("Exists should be false for empty directory")
	}

	// Create config file
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	if !Exists(tmpDir) {
		t.Error("Exists should be true after creating config")
	}

	// YAML-only directory counts too
	yamlDir := t.TempDir()
	yamlPath := filepath.Join(yamlDir, YAMLConfigFileName)
	if err := os.WriteFile(yamlPath, []byte("name: x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !Exists(yamlDir) {
		t.Error("Exists should be true for a loom.yaml-only directory")
	}
}

func TestFindProjectRoot(t *testing.T) {
	// Create nested directory structure
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "a", "b", "c")
	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatal(err)
	}

	// Should fail when no config exists
	_, err := FindProjectRoot(nestedDir)
	if err == nil {
		t.Error("FindProjectRoot should fail when no config exists")
	}

	// Create config in root
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	// Should find root from nested directory
	root, err := FindProjectRoot(nestedDir)
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	if root != tmpDir {
		t.Errorf("FindProjectRoot = %q, want %q", root, tmpDir)
	}

	// Should find root from middle directory
	root, err = FindProjectRoot(filepath.Join(tmpDir, "a"))
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	if root != tmpDir {
		t.Errorf("FindProjectRoot = %q, want %q", root, tmpDir)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Templates.Dir != DefaultTemplatesDir {
		t.Errorf("Templates.Dir = %q, want %q", cfg.Templates.Dir, DefaultTemplatesDir)
	}
	if cfg.Static.Prefix != DefaultStaticPrefix {
		t.Errorf("Static.Prefix = %q, want %q", cfg.Static.Prefix, DefaultStaticPrefix)
	}

	// Top-level port seeds the server section
	cfg = &Config{Port: 8088}
	cfg.applyDefaults()
	if cfg.Server.Port != 8088 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8088)
	}
}
