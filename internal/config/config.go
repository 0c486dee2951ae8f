package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/loom-ui/loom/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "loom.json"

	// YAMLConfigFileName is the name of the YAML configuration file.
	YAMLConfigFileName = "loom.yaml"

	// DefaultPort is the default preview server port.
	DefaultPort = 3000

	// DefaultHost is the default preview server host.
	DefaultHost = "localhost"

	// DefaultTemplatesDir is the default template directory.
	DefaultTemplatesDir = "templates"

	// DefaultTemplateExt is the extension appended to page template names.
	DefaultTemplateExt = ".html"

	// DefaultStaticDir is the default static file directory.
	DefaultStaticDir = "public"

	// DefaultStaticPrefix is the default URL prefix for static files.
	DefaultStaticPrefix = "/static/"
)

// configFileNames lists the file names Load probes, in order of preference.
var configFileNames = []string{ConfigFileName, YAMLConfigFileName, "loom.yml"}

// Config represents the complete loom.json (or loom.yaml) configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Port is the preview server port (convenience field, also in Server).
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Server contains preview server configuration.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Templates contains template store configuration.
	Templates TemplatesConfig `json:"templates,omitempty" yaml:"templates,omitempty"`

	// Static contains static file serving configuration.
	Static StaticConfig `json:"static,omitempty" yaml:"static,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains preview server settings.
type ServerConfig struct {
	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// HTTPS reports whether the server sits behind TLS. It only affects
	// printed URLs; the preview server itself always speaks plain HTTP.
	HTTPS bool `json:"https,omitempty" yaml:"https,omitempty"`

	// MaxSessions caps concurrent live sessions. 0 means no limit.
	MaxSessions int `json:"maxSessions,omitempty" yaml:"maxSessions,omitempty"`

	// DevMode disables client script caching so edits show up on reload.
	DevMode bool `json:"devMode,omitempty" yaml:"devMode,omitempty"`
}

// TemplatesConfig contains template store settings.
type TemplatesConfig struct {
	// Dir is the directory containing template files.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Ext is appended to page names when resolving templates from URLs.
	Ext string `json:"ext,omitempty" yaml:"ext,omitempty"`

	// Cache controls compiled-template caching.
	Cache bool `json:"cache,omitempty" yaml:"cache,omitempty"`

	// S3 configures an S3-backed template store. When Bucket is set it is
	// used instead of Dir.
	S3 S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// S3Config contains S3 template store settings.
type S3Config struct {
	// Bucket is the S3 bucket holding templates.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`

	// Prefix is the key prefix under which templates live.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Region is the AWS region of the bucket.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
}

// StaticConfig contains static file serving configuration.
type StaticConfig struct {
	// Dir is the directory containing static files.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Prefix is the URL prefix for static files.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format selects the log output format: text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Version: "0.1.0",
		Port:    DefaultPort,
		Server: ServerConfig{
			Port: DefaultPort,
			Host: DefaultHost,
		},
		Templates: TemplatesConfig{
			Dir:   DefaultTemplatesDir,
			Ext:   DefaultTemplateExt,
			Cache: true,
		},
		Static: StaticConfig{
			Dir:    DefaultStaticDir,
			Prefix: DefaultStaticPrefix,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// loom.json first, then loom.yaml.
func Load(dir string) (*Config, error) {
	if path := configFileIn(dir); path != "" {
		return LoadFile(path)
	}
	return nil, errors.New("E061").
		WithDetail("No loom.json or loom.yaml found in " + dir).
		WithSuggestion("Create a loom.json file at the project root")
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E061").
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path)).
				WithSuggestion("Create a loom.json file at the project root")
		}
		return nil, errors.New("E060").Wrap(err)
	}

	cfg := New()
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E060").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that " + filepath.Base(path) + " is valid JSON")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E060").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that " + filepath.Base(path) + " is valid YAML")
		}
	default:
		return nil, errors.New("E063").
			WithDetail(filepath.Base(path) + " does not end in .json, .yaml, or .yml")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path. The format is
// chosen by extension.
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	switch filepath.Ext(path) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
		if err == nil {
			// Add newline at end of file
			data = append(data, '\n')
		}
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return errors.New("E063").
			WithDetail(filepath.Base(path) + " does not end in .json, .yaml, or .yml")
	}
	if err != nil {
		return errors.New("E060").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E060").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	// Port: the top-level convenience field seeds the server section.
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Server.Port == 0 {
		c.Server.Port = c.Port
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}

	// Templates
	if c.Templates.Dir == "" {
		c.Templates.Dir = DefaultTemplatesDir
	}
	if c.Templates.Ext == "" {
		c.Templates.Ext = DefaultTemplateExt
	}

	// Static
	if c.Static.Dir == "" {
		c.Static.Dir = DefaultStaticDir
	}
	if c.Static.Prefix == "" {
		c.Static.Prefix = DefaultStaticPrefix
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("E062").
			WithDetail("Port must be between 1 and 65535, got " + strconv.Itoa(c.Server.Port))
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.New("E065").
			WithDetail("Unknown log level " + strconv.Quote(c.Log.Level))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.New("E060").
			WithDetail("Unknown log format " + strconv.Quote(c.Log.Format))
	}
	return nil
}

// Address returns the listen address for the preview server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// URL returns the full URL for the preview server.
func (c *Config) URL() string {
	scheme := "http"
	if c.Server.HTTPS {
		scheme = "https"
	}
	return scheme + "://" + c.Address()
}

// TemplatesPath returns the absolute path to the template directory.
func (c *Config) TemplatesPath() string {
	if filepath.IsAbs(c.Templates.Dir) {
		return c.Templates.Dir
	}
	return filepath.Join(c.Dir(), c.Templates.Dir)
}

// StaticPath returns the absolute path to the static file directory.
func (c *Config) StaticPath() string {
	if filepath.IsAbs(c.Static.Dir) {
		return c.Static.Dir
	}
	return filepath.Join(c.Dir(), c.Static.Dir)
}

// StaticPrefix returns the URL prefix for static files.
func (c *Config) StaticPrefix() string {
	if c.Static.Prefix == "" {
		return DefaultStaticPrefix
	}
	return c.Static.Prefix
}

// HasS3 reports whether an S3 template store is configured.
func (c *Config) HasS3() bool {
	return c.Templates.S3.Bucket != ""
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	return configFileIn(dir) != ""
}

// configFileIn returns the path of the first config file present in dir,
// or "" if none exists.
func configFileIn(dir string) string {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing loom.json or loom.yaml, or an error if
// not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E061").
				WithDetail("No loom.json or loom.yaml found in " + startDir + " or any parent directory").
				WithSuggestion("Create a loom.json file at the project root")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
