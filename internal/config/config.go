package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the settings shared by the mip-core binaries.
type Config struct {
	// BaseURL is the public URL under which archives and sidecars are served.
	BaseURL string `mapstructure:"base_url"`
	// Storage describes the S3-compatible bucket packages are published to.
	Storage Storage `mapstructure:"storage"`
	// PackagesDir holds one subdirectory per package definition.
	PackagesDir string `mapstructure:"packages_dir"`
	// PreparedDir receives the staged <wheel>.dir directories.
	PreparedDir string `mapstructure:"prepared_dir"`
	// PagesDir receives index.json and packages.html.
	PagesDir string `mapstructure:"pages_dir"`
	// IndexURL is where the published index is downloaded from for testing.
	IndexURL string `mapstructure:"index_url"`
	// ProbeTimeout bounds the remote manifest existence check.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	// IndexTimeout bounds the published index download.
	IndexTimeout time.Duration `mapstructure:"index_timeout"`
	// TestTimeout bounds a single MATLAB package test.
	TestTimeout time.Duration `mapstructure:"test_timeout"`
	// BuildType selects which package definitions are eligible (BUILD_TYPE).
	BuildType string `mapstructure:"build_type"`
	// Architecture filters the published index for testing (ARCHITECTURE).
	Architecture string `mapstructure:"architecture"`
}

// Storage holds object storage coordinates and credentials.
type Storage struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

const (
	// DefaultConfigFilename is read when present and no --config is given.
	DefaultConfigFilename = "mip.yaml"

	// DefaultBaseURL is the public location of published packages.
	DefaultBaseURL = "https://mip-packages.neurosift.app/core/packages"
	// DefaultBucket is the bucket packages are uploaded to.
	DefaultBucket = "mip-packages"
	// DefaultPrefix is the key prefix inside the bucket.
	DefaultPrefix = "core/packages"
	// DefaultRegion is what R2 expects.
	DefaultRegion = "auto"
	// DefaultBuildType is the BUILD_TYPE of the hosted runners.
	DefaultBuildType = "standard"
	// DefaultIndexURL is the published index consumed by mip-test.
	DefaultIndexURL = "https://mip-org.github.io/mip-core/index.json"

	// DefaultProbeTimeout bounds the existence check request.
	DefaultProbeTimeout = 10 * time.Second
	// DefaultIndexTimeout bounds the published index download.
	DefaultIndexTimeout = 30 * time.Second
	// DefaultTestTimeout bounds a single MATLAB test run.
	DefaultTestTimeout = 5 * time.Minute

	// envPrefix applies to every key without an explicit binding, e.g. MIP_PAGES_DIR.
	envPrefix = "MIP"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is validated.
	errConfigIsNotSet = errors.New("configuration is not set")
	// ErrMissingCredentials is returned when storage access is required but not configured.
	ErrMissingCredentials = errors.New(
		"missing storage settings: AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_ENDPOINT_URL")
	// errBucketRequired is returned when no bucket name is configured.
	errBucketRequired = errors.New("storage bucket must be provided")
)

// Load reads configuration from path, the environment and built-in defaults,
// in decreasing precedence: environment, file, defaults.
// An empty path reads DefaultConfigFilename if it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := newViper()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	path = filepath.Clean(path)

	switch _, err := os.Stat(path); {
	case err == nil:
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err = v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Defaults and environment only.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// newViper builds a viper instance with defaults and environment bindings.
func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("storage.bucket", DefaultBucket)
	v.SetDefault("storage.prefix", DefaultPrefix)
	v.SetDefault("storage.region", DefaultRegion)
	v.SetDefault("packages_dir", "packages")
	v.SetDefault("prepared_dir", filepath.Join("build", "prepared"))
	v.SetDefault("pages_dir", filepath.Join("build", "gh-pages"))
	v.SetDefault("index_url", DefaultIndexURL)
	v.SetDefault("build_type", DefaultBuildType)
	v.SetDefault("probe_timeout", DefaultProbeTimeout)
	v.SetDefault("index_timeout", DefaultIndexTimeout)
	v.SetDefault("test_timeout", DefaultTestTimeout)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The names CI already exports for the bucket and the build matrix.
	_ = v.BindEnv("storage.access_key", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv("storage.secret_key", "AWS_SECRET_ACCESS_KEY")
	_ = v.BindEnv("storage.endpoint", "AWS_ENDPOINT_URL")
	_ = v.BindEnv("build_type", "BUILD_TYPE")
	_ = v.BindEnv("architecture", "ARCHITECTURE")

	return v
}

// Validate fills zero durations with defaults and checks URL fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}

	if cfg.IndexTimeout <= 0 {
		cfg.IndexTimeout = DefaultIndexTimeout
	}

	if cfg.TestTimeout <= 0 {
		cfg.TestTimeout = DefaultTestTimeout
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.Storage.Prefix = strings.Trim(cfg.Storage.Prefix, "/")

	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	if cfg.IndexURL != "" {
		if _, err := url.ParseRequestURI(cfg.IndexURL); err != nil {
			return fmt.Errorf("invalid index URL: %w", err)
		}
	}

	return nil
}

// ValidateStorage checks the settings needed to talk to the bucket.
func ValidateStorage(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	s := cfg.Storage
	if s.AccessKey == "" || s.SecretKey == "" || s.Endpoint == "" {
		return ErrMissingCredentials
	}

	if s.Bucket == "" {
		return errBucketRequired
	}

	if _, err := url.ParseRequestURI(s.Endpoint); err != nil {
		return fmt.Errorf("invalid storage endpoint: %w", err)
	}

	return nil
}

// ObjectKey joins the configured prefix and a file name into a bucket key.
func (c *Config) ObjectKey(filename string) string {
	if c.Storage.Prefix == "" {
		return filename
	}

	return c.Storage.Prefix + "/" + filename
}

// PublicURL returns the public download URL of filename.
func (c *Config) PublicURL(filename string) string {
	return c.BaseURL + "/" + filename
}
