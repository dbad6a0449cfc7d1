// Package config loads docql settings from a YAML file, a .env file and
// DOCQL_* environment variables.
//
// Precedence, highest first:
//  1. DOCQL_* variables from the process environment
//  2. DOCQL_* variables from the .env file
//  3. The YAML file, after ${VAR} / ${VAR:-default} interpolation
//  4. Defaults()
//
// Nothing here reads or writes process-global state beyond the getenv
// function the caller passes in.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/docql/internal/couchbase"
	"github.com/roach88/docql/internal/query"
)

// Environment variables that override file settings.
const (
	EnvConnStr  = "DOCQL_CONNSTR"
	EnvUsername = "DOCQL_USERNAME"
	EnvPassword = "DOCQL_PASSWORD"
	EnvTimeout  = "DOCQL_TIMEOUT"
	EnvBucket   = "DOCQL_BUCKET"
	EnvStore    = "DOCQL_STORE"
	EnvModels   = "DOCQL_MODELS"
	EnvTypeKey  = "DOCQL_TYPE_KEY"
)

// Config holds every docql setting.
type Config struct {
	Cluster ClusterConfig `yaml:"cluster"`

	// Bucket is the keyspace queries read from.
	Bucket string `yaml:"bucket"`

	// Store is the local SQLite document store path, used when no cluster
	// is configured.
	Store string `yaml:"store"`

	// Models is the directory of CUE model definitions.
	Models string `yaml:"models"`

	// TypeKey is the document type discriminator for models that do not
	// set their own.
	TypeKey string `yaml:"typeKey"`
}

// ClusterConfig describes the Couchbase cluster.
type ClusterConfig struct {
	ConnStr  string        `yaml:"connstr"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() *Config {
	return &Config{
		Cluster: ClusterConfig{Timeout: couchbase.DefaultTimeout},
		Bucket:  "default",
		Store:   "docql.db",
		Models:  "models",
		TypeKey: query.DefaultTypeKey,
	}
}

// UseCluster reports whether queries go to Couchbase rather than the local
// store.
func (c *Config) UseCluster() bool {
	return c.Cluster.ConnStr != ""
}

// CouchbaseOptions returns the connection options for the cluster.
func (c *Config) CouchbaseOptions() couchbase.Options {
	return couchbase.Options{
		ConnStr:  c.Cluster.ConnStr,
		Username: c.Cluster.Username,
		Password: c.Cluster.Password,
		Timeout:  c.Cluster.Timeout,
	}
}

// Validate checks settings that every command needs.
func (c *Config) Validate() error {
	var errs []error
	if c.Bucket == "" {
		errs = append(errs, errors.New("bucket is required"))
	}
	if !c.UseCluster() && c.Store == "" {
		errs = append(errs, errors.New("store is required when no cluster is configured"))
	}
	if c.Cluster.Timeout < 0 {
		errs = append(errs, fmt.Errorf("cluster.timeout must not be negative, got %s", c.Cluster.Timeout))
	}
	return errors.Join(errs...)
}

// Load reads the YAML file at path over Defaults() and applies DOCQL_*
// overrides from getenv. An empty path skips the file.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		data = []byte(interpolateEnv(string(data), getenv))
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadWithEnv is Load with variables from envFile layered under the
// process environment. A missing envFile is not an error.
func LoadWithEnv(path, envFile string, getenv func(string) string) (*Config, error) {
	dotenv := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = vars
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	return Load(path, func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	})
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	for _, o := range []struct {
		key string
		dst *string
	}{
		{EnvConnStr, &cfg.Cluster.ConnStr},
		{EnvUsername, &cfg.Cluster.Username},
		{EnvPassword, &cfg.Cluster.Password},
		{EnvBucket, &cfg.Bucket},
		{EnvStore, &cfg.Store},
		{EnvModels, &cfg.Models},
		{EnvTypeKey, &cfg.TypeKey},
	} {
		if v := getenv(o.key); v != "" {
			*o.dst = v
		}
	}

	if v := getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.Cluster.Timeout = d
	}
	return nil
}

// envPattern matches ${VAR} and ${VAR:-default}.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// interpolateEnv substitutes ${VAR} references. Unset variables fall back
// to their default, or to the empty string.
func interpolateEnv(s string, getenv func(string) string) string {
	return envPattern.ReplaceAllStringFunc(s, func(ref string) string {
		m := envPattern.FindStringSubmatch(ref)
		if v := getenv(m[1]); v != "" {
			return v
		}
		return m[2]
	})
}
