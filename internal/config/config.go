package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix             = "OST"
	defaultBackend        = BackendFake
	defaultHTTPAddress    = "0.0.0.0:3030"
	defaultContextFile    = "ost_context.json"
	defaultKVPath         = "ost.db"
	defaultKVKey          = "ost_context"
	defaultSQLitePath     = "ost.sqlite"
	defaultLogLevel       = "info"
	defaultRequestTimeout = 10 * time.Second
	defaultSeedPersons    = 10
	defaultSeedEvents     = 150
)

// Backend names the store the server keeps its context in.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFake   Backend = "fake"
	BackendFile   Backend = "file"
	BackendKV     Backend = "kv"
	BackendSQLite Backend = "sqlite"
	BackendS3     Backend = "s3"
	BackendRemote Backend = "remote"
)

// Backends lists every supported backend.
var Backends = []Backend{BackendMemory, BackendFake, BackendFile, BackendKV, BackendSQLite, BackendS3, BackendRemote}

// SeedConfig sizes the fake data written by the fake backend and admin reset.
type SeedConfig struct {
	Persons    uint32
	Feedings   uint32
	Expulsions uint32
	Events     uint32
}

// S3Config locates the object holding the context.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	Prefix    string
	PathStyle bool
}

// AppConfig captures runtime configuration for the context server.
type AppConfig struct {
	Backend        Backend
	HTTPAddress    string
	AllowedOrigins []string
	RequestTimeout time.Duration
	ContextFile    string
	SourceFile     string
	KVPath         string
	KVKey          string
	SQLitePath     string
	S3             S3Config
	RemoteEndpoint string
	Seed           SeedConfig
	LogLevel       string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("backend", string(defaultBackend))
	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("http.allowed_origins", []string{})
	configViper.SetDefault("http.request_timeout", defaultRequestTimeout)
	configViper.SetDefault("context.file_path", defaultContextFile)
	configViper.SetDefault("context.source_path", "")
	configViper.SetDefault("kv.path", defaultKVPath)
	configViper.SetDefault("kv.key", defaultKVKey)
	configViper.SetDefault("sqlite.path", defaultSQLitePath)
	configViper.SetDefault("s3.bucket", "")
	configViper.SetDefault("s3.region", "")
	configViper.SetDefault("s3.endpoint", "")
	configViper.SetDefault("s3.prefix", "")
	configViper.SetDefault("s3.path_style", false)
	configViper.SetDefault("remote.endpoint", "")
	configViper.SetDefault("seed.persons", defaultSeedPersons)
	configViper.SetDefault("seed.feedings", defaultSeedEvents)
	configViper.SetDefault("seed.expulsions", defaultSeedEvents)
	configViper.SetDefault("seed.events", defaultSeedEvents)
	configViper.SetDefault("log.level", defaultLogLevel)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		Backend:        Backend(strings.ToLower(strings.TrimSpace(configViper.GetString("backend")))),
		HTTPAddress:    configViper.GetString("http.address"),
		AllowedOrigins: configViper.GetStringSlice("http.allowed_origins"),
		RequestTimeout: configViper.GetDuration("http.request_timeout"),
		ContextFile:    configViper.GetString("context.file_path"),
		SourceFile:     configViper.GetString("context.source_path"),
		KVPath:         configViper.GetString("kv.path"),
		KVKey:          configViper.GetString("kv.key"),
		SQLitePath:     configViper.GetString("sqlite.path"),
		S3: S3Config{
			Bucket:    configViper.GetString("s3.bucket"),
			Region:    configViper.GetString("s3.region"),
			Endpoint:  configViper.GetString("s3.endpoint"),
			Prefix:    configViper.GetString("s3.prefix"),
			PathStyle: configViper.GetBool("s3.path_style"),
		},
		RemoteEndpoint: configViper.GetString("remote.endpoint"),
		Seed: SeedConfig{
			Persons:    configViper.GetUint32("seed.persons"),
			Feedings:   configViper.GetUint32("seed.feedings"),
			Expulsions: configViper.GetUint32("seed.expulsions"),
			Events:     configViper.GetUint32("seed.events"),
		},
		LogLevel: configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

// ParseBackend validates a backend name.
func ParseBackend(raw string) (Backend, error) {
	candidate := Backend(strings.ToLower(strings.TrimSpace(raw)))
	for _, backend := range Backends {
		if backend == candidate {
			return backend, nil
		}
	}
	return "", fmt.Errorf("unknown backend %q", raw)
}

func (c AppConfig) validate() error {
	if _, err := ParseBackend(string(c.Backend)); err != nil {
		return err
	}
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("http.request_timeout must be positive")
	}
	switch c.Backend {
	case BackendFile:
		if strings.TrimSpace(c.ContextFile) == "" {
			return fmt.Errorf("context.file_path is required")
		}
	case BackendKV:
		if strings.TrimSpace(c.KVPath) == "" {
			return fmt.Errorf("kv.path is required")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("sqlite.path is required")
		}
	case BackendS3:
		if strings.TrimSpace(c.S3.Bucket) == "" {
			return fmt.Errorf("s3.bucket is required")
		}
	case BackendRemote:
		if strings.TrimSpace(c.RemoteEndpoint) == "" {
			return fmt.Errorf("remote.endpoint is required")
		}
	}
	return nil
}
