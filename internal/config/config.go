// Package config loads process configuration from a YAML file plus
// VAULT_-prefixed environment overrides, grounded on the teacher's
// viper-based atomic-snapshot config loader.
package config

import (
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/viper"
)

var (
	appConfig atomic.Value
	configMu  sync.Mutex
	configDir = "config"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	Mode        string `mapstructure:"mode"` // debug | release
	FrontendURL string `mapstructure:"frontend_url"`
}

type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // sqlite, mysql, postgres
	Filename string `mapstructure:"filename"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSL      bool   `mapstructure:"ssl"`
}

type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
}

type StorageConfig struct {
	// Path is the blob store root; per-user subdirectories are created
	// beneath it, named by user id.
	Path                string `mapstructure:"path"`
	MaxFileSize         int64  `mapstructure:"max_file_size"`
	MaxBatchSize        int    `mapstructure:"max_batch_size"`
	DefaultStorageQuota int64  `mapstructure:"default_storage_quota"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type RateLimitConfig struct {
	WindowMs    int `mapstructure:"window_ms"`
	MaxRequests int `mapstructure:"max_requests"`
}

// Get returns a snapshot of the current config (lock-free read).
func Get() Config {
	val := appConfig.Load()
	if val == nil {
		return Config{}
	}
	c, ok := val.(*Config)
	if !ok {
		return Config{}
	}
	return *c
}

func GetConfigDir() string { return configDir }

// InitConfig loads configuration from customConfigDir (or "config" if
// empty) plus environment overrides, and enforces that release mode never
// runs with a default JWT secret.
func InitConfig(customConfigDir string) {
	v := initViper(customConfigDir)
	loadAndStore(v)
	enforceJWTSecretSafety()
	log.Println("config loaded")
}

func initViper(customConfigDir string) *viper.Viper {
	v := viper.New()

	customConfigDir = strings.TrimSpace(customConfigDir)
	if customConfigDir == "" {
		customConfigDir = "config"
	}
	configDir = customConfigDir

	v.AddConfigPath(configDir)
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("storage.path", "uploads")
	v.SetDefault("storage.max_file_size", int64(150*1024*1024))
	v.SetDefault("storage.max_batch_size", 10)
	v.SetDefault("storage.default_storage_quota", int64(1073741824))
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.frontend_url", "http://localhost:5173")
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.filename", "database/vault.db")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "vault")
	v.SetDefault("database.password", "vault")
	v.SetDefault("database.name", "vault")
	v.SetDefault("database.ssl", false)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expires_in", 7*24*time.Hour)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "vault")
	v.SetDefault("rate_limit.window_ms", 15*60*1000)
	v.SetDefault("rate_limit.max_requests", 100)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Println("no config file found, using environment/defaults")
		} else {
			log.Fatalf("failed to read config file: %v", err)
		}
	}

	v.SetEnvPrefix("VAULT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return v
}

func loadAndStore(v *viper.Viper) {
	configMu.Lock()
	defer configMu.Unlock()

	var tempConfig Config
	if err := v.Unmarshal(&tempConfig); err != nil {
		log.Printf("failed to parse config: %v", err)
		return
	}

	if tempConfig.Server.Mode == "release" {
		if tempConfig.JWT.Secret == "" || tempConfig.JWT.Secret == "dev-insecure-secret" {
			log.Println("SECURITY WARNING: release mode requires a real JWT secret")
		}
	} else if tempConfig.JWT.Secret == "" {
		log.Println("no JWT secret set, using an insecure development default")
		tempConfig.JWT.Secret = "dev-insecure-secret"
	}

	appConfig.Store(&tempConfig)
}

func enforceJWTSecretSafety() {
	curr := Get()
	if curr.Server.Mode == "release" {
		if curr.JWT.Secret == "" || curr.JWT.Secret == "dev-insecure-secret" {
			log.Fatal("release mode requires VAULT_JWT_SECRET to be set to a real secret")
		}
	}
}
