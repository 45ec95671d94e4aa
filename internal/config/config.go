package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"phonereuse/entity"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageFile  = "file"
	StorageMongo = "mongo"
	StorageMySQL = "mysql"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type RegistryConfig struct {
	ReuseWindow    time.Duration `yaml:"reuse_window" env:"REUSE_WINDOW" env-default:"30m"`
	DefaultService string        `yaml:"default_service" env-default:"go"`
	Storage        string        `yaml:"storage" env:"REGISTRY_STORAGE" env-default:"file"`
	FilePath       string        `yaml:"file_path" env-default:"credentials/phone_numbers.json"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
	Database string `yaml:"database" env-default:"phonereuse"`
}

type MySQLConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	HostName string `yaml:"hostname" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env-default:"3306"`
	UserName string `yaml:"username" env-default:""`
	Password string `yaml:"password" env:"MYSQL_PASSWORD" env-default:""`
	Database string `yaml:"database" env-default:"phonereuse"`
	Prefix   string `yaml:"prefix" env-default:""`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" env-default:"false"`
	Addr     string        `yaml:"addr" env-default:"127.0.0.1:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int           `yaml:"db" env-default:"0"`
	LockKey  string        `yaml:"lock_key" env-default:"phonereuse:registry:lock"`
	LockTTL  time.Duration `yaml:"lock_ttl" env-default:"10s"`
	LockWait time.Duration `yaml:"lock_wait" env-default:"5s"`
}

type TelegramConfig struct {
	Enabled    bool    `yaml:"enabled" env-default:"false"`
	ApiKey     string  `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
	ChatIds    []int64 `yaml:"chat_ids"`
	AlertLevel string  `yaml:"alert_level" env-default:"warn"`
}

type ApiConfig struct {
	Clients   []entity.Client `yaml:"clients"`
	RateLimit float64         `yaml:"rate_limit" env-default:"0"`
	RateBurst int             `yaml:"rate_burst" env-default:"10"`
	Timeout   time.Duration   `yaml:"timeout" env-default:"5s"`
}

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	Listen   Listen         `yaml:"listen"`
	Registry RegistryConfig `yaml:"registry"`
	Mongo    MongoConfig    `yaml:"mongo"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Redis    RedisConfig    `yaml:"redis"`
	Telegram TelegramConfig `yaml:"telegram"`
	Api      ApiConfig      `yaml:"api"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance, err = Load(path)
		if err != nil {
			log.Fatal(err)
		}
	})
	return instance
}

// Load reads path and applies environment overrides.
func Load(path string) (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadConfig(path, conf); err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("config: %s; %s", err, desc)
	}
	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return conf, nil
}

func (c *Config) validate() error {
	switch c.Registry.Storage {
	case StorageFile:
	case StorageMongo:
		if !c.Mongo.Enabled {
			return fmt.Errorf("registry storage %q requires mongo.enabled", c.Registry.Storage)
		}
	case StorageMySQL:
		if !c.MySQL.Enabled {
			return fmt.Errorf("registry storage %q requires mysql.enabled", c.Registry.Storage)
		}
	default:
		return fmt.Errorf("unknown registry storage %q", c.Registry.Storage)
	}
	if c.Registry.ReuseWindow <= 0 {
		return fmt.Errorf("registry reuse_window must be positive")
	}
	if c.Registry.DefaultService == "" {
		return fmt.Errorf("registry default_service is empty")
	}
	return nil
}
