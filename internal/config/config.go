// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator"
	"github.com/ilyakaznacheev/cleanenv"
)

// Режимы проверки пользователя при раскрытии кода ваучера.
const (
	AuthModeStatic     = "static"
	AuthModeToken      = "token"
	AuthModeRepository = "repository"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	Collector               `yaml:"collector"`
	Auth                    `yaml:"auth"`
	RabbitMQ                `yaml:"rabbitmq"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// RevealRPS и RevealBurst задают лимит запросов на раскрытие кода
	// для одного клиента, RevealClientTTL время хранения простаивающего лимита.
	RevealRPS       float64       `yaml:"reveal_rps" env-default:"1"`
	RevealBurst     int           `yaml:"reveal_burst" env-default:"3"`
	RevealClientTTL time.Duration `yaml:"reveal_client_ttl" env-default:"10m"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// Collector настройки цикла сбора ваучеров с сайтов-партнёров.
type Collector struct {
	Sources        []string      `yaml:"sources" validate:"dive,url"`
	Interval       time.Duration `yaml:"interval" env-default:"4h"`
	Staleness      time.Duration `yaml:"staleness" env-default:"4h"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout" env-default:"2m"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout" env-default:"15s"`
	FetchRPS       float64       `yaml:"fetch_rps" env-default:"1"`
	UserAgent      string        `yaml:"user_agent" env-default:"hotel-vouchers/1.0"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" env-default:"5242880"`
	Extractor      Extractor     `yaml:"extractor"`
	// SkipInitialRun отключает сбор при старте расписания.
	SkipInitialRun bool `yaml:"skip_initial_run"`
}

// Extractor описывает CSS-селекторы карточки ваучера на странице партнёра.
// Пустой Item означает, что извлечение отключено.
type Extractor struct {
	Item        string `yaml:"item"`
	ID          string `yaml:"id"`
	IDAttr      string `yaml:"id_attr"`
	Code        string `yaml:"code"`
	Destination string `yaml:"destination"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	Expiry      string `yaml:"expiry"`
	ExpiryAttr  string `yaml:"expiry_attr"`
	// ExpiryLayout формат даты в терминах time.Parse.
	ExpiryLayout string `yaml:"expiry_layout" env-default:"2006-01-02"`
}

// Auth настройки проверки пользователя.
type Auth struct {
	Mode         string        `yaml:"mode" env-default:"repository" validate:"oneof=static token repository"`
	Secret       string        `yaml:"secret"`
	StaticAllow  bool          `yaml:"static_allow"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env-default:"5m"`
	CheckTimeout time.Duration `yaml:"check_timeout" env-default:"3s"`
}

// RabbitMQ настройки публикации событий об обновлении ваучеров.
type RabbitMQ struct {
	URL        string        `yaml:"url" validate:"omitempty,url"`
	Exchange   string        `yaml:"exchange" env-default:"vouchers"`
	MaxRetries int           `yaml:"max_retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// MustLoad функция для загрузки конфига, путь к файлу берётся из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает и проверяет конфиг по указанному пути.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	switch c.Auth.Mode {
	case AuthModeStatic:
	case AuthModeToken:
		if c.Auth.Secret == "" {
			return fmt.Errorf("auth.secret is required for mode %q", c.Auth.Mode)
		}
	case AuthModeRepository:
		if c.StorageConnectionString == "" {
			return fmt.Errorf("storage_connection_string is required for mode %q", c.Auth.Mode)
		}
	default:
		return fmt.Errorf("unknown auth.mode %q", c.Auth.Mode)
	}
	if c.Collector.Interval <= 0 || c.Collector.Staleness <= 0 {
		return fmt.Errorf("collector.interval and collector.staleness must be positive")
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Collector:\n"+
			"  Sources: %d\n"+
			"  Interval: %s\n"+
			"  Staleness: %s\n"+
			"  FetchTimeout: %s\n"+
			"Auth:\n"+
			"  Mode: %s\n"+
			"Redis:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ enabled: %t\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		len(c.Sources),
		c.Interval,
		c.Staleness,
		c.FetchTimeout,
		c.Mode,
		c.AddressRedis,
		c.DB,
		c.RabbitMQ.URL != "",
	)
}
