// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string        `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string        `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string        `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
	RabbitMQURL             string        `yaml:"rabbitmq_url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries      int           `yaml:"rabbitmq_max_retries" env-default:"5"`
	RabbitMQRetryDelay      time.Duration `yaml:"rabbitmq_retry_delay" env-default:"3s"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Panel                   `yaml:"panel"`
	Gateway                 `yaml:"gateway"`
	Scheduler               `yaml:"scheduler"`
	Mappings                []models.ResourceMapping `yaml:"resource_mappings"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8082"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
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

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Panel структура с настройками хостинг-панели.
// EmailDomain используется при генерации email для новых аккаунтов,
// AllocationPortFrom/To задают диапазон портов, создаваемых пачкой,
// когда на узле не осталось свободных аллокаций.
type Panel struct {
	BaseURL            string `yaml:"base_url" env:"PANEL_BASE_URL"`
	APIKey             string `yaml:"api_key" env:"PANEL_API_KEY"`
	EmailDomain        string `yaml:"email_domain" env-default:"panel.local"`
	AllocationIP       string `yaml:"allocation_ip" env-default:"0.0.0.0"`
	AllocationPortFrom int    `yaml:"allocation_port_from" env-default:"25565"`
	AllocationPortTo   int    `yaml:"allocation_port_to" env-default:"25575"`
}

// Gateway структура с настройками шлюза доставки сообщений покупателям.
type Gateway struct {
	GatewayURL   string        `yaml:"gateway_url" env:"GATEWAY_URL"`
	GatewayToken string        `yaml:"gateway_token" env:"GATEWAY_TOKEN"`
	SendTimeout  time.Duration `yaml:"send_timeout" env-default:"15s"`
}

// Scheduler структура с интервалами фоновых задач.
type Scheduler struct {
	MonitorInterval   time.Duration `yaml:"monitor_interval" env-default:"30m"`
	SchedulerInterval time.Duration `yaml:"scheduler_interval" env-default:"6h"`
}

// MustLoad загружает конфиг из файла, указанного в CONFIG_PATH.
// При любой ошибке процесс завершается.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

// MappingFor возвращает привязку ресурсов для пакета или nil, если её нет.
func (c *Config) MappingFor(packageID string) *models.ResourceMapping {
	for i := range c.Mappings {
		if c.Mappings[i].PackageID == packageID {
			return &c.Mappings[i]
		}
	}
	return nil
}
