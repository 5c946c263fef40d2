package config

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config хранит конфигурацию сервера
type Config struct {
	ServerAddress    string
	BaseURL          string
	DatabaseDSN      string
	PgMigrationsPath string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	CacheMode        string
	ListCacheTTL     time.Duration
	RedirectCacheTTL time.Duration
	UsageQueueSize   int
	LogFilePath      string
}

// NewConfig инициализирует конфигурацию на основе окружения и аргументов командной строки
func NewConfig() *Config {

	viper.SetDefault("SERVER_ADDRESS", "localhost:8080") // Значения по умолчанию
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("DATABASE_DSN", "")
	viper.SetDefault("PG_MIGRATIONS_PATH", "internal/migrations")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LIST_CACHE_TTL", "60s")
	viper.SetDefault("REDIRECT_CACHE_TTL", "1h")
	viper.SetDefault("USAGE_QUEUE_SIZE", 1024)
	viper.SetDefault("LOG_FILE_PATH", "")

	viper.AutomaticEnv()

	// Читаем .env, если есть (не переопределяет переменные окружения!)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // Ошибку игнорируем, если файла нет

	// Определяем флаги, но НЕ задаем в них значения по умолчанию
	serverAddress := flag.String("a", "", "server address")
	baseURL := flag.String("b", "", "base URL")
	databaseDSN := flag.String("d", "", "PostgreSQL DSN")
	redisAddr := flag.String("r", "", "Redis address")

	flag.Parse()

	cfg := &Config{
		ServerAddress:    viper.GetString("SERVER_ADDRESS"),
		BaseURL:          viper.GetString("BASE_URL"),
		DatabaseDSN:      viper.GetString("DATABASE_DSN"),
		PgMigrationsPath: viper.GetString("PG_MIGRATIONS_PATH"),
		RedisAddr:        viper.GetString("REDIS_ADDR"),
		RedisPassword:    viper.GetString("REDIS_PASSWORD"),
		RedisDB:          viper.GetInt("REDIS_DB"),
		ListCacheTTL:     viper.GetDuration("LIST_CACHE_TTL"),
		RedirectCacheTTL: viper.GetDuration("REDIRECT_CACHE_TTL"),
		UsageQueueSize:   viper.GetInt("USAGE_QUEUE_SIZE"),
		LogFilePath:      viper.GetString("LOG_FILE_PATH"),
	}

	// Если флаг передан, но переменной окружения нет — используем флаг
	if *serverAddress != "" {
		cfg.ServerAddress = *serverAddress
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *databaseDSN != "" {
		cfg.DatabaseDSN = *databaseDSN
	}
	if *redisAddr != "" {
		cfg.RedisAddr = *redisAddr
	}

	// Определяем режим кэша
	if cfg.RedisAddr != "" {
		cfg.CacheMode = "redis"
	} else {
		cfg.CacheMode = "memory"
	}

	log.Printf("Инициализация конфигурации: ServerAddress=%s", cfg.ServerAddress)
	log.Printf("Инициализация конфигурации: BaseURL=%s", cfg.BaseURL)
	log.Printf("Инициализация конфигурации: PgMigrationsPath=%s", cfg.PgMigrationsPath)
	log.Printf("Инициализация конфигурации: CacheMode=%s", cfg.CacheMode)

	// Проверка корректности конфигурации
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Ошибка конфигурации: %v\n", err)
	}

	return cfg
}

// Validate проверяет корректность конфигурации
func (cfg *Config) Validate() error {
	if cfg.ServerAddress == "" {
		return fmt.Errorf("адрес сервера не может быть пустым")
	}
	if cfg.BaseURL == "" {
		return fmt.Errorf("базовый URL не может быть пустым")
	}
	if cfg.DatabaseDSN == "" {
		return fmt.Errorf("адрес подключения к БД не может быть пустым")
	}
	if cfg.ListCacheTTL <= 0 || cfg.RedirectCacheTTL <= 0 {
		return fmt.Errorf("TTL кэша должен быть положительным")
	}
	return nil
}
