// Package config provides configuration management and environment variable handling for the application
package config

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database   DatabaseConfig   `json:"database"`
	Server     ServerConfig     `json:"server"`
	Security   SecurityConfig   `json:"security"`
	Logging    LoggingConfig    `json:"logging"`
	Metrics    MetricsConfig    `json:"metrics"`
	Cache      CacheConfig      `json:"cache"`
	Storage    StorageConfig    `json:"storage"`
	AI         AIConfig         `json:"ai"`
	Geocoder   GeocoderConfig   `json:"geocoder"`
	Export     ExportConfig     `json:"export"`
	Pipeline   PipelineConfig   `json:"pipeline"`
	Deployment DeploymentConfig `json:"deployment"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	Schema          string        `json:"schema"`
	AutoMigrate     bool          `json:"auto_migrate"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	SlowQueryLog    bool          `json:"slow_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
}

// DSN renders the libpq connection string.
func (c DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	if c.Schema != "" {
		dsn += " search_path=" + c.Schema
	}
	return dsn
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	BodyLimit       int           `json:"body_limit"`
}

type SecurityConfig struct {
	// CORS
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	CORSMaxAge       int      `json:"cors_max_age"`

	// Rate Limiting
	GlobalRateLimit int           `json:"global_rate_limit"` // requests per window
	RateLimitWindow time.Duration `json:"rate_limit_window"`

	// API Security
	RequireAPIKey  bool     `json:"require_api_key"`
	APIKeyHeader   string   `json:"api_key_header"`
	AllowedAPIKeys []string `json:"allowed_api_keys"`
	IPBlacklist    []string `json:"ip_blacklist"`
}

type LoggingConfig struct {
	Level            string `json:"level"`  // debug, info, warn, error
	Format           string `json:"format"` // json, console
	Output           string `json:"output"` // stdout, file, both
	FilePath         string `json:"file_path"`
	MaxSize          int    `json:"max_size"` // MB
	MaxBackups       int    `json:"max_backups"`
	MaxAge           int    `json:"max_age"` // days
	Compress         bool   `json:"compress"`
	EnableCaller     bool   `json:"enable_caller"`
	EnableStacktrace bool   `json:"enable_stacktrace"`
	EnableAccessLog  bool   `json:"enable_access_log"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled     bool          `json:"enabled"`
	Provider    string        `json:"provider"` // redis, memory
	RedisURL    string        `json:"redis_url"`
	RedisDB     int           `json:"redis_db"`
	RedisPrefix string        `json:"redis_prefix"`
	DefaultTTL  time.Duration `json:"default_ttl"`

	HealthCheckInterval time.Duration `json:"health_check_interval"`
}

type StorageConfig struct {
	Provider          string        `json:"provider"` // gcs, memory
	Bucket            string        `json:"bucket"`
	CredentialsJSON   string        `json:"-"`
	CredentialsFile   string        `json:"credentials_file"`
	OperationTimeout  time.Duration `json:"operation_timeout"`
	UploadConcurrency int           `json:"upload_concurrency"`
	ImageURLTTL       time.Duration `json:"image_url_ttl"`
}

type AIConfig struct {
	Provider    string        `json:"provider"` // http, mock
	BaseURL     string        `json:"base_url"`
	APIKey      string        `json:"-"`
	ScorePath   string        `json:"score_path"`
	CaptionPath string        `json:"caption_path"`
	DraftPath   string        `json:"draft_path"`
	Timeout     time.Duration `json:"timeout"`
}

type GeocoderConfig struct {
	Provider    string        `json:"provider"` // nominatim, mock
	BaseURL     string        `json:"base_url"`
	UserAgent   string        `json:"user_agent"`
	Language    string        `json:"language"`
	Timeout     time.Duration `json:"timeout"`
	MinInterval time.Duration `json:"min_interval"`
	CacheTTL    time.Duration `json:"cache_ttl"`
}

type ExportConfig struct {
	FontPath       string        `json:"font_path"`
	FontSize       float64       `json:"font_size"`
	MaxImagePixels int           `json:"max_image_pixels"`
	JPEGQuality    int           `json:"jpeg_quality"`
	SignedURLTTL   time.Duration `json:"signed_url_ttl"`
}

type PipelineConfig struct {
	MaxPhotosPerUpload int   `json:"max_photos_per_upload"`
	MaxPhotoSizeBytes  int64 `json:"max_photo_size_bytes"`
}

type DeploymentConfig struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
	CommitHash  string `json:"commit_hash"`
	BuildTime   string `json:"build_time"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Load environment variables from .env file
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// Optional YAML file sits beneath the environment
	if err := loadConfigFile(os.Getenv("CONFIG_FILE")); err != nil {
		return nil, err
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "postgres"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "require"),
			Schema:          getEnvString("DB_SCHEMA", "trip_to_travel"),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", false),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
			SlowQueryLog:    getEnvBool("DB_SLOW_QUERY_LOG", true),
			SlowQueryTime:   getEnvDuration("DB_SLOW_QUERY_TIME", 1*time.Second),
		},
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 60*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 5*time.Minute),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:       getEnvInt("SERVER_BODY_LIMIT", 200*1024*1024), // 200MB, photo batches
		},
		Security: SecurityConfig{
			AllowedOrigins:   getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getEnvStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "X-Requested-With", "X-Request-ID", "X-API-Key"}),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", false),
			CORSMaxAge:       getEnvInt("CORS_MAX_AGE", 86400),
			GlobalRateLimit:  getEnvInt("GLOBAL_RATE_LIMIT", 600),
			RateLimitWindow:  getEnvDuration("RATE_LIMIT_WINDOW", 1*time.Minute),
			RequireAPIKey:    getEnvBool("REQUIRE_API_KEY", false),
			APIKeyHeader:     getEnvString("API_KEY_HEADER", "X-API-Key"),
			AllowedAPIKeys:   getEnvStringSlice("ALLOWED_API_KEYS", []string{}),
			IPBlacklist:      getEnvStringSlice("IP_BLACKLIST", []string{}),
		},
		Logging: LoggingConfig{
			Level:            getEnvString("LOG_LEVEL", "info"),
			Format:           getEnvString("LOG_FORMAT", "json"),
			Output:           getEnvString("LOG_OUTPUT", "stdout"),
			FilePath:         getEnvString("LOG_FILE_PATH", "/var/log/trip-to-travel/app.log"),
			MaxSize:          getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups:       getEnvInt("LOG_MAX_BACKUPS", 10),
			MaxAge:           getEnvInt("LOG_MAX_AGE", 30),
			Compress:         getEnvBool("LOG_COMPRESS", true),
			EnableCaller:     getEnvBool("LOG_ENABLE_CALLER", true),
			EnableStacktrace: getEnvBool("LOG_ENABLE_STACKTRACE", false),
			EnableAccessLog:  getEnvBool("LOG_ENABLE_ACCESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:             getEnvBool("CACHE_ENABLED", false),
			Provider:            getEnvString("CACHE_PROVIDER", "redis"),
			RedisURL:            getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:             getEnvInt("CACHE_REDIS_DB", 0),
			RedisPrefix:         getEnvString("CACHE_REDIS_PREFIX", "trip-to-travel:"),
			DefaultTTL:          getEnvDuration("CACHE_DEFAULT_TTL", 24*time.Hour),
			HealthCheckInterval: getEnvDuration("CACHE_HEALTH_CHECK_INTERVAL", 30*time.Second),
		},
		Storage: StorageConfig{
			Provider:          getEnvString("STORAGE_PROVIDER", "gcs"),
			Bucket:            getEnvString("STORAGE_BUCKET", "trip_to_travel_bucket"),
			CredentialsJSON:   getEnvString("GOOGLE_APPLICATION_CREDENTIALS_JSON", ""),
			CredentialsFile:   getEnvString("GOOGLE_APPLICATION_CREDENTIALS", ""),
			OperationTimeout:  getEnvDuration("STORAGE_OPERATION_TIMEOUT", 2*time.Minute),
			UploadConcurrency: getEnvInt("STORAGE_UPLOAD_CONCURRENCY", 5),
			ImageURLTTL:       getEnvDuration("STORAGE_IMAGE_URL_TTL", 5*time.Minute),
		},
		AI: AIConfig{
			Provider:    getEnvString("AI_PROVIDER", "http"),
			BaseURL:     getEnvString("AI_BASE_URL", ""),
			APIKey:      getEnvString("AI_API_KEY", ""),
			ScorePath:   getEnvString("AI_SCORE_PATH", "/importance"),
			CaptionPath: getEnvString("AI_CAPTION_PATH", "/caption"),
			DraftPath:   getEnvString("AI_DRAFT_PATH", "/draft"),
			Timeout:     getEnvDuration("AI_TIMEOUT", 2*time.Minute),
		},
		Geocoder: GeocoderConfig{
			Provider:    getEnvString("GEOCODER_PROVIDER", "nominatim"),
			BaseURL:     getEnvString("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:   getEnvString("GEOCODER_USER_AGENT", "trip-to-travel/1.0"),
			Language:    getEnvString("GEOCODER_LANGUAGE", "en"),
			Timeout:     getEnvDuration("GEOCODER_TIMEOUT", 10*time.Second),
			MinInterval: getEnvDuration("GEOCODER_MIN_INTERVAL", 1*time.Second),
			CacheTTL:    getEnvDuration("GEOCODER_CACHE_TTL", 30*24*time.Hour),
		},
		Export: ExportConfig{
			FontPath:       getEnvString("EXPORT_FONT_PATH", ""),
			FontSize:       getEnvFloat("EXPORT_FONT_SIZE", 12),
			MaxImagePixels: getEnvInt("EXPORT_MAX_IMAGE_PX", 2000),
			JPEGQuality:    getEnvInt("EXPORT_JPEG_QUALITY", 85),
			SignedURLTTL:   getEnvDuration("EXPORT_SIGNED_URL_TTL", 1*time.Hour),
		},
		Pipeline: PipelineConfig{
			MaxPhotosPerUpload: getEnvInt("PIPELINE_MAX_PHOTOS_PER_UPLOAD", 50),
			MaxPhotoSizeBytes:  int64(getEnvInt("PIPELINE_MAX_PHOTO_SIZE_BYTES", 20*1024*1024)),
		},
		Deployment: DeploymentConfig{
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("VERSION", "1.0.0"),
			CommitHash:  getEnvString("COMMIT_HASH", "unknown"),
			BuildTime:   getEnvString("BUILD_TIME", "unknown"),
		},
	}

	// Validate the loaded configuration
	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads environment variables from .env file if it exists
func loadEnvFile() error {
	envFile := ".env"

	// Check if .env file exists
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		// .env file doesn't exist, continue with environment variables
		return nil
	}

	// Open .env file
	file, err := os.Open(envFile)
	if err != nil {
		return fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	// Read file line by line
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Remove quotes if present
		if len(value) >= 2 && ((strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
			(strings.HasPrefix(value, `'`) && strings.HasSuffix(value, `'`))) {
			value = value[1 : len(value)-1]
		}

		// Set environment variable if not already set
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	return nil
}

// lookup resolves a key from the environment first, then the config file
func lookup(key string) (string, bool) {
	if value := os.Getenv(key); value != "" {
		return value, true
	}
	return fileValue(key)
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value, ok := lookup(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := lookup(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, ok := lookup(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, ok := lookup(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := lookup(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, ok := lookup(key); ok {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errors []string

	// Validate database configuration
	if cfg.Database.Host == "" {
		errors = append(errors, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errors = append(errors, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		errors = append(errors, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		errors = append(errors, "DB_USER is required")
	}

	// Validate server configuration
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errors = append(errors, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errors = append(errors, "SERVER_WRITE_TIMEOUT must be positive")
	}
	if cfg.Server.IdleTimeout <= 0 {
		errors = append(errors, "SERVER_IDLE_TIMEOUT must be positive")
	}

	// Validate API key configuration
	if cfg.Security.RequireAPIKey && len(cfg.Security.AllowedAPIKeys) == 0 {
		errors = append(errors, "ALLOWED_API_KEYS is required when REQUIRE_API_KEY is set")
	}

	// Validate storage configuration
	switch cfg.Storage.Provider {
	case "gcs", "memory":
	default:
		errors = append(errors, "STORAGE_PROVIDER must be one of: [gcs memory]")
	}
	if cfg.Storage.Bucket == "" {
		errors = append(errors, "STORAGE_BUCKET is required")
	}
	if cfg.Storage.UploadConcurrency <= 0 {
		errors = append(errors, "STORAGE_UPLOAD_CONCURRENCY must be positive")
	}
	if cfg.Storage.ImageURLTTL <= 0 {
		errors = append(errors, "STORAGE_IMAGE_URL_TTL must be positive")
	}

	// Validate AI configuration
	switch cfg.AI.Provider {
	case "mock":
	case "http":
		if cfg.AI.BaseURL == "" {
			errors = append(errors, "AI_BASE_URL is required for the http AI provider")
		}
	default:
		errors = append(errors, "AI_PROVIDER must be one of: [http mock]")
	}

	// Validate geocoder configuration
	switch cfg.Geocoder.Provider {
	case "nominatim", "mock":
	default:
		errors = append(errors, "GEOCODER_PROVIDER must be one of: [nominatim mock]")
	}

	// Validate export configuration
	if cfg.Export.FontSize <= 0 {
		errors = append(errors, "EXPORT_FONT_SIZE must be positive")
	}
	if cfg.Export.SignedURLTTL <= 0 {
		errors = append(errors, "EXPORT_SIGNED_URL_TTL must be positive")
	}
	if cfg.Export.JPEGQuality < 1 || cfg.Export.JPEGQuality > 100 {
		errors = append(errors, "EXPORT_JPEG_QUALITY must be between 1 and 100")
	}

	// Validate pipeline limits
	if cfg.Pipeline.MaxPhotosPerUpload <= 0 {
		errors = append(errors, "PIPELINE_MAX_PHOTOS_PER_UPLOAD must be positive")
	}
	if cfg.Pipeline.MaxPhotoSizeBytes <= 0 {
		errors = append(errors, "PIPELINE_MAX_PHOTO_SIZE_BYTES must be positive")
	}

	// Validate logging configuration
	if cfg.Logging.Level != "" {
		validLevels := []string{"debug", "info", "warn", "error"}
		if !slices.Contains(validLevels, cfg.Logging.Level) {
			errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %v", validLevels))
		}
	}

	// Validate cache configuration if enabled
	if cfg.Cache.Enabled {
		if cfg.Cache.Provider == "redis" && cfg.Cache.RedisURL == "" {
			errors = append(errors, "CACHE_REDIS_URL is required when cache is enabled with redis provider")
		}
	}

	// Return validation errors if any
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
