package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/database"
	"github.com/frahmantamala/identity-service/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "identity-service",
	Short: "Identity Service",
	Long:  `Registration, login, refresh-token rotation and permission management.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		cfg := internal.LoadConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("error validating config from environment: %w", err)
		}
		return cfg, nil
	}

	// Load configuration from file (development)
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_server.port", 8080)
	v.SetDefault("http_server.allowed_origins", "*")
	v.SetDefault("http_server.read_header_timeout", "5s")
	v.SetDefault("http_server.read_timeout", "15s")
	v.SetDefault("http_server.write_timeout", "15s")
	v.SetDefault("http_server.idle_timeout", "60s")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("security.access_token_minutes", 15)
	v.SetDefault("security.refresh_token_days", 7)
	v.SetDefault("security.authorization_mode", internal.AuthorizationModeAlwaysRecheck)
	v.SetDefault("security.refresh_token_purge_interval", "1h")
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
}

// openStore loads config, installs the logger and connects to the database.
// sqlite stores get their schema from the data models.
func openStore() (*internal.Config, *database.DB, error) {
	// bootstrap logger until the logging section is known
	logger.Init(os.Getenv("APP_ENV"))

	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Configure(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	db, err := database.Open(cfg.Database, logger.LoggerWrapper())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if cfg.Database.Driver == "sqlite" {
		if err := database.AutoMigrate(db.Gorm); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}
	return cfg, db, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory containing config.yml")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(permissionsCmd)
	rootCmd.AddCommand(tokensCmd)
}
