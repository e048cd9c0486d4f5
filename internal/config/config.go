/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the debitcard-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                string `mapstructure:"SERVER_PORT"`
	DatabaseURL               string `mapstructure:"DATABASE_URL"`
	RabbitMQURL               string `mapstructure:"RABBITMQ_URL"`
	EventExchange             string `mapstructure:"EVENT_EXCHANGE"`
	TransferRequestQueue      string `mapstructure:"TRANSFER_REQUEST_QUEUE"`
	TransferRequestRoutingKey string `mapstructure:"TRANSFER_REQUEST_ROUTING_KEY"`
	TransferOutcomeRoutingKey string `mapstructure:"TRANSFER_OUTCOME_ROUTING_KEY"`
	AccountServiceURL         string `mapstructure:"ACCOUNT_SERVICE_URL"`
	AccountServiceAPIKey      string `mapstructure:"ACCOUNT_SERVICE_API_KEY"`
	InternalAPIKey            string `mapstructure:"INTERNAL_API_KEY"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("EVENT_EXCHANGE", "bank.events")
	viper.SetDefault("TRANSFER_REQUEST_QUEUE", "debitcard_service.transfer_requests")
	viper.SetDefault("TRANSFER_REQUEST_ROUTING_KEY", "debitcard.transfer.requested")
	viper.SetDefault("TRANSFER_OUTCOME_ROUTING_KEY", "debitcard.transaction.outcome")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("EVENT_EXCHANGE")
	_ = viper.BindEnv("TRANSFER_REQUEST_QUEUE")
	_ = viper.BindEnv("TRANSFER_REQUEST_ROUTING_KEY")
	_ = viper.BindEnv("TRANSFER_OUTCOME_ROUTING_KEY")
	_ = viper.BindEnv("ACCOUNT_SERVICE_URL")
	_ = viper.BindEnv("ACCOUNT_SERVICE_API_KEY")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "DEBITCARD_SERVICE_INTERNAL_API_KEY")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if strings.TrimSpace(config.InternalAPIKey) == "" {
		config.InternalAPIKey = strings.TrimSpace(os.Getenv("DEBITCARD_SERVICE_INTERNAL_API_KEY"))
	}
	config.AccountServiceAPIKey = strings.TrimSpace(config.AccountServiceAPIKey)
	if config.AccountServiceAPIKey == "" {
		config.AccountServiceAPIKey = config.InternalAPIKey
	}

	return
}
