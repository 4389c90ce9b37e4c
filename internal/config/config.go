package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Library  LibraryConfig
}

type ServerConfig struct {
	Port    string
	AppName string `mapstructure:"app_name"`
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	TimeZone    string
	TablePrefix string `mapstructure:"table_prefix"`
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int `mapstructure:"expiry_hours"`
}

// LibraryConfig holds the lending policy knobs.
type LibraryConfig struct {
	LoanPeriodDays  int     `mapstructure:"loan_period_days"`
	FinePerDay      float64 `mapstructure:"fine_per_day"`
	BorrowingLimit  int     `mapstructure:"borrowing_limit"`
	ReminderEnabled bool    `mapstructure:"reminder_enabled"`
}

func LoadConfig() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", ":8080")
	viper.SetDefault("server.app_name", "bookstack")
	viper.SetDefault("jwt.expiry_hours", 72)
	viper.SetDefault("library.loan_period_days", 14)
	viper.SetDefault("library.fine_per_day", 0.25)
	viper.SetDefault("library.borrowing_limit", 5)
	viper.SetDefault("library.reminder_enabled", true)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Error reading config file, %s", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	return &config
}
