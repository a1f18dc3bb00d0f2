package config

import (
	"strings"

	"github.com/spf13/viper"
)

type (
	Config struct {
		Server   Server
		Database Database
		Lending  Lending
	}

	Server struct {
		Addr         string
		ReadTimeout  int // seconds
		WriteTimeout int // seconds
	}

	Database struct {
		URL string
	}

	// Lending holds the workflow constants. They are fixed at process start and
	// injected into the lending service, never read globally.
	Lending struct {
		LoanDays   int
		FinePerDay float64
	}
)

// Load reads configuration from environment variables (LIBRARY_ prefix, dots as
// underscores), falling back to the documented defaults. DATABASE_URL is also
// honoured without the prefix for compatibility with common deployment setups.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("library")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("database.url", "")
	v.SetDefault("lending.loan_days", 14)
	v.SetDefault("lending.fine_per_day", 5.00)

	_ = v.BindEnv("database.url", "LIBRARY_DATABASE_URL", "DATABASE_URL")

	return Config{
		Server: Server{
			Addr:         v.GetString("server.addr"),
			ReadTimeout:  v.GetInt("server.read_timeout"),
			WriteTimeout: v.GetInt("server.write_timeout"),
		},
		Database: Database{
			URL: v.GetString("database.url"),
		},
		Lending: Lending{
			LoanDays:   v.GetInt("lending.loan_days"),
			FinePerDay: v.GetFloat64("lending.fine_per_day"),
		},
	}
}
