package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		Driver string
		DSN    string
	}
	Seed struct {
		File string
	}
	Server struct {
		EnforceAuthor bool
		UsersRate     float64
		UsersBurst    int
	}
	CORS struct {
		AllowedOrigins []string
	}
	Client struct {
		BaseURL string
		Timeout time.Duration
	}
	// Local is the client's durable key/value store (theme, token, user).
	Local struct {
		Driver string
		DSN    string
	}
	Auth struct {
		Provider string
	}
	OIDC struct {
		Issuer       string
		ClientID     string
		ClientSecret string
	}
	PreferDark bool
}

// Load reads config from environment (DEVHUB_ prefix), an optional .env file
// and an optional devhub.yaml.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional .env

	v := viper.New()
	v.SetEnvPrefix("DEVHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("devhub")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	setDefaults(v)
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":3001")
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "file:devhub.db")
	v.SetDefault("server.enforce_author", false)
	v.SetDefault("server.users_rate", 10.0)
	v.SetDefault("server.users_burst", 20)
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("client.base_url", "http://localhost:3001/")
	v.SetDefault("client.timeout", "15s")
	v.SetDefault("local.driver", "sqlite3")
	v.SetDefault("local.dsn", "file:devhub-local.db")
	v.SetDefault("auth.provider", "userlist")
	v.SetDefault("theme.prefer_dark", false)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Seed.File = v.GetString("seed.file")
	cfg.Server.EnforceAuthor = v.GetBool("server.enforce_author")
	cfg.Server.UsersRate = v.GetFloat64("server.users_rate")
	cfg.Server.UsersBurst = v.GetInt("server.users_burst")
	cfg.CORS.AllowedOrigins = splitList(v.GetString("cors.allowed_origins"))
	cfg.Client.BaseURL = v.GetString("client.base_url")
	cfg.Local.Driver = v.GetString("local.driver")
	cfg.Local.DSN = v.GetString("local.dsn")
	cfg.Auth.Provider = v.GetString("auth.provider")
	cfg.OIDC.Issuer = v.GetString("oidc.issuer")
	cfg.OIDC.ClientID = v.GetString("oidc.client_id")
	cfg.OIDC.ClientSecret = v.GetString("oidc.client_secret")
	cfg.PreferDark = v.GetBool("theme.prefer_dark")

	timeout, err := time.ParseDuration(v.GetString("client.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEVHUB_CLIENT_TIMEOUT: %w", err)
	}
	cfg.Client.Timeout = timeout

	if cfg.DB.Driver == "" {
		return nil, fmt.Errorf("DEVHUB_DB_DRIVER is required (sqlite3, mysql, postgres)")
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("DEVHUB_DB_DSN is required")
	}
	if cfg.Client.BaseURL == "" {
		return nil, fmt.Errorf("DEVHUB_CLIENT_BASE_URL is required")
	}
	if cfg.Server.UsersRate <= 0 {
		return nil, fmt.Errorf("DEVHUB_SERVER_USERS_RATE must be positive")
	}

	switch cfg.Auth.Provider {
	case "userlist":
	case "oidc":
		if cfg.OIDC.Issuer == "" {
			return nil, fmt.Errorf("DEVHUB_OIDC_ISSUER is required when DEVHUB_AUTH_PROVIDER=oidc")
		}
		if cfg.OIDC.ClientID == "" {
			return nil, fmt.Errorf("DEVHUB_OIDC_CLIENT_ID is required when DEVHUB_AUTH_PROVIDER=oidc")
		}
	default:
		return nil, fmt.Errorf("unsupported DEVHUB_AUTH_PROVIDER %q: must be userlist or oidc", cfg.Auth.Provider)
	}

	return cfg, nil
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
