package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string
	IsProduction    bool
	FrontendBaseURL string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL           string
	EnableDBCheck bool
}

// AuthConfig holds token issuing settings.
type AuthConfig struct {
	JWTSecret                string
	Issuer                   string
	AccessTokenExpiryMinutes int
	RefreshTokenExpiryDays   int
	RefreshTokenCookieName   string
	RefreshTokenCookiePath   string
	LoginRateLimit           string
}

// GoogleOAuthConfig holds the Google sign-in credentials.
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// AppConfig is the root application configuration.
type AppConfig struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	GoogleOAuth GoogleOAuthConfig
}

// LoadConfig loads configuration from environment variables and a .env file
// if one is present. Environment variables override .env values.
func LoadConfig() (*AppConfig, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "expense-approval-app")
	viper.SetDefault("ACCESS_TOKEN_EXPIRY_MINUTES", 60)
	viper.SetDefault("REFRESH_TOKEN_EXPIRY_DAYS", 7)
	viper.SetDefault("REFRESH_TOKEN_COOKIE_NAME", "rtid")
	viper.SetDefault("REFRESH_TOKEN_COOKIE_PATH", "/api/v1/auth")
	viper.SetDefault("LOGIN_RATE_LIMIT", "5-M")
	viper.SetDefault("GOOGLE_CLIENT_ID", "")
	viper.SetDefault("GOOGLE_CLIENT_SECRET", "")
	viper.SetDefault("GOOGLE_REDIRECT_URL", "")

	viper.AutomaticEnv()

	cfg := &AppConfig{
		Server: ServerConfig{
			Port:            viper.GetString("PORT"),
			IsProduction:    viper.GetBool("IS_PRODUCTION"),
			FrontendBaseURL: viper.GetString("FRONTEND_BASE_URL"),
		},
		Database: DatabaseConfig{
			URL:           viper.GetString("PGSQL_URL"),
			EnableDBCheck: viper.GetBool("ENABLE_DB_CHECK"),
		},
		Auth: AuthConfig{
			JWTSecret:                viper.GetString("JWT_SECRET"),
			Issuer:                   viper.GetString("JWT_ISSUER"),
			AccessTokenExpiryMinutes: viper.GetInt("ACCESS_TOKEN_EXPIRY_MINUTES"),
			RefreshTokenExpiryDays:   viper.GetInt("REFRESH_TOKEN_EXPIRY_DAYS"),
			RefreshTokenCookieName:   viper.GetString("REFRESH_TOKEN_COOKIE_NAME"),
			RefreshTokenCookiePath:   viper.GetString("REFRESH_TOKEN_COOKIE_PATH"),
			LoginRateLimit:           viper.GetString("LOGIN_RATE_LIMIT"),
		},
		GoogleOAuth: GoogleOAuthConfig{
			ClientID:     viper.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: viper.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  viper.GetString("GOOGLE_REDIRECT_URL"),
		},
	}

	if cfg.Database.URL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.Auth.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}
	if cfg.GoogleOAuth.ClientID == "" || cfg.GoogleOAuth.ClientSecret == "" {
		log.Println("Warning: Google OAuth credentials not set. Google sign-in will not function.")
	}

	return cfg, nil
}
