package config // package config loads application configuration from environment variables

import (
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"

    "github.com/rs/zerolog/log" // log reports configuration errors and halts execution
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Credentials that an admin may rotate at runtime
// (payment keys, SMTP, image host, reCAPTCHA, chat) are not part of Config;
// they are resolved per call through the settings resolver.
type Config struct {
    Env              string        // application environment (e.g. "dev", "prod")
    Port             string        // HTTP port to listen on
    DBUser           string        // database username
    DBPass           string        // database password (optional)
    DBHost           string        // database host address
    DBPort           string        // database port number
    DBName           string        // database name
    JWTSecret        string        // secret used to sign JWTs
    AccessTTLMin     int           // access token time‑to‑live in minutes
    RefreshTTLDays   int           // refresh token time‑to‑live in days
    BcryptCost       int           // bcrypt cost for password hashing
    BaseURL          string        // public site URL used in emailed links
    AutoMigrate      bool          // apply embedded migrations at startup
    SettingsCacheTTL time.Duration // lifetime of the cached settings map in Redis
    NotifyMode       string        // "queue" publishes emails to RabbitMQ, "direct" sends inline
    LogLevel         string        // zerolog level name
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:              must("APP_ENV"),
        Port:             must("APP_PORT"),
        DBUser:           must("DB_USER"),
        DBPass:           os.Getenv("DB_PASS"), // empty allowed
        DBHost:           must("DB_HOST"),
        DBPort:           must("DB_PORT"),
        DBName:           must("DB_NAME"),
        JWTSecret:        must("JWT_SECRET"),
        AccessTTLMin:     mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays:   mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:       mustInt("BCRYPT_COST"),
        BaseURL:          envStr("APP_BASE_URL", "http://localhost:3000"),
        AutoMigrate:      envBool("AUTO_MIGRATE", false),
        SettingsCacheTTL: envDur("SETTINGS_CACHE_TTL", 30*time.Second),
        NotifyMode:       envStr("NOTIFY_MODE", "queue"),
        LogLevel:         envStr("LOG_LEVEL", "info"),
    }
}

// IsDev reports whether the service runs in a development environment.
func (c Config) IsDev() bool { return c.Env == "dev" || c.Env == "development" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatal().Str("key", key).Msg("missing required env var")
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatal().Str("key", key).Str("value", s).Msg("invalid int env var")
    }
    return n
}
