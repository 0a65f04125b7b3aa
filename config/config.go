package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds every environment-supplied setting the server needs.
type Config struct {
	Env      string `env:"ENV,default=development"`
	Port     string `env:"PORT,default=4000"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	Database Database
	Auth     Auth
	Gateway  Gateway

	RedisAddr string `env:"REDIS_ADDR"`
	RedisPass string `env:"REDIS_PASS"`
	RedisDB   int    `env:"REDIS_DB,default=0"`

	CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS"`
	TrustedProxies     string        `env:"TRUSTED_PROXIES"`
	MaxBodyBytes       int64         `env:"MAX_BODY_BYTES,default=1048576"`
	RequestTimeout     time.Duration `env:"REQ_TIMEOUT,default=15s"`
}

type Database struct {
	Driver          string        `env:"DB_DRIVER,default=mysql"`
	URL             string        `env:"DATABASE_URL,required"`
	TLSCAPath       string        `env:"DB_TLS_CA_PATH"`
	ConnectRetries  int           `env:"DB_CONNECT_RETRIES,default=5"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=25"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=1h"`
}

type Auth struct {
	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"JWT_TTL,default=168h"`
	// BcryptCost is 12 in production; lower it only for local load testing.
	BcryptCost int `env:"BCRYPT_COST,default=12"`
}

// Gateway carries the NOWPayments credentials. It is handed to the investment
// service at construction instead of being read from the environment there.
type Gateway struct {
	BaseURL     string        `env:"NOWPAYMENTS_BASE_URL,default=https://api.nowpayments.io/v1"`
	APIKey      string        `env:"NOWPAYMENTS_API_KEY"`
	IPNSecret   string        `env:"NOWPAYMENTS_IPN_SECRET"`
	CallbackURL string        `env:"IPN_CALLBACK_URL"`
	Timeout     time.Duration `env:"GATEWAY_TIMEOUT,default=30s"`
}

// Load reads .env (without overriding variables already set) and decodes the
// environment into a Config.
func Load() (*Config, error) {
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be blank")
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return strings.ToLower(c.Env) == "development"
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas, dropping blanks.
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// TrustedProxyList is the set of proxy IPs or CIDRs whose X-Forwarded-For is honoured.
func (c *Config) TrustedProxyList() []string {
	return splitList(c.TrustedProxies)
}

// persistHeadroom is the time left after a gateway call for the database write.
const persistHeadroom = 10 * time.Second

// HandlerTimeout is the per-request deadline. It never undercuts the gateway
// timeout plus room to persist the result.
func (c *Config) HandlerTimeout() time.Duration {
	if min := c.Gateway.Timeout + persistHeadroom; c.RequestTimeout < min {
		return min
	}
	return c.RequestTimeout
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
