package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/angelmondragon/shipquote-backend/pkg/enums"
)

const (
	EnvPrefix = "SHIPQUOTE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SHIPQUOTE_DB_DSN"
	EnvDBHost = "SHIPQUOTE_DB_HOST"
	EnvDBUser = "SHIPQUOTE_DB_USER"
	EnvDBName = "SHIPQUOTE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	Remote       RemoteConfig
	Store        StoreConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHIPQUOTE_APP_ENV" required:"true"`
	Port         string `envconfig:"SHIPQUOTE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHIPQUOTE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHIPQUOTE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHIPQUOTE_DB_DSN"`
	Driver string `envconfig:"SHIPQUOTE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHIPQUOTE_DB_HOST"`
	LegacyPort     int    `envconfig:"SHIPQUOTE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHIPQUOTE_DB_USER"`
	LegacyPassword string `envconfig:"SHIPQUOTE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHIPQUOTE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHIPQUOTE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHIPQUOTE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHIPQUOTE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHIPQUOTE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHIPQUOTE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHIPQUOTE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHIPQUOTE_REDIS_ADDR"`
	Password     string        `envconfig:"SHIPQUOTE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHIPQUOTE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHIPQUOTE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHIPQUOTE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHIPQUOTE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHIPQUOTE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHIPQUOTE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig covers the customer-scoped session store and the HMAC
// tokens guarding the shipping-options endpoint.
type SessionConfig struct {
	Secret string        `envconfig:"SHIPQUOTE_SESSION_SECRET" required:"true"`
	TTL    time.Duration `envconfig:"SHIPQUOTE_SESSION_TTL" default:"48h"`
}

// RemoteConfig points at the carrier quoting backend.
type RemoteConfig struct {
	APIURL       string `envconfig:"SHIPQUOTE_REMOTE_API_URL"`
	BFFURL       string `envconfig:"SHIPQUOTE_REMOTE_BFF_URL"`
	DashboardURL string `envconfig:"SHIPQUOTE_REMOTE_DASHBOARD_URL"`
	ClientID     string `envconfig:"SHIPQUOTE_REMOTE_CLIENT_ID" required:"true"`
	SecretID     string `envconfig:"SHIPQUOTE_REMOTE_SECRET_ID"`
	SecretKey    string `envconfig:"SHIPQUOTE_REMOTE_SECRET_KEY"`
	TenantID     string `envconfig:"SHIPQUOTE_REMOTE_TENANT_ID"`
	TestMode     bool   `envconfig:"SHIPQUOTE_REMOTE_TEST_MODE" default:"false"`

	RequestTimeout   time.Duration `envconfig:"SHIPQUOTE_REMOTE_REQUEST_TIMEOUT" default:"45s"`
	TokenTTL         time.Duration `envconfig:"SHIPQUOTE_REMOTE_TOKEN_TTL" default:"1h"`
	TokenSkewMargin  time.Duration `envconfig:"SHIPQUOTE_REMOTE_TOKEN_SKEW_MARGIN" default:"5m"`
	QuoteCacheTTL    time.Duration `envconfig:"SHIPQUOTE_REMOTE_QUOTE_CACHE_TTL" default:"5m"`
	SettingsCacheTTL time.Duration `envconfig:"SHIPQUOTE_REMOTE_SETTINGS_CACHE_TTL" default:"30s"`
}

// URLsConfigured reports whether every remote endpoint base is present.
// A false value disables account-linked functionality rather than
// failing rate requests.
func (r RemoteConfig) URLsConfigured() bool {
	return strings.TrimSpace(r.APIURL) != "" &&
		strings.TrimSpace(r.BFFURL) != "" &&
		strings.TrimSpace(r.DashboardURL) != ""
}

// StoreConfig describes the host storefront this instance quotes for.
type StoreConfig struct {
	Name          string `envconfig:"SHIPQUOTE_STORE_NAME" required:"true"`
	URL           string `envconfig:"SHIPQUOTE_STORE_URL" required:"true"`
	WeightUnit    string `envconfig:"SHIPQUOTE_STORE_WEIGHT_UNIT" default:"kg"`
	DimensionUnit string `envconfig:"SHIPQUOTE_STORE_DIMENSION_UNIT" default:"cm"`
	ShipTo        string `envconfig:"SHIPQUOTE_STORE_SHIP_TO" default:"billing"`

	MethodTitle      string `envconfig:"SHIPQUOTE_STORE_METHOD_TITLE" default:"SmartShip"`
	MethodInstanceID int    `envconfig:"SHIPQUOTE_STORE_METHOD_INSTANCE_ID" default:"0"`

	RestOrderURL    string `envconfig:"SHIPQUOTE_STORE_REST_ORDER_URL"`
	RestSettingsURL string `envconfig:"SHIPQUOTE_STORE_REST_SETTINGS_URL"`
	ConsumerKey     string `envconfig:"SHIPQUOTE_STORE_CONSUMER_KEY"`
	ConsumerSecret  string `envconfig:"SHIPQUOTE_STORE_CONSUMER_SECRET"`
}

func (s StoreConfig) validate() error {
	if _, err := enums.ParseWeightUnit(s.WeightUnit); err != nil {
		return err
	}
	if _, err := enums.ParseDimensionUnit(s.DimensionUnit); err != nil {
		return err
	}
	if _, err := enums.ParseShipTo(s.ShipTo); err != nil {
		return err
	}
	return nil
}

// WeightUnitEnum returns the typed weight unit; validate() guarantees it parses.
func (s StoreConfig) WeightUnitEnum() enums.WeightUnit {
	unit, _ := enums.ParseWeightUnit(s.WeightUnit)
	return unit
}

// DimensionUnitEnum returns the typed dimension unit.
func (s StoreConfig) DimensionUnitEnum() enums.DimensionUnit {
	unit, _ := enums.ParseDimensionUnit(s.DimensionUnit)
	return unit
}

// ShipToEnum returns the typed ship-to destination switch.
func (s StoreConfig) ShipToEnum() enums.ShipTo {
	shipTo, _ := enums.ParseShipTo(s.ShipTo)
	return shipTo
}

// Host returns the storefront host component used when minting tenant IDs.
func (s StoreConfig) Host() string {
	parsed, err := url.Parse(s.URL)
	if err != nil || parsed.Host == "" {
		return strings.TrimSpace(s.URL)
	}
	return parsed.Host
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SHIPQUOTE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SHIPQUOTE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
