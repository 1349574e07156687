package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type (
	Config struct {
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		AppName          string
		Debug            bool
		TestMode         bool
		SecretKey        string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridApiKey   string
		defaultFromEmail string

		Server       serverConfig
		Auth         authConfig
		Registration registrationConfig
		Database     databaseConfig
		Redis        redisConfig
		Queue        queueConfig
		Email        emailConfig
		Log          logConfig
	}

	serverConfig struct {
		Host            string
		Addr            string
		DebugHost       string
		StaticDir       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		AuthRateLimit   float64 // requests per second per IP on register & login; 0 disables
	}

	authConfig struct {
		TokenExpiry    time.Duration
		BcryptCost     int
		PasswordPolicy bool
	}

	registrationConfig struct {
		AutoSeed bool
	}

	databaseConfig struct {
		Engine          string // postgres (lib/pq) | pgx
		Host            string
		Port            string
		Name            string
		User            string
		Password        string
		AdminUser       string
		AdminPassword   string
		DisableTLS      bool
		MaxOpenConns    int
		MaxIdleConns    int
		ConnMaxLifetime time.Duration
	}

	redisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	queueConfig struct {
		Backend string // memory | redis
		Key     string
		Size    int
	}

	emailConfig struct {
		Backend string // console | sendgrid
	}

	logConfig struct {
		Level  string
		Format string // console | json
	}
)

func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
	}
	return *addr
}

func (dbConf databaseConfig) Address() string {
	return net.JoinHostPort(dbConf.Host, dbConf.Port)
}

func (dbConf databaseConfig) DriverName() string {
	if dbConf.Engine == "pgx" {
		return "pgx"
	}
	return "postgres"
}

// NewConfig loads the configuration of the current ENV from the environment and `config/.env.<env>`.
func NewConfig() *Config {
	conf, err := LoadConfig(os.Getenv("ENV"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}

func LoadConfig(env string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env = strings.ToUpper(env)
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, fmt.Errorf("godotenv(%s): %w", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("os.Stat(%s): %w", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Server: serverConfig{
			Host:            v.GetString("server.host"),
			Addr:            v.GetString("server.addr"),
			DebugHost:       v.GetString("server.debugHost"),
			StaticDir:       v.GetString("server.staticDir"),
			ReadTimeout:     v.GetDuration("server.readTimeout"),
			WriteTimeout:    v.GetDuration("server.writeTimeout"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			AuthRateLimit:   v.GetFloat64("server.authRateLimit"),
		},
		Auth: authConfig{
			TokenExpiry:    v.GetDuration("auth.tokenExpiry"),
			BcryptCost:     v.GetInt("auth.bcryptCost"),
			PasswordPolicy: v.GetBool("auth.passwordPolicy"),
		},
		Registration: registrationConfig{
			AutoSeed: v.GetBool("registration.autoSeed"),
		},
		Database: databaseConfig{
			Engine:          v.GetString("database.engine"),
			Host:            v.GetString("database.host"),
			Port:            v.GetString("database.port"),
			Name:            v.GetString("database.name"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			AdminUser:       v.GetString("database.adminUser"),
			AdminPassword:   v.GetString("database.adminPassword"),
			DisableTLS:      v.GetBool("database.disableTLS"),
			MaxOpenConns:    v.GetInt("database.maxOpenConns"),
			MaxIdleConns:    v.GetInt("database.maxIdleConns"),
			ConnMaxLifetime: v.GetDuration("database.connMaxLifetime"),
		},
		Redis: redisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Queue: queueConfig{
			Backend: v.GetString("queue.backend"),
			Key:     v.GetString("queue.key"),
			Size:    v.GetInt("queue.size"),
		},
		Email: emailConfig{
			Backend: v.GetString("email.backend"),
		},
		Log: logConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// devSecretKey signs tokens in DEV and TEST only.
const devSecretKey = "x8@k2!vq_dev-secret_lm3$w9#pz7&r4^tb"

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Institute")
	v.SetDefault("secretKey", devSecretKey)
	v.SetDefault("frontendBaseURL", "http://localhost:5000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "Institute <no-reply@localhost>")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.debugHost", ":5001")
	v.SetDefault("server.staticDir", "")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.authRateLimit", 0.0)

	v.SetDefault("auth.tokenExpiry", 12*time.Hour)
	v.SetDefault("auth.bcryptCost", 10)
	v.SetDefault("auth.passwordPolicy", false)

	v.SetDefault("registration.autoSeed", true)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "institute")
	v.SetDefault("database.user", "institute")
	v.SetDefault("database.password", "institute")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 30*time.Minute)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("queue.backend", "memory")
	v.SetDefault("queue.key", "institute:notifications")
	v.SetDefault("queue.size", 64)

	v.SetDefault("email.backend", "console")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// ownSecretKey refuses the built-in key outside DEV and TEST.
func ownSecretKey(conf *Config) vala.Checker {
	return func() (bool, string) {
		if conf.Env == "DEV" || conf.Env == "TEST" {
			return true, ""
		}
		return conf.SecretKey != devSecretKey, fmt.Sprintf("secretKey: the development key cannot be used in %s", conf.Env)
	}
}

// Validate checks the settings the app cannot start without.
func (conf *Config) Validate() error {
	return vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.SecretKey, "secretKey"),
		ownSecretKey(conf),
		vala.StringNotEmpty(conf.AppName, "appName"),
		vala.GreaterThan(int(conf.Auth.TokenExpiry), 0, "auth.tokenExpiry"),
		vala.GreaterThan(conf.Auth.BcryptCost, bcrypt.MinCost-1, "auth.bcryptCost"),
		vala.GreaterThan(bcrypt.MaxCost+1, conf.Auth.BcryptCost, "auth.bcryptCost"),
		vala.GreaterThan(conf.Database.MaxOpenConns, 0, "database.maxOpenConns"),
		vala.GreaterThan(conf.Queue.Size, 0, "queue.size"),
	).Check()
}
