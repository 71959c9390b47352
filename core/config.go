package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env       string
	Debug     bool
	TestMode  bool
	Build     string
	AppName   string
	SecretKey string

	DefaultFromName  string
	DefaultFromEmail string
	SendgridApiKey   string
	RollbarToken     string
	FrontendBaseURL  string

	Server struct {
		Host               string
		Port               int
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	Database struct {
		Engine        string
		Name          string
		Host          string
		Port          int
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	Blob struct {
		CloudName string
		ApiKey    string
		ApiSecret string
	}
}

func (c *Config) FromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromEmail}
}

func (c *Config) DatabaseAddress() string {
	return fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
}

func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// NewConfig loads the app configuration from defaults, an optional
// config/.env.<env> file and prefixed environment variables.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Aula")
	v.SetDefault("secretKey", "q0dkpc&#yg4h^$ceg-wer)enb$+57=dz&uoxh2(h!x)#*c2(m")
	v.SetDefault("defaultFromName", "Aula")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "aula")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.disableTLS", true)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetDefault("env", env)
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.viper.Unmarshal: %v", err)
	}
	return conf
}
