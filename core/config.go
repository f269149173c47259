package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf is the app-wide configuration, loaded once by LoadConfig.
var Conf *Config

type Config struct {
	Debug    bool
	TestMode bool
	Env      string // DEV (default), TEST, QA, PROD
	Build    string

	AppName         string
	SecretKey       []byte
	FrontendBaseURL string
	SendgridApiKey  string
	RollbarToken    string

	defaultFromEmail          string
	PasswordResetTimeoutDelta time.Duration

	Server struct {
		Host                      string
		Port                      string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	Database struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

func (c *Config) ServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) DatabaseAddress() string {
	return c.Database.Host + ":" + c.Database.Port
}

// LoadConfig reads configuration from the environment (and an optional
// config/.env.<env> file) and sets the Conf singleton.
func LoadConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Shule")
	v.SetDefault("secretKey", "2y#dwtmcésd$5&_s-hu@2d)o=2u9p0q%ct&0q^ip#b*x@zw+5m")
	v.SetDefault("frontendBaseURL", "http://localhost:8000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("serverHost", "")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseName", "shule")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", "5432")
	v.SetDefault("databaseDisableTLS", true)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := new(Config)
	conf.Env = env
	conf.Debug = v.GetBool("debug")
	conf.TestMode = env == "TEST"
	conf.Build = v.GetString("build")
	conf.AppName = v.GetString("appName")
	conf.SecretKey = []byte(v.GetString("secretKey"))
	conf.FrontendBaseURL = v.GetString("frontendBaseURL")
	conf.SendgridApiKey = v.GetString("sendgridApiKey")
	conf.RollbarToken = v.GetString("rollbarToken")
	conf.defaultFromEmail = v.GetString("defaultFromEmail")
	conf.PasswordResetTimeoutDelta = v.GetDuration("passwordResetTimeoutDelta")
	conf.Server.Host = v.GetString("serverHost")
	conf.Server.Port = v.GetString("serverPort")
	conf.Server.JWTExpirationDelta = v.GetDuration("jwtExpirationDelta")
	conf.Server.JWTRefreshExpirationDelta = v.GetDuration("jwtRefreshExpirationDelta")
	conf.Database.Engine = v.GetString("databaseEngine")
	conf.Database.Name = v.GetString("databaseName")
	conf.Database.User = v.GetString("databaseUser")
	conf.Database.Password = v.GetString("databasePassword")
	conf.Database.AdminUser = v.GetString("databaseAdminUser")
	conf.Database.AdminPassword = v.GetString("databaseAdminPassword")
	conf.Database.Host = v.GetString("databaseHost")
	conf.Database.Port = v.GetString("databasePort")
	conf.Database.DisableTLS = v.GetBool("databaseDisableTLS")

	Conf = conf
	return conf
}

func init() {
	if Conf == nil {
		LoadConfig()
	}
}
