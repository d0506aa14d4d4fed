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

type (
	Config struct {
		AppName        string
		Env            string // DEV (local; default), TEST, QA, PROD
		Build          string
		Debug          bool
		TestMode       bool
		SecretKey      string
		RollbarToken   string
		SendgridAPIKey string
		FromEmail      string
		StaffEmails    []string // reminder recipients
		Server         ServerConfig
		Database       DatabaseConfig
		Scheduler      SchedulerConfig
	}

	ServerConfig struct {
		Host               string
		Address            string
		JWTExpirationDelta time.Duration
		ShutdownTimeout    time.Duration
	}

	DatabaseConfig struct {
		Engine     string // postgres | sqlite3 | memory
		Name       string
		Host       string
		Port       int
		User       string
		Password   string
		DisableTLS bool
	}

	SchedulerConfig struct {
		Enabled           bool
		Interval          time.Duration
		ReminderEnabled   bool
		ReminderBeforeEnd time.Duration
		AutoSelectEnabled bool
		CleanupEnabled    bool
		CleanupAfter      time.Duration
	}
)

func (db DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", db.Host, db.Port)
}

// DefaultFromEmail parses the configured sender address, falling back to a bare noreply.
func (conf *Config) DefaultFromEmail() mail.Address {
	if addr, err := mail.ParseAddress(conf.FromEmail); err == nil {
		return *addr
	}
	return mail.Address{Name: conf.AppName, Address: "noreply@localhost"}
}

// StaffAddresses returns the parsable entries of StaffEmails.
func (conf *Config) StaffAddresses() []mail.Address {
	addrs := make([]mail.Address, 0, len(conf.StaffEmails))
	for _, s := range conf.StaffEmails {
		if addr, err := mail.ParseAddress(CleanString(s)); err == nil {
			addrs = append(addrs, *addr)
		}
	}
	return addrs
}

// NewConfig loads the configuration of the current ENV.
// Values are read from the environment (prefixed with the ENV name, eg. DEV_DATABASE_ENGINE)
// after loading config/.env.<env> when that file exists.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("appName", "Cantine")
	v.SetDefault("build", "dev")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "kq2-u8)vbn$+41=ht&ezxo3(c!w)#*d7(#pa6^$nfxj9stl")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("fromEmail", "Cantine <noreply@localhost>")
	v.SetDefault("staffEmails", []string{})

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("database.engine", "sqlite3")
	v.SetDefault("database.name", "cantine.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", false)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.interval", time.Minute)
	v.SetDefault("scheduler.reminderEnabled", true)
	v.SetDefault("scheduler.reminderBeforeEnd", 2*time.Hour)
	v.SetDefault("scheduler.autoSelectEnabled", false)
	v.SetDefault("scheduler.cleanupEnabled", false)
	v.SetDefault("scheduler.cleanupAfter", 30*24*time.Hour)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if wd, err := os.Getwd(); err == nil {
		dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	v.AutomaticEnv()

	return &Config{
		AppName:        v.GetString("appName"),
		Env:            env,
		Build:          v.GetString("build"),
		Debug:          v.GetBool("debug"),
		TestMode:       v.GetBool("testMode"),
		SecretKey:      v.GetString("secretKey"),
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridAPIKey: v.GetString("sendgridApiKey"),
		FromEmail:      v.GetString("fromEmail"),
		StaffEmails:    v.GetStringSlice("staffEmails"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Name:       v.GetString("database.name"),
			Host:       v.GetString("database.host"),
			Port:       v.GetInt("database.port"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disableTLS"),
		},
		Scheduler: SchedulerConfig{
			Enabled:           v.GetBool("scheduler.enabled"),
			Interval:          v.GetDuration("scheduler.interval"),
			ReminderEnabled:   v.GetBool("scheduler.reminderEnabled"),
			ReminderBeforeEnd: v.GetDuration("scheduler.reminderBeforeEnd"),
			AutoSelectEnabled: v.GetBool("scheduler.autoSelectEnabled"),
			CleanupEnabled:    v.GetBool("scheduler.cleanupEnabled"),
			CleanupAfter:      v.GetDuration("scheduler.cleanupAfter"),
		},
	}
}
