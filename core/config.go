package core

import (
	"log"
	"net"
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
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		RollbarToken     string
		SendgridApiKey   string
		defaultFromEmail string
		AdminEmails      []string
		WorkDir          string

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Standing StandingConfig
		Risk     RiskConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Name          string
		DisableTLS    bool
	}

	RedisConfig struct {
		Addr     string // empty disables the risk report cache
		Password string
		DB       int
		RiskTTL  time.Duration
	}

	// StandingConfig holds the thresholds of the payment and eligibility rules.
	StandingConfig struct {
		DeadlineDay           int
		ArrearsBanThreshold   int
		ArrearsLookbackMonths int
		TrialSessions         int
		BillableLateCutoff    int // minutes
		MaxLateMinutes        int
		TimeZone              string
	}

	RiskConfig struct {
		AbsenceRateThreshold int // percent
		LateCountThreshold   int
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

func (conf *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
}

// AdminAddresses returns the recipients of admin notifications.
func (conf *Config) AdminAddresses() []mail.Address {
	addrs := make([]mail.Address, 0, len(conf.AdminEmails))
	for _, email := range conf.AdminEmails {
		if email = CleanString(email, true /* lower */); email != "" {
			addrs = append(addrs, mail.Address{Address: email})
		}
	}
	return addrs
}

// Location returns the school time zone used to evaluate calendar rules.
func (s StandingConfig) Location() *time.Location {
	if s.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		log.Printf("config: unknown time zone %q, falling back to UTC", s.TimeZone)
		return time.UTC
	}
	return loc
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Ecole")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "t3z!0q-8w+ecole_standing(kh2)#*c2@yg4h^$cegm2emy")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("adminEmails", []string{"admin@localhost"})

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "ecole")
	v.SetDefault("database.password", "ecole")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.name", "ecole")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.riskTTL", 5*time.Minute)

	v.SetDefault("standing.deadlineDay", 10)
	v.SetDefault("standing.arrearsBanThreshold", 2)
	v.SetDefault("standing.arrearsLookbackMonths", 12)
	v.SetDefault("standing.trialSessions", 2)
	v.SetDefault("standing.billableLateCutoff", 15)
	v.SetDefault("standing.maxLateMinutes", 120)
	v.SetDefault("standing.timeZone", "UTC")

	v.SetDefault("risk.absenceRateThreshold", 30)
	v.SetDefault("risk.lateCountThreshold", 3)

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
	workDir := Getwd()
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		AdminEmails:      v.GetStringSlice("adminEmails"),
		WorkDir:          workDir,
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Name:          v.GetString("database.name"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			RiskTTL:  v.GetDuration("redis.riskTTL"),
		},
		Standing: StandingConfig{
			DeadlineDay:           v.GetInt("standing.deadlineDay"),
			ArrearsBanThreshold:   v.GetInt("standing.arrearsBanThreshold"),
			ArrearsLookbackMonths: v.GetInt("standing.arrearsLookbackMonths"),
			TrialSessions:         v.GetInt("standing.trialSessions"),
			BillableLateCutoff:    v.GetInt("standing.billableLateCutoff"),
			MaxLateMinutes:        v.GetInt("standing.maxLateMinutes"),
			TimeZone:              v.GetString("standing.timeZone"),
		},
		Risk: RiskConfig{
			AbsenceRateThreshold: v.GetInt("risk.absenceRateThreshold"),
			LateCountThreshold:   v.GetInt("risk.lateCountThreshold"),
		},
	}
}
