package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env                       string // DEV (local; default), TEST, QA, PROD
		Build                     string
		AppName                   string
		Debug                     bool
		TestMode                  bool
		SecretKey                 string
		WorkDir                   string
		FrontendBaseURL           string
		SendgridApiKey            string
		RollbarToken              string
		PasswordResetTimeoutDelta time.Duration

		defaultFromEmail string

		Server   ServerConfig
		Database DatabaseConfig
		Rewards  RewardsConfig
		Groups   GroupsConfig
	}

	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		DisableReqLogs            bool
		CountryHeader             string
		AllowedCountries          []string // empty: every country is allowed
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RewardsConfig struct {
		Thresholds []int
		Badges     []BadgeConfig
	}

	BadgeConfig struct {
		Category string
		Types    []string
	}

	GroupsConfig struct {
		ActivityWindowDays int
	}
)

// Address returns the "host:port" of the database server.
func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

// NewConfig loads the application configuration from defaults, the optional `config/.env.<env>` file
// and the environment (variables are prefixed by the env name, eg: `PROD_SECRETKEY`).
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	workDir := Getwd()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Fitness Tracker")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "l7v%zq0#p2(m3^tq$k+2x=dw9sa!c*rj@f8uh_y5e)b6go4n1")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.countryHeader", "X-Vercel-IP-Country")
	v.SetDefault("server.allowedCountries", "")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "fitness")
	v.SetDefault("database.user", "fitness")
	v.SetDefault("database.password", "fitness")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", env == "DEV" || env == "TEST")

	v.SetDefault("rewards.thresholds", "100,250,500,750,1000,1500,2000,3000")
	v.SetDefault("rewards.badges.team", "basketball,football,volleyball,hockey,handball")
	v.SetDefault("rewards.badges.outdoor", "running,bikeSports,swimming,climbing,trekking,surfing,skating,walking,raquetSports")
	v.SetDefault("groups.activityWindowDays", 60)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		AppName:                   v.GetString("appName"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		SecretKey:                 v.GetString("secretKey"),
		WorkDir:                   workDir,
		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		defaultFromEmail:          v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			DisableReqLogs:            v.GetBool("server.disableReqLogs"),
			CountryHeader:             v.GetString("server.countryHeader"),
			AllowedCountries:          splitList(v.GetString("server.allowedCountries"), true),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Rewards: RewardsConfig{
			Thresholds: parseInts(v.GetString("rewards.thresholds")),
			Badges: []BadgeConfig{
				{Category: "team", Types: splitList(v.GetString("rewards.badges.team"), false)},
				{Category: "outdoor", Types: splitList(v.GetString("rewards.badges.outdoor"), false)},
			},
		},
		Groups: GroupsConfig{
			ActivityWindowDays: v.GetInt("groups.activityWindowDays"),
		},
	}
}

// splitList splits a comma separated list, dropping empty items.
func splitList(s string, upper bool) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		item = CleanString(item)
		if item == "" {
			continue
		}
		if upper {
			item = strings.ToUpper(item)
		}
		items = append(items, item)
	}
	return items
}

func parseInts(s string) []int {
	var ints []int
	for _, item := range splitList(s, false) {
		n, err := strconv.Atoi(item)
		if err != nil {
			log.Fatalf("config.parseInts(%q): %v", s, err)
		}
		ints = append(ints, n)
	}
	return ints
}
