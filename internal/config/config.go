package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port               string        `yaml:"port"`
	AppEnv             string        `yaml:"app_env"`
	LogLevel           string        `yaml:"log_level"`
	StorageDriver      string        `yaml:"storage_driver"`
	DataDir            string        `yaml:"data_dir"`
	DBPath             string        `yaml:"db_path"`
	DatabaseURL        string        `yaml:"database_url"`
	WatchDataDir       bool          `yaml:"watch_data_dir"`
	JWTSecret          string        `yaml:"jwt_secret"`
	TokenTTL           time.Duration `yaml:"token_ttl"`
	AdminUsername      string        `yaml:"admin_username"`
	AdminPassword      string        `yaml:"admin_password"`
	MemberGoal         int           `yaml:"member_goal"`
	AllowedOrigins     []string      `yaml:"allowed_origins"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	PublicSearch       bool          `yaml:"public_search"`
	Timezone           string        `yaml:"timezone"`

	WhatsAppToken    string `yaml:"whatsapp_token"`
	PhoneNumberID    string `yaml:"phone_number_id"`
	GraphAPIBase     string `yaml:"graph_api_base"`
	WelcomeMessage   string `yaml:"welcome_message"`
	WelcomeTemplate  string `yaml:"welcome_template"`
	TemplateLanguage string `yaml:"template_language"`
	AdminWhatsApp    string `yaml:"admin_whatsapp"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:               "8080",
		AppEnv:             "development",
		LogLevel:           "info",
		StorageDriver:      DriverJSON,
		DataDir:            "./data",
		DBPath:             "./ralph_xpert.db",
		WatchDataDir:       true,
		JWTSecret:          "ralph-xpert-secret-key-2025",
		TokenTTL:           24 * time.Hour,
		AdminUsername:      "AdminAdmin",
		AdminPassword:      "AdminAdmin",
		MemberGoal:         2000,
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: 60,
		PublicSearch:       true,
		Timezone:           "Local",
		GraphAPIBase:       "https://graph.facebook.com/v19.0",
		WelcomeMessage:     "Bienvenue dans le programme Ralph Xpert ! Votre numéro a bien été enregistré.",
		TemplateLanguage:   "fr",
	}
}

// LoadConfig reads .env, then the optional YAML file named by CONFIG_FILE,
// then environment variables. Later sources win.
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.Port = getEnv("PORT", c.Port)
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.StorageDriver = strings.ToLower(getEnv("STORAGE_DRIVER", c.StorageDriver))
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.WatchDataDir = getEnvBool("WATCH_DATA_DIR", c.WatchDataDir)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.TokenTTL = getEnvDuration("TOKEN_TTL", c.TokenTTL)
	c.AdminUsername = getEnv("ADMIN_USERNAME", c.AdminUsername)
	c.AdminPassword = getEnv("ADMIN_PASSWORD", c.AdminPassword)
	c.MemberGoal = getEnvInt("MEMBER_GOAL", c.MemberGoal)
	if v, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.PublicSearch = getEnvBool("PUBLIC_SEARCH", c.PublicSearch)
	c.Timezone = getEnv("TIMEZONE", c.Timezone)

	c.WhatsAppToken = getEnv("WHATSAPP_TOKEN", c.WhatsAppToken)
	c.PhoneNumberID = getEnv("PHONE_NUMBER_ID", c.PhoneNumberID)
	c.GraphAPIBase = getEnv("GRAPH_API_BASE", c.GraphAPIBase)
	c.WelcomeMessage = getEnv("WELCOME_MESSAGE", c.WelcomeMessage)
	c.WelcomeTemplate = getEnv("WELCOME_TEMPLATE", c.WelcomeTemplate)
	c.TemplateLanguage = getEnv("TEMPLATE_LANGUAGE", c.TemplateLanguage)
	c.AdminWhatsApp = getEnv("ADMIN_WHATSAPP", c.AdminWhatsApp)
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Location resolves Timezone; unknown names fall back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Warning: unknown timezone %q, using local time", c.Timezone)
		return time.Local
	}
	return loc
}

// WhatsAppEnabled reports whether Cloud API credentials are present.
func (c *Config) WhatsAppEnabled() bool {
	return c.WhatsAppToken != "" && c.PhoneNumberID != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Printf("Warning: invalid integer for %s: %q", key, value)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		log.Printf("Warning: invalid boolean for %s: %q", key, value)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		log.Printf("Warning: invalid duration for %s: %q", key, value)
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
