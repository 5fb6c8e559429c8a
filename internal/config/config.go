package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vitalvision/backend/internal/reminder"
	"github.com/vitalvision/backend/internal/security"
	"github.com/vitalvision/backend/internal/vitals"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Azure    AzureConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	Auth     AuthConfig
	Security SecurityConfig
	Vitals   VitalsConfig
	Reminder ReminderConfig
	Logging  LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AzureConfig holds Azure service configuration
type AzureConfig struct {
	OpenAI  OpenAIConfig
	Speech  SpeechConfig
	Storage StorageConfig
}

// OpenAIConfig holds Azure OpenAI configuration
type OpenAIConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
}

// SpeechConfig holds Azure Speech Service configuration
type SpeechConfig struct {
	SubscriptionKey string
	Region          string
	Voice           string
	Language        string
}

// StorageConfig holds Azure Blob Storage configuration
type StorageConfig struct {
	AccountName           string
	AccountKey            string
	AnnouncementContainer string
	ReportContainer       string
}

// RedisConfig holds the event stream connection
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	AlertStream    string
	ReminderStream string
	MaxLen         int64
}

// MQTTConfig holds the device broker connection
type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
}

// AuthConfig holds JWT verification settings
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// SecurityConfig holds the at-rest encryption key. An empty key stores
// clinical fields in plain text.
type SecurityConfig struct {
	EncryptionKey string
}

// Key decodes the base64 encryption key. It returns nil when none is set.
func (s SecurityConfig) Key() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	return security.KeyFromBase64(s.EncryptionKey)
}

// RangeConfig is the configured normal range of one vital sign
type RangeConfig struct {
	Min         float64
	Max         float64
	Unit        string
	DisplayName string
}

// VitalsConfig holds the normal range table
type VitalsConfig struct {
	Ranges map[string]RangeConfig
}

// ReminderConfig holds reminder scheduling settings
type ReminderConfig struct {
	Lookahead           time.Duration
	Granularity         time.Duration
	MedicationInterval  time.Duration
	AppointmentInterval time.Duration
	Timezone            string
	MailboxSize         int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads and validates configuration from environment variables and an
// optional config file named by CONFIG_FILE
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Read reads configuration without validating it. Tools that need only part
// of the configuration use it.
func Read() (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Read from environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific environment variables
	bindEnvVars(v)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)
	v.SetDefault("server.allowedorigins", []string{"*"})

	// Database defaults
	v.SetDefault("database.maxopenconns", 25)
	v.SetDefault("database.maxidleconns", 5)
	v.SetDefault("database.connmaxlifetime", 5*time.Minute)

	// Azure defaults
	v.SetDefault("azure.speech.voice", "es-ES-ElviraNeural")
	v.SetDefault("azure.speech.language", "es-ES")
	v.SetDefault("azure.storage.announcementcontainer", "reminder-audio")
	v.SetDefault("azure.storage.reportcontainer", "health-reports")

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.alertstream", "vitalvision:alerts")
	v.SetDefault("redis.reminderstream", "vitalvision:reminders")
	v.SetDefault("redis.maxlen", 10000)

	// MQTT defaults
	v.SetDefault("mqtt.clientid", "vitalvision-backend")
	v.SetDefault("mqtt.topicprefix", "vitalvision/patients")
	v.SetDefault("mqtt.qos", 1)

	// Vital range defaults
	for kind, r := range vitals.DefaultRanges() {
		key := "vitals.ranges." + strings.ToLower(kind)
		v.SetDefault(key+".min", r.Min)
		v.SetDefault(key+".max", r.Max)
		v.SetDefault(key+".unit", r.Unit)
		v.SetDefault(key+".displayname", r.DisplayName)
	}

	// Reminder defaults
	def := reminder.DefaultConfig()
	v.SetDefault("reminder.lookahead", def.Lookahead)
	v.SetDefault("reminder.granularity", def.Granularity)
	v.SetDefault("reminder.medicationinterval", time.Minute)
	v.SetDefault("reminder.appointmentinterval", time.Minute)
	v.SetDefault("reminder.timezone", "Local")
	v.SetDefault("reminder.mailboxsize", 256)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")

	// Database
	v.BindEnv("database.url", "DATABASE_URL")

	// Azure OpenAI
	v.BindEnv("azure.openai.endpoint", "AZURE_OPENAI_ENDPOINT")
	v.BindEnv("azure.openai.apikey", "AZURE_OPENAI_API_KEY")
	v.BindEnv("azure.openai.deployment", "AZURE_OPENAI_DEPLOYMENT")

	// Azure Speech
	v.BindEnv("azure.speech.subscriptionkey", "AZURE_SPEECH_KEY")
	v.BindEnv("azure.speech.region", "AZURE_SPEECH_REGION")
	v.BindEnv("azure.speech.voice", "AZURE_SPEECH_VOICE")

	// Azure Storage
	v.BindEnv("azure.storage.accountname", "AZURE_STORAGE_ACCOUNT_NAME")
	v.BindEnv("azure.storage.accountkey", "AZURE_STORAGE_ACCOUNT_KEY")

	// Redis
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// MQTT
	v.BindEnv("mqtt.brokerurl", "MQTT_BROKER_URL")
	v.BindEnv("mqtt.username", "MQTT_USERNAME")
	v.BindEnv("mqtt.password", "MQTT_PASSWORD")

	// Auth
	v.BindEnv("auth.jwtsecret", "JWT_SECRET")
	v.BindEnv("auth.issuer", "JWT_ISSUER")

	// Security
	v.BindEnv("security.encryptionkey", "ENCRYPTION_KEY")

	// Reminder
	v.BindEnv("reminder.timezone", "REMINDER_TIMEZONE")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate required fields
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwtsecret is required")
	}

	if c.Azure.OpenAI.Endpoint == "" {
		return fmt.Errorf("azure.openai.endpoint is required")
	}

	if c.Azure.OpenAI.APIKey == "" {
		return fmt.Errorf("azure.openai.apikey is required")
	}

	if c.Azure.OpenAI.Deployment == "" {
		return fmt.Errorf("azure.openai.deployment is required")
	}

	if c.Azure.Speech.SubscriptionKey == "" {
		return fmt.Errorf("azure.speech.subscriptionkey is required")
	}

	if c.Azure.Speech.Region == "" {
		return fmt.Errorf("azure.speech.region is required")
	}

	if c.Azure.Storage.AccountName == "" || c.Azure.Storage.AccountKey == "" {
		return fmt.Errorf("azure storage account name and key are required")
	}

	if c.MQTT.BrokerURL == "" {
		return fmt.Errorf("mqtt.brokerurl is required")
	}

	if key, err := c.Security.Key(); err != nil {
		return fmt.Errorf("security.encryptionkey: %w", err)
	} else if key != nil && len(key) != 32 {
		return fmt.Errorf("security.encryptionkey must decode to 32 bytes, got %d", len(key))
	}

	if _, err := c.RangeTable(); err != nil {
		return fmt.Errorf("vitals.ranges: %w", err)
	}

	if _, err := c.Reminder.Location(); err != nil {
		return fmt.Errorf("reminder.timezone: %w", err)
	}

	if c.Reminder.Granularity > time.Hour {
		return fmt.Errorf("reminder.granularity must not exceed one hour")
	}

	return nil
}

// RangeTable converts the configured ranges into a validated table
func (c *Config) RangeTable() (vitals.RangeTable, error) {
	ranges := make(map[string]vitals.Range, len(c.Vitals.Ranges))
	for key, r := range c.Vitals.Ranges {
		ranges[key] = vitals.Range{
			Min:         r.Min,
			Max:         r.Max,
			Unit:        r.Unit,
			DisplayName: r.DisplayName,
		}
	}
	return vitals.NewRangeTable(ranges)
}

// Location resolves the configured time zone
func (r ReminderConfig) Location() (*time.Location, error) {
	if r.Timezone == "" || r.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(r.Timezone)
}

// SchedulerConfig converts the reminder settings for the scheduler
func (r ReminderConfig) SchedulerConfig() (reminder.Config, error) {
	loc, err := r.Location()
	if err != nil {
		return reminder.Config{}, err
	}
	return reminder.Config{
		Lookahead:   r.Lookahead,
		Granularity: r.Granularity,
		Location:    loc,
	}, nil
}

// RunnerConfig converts the reminder settings for the runner
func (r ReminderConfig) RunnerConfig() reminder.RunnerConfig {
	return reminder.RunnerConfig{
		MedicationInterval:  r.MedicationInterval,
		AppointmentInterval: r.AppointmentInterval,
	}
}
