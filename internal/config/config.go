package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "trackstats.cfg.json"

// KinematicsConfig holds the windowed speed settings.
type KinematicsConfig struct {
	FPS     float64  `json:"fps" mapstructure:"fps"`
	Window  int      `json:"window" mapstructure:"window"`
	Classes []string `json:"classes" mapstructure:"classes"`
}

// BandsConfig holds the speed band thresholds in km/h.
type BandsConfig struct {
	HSRKmh    float64 `json:"hsrKmh" mapstructure:"hsrKmh"`
	SprintKmh float64 `json:"sprintKmh" mapstructure:"sprintKmh"`
}

// ReportConfig holds the CSV report settings.
type ReportConfig struct {
	OutputDir string `json:"outputDir" mapstructure:"outputDir"`
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Segment   string `json:"segment" mapstructure:"segment"`
	Charts    bool   `json:"charts" mapstructure:"charts"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// DBConfig holds Postgres connection settings
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type     string       `json:"type" mapstructure:"type"`
	Memory   MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite   SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	Postgres DBConfig     `json:"-" mapstructure:"-"`
}

// InfluxConfig holds InfluxDB connection settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// URL returns the server address.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// LoggingConfig holds log destinations.
type LoggingConfig struct {
	Level          string
	Dir            string
	GraylogEnabled bool
	GraylogAddress string
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	ServiceName string `json:"serviceName" mapstructure:"serviceName"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. Environment
// variables prefixed TRACKSTATS_ override file values, with "." in keys
// replaced by "_".
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("kinematics.fps", 24)
	viper.SetDefault("kinematics.window", 5)
	viper.SetDefault("kinematics.classes", []string{"player"})

	viper.SetDefault("bands.hsrKmh", 20)
	viper.SetDefault("bands.sprintKmh", 25)

	viper.SetDefault("report.outputDir", "./output")
	viper.SetDefault("report.compress", false)
	viper.SetDefault("report.segment", "")
	viper.SetDefault("report.charts", false)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./output")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "./trackstats.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "trackstats")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "trackstats")
	viper.SetDefault("influx.bucket", "kinematics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "trackstats")

	viper.SetEnvPrefix("TRACKSTATS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetKinematicsConfig returns the kinematics settings.
func GetKinematicsConfig() KinematicsConfig {
	return KinematicsConfig{
		FPS:     viper.GetFloat64("kinematics.fps"),
		Window:  viper.GetInt("kinematics.window"),
		Classes: viper.GetStringSlice("kinematics.classes"),
	}
}

// GetBandsConfig returns the speed band thresholds.
func GetBandsConfig() BandsConfig {
	return BandsConfig{
		HSRKmh:    viper.GetFloat64("bands.hsrKmh"),
		SprintKmh: viper.GetFloat64("bands.sprintKmh"),
	}
}

// GetReportConfig returns the report settings.
func GetReportConfig() ReportConfig {
	return ReportConfig{
		OutputDir: viper.GetString("report.outputDir"),
		Compress:  viper.GetBool("report.compress"),
		Segment:   viper.GetString("report.segment"),
		Charts:    viper.GetBool("report.charts"),
	}
}

// GetStorageConfig returns the storage backend configuration
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		Postgres: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetLoggingConfig returns the log destinations.
func GetLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:          viper.GetString("logLevel"),
		Dir:            viper.GetString("logsDir"),
		GraylogEnabled: viper.GetBool("graylog.enabled"),
		GraylogAddress: viper.GetString("graylog.address"),
	}
}

// GetOTelConfig returns the OpenTelemetry configuration
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:     viper.GetBool("otel.enabled"),
		ServiceName: viper.GetString("otel.serviceName"),
	}
}
