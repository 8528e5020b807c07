package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Defaults for the local staging directory and catalog export file.
const (
	DefaultDownloadDir = "Downloads"
	DefaultExportFile  = "zoom_recordings.csv"
)

// Config holds all runtime configuration for zoomdrive. It is constructed
// once at startup and passed by reference into each component; there is no
// package-level mutable state.
type Config struct {
	Zoom  ZoomConfig  `mapstructure:"Zoom"`
	Drive DriveConfig `mapstructure:"Drive"`
	Local LocalConfig `mapstructure:"Local"`
}

// ZoomConfig holds the server-to-server OAuth credentials for the Zoom API.
type ZoomConfig struct {
	ClientID     string `mapstructure:"ClientID"`
	ClientSecret string `mapstructure:"ClientSecret"`
	AccountID    string `mapstructure:"AccountID"`
}

// DriveConfig holds the Google Drive destination settings.
type DriveConfig struct {
	// FolderID is the id of the destination root folder. Date folders are
	// created underneath it.
	FolderID string `mapstructure:"FolderID"`

	// ServiceAccountFile is the path to the Google service account JSON key.
	ServiceAccountFile string `mapstructure:"ServiceAccountFile"`
}

// LocalConfig holds local filesystem settings.
type LocalConfig struct {
	// DownloadDir is the staging directory root. One subdirectory per
	// recording date (YYYY-MM-DD) is created underneath it.
	DownloadDir string `mapstructure:"DownloadDir"`

	// ExportFile is the path of the CSV catalog export.
	ExportFile string `mapstructure:"ExportFile"`
}

// Load reads configuration from an optional config file and the environment.
// Environment variables take the names the original deployment used
// (ZOOM_CLIENT_ID etc.); the config file is optional and its absence is not
// an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("zoomdrive")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.BindEnv("Zoom.ClientID", "ZOOM_CLIENT_ID")
	v.BindEnv("Zoom.ClientSecret", "ZOOM_CLIENT_SECRET")
	v.BindEnv("Zoom.AccountID", "ZOOM_ACCOUNT_ID")
	v.BindEnv("Drive.FolderID", "GOOGLE_DRIVE_FOLDER_ID")
	v.BindEnv("Drive.ServiceAccountFile", "GOOGLE_SERVICE_ACCOUNT_FILE")
	v.BindEnv("Local.DownloadDir", "ZOOMDRIVE_DOWNLOAD_DIR")
	v.BindEnv("Local.ExportFile", "ZOOMDRIVE_EXPORT_FILE")

	v.SetDefault("Local.DownloadDir", DefaultDownloadDir)
	v.SetDefault("Local.ExportFile", DefaultExportFile)

	// Missing config file is fine; the environment alone is a complete
	// configuration surface.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// ValidateZoom checks that the Zoom credential triple is complete.
func (c *Config) ValidateZoom() error {
	if c.Zoom.ClientID == "" {
		return fmt.Errorf("ZOOM_CLIENT_ID is required")
	}
	if c.Zoom.ClientSecret == "" {
		return fmt.Errorf("ZOOM_CLIENT_SECRET is required")
	}
	if c.Zoom.AccountID == "" {
		return fmt.Errorf("ZOOM_ACCOUNT_ID is required")
	}
	return nil
}

// ValidateDrive checks that the Drive destination settings are complete.
func (c *Config) ValidateDrive() error {
	if c.Drive.FolderID == "" {
		return fmt.Errorf("GOOGLE_DRIVE_FOLDER_ID is required")
	}
	if c.Drive.ServiceAccountFile == "" {
		return fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_FILE is required")
	}
	return nil
}
