package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed recognition.yaml
var recognitionYAML []byte

type Config struct {
	Web         WebConfig
	Face        FaceConfig
	Database    DatabaseConfig
	Recognition RecognitionConfig
}

type WebConfig struct {
	Host     string // bind address (default 0.0.0.0)
	Port     int    // HTTP port (default 8080)
	APIToken string // static bearer token; empty disables authentication
}

type FaceConfig struct {
	CascadePath string // path to the pigo facefinder cascade (default cascade/facefinder)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type RecognitionConfig struct {
	Threshold    float64 `yaml:"threshold"`     // minimum confidence to accept a match
	CropMargin   float64 `yaml:"crop_margin"`   // context added around the face box, per side
	TemplateSize int     `yaml:"template_size"` // canonical crop edge in pixels
	MinQuality   float64 `yaml:"min_quality"`   // minimum detector quality score
}

type recognitionFile struct {
	Recognition RecognitionConfig `yaml:"recognition"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float in (0, 1].
// Returns the default value if the env var is unset, empty, or out of range.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var file recognitionFile
	if err := yaml.Unmarshal(recognitionYAML, &file); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded recognition.yaml: " + err.Error())
	}

	recognition := file.Recognition
	recognition.Threshold = envFloat("RECOGNITION_THRESHOLD", recognition.Threshold)

	return &Config{
		Web: WebConfig{
			Host:     envString("WEB_HOST", "0.0.0.0"),
			Port:     envInt("WEB_PORT", 8080),
			APIToken: os.Getenv("API_TOKEN"),
		},
		Face: FaceConfig{
			CascadePath: envString("FACE_CASCADE_PATH", "cascade/facefinder"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Recognition: recognition,
	}
}
