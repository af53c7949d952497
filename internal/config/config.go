package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port      int    `yaml:"port"`
		StaticDir string `yaml:"staticDir"`
	} `yaml:"server"`

	Provider struct {
		APIKey         string `yaml:"apiKey"`
		BaseURL        string `yaml:"baseURL"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
		MaxAttempts    int    `yaml:"maxAttempts"`
		RetryBaseMS    int    `yaml:"retryBaseMS"`
	} `yaml:"provider"`

	Database struct {
		Driver   string `yaml:"driver"` // mongo | mysql | postgres
		URI      string `yaml:"uri"`    // mongo connection string
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	// App carries opaque frontend identifiers served verbatim at /app-config.
	App struct {
		ProjectID         string `yaml:"projectId" json:"projectId,omitempty"`
		StorageBucket     string `yaml:"storageBucket" json:"storageBucket,omitempty"`
		MessagingSenderID string `yaml:"messagingSenderId" json:"messagingSenderId,omitempty"`
		AppID             string `yaml:"appId" json:"appId,omitempty"`
		MeasurementID     string `yaml:"measurementId" json:"measurementId,omitempty"`
	} `yaml:"app"`
}

// Load baca config.yaml lalu override dari environment.
// A .env file in the working directory is picked up first; secrets normally
// come from there, not from the yaml file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Provider.APIKey, "API_KEY")
	setString(&c.Provider.BaseURL, "PROVIDER_BASE_URL")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.URI, "MONGO_URI")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Minio.BucketName, "STORAGE_BUCKET")
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.App.ProjectID, "PROJECT_ID")
	setString(&c.App.MessagingSenderID, "MESSAGING_SENDER_ID")
	setString(&c.App.AppID, "APP_ID")
	setString(&c.App.MeasurementID, "MEASUREMENT_ID")

	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = "web"
	}
	if c.Provider.TimeoutSeconds <= 0 {
		c.Provider.TimeoutSeconds = 30
	}
	if c.Provider.MaxAttempts <= 0 {
		c.Provider.MaxAttempts = 3
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mongo"
	}
	if c.Database.URI == "" {
		c.Database.URI = "mongodb://localhost:27017"
	}
	if c.Database.Name == "" {
		c.Database.Name = "safescanx"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.App.StorageBucket == "" {
		c.App.StorageBucket = c.Minio.BucketName
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
