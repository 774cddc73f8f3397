package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Everything is driven by environment variables with sane defaults, so the
// daemon runs out of the box against a local data directory.
type Config struct {
	ListenAddr string
	PublicURL  string // Base URL used for enclosure links in generated feeds

	DataDir     string
	MetaDir     string // DataDir/meta, cached metadata records
	AudioDir    string // DataDir/audio, downloaded artifacts
	SourcesFile string // JSON file mapping feed key -> ordered URLs

	YtdlpPath       string
	AudioFormat     string        // format selector passed to the extractor
	AudioQuality    string        // mp3 bitrate passed to the extractor
	FetchTimeout    time.Duration // bound on a single metadata probe
	DownloadTimeout time.Duration // bound on a single audio download

	MetadataTTL     time.Duration // staleness threshold before a URL is re-fetched
	RetentionWeeks  int           // rolling window; older items are ignored
	RefreshInterval time.Duration // sleep between refresh cycles
	WorkerInterval  time.Duration // sleep when the download queue is empty
	QueuePolicy     string        // "lifo" (newest first) or "fifo"

	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvDuration gets an environment variable as a duration or returns a default value.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration in %s, using default %s", key, fallback)
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	dataDir := getEnv("DATA_DIR", "data")

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		PublicURL:  getEnv("PUBLIC_URL", "http://localhost:8080"),

		DataDir:     dataDir,
		MetaDir:     filepath.Join(dataDir, "meta"),
		AudioDir:    filepath.Join(dataDir, "audio"),
		SourcesFile: getEnv("SOURCES_FILE", "sources.json"),

		YtdlpPath:       getEnv("YTDLP_PATH", "yt-dlp"),
		AudioFormat:     getEnv("AUDIO_FORMAT", "worstaudio/worst"),
		AudioQuality:    getEnv("AUDIO_QUALITY", "96K"),
		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 2*time.Minute),
		DownloadTimeout: getEnvDuration("DOWNLOAD_TIMEOUT", 30*time.Minute),

		MetadataTTL:     getEnvDuration("METADATA_TTL", 10*time.Minute),
		RetentionWeeks:  getEnvInt("RETENTION_WEEKS", 12),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 60*time.Second),
		WorkerInterval:  getEnvDuration("WORKER_INTERVAL", 60*time.Second),
		QueuePolicy:     getEnv("QUEUE_POLICY", "lifo"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}

// RetentionCutoff returns the rolling date before which items are excluded
// from feeds and from fresh downloads.
func (c *Config) RetentionCutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -7*c.RetentionWeeks)
}
