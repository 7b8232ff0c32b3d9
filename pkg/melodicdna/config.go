package melodicdna

import "os"

type Config struct {
	DBPath     string
	TempDir    string
	SampleRate int
	BPM        float64
	MaxResults int // 0 means unbounded
	Logger     Logger
	Storage    Storage
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

// WithTempDir sets where rendered excerpts go when no output path is given.
func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

// WithBPM sets the tempo used to render excerpts, in quarter notes per
// minute.
func WithBPM(bpm float64) Option {
	return func(c *Config) {
		c.BPM = bpm
	}
}

// WithMaxResults caps the number of occurrences a search returns.
func WithMaxResults(n int) Option {
	return func(c *Config) {
		c.MaxResults = n
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:     getEnvOrDefault("MELODIC_DB_PATH", "melodicdna.sqlite3"),
		TempDir:    getEnvOrDefault("MELODIC_TEMP_DIR", os.TempDir()),
		SampleRate: 22050,
		BPM:        120,
		MaxResults: 0,
		Logger:     nil,
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
