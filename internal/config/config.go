package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Addr           string
	DatabaseURL    string
	JWTSecret      string
	OpenAIKey      string
	ChatModel      string
	EmbeddingModel string
}

// Load reads the .env file (if present) and the process environment.
// Missing required values are fatal: the server cannot run without them.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("no .env file found, using system environment variables")
	} else {
		logrus.Info(".env file loaded successfully")
	}

	cfg := &Config{
		Addr:           getEnv("ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		ChatModel:      getEnv("CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
	}

	if cfg.DatabaseURL == "" {
		logrus.Fatal("DATABASE_URL not set in environment")
	}
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET not set in environment")
	}
	if cfg.OpenAIKey == "" {
		logrus.Fatal("OPENAI_API_KEY not set in environment")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
