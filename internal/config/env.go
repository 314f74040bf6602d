package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Env holds process settings read from the environment.
type Env struct {
	Addr       string
	CameraID   int
	FPS        int
	TuningPath string
	DataDir    string
	Tray       bool
}

// LoadEnv reads a .env file when present, then the HANDPUT_* variables.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return Env{
		Addr:       getEnv("HANDPUT_ADDR", ":8080"),
		CameraID:   getEnvInt("HANDPUT_CAMERA", 0),
		FPS:        getEnvInt("HANDPUT_FPS", 30),
		TuningPath: getEnv("HANDPUT_TUNING", ""),
		DataDir:    getEnv("HANDPUT_DATA_DIR", defaultDataDir()),
		Tray:       getEnvBool("HANDPUT_TRAY", false),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".handput"
	}
	return filepath.Join(home, ".handput")
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if intVal, err := strconv.Atoi(v); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
