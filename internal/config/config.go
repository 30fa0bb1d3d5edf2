// Package config loads process configuration from flags, the environment and
// an optional .env file.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	// Generation service.
	GeminiAPIKey string
	Model        string

	// Filesystem and hardware.
	ProjectsRoot string
	SerialBaud   int

	// Build history persistence.
	HistoryPath string
	HistoryDSN  string
}

// Load reads configuration from args (flags), the environment and .env.
// Pass os.Args[1:] from main.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("espforge", flag.ContinueOnError)
	port := fs.String("port", ":8000", "server port")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:         *port,
		Env:          env,
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:        firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_MODEL")), "gemini-2.0-flash"),
		ProjectsRoot: firstNonEmpty(strings.TrimSpace(os.Getenv("PROJECTS_PATH")), "esp32_projects"),
		SerialBaud:   envInt("SERIAL_BAUD", 115200),
		HistoryPath:  firstNonEmpty(strings.TrimSpace(os.Getenv("HISTORY_PATH")), "tmp/build_history.json"),
		HistoryDSN:   strings.TrimSpace(os.Getenv("HISTORY_PG_DSN")),
	}, nil
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
