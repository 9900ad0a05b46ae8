package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/trivia-rooms/internal/engine"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port              int
	AllowedOrigins    []string
	PublicURL         string // base of join links; empty derives it from the request
	Debug             bool
	DatabaseURL       string
	NATSURL           string
	NATSSubjectPrefix string
	QuestionBankPath  string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	QuestionMs        int
	RevealMs          int
	LeaderboardMs     int
	RoundQuestions    int
	Topics            []string
	GenerationTimeout time.Duration
	RoomTTL           time.Duration
	SweepInterval     time.Duration
}

// FileConfig is the optional YAML overlay named by CONFIG_FILE.
type FileConfig struct {
	Game struct {
		QuestionMs     int      `yaml:"question_ms"`
		RevealMs       int      `yaml:"reveal_ms"`
		LeaderboardMs  int      `yaml:"leaderboard_ms"`
		RoundQuestions int      `yaml:"round_questions"`
		Topics         []string `yaml:"topics"`
	} `yaml:"game"`
	Questions struct {
		BankPath string `yaml:"bank_path"`
	} `yaml:"questions"`
}

func Default() Config {
	return Config{
		Port:              8080,
		NATSSubjectPrefix: "trivia",
		OpenAIModel:       "gpt-4o-mini",
		QuestionMs:        22000,
		RevealMs:          1500,
		LeaderboardMs:     3500,
		RoundQuestions:    5,
		Topics:            append([]string(nil), engine.DefaultTopics...),
		GenerationTimeout: 45 * time.Second,
		RoomTTL:           30 * time.Minute,
		SweepInterval:     time.Minute,
	}
}

// Load applies CONFIG_FILE (if set) and then the environment on top of Default.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fc, err := loadFile(path)
		if err != nil {
			return cfg, err
		}
		cfg.applyFile(fc)
	}

	if value, ok := intEnv("PORT"); ok && value > 0 {
		cfg.Port = value
	}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	} else if raw := os.Getenv("FRONTEND_ORIGIN"); raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	}
	if raw := os.Getenv("PUBLIC_URL"); raw != "" {
		cfg.PublicURL = strings.TrimRight(raw, "/")
	}
	if raw := os.Getenv("DEBUG"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.Debug = value
		}
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("NATS_URL"); raw != "" {
		cfg.NATSURL = raw
	}
	if raw := os.Getenv("NATS_SUBJECT_PREFIX"); raw != "" {
		cfg.NATSSubjectPrefix = raw
	}
	if raw := os.Getenv("QUESTION_BANK_PATH"); raw != "" {
		cfg.QuestionBankPath = raw
	}
	if raw := os.Getenv("OPENAI_API_KEY"); raw != "" {
		cfg.OpenAIAPIKey = raw
	}
	if raw := os.Getenv("OPENAI_MODEL"); raw != "" {
		cfg.OpenAIModel = raw
	}
	if raw := os.Getenv("OPENAI_BASE_URL"); raw != "" {
		cfg.OpenAIBaseURL = raw
	}
	if value, ok := intEnv("QUESTION_MS"); ok && value > 0 {
		cfg.QuestionMs = value
	}
	if value, ok := intEnv("REVEAL_MS"); ok && value >= 0 {
		cfg.RevealMs = value
	}
	if value, ok := intEnv("LEADERBOARD_MS"); ok && value >= 0 {
		cfg.LeaderboardMs = value
	}
	if value, ok := intEnv("ROUND_QUESTIONS"); ok && value > 0 {
		cfg.RoundQuestions = value
	}
	if value, ok := durationEnv("GENERATION_TIMEOUT"); ok {
		cfg.GenerationTimeout = value
	}
	if value, ok := durationEnv("ROOM_TTL"); ok {
		cfg.RoomTTL = value
	}
	if value, ok := durationEnv("SWEEP_INTERVAL"); ok {
		cfg.SweepInterval = value
	}
	return cfg, nil
}

func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func (c Config) GameSettings() engine.Settings {
	return engine.Settings{
		QuestionTime:     time.Duration(c.QuestionMs) * time.Millisecond,
		RevealDelay:      time.Duration(c.RevealMs) * time.Millisecond,
		LeaderboardDelay: time.Duration(c.LeaderboardMs) * time.Millisecond,
		RoundQuestions:   c.RoundQuestions,
		Topics:           append([]string(nil), c.Topics...),
	}
}

func loadFile(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("failed to parse config: %w", err)
	}
	return fc, nil
}

func (c *Config) applyFile(fc FileConfig) {
	if fc.Game.QuestionMs > 0 {
		c.QuestionMs = fc.Game.QuestionMs
	}
	if fc.Game.RevealMs > 0 {
		c.RevealMs = fc.Game.RevealMs
	}
	if fc.Game.LeaderboardMs > 0 {
		c.LeaderboardMs = fc.Game.LeaderboardMs
	}
	if fc.Game.RoundQuestions > 0 {
		c.RoundQuestions = fc.Game.RoundQuestions
	}
	if len(fc.Game.Topics) > 0 {
		c.Topics = fc.Game.Topics
	}
	if fc.Questions.BankPath != "" {
		c.QuestionBankPath = fc.Questions.BankPath
	}
}

func intEnv(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

func durationEnv(key string) (time.Duration, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
