package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	APIPort      string
	JWTKey       []byte
	JWTExp       time.Duration
	CookieSecure bool
	FrontendURL  string

	LogLevel  string
	LogPretty bool

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ExecutionQueueName      string
	ExecutionLockKey        string
	ExecutionLockTTLSeconds int
	ExecutionMaxAttempts    int

	JudgeBaseURL        string
	JudgeAPIKey         string
	JudgeAPIHost        string
	JudgePollAttempts   int
	JudgePollInterval   time.Duration
	JudgeRequestTimeout time.Duration

	GeminiAPIKey string
	GeminiModel  string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:      getEnv("API_PORT", "8080"),
		JWTKey:       []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:       time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 1)) * time.Hour,
		CookieSecure: getEnvAsBool("COOKIE_SECURE", false),
		FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "leetlab"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		ExecutionQueueName:      getEnv("EXECUTION_QUEUE_NAME", "execution_jobs_queue"),
		ExecutionLockKey:        getEnv("EXECUTION_LOCK_KEY", "execution_job_lock"),
		ExecutionLockTTLSeconds: getEnvAsInt("EXECUTION_LOCK_TTL_SECONDS", 300),
		ExecutionMaxAttempts:    getEnvAsInt("EXECUTION_MAX_ATTEMPTS", 3),

		JudgeBaseURL:        getEnv("JUDGE_BASE_URL", "https://judge0-ce.p.rapidapi.com"),
		JudgeAPIKey:         getEnv("JUDGE_API_KEY", ""),
		JudgeAPIHost:        getEnv("JUDGE_API_HOST", "judge0-ce.p.rapidapi.com"),
		JudgePollAttempts:   getEnvAsInt("JUDGE_POLL_ATTEMPTS", 10),
		JudgePollInterval:   getEnvAsDuration("JUDGE_POLL_INTERVAL", time.Second),
		JudgeRequestTimeout: getEnvAsDuration("JUDGE_REQUEST_TIMEOUT", 15*time.Second),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("750ms", "2s").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
