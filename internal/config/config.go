package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matchpoint/club-rank/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                       string
	ServiceName                  string
	ServiceVersion               string
	HTTPAddr                     string
	DBURL                        string
	DBDisablePreparedBinary      bool
	CacheEnabled                 bool
	CacheTTL                     time.Duration
	CORSAllowedOrigins           []string
	ReadTimeout                  time.Duration
	WriteTimeout                 time.Duration
	PprofEnabled                 bool
	PprofAddr                    string
	FirebaseAPIKey               string
	FirebaseLookupURL            string
	FirebaseTimeout              time.Duration
	FirebaseCircuitEnabled       bool
	FirebaseCircuitFailureCount  int
	FirebaseCircuitOpenTimeout   time.Duration
	FirebaseCircuitHalfOpenMax   int
	FirebasePrincipalCacheTTL    time.Duration
	RatingKFactor                int
	RecomputeWorkers             int
	InternalJobToken             string
	UptraceEnabled               bool
	UptraceDSN                   string
	PyroscopeEnabled             bool
	PyroscopeServerAddress       string
	PyroscopeAppName             string
	PyroscopeAuthToken           string
	PyroscopeBasicAuthUser       string
	PyroscopeBasicAuthPassword   string
	PyroscopeUploadRate          time.Duration
	LogLevel                     logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	firebaseTimeout, err := time.ParseDuration(getEnv("FIREBASE_TIMEOUT", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FIREBASE_TIMEOUT: %w", err)
	}
	if firebaseTimeout <= 0 {
		return Config{}, fmt.Errorf("FIREBASE_TIMEOUT must be > 0")
	}
	firebaseCircuitEnabled, err := strconv.ParseBool(getEnv("FIREBASE_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FIREBASE_CIRCUIT_ENABLED: %w", err)
	}
	firebaseCircuitFailureCount, err := getEnvAsInt("FIREBASE_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse FIREBASE_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if firebaseCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("FIREBASE_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	firebaseCircuitOpenTimeout, err := time.ParseDuration(getEnv("FIREBASE_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FIREBASE_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if firebaseCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("FIREBASE_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	firebaseCircuitHalfOpenMax, err := getEnvAsInt("FIREBASE_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse FIREBASE_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if firebaseCircuitHalfOpenMax < 1 {
		return Config{}, fmt.Errorf("FIREBASE_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	firebasePrincipalCacheTTL, err := time.ParseDuration(getEnv("FIREBASE_PRINCIPAL_CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FIREBASE_PRINCIPAL_CACHE_TTL: %w", err)
	}
	if firebasePrincipalCacheTTL <= 0 {
		return Config{}, fmt.Errorf("FIREBASE_PRINCIPAL_CACHE_TTL must be > 0")
	}

	ratingKFactor, err := getEnvAsInt("RATING_K_FACTOR", 32)
	if err != nil {
		return Config{}, fmt.Errorf("parse RATING_K_FACTOR: %w", err)
	}
	if ratingKFactor < 1 {
		return Config{}, fmt.Errorf("RATING_K_FACTOR must be >= 1")
	}

	recomputeWorkers, err := getEnvAsInt("RECOMPUTE_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse RECOMPUTE_WORKERS: %w", err)
	}
	if recomputeWorkers < 1 {
		return Config{}, fmt.Errorf("RECOMPUTE_WORKERS must be >= 1")
	}

	cfg := Config{
		AppEnv:                      appEnv,
		ServiceName:                 getEnv("APP_SERVICE_NAME", "club-rank-api"),
		ServiceVersion:              getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                    getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                       getEnv("DB_URL", ""),
		CORSAllowedOrigins:          splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PprofEnabled:                pprofEnabled,
		PprofAddr:                   pprofAddr,
		FirebaseAPIKey:              strings.TrimSpace(getEnv("FIREBASE_API_KEY", "")),
		FirebaseLookupURL:           strings.TrimSpace(getEnv("FIREBASE_LOOKUP_URL", "https://identitytoolkit.googleapis.com/v1/accounts:lookup")),
		FirebaseTimeout:             firebaseTimeout,
		FirebaseCircuitEnabled:      firebaseCircuitEnabled,
		FirebaseCircuitFailureCount: firebaseCircuitFailureCount,
		FirebaseCircuitOpenTimeout:  firebaseCircuitOpenTimeout,
		FirebaseCircuitHalfOpenMax:  firebaseCircuitHalfOpenMax,
		FirebasePrincipalCacheTTL:   firebasePrincipalCacheTTL,
		RatingKFactor:               ratingKFactor,
		RecomputeWorkers:            recomputeWorkers,
		InternalJobToken:            strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		UptraceEnabled:              uptraceEnabled,
		UptraceDSN:                  uptraceDSN,
		PyroscopeEnabled:            pyroscopeEnabled,
		PyroscopeServerAddress:      pyroscopeServerAddress,
		PyroscopeAuthToken:          strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:      strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:  strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:         pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	cfg.DBDisablePreparedBinary = dbDisablePreparedBinary

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}
	cfg.CacheEnabled = cacheEnabled
	cfg.CacheTTL = cacheTTL

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.LogLevel = parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
