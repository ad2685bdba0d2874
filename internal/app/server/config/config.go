package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath   = "../../.env"
	SecretKey = "SecRetKey"
	EnvLocal  = "local"
	EnvDev    = "dev"
	EnvProd   = "prod"
)

type Config struct {
	Env    string
	DB     db
	Server server
	Logger logger
	Sync   sync
}

type defaultConfig struct {
	RunAddress        string
	DatabaseURI       string
	LogLevel          string
	Secret            string
	Env               string
	Migrations        string
	SyncBatchSize     int
	SyncAutoResolve   string
	StaleAfterMinutes int
	CacheTTLMinutes   int
	SweepSchedule     string
	RecoverySchedule  string
}

type db struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type server struct {
	RunAddress string `env:"RUN_ADDRESS"`
	Secret     string `env:"SECRET"`
}

type logger struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type sync struct {
	// BatchSize — размер партии выборки очереди за один проход сессии
	BatchSize int `env:"SYNC_BATCH_SIZE"`

	// AutoResolve — стратегия автоматического разрешения конфликтов;
	// пустая строка или MANUAL оставляют конфликты оператору
	AutoResolve string `env:"SYNC_AUTO_RESOLVE"`

	// StaleAfter — порог, после которого зависший IN_PROGRESS элемент
	// возвращается в очередь
	StaleAfter time.Duration `env:"SYNC_STALE_AFTER"`

	// CacheTTL — время жизни записи мобильного кэша по умолчанию
	CacheTTL time.Duration `env:"CACHE_TTL"`

	// SweepSchedule — cron-расписание очистки истекшего кэша
	SweepSchedule string `env:"CACHE_SWEEP_SCHEDULE"`

	// RecoverySchedule — cron-расписание восстановления зависших элементов
	RecoverySchedule string `env:"QUEUE_RECOVERY_SCHEDULE"`
}

func MustLoad() *Config {
	if err := godotenv.Load(envPath); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	viper.AutomaticEnv()
	d := defaultConfig{
		RunAddress:        viper.GetString("run_address"),
		DatabaseURI:       viper.GetString("database_uri"),
		LogLevel:          viper.GetString("log_level"),
		Secret:            viper.GetString("secret"),
		Env:               viper.GetString("app_env"),
		Migrations:        viper.GetString("migrations_path"),
		SyncBatchSize:     viper.GetInt("sync_batch_size"),
		SyncAutoResolve:   viper.GetString("sync_auto_resolve"),
		StaleAfterMinutes: viper.GetInt("sync_stale_after_minutes"),
		CacheTTLMinutes:   viper.GetInt("cache_ttl_minutes"),
		SweepSchedule:     viper.GetString("cache_sweep_schedule"),
		RecoverySchedule:  viper.GetString("queue_recovery_schedule"),
	}
	if d.Secret == "" {
		d.Secret = SecretKey
	}
	if d.SyncBatchSize <= 0 {
		d.SyncBatchSize = 50
	}
	if d.StaleAfterMinutes <= 0 {
		d.StaleAfterMinutes = 15
	}
	if d.CacheTTLMinutes <= 0 {
		d.CacheTTLMinutes = 30
	}
	if d.SweepSchedule == "" {
		d.SweepSchedule = "@every 5m"
	}
	if d.RecoverySchedule == "" {
		d.RecoverySchedule = "@every 10m"
	}

	config := Config{
		Env: d.Env,
		DB: db{
			DatabaseURI: d.DatabaseURI,
			Migrations:  d.Migrations,
		},
		Server: server{
			RunAddress: d.RunAddress,
			Secret:     d.Secret,
		},
		Logger: logger{LogLevel: d.LogLevel},
		Sync: sync{
			BatchSize:        d.SyncBatchSize,
			AutoResolve:      d.SyncAutoResolve,
			StaleAfter:       time.Duration(d.StaleAfterMinutes) * time.Minute,
			CacheTTL:         time.Duration(d.CacheTTLMinutes) * time.Minute,
			SweepSchedule:    d.SweepSchedule,
			RecoverySchedule: d.RecoverySchedule,
		},
	}

	return &config
}
