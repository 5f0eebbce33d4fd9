package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
)

// Notifier kinds.
const (
	NotifierLog   = "log"
	NotifierHTTP  = "http"
	NotifierKafka = "kafka"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress        string
	DatabaseURI       string
	RedisAddress      string
	Notifier          string
	MailRelayAddress  string
	KafkaBrokers      []string
	KafkaTopic        string
	TokenSecret       string
	ScheduleCron      string
	ScheduleTimezone  *time.Location
	DispatchInterval  time.Duration
	WorkerPoolSize    int
	DispatchBatchSize int
	MaxAttempts       int
	RetryBaseDelay    time.Duration
	SendTimeout       time.Duration
	SendRate          float64
	LeaseTTL          time.Duration
	WarrantyLeadDays  int
	DefaultCurrency   string
	ExtractDayFirst   bool
	MerchantRulesFile string
	ShutdownTimeout   time.Duration
	LogLevel          string
}

const (
	defaultRunAddress        = ":8080"
	defaultTokenSecret       = "change-me-in-production"
	defaultKafkaTopic        = "receipt-reminders"
	defaultScheduleCron      = "0 8 * * *"
	defaultTimezone          = "UTC"
	defaultDispatchInterval  = time.Minute
	defaultWorkerPoolSize    = 4
	defaultDispatchBatchSize = 64
	defaultMaxAttempts       = 5
	defaultRetryBaseDelay    = time.Minute
	defaultSendTimeout       = 10 * time.Second
	defaultSendRate          = 10
	defaultLeaseTTL          = 30 * time.Second
	defaultWarrantyLeadDays  = 30
	defaultCurrency          = "INR"
	defaultExtractDayFirst   = true
	defaultShutdownTimeout   = 10 * time.Second
	defaultLogLevel          = "info"
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:        getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:       getString(lookup, "DATABASE_URI", ""),
		RedisAddress:      getString(lookup, "REDIS_ADDRESS", ""),
		Notifier:          getString(lookup, "NOTIFIER", NotifierLog),
		MailRelayAddress:  getString(lookup, "MAIL_RELAY_ADDRESS", ""),
		KafkaTopic:        getString(lookup, "KAFKA_TOPIC", defaultKafkaTopic),
		TokenSecret:       getString(lookup, "TOKEN_SECRET", defaultTokenSecret),
		ScheduleCron:      getString(lookup, "SCHEDULE_CRON", defaultScheduleCron),
		WorkerPoolSize:    getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		DispatchBatchSize: getInt(lookup, "DISPATCH_BATCH_SIZE", defaultDispatchBatchSize),
		MaxAttempts:       getInt(lookup, "MAX_ATTEMPTS", defaultMaxAttempts),
		SendRate:          getFloat(lookup, "SEND_RATE", defaultSendRate),
		WarrantyLeadDays:  getInt(lookup, "WARRANTY_LEAD_DAYS", defaultWarrantyLeadDays),
		DefaultCurrency:   getString(lookup, "DEFAULT_CURRENCY", defaultCurrency),
		MerchantRulesFile: getString(lookup, "MERCHANT_RULES_FILE", ""),
		LogLevel:          getString(lookup, "LOG_LEVEL", defaultLogLevel),
	}

	fs := flag.NewFlagSet("receiptwatch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		kafkaBrokersStr     = getString(lookup, "KAFKA_BROKERS", "")
		timezoneStr         = getString(lookup, "SCHEDULE_TIMEZONE", defaultTimezone)
		dayFirstStr         = getString(lookup, "EXTRACT_DAY_FIRST", strconv.FormatBool(defaultExtractDayFirst))
		dispatchIntervalStr = getString(lookup, "DISPATCH_INTERVAL", defaultDispatchInterval.String())
		retryBaseStr        = getString(lookup, "RETRY_BASE_DELAY", defaultRetryBaseDelay.String())
		sendTimeoutStr      = getString(lookup, "SEND_TIMEOUT", defaultSendTimeout.String())
		leaseTTLStr         = getString(lookup, "LEASE_TTL", defaultLeaseTTL.String())
		shutdownTimeoutStr  = getString(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout.String())
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Redis address for dispatch leases")
	fs.StringVar(&cfg.Notifier, "notifier", cfg.Notifier, "Reminder transport: log, http or kafka")
	fs.StringVar(&cfg.MailRelayAddress, "mail-relay", cfg.MailRelayAddress, "Mail relay base URL")
	fs.StringVar(&kafkaBrokersStr, "kafka-brokers", kafkaBrokersStr, "Comma separated Kafka brokers")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", cfg.KafkaTopic, "Kafka topic for reminders")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "Secret for verifying auth tokens")
	fs.StringVar(&cfg.ScheduleCron, "schedule", cfg.ScheduleCron, "Cron spec of the daily reminder run")
	fs.StringVar(&timezoneStr, "timezone", timezoneStr, "Timezone that defines today for the reminder run")
	fs.StringVar(&dispatchIntervalStr, "dispatch-interval", dispatchIntervalStr, "Interval between retry dispatch passes")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent dispatch workers")
	fs.IntVar(&cfg.DispatchBatchSize, "dispatch-batch", cfg.DispatchBatchSize, "Maximum notifications per dispatch pass")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "Send attempts before a reminder fails")
	fs.StringVar(&retryBaseStr, "retry-base", retryBaseStr, "Base delay of the retry backoff")
	fs.StringVar(&sendTimeoutStr, "send-timeout", sendTimeoutStr, "Timeout of a single send")
	fs.Float64Var(&cfg.SendRate, "send-rate", cfg.SendRate, "Outbound sends per second")
	fs.StringVar(&leaseTTLStr, "lease-ttl", leaseTTLStr, "Dispatch lease time to live")
	fs.IntVar(&cfg.WarrantyLeadDays, "warranty-lead", cfg.WarrantyLeadDays, "Days before warranty expiry to remind")
	fs.StringVar(&cfg.DefaultCurrency, "currency", cfg.DefaultCurrency, "Currency inferred for bare amounts")
	fs.StringVar(&dayFirstStr, "day-first", dayFirstStr, "Read numeric receipt dates as DD/MM/YYYY")
	fs.StringVar(&cfg.MerchantRulesFile, "merchant-rules", cfg.MerchantRulesFile, "YAML file seeding merchant rules")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.DispatchInterval, err = time.ParseDuration(dispatchIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid dispatch interval: %w", err)
	}
	if cfg.RetryBaseDelay, err = time.ParseDuration(retryBaseStr); err != nil {
		return nil, fmt.Errorf("invalid retry base delay: %w", err)
	}
	if cfg.SendTimeout, err = time.ParseDuration(sendTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid send timeout: %w", err)
	}
	if cfg.LeaseTTL, err = time.ParseDuration(leaseTTLStr); err != nil {
		return nil, fmt.Errorf("invalid lease ttl: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	if cfg.ExtractDayFirst, err = strconv.ParseBool(dayFirstStr); err != nil {
		return nil, fmt.Errorf("invalid day first flag: %w", err)
	}
	if cfg.ScheduleTimezone, err = time.LoadLocation(timezoneStr); err != nil {
		return nil, fmt.Errorf("invalid schedule timezone: %w", err)
	}
	if _, err = cron.ParseStandard(cfg.ScheduleCron); err != nil {
		return nil, fmt.Errorf("invalid schedule: %w", err)
	}

	if secretFile, ok := lookup("TOKEN_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read token secret file: %w", err)
		}
		cfg.TokenSecret = strings.TrimSpace(string(content))
	}

	cfg.KafkaBrokers = splitList(kafkaBrokersStr)
	cfg.Notifier = strings.ToLower(cfg.Notifier)
	cfg.DefaultCurrency = strings.ToUpper(cfg.DefaultCurrency)

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}
	if cfg.DispatchBatchSize <= 0 {
		cfg.DispatchBatchSize = defaultDispatchBatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.WarrantyLeadDays <= 0 {
		cfg.WarrantyLeadDays = defaultWarrantyLeadDays
	}
	if cfg.SendRate <= 0 {
		cfg.SendRate = defaultSendRate
	}
	if cfg.DispatchInterval <= 0 {
		cfg.DispatchInterval = defaultDispatchInterval
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = defaultLeaseTTL
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.LeaseTTL <= cfg.SendTimeout {
		return nil, fmt.Errorf("lease ttl %v must exceed send timeout %v", cfg.LeaseTTL, cfg.SendTimeout)
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	switch cfg.Notifier {
	case NotifierLog:
	case NotifierHTTP:
		if cfg.MailRelayAddress == "" {
			return nil, fmt.Errorf("mail relay address must be provided for the http notifier")
		}
	case NotifierKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka brokers must be provided for the kafka notifier")
		}
	default:
		return nil, fmt.Errorf("unknown notifier %q", cfg.Notifier)
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(lookup envLookup, key string, def float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
