package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL        string
	NatsURL            string
	SyncControlURL     string
	SyncControlToken   string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UserID             string

	MailPollInterval      int // seconds
	CalendarPollInterval  int // seconds
	PollPageSize          int
	StatusRefreshInterval int // seconds
	RestartDebounce       int // seconds
	CooldownHours         int
	ShutdownTimeout       int // seconds
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	userID := os.Getenv("MONITOR_USER_ID")
	if userID == "" {
		return nil, fmt.Errorf("MONITOR_USER_ID is required")
	}

	controlURL := os.Getenv("SYNC_CONTROL_URL")
	if controlURL == "" {
		return nil, fmt.Errorf("SYNC_CONTROL_URL is required")
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		fmt.Println("Warning: NATS_URL not set, push channel disabled, monitor will run on polling only")
	}

	googleClientID := os.Getenv("GOOGLE_CLIENT_ID")
	googleClientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if googleClientID == "" || googleClientSecret == "" {
		fmt.Println("Warning: GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set, connection checks will not work")
	}

	return &Config{
		DatabaseURL:        dbURL,
		NatsURL:            natsURL,
		SyncControlURL:     controlURL,
		SyncControlToken:   os.Getenv("SYNC_CONTROL_TOKEN"),
		GoogleClientID:     googleClientID,
		GoogleClientSecret: googleClientSecret,
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		UserID:             userID,

		MailPollInterval:      5,   // mail events are higher urgency
		CalendarPollInterval:  15,  // calendar sync is slower-moving
		PollPageSize:          100, // events per poll request
		StatusRefreshInterval: 10,
		RestartDebounce:       5,
		CooldownHours:         24,
		ShutdownTimeout:       30,
	}, nil
}
