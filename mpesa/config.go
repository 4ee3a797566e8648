package mpesa

import (
	"os"
	"time"
)

const defaultBaseURL = "https://api.safaricom.co.ke"

type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	BaseURL        string
	Timeout        time.Duration
}

// Default is the process-wide gateway client. It must be set up once with
// Init before any payment endpoint is served.
var Default *Client

// Init builds the shared client from cfg using the wall clock.
func Init(cfg Config) {
	Default = NewClient(cfg, time.Now)
}

func ConfigFromEnv() Config {
	baseURL := os.Getenv("MPESA_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return Config{
		ConsumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
		ShortCode:      os.Getenv("MPESA_SHORTCODE"),
		Passkey:        os.Getenv("MPESA_PASSKEY"),
		CallbackURL:    os.Getenv("MPESA_CALLBACK_URL"),
		BaseURL:        baseURL,
		Timeout:        30 * time.Second,
	}
}
