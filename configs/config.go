package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

var loadEnv sync.Once

// Config returns the value of key from .env or the process environment.
func Config(key string) string {
	loadEnv.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Warning: .env file not found, reading from system environment variables")
		}
	})
	return os.Getenv(key)
}

type Settings struct {
	Port        string
	DatabaseURL string
	StoreDriver string
	JWTSecret   string
	TimeZone    string

	// AdminRideOverride lets staff accounts post rides without document
	// verification; a verified driver profile is provisioned on first use.
	AdminRideOverride bool

	TrialDays           int
	SubscriptionDays    int
	ReminderLeadMinutes int

	RedisURL           string
	NotificationsTopic string
	RabbitMQURL        string
	EventsExchange     string

	BrevoAPIKey        string
	EmailSender        string
	EmailSenderName    string
	EmailNotifications bool

	AdminEmail    string
	AdminPassword string
	AdminFullName string
	AdminPhone    string
}

func Load() Settings {
	return Settings{
		Port:        withDefault("PORT", "8080"),
		DatabaseURL: Config("DATABASE_URL"),
		StoreDriver: withDefault("STORE_DRIVER", "postgres"),
		JWTSecret:   Config("JWT_SECRET"),
		TimeZone:    withDefault("TIME_ZONE", "Africa/Kigali"),

		AdminRideOverride: boolValue("ADMIN_RIDE_OVERRIDE", true),

		TrialDays:           intValue("TRIAL_DAYS", 30),
		SubscriptionDays:    intValue("SUBSCRIPTION_DAYS", 30),
		ReminderLeadMinutes: intValue("REMINDER_LEAD_MINUTES", 60),

		RedisURL:           Config("REDIS_URL"),
		NotificationsTopic: withDefault("NOTIFICATIONS_CHANNEL", "ridepool:notifications"),
		RabbitMQURL:        Config("RABBITMQ_URL"),
		EventsExchange:     withDefault("EVENTS_EXCHANGE", "ridepool.events"),

		BrevoAPIKey:        Config("BREVO_API_KEY"),
		EmailSender:        Config("EMAIL_SENDER"),
		EmailSenderName:    Config("EMAIL_SENDER_NAME"),
		EmailNotifications: boolValue("EMAIL_NOTIFICATIONS", false),

		AdminEmail:    Config("ADMIN_EMAIL"),
		AdminPassword: Config("ADMIN_PASSWORD"),
		AdminFullName: withDefault("ADMIN_FULL_NAME", "Ridepool Admin"),
		AdminPhone:    withDefault("ADMIN_PHONE", "0000000000"),
	}
}

func withDefault(key, fallback string) string {
	if v := strings.TrimSpace(Config(key)); v != "" {
		return v
	}
	return fallback
}

func intValue(key string, fallback int) int {
	v := strings.TrimSpace(Config(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ %s=%q is not a number, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func boolValue(key string, fallback bool) bool {
	v := strings.TrimSpace(Config(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("⚠️ %s=%q is not a boolean, using %t", key, v, fallback)
		return fallback
	}
	return b
}
