package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/ridepool/configs"
	"github.com/anjiri1684/ridepool/database"
	"github.com/anjiri1684/ridepool/events"
	"github.com/anjiri1684/ridepool/handlers"
	"github.com/anjiri1684/ridepool/jobs"
	"github.com/anjiri1684/ridepool/notifications"
	"github.com/anjiri1684/ridepool/repositories"
	"github.com/anjiri1684/ridepool/routes"
	"github.com/anjiri1684/ridepool/services"
	"github.com/anjiri1684/ridepool/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("🔥 JWT_SECRET is not set")
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Printf("⚠️ Unknown TIME_ZONE %q, using UTC", cfg.TimeZone)
		loc = time.UTC
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(cfg)
	defer closeStore()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	var pushers []notifications.Pusher
	live := notifications.Live{Sessions: hub}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("🔥 Invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		go websocket.NewRelay(rdb, cfg.NotificationsTopic, hub).Run(ctx)
		pushers = append(pushers, notifications.RedisPusher{Client: rdb, Channel: cfg.NotificationsTopic})
		live.Client, live.Channel = rdb, cfg.NotificationsTopic
		log.Println("✅ Push fan-out over redis enabled")
	} else {
		pushers = append(pushers, notifications.HubPusher{Sessions: hub})
	}
	if cfg.EmailNotifications {
		if mailer := notifications.NewBrevoService(cfg); mailer != nil {
			pushers = append(pushers, notifications.EmailPusher{Mailer: mailer, Users: store})
			log.Println("✅ Email notifications enabled")
		}
	}
	gateway := notifications.NewGateway(store, pushers...)

	var emitter services.EventEmitter = events.Nop{}
	var publisher *events.Publisher
	if cfg.RabbitMQURL != "" {
		publisher, err = events.Dial(cfg.RabbitMQURL, cfg.EventsExchange)
		if err != nil {
			log.Printf("⚠️ RabbitMQ unavailable, lifecycle events disabled: %v", err)
		} else {
			emitter = publisher
			log.Println("✅ Lifecycle events publishing to", cfg.EventsExchange)
		}
	}

	deps := services.Deps{Notifier: gateway, Events: emitter, Live: live}
	seats := services.NewSeatInventory(store, nil)
	subs := services.NewSubscriptionService(store, cfg.TrialDays, cfg.SubscriptionDays, nil)
	trust := services.NewTrustEvaluator(store, store, deps)

	h := &handlers.Handler{
		Accounts:      services.NewAccountService(store, subs, cfg.JWTSecret),
		Bookings:      services.NewBookingService(store, seats, deps),
		Rides:         services.NewRideService(store, seats, cfg.AdminRideOverride, deps),
		Ratings:       services.NewRatingService(store, trust, deps),
		Trust:         trust,
		Subscriptions: subs,
		Drivers:       services.NewDriverService(store, deps),
		Chats:         services.NewChatService(store, deps),
		Notifications: store,
		Hub:           hub,
		JWTSecret:     cfg.JWTSecret,
	}

	c := cron.New(cron.WithLocation(loc))
	err = jobs.Schedule(c,
		&jobs.ReminderJob{
			Store:    store,
			Notifier: gateway,
			Lead:     time.Duration(cfg.ReminderLeadMinutes) * time.Minute,
			Location: loc,
		},
		&jobs.SubscriptionJob{Subscriptions: subs},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to schedule jobs: %v", err)
	}
	c.Start()
	log.Println("✅ Cron jobs for reminders and subscriptions scheduled successfully.")

	app := fiber.New(fiber.Config{
		AppName:       "Ridepool",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
				"code":  code,
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   cfg.TimeZone,
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to Ridepool API",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	routes.Setup(app, h)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("🔥 Server shutdown: %v", err)
		}
	}()

	log.Printf("✅ Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}

	<-c.Stop().Done()
	gateway.Wait()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Printf("⚠️ Closing RabbitMQ: %v", err)
		}
	}
	log.Println("✅ Shutdown complete")
}

// openStore picks the persistence backend. The memory store is for local
// runs only; it forgets everything on restart.
func openStore(cfg config.Settings) (repositories.Store, func()) {
	if cfg.StoreDriver == "memory" {
		log.Println("⚠️ Using in-memory store, data will not survive a restart")
		return repositories.NewMemoryStore(), func() {}
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	database.SeedAdmin(db, cfg)

	return repositories.NewGormStore(db), func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
