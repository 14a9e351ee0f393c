package database

import (
	"fmt"
	"log"

	config "github.com/anjiri1684/ridepool/configs"
	"github.com/anjiri1684/ridepool/database/migrations"
	"github.com/anjiri1684/ridepool/models"
	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Println("✅ Database connected successfully")
	return db, nil
}

// Migrate creates the tables from the models, then applies the SQL
// migrations that carry the constraints the models cannot express.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.DriverProfile{},
		&models.Subscription{},
		&models.Ride{},
		&models.Booking{},
		&models.Rating{},
		&models.Notification{},
		&models.ChatRoom{},
		&models.Message{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(sqlDB, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	log.Println("✅ Database migration successful")
	return nil
}

func SeedAdmin(db *gorm.DB, cfg config.Settings) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Println("⚠️ ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", cfg.AdminEmail).Count(&count).Error; err != nil {
		log.Printf("🔥 Failed to check for admin user: %v", err)
		return
	}
	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("🔥 Failed to hash admin password: %v", err)
		return
	}

	admin := models.User{
		FullName: cfg.AdminFullName,
		Email:    cfg.AdminEmail,
		Phone:    cfg.AdminPhone,
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
		IsStaff:  true,
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("🔥 Failed to seed admin user: %v", err)
		return
	}
	log.Println("✅ Admin user seeded successfully")
}
