package handlers

import (
	"github.com/anjiri1684/ridepool/repositories"
	"github.com/anjiri1684/ridepool/services"
	"github.com/anjiri1684/ridepool/websocket"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Handler holds everything the HTTP layer talks to.
type Handler struct {
	Accounts      *services.AccountService
	Bookings      *services.BookingService
	Rides         *services.RideService
	Ratings       *services.RatingService
	Trust         *services.TrustEvaluator
	Subscriptions *services.SubscriptionService
	Drivers       *services.DriverService
	Chats         *services.ChatService
	Notifications repositories.NotificationStore
	Hub           *websocket.Hub
	JWTSecret     string
}
