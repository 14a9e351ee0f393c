package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anjiri1684/ridepool/handlers"
	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/repositories"
	"github.com/anjiri1684/ridepool/routes"
	"github.com/anjiri1684/ridepool/services"
	"github.com/anjiri1684/ridepool/websocket"
	"github.com/gofiber/fiber/v2"
)

type apiEnv struct {
	app   *fiber.App
	store *repositories.MemoryStore
	h     *handlers.Handler
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	store := repositories.NewMemoryStore()
	deps := services.Deps{}
	seats := services.NewSeatInventory(store, nil)
	subs := services.NewSubscriptionService(store, 30, 30, nil)
	trust := services.NewTrustEvaluator(store, store, deps)

	h := &handlers.Handler{
		Accounts:      services.NewAccountService(store, subs, "handler-secret"),
		Bookings:      services.NewBookingService(store, seats, deps),
		Rides:         services.NewRideService(store, seats, true, deps),
		Ratings:       services.NewRatingService(store, trust, deps),
		Trust:         trust,
		Subscriptions: subs,
		Drivers:       services.NewDriverService(store, deps),
		Chats:         services.NewChatService(store, deps),
		Notifications: store,
		Hub:           websocket.NewHub(),
		JWTSecret:     "handler-secret",
	}
	app := fiber.New()
	routes.Setup(app, h)
	return &apiEnv{app: app, store: store, h: h}
}

func (e *apiEnv) register(t *testing.T, name string, role models.Role) (*models.User, string) {
	t.Helper()
	user, err := e.h.Accounts.Register(context.Background(), services.RegisterInput{
		FullName: name,
		Email:    name + "@example.com",
		Phone:    "07" + name,
		Password: "password123",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	token, err := e.h.Accounts.IssueToken(user)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return user, token
}

func (e *apiEnv) call(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func (e *apiEnv) staff(t *testing.T) string {
	t.Helper()
	admin := &models.User{
		FullName: "Ops Admin",
		Email:    "ops@example.com",
		Phone:    "0700000000",
		Role:     models.RoleAdmin,
		IsStaff:  true,
		IsActive: true,
	}
	if err := e.store.CreateUser(context.Background(), admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	token, err := e.h.Accounts.IssueToken(admin)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

func TestBookingFlowOverHTTP(t *testing.T) {
	api := newAPI(t)
	driver, driverToken := api.register(t, "driver01", models.RoleDriver)
	_, riderToken := api.register(t, "rider01", models.RolePassenger)
	_, otherToken := api.register(t, "rider02", models.RolePassenger)

	status, body := api.call(t, "PUT", "/api/v1/driver/profile", driverToken, map[string]interface{}{
		"national_id": "1199880012345678", "driver_license": "DL-1", "car_model": "Noah", "plate_number": "rad123a", "seats": 7,
	})
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 saving profile, got %d %v", status, body)
	}

	ride := map[string]interface{}{
		"start_location":  "Kigali",
		"destination":     "Huye",
		"departure_time":  time.Now().Add(3 * time.Hour).Format(time.RFC3339),
		"price_per_seat":  "2500.00",
		"available_seats": 3,
	}
	if status, body := api.call(t, "POST", "/api/v1/rides", driverToken, ride); status != fiber.StatusForbidden || body["code"] != "not_verified" {
		t.Fatalf("expected 403 not_verified, got %d %v", status, body)
	}
	verifyPath := "/api/v1/admin/drivers/" + driver.ID.String() + "/verify"
	if status, _ := api.call(t, "POST", verifyPath, riderToken, map[string]bool{"approved": true}); status != fiber.StatusForbidden {
		t.Fatalf("expected passenger to be kept off admin routes, got %d", status)
	}
	if status, body := api.call(t, "POST", verifyPath, api.staff(t), map[string]bool{"approved": true}); status != fiber.StatusOK {
		t.Fatalf("expected admin verify to succeed, got %d %v", status, body)
	}

	status, body = api.call(t, "POST", "/api/v1/rides", driverToken, ride)
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201 creating ride, got %d %v", status, body)
	}
	rideID := body["id"].(string)
	if body["price_per_seat"] != "2500.00" {
		t.Fatalf("expected money as string, got %v", body["price_per_seat"])
	}

	status, body = api.call(t, "POST", "/api/v1/bookings", riderToken, map[string]interface{}{
		"ride_id": rideID, "seats_booked": 2, "payment_confirmed": true,
	})
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201 booking, got %d %v", status, body)
	}
	booking := body["booking"].(map[string]interface{})
	if booking["total_price"] != "5000.00" || booking["status"] != "pending" {
		t.Fatalf("unexpected booking %v", booking)
	}

	status, body = api.call(t, "POST", "/api/v1/bookings", otherToken, map[string]interface{}{
		"ride_id": rideID, "seats_booked": 2, "payment_confirmed": true,
	})
	if status != fiber.StatusConflict || body["code"] != "insufficient_seats" {
		t.Fatalf("expected 409 insufficient_seats, got %d %v", status, body)
	}

	bookingPath := "/api/v1/bookings/" + booking["id"].(string)
	if status, body := api.call(t, "POST", bookingPath+"/accept", riderToken, nil); status != fiber.StatusForbidden {
		t.Fatalf("expected passenger accept to be forbidden, got %d %v", status, body)
	}
	if status, body := api.call(t, "POST", bookingPath+"/reject", driverToken, nil); status != fiber.StatusOK {
		t.Fatalf("expected reject to succeed, got %d %v", status, body)
	}
	if status, body := api.call(t, "POST", bookingPath+"/reject", driverToken, nil); status != fiber.StatusConflict || body["code"] != "invalid_transition" {
		t.Fatalf("expected 409 on second reject, got %d %v", status, body)
	}

	status, body = api.call(t, "POST", "/api/v1/bookings", otherToken, map[string]interface{}{
		"ride_id": rideID, "seats_booked": 2, "payment_confirmed": true,
	})
	if status != fiber.StatusCreated {
		t.Fatalf("expected retry after reject to succeed, got %d %v", status, body)
	}
}

func TestAuthAndGuards(t *testing.T) {
	api := newAPI(t)
	_, riderToken := api.register(t, "rider01", models.RolePassenger)

	if status, _ := api.call(t, "GET", "/api/v1/me", "", nil); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 without token, got %d", status)
	}
	if status, _ := api.call(t, "GET", "/api/v1/me", "not-a-jwt.at.all", nil); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", status)
	}
	status, body := api.call(t, "GET", "/api/v1/me", riderToken, nil)
	if status != fiber.StatusOK || body["email"] != "rider01@example.com" {
		t.Fatalf("unexpected /me response %d %v", status, body)
	}
	if status, _ := api.call(t, "POST", "/api/v1/rides", riderToken, map[string]interface{}{}); status != fiber.StatusForbidden {
		t.Fatalf("expected passenger to be kept off ride creation, got %d", status)
	}
	if status, body := api.call(t, "POST", "/api/v1/bookings", riderToken, map[string]interface{}{"ride_id": "nope"}); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for bad booking body, got %d %v", status, body)
	}

	status, body = api.call(t, "POST", "/api/v1/auth/login", "", map[string]string{"email": "rider01@example.com", "password": "wrong-password"})
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d %v", status, body)
	}
	status, body = api.call(t, "POST", "/api/v1/auth/login", "", map[string]string{"email": "rider01@example.com", "password": "password123"})
	if status != fiber.StatusOK || body["token"] == "" {
		t.Fatalf("expected login to succeed, got %d %v", status, body)
	}
}

func TestSubscriptionGate(t *testing.T) {
	api := newAPI(t)
	user, token := api.register(t, "rider01", models.RolePassenger)

	if status, _ := api.call(t, "GET", "/api/v1/rides/search?destination=Huye", token, nil); status != fiber.StatusOK {
		t.Fatalf("expected trial user to search, got %d", status)
	}

	sub, _ := api.store.GetSubscription(context.Background(), user.ID)
	sub.ExpiryDate = time.Now().AddDate(0, 0, -2)
	if err := api.store.SaveSubscription(context.Background(), sub); err != nil {
		t.Fatalf("save subscription: %v", err)
	}
	status, body := api.call(t, "GET", "/api/v1/rides/search", token, nil)
	if status != fiber.StatusForbidden || body["code"] != "subscription_required" {
		t.Fatalf("expected 403 subscription_required, got %d %v", status, body)
	}

	if status, body := api.call(t, "POST", "/api/v1/subscription/renew", token, map[string]bool{"payment_confirmed": false}); status != fiber.StatusPaymentRequired {
		t.Fatalf("expected 402 without payment, got %d %v", status, body)
	}
	if status, body := api.call(t, "POST", "/api/v1/subscription/renew", token, map[string]bool{"payment_confirmed": true}); status != fiber.StatusOK {
		t.Fatalf("expected renew to succeed, got %d %v", status, body)
	}
	if status, _ := api.call(t, "GET", "/api/v1/rides/search", token, nil); status != fiber.StatusOK {
		t.Fatalf("expected renewed user to search, got %d", status)
	}
}

func (e *apiEnv) list(t *testing.T, path, token string) (int, []map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	var out []map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestChatOverHTTP(t *testing.T) {
	api := newAPI(t)
	driver, driverToken := api.register(t, "driver01", models.RoleDriver)
	_, riderToken := api.register(t, "rider01", models.RolePassenger)
	_, strangerToken := api.register(t, "rider02", models.RolePassenger)
	staffToken := api.staff(t)

	api.call(t, "PUT", "/api/v1/driver/profile", driverToken, map[string]interface{}{
		"national_id": "1199880012345678", "driver_license": "DL-1", "car_model": "Noah", "plate_number": "rad123a", "seats": 7,
	})
	status, pending := api.list(t, "/api/v1/admin/drivers/pending", staffToken)
	if status != fiber.StatusOK || len(pending) != 1 || pending[0]["user_id"] != driver.ID.String() {
		t.Fatalf("expected the driver in the pending queue, got %d %v", status, pending)
	}
	if status, _ := api.list(t, "/api/v1/admin/drivers/pending", driverToken); status != fiber.StatusForbidden {
		t.Fatalf("expected driver to be kept off the pending queue, got %d", status)
	}
	api.call(t, "POST", "/api/v1/admin/drivers/"+driver.ID.String()+"/verify", staffToken, map[string]bool{"approved": true})
	if _, pending := api.list(t, "/api/v1/admin/drivers/pending", staffToken); len(pending) != 0 {
		t.Fatalf("expected empty queue after approval, got %v", pending)
	}

	_, body := api.call(t, "POST", "/api/v1/rides", driverToken, map[string]interface{}{
		"start_location":  "Kigali",
		"destination":     "Huye",
		"departure_time":  time.Now().Add(3 * time.Hour).Format(time.RFC3339),
		"price_per_seat":  "2500.00",
		"available_seats": 3,
	})
	rideID := body["id"].(string)

	if status, body := api.call(t, "POST", "/api/v1/bookings", driverToken, map[string]interface{}{
		"ride_id": rideID, "seats_booked": 1, "payment_confirmed": true,
	}); status != fiber.StatusForbidden {
		t.Fatalf("expected driver booking to be forbidden, got %d %v", status, body)
	}
	status, body = api.call(t, "POST", "/api/v1/bookings", riderToken, map[string]interface{}{
		"ride_id": rideID, "seats_booked": 1, "payment_confirmed": true,
	})
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201 booking, got %d %v", status, body)
	}
	bookingID := body["booking"].(map[string]interface{})["id"].(string)

	if status, _ := api.call(t, "POST", "/api/v1/chats", strangerToken, map[string]string{"booking_id": bookingID}); status != fiber.StatusForbidden {
		t.Fatalf("expected stranger to be refused, got %d", status)
	}
	status, body = api.call(t, "POST", "/api/v1/chats", riderToken, map[string]string{"booking_id": bookingID})
	if status != fiber.StatusCreated || body["created"] != true {
		t.Fatalf("expected 201 new room, got %d %v", status, body)
	}
	roomID := body["chat_room"].(map[string]interface{})["id"].(string)
	status, body = api.call(t, "POST", "/api/v1/chats", driverToken, map[string]string{"booking_id": bookingID})
	if status != fiber.StatusOK || body["created"] != false {
		t.Fatalf("expected 200 existing room, got %d %v", status, body)
	}

	messagesPath := "/api/v1/chats/" + roomID + "/messages"
	if status, body := api.call(t, "POST", messagesPath, riderToken, map[string]string{"content": "I'm at the gate"}); status != fiber.StatusCreated {
		t.Fatalf("expected 201 message, got %d %v", status, body)
	}
	if status, _ := api.call(t, "POST", messagesPath, riderToken, map[string]string{"content": ""}); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for empty message, got %d", status)
	}
	if status, _ := api.list(t, messagesPath, strangerToken); status != fiber.StatusForbidden {
		t.Fatalf("expected stranger to be kept out of history, got %d", status)
	}

	status, rooms := api.list(t, "/api/v1/chats", driverToken)
	if status != fiber.StatusOK || len(rooms) != 1 || rooms[0]["unread_count"] != float64(1) {
		t.Fatalf("expected one unread message for driver, got %d %v", status, rooms)
	}
	status, body = api.call(t, "POST", "/api/v1/chats/"+roomID+"/read", driverToken, nil)
	if status != fiber.StatusOK || body["updated"] != float64(1) {
		t.Fatalf("expected one message marked read, got %d %v", status, body)
	}
	status, msgs := api.list(t, messagesPath, driverToken)
	if status != fiber.StatusOK || len(msgs) != 1 || msgs[0]["is_read"] != true {
		t.Fatalf("unexpected history %d %v", status, msgs)
	}

	status, body = api.call(t, "GET", "/api/v1/ratings/me", driverToken, nil)
	if status != fiber.StatusOK || body["total_ratings"] != float64(0) {
		t.Fatalf("expected empty ratings summary, got %d %v", status, body)
	}
}
