package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/event-tickets/internal/api/http/handlers"
	"github.com/spec-kit/event-tickets/internal/auth"
	"github.com/spec-kit/event-tickets/internal/clock"
	"github.com/spec-kit/event-tickets/internal/config"
	"github.com/spec-kit/event-tickets/internal/events"
	"github.com/spec-kit/event-tickets/internal/notify"
	"github.com/spec-kit/event-tickets/internal/observability"
	"github.com/spec-kit/event-tickets/internal/repository"
	"github.com/spec-kit/event-tickets/internal/service"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := zaptest.NewLogger(t)
	metrics := observability.NewMetrics()
	clk := clock.Fake(time.Date(2025, 12, 31, 21, 0, 0, 0, time.UTC))
	authCfg := config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 10,
		BcryptCost:            4,
		GroupCodes:            map[string]string{"BAL2025ECON": "Bal Economic"},
	}

	tickets := repository.NewMemoryTicketRepository()
	organizers := repository.NewMemoryOrganizerRepository()
	tokens := auth.NewTokenManager(authCfg.JWTSecret, authCfg.AccessTokenTTLMinutes)
	bus := events.NewInMemoryBus()

	dispatcher := notify.NewDispatcher(nil, nil, notify.DispatcherDeps{Bus: bus, Metrics: metrics, Logger: logger, Clock: clk})
	scheduler := notify.NewScheduler(dispatcher, clk, time.UTC, metrics, logger)
	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)
	t.Cleanup(scheduler.Stop)
	t.Cleanup(cancel)

	ticketSvc := service.NewTicketService(service.TicketDependencies{TicketRepo: tickets, Logger: logger, Clock: clk})
	verifySvc := service.NewVerificationService(service.VerificationDependencies{TicketRepo: tickets, Bus: bus, Metrics: metrics, Logger: logger, Clock: clk})
	authSvc := service.NewAuthService(authCfg, service.AuthDependencies{OrganizerRepo: organizers, TokenManager: tokens})
	notifySvc := service.NewNotificationService(service.NotificationDependencies{
		TicketRepo: tickets,
		Dispatcher: dispatcher,
		Bulk:       notify.NewBulkCoordinator(dispatcher, 0, metrics, logger),
		Scheduler:  scheduler,
		Logger:     logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("event-tickets", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(authSvc),
		Tickets:        handlers.NewTicketsHandler(ticketSvc, notifySvc),
		Verify:         handlers.NewVerifyHandler(verifySvc),
		Notify:         handlers.NewNotifyHandler(notifySvc),
		Metrics:        metrics,
		AuthMiddleware: auth.NewAuthMiddleware(tokens, organizers),
	})
	return app
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, app *fiber.App, method, path, token, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, env
}

func register(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, env := doJSON(t, app, fiber.MethodPost, "/auth/register", "",
		`{"username":"ana","password":"secret1","referral_code":"BAL2025ECON"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("register status = %d, error = %+v", status, env.Error)
	}
	var res struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &res); err != nil || res.Token == "" {
		t.Fatalf("register data = %s", env.Data)
	}
	return res.Token
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app)

	status, env := doJSON(t, app, fiber.MethodPost, "/api/tickets", token,
		`{"holder_name":"Ana Pop","holder_phone":"0712345678","ticket_type":"BAL"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("create status = %d, error = %+v", status, env.Error)
	}
	var ticket struct {
		ID        string `json:"id"`
		Group     string `json:"group"`
		QRPayload string `json:"qr_payload"`
	}
	if err := json.Unmarshal(env.Data, &ticket); err != nil {
		t.Fatalf("decode ticket: %v", err)
	}
	if ticket.Group != "Bal Economic" || ticket.QRPayload == "" {
		t.Fatalf("ticket = %+v", ticket)
	}

	payload, _ := json.Marshal(map[string]string{"qr_data": ticket.QRPayload})
	status, env = doJSON(t, app, fiber.MethodPost, "/api/verify", "", string(payload))
	if status != fiber.StatusOK {
		t.Fatalf("verify status = %d, error = %+v", status, env.Error)
	}

	status, env = doJSON(t, app, fiber.MethodPost, "/api/verify", "", `{"ticket_id":"`+ticket.ID+`"}`)
	if status != fiber.StatusOK {
		t.Fatalf("second verify status = %d", status)
	}
	var verified struct {
		Warning string `json:"warning"`
		Ticket  struct {
			VerificationCount int  `json:"verification_count"`
			Flagged           bool `json:"flagged"`
		} `json:"ticket"`
	}
	if err := json.Unmarshal(env.Data, &verified); err != nil {
		t.Fatalf("decode verify: %v", err)
	}
	if verified.Warning != service.WarningFlagged || verified.Ticket.VerificationCount != 2 || !verified.Ticket.Flagged {
		t.Fatalf("second verify = %+v", verified)
	}

	status, env = doJSON(t, app, fiber.MethodPost, "/api/notify/send", token, `{"ticket_id":"`+ticket.ID+`"}`)
	if status != fiber.StatusOK {
		t.Fatalf("send status = %d, error = %+v", status, env.Error)
	}
	var outcome struct {
		PrimaryMethod string `json:"primary_method"`
	}
	if err := json.Unmarshal(env.Data, &outcome); err != nil || outcome.PrimaryMethod != notify.ChannelLink {
		t.Fatalf("send data = %s", env.Data)
	}

	status, _ = doJSON(t, app, fiber.MethodDelete, "/api/tickets/"+ticket.ID, token, "")
	if status != fiber.StatusNoContent {
		t.Fatalf("delete status = %d", status)
	}
	status, env = doJSON(t, app, fiber.MethodGet, "/api/tickets/"+ticket.ID, token, "")
	if status != fiber.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("get after delete = %d %+v", status, env.Error)
	}
}

func TestScheduleRejectsPastTime(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app)

	_, env := doJSON(t, app, fiber.MethodPost, "/api/tickets", token,
		`{"holder_name":"Ana Pop","holder_phone":"0712345678","ticket_type":"AFTER"}`)
	var ticket struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &ticket)

	status, env := doJSON(t, app, fiber.MethodPost, "/api/notify/schedule", token,
		`{"ticket_id":"`+ticket.ID+`","send_at":"2025-01-01 10:00"}`)
	if status != fiber.StatusBadRequest || env.Error == nil || env.Error.Code != "VALIDATION_FAILED" {
		t.Fatalf("past schedule = %d %+v", status, env.Error)
	}

	status, env = doJSON(t, app, fiber.MethodPost, "/api/notify/schedule", token,
		`{"ticket_id":"`+ticket.ID+`","send_at":"2026-01-01 10:00"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("future schedule = %d %+v", status, env.Error)
	}
	status, env = doJSON(t, app, fiber.MethodGet, "/api/notify/scheduled", token, "")
	var jobs []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &jobs); err != nil || status != fiber.StatusOK || len(jobs) != 1 {
		t.Fatalf("scheduled = %d %s", status, env.Data)
	}
	status, env = doJSON(t, app, fiber.MethodGet, "/api/notify/status", token, "")
	var overview struct {
		ScheduledJobs int `json:"scheduled_jobs"`
	}
	if err := json.Unmarshal(env.Data, &overview); err != nil || status != fiber.StatusOK || overview.ScheduledJobs != 1 {
		t.Fatalf("status = %d %s", status, env.Data)
	}

	status, _ = doJSON(t, app, fiber.MethodDelete, "/api/notify/scheduled/"+jobs[0].ID, token, "")
	if status != fiber.StatusNoContent {
		t.Fatalf("cancel status = %d", status)
	}
}

func TestProtectedRoutesAndErrors(t *testing.T) {
	app := newTestApp(t)

	status, env := doJSON(t, app, fiber.MethodGet, "/api/tickets", "", "")
	if status != fiber.StatusUnauthorized || env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("unauthenticated = %d %+v", status, env.Error)
	}

	status, env = doJSON(t, app, fiber.MethodGet, "/nope", "", "")
	if status != fiber.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("unknown route = %d %+v", status, env.Error)
	}

	status, env = doJSON(t, app, fiber.MethodPost, "/api/verify", "", `{}`)
	if status != fiber.StatusBadRequest || env.Error == nil {
		t.Fatalf("empty verify = %d %+v", status, env.Error)
	}

	status, _ = doJSON(t, app, fiber.MethodGet, "/health/ready", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("ready with disabled dependencies = %d", status)
	}
}
