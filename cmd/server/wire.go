package main

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"net/http"

	"campusrides/internal/config"
	handlers "campusrides/internal/handlers/shared"
	"campusrides/internal/middleware"
	"campusrides/internal/observability"
	"campusrides/internal/repositories/mongodb"
	"campusrides/internal/services"
	"campusrides/pkg/logger"
	"campusrides/pkg/websocket"
	"campusrides/routes"
)

type application struct {
	server     *http.Server
	hub        *websocket.Hub
	dispatcher *services.Dispatcher
	closers    []io.Closer
}

// wireServer builds repositories, services and handlers on top of infra and
// returns the HTTP server. The hub is returned unstarted.
func wireServer(ctx context.Context, cfg *config.Config, infra *infrastructure, log *logger.Logger) (*application, error) {
	app := &application{}
	db := infra.mongo.Database
	cacheStore := infra.cache()

	verifier, err := newVerifier(ctx, cfg.Auth, infra.firebaseApp)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth verifier: %w", err)
	}

	storageProvider, localStorage, storageCloser, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if storageCloser != nil {
		app.closers = append(app.closers, storageCloser)
	}

	pushRouter, err := newPushRouter(ctx, cfg.Push, infra.firebaseApp, log)
	if err != nil {
		return nil, err
	}
	var pushSender services.PushSender
	if pushRouter.Enabled() {
		pushSender = pushRouter
	}

	// Repositories.
	rideRepo := mongodb.NewRideRepository(db, cacheStore, cfg.Redis.RideCacheTTL)
	bookingRepo := mongodb.NewBookingRepository(db)
	carRepo := mongodb.NewCarRepository(db)
	chatRepo := mongodb.NewChatRepository(db)
	messageRepo := mongodb.NewMessageRepository(db)
	notificationRepo := mongodb.NewNotificationRepository(db, cacheStore)
	userRepo := mongodb.NewUserRepository(db, cacheStore)

	// Live delivery.
	app.hub = websocket.NewHub(infra.relay(cfg.WebSocket.RelayChannel), log)
	observability.RegisterLiveClients(app.hub.ClientCount)

	app.dispatcher = services.NewDispatcher(services.DispatcherConfig{
		Live:    app.hub,
		Push:    pushSender,
		Events:  infra.publisher,
		Users:   userRepo,
		Cache:   cacheStore,
		Logger:  log,
		Timeout: cfg.Events.PublishTimeout,
	})

	// Services.
	mediaService := services.NewMediaService(storageProvider, cfg.Storage.UploadURLTTL, cfg.Storage.DownloadURLTTL, log)
	emailService := services.NewEmailService(newMailer(cfg.Email, log), cfg.Email.Timeout, log)
	rideService := services.NewRideService(infra.mongo, rideRepo, carRepo, bookingRepo, notificationRepo, app.dispatcher, cfg.Rides.StrictStatusTransitions, log)
	bookingService := services.NewBookingService(infra.mongo, rideRepo, bookingRepo, notificationRepo, app.dispatcher, cfg.Rides.MaxSeatsPerBooking, log)
	carService := services.NewCarService(carRepo, mediaService, cfg.Rides.MaxCarCapacity, log)
	profileService := services.NewProfileService(userRepo, mediaService, log)
	notificationService := services.NewNotificationService(notificationRepo)
	chatService := services.NewChatService(services.ChatServiceDeps{
		Tx:            infra.mongo,
		Chats:         chatRepo,
		Messages:      messageRepo,
		Rides:         rideRepo,
		Bookings:      bookingRepo,
		Users:         userRepo,
		Notifications: notificationRepo,
		Dispatcher:    app.dispatcher,
		Email:         emailService,
		Logger:        log,
	})

	wsHandler := websocket.NewHandler(app.hub, services.NewRoomAuthorizer(rideRepo, chatRepo), websocket.Options{
		ReadBufferSize:   cfg.WebSocket.ReadBufferSize,
		WriteBufferSize:  cfg.WebSocket.WriteBufferSize,
		HandshakeTimeout: cfg.WebSocket.HandshakeTimeout,
		PingInterval:     cfg.WebSocket.PingInterval,
		PongTimeout:      cfg.WebSocket.PongTimeout,
		MaxMessageSize:   cfg.WebSocket.MaxMessageSize,
		SendBufferSize:   cfg.WebSocket.SendBufferSize,
		AllowedOrigins:   cfg.WebSocket.AllowedOrigins,
	}, middleware.GetUserID, log)

	checks := map[string]handlers.HealthCheck{"mongodb": infra.mongo.Ping}
	if infra.redis != nil {
		checks["redis"] = infra.redis.Ping
	}

	deps := routes.RouterDeps{
		RideHandler:          handlers.NewRideHandler(rideService, bookingService, log),
		BookingHandler:       handlers.NewBookingHandler(bookingService, log),
		CarHandler:           handlers.NewCarHandler(carService, log),
		ChatHandler:          handlers.NewChatHandler(chatService, log),
		NotificationHandler:  handlers.NewNotificationHandler(notificationService, log),
		ProfileHandler:       handlers.NewProfileHandler(profileService, log),
		MediaHandler:         handlers.NewMediaHandler(mediaService, localStorage, log),
		EmailHandler:         handlers.NewEmailHandler(emailService, log),
		HealthHandler:        handlers.NewHealthHandler(cfg.App.Version, checks),
		WebSocketHandler:     wsHandler,
		Verifier:             verifier,
		Logger:               log,
		IdempotencyTTL:       cfg.Security.IdempotencyTTL,
		RequireVerifiedEmail: cfg.Auth.RequireVerifiedEmails,
		CORSAllowedOrigins:   cfg.Security.CORSAllowedOrigins,
		TrustedProxies:       cfg.Security.TrustedProxies,
		WebSocketPath:        cfg.WebSocket.Path,
		NewRelicApp:          infra.nrApp,
	}
	if infra.redis != nil {
		deps.IdempotencyStore = infra.redis
	}
	if cfg.Observability.MetricsEnabled {
		deps.MetricsPath = cfg.Observability.MetricsPath
	}

	errorLog := log.WithField("component", "http_server").Writer()
	app.closers = append(app.closers, errorLog)

	app.server = &http.Server{
		Addr:        cfg.App.Addr(),
		Handler:     routes.NewRouter(deps),
		ReadTimeout: cfg.App.ReadTimeout,
		IdleTimeout: cfg.App.IdleTimeout,
		ErrorLog:    stdlog.New(errorLog, "", 0),
	}
	return app, nil
}
