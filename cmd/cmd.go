package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yyyyyan/wonderline-server/internal/config"
	"github.com/yyyyyan/wonderline-server/internal/handlers"
	"github.com/yyyyyan/wonderline-server/internal/middleware"
	"github.com/yyyyyan/wonderline-server/internal/repository"
	"github.com/yyyyyan/wonderline-server/internal/services"
	"github.com/yyyyyan/wonderline-server/internal/store"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// wideTable describes one DynamoDB table: its conceptual name, partition key
// attribute and whether it is clustered by a range key.
type wideTable struct {
	name    string
	pkAttr  string
	hasSort bool
}

var wideTables = []wideTable{
	{"trips", "trip_id", false},
	{"photos", "photo_id", false},
	{"comments", "comment_id", false},
	{"entities_by_comment", "comment_id", false},
	{"trips_by_user", "user_id", true},
	{"photos_by_trip", "trip_id", true},
	{"comments_by_photo", "photo_id", true},
	{"albums_by_user", "user_id", true},
	{"mentions_by_user", "user_id", true},
	{"highlights_by_user", "user_id", true},
}

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Connect to the user-graph database
	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Connect to the wide-column store and blob store
	awsCfg, err := store.NewAWSConfig(ctx, cfg.AWS.Region, cfg.AWS.AccessKey, cfg.AWS.SecretKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS configuration")
	}
	dynamoClient := store.NewClient(awsCfg, cfg.Dynamo.Endpoint)
	tables := make(map[string]store.Table, len(wideTables))
	for _, t := range wideTables {
		fullName := cfg.Dynamo.Table(t.name)
		skAttr := ""
		if t.hasSort {
			skAttr = "sk"
		}
		if err := store.EnsureTable(ctx, dynamoClient, fullName, t.pkAttr, skAttr); err != nil {
			log.Fatal().Err(err).Str("table", fullName).Msg("Failed to ensure table")
		}
		tables[t.name] = store.NewDynamoTable(dynamoClient, fullName, t.pkAttr, skAttr)
	}
	log.Info().Msg("Wide-column store ready")

	s3Client := s3.NewFromConfig(awsCfg)
	blobs := services.NewS3BlobStore(s3Client, cfg.AWS.S3Bucket, cfg.AWS.Region)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	tripRepo := repository.NewTripRepository(tables["trips"], tables["trips_by_user"])
	photoRepo := repository.NewPhotoRepository(tables["photos"], tables["photos_by_trip"])
	commentRepo := repository.NewCommentRepository(tables["comments"], tables["comments_by_photo"])
	entityRepo := repository.NewEntityRepository(tables["entities_by_comment"])
	albumRepo := repository.NewAlbumRepository(tables["albums_by_user"])
	mentionRepo := repository.NewMentionRepository(tables["mentions_by_user"])
	highlightRepo := repository.NewHighlightRepository(tables["highlights_by_user"])

	// Initialize services
	var notifier services.Notifier
	if cfg.APNs.CertPath != "" {
		apns, err := services.NewAPNSNotifier(cfg.APNs.CertPath, cfg.APNs.CertPassword, cfg.APNs.Topic, cfg.APNs.Production)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs notifier")
		}
		notifier = apns
	} else {
		log.Info().Msg("APNs certificate not configured, push notifications disabled")
	}

	feedHub := services.NewFeedHub()
	userService := services.NewUserService(userRepo, albumRepo, mentionRepo, highlightRepo, photoRepo, cfg.JWT.Secret)
	tripService := services.NewTripService(tripRepo, photoRepo, userRepo)
	commentService := services.NewCommentService(commentRepo, entityRepo, photoRepo, userRepo, notifier)
	photoService := services.NewPhotoService(photoRepo, tripRepo, mentionRepo, commentService, userRepo, blobs, tripService, feedHub)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, tripService)
	tripHandler := handlers.NewTripHandler(tripService)
	photoHandler := handlers.NewPhotoHandler(photoService)
	commentHandler := handlers.NewCommentHandler(commentService)
	wsHandler := handlers.NewWebSocketHandler(feedHub, userService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", userHandler.SignUp)
		r.Post("/users/signin", userHandler.SignIn)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))

			r.Post("/users/signout", userHandler.SignOut)
			r.Post("/users/pushtoken", userHandler.RegisterPushToken)
			r.Get("/users", userHandler.SearchUsers)
			r.Get("/users/{userId}", userHandler.GetUser)
			r.Get("/users/{userId}/followers", userHandler.GetFollowers)
			r.Get("/users/{userId}/trips", userHandler.GetUserTrips)
			r.Get("/users/{userId}/albums", userHandler.GetUserAlbums)
			r.Get("/users/{userId}/mentions", userHandler.GetUserMentions)
			r.Get("/users/{userId}/highlights", userHandler.GetUserHighlights)

			r.Post("/trips", tripHandler.CreateTrip)
			r.Get("/trips/{tripId}", tripHandler.GetTrip)
			r.Patch("/trips/{tripId}", tripHandler.UpdateTrip)
			r.Get("/trips/{tripId}/users", tripHandler.GetTripUsers)

			r.Get("/trips/{tripId}/photos", photoHandler.GetTripPhotos)
			r.Post("/trips/{tripId}/photos", photoHandler.UploadPhotos)
			r.Patch("/trips/{tripId}/photos", photoHandler.UpdatePhotos)
			r.Delete("/trips/{tripId}/photos", photoHandler.DeletePhotos)
			r.Get("/trips/{tripId}/photos/{photoId}", photoHandler.GetPhoto)
			r.Patch("/trips/{tripId}/photos/{photoId}", photoHandler.UpdatePhoto)

			r.Get("/trips/{tripId}/photos/{photoId}/comments", commentHandler.GetComments)
			r.Post("/trips/{tripId}/photos/{photoId}/comments", commentHandler.AddComment)
			r.Patch("/trips/{tripId}/photos/{photoId}/comments/{commentId}", commentHandler.LikeComment)
			r.Get("/trips/{tripId}/photos/{photoId}/comments/{commentId}/replies", commentHandler.GetReplies)
			r.Post("/trips/{tripId}/photos/{photoId}/comments/{commentId}/replies", commentHandler.AddReply)
			r.Patch("/trips/{tripId}/photos/{photoId}/comments/{commentId}/replies/{replyId}", commentHandler.LikeReply)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
