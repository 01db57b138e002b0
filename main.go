package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"viral-event-system/attribution"
	"viral-event-system/handlers"
	"viral-event-system/middleware"
	"viral-event-system/services"
	"viral-event-system/store"
	"viral-event-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("%s environment variable not set", key)
	}
	return v
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	dsn := mustEnv("DATABASE_URL")
	supabaseURL := mustEnv("SUPABASE_URL")
	supabaseAnonKey := mustEnv("SUPABASE_ANON_KEY")
	jwtSecret := mustEnv("SUPABASE_JWT_SECRET")

	publicBaseURL := os.Getenv("PUBLIC_BASE_URL")
	if publicBaseURL == "" {
		publicBaseURL = "http://localhost:3000"
		log.Printf("⚠️  PUBLIC_BASE_URL not set, share links will use %s", publicBaseURL)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5200"
	}

	snapshotInterval := 24 * time.Hour
	if raw := os.Getenv("SNAPSHOT_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			log.Fatalf("invalid SNAPSHOT_INTERVAL %q", raw)
		}
		snapshotInterval = d
	}

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	if err := store.Migrate(db); err != nil {
		log.Fatal("failed to migrate database:", err)
	}
	st := store.New(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional collaborators fall back to disabled implementations.
	var capture services.Capturer = services.NopCapturer{}
	if key := os.Getenv("POSTHOG_KEY"); key != "" {
		ph, err := services.NewPostHogCapturer(key, os.Getenv("POSTHOG_HOST"))
		if err != nil {
			log.Fatal("failed to initialize PostHog:", err)
		}
		capture = ph
	} else {
		log.Println("⚠️  POSTHOG_KEY not set, product analytics disabled")
	}

	var images services.ImageUploader
	r2Cfg := utils.R2Config{
		AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
		Bucket:          os.Getenv("R2_BUCKET_NAME"),
		CDNBaseURL:      os.Getenv("CDN_BASE_URL"),
	}
	if r2Cfg.Configured() {
		uploader, err := utils.NewR2Uploader(ctx, r2Cfg)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		images = uploader
	} else {
		log.Println("⚠️  R2 not configured, event image uploads disabled")
	}

	sendgridFrom := os.Getenv("SENDGRID_FROM")
	if sendgridFrom == "" {
		sendgridFrom = "invites@localhost"
	}
	mailer := services.NewSendGridMailer(os.Getenv("SENDGRID_API_KEY"), sendgridFrom)

	recorder := attribution.NewRecorder(st.Invites, st.Referrals)
	aggregator := attribution.NewAggregator(st.Invites, st.Referrals)
	verifier := middleware.NewTokenVerifier(jwtSecret)

	authService := services.NewAuthService(services.NewGoTrueClient(supabaseURL, supabaseAnonKey), capture)
	authService.OnSignedIn(services.AttributeSignup(recorder))
	eventService := services.NewEventService(st, recorder, images, capture)
	inviteService := services.NewInviteService(st, mailer, capture, publicBaseURL)
	mailService := services.NewMailService(mailer, capture)
	analyticsService := services.NewAnalyticsService(aggregator, st, capture)

	sched, err := analyticsService.StartSnapshotScheduler(ctx, snapshotInterval)
	if err != nil {
		log.Fatal("failed to start snapshot scheduler:", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 12 * 1024 * 1024, // cover images up to utils.MaxImageSize
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true, // visitor cookies carry the referral code and session id
		MaxAge:           86400,
	}))
	app.Use(middleware.Visitor(strings.HasPrefix(publicBaseURL, "https://")))

	handlers.SetupAuthRoutes(app, authService, verifier)
	handlers.SetupEventRoutes(app, eventService, inviteService, verifier)
	handlers.SetupInviteRoutes(app, inviteService, mailService, verifier)
	handlers.SetupAnalyticsRoutes(app, analyticsService, verifier, os.Getenv("INTERNAL_API_TOKEN"))

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Printf("✅ Funnel snapshots every %s", snapshotInterval)
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := sched.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	if err := capture.Close(); err != nil {
		log.Printf("PostHog close error: %v", err)
	}
}
