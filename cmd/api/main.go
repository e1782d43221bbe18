package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-rider-session/internal/application/avatar"
	"github.com/go-rider-session/internal/application/notification"
	"github.com/go-rider-session/internal/application/safecall"
	"github.com/go-rider-session/internal/application/session"
	"github.com/go-rider-session/internal/config"
	"github.com/go-rider-session/internal/infrastructure/awsconf"
	"github.com/go-rider-session/internal/infrastructure/dynamo"
	"github.com/go-rider-session/internal/infrastructure/google"
	"github.com/go-rider-session/internal/infrastructure/identity"
	jwtinfra "github.com/go-rider-session/internal/infrastructure/jwt"
	"github.com/go-rider-session/internal/infrastructure/kvstore"
	"github.com/go-rider-session/internal/infrastructure/reachability"
	s3infra "github.com/go-rider-session/internal/infrastructure/s3"
	"github.com/go-rider-session/internal/infrastructure/smtp"
	"github.com/go-rider-session/internal/infrastructure/sns"
	"github.com/go-rider-session/internal/logger"
	"github.com/go-rider-session/internal/metrics"
	transporthttp "github.com/go-rider-session/internal/transport/http"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	lg := logger.SetupDefault(os.Stdout, cfg.LogLevel)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	awsCfg, err := awsconf.Load(ctx, cfg, "")
	if err != nil {
		log.Fatalf("aws config: %v", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	accounts := dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts)
	authSessions := dynamo.NewAuthSessionRepo(dynamoClient, cfg.DynamoTables.AuthSessions)
	profiles := dynamo.NewProfileRepo(dynamoClient, cfg.DynamoTables.Profiles)
	verifications := dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.Verifications)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	// Google sign-in is optional.
	var googleVerifier *google.Verifier
	if cfg.GoogleClientID != "" {
		googleVerifier = google.NewVerifier(cfg.GoogleClientID)
	} else {
		log.Println("WARN: GOOGLE_CLIENT_ID not set, federated sign-in disabled")
	}

	// SNS sign-in alerts are optional.
	var alerts sns.AlertPublisher
	if cfg.SNSAlertsTopic != "" {
		snsCfg, err := awsconf.Load(ctx, cfg, cfg.SNSRegion)
		if err != nil {
			log.Printf("WARN: SNS publisher not available: %v", err)
		} else {
			alerts = sns.NewPublisher(snsCfg, cfg.SNSAlertsTopic)
		}
	}

	s3Store := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3BucketName, cfg.S3PublicURL)

	store, err := kvstore.OpenFile(cfg.StatePath)
	if err != nil {
		log.Fatalf("state store: %v", err)
	}
	defer store.Close()

	reach := reachability.NewSignal(true)
	prober := reachability.NewProber(reach, cfg.ReachabilityURL, cfg.ReachabilityEvery, cfg.ReachabilityTimeout, lg)
	go prober.Run(ctx)

	registry := prometheus.NewRegistry()
	recorder := metrics.NewCollector(registry)

	queue := notification.NewQueue(store, lg, recorder)
	caller := safecall.NewCaller(reach, lg, recorder)

	idDeps := identity.Deps{
		Accounts:      accounts,
		Sessions:      authSessions,
		Verifications: verifications,
		Tokens:        jwtProvider,
		Mailer:        smtp.NewMailer(cfg),
		Alerts:        alerts,
		Throttle:      identity.NewThrottle(cfg.SignInRatePerMinute),
		Reach:         reach,
		Log:           lg,
	}
	if googleVerifier != nil {
		idDeps.Google = googleVerifier
	}
	provider := identity.New(idDeps)

	container := session.New(session.Deps{
		Identity: provider,
		Profiles: profiles,
		Store:    store,
		Caller:   caller,
		Notifier: queue,
		Reach:    reach,
		Log:      lg,
		Metrics:  recorder,
	})
	container.Initialize(ctx)
	defer container.Close()

	deps := &transporthttp.Deps{
		Session:       container,
		Notifications: queue,
		Avatar:        avatar.NewService(s3Store, profiles, container, caller),
		Reachability:  reach,
		Gatherer:      registry,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
