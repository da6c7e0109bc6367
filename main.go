package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/rooms-blog-backend/api"
	"github.com/rpupo63/rooms-blog-backend/auth"
	"github.com/rpupo63/rooms-blog-backend/config"
	"github.com/rpupo63/rooms-blog-backend/content"
	"github.com/rpupo63/rooms-blog-backend/database"
	"github.com/rpupo63/rooms-blog-backend/lifecycle"
	"github.com/rpupo63/rooms-blog-backend/membership"
	"github.com/rpupo63/rooms-blog-backend/models"
	"github.com/rpupo63/rooms-blog-backend/ratelimit"
	"github.com/rpupo63/rooms-blog-backend/rooms"
	"github.com/rpupo63/rooms-blog-backend/services"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	cfg := config.New()
	setupLogging(cfg)

	ssmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := config.LoadSSM(ssmCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading SSM parameters")
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	// If generating models, run generation and exit
	if config.GetBool(cfg, "GENERATE_MODELS", false) {
		fmt.Println("Generating models and query helpers...")
		if err := models.GenerateModels(db); err != nil {
			log.Fatal().Err(err).Msg("Error generating models")
		}
		return
	}

	// If generating column mismatch report, run report and exit
	if config.GetBool(cfg, "GENERATE_COLUMN_REPORT", false) {
		fmt.Println("Generating column mismatch report...")
		drifts, err := models.ColumnReport(db)
		if err != nil {
			log.Fatal().Err(err).Msg("Error generating column report")
		}
		models.WriteColumnReport(os.Stdout, drifts)
		return
	}

	if config.GetBool(cfg, "AUTO_MIGRATE", true) {
		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("Error migrating database")
		}
	}

	currentDB := database.New(db)
	deps, err := wire(context.Background(), cfg, currentDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Error wiring services")
	}

	if open, err := currentDB.ReconciliationRepo().CountOpen(context.Background()); err != nil {
		log.Warn().Err(err).Msg("could not count open reconciliation tasks")
	} else if open > 0 {
		log.Warn().Int64("open", open).Msg("reconciliation tasks are waiting for an operator")
	}

	// one slot per sender so neither blocks once main stops reading
	errChannel := make(chan error, 2)

	server, err := api.NewServer(cfg, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// wire builds the services behind the HTTP surface. Optional integrations
// (redis, storage, AI, alert e-mails) are left out when unconfigured.
func wire(ctx context.Context, cfg map[string]string, db database.Database) (api.Dependencies, error) {
	var store content.Store
	if config.GetString(cfg, "SANITY_PROJECT_ID", "") == "" && config.GetString(cfg, "SANITY_BASE_URL", "") == "" {
		log.Warn().Msg("SANITY_PROJECT_ID not set, blog content is kept in memory")
		store = content.NewMemoryStore()
	} else {
		sanity, err := content.NewSanityStore(ctx, content.SanityConfigFromEnv(cfg))
		if err != nil {
			return api.Dependencies{}, err
		}
		store = sanity
	}

	verifier, err := auth.FromConfig(cfg)
	if err != nil {
		return api.Dependencies{}, err
	}

	gateway := membership.NewGateway(db.MembershipStore())
	reconciler := services.NewReconciler(db.ReconciliationRepo(), services.NewMailerFromConfig(cfg))

	blogs := lifecycle.NewManager(db.RoomRepo(), db.BlogRepo(), store, gateway, reconciler)

	roomOpts := []rooms.Option{}
	limiter, err := ratelimit.FromConfig(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, join attempts are not rate limited")
	} else if limiter != nil {
		roomOpts = append(roomOpts, rooms.WithLimiter(limiter))
	}
	roomService := rooms.NewService(db.RoomRepo(), db.RoomMemberRepo(), db.BlogRepo(), db.ProfileRepo(), gateway, roomOpts...)

	deps := api.Dependencies{
		Blogs:          blogs,
		Rooms:          roomService,
		Verifier:       verifier,
		Reconciliation: db.ReconciliationRepo(),
	}

	uploader, err := services.NewImageUploaderFromConfig(ctx, cfg, gateway)
	if err != nil {
		log.Warn().Err(err).Msg("image storage not configured, uploads disabled")
	} else {
		deps.Uploader = uploader
	}

	generator, err := services.NewDraftGeneratorFromConfig(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("AI model not available, generation disabled")
	} else {
		deps.Generator = generator
	}

	return deps, nil
}

func setupLogging(cfg map[string]string) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.GetString(cfg, "LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if config.GetBool(cfg, "LOG_PRETTY", false) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
