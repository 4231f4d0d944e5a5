package server

import (
	"github.com/eirki/gargbot-3000-sub000/internal/achievement"
	"github.com/eirki/gargbot-3000-sub000/internal/activity"
	"github.com/eirki/gargbot-3000-sub000/internal/auth"
	"github.com/eirki/gargbot-3000-sub000/internal/config"
	"github.com/eirki/gargbot-3000-sub000/internal/gargling"
	"github.com/eirki/gargbot-3000-sub000/internal/journey"
	"github.com/eirki/gargbot-3000-sub000/internal/logger"
	"github.com/eirki/gargbot-3000-sub000/internal/storage"
	"github.com/eirki/gargbot-3000-sub000/internal/stream"
	"github.com/eirki/gargbot-3000-sub000/internal/update"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Collaborators are the external services the journey engine consumes. Any
// of them may be nil; the engine degrades to no data / no context / no post.
type Collaborators struct {
	StepsProvider activity.Provider
	Geo           update.GeoLookup
	Poster        update.Poster
	Uploader      storage.UploadFunc
}

type Server struct {
	App          *fiber.App
	Cfg          config.Config
	DB           *pgxpool.Pool
	Redis        *redis.Client
	Stream       *stream.Hub
	Log          *zap.Logger
	Journeys     *journey.Service
	Achievements *achievement.Engine
	Runner       *update.Runner
	validate     *validator.Validate
}

func NewServer(cfg config.Config, database *pgxpool.Pool, redisClient *redis.Client, collab Collaborators) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	log := logger.New(cfg.Env)
	hub := stream.NewHub(redisClient, log)

	garglings := gargling.NewService(database)
	journeys := journey.NewService(database)
	aggregator := activity.NewAggregator(garglings, collab.StepsProvider, log)
	achievements := achievement.NewEngine(garglings, log)
	charts := storage.NewService(database, collab.Uploader)

	runner := update.NewRunner(database, redisClient, update.Deps{
		Journeys:     journeys,
		Garglings:    garglings,
		Aggregator:   aggregator,
		Achievements: achievements,
		Charts:       charts,
		Geo:          collab.Geo,
		Poster:       collab.Poster,
		Hub:          hub,
		Channel:      cfg.ReportChannel,
		Log:          log,
	})

	s := &Server{
		App:          app,
		Cfg:          cfg,
		DB:           database,
		Redis:        redisClient,
		Stream:       hub,
		Log:          log,
		Journeys:     journeys,
		Achievements: achievements,
		Runner:       runner,
		validate:     validator.New(),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	journey.RegisterRoutes(s.App.Group("/journeys"), s.Journeys, s.validate, jwtMiddleware)
	achievement.RegisterRoutes(s.App.Group("/standings"), s.Achievements, s.DB)
	update.RegisterRoutes(s.App.Group("/updates"), s.Runner, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
