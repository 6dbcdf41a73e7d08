package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"hospital-queue/internal/config"
	"hospital-queue/internal/http/handler"
	"hospital-queue/internal/http/middleware"
	"hospital-queue/internal/queue"
	"hospital-queue/internal/realtime"
	"hospital-queue/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	config.LoadEnv()
	log := config.NewLogger()

	db, err := config.OpenDB()
	if err != nil {
		log.Fatal().Err(err).Msg("mysql connection failed")
	}
	defer db.Close()

	ctx := context.Background()
	rdb, err := config.NewRedis(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	est := queue.NewEstimator(serviceTimeFromEnv())
	manager := queue.NewManager(
		&store.SpecializationProvider{DB: db},
		&store.PatientProvider{DB: db},
		&store.QueueStore{DB: db},
		est,
		log,
	)
	if d := persistTimeoutFromEnv(); d > 0 {
		manager.SetPersistTimeout(d)
	}
	if err := manager.Rebuild(ctx); err != nil {
		log.Fatal().Err(err).Msg("queue rebuild failed")
	}

	hub := realtime.NewHub()
	go hub.Run()

	h := handler.New(db, manager, &store.TicketCodes{Redis: rdb}, hub, log)

	app := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Hospital queue API is running",
		})
	})

	app.Post("/san/login", h.Login)

	// Public display surface.
	app.Get("/api/display/queues", h.GetDisplayQueues)
	app.Use("/ws/display", handler.WSUpgrade)
	app.Get("/ws/display", h.DisplaySocket())

	// Everything below requires a staff login.
	api := app.Group("/api", middleware.JWTAuth())

	api.Post("/logout", h.Logout)

	// Queue operations (both roles).
	api.Post("/queue", h.AddToQueue)
	api.Post("/queue/specialization/:id/next", h.ServeNext)
	api.Post("/queue/:entryId/serve", h.ServeSpecific)
	api.Delete("/queue/:entryId", h.RemoveFromQueue)
	api.Put("/queue/:entryId/priority", h.Reprioritize)
	api.Get("/queue/specialization/:id", h.GetQueue)
	api.Get("/queue/specialization/:id/stats", h.GetQueueStatistics)

	// Registries (both roles read, super_user writes).
	api.Get("/specializations", h.GetAllSpecializations)
	api.Get("/specializations/:id", h.GetSpecializationByID)
	api.Post("/specializations", middleware.RoleAuth("super_user"), h.CreateSpecialization)
	api.Put("/specializations/:id", middleware.RoleAuth("super_user"), h.UpdateSpecialization)
	api.Delete("/specializations/:id", middleware.RoleAuth("super_user"), h.DeleteSpecialization)

	api.Get("/patients", h.GetAllPatients)
	api.Get("/patients/:id", h.GetPatientByID)
	api.Post("/patients", h.CreatePatient)
	api.Put("/patients/:id", h.UpdatePatient)
	api.Delete("/patients/:id", h.ArchivePatient)

	// Staff accounts and reports (super_user only).
	api.Get("/users", middleware.RoleAuth("super_user"), h.GetAllUsers)
	api.Post("/users", middleware.RoleAuth("super_user"), h.CreateUser)
	api.Put("/users/:id", middleware.RoleAuth("super_user"), h.UpdateUser)
	api.Delete("/users/:id", middleware.RoleAuth("super_user"), h.DeleteUser)

	api.Get("/reports/visitors", middleware.RoleAuth("super_user"), h.GetVisitorReport)

	addr := os.Getenv("APP_HOST") + ":" + config.GetEnv("APP_PORT", "3000")
	log.Info().Str("addr", addr).Msg("server listening")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func serviceTimeFromEnv() time.Duration {
	mins, err := strconv.Atoi(config.GetEnv("QUEUE_AVG_SERVICE_MINUTES", "15"))
	if err != nil || mins <= 0 {
		return queue.DefaultServiceTime
	}
	return time.Duration(mins) * time.Minute
}

func persistTimeoutFromEnv() time.Duration {
	secs, err := strconv.Atoi(config.GetEnv("QUEUE_PERSIST_TIMEOUT_SECONDS", "0"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
