package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/crewcall-dev/crewcall/db"
	"github.com/crewcall-dev/crewcall/internal/auth"
	"github.com/crewcall-dev/crewcall/internal/fanout"
	"github.com/crewcall-dev/crewcall/internal/handlers"
	"github.com/crewcall-dev/crewcall/internal/logger"
	"github.com/crewcall-dev/crewcall/internal/router"
	"github.com/crewcall-dev/crewcall/internal/services"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("APP_ENV"))

	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatal("failed to initialize JWT secret", "error", err)
	}

	if err := db.ConnectDatabase(os.Getenv("DATABASE_URL")); err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatal("failed to migrate database", "error", err)
	}

	dispatcher := fanout.NewDispatcher(log)
	dispatcher.Handle(handlers.BroadcastEvent)

	if err := dispatcher.Start(); err != nil {
		log.Fatal("failed to start fanout dispatcher", "error", err)
	}
	defer dispatcher.Stop()

	notifications := services.NewNotificationService(db.DB, log, dispatcher)
	jobs := services.NewJobService(db.DB, log, notifications)
	applications := services.NewApplicationService(db.DB, log, notifications)
	budget := services.NewBudgetService(db.DB, log, notifications)
	tasks := services.NewTaskService(db.DB, log, notifications)
	messages := services.NewMessageService(db.DB, log, notifications)

	handlers.Init(log, jobs, applications, budget, tasks, messages, notifications)

	r := router.NewRouter()

	port := os.Getenv("PORT")

	if port == "" {
		port = "3000"
		log.Info("PORT not set, defaulting to 3000")
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("failed to start server", "error", err)
	}
}
