package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/ironloft/gym-admin/internal/admission"
	"github.com/ironloft/gym-admin/internal/config"
	"github.com/ironloft/gym-admin/internal/database"
	"github.com/ironloft/gym-admin/internal/handler"
	"github.com/ironloft/gym-admin/internal/queue"
	"github.com/ironloft/gym-admin/internal/repository"
	"github.com/ironloft/gym-admin/internal/router"
	"github.com/ironloft/gym-admin/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	members := repository.NewMemberRepo(db)
	groups := repository.NewGroupRepo(db)
	classTypes := repository.NewClassTypeRepo(db)
	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db)
	staff := repository.NewStaffRepo(db)
	tokens := repository.NewTokenRepo(db)
	audit := repository.NewAuditRepo(db)

	ledger := admission.NewLedger(repository.NewCapacityStore(events, bookings))
	coord := admission.NewCoordinator(members, events, bookings, ledger, service.NewQueuePublisher())

	// The consumer tails booking.decided into logs/booking.log; it
	// reconnects forever and never takes the server down.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Handlers{
		Auth:       handler.NewAuthHandler(cfg, staff, tokens),
		Members:    handler.NewMemberHandler(members, audit),
		Groups:     handler.NewGroupHandler(groups, audit),
		ClassTypes: handler.NewClassTypeHandler(classTypes, audit),
		Events:     handler.NewEventHandler(events, ledger, audit),
		Bookings:   handler.NewBookingHandler(coord, bookings, audit),
		Exports:    handler.NewExportHandler(members, events, bookings),
		Analytics:  handler.NewAnalyticsHandler(bookings, events, ledger),
		Audit:      handler.NewAuditHandler(audit),
	}, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
