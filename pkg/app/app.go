package app

import (
	"context"
	"fmt"
	"log"

	"github.com/arnavshah/kitchen-planner-go/pkg/auth"
	"github.com/arnavshah/kitchen-planner-go/pkg/config"
	"github.com/arnavshah/kitchen-planner-go/pkg/database"
	"github.com/arnavshah/kitchen-planner-go/pkg/events"
	"github.com/arnavshah/kitchen-planner-go/pkg/handlers"
	"github.com/arnavshah/kitchen-planner-go/pkg/planner"
	"github.com/arnavshah/kitchen-planner-go/pkg/seed"
	"github.com/gin-gonic/gin"
)

// App holds the wired service
type App struct {
	Config  *config.Config
	Planner *planner.Planner
	Handler *handlers.Handler
	Router  *gin.Engine

	closers []func() error
}

// New sets up storage, the planner, the event bridge and the router
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureOrganizerExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("bootstrap organizer: %w", err)
	}

	p := planner.New(planner.Limits{
		MaxShiftMinutes: cfg.MaxShiftMinutes,
		MaxShiftItems:   cfg.MaxShiftItems,
	})
	p.Bus.Subscribe(func(e events.Event) {
		log.Printf("event %s %s", e.Type, e.EntityID)
	})

	a := &App{Config: cfg, Planner: p}

	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return nil, err
		}
		p.Bus.Subscribe(events.Forward(ctx, pub, events.Topic))
		a.closers = append(a.closers, pub.Close)
		log.Printf("Publishing planner events to %s on %s", cfg.NATSURL, events.Topic)
	}

	if cfg.SeedFile != "" {
		f, err := seed.Load(cfg.SeedFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		res, err := f.Apply(p)
		if err != nil {
			a.Close()
			return nil, err
		}
		log.Printf("Seeded %d tasks, %d shifts, %d groups from %s", len(res.TaskIDs), len(res.ShiftIDs), len(res.GroupIDs), cfg.SeedFile)
	}

	a.Handler = handlers.NewHandler(db, auth.NewService(cfg.JWTSecret, cfg.APIMasterSecret), p)
	a.Router = handlers.NewRouter(a.Handler, gin.Logger(), gin.Recovery())
	return a, nil
}

// Close releases external connections
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.Printf("close: %v", err)
		}
	}
}
