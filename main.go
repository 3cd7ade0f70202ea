package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"auto-uc2-dashboard/app"
	"auto-uc2-dashboard/config"
	"auto-uc2-dashboard/controllers"
	"auto-uc2-dashboard/models"
	"auto-uc2-dashboard/navigation"
	"auto-uc2-dashboard/negotiation"
	"auto-uc2-dashboard/routes"
	"auto-uc2-dashboard/services"
	"auto-uc2-dashboard/session"
	"auto-uc2-dashboard/ui"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, *cfgPath)
	stop()
	if err != nil {
		slog.Error("dashboard stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// run serves the dashboard until ctx ends. Everything it opens is released
// before it returns.
func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger(cfg.Log.Level)
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := app.New(ctx, cfg, logger, "dashboard")
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer a.Close()

	toasts := ui.NewToasts()
	ws := controllers.NewWSManager(logger)
	go ws.Start(ctx)
	toasts.OnPush(func(t ui.Toast) { ws.Broadcast(controllers.PushToast, t) })

	conversations := services.NewConversations(a.API)
	neg := controllers.NewNegotiationController(func(me string) *negotiation.Session {
		return negotiation.NewSession(conversations, a.Socket, toasts, logger, a.NegotiationConfig(me))
	}, ws, logger)

	a.Socket.OnStateChange(func(connected bool) {
		ws.Broadcast(controllers.PushConnection, gin.H{"connected": connected})
		neg.Refresh()
	})
	a.Sessions.OnChange(func(s session.Session, signedIn bool) {
		if signedIn {
			neg.Bind(ctx, s.User.ID)
			return
		}
		neg.Unbind()
	})
	if s, ok := a.Sessions.Current(); ok {
		neg.Bind(ctx, s.User.ID)
	}
	a.Socket.Start(ctx)

	vehicles := services.NewVehicles(a.Deps)
	clients := services.NewClients(a.Deps)
	h := routes.Controllers{
		Auth:        controllers.NewAuthController(services.NewAuth(a.Deps), a.Sessions, navigation.NewSidebar()),
		Dashboard:   controllers.NewDashboardController(services.NewDashboard(a.Deps)),
		Negotiation: neg,
		Vehicles: controllers.NewVehicleController(vehicles,
			services.NewSearcher[models.Vehicle](vehicles.List, vehicles.Search, cfg.Search.Debounce, cfg.Search.MinChars),
			a.Sessions),
		Clients: controllers.NewClientController(clients,
			services.NewSearcher[models.Client](clients.List, clients.Search, cfg.Search.Debounce, cfg.Search.MinChars)),
		Admin: controllers.NewAdminController(services.NewAgencies(a.Deps), services.NewSystem(a.Deps)),
		Users: controllers.NewUserController(services.NewUsers(a.Deps), a.Sessions),
		WS:    controllers.NewWSController(ws, neg),
	}
	r := routes.RegisterRoutes(h, a.Sessions, cfg.Server.AllowOrigins, logger)
	r.MaxMultipartMemory = cfg.Upload.MaxBytes + 1<<20

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logger.Info("dashboard listening", slog.String("addr", cfg.Server.Addr))
	defer neg.Unbind()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
