package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/gorilla/mux"
	"github.com/k1llbot/k1ll/cmd/bot/config"
	"github.com/k1llbot/k1ll/cmd/bot/monitoring"
	"github.com/k1llbot/k1ll/pkg/dataaccess"
	"github.com/k1llbot/k1ll/pkg/logging"
	"github.com/k1llbot/k1ll/pkg/ratelimit"
	"github.com/k1llbot/k1ll/pkg/request"
	"github.com/k1llbot/k1ll/pkg/ticketing"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// IApp is the interface for the application.
type IApp interface {
	// Session returns the discord session.
	Session() *discordgo.Session

	// Log returns the logger.
	Log() *slog.Logger

	// GuildDal returns the guild configuration data access layer.
	GuildDal() dataaccess.GuildDal

	// WarnDal returns the warnings data access layer.
	WarnDal() dataaccess.WarnDal

	// XPDal returns the experience data access layer.
	XPDal() dataaccess.XPDal

	// WalletDal returns the economy data access layer.
	WalletDal() dataaccess.WalletDal

	// Tickets returns the ticket lifecycle service.
	Tickets() *ticketing.Service

	// Registry returns the ticket registry.
	Registry() ticketing.Registry

	// Provisioner returns the ticket channel provisioner.
	Provisioner() ticketing.ChannelProvisioner

	// Limiter returns the redis-backed rate limiter.
	Limiter() *ratelimit.Limiter
}

type App struct {
	// is the logger.
	*slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any

	// registered tracks the slash commands created per guild so shutdown can remove them.
	registered map[string][]*discordgo.ApplicationCommand
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		Logger:     l,
		r:          r,
		registered: make(map[string][]*discordgo.ApplicationCommand),
	}
}

func (a *App) Run() error {
	// Register bot.
	if err := a.RegisterBot(); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s#%s", r.User.Username, r.User.Discriminator))
	})

	// Register slash commands.
	if err := a.registerSlashCommands(); err != nil {
		return fmt.Errorf("error registering slash commands: %w", err)
	}

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Start event listener.
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	a.Info("Bot is now running.")

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Process shutdown signal.
	for sig := range c {
		a.Info("Received shutdown signal", slog.String("signal", sig.String()))
		if err := a.ShutdownHook(); err != nil {
			a.Error("Error shutting down application", slog.String(logging.KeyError, err.Error()))
		}
		os.Exit(0)
	}
	return nil
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	// Unregister slash commands.
	if err := a.unregisterSlashCommands(); err != nil {
		return fmt.Errorf("error unregistering slash commands: %w", err)
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		return fmt.Errorf("error closing connection to Discord: %w", err)
	}
	return nil
}

func (a *App) RegisterBot() error {
	// Default the number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + config.BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsAll)

	if a.eventNotifier == nil {
		// Create event notifier. This is used to observe events. It is buffered to prevent blocking.
		a.eventNotifier = make(chan any, 100)
	}

	dg.SetEventNotifier(a.eventNotifier)

	a.s = dg
	return nil
}

func (a *App) runServer() {
	go func() {
		a.Info("Starting monitoring server")
		if err := a.svr.ListenAndServe(); err != nil {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	// PathMetrics is the path for metrics.
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)

	// PathHealth is the path for health check.
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck(), a)).Methods(http.MethodGet)

	// NotFoundHandler is the handler for 404.
	a.r.NotFoundHandler = request.NotFoundHandler(a.Log())

	// MethodNotAllowedHandler is the handler for 405.
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Log())
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:    ":" + config.MonitoringPort,
		Handler: a.r,
	}
}

func (a *App) GetJoinedGuilds() ([]*discordgo.UserGuild, error) {
	guilds, err := a.s.UserGuilds(0, "", "")
	if err != nil {
		return nil, fmt.Errorf("error getting guilds: %w", err)
	}
	return guilds, nil
}

func (a *App) RegisterDiscordHandlers() error {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Member joined/left guild (welcome, autorole, leave notice).
	a.s.AddHandler(memberJoinedHandler(a))
	a.s.AddHandler(memberLeaveHandler(a))

	// Message events (anti-spam, anti-links, XP, log embeds).
	a.s.AddHandler(messageCreateHandler(a))
	a.s.AddHandler(messageDeleteHandler(a))
	a.s.AddHandler(messageUpdateHandler(a))

	// Interaction create handler.
	a.s.AddHandler(interactionHandler(a,
		// Slash Controllers
		slashControllers(),
		// Component Controllers
		map[string]commandProcessor{
			OpenTicketButtonID:  openTicketHandler,
			CloseTicketButtonID: closeTicketButtonHandler,
			RoleMenuSelectID:    roleMenuHandler,
		}))
	return nil
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				monitoring.TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				monitoring.TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			monitoring.TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

func (a *App) registerSlashCommands() error {
	// Get all guilds the bot is in.
	guilds, err := a.GetJoinedGuilds()
	if err != nil {
		return fmt.Errorf("error getting guilds: %w", err)
	}

	// Register every slash command for each guild.
	for _, g := range guilds {
		for _, cmd := range slashCommands() {
			created, err := a.Session().ApplicationCommandCreate(config.ApplicationId, g.ID, cmd)
			if err != nil {
				return fmt.Errorf("error creating %s command for guild %s: %w", cmd.Name, g.ID, err)
			}
			a.registered[g.ID] = append(a.registered[g.ID], created)
		}
	}
	return nil
}

func (a *App) unregisterSlashCommands() error {
	for guildID, cmds := range a.registered {
		for _, cmd := range cmds {
			if err := a.s.ApplicationCommandDelete(config.ApplicationId, guildID, cmd.ID); err != nil {
				return fmt.Errorf("error deleting %s command for guild %s: %w", cmd.Name, guildID, err)
			}
		}
	}
	return nil
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) GuildDal() dataaccess.GuildDal {
	return dataaccess.NewGuildDal()
}

func (a *App) WarnDal() dataaccess.WarnDal {
	return dataaccess.NewWarnDal()
}

func (a *App) XPDal() dataaccess.XPDal {
	return dataaccess.NewXPDal()
}

func (a *App) WalletDal() dataaccess.WalletDal {
	return dataaccess.NewWalletDal()
}

func (a *App) Registry() ticketing.Registry {
	return ticketing.NewRegistry(dataaccess.NewTicketDal(), a.Log())
}

func (a *App) Provisioner() ticketing.ChannelProvisioner {
	return ticketing.NewChannelProvisioner(a.s)
}

func (a *App) Tickets() *ticketing.Service {
	return ticketing.NewService(
		a.Log(),
		a.Registry(),
		a.Provisioner(),
		ticketing.NewTranscriptBuilder(ticketing.NewHistoryFetcher(a.s)),
		ticketing.NewTranscriptAttacher(a.s),
	)
}

func (a *App) Limiter() *ratelimit.Limiter {
	return ratelimit.NewLimiter(dataaccess.Redis)
}
