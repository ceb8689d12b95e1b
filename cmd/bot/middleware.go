package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/k1llbot/k1ll/cmd/bot/monitoring"
	"github.com/k1llbot/k1ll/pkg/logging"
	"github.com/k1llbot/k1ll/pkg/messages"
	"github.com/k1llbot/k1ll/pkg/request"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for health check.
	PathHealth = "/health"
)

// commandController is a function that validates an interaction and returns the
// processor that will handle it.
type commandController func(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error)

// commandProcessor is a function that processes an interaction.
type commandProcessor func(a IApp, i *discordgo.InteractionCreate)

// interactionHandler routes interactions to the matching slash command controller
// or message component processor.
func interactionHandler(a IApp, slash map[string]commandController, components map[string]commandProcessor) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			name := i.ApplicationCommandData().Name
			controller, ok := slash[name]
			if !ok {
				a.Log().Error("Unknown slash command", slog.String("command", name))
				_ = respondEphemeral(a, i, messages.ErrUserErrorProcessing)
				return
			}

			t := prometheus.NewTimer(monitoring.DiscordCommandDuration.WithLabelValues(name))
			defer t.ObserveDuration()

			processor, err := controller(a, i)
			if err != nil {
				a.Log().Error("Error validating command",
					slog.String("command", name),
					slog.String(logging.KeyError, err.Error()),
				)
				_ = respondEphemeral(a, i, err.Error())
				return
			}
			processor(a, i)
		case discordgo.InteractionMessageComponent:
			id := i.MessageComponentData().CustomID
			processor, ok := components[id]
			if !ok {
				a.Log().Error("Unknown component interaction", slog.String("custom_id", id))
				_ = respondEphemeral(a, i, messages.ErrUserErrorProcessing)
				return
			}

			t := prometheus.NewTimer(monitoring.DiscordCommandDuration.WithLabelValues(id))
			defer t.ObserveDuration()

			processor(a, i)
		default:
			a.Log().Warn("Unhandled interaction type", slog.String("type", i.Type.String()))
		}
	}
}

func middlewareHttp(handler http.HandlerFunc, a IApp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cw := request.NewClientWriter(w)

		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Recovered from panic in http handler",
					slog.String("panic", fmt.Sprintf("%v", rec)),
				)
				cw.WriteHeader(http.StatusInternalServerError)
			}
		}()

		start := time.Now()
		handler(cw, r)

		status := strconv.Itoa(cw.StatusCode())
		monitoring.HttpTotalRequests.WithLabelValues(r.URL.Path, r.Method, status).Inc()
		monitoring.HttpRequestDuration.WithLabelValues(r.URL.Path, r.Method, status).Observe(time.Since(start).Seconds())
	}
}
