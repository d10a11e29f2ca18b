// Package http exposes the relay over gin: the signaling websocket, the
// room API used as the media rendezvous, metrics and health.
package http

import (
	"context"

	"github.com/dkeye/duet/internal/adapters/signal"
	"github.com/dkeye/duet/internal/app"
	"github.com/dkeye/duet/internal/config"
	"github.com/dkeye/duet/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func SetupRouter(ctx context.Context, cfg *config.Config, relay *app.Relay, gatherer prometheus.Gatherer) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})

	api := r.Group("/api")
	api.Use(sessions.Sessions("DuetSessions", store))
	api.Use(AuthMiddleware([]byte(cfg.Secret)))

	ctrl := signal.NewSignalWSController(relay, cfg.ReadLimit, cfg.PingPeriod)
	api.GET("/ws/signal", func(c *gin.Context) {
		who := participant(c)
		log.Info().Str("module", "adapters.http").Str("user", string(who.ID)).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c, who)
	})
	api.GET("/whoami", func(c *gin.Context) {
		c.JSON(200, participant(c))
	})
	api.GET("/users/:id", func(c *gin.Context) {
		sess, ok := relay.Registry.Get(domain.UserID(c.Param("id")))
		if !ok {
			c.JSON(404, gin.H{"error": "user_offline"})
			return
		}
		c.JSON(200, sess.Meta())
	})

	rooms := &roomHandlers{relay: relay, maxParticipants: cfg.Call.MaxParticipants}
	api.GET("/rooms", rooms.list)
	api.POST("/rooms", rooms.create)
	api.GET("/rooms/:id", rooms.get)
	api.POST("/rooms/:id/join", rooms.join)
	api.POST("/rooms/:id/leave", rooms.leave)
	api.POST("/disconnect", rooms.disconnect)

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
