package http

import (
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/scentlab/avatar-relay/internal/config"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

// ClientTokenMiddleware tags every browser with a cookie used to correlate
// frontend log lines with server ones.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, api *API) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(ClientTokenMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(cfg.StaticPath, "index.html"))
	})
	r.GET("/perfume.css", func(c *gin.Context) {
		c.File(filepath.Join(cfg.StaticPath, "perfume.css"))
	})
	r.GET("/perfume.js", func(c *gin.Context) {
		c.File(filepath.Join(cfg.StaticPath, "perfume.js"))
	})
	// gin's static handler rejects traversal outside the assets root.
	r.Static("/assets", filepath.Join(cfg.StaticPath, "assets"))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	apiGroup := r.Group("/api")

	apiGroup.POST("/start-session", api.startSession)
	apiGroup.POST("/heygen/start", api.heygenStart)
	apiGroup.POST("/stop-session", api.stopSession)
	apiGroup.POST("/send-task", api.sendTask)

	apiGroup.POST("/chat", api.chatReply)
	apiGroup.POST("/perfume-explain", api.perfumeExplain)
	apiGroup.GET("/hello", api.hello)

	apiGroup.POST("/voicechat", api.voiceChat)
	apiGroup.POST("/transcribe", api.transcribe)

	apiGroup.GET("/diag", api.diag)
	apiGroup.GET("/ping", api.ping)
	apiGroup.GET("/health", api.health)
	apiGroup.POST("/log", api.frontendLog)

	return r
}
