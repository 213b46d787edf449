package main

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"diffhunt/config"
	"diffhunt/game"
	"diffhunt/logger"
	"diffhunt/migrations"
	"diffhunt/storage"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	if len(allowedOrigins) > 0 {
		r.Use(func(ctx *gin.Context) {
			origin := ctx.Request.Header.Get("Origin")
			if origin == "" || slices.Contains(allowedOrigins, origin) {
				ctx.Next()
				return
			}
			ctx.String(http.StatusForbidden, "forbidden origin")
			ctx.Abort()
		})

		r.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowCredentials: true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{
				"Content-Type",
				"Authorization",
				"Upgrade",
				"Connection",
				"Sec-WebSocket-Key",
				"Sec-WebSocket-Version",
				"Sec-WebSocket-Extensions",
				"Sec-WebSocket-Protocol",
			},
		}))
	}

	return r
}

func main() {
	cfg := config.FromEnv()
	if cfg.Debug {
		logger.SetDebug()
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	if cfg.PostgresURL == "" {
		logger.Fatalf("Missing postgres url")
	}

	if err := migrations.Migrate(cfg.PostgresURL); err != nil {
		logger.Fatalf("Migrations failed: %v", err)
	}

	pgRepo, err := storage.NewPostgresRepo(context.Background(), cfg.PostgresURL)
	if err != nil {
		logger.Fatalf("Couldn't connect to postgres: %v", err)
	}

	codeGen := game.NewCodeGenerator()
	tickerGen := game.NewTickerGen()

	lobby := game.NewLobby(codeGen, &tickerGen)

	lobbyStarted := make(chan struct{})
	go lobby.LobbyActor(lobbyStarted)
	<-lobbyStarted

	gameHandler := game.NewGameHandler(lobby, pgRepo, pgRepo, codeGen)

	r := CreateServer(cfg.AllowedOrigins)
	{
		gameGroup := r.Group("/game")
		gameGroup.POST("/rooms", gameHandler.CreateRoomHandler)
		gameGroup.GET("/rooms", gameHandler.GetPublicGamesHandler)
		gameGroup.GET("/rooms/:code", gameHandler.GetRoomHandler)
		gameGroup.GET("/rooms/:code/join", gameHandler.JoinRoomHandler)
		gameGroup.DELETE("/rooms/:code", gameHandler.CloseRoomHandler)
	}

	logger.Infof("api listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatalf("Couldn't start server: %v", err)
	}
}
