// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/settlers-of-asgard/server/internal/auth"
	"github.com/settlers-of-asgard/server/internal/cache"
	"github.com/settlers-of-asgard/server/internal/catalog"
	"github.com/settlers-of-asgard/server/internal/database"
	"github.com/settlers-of-asgard/server/internal/game"
	"github.com/settlers-of-asgard/server/internal/middleware"
	"github.com/settlers-of-asgard/server/internal/server"
)

// durationEnv reads a whole-second duration from the environment, 0 when
// unset or unparseable.
func durationEnv(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// Key files survive restarts so reconnect tokens stay valid across a
	// deploy; without them a fresh pair is generated.
	privPath, pubPath := os.Getenv("ED25519_PRIVATE_KEY_PATH"), os.Getenv("ED25519_PUBLIC_KEY_PATH")
	if privPath != "" && pubPath != "" {
		if err := auth.InitFromPath(privPath, pubPath); err != nil {
			logger.Fatalf("failed to load signing keys: %v", err)
		}
	} else {
		auth.Init()
	}

	cat, err := catalog.Load()
	if err != nil {
		logger.Fatalf("failed to load catalog: %v", err)
	}

	srv := server.New(logger, cat)
	if d := durationEnv("PING_INTERVAL"); d > 0 {
		srv.PingInterval = d
	}
	if d := durationEnv("CLIENT_TIMEOUT"); d > 0 {
		srv.IdleTimeout = d
	}

	// Persistence and the action history queue are optional; the server
	// plays fine without either.
	if os.Getenv("PG_HOST") != "" {
		database.ConnectDB()
		srv.OnGameEnd = func(gameID uuid.UUID, scores []game.PlayerScore) {
			results := make([]database.GameResult, len(scores))
			for i, sc := range scores {
				results[i] = database.GameResult{
					GameID:     gameID,
					PlayerName: sc.Name,
					Score:      sc.Runes,
					Placement:  i + 1,
				}
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := database.RecordGameResults(ctx, results); err != nil {
				logger.Warnf("failed to record game %s results: %v", gameID, err)
			}
		}
	}
	if os.Getenv("REDIS_ADDR") != "" {
		if err := cache.ConnectRedis(); err != nil {
			logger.Warnf("redis unavailable, action history disabled: %v", err)
		} else {
			srv.OnAction = func(rec game.ActionRecord) {
				if err := cache.PublishGameAction(context.Background(), rec); err != nil {
					logger.Warnf("failed to publish action: %v", err)
				}
			}
		}
	}

	tcpAddr := ":4441"
	if a := os.Getenv("TCP_ADDR"); a != "" {
		tcpAddr = a
	}
	go func() {
		if err := srv.ListenAndServe(tcpAddr); err != nil {
			logger.Fatalf("tcp server exited: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/ws", middleware.LogMiddleware(logger)(srv.WSHandler()))

	httpAddr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		httpAddr = ":" + port
	}
	go func() {
		logger.Infof("websocket endpoint on %s/ws", httpAddr)
		if err := http.ListenAndServe(httpAddr, mux); err != nil {
			logger.Fatalf("http server exited: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	srv.Shutdown(context.Background())
}
