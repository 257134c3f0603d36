package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/redis/go-redis/v9"

	"github.com/moviements/auth-server/auth"
	"github.com/moviements/auth-server/internal/config"
	"github.com/moviements/auth-server/server"
	"github.com/moviements/auth-server/sessions"
	"github.com/moviements/auth-server/token"
	"github.com/moviements/auth-server/token/blacklist"
	"github.com/moviements/auth-server/token/blacklist/redisstore"
	"github.com/moviements/auth-server/users"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	handler, err := buildServer(c)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildServer(c config.Config) (*server.Server, error) {
	codec, err := token.NewCodec(token.Config{
		SigningKey:           c.GetSigningKey(),
		Algorithm:            c.GetSigningAlgorithm(),
		AccessTokenLifetime:  c.GetAccessTokenLifetime(),
		RefreshTokenLifetime: c.GetRefreshTokenLifetime(),
	})
	if err != nil {
		return nil, fmt.Errorf("token.NewCodec: %w", err)
	}

	ledger, err := blacklist.New(codec, blacklistStore(c))
	if err != nil {
		return nil, fmt.Errorf("blacklist.New: %w", err)
	}

	repos := auth.Repos{
		Users:    users.NewInMemoryRepo(),
		Sessions: sessions.NewInMemoryRepo(),
		Requests: users.NewInMemoryRequestRepo(),
	}

	authService, err := auth.NewService(repos, codec, ledger)
	if err != nil {
		return nil, fmt.Errorf("auth.NewService: %w", err)
	}

	return server.New(c, repos, authService)
}

// blacklistStore selects Redis when an address is configured, otherwise the
// in-process store. Single node deployments work fine without Redis; the
// shared store only matters once revocations must be visible across
// replicas.
func blacklistStore(c config.Config) blacklist.Store {
	addr := c.GetRedisAddr()
	if addr == "" {
		return blacklist.NewInMemoryStore()
	}
	return redisstore.New(redis.NewClient(&redis.Options{Addr: addr}))
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
