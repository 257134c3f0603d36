package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/moviements/auth-server/auth"
	"github.com/moviements/auth-server/internal/config"
)

type Server struct {
	env    string // Environment (e.g., "DEV", "production")
	mux    *http.ServeMux
	routes []string
	config config.Config
	auth   *auth.Service
	repos  auth.Repos
}

func New(cfg config.Config, repos auth.Repos, authService *auth.Service) (*Server, error) {
	if authService == nil {
		return nil, fmt.Errorf("[Server New] auth service is required")
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: cfg,
		repos:  repos,
		auth:   authService,
	}
	s.env = cfg.GetEnv()

	// Bootstrap: ensure the superuser account exists
	if err := s.InitialiseSystem(cfg); err != nil {
		return nil, fmt.Errorf("[Server New] failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	displayMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + displayMethod + resetColor
	}
	log.Printf("[%s] %s\n", displayMethod, path)
}

const resetColor = "\033[0m"

var methodColors = map[string]string{
	"GET":    "\033[32m", // green
	"POST":   "\033[34m", // blue
	"PUT":    "\033[36m", // cyan
	"DELETE": "\033[33m", // yellow
	"PATCH":  "\033[35m", // magenta
}
