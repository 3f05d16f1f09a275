package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/susu3304/pokerledger/internal/config"
	"github.com/susu3304/pokerledger/internal/ledger"
	"golang.org/x/oauth2"
)

type API struct {
	router      *mux.Router
	svc         *ledger.Service
	config      *config.Config
	log         zerolog.Logger
	oauthConfig *oauth2.Config // nil when Discord login is not configured
	jwtSecret   []byte
	discordAPI  string
}

func New(cfg *config.Config, svc *ledger.Service, log zerolog.Logger) *API {
	api := &API{
		router:     mux.NewRouter(),
		svc:        svc,
		config:     cfg,
		log:        log,
		jwtSecret:  []byte(cfg.JWTSecret),
		discordAPI: "https://discord.com/api",
	}
	if cfg.OAuthEnabled() {
		if cfg.JWTSecret == "" || cfg.JWTSecret == config.DevJWTSecret {
			log.Warn().Msg("JWT_SECRET is not set; using a random signing key, tokens will not survive a restart")
			api.jwtSecret = []byte(generateRandomString(48))
		}
		api.oauthConfig = &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://discord.com/api/oauth2/authorize",
				TokenURL: "https://discord.com/api/oauth2/token",
			},
		}
	} else {
		log.Warn().Msg("Discord OAuth is not configured; write endpoints are unauthenticated")
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.router.Use(requestID(a.log), recovery, requestLogger)

	// Auth endpoints
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("GET")
	a.router.HandleFunc("/api/auth/callback", a.handleCallback).Methods("GET")
	a.router.HandleFunc("/api/auth/logout", a.handleLogout).Methods("POST")

	// Public endpoints
	a.router.HandleFunc("/api/health", a.handleHealth).Methods("GET")
	a.router.HandleFunc("/api/players", a.handleListPlayers).Methods("GET")
	a.router.HandleFunc("/api/sessions", a.handleListSessions).Methods("GET")
	a.router.HandleFunc("/api/sessions/{id}", a.handleGetSession).Methods("GET")
	a.router.HandleFunc("/api/sessions/{id}/results", a.handleSessionResults).Methods("GET")
	a.router.HandleFunc("/api/settlement", a.handleSettlement).Methods("GET")
	a.router.HandleFunc("/api/stats", a.handleStats).Methods("GET")
	a.router.HandleFunc("/api/settings", a.handleGetSettings).Methods("GET")
	a.router.HandleFunc("/api/presets", a.handleListPresets).Methods("GET")

	// Protected endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/players", a.handleCreatePlayer).Methods("POST")
	protected.HandleFunc("/players/reset-balances", a.handleResetBalances).Methods("POST")
	protected.HandleFunc("/players/{id}", a.handleRenamePlayer).Methods("PUT")
	protected.HandleFunc("/players/{id}", a.handleDeletePlayer).Methods("DELETE")

	protected.HandleFunc("/sessions", a.handleStartSession).Methods("POST")
	protected.HandleFunc("/sessions/{id}", a.handleDeleteSession).Methods("DELETE")
	protected.HandleFunc("/sessions/{id}/players/{player_id}", a.handleSetPlayerChips).Methods("PUT")
	protected.HandleFunc("/sessions/{id}/loans", a.handleAddLoan).Methods("POST")
	protected.HandleFunc("/sessions/{id}/loans/{loan_id}", a.handleRemoveLoan).Methods("DELETE")
	protected.HandleFunc("/sessions/{id}/complete", a.handleCompleteSession).Methods("POST")

	protected.HandleFunc("/settings", a.handleUpdateSettings).Methods("PUT")
	protected.HandleFunc("/presets", a.handleCreatePreset).Methods("POST")
	protected.HandleFunc("/presets/{id}", a.handleUpdatePreset).Methods("PUT")
	protected.HandleFunc("/presets/{id}", a.handleDeletePreset).Methods("DELETE")
	protected.HandleFunc("/presets/{id}/default", a.handleSetDefaultPreset).Methods("POST")
	protected.HandleFunc("/clear", a.handleClearAll).Methods("POST")
}

// Handler returns the router wrapped with CORS.
func (a *API) Handler() http.Handler {
	// Credentials are only allowed with an explicit origin list.
	wildcard := len(a.config.AllowedOrigins) == 0
	for _, o := range a.config.AllowedOrigins {
		if o == "*" {
			wildcard = true
		}
	}
	corsOptions := cors.Options{
		AllowedOrigins:   a.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: !wildcard,
	}
	return cors.New(corsOptions).Handler(a.router)
}

// Server builds the HTTP server; the caller owns ListenAndServe and Shutdown.
func (a *API) Server() *http.Server {
	a.log.Info().Str("addr", a.config.WebBind).Msg("API server configured")
	return &http.Server{
		Addr:              a.config.WebBind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
