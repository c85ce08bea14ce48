package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dukerupert/teampulse/internal/activity"
	"github.com/dukerupert/teampulse/internal/backup"
	"github.com/dukerupert/teampulse/internal/config"
	"github.com/dukerupert/teampulse/internal/email"
	"github.com/dukerupert/teampulse/internal/handler"
	"github.com/dukerupert/teampulse/internal/middleware"
	"github.com/dukerupert/teampulse/internal/objectstore"
	"github.com/dukerupert/teampulse/internal/points"
	"github.com/dukerupert/teampulse/internal/push"
	"github.com/dukerupert/teampulse/internal/redemption"
	"github.com/dukerupert/teampulse/internal/report"
	"github.com/dukerupert/teampulse/internal/store"
	"github.com/dukerupert/teampulse/internal/token"
	"github.com/dukerupert/teampulse/internal/tracker"
	ws "github.com/dukerupert/teampulse/internal/websocket"
	"github.com/dukerupert/teampulse/internal/wfh"
)

// authRateLimit bounds register and login attempts per client IP and path.
const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	issuer      *token.Issuer
	authH       *handler.AuthHandler
	teamH       *handler.TeamHandler
	activityH   *handler.ActivityHandler
	rewardH     *handler.RewardHandler
	redemptionH *handler.RedemptionHandler
	pointsH     *handler.PointsHandler
	reportH     *handler.ReportHandler
	backupH     *handler.BackupHandler
	pushH       *handler.PushHandler
	backups     *backup.Manager
	rateLimiter *middleware.RateLimiter
	originHosts []string
	logger      *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	teamStore := store.NewTeamStore(db)
	activityStore := store.NewActivityStore(db)
	wfhStore := store.NewWFHStore(db)
	rewardStore := store.NewRewardStore(db)
	pointStore := store.NewPointStore(db)
	reportStore := store.NewReportStore(db)
	pushStore := store.NewPushStore(db)

	issuer := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	trackerClient := tracker.NewClient(cfg.TrackerURL, cfg.TrackerTimeout)
	emailClient := email.NewClient(cfg.PostmarkToken, cfg.FromEmail, cfg.BaseURL)
	pushService := push.NewService(push.Config{
		VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
		Subscriber:      cfg.Push.Subscriber,
	}, pushStore, logger.With("component", "push"))

	accountant := wfh.NewAccountant(wfhStore, teamStore, cfg.DefaultWFHLimit)
	activities := activity.NewService(db, activityStore, teamStore, accountant)
	workflow := redemption.NewWorkflow(db, userStore, rewardStore, wfhStore)
	ledger := points.NewLedger(db, userStore, pointStore)
	aggregator := report.NewAggregator(reportStore, teamStore)
	objects := objectstore.NewClient(cfg.S3)
	exporter := report.NewExporter(objects, cfg.S3.Bucket)
	backups := backup.NewManager(db, objects, backup.Config{
		Bucket:     cfg.S3.Bucket,
		Passphrase: cfg.Backup.Passphrase,
		Interval:   cfg.Backup.Interval,
	}, logger.With("component", "backup"))

	if !trackerClient.Configured() {
		logger.Warn("tracker URL not set, only local accounts can log in")
	}
	if !emailClient.Configured() {
		logger.Info("postmark not configured, redemption emails disabled")
	}
	if !pushService.Configured() {
		logger.Info("VAPID keys not set, web push disabled")
	}
	if !exporter.Configured() {
		logger.Info("s3 not configured, report export and backups disabled")
	}

	return &Server{
		db:          db,
		hub:         hub,
		issuer:      issuer,
		authH:       handler.NewAuthHandler(userStore, trackerClient, issuer, cfg.IsAdminUsername, cfg.CookieSecure, logger.With("component", "auth")),
		teamH:       handler.NewTeamHandler(teamStore, userStore, accountant, cfg.DefaultWFHLimit, logger.With("component", "team")),
		activityH:   handler.NewActivityHandler(activities, hub, logger.With("component", "activity")),
		rewardH:     handler.NewRewardHandler(rewardStore, workflow, hub, logger.With("component", "reward")),
		redemptionH: handler.NewRedemptionHandler(workflow, rewardStore, userStore, emailClient, pushService, hub, logger.With("component", "redemption")),
		pointsH:     handler.NewPointsHandler(ledger, userStore, wfhStore, pushService, hub, logger.With("component", "points")),
		reportH:     handler.NewReportHandler(aggregator, exporter, logger.With("component", "report")),
		backupH:     handler.NewBackupHandler(backups, logger.With("component", "backup")),
		pushH:       handler.NewPushHandler(pushStore, pushService, logger.With("component", "push")),
		backups:     backups,
		rateLimiter: middleware.NewRateLimiter(),
		originHosts: originPatterns(cfg.BaseURL),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Backups returns the backup manager for the scheduled snapshot loop.
func (s *Server) Backups() *backup.Manager {
	return s.backups
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.Handle("POST /api/auth/register", s.rateLimited(s.authH.Register))
	outerMux.Handle("POST /api/auth/login", s.rateLimited(s.authH.Login))
	outerMux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	outerMux.Handle("/", middleware.RequireAuth(s.issuer)(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.ByIPAndPath, authRateLimit, authRateWindow)(h)
}

// originPatterns allows websocket upgrades from the public base URL host.
func originPatterns(baseURL string) []string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

func admin(h http.HandlerFunc) http.Handler {
	return middleware.RequireAdmin(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Current user
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("GET /api/me/wfh-quota", s.pointsH.MyWFHQuota)

	// Users and points
	mux.Handle("GET /api/users", admin(s.pointsH.ListUsers))
	mux.Handle("POST /api/users/{id}/points", admin(s.pointsH.Grant))
	mux.HandleFunc("GET /api/users/{id}/points", s.pointsH.Balance)
	mux.HandleFunc("GET /api/leaderboard", s.pointsH.Leaderboard)
	mux.Handle("PUT /api/top-performers", admin(s.pointsH.SetTopPerformer))
	mux.HandleFunc("GET /api/top-performers", s.pointsH.TopPerformers)

	// Teams
	mux.Handle("POST /api/teams", admin(s.teamH.Create))
	mux.HandleFunc("GET /api/teams", s.teamH.List)
	mux.HandleFunc("GET /api/teams/{id}", s.teamH.Get)
	mux.Handle("POST /api/teams/{id}/members", admin(s.teamH.AddMember))
	mux.Handle("DELETE /api/teams/{id}/members/{userId}", admin(s.teamH.RemoveMember))
	mux.HandleFunc("GET /api/teams/{id}/wfh-usage", s.teamH.WFHUsage)
	mux.HandleFunc("PUT /api/teams/{id}/wfh", s.teamH.UpdateWFHLimit)

	// Activities
	mux.HandleFunc("POST /api/activities", s.activityH.Create)
	mux.HandleFunc("GET /api/activities", s.activityH.List)
	mux.HandleFunc("GET /api/activities/{id}", s.activityH.Get)
	mux.HandleFunc("PUT /api/activities/{id}", s.activityH.Update)
	mux.HandleFunc("DELETE /api/activities/{id}", s.activityH.Delete)

	// Rewards
	mux.Handle("POST /api/rewards", admin(s.rewardH.Create))
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("GET /api/rewards/{id}", s.rewardH.Get)
	mux.Handle("PUT /api/rewards/{id}", admin(s.rewardH.Update))
	mux.Handle("DELETE /api/rewards/{id}", admin(s.rewardH.Delete))
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.redemptionH.RedeemReward)

	// Redemptions
	mux.HandleFunc("POST /api/redemptions", s.redemptionH.Create)
	mux.HandleFunc("GET /api/redemptions", s.redemptionH.List)
	mux.Handle("PUT /api/redemptions/{id}", admin(s.redemptionH.SetStatus))
	mux.HandleFunc("DELETE /api/redemptions/{id}", s.redemptionH.Cancel)
	mux.HandleFunc("POST /api/redemptions/{id}/activate", s.redemptionH.Activate)

	// Reports
	mux.HandleFunc("GET /api/reports/teams/{id}", s.reportH.Team)
	mux.Handle("POST /api/reports/teams/{id}/export", admin(s.reportH.Export))
	mux.Handle("GET /api/reports/system", admin(s.reportH.System))

	// Web push
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("POST /api/push/subscriptions", s.pushH.Subscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)

	// Operations
	mux.Handle("POST /api/admin/backups", admin(s.backupH.Create))
	mux.Handle("GET /api/admin/backups/last", admin(s.backupH.Last))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.originHosts))
}
