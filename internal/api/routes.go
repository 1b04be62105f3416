// Package api assembles the sandbox backend: gin REST routes under /api and
// the STOMP broker under /ws.
package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Wal-20/studysphere-cli/internal/api/handlers"
	"github.com/Wal-20/studysphere-cli/internal/api/middleware"
	"github.com/Wal-20/studysphere-cli/internal/api/ws"
	"github.com/Wal-20/studysphere-cli/internal/config"
	"github.com/Wal-20/studysphere-cli/internal/logger"
	"github.com/Wal-20/studysphere-cli/internal/services"
	"github.com/Wal-20/studysphere-cli/internal/utils"
)

// Server is one wired backend over a database.
type Server struct {
	Router *gin.Engine
	Svcs   *services.Services
	Hub    *ws.Hub
	addr   string
}

// NewServer wires repositories, services, the broker and every route.
// now may be nil for the wall clock.
func NewServer(cfg config.Server, db *gorm.DB, now func() time.Time) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	caches := utils.NewCaches()
	h := handlers.New(nil)
	hub := ws.NewHub(h.Authenticate, h.Subscribe, cfg.AllowedOrigins)
	h.Svcs = services.New(services.NewRepos(db), services.Options{
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
		UploadDir: cfg.UploadDir,
		Caches:    caches,
		Publisher: hub,
		Now:       now,
	})
	hub.Handle(handlers.SendMessagePrefix, h.SendMessage)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.CheckCORS(cfg.AllowedOrigins))
	r.MaxMultipartMemory = 8 << 20

	r.GET("/ws/websocket", gin.WrapH(hub))

	api := r.Group("/api")
	api.POST("/users/login", h.Login)
	api.POST("/users/register", h.Register)
	api.GET("/courses", h.Courses)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(h.Svcs.Auth, caches))
	protected.GET("/users/profile", h.Profile)
	protected.GET("/profile/courses", h.MyCourses)
	protected.GET("/dashboard", h.Dashboard)

	protected.POST("/groups", h.CreateGroup)
	protected.GET("/groups/course/:courseId", h.CourseGroups)
	protected.DELETE("/groups/leave/:id", h.LeaveGroup)
	protected.POST("/groups/polls/:pollId/options/:optionId/vote", h.Vote)
	protected.GET("/groups/:id", h.GetGroup)
	protected.PUT("/groups/:id", h.UpdateGroup)
	protected.POST("/groups/:id/join", h.JoinGroup)
	protected.GET("/groups/:id/members", h.Members)
	protected.DELETE("/groups/:id/members/:memberId", h.RemoveMember)
	protected.PUT("/groups/:id/members/:memberId/role", h.ChangeRole)
	protected.GET("/groups/:id/requests", h.JoinRequests)
	protected.PUT("/groups/:id/requests/:requestId", h.HandleJoinRequest)

	member := protected.Group("/groups/:id")
	member.Use(middleware.GroupMember(h.Svcs.Groups))
	member.GET("/messages", h.History)
	member.DELETE("/messages/:messageId", h.DeleteMessage)
	member.GET("/pins", h.Pins)
	member.POST("/pins/messages/:messageId", h.Pin)
	member.DELETE("/pins/messages/:messageId", h.Unpin)
	member.POST("/polls", h.CreatePoll)

	protected.POST("/documents/upload", h.Upload)
	protected.GET("/documents/group/:id", h.Documents)
	protected.GET("/documents/:messageId", h.Download)

	protected.GET("/notifications/user/:id", h.Notifications)
	protected.PUT("/notifications/user/:id/read-all", h.MarkAllRead)
	protected.DELETE("/notifications/user/:id/read", h.DeleteRead)
	protected.PUT("/notifications/:id/read", h.MarkRead)
	protected.DELETE("/notifications/selected", h.DeleteSelected)

	protected.GET("/calendar/events/all", h.AllEvents)
	protected.GET("/calendar/events/upcoming", h.UpcomingEvents)
	protected.GET("/calendar/events/group/:id", h.GroupEvents)
	protected.POST("/calendar/events", h.CreateEvent)
	protected.PUT("/calendar/events/:id", h.UpdateEvent)
	protected.DELETE("/calendar/events/:id", h.DeleteEvent)

	return &Server{Router: r, Svcs: h.Svcs, Hub: hub, addr: cfg.Addr}
}

// Close stops the broker.
func (s *Server) Close() {
	s.Hub.Close()
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("server listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		logger.Infof("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	// websockets are hijacked, so Shutdown does not wait for them
	s.Hub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Infof("server stopped")
	return nil
}
