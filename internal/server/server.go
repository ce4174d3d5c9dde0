// Package server exposes the HTTP surface: reminder CRUD, manual
// triggers and push-subscription registration. Authentication is
// handled upstream; callers identify the owning account explicitly.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"famcare/internal/logger"
	"famcare/internal/repository"
	"famcare/internal/scheduler"
)

type Server struct {
	reminders     *repository.ReminderRepository
	subscriptions *repository.SubscriptionRepository
	coordinator   *scheduler.Coordinator
	clock         scheduler.Clock
	log           zerolog.Logger
}

func New(
	reminders *repository.ReminderRepository,
	subscriptions *repository.SubscriptionRepository,
	coordinator *scheduler.Coordinator,
	clock scheduler.Clock,
) *Server {
	return &Server{
		reminders:     reminders,
		subscriptions: subscriptions,
		coordinator:   coordinator,
		clock:         clock,
		log:           logger.New("server"),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "famcare API running")
	})

	api := r.Group("/api")
	{
		reminders := api.Group("/reminders")
		{
			reminders.POST("", s.createReminder)
			reminders.GET("", s.listReminders)
			reminders.GET("/:id", s.getReminder)
			reminders.PUT("/:id", s.updateReminder)
			reminders.DELETE("/:id", s.deleteReminder)
			reminders.POST("/:id/soft-delete", s.softDeleteReminder)
			reminders.POST("/:id/restore", s.restoreReminder)
			reminders.POST("/:id/trigger", s.triggerReminder)
		}

		api.POST("/subscriptions", s.saveSubscription)
	}

	return r
}
