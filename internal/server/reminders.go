package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"famcare/internal/models"
	"famcare/internal/recurrence"
)

type createReminderInput struct {
	OwnerID     uuid.UUID        `json:"owner_id" binding:"required"`
	MemberID    *uuid.UUID       `json:"member_id"`
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description"`
	Category    models.Category  `json:"category"`
	Frequency   models.Frequency `json:"frequency"`
	Options     models.Options   `json:"options"`
	NextRunAt   *time.Time       `json:"next_run_at"`
	Meta        map[string]any   `json:"meta"`
}

type updateReminderInput struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Category    *models.Category  `json:"category"`
	Frequency   *models.Frequency `json:"frequency"`
	Options     *models.Options   `json:"options"`
	NextRunAt   *time.Time        `json:"next_run_at"`
	Active      *bool             `json:"active"`
	Meta        map[string]any    `json:"meta"`
}

func validOptions(opts models.Options) bool {
	if opts.Weekday != nil && (*opts.Weekday < 0 || *opts.Weekday > 6) {
		return false
	}
	if opts.DayOfMonth != nil && (*opts.DayOfMonth < 1 || *opts.DayOfMonth > 31) {
		return false
	}
	return true
}

func (s *Server) createReminder(c *gin.Context) {
	var input createReminderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if input.Category == "" {
		input.Category = models.CategoryCustom
	}
	if !input.Category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
		return
	}
	if input.Frequency == "" {
		input.Frequency = models.FrequencyOnce
	}
	if !validOptions(input.Options) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recurrence options"})
		return
	}

	nextRunAt := s.clock.Now()
	if input.NextRunAt != nil {
		nextRunAt = *input.NextRunAt
	} else if input.Frequency.Recurring() {
		nextRunAt = recurrence.Next(nextRunAt, input.Frequency, input.Options)
	}

	reminder := &models.Reminder{
		OwnerID:     input.OwnerID,
		MemberID:    input.MemberID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Frequency:   input.Frequency,
		Options:     input.Options,
		NextRunAt:   nextRunAt,
		Active:      true,
		Meta:        input.Meta,
	}

	if err := s.reminders.Create(c.Request.Context(), reminder); err != nil {
		s.log.Err(err).Msg("Failed to create reminder")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"reminder": reminder})
}

func (s *Server) listReminders(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Query("owner_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required"})
		return
	}

	reminders, err := s.reminders.GetByOwner(c.Request.Context(), ownerID)
	if err != nil {
		s.log.Err(err).Msg("Failed to list reminders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}

func (s *Server) getReminder(c *gin.Context) {
	reminder, ok := s.loadOwnedReminder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminder": reminder})
}

func (s *Server) updateReminder(c *gin.Context) {
	reminder, ok := s.loadOwnedReminder(c)
	if !ok {
		return
	}

	var input updateReminderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if input.Title != nil {
		if *input.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title must not be empty"})
			return
		}
		reminder.Title = *input.Title
	}
	if input.Description != nil {
		reminder.Description = *input.Description
	}
	if input.Category != nil {
		if !input.Category.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
			return
		}
		reminder.Category = *input.Category
	}

	scheduleChanged := false
	if input.Frequency != nil {
		reminder.Frequency = *input.Frequency
		scheduleChanged = true
	}
	if input.Options != nil {
		if !validOptions(*input.Options) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recurrence options"})
			return
		}
		reminder.Options = *input.Options
		scheduleChanged = true
	}
	if input.Active != nil {
		reminder.Active = *input.Active
	}
	if input.Meta != nil {
		reminder.Meta = input.Meta
	}

	switch {
	case input.NextRunAt != nil:
		reminder.NextRunAt = *input.NextRunAt
	case scheduleChanged && reminder.Frequency.Recurring():
		// Re-anchor the schedule from now under the new rules.
		reminder.NextRunAt = recurrence.Next(s.clock.Now(), reminder.Frequency, reminder.Options)
	}

	if err := s.reminders.Update(c.Request.Context(), reminder); err != nil {
		s.respondStoreError(c, err, "Failed to update reminder")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminder": reminder})
}

func (s *Server) deleteReminder(c *gin.Context) {
	id, ownerID, ok := reminderScope(c)
	if !ok {
		return
	}
	if err := s.reminders.HardDelete(c.Request.Context(), id, ownerID); err != nil {
		s.respondStoreError(c, err, "Failed to delete reminder")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}

func (s *Server) softDeleteReminder(c *gin.Context) {
	id, ownerID, ok := reminderScope(c)
	if !ok {
		return
	}
	if err := s.reminders.SoftDelete(c.Request.Context(), id, ownerID, s.clock.Now()); err != nil {
		s.respondStoreError(c, err, "Failed to soft-delete reminder")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Archived"})
}

func (s *Server) restoreReminder(c *gin.Context) {
	id, ownerID, ok := reminderScope(c)
	if !ok {
		return
	}
	if err := s.reminders.Restore(c.Request.Context(), id, ownerID); err != nil {
		s.respondStoreError(c, err, "Failed to restore reminder")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restored"})
}

func (s *Server) triggerReminder(c *gin.Context) {
	reminder, ok := s.loadOwnedReminder(c)
	if !ok {
		return
	}

	result, err := s.coordinator.Trigger(c.Request.Context(), reminder.ID)
	if err != nil {
		s.respondStoreError(c, err, "Failed to trigger reminder")
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// loadOwnedReminder fetches the reminder from the path id and checks it
// belongs to the owner_id in the query.
func (s *Server) loadOwnedReminder(c *gin.Context) (*models.Reminder, bool) {
	id, ownerID, ok := reminderScope(c)
	if !ok {
		return nil, false
	}

	reminder, err := s.reminders.GetByID(c.Request.Context(), id)
	if err != nil {
		s.respondStoreError(c, err, "Failed to load reminder")
		return nil, false
	}
	if reminder.OwnerID != ownerID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return nil, false
	}
	return reminder, true
}

func reminderScope(c *gin.Context) (id, ownerID uuid.UUID, ok bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reminder id"})
		return uuid.Nil, uuid.Nil, false
	}
	ownerID, err = uuid.Parse(c.Query("owner_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required"})
		return uuid.Nil, uuid.Nil, false
	}
	return id, ownerID, true
}

func (s *Server) respondStoreError(c *gin.Context, err error, msg string) {
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	s.log.Err(err).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
}
