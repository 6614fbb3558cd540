package models

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidSchedule is returned when schedule validation fails.
var ErrInvalidSchedule = errors.New("invalid schedule configuration")

// Schedule starts new instances of a workflow definition on a cron cadence.
// NextDueAt is precomputed so a centralized poller can find due schedules
// without keeping per-schedule timers.
type Schedule struct {
	ID           string `json:"id"           validate:"required"`
	DefinitionID string `json:"definitionId" validate:"required"`

	// CronExpression uses the standard 5-field format
	// (minute hour day month weekday).
	CronExpression string `json:"cronExpression" validate:"required"`

	NextDueAt time.Time `json:"nextDueAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Active indicates whether the poller should process this schedule.
	Active bool `json:"active"`
}

// NewSchedule creates a Schedule with its first due time computed from now.
func NewSchedule(id, definitionID, cronExpression string) (*Schedule, error) {
	now := time.Now().UTC()
	schedule := &Schedule{
		ID:             id,
		DefinitionID:   definitionID,
		CronExpression: cronExpression,
		CreatedAt:      now,
		UpdatedAt:      now,
		Active:         true,
	}

	if err := schedule.calculateNextDueAt(now); err != nil {
		return nil, err
	}

	return schedule, nil
}

// UpdateNextDueAt recomputes the next due time from the current time.
func (s *Schedule) UpdateNextDueAt() error {
	return s.calculateNextDueAt(time.Now().UTC())
}

func (s *Schedule) calculateNextDueAt(referenceTime time.Time) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	cronSchedule, err := parser.Parse(s.CronExpression)
	if err != nil {
		return err
	}

	s.NextDueAt = cronSchedule.Next(referenceTime)
	s.UpdatedAt = time.Now().UTC()

	return nil
}

// IsDue reports whether the schedule should fire at the given time.
func (s *Schedule) IsDue(now time.Time) bool {
	return s.Active && !s.NextDueAt.After(now)
}

// Validate checks the schedule fields and the cron expression format.
func (s *Schedule) Validate() error {
	if s.ID == "" || s.DefinitionID == "" || s.CronExpression == "" {
		return ErrInvalidSchedule
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(s.CronExpression)

	return err
}
