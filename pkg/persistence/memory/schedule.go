package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
)

// ScheduleRepository stores schedules in a map.
type ScheduleRepository struct {
	mu        sync.RWMutex
	schedules map[string]*models.Schedule
}

func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{
		schedules: make(map[string]*models.Schedule),
	}
}

func (r *ScheduleRepository) Save(_ context.Context, schedule *models.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schedules[schedule.ID]; exists {
		return persistence.NewScheduleError("Save", schedule.ID, persistence.ErrScheduleAlreadyExists)
	}

	r.schedules[schedule.ID] = cloneSchedule(schedule)

	return nil
}

func (r *ScheduleRepository) Update(_ context.Context, schedule *models.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schedules[schedule.ID]; !exists {
		return persistence.NewScheduleError("Update", schedule.ID, persistence.ErrScheduleNotFound)
	}

	r.schedules[schedule.ID] = cloneSchedule(schedule)

	return nil
}

func (r *ScheduleRepository) GetByID(_ context.Context, id string) (*models.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schedule, exists := r.schedules[id]
	if !exists {
		return nil, nil
	}

	return cloneSchedule(schedule), nil
}

func (r *ScheduleRepository) GetAll(_ context.Context) ([]*models.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schedules := make([]*models.Schedule, 0, len(r.schedules))
	for _, schedule := range r.schedules {
		schedules = append(schedules, cloneSchedule(schedule))
	}

	sortSchedules(schedules)

	return schedules, nil
}

func (r *ScheduleRepository) DueSchedules(_ context.Context, before time.Time) ([]*models.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schedules := make([]*models.Schedule, 0)

	for _, schedule := range r.schedules {
		if schedule.IsDue(before) {
			schedules = append(schedules, cloneSchedule(schedule))
		}
	}

	sortSchedules(schedules)

	return schedules, nil
}

func (r *ScheduleRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schedules[id]; !exists {
		return persistence.NewScheduleError("Delete", id, persistence.ErrScheduleNotFound)
	}

	delete(r.schedules, id)

	return nil
}

func sortSchedules(schedules []*models.Schedule) {
	sort.Slice(schedules, func(i, j int) bool {
		if !schedules[i].NextDueAt.Equal(schedules[j].NextDueAt) {
			return schedules[i].NextDueAt.Before(schedules[j].NextDueAt)
		}

		return schedules[i].ID < schedules[j].ID
	})
}
