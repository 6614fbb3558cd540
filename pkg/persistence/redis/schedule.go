package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
)

// ScheduleRepository stores schedules as JSON values under
// workflows:schedule:<id>, indexed by the workflows:schedules set.
type ScheduleRepository struct {
	client *backend.Client
}

func NewScheduleRepository(client *backend.Client) *ScheduleRepository {
	return &ScheduleRepository{client: client}
}

func (r *ScheduleRepository) key(id string) string {
	return keyPrefix + "schedule:" + id
}

func (r *ScheduleRepository) indexKey() string {
	return keyPrefix + "schedules"
}

func (r *ScheduleRepository) Save(ctx context.Context, schedule *models.Schedule) error {
	data, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.key(schedule.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}

	if !created {
		return persistence.NewScheduleError("Save", schedule.ID, persistence.ErrScheduleAlreadyExists)
	}

	err = r.client.SAdd(ctx, r.indexKey(), schedule.ID).Err()
	if err != nil {
		return fmt.Errorf("failed to index schedule: %w", err)
	}

	return nil
}

func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	data, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}

	updated, err := r.client.SetXX(ctx, r.key(schedule.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}

	if !updated {
		return persistence.NewScheduleError("Update", schedule.ID, persistence.ErrScheduleNotFound)
	}

	return nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	val, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	var schedule models.Schedule
	if err := json.Unmarshal([]byte(val), &schedule); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schedule %s: %w", id, err)
	}

	return &schedule, nil
}

func (r *ScheduleRepository) GetAll(ctx context.Context) ([]*models.Schedule, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	schedules := make([]*models.Schedule, 0, len(ids))

	for _, id := range ids {
		schedule, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if schedule != nil {
			schedules = append(schedules, schedule)
		}
	}

	sort.Slice(schedules, func(i, j int) bool {
		if !schedules[i].NextDueAt.Equal(schedules[j].NextDueAt) {
			return schedules[i].NextDueAt.Before(schedules[j].NextDueAt)
		}

		return schedules[i].ID < schedules[j].ID
	})

	return schedules, nil
}

func (r *ScheduleRepository) DueSchedules(ctx context.Context, before time.Time) ([]*models.Schedule, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	schedules := make([]*models.Schedule, 0, len(all))

	for _, schedule := range all {
		if schedule.IsDue(before) {
			schedules = append(schedules, schedule)
		}
	}

	return schedules, nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	deleted, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	if deleted == 0 {
		return persistence.NewScheduleError("Delete", id, persistence.ErrScheduleNotFound)
	}

	err = r.client.SRem(ctx, r.indexKey(), id).Err()
	if err != nil {
		return fmt.Errorf("failed to unindex schedule: %w", err)
	}

	return nil
}
