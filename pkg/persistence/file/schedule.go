package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
)

// ScheduleRepository stores each schedule as <root>/schedules/<id>.json.
type ScheduleRepository struct {
	root string
}

func NewScheduleRepository(root string) *ScheduleRepository {
	return &ScheduleRepository{root: root}
}

func (r *ScheduleRepository) Save(_ context.Context, schedule *models.Schedule) error {
	dir := path.Join(r.root, "schedules")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create schedules directory: %w", err)
	}

	filePath := filepath.Clean(path.Join(dir, schedule.ID+".json"))
	if _, err := os.Stat(filePath); err == nil {
		return persistence.NewScheduleError("Save", schedule.ID, persistence.ErrScheduleAlreadyExists)
	}

	return r.write(filePath, schedule)
}

func (r *ScheduleRepository) Update(_ context.Context, schedule *models.Schedule) error {
	filePath := filepath.Clean(path.Join(r.root, "schedules", schedule.ID+".json"))
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return persistence.NewScheduleError("Update", schedule.ID, persistence.ErrScheduleNotFound)
		}

		return fmt.Errorf("failed to stat schedule file: %w", err)
	}

	return r.write(filePath, schedule)
}

func (r *ScheduleRepository) write(filePath string, schedule *models.Schedule) error {
	data, err := json.MarshalIndent(schedule, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write schedule file: %w", err)
	}

	return nil
}

func (r *ScheduleRepository) GetByID(_ context.Context, id string) (*models.Schedule, error) {
	filePath := filepath.Clean(path.Join(r.root, "schedules", id+".json"))

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read schedule file: %w", err)
	}

	var schedule models.Schedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schedule %s: %w", id, err)
	}

	return &schedule, nil
}

func (r *ScheduleRepository) GetAll(ctx context.Context) ([]*models.Schedule, error) {
	files, err := fs.Glob(os.DirFS(path.Join(r.root, "schedules")), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule files: %w", err)
	}

	schedules := make([]*models.Schedule, 0, len(files))

	for _, file := range files {
		schedule, err := r.GetByID(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		if schedule != nil {
			schedules = append(schedules, schedule)
		}
	}

	sortSchedules(schedules)

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

func (r *ScheduleRepository) Delete(_ context.Context, id string) error {
	filePath := filepath.Clean(path.Join(r.root, "schedules", id+".json"))

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return persistence.NewScheduleError("Delete", id, persistence.ErrScheduleNotFound)
		}

		return fmt.Errorf("failed to delete schedule file: %w", err)
	}

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
