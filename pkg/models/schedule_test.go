package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedule_ValidCronExpression(t *testing.T) {
	testCases := []struct {
		name           string
		cronExpression string
	}{
		{name: "every minute", cronExpression: "* * * * *"},
		{name: "every 5 minutes", cronExpression: "*/5 * * * *"},
		{name: "daily at midnight", cronExpression: "0 0 * * *"},
		{name: "weekly on monday at 9am", cronExpression: "0 9 * * 1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			beforeTime := time.Now().UTC()
			schedule, err := NewSchedule("sched-1", "def-1", tc.cronExpression)

			require.NoError(t, err)
			require.NotNil(t, schedule)

			assert.Equal(t, "sched-1", schedule.ID)
			assert.Equal(t, "def-1", schedule.DefinitionID)
			assert.Equal(t, tc.cronExpression, schedule.CronExpression)
			assert.True(t, schedule.Active)
			assert.False(t, schedule.CreatedAt.Before(beforeTime))
			assert.True(t, schedule.NextDueAt.After(beforeTime))
		})
	}
}

func TestNewSchedule_InvalidCronExpression(t *testing.T) {
	testCases := []struct {
		name           string
		cronExpression string
	}{
		{name: "empty", cronExpression: ""},
		{name: "too few fields", cronExpression: "* * *"},
		{name: "nonsense", cronExpression: "not a cron"},
		{name: "out of range minute", cronExpression: "99 * * * *"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			schedule, err := NewSchedule("sched-1", "def-1", tc.cronExpression)

			require.Error(t, err)
			assert.Nil(t, schedule)
		})
	}
}

func TestSchedule_IsDue(t *testing.T) {
	now := time.Now().UTC()

	schedule := &Schedule{Active: true, NextDueAt: now.Add(-time.Minute)}
	assert.True(t, schedule.IsDue(now))

	schedule.NextDueAt = now.Add(time.Minute)
	assert.False(t, schedule.IsDue(now))

	schedule.Active = false
	schedule.NextDueAt = now.Add(-time.Minute)
	assert.False(t, schedule.IsDue(now), "inactive schedules are never due")
}

func TestSchedule_UpdateNextDueAt(t *testing.T) {
	schedule, err := NewSchedule("sched-1", "def-1", "* * * * *")
	require.NoError(t, err)

	first := schedule.NextDueAt

	require.NoError(t, schedule.UpdateNextDueAt())
	assert.False(t, schedule.NextDueAt.Before(first))
}

func TestSchedule_Validate(t *testing.T) {
	valid := &Schedule{ID: "sched-1", DefinitionID: "def-1", CronExpression: "* * * * *"}
	require.NoError(t, valid.Validate())

	missing := &Schedule{CronExpression: "* * * * *"}
	assert.ErrorIs(t, missing.Validate(), ErrInvalidSchedule)

	badExpr := &Schedule{ID: "sched-1", DefinitionID: "def-1", CronExpression: "bad"}
	assert.Error(t, badExpr.Validate())
}
