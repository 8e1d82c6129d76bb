package scheduling_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

func newTask() *scheduling.CropTask {
	return scheduling.NewCropTask("crop-1", "pea", scheduling.TaskTypeEndStage, stage.CodeGermination, start, start, nil)
}

func TestCropTask_TriggerIsIdempotent(t *testing.T) {
	// Arrange
	task := newTask()
	first := start.Add(time.Hour)

	// Act
	changed1, err1 := task.Trigger(first)
	changed2, err2 := task.Trigger(first.Add(time.Hour))

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.True(t, changed1)
	assert.False(t, changed2)
	assert.Equal(t, scheduling.TaskStatusTriggered, task.Status())
	assert.Equal(t, first, *task.TriggeredAt())
}

func TestCropTask_DismissedCannotBeTriggered(t *testing.T) {
	task := newTask()
	_, err := task.Dismiss(start, "crop advanced")
	require.NoError(t, err)

	_, err = task.Trigger(start)

	var invalid *scheduling.ErrInvalidTaskTransition
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, scheduling.TaskStatusDismissed, invalid.From)
	assert.Equal(t, "crop advanced", task.Details()["dismiss_reason"])
}

func TestCropTask_MarkError(t *testing.T) {
	task := newTask()

	changed, err := task.MarkError("notifier unreachable")

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, scheduling.TaskStatusError, task.Status())
	assert.Equal(t, "notifier unreachable", task.Details()["error"])

	_, err = task.Trigger(start)
	assert.Error(t, err)
}

func TestCropTask_IsDue(t *testing.T) {
	task := newTask()

	assert.True(t, task.IsDue(start))
	assert.False(t, task.IsDue(start.Add(-time.Minute)))

	_, _ = task.Trigger(start)
	assert.False(t, task.IsDue(start.Add(time.Hour)))
}
