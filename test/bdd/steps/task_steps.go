package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	schedulingCommands "github.com/andrescamacho/microgreens-go/internal/application/scheduling/commands"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

func (gc *greenhouseContext) tasksOf(alias string) ([]*scheduling.CropTask, error) {
	return gc.repos.TaskRepo.FindByCrop(context.Background(), gc.cropID(alias))
}

func (gc *greenhouseContext) findTask(alias, taskType, code string, status scheduling.TaskStatus) (*scheduling.CropTask, error) {
	tasks, err := gc.tasksOf(alias)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if string(t.TaskType()) == taskType && t.Stage() == stage.Code(code) && t.Status() == status {
			return t, nil
		}
	}
	return nil, nil
}

// ============================================================================
// Task Assertions
// ============================================================================

func (gc *greenhouseContext) cropShouldHaveAPendingTaskDueAtHour(alias, taskType, code string, h int) error {
	t, err := gc.findTask(alias, taskType, code, scheduling.TaskStatusPending)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("crop %s has no pending %s task for %s", alias, taskType, code)
	}
	if !t.ScheduledAt().Equal(hour(h)) {
		return fmt.Errorf("expected %s task for %s due at %s, got %s", taskType, code, hour(h), t.ScheduledAt())
	}
	return nil
}

func (gc *greenhouseContext) cropShouldHaveATaskWithStatus(alias, status, taskType, code string) error {
	t, err := gc.findTask(alias, taskType, code, scheduling.TaskStatus(status))
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("crop %s has no %s %s task for %s", alias, status, taskType, code)
	}
	return nil
}

func (gc *greenhouseContext) cropShouldHaveNoPendingTasksFor(alias, code string) error {
	tasks, err := gc.tasksOf(alias)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if t.IsPending() && t.Stage() == stage.Code(code) {
			return fmt.Errorf("crop %s still has a pending %s task for %s", alias, t.TaskType(), code)
		}
	}
	return nil
}

func (gc *greenhouseContext) cropShouldHaveNoTaskOfType(alias, taskType, code string) error {
	tasks, err := gc.tasksOf(alias)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if string(t.TaskType()) == taskType && t.Stage() == stage.Code(code) {
			return fmt.Errorf("crop %s has an unexpected %s task for %s", alias, taskType, code)
		}
	}
	return nil
}

func (gc *greenhouseContext) cropShouldHaveTasksInTotal(alias string, count int) error {
	tasks, err := gc.tasksOf(alias)
	if err != nil {
		return err
	}
	if len(tasks) != count {
		return fmt.Errorf("expected crop %s to have %d tasks, got %d", alias, count, len(tasks))
	}
	return nil
}

// ============================================================================
// Task Actions
// ============================================================================

func (gc *greenhouseContext) thePendingTaskOfCropIsTriggeredAtHour(taskType, alias string, h int) error {
	tasks, err := gc.tasksOf(alias)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if string(t.TaskType()) == taskType && t.IsPending() {
			gc.lastTask = t.ID()
			return gc.theSameTaskIsTriggeredAgainAtHour(h)
		}
	}
	return fmt.Errorf("crop %s has no pending %s task", alias, taskType)
}

func (gc *greenhouseContext) theSameTaskIsTriggeredAgainAtHour(h int) error {
	at := hour(h)
	resp, err := gc.send(&schedulingCommands.TriggerTaskCommand{TaskID: gc.lastTask, At: &at})
	if err != nil {
		gc.lastErr = err
		gc.lastTaskResp = nil
		return nil
	}
	gc.lastTaskResp = resp.(*schedulingCommands.TaskStatusResponse)
	return nil
}

func (gc *greenhouseContext) thePendingTaskOfCropIsDismissedBecause(taskType, alias, reason string) error {
	tasks, err := gc.tasksOf(alias)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if string(t.TaskType()) == taskType && t.IsPending() {
			gc.lastTask = t.ID()
			resp, err := gc.send(&schedulingCommands.DismissTaskCommand{TaskID: t.ID(), Reason: reason})
			if err != nil {
				return err
			}
			gc.lastTaskResp = resp.(*schedulingCommands.TaskStatusResponse)
			return nil
		}
	}
	return fmt.Errorf("crop %s has no pending %s task", alias, taskType)
}

func (gc *greenhouseContext) theTriggerShouldHaveChangedTheTask() error {
	if gc.lastTaskResp == nil {
		return fmt.Errorf("no task response (last error: %v)", gc.lastErr)
	}
	if !gc.lastTaskResp.Changed {
		return fmt.Errorf("expected task %s to change, status is %s", gc.lastTaskResp.TaskID, gc.lastTaskResp.Status)
	}
	return nil
}

func (gc *greenhouseContext) theTriggerShouldHaveLeftTheTaskUnchanged() error {
	if gc.lastTaskResp == nil {
		return fmt.Errorf("no task response (last error: %v)", gc.lastErr)
	}
	if gc.lastTaskResp.Changed {
		return fmt.Errorf("expected task %s to be left unchanged", gc.lastTaskResp.TaskID)
	}
	return nil
}

func (gc *greenhouseContext) theTriggerShouldBeRejected() error {
	if gc.lastErr == nil {
		return fmt.Errorf("expected the trigger to be rejected")
	}
	return nil
}

func (gc *greenhouseContext) cropShouldHaveWateringSuspendedAtHour(alias string, h int) error {
	c, err := gc.findCrop(alias)
	if err != nil {
		return err
	}
	if c.WateringSuspendedAt() == nil {
		return fmt.Errorf("crop %s still has watering enabled", alias)
	}
	if !c.WateringSuspendedAt().Equal(hour(h)) {
		return fmt.Errorf("expected watering suspended at %s, got %s", hour(h), c.WateringSuspendedAt())
	}
	return nil
}

// ============================================================================
// Reconciliation
// ============================================================================

func (gc *greenhouseContext) theTasksOfCropAreLost(alias string) error {
	return gc.repos.DB.Exec("DELETE FROM crop_tasks WHERE crop_id = ?", gc.cropID(alias)).Error
}

func (gc *greenhouseContext) taskReconciliationRuns() error {
	resp, err := gc.send(&schedulingCommands.ReconcileTasksCommand{})
	if err != nil {
		return err
	}
	gc.lastReconcile = resp.(*schedulingCommands.ReconcileTasksResponse)
	return nil
}

func (gc *greenhouseContext) reconciliationShouldHaveCreatedTasks(count int) error {
	if gc.lastReconcile == nil {
		return fmt.Errorf("reconciliation has not run")
	}
	if gc.lastReconcile.TasksCreated != count {
		return fmt.Errorf("expected reconciliation to create %d tasks, got %d", count, gc.lastReconcile.TasksCreated)
	}
	return nil
}

func registerTaskSteps(sc *godog.ScenarioContext, gc *greenhouseContext) {
	sc.Step(`^crop "([^"]*)" should have a pending "([^"]*)" task for "([^"]*)" due at hour (\d+)$`, gc.cropShouldHaveAPendingTaskDueAtHour)
	sc.Step(`^crop "([^"]*)" should have a (pending|triggered|dismissed|error) "([^"]*)" task for "([^"]*)"$`, gc.cropShouldHaveATaskWithStatus)
	sc.Step(`^crop "([^"]*)" should have no pending tasks for "([^"]*)"$`, gc.cropShouldHaveNoPendingTasksFor)
	sc.Step(`^crop "([^"]*)" should have no "([^"]*)" task for "([^"]*)"$`, gc.cropShouldHaveNoTaskOfType)
	sc.Step(`^crop "([^"]*)" should have (\d+) tasks? in total$`, gc.cropShouldHaveTasksInTotal)

	sc.Step(`^the pending "([^"]*)" task of crop "([^"]*)" is triggered at hour (\d+)$`, gc.thePendingTaskOfCropIsTriggeredAtHour)
	sc.Step(`^the same task is triggered again at hour (\d+)$`, gc.theSameTaskIsTriggeredAgainAtHour)
	sc.Step(`^the pending "([^"]*)" task of crop "([^"]*)" is dismissed because "([^"]*)"$`, gc.thePendingTaskOfCropIsDismissedBecause)
	sc.Step(`^the task should have changed$`, gc.theTriggerShouldHaveChangedTheTask)
	sc.Step(`^the task should be left unchanged$`, gc.theTriggerShouldHaveLeftTheTaskUnchanged)
	sc.Step(`^the trigger should be rejected$`, gc.theTriggerShouldBeRejected)
	sc.Step(`^crop "([^"]*)" should have watering suspended at hour (\d+)$`, gc.cropShouldHaveWateringSuspendedAtHour)

	sc.Step(`^the tasks of crop "([^"]*)" are lost$`, gc.theTasksOfCropAreLost)
	sc.Step(`^task reconciliation runs$`, gc.taskReconciliationRuns)
	sc.Step(`^reconciliation should have created (\d+) tasks?$`, gc.reconciliationShouldHaveCreatedTasks)
}
