package steps

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cucumber/godog"

	lifecycleCommands "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/commands"
	lifecycleQueries "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/queries"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// ============================================================================
// Batch Steps
// ============================================================================

func (gc *greenhouseContext) aBatchOfTraysIsCreated(name string, trays int, recipeID string, h int) error {
	at := hour(h)
	resp, err := gc.send(&lifecycleCommands.CreateBatchCommand{
		RecipeID:  recipeID,
		TrayCount: trays,
		At:        &at,
		Actor:     "grower",
	})
	if err != nil {
		gc.lastErr = err
		return nil
	}

	batch := resp.(*lifecycleCommands.CreateBatchResponse)
	gc.batches[name] = batch
	for i, id := range batch.CropIDs {
		gc.crops[fmt.Sprintf("%s-%d", name, i+1)] = id
	}
	return nil
}

func (gc *greenhouseContext) everyCropOfBatchShouldBeInStage(name, code string) error {
	batch, ok := gc.batches[name]
	if !ok {
		return fmt.Errorf("batch %s was not created (last error: %v)", name, gc.lastErr)
	}
	for i := range batch.CropIDs {
		if err := gc.cropShouldBeInStage(fmt.Sprintf("%s-%d", name, i+1), code); err != nil {
			return err
		}
	}
	return nil
}

func (gc *greenhouseContext) cropShouldBeInStage(alias, code string) error {
	c, err := gc.findCrop(alias)
	if err != nil {
		return err
	}
	if c.CurrentStage() != stage.Code(code) {
		return fmt.Errorf("expected crop %s in stage %s, got %s", alias, code, c.CurrentStage())
	}
	return nil
}

func (gc *greenhouseContext) cropShouldHaveEnteredStageAtHour(alias, code string, h int) error {
	c, err := gc.findCrop(alias)
	if err != nil {
		return err
	}
	at := c.Timestamps().Get(stage.Code(code))
	if at == nil {
		return fmt.Errorf("crop %s has no %s timestamp", alias, code)
	}
	if !at.Equal(hour(h)) {
		return fmt.Errorf("expected crop %s to have entered %s at %s, got %s", alias, code, hour(h), at)
	}
	return nil
}

func (gc *greenhouseContext) cropShouldHaveNoTimestampFor(alias, code string) error {
	c, err := gc.findCrop(alias)
	if err != nil {
		return err
	}
	if at := c.Timestamps().Get(stage.Code(code)); at != nil {
		return fmt.Errorf("expected crop %s to have no %s timestamp, got %s", alias, code, at)
	}
	return nil
}

func (gc *greenhouseContext) batchCreationShouldFailWith(fragment string) error {
	if gc.lastErr == nil {
		return fmt.Errorf("expected batch creation to fail")
	}
	if !strings.Contains(gc.lastErr.Error(), fragment) {
		return fmt.Errorf("expected error containing %q, got %v", fragment, gc.lastErr)
	}
	return nil
}

// ============================================================================
// Transition Steps
// ============================================================================

func (gc *greenhouseContext) recordTransition(resp interface{}, err error) error {
	if err != nil {
		gc.lastErr = err
		gc.lastResult = nil
		return nil
	}
	gc.lastResult = resp.(*lifecycleCommands.TransitionResponse).Result
	return nil
}

func (gc *greenhouseContext) cropsAreAdvancedAtHour(aliases string, h int) error {
	at := hour(h)
	return gc.recordTransition(gc.send(&lifecycleCommands.AdvanceCropsCommand{
		CropIDs: gc.cropIDs(aliases),
		At:      &at,
		Actor:   "grower",
	}))
}

func (gc *greenhouseContext) cropsAreRevertedAtHourBecause(aliases string, h int, reason string) error {
	at := hour(h)
	return gc.recordTransition(gc.send(&lifecycleCommands.RevertCropsCommand{
		CropIDs: gc.cropIDs(aliases),
		Reason:  reason,
		At:      &at,
		Actor:   "grower",
	}))
}

func (gc *greenhouseContext) cropsAreRevertedAtHourWithoutAReason(aliases string, h int) error {
	return gc.cropsAreRevertedAtHourBecause(aliases, h, "")
}

func (gc *greenhouseContext) cropsOfBatchInStageAreBulkAdvancedAtHour(name, code string, h int) error {
	batch, ok := gc.batches[name]
	if !ok {
		return fmt.Errorf("unknown batch %s", name)
	}
	at := hour(h)
	return gc.recordTransition(gc.send(&lifecycleCommands.BulkAdvanceCommand{
		BatchID:   batch.BatchID,
		StageCode: code,
		At:        &at,
		Actor:     "grower",
	}))
}

func (gc *greenhouseContext) cropsOfBatchInStageAreBulkRevertedAtHour(name, code string, h int, reason string) error {
	batch, ok := gc.batches[name]
	if !ok {
		return fmt.Errorf("unknown batch %s", name)
	}
	at := hour(h)
	return gc.recordTransition(gc.send(&lifecycleCommands.BulkRevertCommand{
		BatchID:   batch.BatchID,
		StageCode: code,
		Reason:    reason,
		At:        &at,
		Actor:     "grower",
	}))
}

func (gc *greenhouseContext) everyCropOfBatchIsBulkAdvancedAtHour(name string, h int) error {
	return gc.cropsOfBatchInStageAreBulkAdvancedAtHour(name, "", h)
}

// callersAdvanceCropAtTheSameTime races several advances that all expect the crop in code
func (gc *greenhouseContext) callersAdvanceCropAtTheSameTime(callers int, alias, code string, h int) error {
	at := hour(h)
	id := gc.cropID(alias)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	gc.raceResults = nil
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := gc.send(&lifecycleCommands.AdvanceCropsCommand{
				CropIDs:       []string{id},
				At:            &at,
				Actor:         "grower",
				ExpectedStage: code,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			gc.raceResults = append(gc.raceResults, resp.(*lifecycleCommands.TransitionResponse).Result)
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("concurrent advance failed: %v", errs[0])
	}
	return nil
}

func (gc *greenhouseContext) exactlyCallersShouldHaveSucceeded(want int) error {
	succeeded := 0
	for _, r := range gc.raceResults {
		succeeded += r.SucceededCount
	}
	if succeeded != want {
		return fmt.Errorf("expected %d successful callers, got %d", want, succeeded)
	}
	return nil
}

func (gc *greenhouseContext) theOtherCallersShouldHaveFailedWith(reason string) error {
	for _, r := range gc.raceResults {
		for _, f := range r.FailedCrops {
			if string(f.Reason) != reason {
				return fmt.Errorf("expected losing callers to fail with %s, got %s", reason, f.Reason)
			}
		}
	}
	return nil
}

func (gc *greenhouseContext) theCallShouldReportSucceededAndFailed(succeeded, failed int) error {
	if gc.lastResult == nil {
		return fmt.Errorf("no transition result (last error: %v)", gc.lastErr)
	}
	if gc.lastResult.SucceededCount != succeeded || gc.lastResult.FailedCount != failed {
		return fmt.Errorf("expected %d succeeded and %d failed, got %d and %d",
			succeeded, failed, gc.lastResult.SucceededCount, gc.lastResult.FailedCount)
	}
	return nil
}

func (gc *greenhouseContext) cropShouldHaveFailedWith(alias, reason string) error {
	if gc.lastResult == nil {
		return fmt.Errorf("no transition result (last error: %v)", gc.lastErr)
	}
	id := gc.cropID(alias)
	for _, f := range gc.lastResult.FailedCrops {
		if f.CropID == id {
			if string(f.Reason) != reason {
				return fmt.Errorf("expected crop %s to fail with %s, got %s", alias, reason, f.Reason)
			}
			return nil
		}
	}
	return fmt.Errorf("crop %s did not fail", alias)
}

// ============================================================================
// History Steps
// ============================================================================

func (gc *greenhouseContext) cropShouldHaveClosedAndOpenHistoryRows(alias string, closed, open int) error {
	history, err := gc.repos.CropRepo.FindHistory(context.Background(), gc.cropID(alias))
	if err != nil {
		return err
	}
	gotClosed, gotOpen := 0, 0
	for _, h := range history {
		if h.IsOpen() {
			gotOpen++
		} else {
			gotClosed++
		}
	}
	if gotClosed != closed || gotOpen != open {
		return fmt.Errorf("expected crop %s to have %d closed and %d open history rows, got %d and %d",
			alias, closed, open, gotClosed, gotOpen)
	}
	return nil
}

func (gc *greenhouseContext) cropShouldBeAtVersion(alias string, version int) error {
	c, err := gc.findCrop(alias)
	if err != nil {
		return err
	}
	if c.Version() != version {
		return fmt.Errorf("expected crop %s at version %d, got %d", alias, version, c.Version())
	}
	return nil
}

// ============================================================================
// Audit Steps
// ============================================================================

func (gc *greenhouseContext) auditRows() ([]lifecycleQueries.TransitionDTO, error) {
	resp, err := gc.send(&lifecycleQueries.ListTransitionsQuery{Limit: 100})
	if err != nil {
		return nil, err
	}
	return resp.(*lifecycleQueries.ListTransitionsResponse).Transitions, nil
}

func (gc *greenhouseContext) theAuditLogShouldHoldRows(count int) error {
	rows, err := gc.auditRows()
	if err != nil {
		return err
	}
	if len(rows) != count {
		return fmt.Errorf("expected %d audit rows, got %d", count, len(rows))
	}
	return nil
}

func (gc *greenhouseContext) theLatestAuditRowShouldBe(transitionType string, crops, failed int) error {
	rows, err := gc.auditRows()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("audit log is empty")
	}
	latest := rows[0]
	if latest.Type != transitionType || latest.CropCount != crops || latest.FailedCount != failed {
		return fmt.Errorf("expected %s of %d crops with %d failed, got %s of %d crops with %d failed",
			transitionType, crops, failed, latest.Type, latest.CropCount, latest.FailedCount)
	}
	if len(latest.FailedCrops) != failed {
		return fmt.Errorf("expected %d failed crop entries, got %d", failed, len(latest.FailedCrops))
	}
	return nil
}

func (gc *greenhouseContext) theLatestAuditRowShouldRecordReason(reason string) error {
	rows, err := gc.auditRows()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("audit log is empty")
	}
	if rows[0].Reason == nil || *rows[0].Reason != reason {
		return fmt.Errorf("expected reason %q, got %v", reason, rows[0].Reason)
	}
	return nil
}

func registerTransitionSteps(sc *godog.ScenarioContext, gc *greenhouseContext) {
	sc.Step(`^a batch "([^"]*)" of (\d+) "([^"]*)" trays? (?:is )?created at hour (\d+)$`, gc.aBatchOfTraysIsCreated)
	sc.Step(`^every crop of batch "([^"]*)" should be in stage "([^"]*)"$`, gc.everyCropOfBatchShouldBeInStage)
	sc.Step(`^crop "([^"]*)" should be in stage "([^"]*)"$`, gc.cropShouldBeInStage)
	sc.Step(`^crop "([^"]*)" should have entered "([^"]*)" at hour (\d+)$`, gc.cropShouldHaveEnteredStageAtHour)
	sc.Step(`^crop "([^"]*)" should have no "([^"]*)" timestamp$`, gc.cropShouldHaveNoTimestampFor)
	sc.Step(`^batch creation should fail with "([^"]*)"$`, gc.batchCreationShouldFailWith)

	sc.Step(`^crops? "([^"]*)" (?:is|are) advanced at hour (\d+)$`, gc.cropsAreAdvancedAtHour)
	sc.Step(`^crops? "([^"]*)" (?:is|are) reverted at hour (\d+) because "([^"]*)"$`, gc.cropsAreRevertedAtHourBecause)
	sc.Step(`^crops? "([^"]*)" (?:is|are) reverted at hour (\d+) without a reason$`, gc.cropsAreRevertedAtHourWithoutAReason)
	sc.Step(`^the crops of batch "([^"]*)" in stage "([^"]*)" are bulk advanced at hour (\d+)$`, gc.cropsOfBatchInStageAreBulkAdvancedAtHour)
	sc.Step(`^the crops of batch "([^"]*)" in stage "([^"]*)" are bulk reverted at hour (\d+) because "([^"]*)"$`, gc.cropsOfBatchInStageAreBulkRevertedAtHour)
	sc.Step(`^every crop of batch "([^"]*)" is bulk advanced at hour (\d+)$`, gc.everyCropOfBatchIsBulkAdvancedAtHour)
	sc.Step(`^(\d+) callers advance crop "([^"]*)" out of "([^"]*)" at hour (\d+) at the same time$`, gc.callersAdvanceCropAtTheSameTime)
	sc.Step(`^exactly (\d+) of the callers should have succeeded$`, gc.exactlyCallersShouldHaveSucceeded)
	sc.Step(`^the other callers should have failed with "([^"]*)"$`, gc.theOtherCallersShouldHaveFailedWith)
	sc.Step(`^the call should report (\d+) succeeded and (\d+) failed$`, gc.theCallShouldReportSucceededAndFailed)
	sc.Step(`^crop "([^"]*)" should have failed with "([^"]*)"$`, gc.cropShouldHaveFailedWith)

	sc.Step(`^crop "([^"]*)" should have (\d+) closed history rows? and (\d+) open$`, gc.cropShouldHaveClosedAndOpenHistoryRows)
	sc.Step(`^crop "([^"]*)" should be at version (\d+)$`, gc.cropShouldBeAtVersion)

	sc.Step(`^the audit log should hold (\d+) rows?$`, gc.theAuditLogShouldHoldRows)
	sc.Step(`^the latest audit row should be a "([^"]*)" of (\d+) crops? with (\d+) failed$`, gc.theLatestAuditRowShouldBe)
	sc.Step(`^the latest audit row should record reason "([^"]*)"$`, gc.theLatestAuditRowShouldRecordReason)
}
