package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/cucumber/messages/go/v21"

	lifecycleCommands "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/commands"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	planningCommands "github.com/andrescamacho/microgreens-go/internal/application/planning/commands"
	schedulingCommands "github.com/andrescamacho/microgreens-go/internal/application/scheduling/commands"
	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/test/helpers"
)

// scenarioStart is hour 0 of every scenario
var scenarioStart = time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC)

// greenhouseContext holds state for lifecycle, task and demand scenarios
type greenhouseContext struct {
	repos *helpers.TestRepositories

	batches map[string]*lifecycleCommands.CreateBatchResponse
	crops   map[string]string // alias -> crop id

	lastResult    *lifecycle.Result
	raceResults   []*lifecycle.Result
	lastTask      string
	lastTaskResp  *schedulingCommands.TaskStatusResponse
	lastReconcile *schedulingCommands.ReconcileTasksResponse
	lastDemand    *planningCommands.AggregateDemandResponse
	lastErr       error
}

func (gc *greenhouseContext) reset() error {
	if err := helpers.TruncateAllTables(); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}

	repos, err := helpers.NewTestRepositories(helpers.SharedTestDB, scenarioStart, lifecycleCommands.DefaultSettings())
	if err != nil {
		return fmt.Errorf("failed to wire repositories: %w", err)
	}

	gc.repos = repos
	gc.batches = make(map[string]*lifecycleCommands.CreateBatchResponse)
	gc.crops = make(map[string]string)
	gc.lastResult = nil
	gc.raceResults = nil
	gc.lastTask = ""
	gc.lastTaskResp = nil
	gc.lastReconcile = nil
	gc.lastDemand = nil
	gc.lastErr = nil
	return nil
}

func (gc *greenhouseContext) send(request mediator.Request) (mediator.Response, error) {
	return gc.repos.Send(request)
}

// ============================================================================
// Shared helpers
// ============================================================================

func hour(h int) time.Time {
	return scenarioStart.Add(time.Duration(h) * time.Hour)
}

// cropID resolves an alias such as "A-1"; unknown aliases are passed through
// so scenarios can name crops that do not exist
func (gc *greenhouseContext) cropID(alias string) string {
	if id, ok := gc.crops[alias]; ok {
		return id
	}
	return alias
}

func (gc *greenhouseContext) cropIDs(aliases string) []string {
	var ids []string
	for _, alias := range strings.Split(aliases, ",") {
		alias = strings.TrimSpace(alias)
		if alias != "" {
			ids = append(ids, gc.cropID(alias))
		}
	}
	return ids
}

func (gc *greenhouseContext) findCrop(alias string) (*crop.Crop, error) {
	return gc.repos.CropRepo.FindCrop(context.Background(), gc.cropID(alias))
}

// tableRecords turns a table with a header row into one map per data row
func tableRecords(table *godog.Table) []map[string]string {
	if len(table.Rows) == 0 {
		return nil
	}
	header := table.Rows[0]
	records := make([]map[string]string, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		records = append(records, rowRecord(header, row))
	}
	return records
}

func rowRecord(header, row *messages.PickleTableRow) map[string]string {
	record := make(map[string]string, len(header.Cells))
	for i, cell := range header.Cells {
		if i < len(row.Cells) {
			record[cell.Value] = strings.TrimSpace(row.Cells[i].Value)
		}
	}
	return record
}

func floatCell(record map[string]string, column string) (float64, error) {
	value := record[column]
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", column, err)
	}
	return f, nil
}

// daysCell leaves a blank duration unset
func daysCell(record map[string]string, column string) (*float64, error) {
	if record[column] == "" {
		return nil, nil
	}
	f, err := floatCell(record, column)
	if err != nil {
		return nil, err
	}
	return recipe.Days(f), nil
}

// ============================================================================
// Recipe Steps
// ============================================================================

func (gc *greenhouseContext) theRecipes(table *godog.Table) error {
	for _, record := range tableRecords(table) {
		params, err := recipeParameters(record)
		if err != nil {
			return fmt.Errorf("recipe %s: %w", record["recipe"], err)
		}
		if _, err := gc.repos.SeedRecipe(record["recipe"], record["variety"], params); err != nil {
			return fmt.Errorf("failed to seed recipe %s: %w", record["recipe"], err)
		}
	}
	return nil
}

func recipeParameters(record map[string]string) (recipe.Parameters, error) {
	var (
		p   recipe.Parameters
		err error
	)
	if p.SeedSoakHours, err = floatCell(record, "soak_hours"); err != nil {
		return p, err
	}
	if p.GerminationDays, err = daysCell(record, "germination_days"); err != nil {
		return p, err
	}
	if p.BlackoutDays, err = daysCell(record, "blackout_days"); err != nil {
		return p, err
	}
	if p.LightDays, err = daysCell(record, "light_days"); err != nil {
		return p, err
	}
	if p.DaysToMaturity, err = daysCell(record, "maturity_days"); err != nil {
		return p, err
	}
	if p.ExpectedYieldGrams, err = floatCell(record, "grams_per_tray"); err != nil {
		return p, err
	}
	if p.BufferPercentage, err = floatCell(record, "buffer_percent"); err != nil {
		return p, err
	}
	if p.SuspendWaterHours, err = floatCell(record, "suspend_water_hours"); err != nil {
		return p, err
	}
	return p, nil
}

// InitializeGreenhouseScenario registers every greenhouse step definition
func InitializeGreenhouseScenario(sc *godog.ScenarioContext) {
	gc := &greenhouseContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, gc.reset()
	})

	sc.Step(`^the recipes:$`, gc.theRecipes)

	registerTransitionSteps(sc, gc)
	registerTaskSteps(sc, gc)
	registerDemandSteps(sc, gc)
}
