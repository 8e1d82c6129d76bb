package steps

import (
	"fmt"
	"time"

	"github.com/cucumber/godog"

	planningCommands "github.com/andrescamacho/microgreens-go/internal/application/planning/commands"
	planningQueries "github.com/andrescamacho/microgreens-go/internal/application/planning/queries"
	"github.com/andrescamacho/microgreens-go/internal/domain/planning"
)

func (gc *greenhouseContext) theDemandSignalsAreAggregated(table *godog.Table) error {
	var signals []planning.DemandSignal
	for _, record := range tableRecords(table) {
		grams, err := floatCell(record, "grams")
		if err != nil {
			return err
		}
		harvest, err := time.Parse(time.RFC3339, record["harvest_at"])
		if err != nil {
			return fmt.Errorf("order %s: %w", record["order"], err)
		}
		signals = append(signals, planning.DemandSignal{
			OrderID:       record["order"],
			VarietyID:     record["variety"],
			QuantityGrams: grams,
			HarvestDate:   harvest,
		})
	}

	resp, err := gc.send(&planningCommands.AggregateDemandCommand{Signals: signals})
	if err != nil {
		gc.lastErr = err
		gc.lastDemand = nil
		return nil
	}
	gc.lastDemand = resp.(*planningCommands.AggregateDemandResponse)
	return nil
}

func (gc *greenhouseContext) planFor(variety, harvestDate string) (*planningQueries.PlanDTO, error) {
	if gc.lastDemand == nil {
		return nil, fmt.Errorf("demand was not aggregated (last error: %v)", gc.lastErr)
	}
	for i := range gc.lastDemand.Plans {
		p := &gc.lastDemand.Plans[i]
		if p.VarietyID == variety && p.HarvestDate == harvestDate {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no plan for %s harvesting %s", variety, harvestDate)
}

func (gc *greenhouseContext) plansShouldBeDrafted(count int) error {
	if gc.lastDemand == nil {
		return fmt.Errorf("demand was not aggregated (last error: %v)", gc.lastErr)
	}
	if len(gc.lastDemand.Plans) != count {
		return fmt.Errorf("expected %d plans, got %d", count, len(gc.lastDemand.Plans))
	}
	return nil
}

func (gc *greenhouseContext) thePlanShouldNeedTraysPlantedOn(variety, harvestDate string, trays int, plantDate string) error {
	p, err := gc.planFor(variety, harvestDate)
	if err != nil {
		return err
	}
	if p.TotalTraysNeeded != trays {
		return fmt.Errorf("expected %d trays, got %d", trays, p.TotalTraysNeeded)
	}
	if p.PlantDate != plantDate {
		return fmt.Errorf("expected plant date %s, got %s", plantDate, p.PlantDate)
	}
	return nil
}

func (gc *greenhouseContext) thePlanShouldTotalGrams(variety, harvestDate string, grams float64) error {
	p, err := gc.planFor(variety, harvestDate)
	if err != nil {
		return err
	}
	if p.TotalGramsNeeded != grams {
		return fmt.Errorf("expected %.0fg, got %.0fg", grams, p.TotalGramsNeeded)
	}
	return nil
}

func (gc *greenhouseContext) thePlanShouldSoakSeedOn(variety, harvestDate, soakDate string) error {
	p, err := gc.planFor(variety, harvestDate)
	if err != nil {
		return err
	}
	if p.SeedSoakDate == nil || *p.SeedSoakDate != soakDate {
		return fmt.Errorf("expected seed soak date %s, got %v", soakDate, p.SeedSoakDate)
	}
	return nil
}

func (gc *greenhouseContext) thePlanShouldNotSoakSeed(variety, harvestDate string) error {
	p, err := gc.planFor(variety, harvestDate)
	if err != nil {
		return err
	}
	if p.SeedSoakDate != nil {
		return fmt.Errorf("expected no seed soak date, got %s", *p.SeedSoakDate)
	}
	return nil
}

func (gc *greenhouseContext) thePlanIsMovedTo(variety, harvestDate, status string) error {
	p, err := gc.planFor(variety, harvestDate)
	if err != nil {
		return err
	}
	_, err = gc.send(&planningCommands.UpdatePlanStatusCommand{PlanID: p.ID, Status: status})
	return err
}

func (gc *greenhouseContext) theGroupShouldBeRejected(variety, harvestDate string) error {
	if gc.lastDemand == nil {
		return fmt.Errorf("demand was not aggregated (last error: %v)", gc.lastErr)
	}
	for _, r := range gc.lastDemand.Rejected {
		if r.VarietyID == variety && r.HarvestDate == harvestDate {
			return nil
		}
	}
	return fmt.Errorf("group %s harvesting %s was not rejected", variety, harvestDate)
}

func registerDemandSteps(sc *godog.ScenarioContext, gc *greenhouseContext) {
	sc.Step(`^the demand signals are aggregated:$`, gc.theDemandSignalsAreAggregated)
	sc.Step(`^(\d+) plans? should be drafted$`, gc.plansShouldBeDrafted)
	sc.Step(`^the "([^"]*)" plan harvesting "([^"]*)" should need (\d+) trays? planted on "([^"]*)"$`, gc.thePlanShouldNeedTraysPlantedOn)
	sc.Step(`^the "([^"]*)" plan harvesting "([^"]*)" should total (\d+) grams$`, gc.thePlanShouldTotalGrams)
	sc.Step(`^the "([^"]*)" plan harvesting "([^"]*)" should soak seed on "([^"]*)"$`, gc.thePlanShouldSoakSeedOn)
	sc.Step(`^the "([^"]*)" plan harvesting "([^"]*)" should not soak seed$`, gc.thePlanShouldNotSoakSeed)
	sc.Step(`^the "([^"]*)" plan harvesting "([^"]*)" is moved to "([^"]*)"$`, gc.thePlanIsMovedTo)
	sc.Step(`^the "([^"]*)" group harvesting "([^"]*)" should be rejected$`, gc.theGroupShouldBeRejected)
}
