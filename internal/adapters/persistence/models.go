package persistence

import (
	"time"
)

// StageModel represents the crop_stages table
type StageModel struct {
	ID        int    `gorm:"column:id;primaryKey"`
	Code      string `gorm:"column:code;uniqueIndex;not null"`
	Name      string `gorm:"column:name;not null"`
	SortOrder int    `gorm:"column:sort_order;not null"`
	IsActive  bool   `gorm:"column:is_active;not null;default:true"`
}

func (StageModel) TableName() string {
	return "crop_stages"
}

// RecipeModel represents the recipes table (read model of the catalog)
type RecipeModel struct {
	ID                 string    `gorm:"column:id;primaryKey"`
	VarietyID          string    `gorm:"column:variety_id;index;not null"`
	Name               string    `gorm:"column:name"`
	SeedSoakHours      float64   `gorm:"column:seed_soak_hours;not null;default:0"`
	GerminationDays    *float64  `gorm:"column:germination_days"`
	BlackoutDays       *float64  `gorm:"column:blackout_days"`
	LightDays          *float64  `gorm:"column:light_days"`
	DaysToMaturity     *float64  `gorm:"column:days_to_maturity"`
	ExpectedYieldGrams float64   `gorm:"column:expected_yield_grams;not null;default:0"`
	BufferPercentage   float64   `gorm:"column:buffer_percentage;not null;default:0"`
	SuspendWaterHours  float64   `gorm:"column:suspend_water_hours;not null;default:0"`
	SeedLotDepleted    bool      `gorm:"column:seed_lot_depleted;not null;default:false"`
	IsActive           bool      `gorm:"column:is_active;not null;default:true"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (RecipeModel) TableName() string {
	return "recipes"
}

// BatchModel represents the crop_batches table
type BatchModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	RecipeID   string    `gorm:"column:recipe_id;index;not null"`
	OrderID    *string   `gorm:"column:order_id"`
	CropPlanID *string   `gorm:"column:crop_plan_id;index"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (BatchModel) TableName() string {
	return "crop_batches"
}

// CropModel represents the crops table.
// One timestamp column per canonical stage; version guards concurrent writers.
type CropModel struct {
	ID                  string     `gorm:"column:id;primaryKey"`
	BatchID             *string    `gorm:"column:batch_id;index"`
	RecipeID            string     `gorm:"column:recipe_id;not null"`
	TrayNumber          int        `gorm:"column:tray_number;not null"`
	CurrentStageID      int        `gorm:"column:current_stage_id;index;not null"`
	SoakingAt           *time.Time `gorm:"column:soaking_at"`
	GerminationAt       *time.Time `gorm:"column:germination_at"`
	BlackoutAt          *time.Time `gorm:"column:blackout_at"`
	LightAt             *time.Time `gorm:"column:light_at"`
	HarvestedAt         *time.Time `gorm:"column:harvested_at"`
	WateringSuspendedAt *time.Time `gorm:"column:watering_suspended_at"`
	Notes               string     `gorm:"column:notes;type:text"`
	Version             int        `gorm:"column:version;not null;default:1"`
	CreatedAt           time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
}

func (CropModel) TableName() string {
	return "crops"
}

// CropStageHistoryModel represents the crop_stage_history table.
// Rows are written once and only ever updated to set exited_at.
type CropStageHistoryModel struct {
	ID        string     `gorm:"column:id;primaryKey"`
	CropID    string     `gorm:"column:crop_id;index;not null"`
	BatchID   *string    `gorm:"column:batch_id;index"`
	StageID   int        `gorm:"column:stage_id;not null"`
	EnteredAt time.Time  `gorm:"column:entered_at;not null"`
	ExitedAt  *time.Time `gorm:"column:exited_at"`
	Notes     string     `gorm:"column:notes;type:text"`
	CreatedBy string     `gorm:"column:created_by"`
	CreatedAt time.Time  `gorm:"column:created_at;not null"`
}

func (CropStageHistoryModel) TableName() string {
	return "crop_stage_history"
}

// CropStageTransitionModel represents the crop_stage_transitions audit table
type CropStageTransitionModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	TransitionType string    `gorm:"column:transition_type;not null"`
	BatchID        *string   `gorm:"column:batch_id;index"`
	CropCount      int       `gorm:"column:crop_count;not null"`
	FromStageID    *int      `gorm:"column:from_stage_id"`
	ToStageID      *int      `gorm:"column:to_stage_id"`
	TransitionAt   time.Time `gorm:"column:transition_at;not null"`
	RecordedAt     time.Time `gorm:"column:recorded_at;index;not null"`
	UserID         *string   `gorm:"column:user_id"`
	Reason         *string   `gorm:"column:reason;type:text"`
	SucceededCount int       `gorm:"column:succeeded_count;not null"`
	FailedCount    int       `gorm:"column:failed_count;not null"`
	FailedCrops    string    `gorm:"column:failed_crops;type:text"` // JSON array as text
	Metadata       string    `gorm:"column:metadata;type:text"`     // JSON as text
}

func (CropStageTransitionModel) TableName() string {
	return "crop_stage_transitions"
}

// CropTaskModel represents the crop_tasks table.
// The unique index makes scheduling the same task twice a no-op.
type CropTaskModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	CropID      string     `gorm:"column:crop_id;not null;uniqueIndex:idx_crop_task_entry_key,priority:1"`
	RecipeID    string     `gorm:"column:recipe_id;not null"`
	TaskType    string     `gorm:"column:task_type;not null;uniqueIndex:idx_crop_task_entry_key,priority:2"`
	StageCode   string     `gorm:"column:stage_code;not null;uniqueIndex:idx_crop_task_entry_key,priority:3"`
	EntryID     string     `gorm:"column:entry_id;not null;default:'';uniqueIndex:idx_crop_task_entry_key,priority:4"` // history row of the stay
	ScheduledAt time.Time  `gorm:"column:scheduled_at;not null;index;uniqueIndex:idx_crop_task_entry_key,priority:5"`
	TriggeredAt *time.Time `gorm:"column:triggered_at"`
	Status      string     `gorm:"column:status;not null;index"`
	Details     string     `gorm:"column:details;type:text"` // JSON as text
	CreatedAt   time.Time  `gorm:"column:created_at;not null"`
}

func (CropTaskModel) TableName() string {
	return "crop_tasks"
}

// CropPlanModel represents the crop_plans table
type CropPlanModel struct {
	ID                 string     `gorm:"column:id;primaryKey"`
	RecipeID           string     `gorm:"column:recipe_id;not null"`
	VarietyID          string     `gorm:"column:variety_id;not null;uniqueIndex:idx_crop_plan_key,priority:1"`
	HarvestDate        time.Time  `gorm:"column:harvest_date;not null;uniqueIndex:idx_crop_plan_key,priority:2"`
	TotalGramsNeeded   float64    `gorm:"column:total_grams_needed;not null"`
	TotalTraysNeeded   int        `gorm:"column:total_trays_needed;not null"`
	GramsPerTray       float64    `gorm:"column:grams_per_tray;not null"`
	PlantDate          time.Time  `gorm:"column:plant_date;not null"`
	SeedSoakDate       *time.Time `gorm:"column:seed_soak_date"`
	Status             string     `gorm:"column:status;not null;index"`
	OrderIDs           string     `gorm:"column:order_ids;type:text"`           // JSON array as text
	OrderGrams         string     `gorm:"column:order_grams;type:text"`         // JSON object order id -> grams
	CalculationDetails string     `gorm:"column:calculation_details;type:text"` // JSON as text
	CreatedAt          time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;not null"`
}

func (CropPlanModel) TableName() string {
	return "crop_plans"
}

// OperationLogModel represents the operation_logs table
type OperationLogModel struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	Source    string    `gorm:"column:source;index;not null"`
	Timestamp time.Time `gorm:"column:timestamp;index;not null"`
	Level     string    `gorm:"column:level;not null"`
	Message   string    `gorm:"column:message;type:text;not null"`
	Metadata  string    `gorm:"column:metadata;type:text"` // JSON as text
}

func (OperationLogModel) TableName() string {
	return "operation_logs"
}

// AllModels lists every table for auto-migration
func AllModels() []interface{} {
	return []interface{}{
		&StageModel{},
		&RecipeModel{},
		&BatchModel{},
		&CropModel{},
		&CropStageHistoryModel{},
		&CropStageTransitionModel{},
		&CropTaskModel{},
		&CropPlanModel{},
		&OperationLogModel{},
	}
}
