package biodb

import (
	"context"
	"gorm.io/gorm"
	"pseudoenzymes-backend/utils"
	"time"
)

type RunRepo struct {
	db *gorm.DB
}

func NewRunRepo(db *gorm.DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) Start(ctx context.Context, runUUID, step, source string) (*IngestRun, error) {
	run := IngestRun{
		RunUUID: runUUID,
		Step:    step,
		Source:  source,
		Status:  RunStatusDoing,
	}
	if err := r.db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, utils.WrapError(err, "insert ingest run fail")
	}
	return &run, nil
}

// Finish 记录步骤结束，stepErr 非空时状态为失败
func (r *RunRepo) Finish(ctx context.Context, run *IngestRun, stats SchemaStepStats, stepErr error) error {
	now := time.Now()
	run.FinishedAt = &now
	run.Extra = stats.ToExtra()
	run.Status = RunStatusDone
	if stepErr != nil {
		run.Status = RunStatusFail
		run.Error = stepErr.Error()
	}

	err := r.db.WithContext(ctx).Save(run).Error
	return utils.WrapError(err, "update ingest run fail")
}

func (r *RunRepo) ByUUID(ctx context.Context, runUUID string) ([]IngestRun, error) {
	var runs []IngestRun
	err := r.db.WithContext(ctx).Where("run_uuid = ?", runUUID).Order("id").Find(&runs).Error
	return runs, utils.WrapError(err, "select ingest runs fail")
}

func (r *RunRepo) Latest(ctx context.Context, limit int) ([]IngestRun, error) {
	var runs []IngestRun
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&runs).Error
	return runs, utils.WrapError(err, "select ingest runs fail")
}
