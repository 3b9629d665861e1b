package pipeline

import (
	"context"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"pseudoenzymes-backend/domain/notify"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
	"time"
)

var ErrUnknownStep = errors.New("unknown step")

/*
Step 一个可以单独重复执行的导入步骤
*/
type Step struct {
	Name   string
	Source string
	Run    func(ctx context.Context) (biodb.SchemaStepStats, error)
}

type StepResult struct {
	Step    string
	Source  string
	Stats   biodb.SchemaStepStats
	Err     error
	Elapsed time.Duration
}

// Notifier 接收步骤结束与整次运行结束的通知，由 notify.Notifier 实现
type Notifier interface {
	StepFinished(event notify.StepEvent)
	RunFinished() error
}

type Setting struct {
	GetDatabase func() *gorm.DB
	Logger      *logrus.Logger
	Notifier    Notifier
}

/*
Pipeline 依次执行步骤，每个步骤在 ingest_runs 中留下一行记录，同一次运行的记录共享 RunUUID
*/
type Pipeline struct {
	setting Setting
	runUUID string
}

func New(setting *Setting) *Pipeline {
	s := *setting
	if s.Logger == nil {
		s.Logger = logging.Default()
	}
	return &Pipeline{setting: s, runUUID: uuid.NewString()}
}

func (p *Pipeline) RunUUID() string {
	return p.runUUID
}

/*
Run 顺序执行 steps，遇到第一个失败的步骤即停止并返回它的错误。
已执行步骤的结果总是返回；运行结束时发送一次汇总通知。
*/
func (p *Pipeline) Run(ctx context.Context, steps []Step) ([]StepResult, error) {
	results := make([]StepResult, 0, len(steps))
	defer func() {
		if p.setting.Notifier != nil {
			_ = p.setting.Notifier.RunFinished()
		}
	}()

	for _, step := range steps {
		result, err := p.runStep(ctx, step)
		results = append(results, result)
		if err != nil {
			return results, utils.WrapErrorf(err, "step [%s] fail", step.Name)
		}
	}
	return results, nil
}

func (p *Pipeline) runStep(ctx context.Context, step Step) (StepResult, error) {
	logger := p.setting.Logger.WithFields(logrus.Fields{
		"run":    p.runUUID,
		"step":   step.Name,
		"source": step.Source,
	})
	repo := biodb.NewRunRepo(p.setting.GetDatabase())

	run, err := repo.Start(ctx, p.runUUID, step.Name, step.Source)
	if err != nil {
		return StepResult{Step: step.Name, Source: step.Source, Err: err}, err
	}

	logger.Info("step started")
	start := time.Now()
	stats, stepErr := step.Run(ctx)
	result := StepResult{
		Step:    step.Name,
		Source:  step.Source,
		Stats:   stats,
		Err:     stepErr,
		Elapsed: time.Since(start),
	}

	// 步骤本身的错误优先于记录失败
	if err = repo.Finish(context.WithoutCancel(ctx), run, stats, stepErr); err != nil {
		logger.WithError(err).Error("record step result fail")
		if stepErr == nil {
			stepErr = err
			result.Err = err
		}
	}

	if p.setting.Notifier != nil {
		p.setting.Notifier.StepFinished(notify.EventOf(run))
	}

	if stepErr != nil {
		logger.WithError(stepErr).Error("step failed")
		return result, stepErr
	}
	logger.WithField("elapsed", result.Elapsed.String()).Info("step finished")
	return result, nil
}
