package bulkload

import (
	"context"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
)

// GoAnnotationIndexes protein_go_terms 上的二级索引，唯一索引保留以支持忽略冲突的插入
var GoAnnotationIndexes = []string{
	"idx_protein_go_terms_term",
	"idx_protein_go_terms_qualifier",
	"idx_protein_go_terms_eco",
}

type Setting struct {
	GetDatabase func() *gorm.DB
	Logger      *logrus.Logger
}

type Loader struct {
	setting Setting
}

func New(setting *Setting) *Loader {
	s := *setting
	if s.Logger == nil {
		s.Logger = logging.Default()
	}
	return &Loader{setting: s}
}

/*
WithoutIndexes 删除 model 上的 indexes 后执行 load，无论 load 是否成功都会重建这些索引。
load 的错误优先返回，重建失败只在 load 成功时返回。ctx 被取消后重建照常执行
*/
func (l *Loader) WithoutIndexes(ctx context.Context, model interface{}, indexes []string, load func() error) (err error) {
	migrator := l.setting.GetDatabase().WithContext(ctx).Migrator()
	rebuilder := l.setting.GetDatabase().WithContext(context.WithoutCancel(ctx)).Migrator()

	dropped := make([]string, 0, len(indexes))
	defer func() {
		for _, name := range dropped {
			if rebuildErr := rebuilder.CreateIndex(model, name); rebuildErr != nil {
				l.setting.Logger.WithError(rebuildErr).Errorf("rebuild index [%s] fail", name)
				if err == nil {
					err = utils.WrapErrorf(rebuildErr, "rebuild index [%s] fail", name)
				}
				continue
			}
			l.setting.Logger.Infof("index [%s] rebuilt", name)
		}
	}()

	for _, name := range indexes {
		if !migrator.HasIndex(model, name) {
			continue
		}
		if err = migrator.DropIndex(model, name); err != nil {
			return utils.WrapErrorf(err, "drop index [%s] fail", name)
		}
		dropped = append(dropped, name)
	}
	l.setting.Logger.Infof("dropped %d indexes before bulk load", len(dropped))

	return load()
}

/*
ReloadGoAnnotations 清空 protein_go_terms 后在无二级索引的情况下重新导入，导入结束（包括失败）后重建索引
*/
func (l *Loader) ReloadGoAnnotations(ctx context.Context, load func(ctx context.Context) (biodb.SchemaStepStats, error)) (biodb.SchemaStepStats, error) {
	var stats biodb.SchemaStepStats

	cleared, err := biodb.ClearTable(ctx, l.setting.GetDatabase(), &biodb.ProteinGoTerm{})
	if err != nil {
		return stats, err
	}
	stats.Deleted = cleared

	err = l.WithoutIndexes(ctx, &biodb.ProteinGoTerm{}, GoAnnotationIndexes, func() error {
		loaded, err := load(ctx)
		stats.Add(loaded)
		return err
	})
	return stats, utils.WrapError(err, "reload go annotations fail")
}
