package reconcile

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"pseudoenzymes-backend/domain/parser"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/repository/biodb"
)

const (
	defaultParseSize      = 100000
	defaultTaxonBatchSize = 10000
)

/*
Setting 导入实体所需的依赖

	ParseSize 每批处理的 UniProt 记录数，每批一个事务；
	TaxonBatchSize 分类节点每批写入的数量，每批一个事务；
*/
type Setting struct {
	GetDatabase    func() *gorm.DB
	Logger         *logrus.Logger
	Parser         *parser.Parser
	ParseSize      int
	TaxonBatchSize int
}

/*
Reconciler 把解析出的记录与库中已有数据对比，只写入新的行。
所有入口都可以重复执行，第二次执行不会产生重复行。
*/
type Reconciler struct {
	setting Setting
}

func New(setting *Setting) *Reconciler {
	s := *setting
	if s.Logger == nil {
		s.Logger = logging.Default()
	}
	if s.Parser == nil {
		s.Parser = parser.New(s.Logger)
	}
	if s.ParseSize <= 0 {
		s.ParseSize = defaultParseSize
	}
	if s.TaxonBatchSize <= 0 {
		s.TaxonBatchSize = defaultTaxonBatchSize
	}
	return &Reconciler{setting: s}
}

func (r *Reconciler) db() *gorm.DB {
	return r.setting.GetDatabase()
}

func (r *Reconciler) logStats(step string, stats biodb.SchemaStepStats) {
	r.setting.Logger.WithFields(logrus.Fields{
		"step":       step,
		"read":       stats.Read,
		"created":    stats.Created,
		"skipped":    stats.Skipped,
		"updated":    stats.Updated,
		"deleted":    stats.Deleted,
		"dropped":    stats.Dropped,
		"unresolved": stats.Unresolved,
	}).Info("reconcile finish")
}
