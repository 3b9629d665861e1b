package graph

import (
	"github.com/neo4j/neo4j-go-driver/v4/neo4j"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"pseudoenzymes-backend/logging"
)

const (
	LabelGoTerm  = "GoTerm"
	LabelEcoTerm = "EcoTerm"
	LabelTaxon   = "Taxon"

	RelChildOf = "CHILD_OF"
)

const defaultBatchSize = 1000

// Runner 执行一条 Cypher 语句，由 neograph.Client 实现
type Runner interface {
	Execute(cypher string, params map[string]interface{}) (neo4j.ResultSummary, error)
}

/*
Setting 图导出的依赖

	Runner 为空时只能导出 CSV；
	BatchSize 每条 UNWIND 语句携带的行数；
*/
type Setting struct {
	GetDatabase func() *gorm.DB
	Logger      *logrus.Logger
	Runner      Runner
	BatchSize   int
}

type Exporter struct {
	setting Setting
}

func New(setting *Setting) *Exporter {
	s := *setting
	if s.Logger == nil {
		s.Logger = logging.Default()
	}
	if s.BatchSize <= 0 {
		s.BatchSize = defaultBatchSize
	}
	return &Exporter{setting: s}
}

/*
Node 图中的一个节点，(Label, ID) 唯一
*/
type Node struct {
	Label string
	ID    string
	Name  string
}

/*
Edge From -[Rel]-> To，两端节点的 Label 相同
*/
type Edge struct {
	Label string
	From  string
	Rel   string
	To    string
}

type ExportResult struct {
	Nodes int64
	Edges int64
}
