package linker

import (
	"context"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"pseudoenzymes-backend/domain/parser"
	"pseudoenzymes-backend/domain/reconcile"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/repository/biodb"
)

const (
	defaultFlushSize      = 50000
	defaultMaxRemoteFetch = 200
)

/*
Fetcher 按 accession 获取单条 UniProt 文本条目，条目不存在时返回 remote.ErrNotFound
*/
type Fetcher interface {
	FetchEntry(ctx context.Context, accession string) ([]byte, error)
}

/*
Setting 关联导入的配置。

	FlushSize 关联行累计到该数量时落库，同一窗口内重复的行只保留一条；
	Fetcher 为空时 PDB 关联不走远程获取；
	Reconciler 远程获取的条目通过它创建蛋白；
*/
type Setting struct {
	GetDatabase    func() *gorm.DB
	Logger         *logrus.Logger
	Parser         *parser.Parser
	FlushSize      int
	MaxRemoteFetch int
	Fetcher        Fetcher
	Reconciler     *reconcile.Reconciler
}

type Linker struct {
	setting Setting
}

func New(setting *Setting) *Linker {
	s := *setting
	if s.Logger == nil {
		s.Logger = logging.Default()
	}
	if s.Parser == nil {
		s.Parser = parser.New(s.Logger)
	}
	if s.FlushSize <= 0 {
		s.FlushSize = defaultFlushSize
	}
	if s.MaxRemoteFetch <= 0 {
		s.MaxRemoteFetch = defaultMaxRemoteFetch
	}
	return &Linker{setting: s}
}

func (l *Linker) db() *gorm.DB {
	return l.setting.GetDatabase()
}

func (l *Linker) logStats(step string, stats biodb.SchemaStepStats) {
	l.setting.Logger.WithFields(logrus.Fields{
		"step":       step,
		"read":       stats.Read,
		"created":    stats.Created,
		"skipped":    stats.Skipped,
		"dropped":    stats.Dropped,
		"unresolved": stats.Unresolved,
	}).Info("link finish")
}

func (l *Linker) unresolved(stats *biodb.SchemaStepStats, fields logrus.Fields, msg string) {
	stats.Unresolved++
	l.setting.Logger.WithFields(fields).Debug(msg)
}

/*
window 关联行的去重缓冲区，满 size 行时调用 flush 落库，落库后清空。
窗口内重复的行记为 Skipped，其余计数由 flush 负责
*/
type window[T comparable] struct {
	size  int
	rows  []T
	seen  map[T]struct{}
	flush func(rows []T) error
	stats *biodb.SchemaStepStats
}

func newWindow[T comparable](size int, stats *biodb.SchemaStepStats, flush func(rows []T) error) *window[T] {
	return &window[T]{
		size:  size,
		rows:  make([]T, 0, size),
		seen:  make(map[T]struct{}, size),
		flush: flush,
		stats: stats,
	}
}

func (w *window[T]) add(row T) error {
	if _, dup := w.seen[row]; dup {
		w.stats.Skipped++
		return nil
	}
	w.seen[row] = struct{}{}
	w.rows = append(w.rows, row)
	if len(w.rows) >= w.size {
		return w.done()
	}
	return nil
}

// done 落库剩余的行
func (w *window[T]) done() error {
	if len(w.rows) == 0 {
		return nil
	}
	if err := w.flush(w.rows); err != nil {
		return err
	}
	w.rows = w.rows[:0]
	w.seen = make(map[T]struct{}, w.size)
	return nil
}

// insertFlush 忽略冲突插入，已存在的行记为 Skipped
func insertFlush[T any](ctx context.Context, db *gorm.DB, stats *biodb.SchemaStepStats) func(rows []T) error {
	return func(rows []T) error {
		created, err := biodb.InsertIgnore(ctx, db, rows)
		stats.Created += created
		if err != nil {
			return err
		}
		stats.Skipped += int64(len(rows)) - created
		return nil
	}
}
