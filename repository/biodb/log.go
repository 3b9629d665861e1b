package biodb

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"
	"time"
)

// 慢于该阈值的语句以 Warn 级别记录
const slowStatementThreshold = 2 * time.Second

/*
sqlWriter 把 gorm 的日志行转给 logrus，gorm 只在 Warn 及以上级别输出
*/
type sqlWriter struct {
	entry *logrus.Entry
}

func (w *sqlWriter) Printf(format string, args ...interface{}) {
	w.entry.Warnf(format, args...)
}

func newSQLLogger(l *logrus.Logger) logger.Interface {
	return logger.New(&sqlWriter{entry: l.WithField("component", "biodb")}, logger.Config{
		SlowThreshold:             slowStatementThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
