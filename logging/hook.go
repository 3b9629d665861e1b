package logging

import (
	"github.com/sirupsen/logrus"
	"io"
	"sync"
)

type writerHook struct {
	lock      sync.Mutex
	writer    io.Writer
	levels    []logrus.Level
	formatter logrus.Formatter
}

func newWriterHook(writer io.Writer, level logrus.Level, formatter logrus.Formatter) *writerHook {
	return &writerHook{
		writer:    writer,
		levels:    logrus.AllLevels[:level+1],
		formatter: formatter,
	}
}

func (h *writerHook) Levels() []logrus.Level {
	return h.levels
}

func (h *writerHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	_, err = h.writer.Write(line)
	return err
}
