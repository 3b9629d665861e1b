package logging

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

/*
Config 日志配置

	FileLevel 写入文件的最低级别；
	ConsoleLevel 输出到控制台的最低级别；
	FileDir 日志文件目录，为空则不写文件；
	DisableConsole 关闭控制台输出；
*/
type Config struct {
	FileLevel      logrus.Level `yaml:"file_level"`
	ConsoleLevel   logrus.Level `yaml:"console_level"`
	FileDir        string       `yaml:"file_dir"`
	DisableConsole bool         `yaml:"disable_console"`
}

const logFileName = "pseudoenzymes.log"

var (
	configLock    sync.RWMutex
	defaultConfig = Config{
		FileLevel:    logrus.DebugLevel,
		ConsoleLevel: logrus.InfoLevel,
		FileDir:      "",
	}

	fileWriter     io.Writer
	defaultLogger  *logrus.Logger
	defaultCreator sync.Once
)

func SetDefaultConfig(config *Config) {
	configLock.Lock()
	defer configLock.Unlock()

	defaultConfig = *config
	fileWriter = nil
	if config.FileDir != "" {
		fileWriter = &lumberjack.Logger{
			Filename:   filepath.Join(config.FileDir, logFileName),
			MaxSize:    128,
			MaxBackups: 8,
			MaxAge:     30,
		}
	}
}

func GenerateTestConfig(t *testing.T) *Config {
	return &Config{
		FileLevel:      logrus.DebugLevel,
		ConsoleLevel:   logrus.DebugLevel,
		FileDir:        t.TempDir(),
		DisableConsole: false,
	}
}

/*
NewLogger 按照当前的默认配置创建一个 logger，控制台和文件各自按照自己的级别过滤
*/
func NewLogger() *logrus.Logger {
	configLock.RLock()
	config := defaultConfig
	writer := fileWriter
	configLock.RUnlock()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	level := logrus.PanicLevel
	if !config.DisableConsole {
		logger.AddHook(newWriterHook(os.Stdout, config.ConsoleLevel, &logrus.TextFormatter{FullTimestamp: true}))
		level = config.ConsoleLevel
	}
	if writer != nil {
		logger.AddHook(newWriterHook(writer, config.FileLevel, &logrus.JSONFormatter{}))
		if config.FileLevel > level {
			level = config.FileLevel
		}
	}
	logger.SetLevel(level)

	return logger
}

func Default() *logrus.Logger {
	defaultCreator.Do(func() {
		defaultLogger = NewLogger()
	})
	return defaultLogger
}
