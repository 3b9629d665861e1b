package parser

import (
	"bufio"
	"errors"
	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
	"io"
	"os"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/utils"
	"strings"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrMalformed    = errors.New("malformed field")
)

const (
	scanBufferSize = 1024 * 1024
	scanMaxToken   = 64 * 1024 * 1024
)

/*
Stats 一次解析的计数

	Records 交给回调的记录数；
	Dropped 因缺少字段或格式错误被丢弃的记录数；
*/
type Stats struct {
	Records int64
	Dropped int64
}

/*
Parser 所有格式共用的解析器，只负责把文本转为记录，不访问数据库。
每种格式提供 ReadXxx(io.Reader, fn) 和 ReadXxxFile(path, fn) 两个入口，
fn 返回错误时解析立即停止并返回该错误。
*/
type Parser struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Parser {
	if logger == nil {
		logger = logging.Default()
	}
	return &Parser{logger: logger}
}

func (p *Parser) drop(stats *Stats, format string, line int, err error) {
	stats.Dropped++
	p.logger.WithFields(logrus.Fields{
		"format": format,
		"line":   line,
	}).Debugf("drop record: %v", err)
}

func (p *Parser) done(stats Stats, format string) {
	entry := p.logger.WithField("format", format)
	if stats.Dropped > 0 {
		entry.Infof("parsed %d records, dropped %d malformed", stats.Records, stats.Dropped)
		return
	}
	entry.Debugf("parsed %d records", stats.Records)
}

type gzipReadCloser struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipReadCloser) Close() error {
	err := g.Reader.Close()
	if ferr := g.file.Close(); err == nil {
		err = ferr
	}
	return err
}

type bufferedFile struct {
	*bufio.Reader
	file *os.File
}

func (b *bufferedFile) Close() error {
	return b.file.Close()
}

/*
Open 打开本地文件，按 gzip 魔数自动解压。文件不存在属于资源错误，直接返回给调用方。
*/
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, utils.WrapErrorf(err, "open [%s] fail", path)
	}

	buffered := bufio.NewReaderSize(file, scanBufferSize)
	magic, err := buffered.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		reader, err := gzip.NewReader(buffered)
		if err != nil {
			_ = file.Close()
			return nil, utils.WrapErrorf(err, "open gzip [%s] fail", path)
		}
		return &gzipReadCloser{Reader: reader, file: file}, nil
	}

	return &bufferedFile{Reader: buffered, file: file}, nil
}

func readFile(path string, read func(r io.Reader) (Stats, error)) (Stats, error) {
	reader, err := Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer reader.Close()

	stats, err := read(reader)
	return stats, utils.WrapErrorf(err, "parse [%s] fail", path)
}

// lineScanner 逐行读取并记录行号
type lineScanner struct {
	scanner *bufio.Scanner
	lineNo  int
}

func newLineScanner(r io.Reader) *lineScanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scanBufferSize), scanMaxToken)
	return &lineScanner{scanner: scanner}
}

func (s *lineScanner) Scan() bool {
	if s.scanner.Scan() {
		s.lineNo++
		return true
	}
	return false
}

func (s *lineScanner) Text() string {
	return strings.TrimRight(s.scanner.Text(), "\r")
}

func (s *lineScanner) Err() error {
	return s.scanner.Err()
}
