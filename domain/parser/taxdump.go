package parser

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	TaxNameClassScientific = "scientific name"
	TaxNameClassCommon     = "genbank common name"
)

type TaxNameRecord struct {
	Taxid int64
	Name  string
	Class string
}

type TaxNodeRecord struct {
	Taxid  int64
	Parent int64
	Rank   string
}

type TaxMergedRecord struct {
	OldTaxid int64
	NewTaxid int64
}

// splitDump 切分 taxdump 的 "\t|\t" 分隔行，去掉行尾的 "\t|"
func splitDump(line string) []string {
	line = strings.TrimSuffix(line, "\t|")
	fields := strings.Split(line, "\t|\t")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func parseTaxid(field string) (int64, error) {
	taxid, err := strconv.ParseInt(field, 10, 64)
	if err != nil || taxid <= 0 {
		return 0, fmt.Errorf("%w: taxid [%s]", ErrMalformed, field)
	}
	return taxid, nil
}

func (p *Parser) readDump(r io.Reader, format string, minFields int, handle func(fields []string) error) (Stats, error) {
	var stats Stats

	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		fields := splitDump(line)
		if len(fields) < minFields {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: %d fields", ErrMissingField, len(fields)))
			continue
		}

		err := handle(fields)
		if err == nil {
			stats.Records++
			continue
		}
		if isRecordError(err) {
			p.drop(&stats, format, scanner.lineNo, err)
			continue
		}
		return stats, err
	}
	if err := scanner.Err(); err != nil {
		return stats, err
	}

	p.done(stats, format)
	return stats, nil
}

// recordError 标记单行的格式错误，与回调返回的错误区分
type recordError struct {
	err error
}

func (e *recordError) Error() string {
	return e.err.Error()
}

func (e *recordError) Unwrap() error {
	return e.err
}

func isRecordError(err error) bool {
	var re *recordError
	return errors.As(err, &re)
}

/*
ReadTaxNames 解析 names.dmp：taxid | name | unique name | name class
*/
func (p *Parser) ReadTaxNames(r io.Reader, fn func(TaxNameRecord) error) (Stats, error) {
	return p.readDump(r, "names.dmp", 4, func(fields []string) error {
		taxid, err := parseTaxid(fields[0])
		if err != nil {
			return &recordError{err}
		}
		return fn(TaxNameRecord{Taxid: taxid, Name: fields[1], Class: fields[3]})
	})
}

/*
ReadTaxNodes 解析 nodes.dmp：taxid | parent taxid | rank | ...，rank 转为小写
*/
func (p *Parser) ReadTaxNodes(r io.Reader, fn func(TaxNodeRecord) error) (Stats, error) {
	return p.readDump(r, "nodes.dmp", 3, func(fields []string) error {
		taxid, err := parseTaxid(fields[0])
		if err != nil {
			return &recordError{err}
		}
		parent, err := parseTaxid(fields[1])
		if err != nil {
			return &recordError{err}
		}
		return fn(TaxNodeRecord{Taxid: taxid, Parent: parent, Rank: strings.ToLower(fields[2])})
	})
}

/*
ReadTaxMerged 解析 merged.dmp：old taxid | new taxid
*/
func (p *Parser) ReadTaxMerged(r io.Reader, fn func(TaxMergedRecord) error) (Stats, error) {
	return p.readDump(r, "merged.dmp", 2, func(fields []string) error {
		oldTaxid, err := parseTaxid(fields[0])
		if err != nil {
			return &recordError{err}
		}
		newTaxid, err := parseTaxid(fields[1])
		if err != nil {
			return &recordError{err}
		}
		return fn(TaxMergedRecord{OldTaxid: oldTaxid, NewTaxid: newTaxid})
	})
}

func (p *Parser) ReadTaxNamesFile(path string, fn func(TaxNameRecord) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadTaxNames(r, fn)
	})
}

func (p *Parser) ReadTaxNodesFile(path string, fn func(TaxNodeRecord) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadTaxNodes(r, fn)
	})
}

func (p *Parser) ReadTaxMergedFile(path string, fn func(TaxMergedRecord) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadTaxMerged(r, fn)
	})
}
