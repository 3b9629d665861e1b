package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

type CathNameRecord struct {
	Number string
	Name   string
}

/*
ReadCathNames 解析 cath-b-newest-names：每行 "编号 名称"，以第一个空白切分，名称可以为空
*/
func (p *Parser) ReadCathNames(r io.Reader, fn func(CathNameRecord) error) (Stats, error) {
	const format = "cath-names"
	var stats Stats

	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		number, name, _ := strings.Cut(line, " ")
		if i := strings.IndexByte(number, '\t'); i >= 0 {
			number, name = line[:i], line[i+1:]
		}
		if !isCathNumber(number) {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: CATH number [%s]", ErrMalformed, number))
			continue
		}

		stats.Records++
		if err := fn(CathNameRecord{Number: number, Name: strings.TrimSpace(name)}); err != nil {
			return stats, err
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, err
	}

	p.done(stats, format)
	return stats, nil
}

func (p *Parser) ReadCathNamesFile(path string, fn func(CathNameRecord) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadCathNames(r, fn)
	})
}

func isCathNumber(number string) bool {
	parts := strings.Split(number, ".")
	if len(parts) == 0 || len(parts) > 4 {
		return false
	}
	for _, part := range parts {
		if !isDigits(part) {
			return false
		}
	}
	return true
}

/*
CathDomainRecord 蛋白上的一个 Gene3D/CATH 结构域，StartPos 与 EndPos 为 1 起始闭区间
*/
type CathDomainRecord struct {
	Accession  string
	CathNumber string
	StartPos   int
	EndPos     int
	Evalue     float64
}

func (r *CathDomainRecord) Validate() error {
	switch {
	case r.Accession == "":
		return fmt.Errorf("%w: accession", ErrMissingField)
	case !isCathNumber(r.CathNumber):
		return fmt.Errorf("%w: CATH number [%s]", ErrMalformed, r.CathNumber)
	case r.StartPos < 1 || r.EndPos < r.StartPos:
		return fmt.Errorf("%w: span %d-%d", ErrMalformed, r.StartPos, r.EndPos)
	}
	return nil
}

const gene3DPrefix = "G3DSA:"

/*
ReadCathDomains 解析 InterPro 的 protein2ipr 格式（制表符分隔）：
accession, IPR id, IPR 名称, 成员库签名, start, end[, evalue]。
只保留签名为 "G3DSA:<CATH 编号>" 的行。
*/
func (p *Parser) ReadCathDomains(r io.Reader, fn func(CathDomainRecord) error) (Stats, error) {
	const format = "gene3d-domains"
	var stats Stats

	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 6 {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: %d columns", ErrMissingField, len(fields)))
			continue
		}
		signature := strings.TrimSpace(fields[3])
		if !strings.HasPrefix(signature, gene3DPrefix) {
			continue
		}

		record := CathDomainRecord{
			Accession:  strings.TrimSpace(fields[0]),
			CathNumber: strings.TrimPrefix(signature, gene3DPrefix),
		}
		var err error
		if record.StartPos, err = strconv.Atoi(strings.TrimSpace(fields[4])); err != nil {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: start [%s]", ErrMalformed, fields[4]))
			continue
		}
		if record.EndPos, err = strconv.Atoi(strings.TrimSpace(fields[5])); err != nil {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: end [%s]", ErrMalformed, fields[5]))
			continue
		}
		if len(fields) > 6 {
			record.Evalue, _ = strconv.ParseFloat(strings.TrimSpace(fields[6]), 64)
		}
		if err = record.Validate(); err != nil {
			p.drop(&stats, format, scanner.lineNo, err)
			continue
		}

		stats.Records++
		if err = fn(record); err != nil {
			return stats, err
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, err
	}

	p.done(stats, format)
	return stats, nil
}

func (p *Parser) ReadCathDomainsFile(path string, fn func(CathDomainRecord) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadCathDomains(r, fn)
	})
}
