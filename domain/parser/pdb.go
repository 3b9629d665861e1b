package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

/*
PdbEntryRecord entries.idx 的一行，ID、标题、方法均为小写
*/
type PdbEntryRecord struct {
	PdbID  string
	Title  string
	Date   time.Time
	Method string
}

func (r *PdbEntryRecord) Validate() error {
	if len(r.PdbID) != 4 {
		return fmt.Errorf("%w: pdb id [%s]", ErrMalformed, r.PdbID)
	}
	return nil
}

/*
parsePdbDate 解析 MM/DD/YY，YY 以 7、8、9 开头属于 19xx，其余属于 20xx
*/
func parsePdbDate(value string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(value), "/")
	if len(parts) != 3 || len(parts[2]) != 2 {
		return time.Time{}, fmt.Errorf("%w: date [%s]", ErrMalformed, value)
	}

	month, err1 := strconv.Atoi(parts[0])
	day, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: date [%s]", ErrMalformed, value)
	}

	century := 2000
	switch parts[2][0] {
	case '7', '8', '9':
		century = 1900
	}
	return time.Date(century+year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

/*
ReadPdbEntries 解析 PDB entries.idx：前两行为表头，其余行以制表符分隔，
第 1 列 ID，第 3 列日期，第 4 列标题，第 8 列实验方法
*/
func (p *Parser) ReadPdbEntries(r io.Reader, fn func(PdbEntryRecord) error) (Stats, error) {
	const format = "entries.idx"
	var stats Stats

	scanner := newLineScanner(r)
	for scanner.Scan() {
		if scanner.lineNo <= 2 {
			continue
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		words := strings.Split(line, "\t")
		if len(words) < 8 {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: %d columns", ErrMissingField, len(words)))
			continue
		}

		date, err := parsePdbDate(words[2])
		if err != nil {
			p.drop(&stats, format, scanner.lineNo, err)
			continue
		}
		record := PdbEntryRecord{
			PdbID:  strings.ToLower(strings.TrimSpace(words[0])),
			Title:  strings.ToLower(strings.TrimSpace(words[3])),
			Date:   date,
			Method: strings.ToLower(strings.TrimSpace(words[7])),
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

func (p *Parser) ReadPdbEntriesFile(path string, fn func(PdbEntryRecord) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadPdbEntries(r, fn)
	})
}

/*
SiftsRecord SIFTS uniprot_pdb.tsv 的一行：一个 accession 对应的全部 PDB ID（小写）
*/
type SiftsRecord struct {
	Accession string
	PdbIDs    []string
}

/*
ReadSifts 解析 SIFTS uniprot_pdb.tsv："accession\tpdb1;pdb2"，跳过 "#" 注释与列名行
*/
func (p *Parser) ReadSifts(r io.Reader, fn func(SiftsRecord) error) (Stats, error) {
	const format = "sifts"
	var stats Stats

	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "SP_PRIMARY") {
			continue
		}

		accession, pdbs, ok := strings.Cut(line, "\t")
		accession = strings.TrimSpace(accession)
		if !ok || accession == "" {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: pdb list", ErrMissingField))
			continue
		}

		record := SiftsRecord{Accession: accession}
		for _, pdbID := range strings.Split(pdbs, ";") {
			pdbID = strings.ToLower(strings.TrimSpace(pdbID))
			if len(pdbID) == 4 {
				record.PdbIDs = append(record.PdbIDs, pdbID)
			}
		}
		if len(record.PdbIDs) == 0 {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: no valid pdb id for [%s]", ErrMalformed, accession))
			continue
		}

		stats.Records++
		if err := fn(record); err != nil {
			return stats, err
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, err
	}

	p.done(stats, format)
	return stats, nil
}

func (p *Parser) ReadSiftsFile(path string, fn func(SiftsRecord) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadSifts(r, fn)
	})
}
