package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const FastaLineWidth = 80

type FastaRecord struct {
	ID       string
	Sequence string
}

/*
ReadFasta 解析 FASTA，">" 行之后的全部内容为 ID，序列行去掉空白后拼接。
比对结果中的 "-" 保留。
*/
func (p *Parser) ReadFasta(r io.Reader, fn func(FastaRecord) error) (Stats, error) {
	const format = "fasta"
	var stats Stats

	var current *FastaRecord
	var seq strings.Builder
	headerLine := 0
	flush := func() error {
		if current == nil {
			return nil
		}
		record := *current
		record.Sequence = seq.String()
		current = nil
		seq.Reset()

		if record.ID == "" {
			p.drop(&stats, format, headerLine, fmt.Errorf("%w: fasta id", ErrMissingField))
			return nil
		}
		stats.Records++
		return fn(record)
	}

	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if err := flush(); err != nil {
				return stats, err
			}
			current = &FastaRecord{ID: strings.TrimSpace(line[1:])}
			headerLine = scanner.lineNo
			continue
		}
		if current == nil {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: sequence before header", ErrMalformed))
			continue
		}
		seq.WriteString(strings.Join(strings.Fields(line), ""))
	}
	if err := scanner.Err(); err != nil {
		return stats, err
	}
	if err := flush(); err != nil {
		return stats, err
	}

	p.done(stats, format)
	return stats, nil
}

func (p *Parser) ReadFastaFile(path string, fn func(FastaRecord) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadFasta(r, fn)
	})
}

/*
FastaWriter 按固定宽度换行写出 FASTA
*/
type FastaWriter struct {
	w     *bufio.Writer
	width int
}

func NewFastaWriter(w io.Writer) *FastaWriter {
	return &FastaWriter{w: bufio.NewWriter(w), width: FastaLineWidth}
}

func (f *FastaWriter) Write(id, seq string) error {
	if _, err := fmt.Fprintf(f.w, ">%s\n", id); err != nil {
		return err
	}
	for start := 0; start < len(seq); start += f.width {
		end := start + f.width
		if end > len(seq) {
			end = len(seq)
		}
		if _, err := f.w.WriteString(seq[start:end] + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func (f *FastaWriter) Flush() error {
	return f.w.Flush()
}
