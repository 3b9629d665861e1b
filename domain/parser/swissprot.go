package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

type Feature struct {
	Type  string
	Start int
	End   int
	Note  string
}

/*
SwissProtRecord UniProt 文本格式的一条记录（SwissProt 与 TrEMBL 格式相同）。

	Accessions 第一个为主 accession，其余为历史 accession；
	Name RecName 的 Full 名称，TrEMBL 条目没有 RecName 时取 SubName；
	EcNumbers DE 块中所有 EC= 的编号；
	Keywords KW 行原始内容，可能带 {ECO:...} 证据标记，未做规范化；
	Comment 每个 CC 主题一行，形如 "FUNCTION: ..."；
	DeclaredLength SQ 行声明的长度；
*/
type SwissProtRecord struct {
	EntryName      string
	Reviewed       bool
	Accessions     []string
	Name           string
	EcNumbers      []string
	Taxid          int64
	Keywords       []string
	Comment        string
	Features       []Feature
	PdbIDs         []string
	Sequence       string
	DeclaredLength int
}

func (r *SwissProtRecord) Accession() string {
	if len(r.Accessions) == 0 {
		return ""
	}
	return r.Accessions[0]
}

func (r *SwissProtRecord) SecondaryAccessions() []string {
	if len(r.Accessions) < 2 {
		return nil
	}
	return r.Accessions[1:]
}

func (r *SwissProtRecord) Validate() error {
	switch {
	case r.Accession() == "":
		return fmt.Errorf("%w: AC", ErrMissingField)
	case r.Sequence == "":
		return fmt.Errorf("%w: sequence of [%s]", ErrMissingField, r.Accession())
	case r.DeclaredLength > 0 && r.DeclaredLength != len(r.Sequence):
		return fmt.Errorf("%w: [%s] declares %d residues, has %d", ErrMalformed, r.Accession(), r.DeclaredLength, len(r.Sequence))
	}
	return nil
}

// swissProtBuilder 累积一条记录的多行字段
type swissProtBuilder struct {
	record      SwissProtRecord
	subName     string
	keywordText string
	topics      []string
	inComments  bool
	feature     *Feature
	featureNote *strings.Builder
	sequence    strings.Builder
	inSequence  bool
}

func stripEvidence(value string) string {
	if i := strings.Index(value, " {"); i >= 0 {
		return strings.TrimSpace(value[:i])
	}
	return strings.TrimSpace(value)
}

func (b *swissProtBuilder) id(text string) {
	fields := strings.Fields(text)
	if len(fields) >= 2 {
		b.record.EntryName = fields[0]
		b.record.Reviewed = strings.TrimSuffix(fields[1], ";") == "Reviewed"
	}
}

func (b *swissProtBuilder) de(text string) {
	for _, word := range strings.Fields(text) {
		if strings.HasPrefix(word, "EC=") {
			number := strings.TrimSuffix(strings.TrimPrefix(word, "EC="), ";")
			if number != "" {
				b.record.EcNumbers = append(b.record.EcNumbers, number)
			}
		}
	}

	name := func(prefix string) (string, bool) {
		if !strings.HasPrefix(text, prefix) {
			return "", false
		}
		value := strings.TrimSuffix(strings.TrimPrefix(text, prefix), ";")
		return stripEvidence(value), true
	}
	if v, ok := name("RecName: Full="); ok && b.record.Name == "" {
		b.record.Name = v
	}
	if v, ok := name("SubName: Full="); ok && b.subName == "" {
		b.subName = v
	}
}

func (b *swissProtBuilder) ox(text string) {
	_, value, ok := strings.Cut(text, "NCBI_TaxID=")
	if !ok {
		return
	}
	end := 0
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if taxid, err := strconv.ParseInt(value[:end], 10, 64); err == nil {
		b.record.Taxid = taxid
	}
}

func (b *swissProtBuilder) cc(text string) {
	switch {
	case strings.HasPrefix(text, "-!-"):
		b.inComments = true
		b.topics = append(b.topics, strings.TrimSpace(strings.TrimPrefix(text, "-!-")))
	case strings.HasPrefix(text, "---"):
		b.inComments = false
	case b.inComments && len(b.topics) > 0:
		last := len(b.topics) - 1
		b.topics[last] = joinContinued(b.topics[last], text)
	}
}

func (b *swissProtBuilder) dr(text string) {
	parts := strings.Split(text, ";")
	if len(parts) < 2 || strings.TrimSpace(parts[0]) != "PDB" {
		return
	}
	b.record.PdbIDs = append(b.record.PdbIDs, strings.ToLower(strings.TrimSpace(parts[1])))
}

func parseLocation(location string) (int, int) {
	position := func(s string) int {
		v, err := strconv.Atoi(strings.Trim(s, "<>?"))
		if err != nil {
			return 0
		}
		return v
	}

	if i := strings.Index(location, ":"); i >= 0 {
		location = location[i+1:]
	}
	start, end, ok := strings.Cut(location, "..")
	if !ok {
		v := position(location)
		return v, v
	}
	return position(start), position(end)
}

func (b *swissProtBuilder) ft(line string) {
	if len(line) < 21 {
		return
	}
	key := strings.TrimSpace(line[5:21])
	value := strings.TrimSpace(line[21:])

	if key != "" {
		b.closeFeature()
		start, end := parseLocation(value)
		b.feature = &Feature{Type: key, Start: start, End: end}
		return
	}
	if b.feature == nil {
		return
	}

	if strings.HasPrefix(value, "/note=\"") {
		b.featureNote = &strings.Builder{}
		value = strings.TrimPrefix(value, "/note=\"")
	} else if b.featureNote == nil {
		return
	} else {
		b.featureNote.WriteByte(' ')
	}

	if strings.HasSuffix(value, "\"") {
		b.featureNote.WriteString(strings.TrimSuffix(value, "\""))
		b.feature.Note = b.featureNote.String()
		b.featureNote = nil
		return
	}
	b.featureNote.WriteString(value)
}

func (b *swissProtBuilder) closeFeature() {
	if b.feature == nil {
		return
	}
	if b.featureNote != nil {
		b.feature.Note = b.featureNote.String()
		b.featureNote = nil
	}
	b.record.Features = append(b.record.Features, *b.feature)
	b.feature = nil
}

func (b *swissProtBuilder) sq(text string) {
	b.inSequence = true
	fields := strings.Fields(text)
	for i, field := range fields {
		if field == "AA;" && i > 0 {
			b.record.DeclaredLength, _ = strconv.Atoi(fields[i-1])
			return
		}
	}
}

func (b *swissProtBuilder) build() SwissProtRecord {
	b.closeFeature()
	record := b.record
	if record.Name == "" {
		record.Name = b.subName
	}
	if b.keywordText != "" {
		for _, keyword := range strings.Split(strings.TrimSuffix(b.keywordText, "."), ";") {
			if keyword = strings.TrimSpace(keyword); keyword != "" {
				record.Keywords = append(record.Keywords, keyword)
			}
		}
	}
	record.Comment = strings.Join(b.topics, "\n")
	record.Sequence = b.sequence.String()
	return record
}

/*
ReadSwissProt 解析 UniProt 文本格式，按 ID 到 // 切分记录
*/
func (p *Parser) ReadSwissProt(r io.Reader, fn func(SwissProtRecord) error) (Stats, error) {
	return p.scanSwissProt(r, fn, nil)
}

/*
ReadSwissProtAccessions 对每条记录的主 accession 调用 fn，格式错误被丢弃的记录只要有 AC 行也包括在内
*/
func (p *Parser) ReadSwissProtAccessions(r io.Reader, fn func(accession string) error) (Stats, error) {
	each := func(record SwissProtRecord) error {
		if accession := record.Accession(); accession != "" {
			return fn(accession)
		}
		return nil
	}
	return p.scanSwissProt(r, each, each)
}

func (p *Parser) ReadSwissProtAccessionsFile(path string, fn func(accession string) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadSwissProtAccessions(r, fn)
	})
}

// scanSwissProt dropped 不为空时，被丢弃的记录也交给它
func (p *Parser) scanSwissProt(r io.Reader, fn, dropped func(SwissProtRecord) error) (Stats, error) {
	const format = "swissprot"
	var stats Stats

	builder := &swissProtBuilder{}
	startLine := 1
	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if builder.inSequence && strings.HasPrefix(line, "     ") {
			for _, chunk := range strings.Fields(line) {
				builder.sequence.WriteString(chunk)
			}
			continue
		}
		if len(line) < 2 {
			continue
		}

		tag := line[:2]
		text := ""
		if len(line) > 5 {
			text = strings.TrimSpace(line[5:])
		}

		switch tag {
		case "ID":
			builder.id(text)
		case "AC":
			for _, accession := range strings.Split(text, ";") {
				if accession = strings.TrimSpace(accession); accession != "" {
					builder.record.Accessions = append(builder.record.Accessions, accession)
				}
			}
		case "DE":
			builder.de(text)
		case "OX":
			builder.ox(text)
		case "KW":
			builder.keywordText = joinContinued(builder.keywordText, text)
		case "CC":
			builder.cc(text)
		case "DR":
			builder.dr(text)
		case "FT":
			builder.ft(line)
		case "SQ":
			builder.sq(text)
		case "//":
			record := builder.build()
			builder = &swissProtBuilder{}
			if err := record.Validate(); err != nil {
				p.drop(&stats, format, startLine, err)
				if dropped != nil {
					if err := dropped(record); err != nil {
						return stats, err
					}
				}
			} else {
				stats.Records++
				if err := fn(record); err != nil {
					return stats, err
				}
			}
			startLine = scanner.lineNo + 1
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, err
	}

	p.done(stats, format)
	return stats, nil
}

func (p *Parser) ReadSwissProtFile(path string, fn func(SwissProtRecord) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadSwissProt(r, fn)
	})
}
