package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

/*
GoAnnotation GPA/GAF 中的一行注释。

	Accession UniProtKB accession；
	Qualifier 原样保留，如 "enables"、"NOT|enables"；
	GoID "GO:" 之后的整数；
	EcoID "ECO:" 之后的 7 位编号；
*/
type GoAnnotation struct {
	Accession string
	Qualifier string
	GoID      int
	EcoID     string
}

func (a *GoAnnotation) Validate() error {
	switch {
	case a.Accession == "":
		return fmt.Errorf("%w: accession", ErrMissingField)
	case a.Qualifier == "":
		return fmt.Errorf("%w: qualifier", ErrMissingField)
	case a.GoID <= 0:
		return fmt.Errorf("%w: GO id", ErrMissingField)
	case !isDigits(a.EcoID):
		return fmt.Errorf("%w: ECO id [%s]", ErrMalformed, a.EcoID)
	}
	return nil
}

func parsePrefixedInt(value, prefix string) (int, error) {
	if !strings.HasPrefix(value, prefix+":") {
		return 0, fmt.Errorf("%w: [%s] has no %s prefix", ErrMalformed, value, prefix)
	}
	id, err := strconv.Atoi(strings.TrimPrefix(value, prefix+":"))
	if err != nil {
		return 0, fmt.Errorf("%w: [%s]", ErrMalformed, value)
	}
	return id, nil
}

func splitAnnotationLine(line string) []string {
	if strings.Contains(line, "\t") {
		return strings.Split(line, "\t")
	}
	return strings.Fields(line)
}

/*
ReadGPA 解析 GPA 1.1（以及同列序的 GPAD）。只处理 DB 为 UniProtKB 的行：
第 2 列 accession，第 3 列 qualifier，第 4 列 GO id，第 6 列 ECO id。
"!" 开头的行是注释。
*/
func (p *Parser) ReadGPA(r io.Reader, fn func(GoAnnotation) error) (Stats, error) {
	const format = "gpa"
	var stats Stats

	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "!") || !strings.HasPrefix(line, "UniProtKB") {
			continue
		}

		words := splitAnnotationLine(line)
		if len(words) < 6 {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: %d columns", ErrMissingField, len(words)))
			continue
		}

		annotation := GoAnnotation{
			Accession: strings.TrimSpace(words[1]),
			Qualifier: strings.TrimSpace(words[2]),
		}
		goID, err := parsePrefixedInt(strings.TrimSpace(words[3]), "GO")
		if err != nil {
			p.drop(&stats, format, scanner.lineNo, err)
			continue
		}
		annotation.GoID = goID

		_, eco, ok := strings.Cut(strings.TrimSpace(words[5]), ":")
		if !ok {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: evidence [%s]", ErrMalformed, words[5]))
			continue
		}
		annotation.EcoID = eco

		if err = annotation.Validate(); err != nil {
			p.drop(&stats, format, scanner.lineNo, err)
			continue
		}

		stats.Records++
		if err = fn(annotation); err != nil {
			return stats, err
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, err
	}

	p.done(stats, format)
	return stats, nil
}

func (p *Parser) ReadGPAFile(path string, fn func(GoAnnotation) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadGPA(r, fn)
	})
}

/*
EvidenceMapping GO 证据代码（如 IDA）到 ECO 编号的映射，来自 gaf-eco-mapping.txt
*/
type EvidenceMapping map[string]string

/*
ReadGafEcoMapping 解析 "code\treference\tECO:id" 三列文件，同一代码以 reference 为 "Default" 的行为准
*/
func (p *Parser) ReadGafEcoMapping(r io.Reader) (EvidenceMapping, Stats, error) {
	const format = "gaf-eco-mapping"
	var stats Stats
	mapping := make(EvidenceMapping)
	defaults := make(map[string]bool)

	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		words := strings.Split(line, "\t")
		if len(words) < 3 {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: %d columns", ErrMissingField, len(words)))
			continue
		}

		code, reference := strings.TrimSpace(words[0]), strings.TrimSpace(words[1])
		_, eco, ok := strings.Cut(strings.TrimSpace(words[2]), ":")
		if !ok || !isDigits(eco) {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: evidence [%s]", ErrMalformed, words[2]))
			continue
		}

		isDefault := reference == "Default"
		if _, exists := mapping[code]; !exists || (isDefault && !defaults[code]) {
			mapping[code] = eco
			defaults[code] = isDefault
		}
		stats.Records++
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, err
	}

	p.done(stats, format)
	return mapping, stats, nil
}

func (p *Parser) ReadGafEcoMappingFile(path string) (EvidenceMapping, Stats, error) {
	reader, err := Open(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer reader.Close()

	return p.ReadGafEcoMapping(reader)
}

/*
ReadGAF 解析 GAF 2.x：第 2 列 accession，第 4 列 qualifier，第 5 列 GO id，第 7 列证据代码。
证据代码通过 mapping 转为 ECO 编号，无法映射的行被丢弃。
GAF 2.2 之前 qualifier 可以为空，此时按 GO aspect（第 9 列）补全默认 qualifier。
*/
func (p *Parser) ReadGAF(r io.Reader, mapping EvidenceMapping, fn func(GoAnnotation) error) (Stats, error) {
	const format = "gaf"
	var stats Stats

	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "!") || !strings.HasPrefix(line, "UniProtKB") {
			continue
		}

		words := strings.Split(line, "\t")
		if len(words) < 9 {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: %d columns", ErrMissingField, len(words)))
			continue
		}

		goID, err := parsePrefixedInt(strings.TrimSpace(words[4]), "GO")
		if err != nil {
			p.drop(&stats, format, scanner.lineNo, err)
			continue
		}

		code := strings.TrimSpace(words[6])
		eco, ok := mapping[code]
		if !ok {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: evidence code [%s] has no ECO mapping", ErrMalformed, code))
			continue
		}

		annotation := GoAnnotation{
			Accession: strings.TrimSpace(words[1]),
			Qualifier: gafQualifier(strings.TrimSpace(words[3]), strings.TrimSpace(words[8])),
			GoID:      goID,
			EcoID:     eco,
		}
		if err = annotation.Validate(); err != nil {
			p.drop(&stats, format, scanner.lineNo, err)
			continue
		}

		stats.Records++
		if err = fn(annotation); err != nil {
			return stats, err
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, err
	}

	p.done(stats, format)
	return stats, nil
}

func (p *Parser) ReadGAFFile(path string, mapping EvidenceMapping, fn func(GoAnnotation) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadGAF(r, mapping, fn)
	})
}

func gafQualifier(qualifier, aspect string) string {
	if qualifier != "" && qualifier != "NOT" {
		return qualifier
	}

	relation := ""
	switch aspect {
	case "F":
		relation = "enables"
	case "P":
		relation = "involved_in"
	case "C":
		relation = "located_in"
	}
	if qualifier == "NOT" {
		return "NOT|" + relation
	}
	return relation
}
