package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

/*
EcDatRecord enzyme.dat 中 ID 到 // 之间的一条记录。

	Name DE 行拼接结果，已转移或删除的条目为空；
	TransferredTo 原文 "Transferred entry: ..."；
	Description CC 段落，每个 "-!-" 开始一个新段落，段落之间以换行分隔；
	Synonyms AN 行；
	Accessions DR 行中的 UniProt accession；
*/
type EcDatRecord struct {
	Number        string
	Name          string
	Description   string
	Synonyms      []string
	Accessions    []string
	Preliminary   bool
	Deleted       bool
	Transferred   bool
	TransferredTo string
}

func (r *EcDatRecord) Validate() error {
	if r.Number == "" {
		return fmt.Errorf("%w: ID", ErrMissingField)
	}
	return nil
}

// joinContinued 把续行拼接到 text 后面，text 以 "-" 结尾时不加空格
func joinContinued(text, next string) string {
	if text == "" {
		return next
	}
	if next == "" {
		return text
	}
	if strings.HasSuffix(text, "-") {
		return text + next
	}
	return text + " " + next
}

func (r *EcDatRecord) finish() {
	name := strings.TrimSuffix(r.Name, ".")
	switch {
	case strings.HasPrefix(name, "Transferred entry:"):
		r.Transferred = true
		r.TransferredTo = name
		r.Name = ""
	case strings.HasPrefix(name, "Deleted entry"):
		r.Deleted = true
		r.Name = ""
	default:
		r.Name = name
	}
	r.Preliminary = strings.Contains(r.Number, "n")
}

/*
ReadEcDat 解析 ExPASy enzyme.dat。文件头部没有 ID 的版权块被静默跳过。
*/
func (p *Parser) ReadEcDat(r io.Reader, fn func(EcDatRecord) error) (Stats, error) {
	const format = "enzyme.dat"
	var stats Stats

	record := EcDatRecord{}
	var synonym string
	var paragraphs []string
	hasContent := false
	startLine := 1

	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
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
			record.Number = text
			hasContent = true
		case "DE":
			record.Name = joinContinued(record.Name, text)
		case "AN":
			synonym = joinContinued(synonym, text)
			if strings.HasSuffix(synonym, ".") {
				record.Synonyms = append(record.Synonyms, strings.TrimSuffix(synonym, "."))
				synonym = ""
			}
		case "CC":
			if strings.HasPrefix(text, "-!-") {
				paragraphs = append(paragraphs, strings.TrimSpace(strings.TrimPrefix(text, "-!-")))
			} else if strings.HasPrefix(text, "---") {
				continue
			} else if len(paragraphs) > 0 {
				paragraphs[len(paragraphs)-1] = joinContinued(paragraphs[len(paragraphs)-1], text)
			}
		case "DR":
			for _, pair := range strings.Split(text, ";") {
				accession, _, _ := strings.Cut(pair, ",")
				accession = strings.TrimSpace(accession)
				if accession != "" {
					record.Accessions = append(record.Accessions, accession)
				}
			}
		case "//":
			if hasContent {
				if synonym != "" {
					record.Synonyms = append(record.Synonyms, strings.TrimSuffix(synonym, "."))
				}
				record.Description = strings.Join(paragraphs, "\n")
				record.finish()
				if err := record.Validate(); err != nil {
					p.drop(&stats, format, startLine, err)
				} else {
					stats.Records++
					if err := fn(record); err != nil {
						return stats, err
					}
				}
			}
			record = EcDatRecord{}
			synonym = ""
			paragraphs = nil
			hasContent = false
			startLine = scanner.lineNo + 1
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, err
	}

	p.done(stats, format)
	return stats, nil
}

func (p *Parser) ReadEcDatFile(path string, fn func(EcDatRecord) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadEcDat(r, fn)
	})
}

/*
EcClassRecord enzclass.txt 中的类别行，如 "1.1.1.-" Acting on the CH-OH group ...
*/
type EcClassRecord struct {
	Number      string
	Description string
}

/*
ReadEcClasses 解析 enzclass.txt：第二个字符为 "." 的行是类别行，
前 10 个字符去空格为编号，其余为描述
*/
func (p *Parser) ReadEcClasses(r io.Reader, fn func(EcClassRecord) error) (Stats, error) {
	const format = "enzclass.txt"
	var stats Stats

	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 2 || line[1] != '.' {
			continue
		}
		if len(line) < 10 {
			p.drop(&stats, format, scanner.lineNo, fmt.Errorf("%w: class line too short", ErrMalformed))
			continue
		}

		record := EcClassRecord{
			Number:      strings.ReplaceAll(line[:10], " ", ""),
			Description: strings.TrimSpace(line[10:]),
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

func (p *Parser) ReadEcClassesFile(path string, fn func(EcClassRecord) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadEcClasses(r, fn)
	})
}

// EcSynonymRecord IntEnz XML 中一个酶的一个同义名
type EcSynonymRecord struct {
	Number  string
	Synonym string
}

/*
ReadIntEnzSynonyms 流式解析 IntEnz XML，按 ec_class / ec_subclass / ec_sub-subclass / enzyme
的嵌套拼出完整编号，preliminary="true" 的酶第四位加 "n" 前缀
*/
func (p *Parser) ReadIntEnzSynonyms(r io.Reader, fn func(EcSynonymRecord) error) (Stats, error) {
	const format = "intenz.xml"
	var stats Stats

	var ec1, ec2, ec3, number string
	inSynonyms := false
	var text strings.Builder
	inSynonym := false

	attr := func(el xml.StartElement, name string) string {
		for _, a := range el.Attr {
			if a.Name.Local == name {
				return a.Value
			}
		}
		return ""
	}

	decoder := xml.NewDecoder(r)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}

		switch el := token.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "ec_class":
				ec1 = attr(el, "ec1")
			case "ec_subclass":
				ec2 = attr(el, "ec2")
			case "ec_sub-subclass":
				ec3 = attr(el, "ec3")
			case "enzyme":
				ec4 := attr(el, "ec4")
				if attr(el, "preliminary") == "true" {
					ec4 = "n" + ec4
				}
				number = strings.Join([]string{ec1, ec2, ec3, ec4}, ".")
			case "synonyms":
				inSynonyms = number != ""
			default:
				if inSynonyms && el.Name.Local == "synonym" {
					inSynonym = true
					text.Reset()
				}
			}
		case xml.CharData:
			if inSynonym {
				text.Write(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "synonym":
				if !inSynonym {
					continue
				}
				inSynonym = false
				synonym := strings.Join(strings.Fields(text.String()), " ")
				if synonym == "" {
					p.drop(&stats, format, 0, fmt.Errorf("%w: empty synonym of [%s]", ErrMissingField, number))
					continue
				}
				stats.Records++
				if err := fn(EcSynonymRecord{Number: number, Synonym: synonym}); err != nil {
					return stats, err
				}
			case "synonyms":
				inSynonyms = false
			case "enzyme":
				number = ""
			}
		}
	}

	p.done(stats, format)
	return stats, nil
}

func (p *Parser) ReadIntEnzSynonymsFile(path string, fn func(EcSynonymRecord) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadIntEnzSynonyms(r, fn)
	})
}
