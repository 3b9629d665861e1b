package parser

import (
	"fmt"
	"io"
	"strings"
)

/*
OboTerm OBO 文件中的一个 [Term] 段。

	ID 去掉前缀后的编号，如 "0008150"；
	IsA 父术语编号（同样去掉前缀），只保留同一前缀的父术语；
*/
type OboTerm struct {
	ID         string
	Name       string
	Definition string
	Namespace  string
	IsObsolete bool
	IsA        []string
}

func (t *OboTerm) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: id", ErrMissingField)
	}
	if !isDigits(t.ID) {
		return fmt.Errorf("%w: id [%s]", ErrMalformed, t.ID)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

/*
ReadOBO 解析 OBO 文件中前缀为 prefix（如 "GO"、"ECO"）的 [Term] 段。
其它前缀的术语和 [Typedef] 段被忽略。
*/
func (p *Parser) ReadOBO(r io.Reader, prefix string, fn func(OboTerm) error) (Stats, error) {
	const format = "obo"
	var stats Stats
	idPrefix := prefix + ":"

	var current *OboTerm
	startLine := 0
	flush := func() error {
		if current == nil {
			return nil
		}
		term := *current
		current = nil
		if err := term.Validate(); err != nil {
			p.drop(&stats, format, startLine, err)
			return nil
		}
		stats.Records++
		return fn(term)
	}

	scanner := newLineScanner(r)
	inTerm := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "[") {
			if err := flush(); err != nil {
				return stats, err
			}
			inTerm = line == "[Term]"
			if inTerm {
				current = &OboTerm{}
				startLine = scanner.lineNo
			}
			continue
		}
		if !inTerm || current == nil {
			continue
		}
		if line == "" {
			if err := flush(); err != nil {
				return stats, err
			}
			inTerm = false
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "id":
			if !strings.HasPrefix(value, idPrefix) {
				current = nil
				inTerm = false
				continue
			}
			current.ID = strings.TrimPrefix(value, idPrefix)
		case "name":
			current.Name = value
		case "namespace":
			current.Namespace = value
		case "def":
			def, ok := parseQuoted(value)
			if !ok {
				p.logger.WithField("line", scanner.lineNo).Debugf("unterminated definition for term [%s]", current.ID)
			}
			current.Definition = def
		case "is_obsolete":
			current.IsObsolete = value == "true"
		case "is_a":
			if parent, ok := parseIsA(value, idPrefix); ok {
				current.IsA = append(current.IsA, parent)
			}
		}
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

func (p *Parser) ReadOBOFile(path string, prefix string, fn func(OboTerm) error) (Stats, error) {
	return readFile(path, func(r io.Reader) (Stats, error) {
		return p.ReadOBO(r, prefix, fn)
	})
}

/*
parseIsA 解析 "GO:0008150 ! biological_process" 或带修饰的
"ECO:0000006 {source=...} ! experimental evidence"，返回去掉前缀的编号
*/
func parseIsA(value string, idPrefix string) (string, bool) {
	value, _, _ = strings.Cut(value, "!")
	value, _, _ = strings.Cut(value, "{")
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, idPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(value, idPrefix)
	return id, isDigits(id)
}

/*
parseQuoted 取出开头的双引号字符串，处理 \" 与 \n 转义，其余转义原样保留。
没有结束引号时返回已读到的内容和 false。
*/
func parseQuoted(value string) (string, bool) {
	if !strings.HasPrefix(value, `"`) {
		return "", false
	}

	var b strings.Builder
	for i := 1; i < len(value); i++ {
		c := value[i]
		switch {
		case c == '\\' && i+1 < len(value):
			next := value[i+1]
			switch next {
			case '"':
				b.WriteByte('"')
			case 'n':
				b.WriteByte('\n')
			default:
				b.WriteByte('\\')
				b.WriteByte(next)
			}
			i++
		case c == '"':
			return b.String(), true
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), false
}
