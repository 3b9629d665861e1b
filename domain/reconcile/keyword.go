package reconcile

import (
	"strings"
)

const maxKeywordLength = 128

// 自动注释规则引擎产生的伪关键词前缀（小写）
var ruleEnginePrefixes = []string{
	"arba:", "rulebase:", "pirnr:", "pirsr:", "sam:", "unirule:", "hamap-rule:", "eco:",
}

/*
CleanKeyword 规范化一个 KW 行中的关键词：去掉 {ECO:...} 证据标记，转小写，合并空白。
空串和规则引擎的伪关键词返回 false。
*/
func CleanKeyword(raw string) (string, bool) {
	keyword := raw
	if i := strings.Index(keyword, "{"); i >= 0 {
		keyword = keyword[:i]
	}
	keyword = strings.TrimRight(strings.TrimSpace(strings.ToLower(keyword)), ". ")
	keyword = strings.Join(strings.Fields(keyword), " ")

	if keyword == "" || len(keyword) > maxKeywordLength {
		return "", false
	}
	for _, prefix := range ruleEnginePrefixes {
		if strings.HasPrefix(keyword, prefix) {
			return "", false
		}
	}
	return keyword, true
}

// CleanKeywords 规范化并去重，保持首次出现的顺序
func CleanKeywords(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	ret := make([]string, 0, len(raw))
	for _, r := range raw {
		keyword, ok := CleanKeyword(r)
		if !ok {
			continue
		}
		if _, dup := seen[keyword]; dup {
			continue
		}
		seen[keyword] = struct{}{}
		ret = append(ret, keyword)
	}
	return ret
}
