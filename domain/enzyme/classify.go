package enzyme

import (
	"context"
	"github.com/sirupsen/logrus"
	"sort"
)

/*
Classification 三种判定集合及其差异。

	Agreed 三个集合都包含的蛋白；
	Disputed 至少一个集合包含、但不是全部集合都包含的蛋白，值为包含它的集合名；
*/
type Classification struct {
	Ec       map[string]struct{}
	Keyword  map[string]struct{}
	Go       map[string]struct{}
	Agreed   []string
	Disputed map[string][]string
}

const (
	SetEc      = "ec"
	SetKeyword = "keyword"
	SetGo      = "go"
)

type Summary struct {
	Ec       int `json:"ec"`
	Keyword  int `json:"keyword"`
	Go       int `json:"go"`
	Union    int `json:"union"`
	Agreed   int `json:"agreed"`
	Disputed int `json:"disputed"`
}

func (c *Classification) Summary() Summary {
	return Summary{
		Ec:       len(c.Ec),
		Keyword:  len(c.Keyword),
		Go:       len(c.Go),
		Union:    len(c.Agreed) + len(c.Disputed),
		Agreed:   len(c.Agreed),
		Disputed: len(c.Disputed),
	}
}

/*
Classify 计算三种集合，并列出它们的交集与差异
*/
func (c *Classifier) Classify(ctx context.Context, filter Filter, experimentalOnly bool) (*Classification, error) {
	ec, err := c.EcSet(ctx, filter)
	if err != nil {
		return nil, err
	}
	keyword, err := c.KeywordSet(ctx, filter)
	if err != nil {
		return nil, err
	}
	goSet, err := c.GoSet(ctx, filter, experimentalOnly)
	if err != nil {
		return nil, err
	}

	ret := &Classification{Ec: ec, Keyword: keyword, Go: goSet, Disputed: make(map[string][]string)}
	membership := make(map[string][]string)
	for _, named := range []struct {
		name string
		set  map[string]struct{}
	}{{SetEc, ec}, {SetKeyword, keyword}, {SetGo, goSet}} {
		for accession := range named.set {
			membership[accession] = append(membership[accession], named.name)
		}
	}
	for accession, sets := range membership {
		if len(sets) == 3 {
			ret.Agreed = append(ret.Agreed, accession)
		} else {
			ret.Disputed[accession] = sets
		}
	}
	sort.Strings(ret.Agreed)

	summary := ret.Summary()
	c.setting.Logger.WithFields(logrus.Fields{
		"ec":       summary.Ec,
		"keyword":  summary.Keyword,
		"go":       summary.Go,
		"disputed": summary.Disputed,
	}).Info("classify finish")
	return ret, nil
}
