package enzyme

import (
	"context"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"pseudoenzymes-backend/domain/closure"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
	"sort"
	"strings"
)

const (
	CatalyticActivity    = "catalytic activity"
	ExperimentalEvidence = "experimental evidence"
	QualifierEnables     = "enables"

	defaultChunk = 5000
)

// Keywords 表示酶活性的 UniProt 关键词（已规范化为小写）
var Keywords = []string{
	"oxidoreductase", "transferase", "hydrolase", "lyase", "isomerase", "ligase",
	"translocase", "allosteric enzyme", "dna invertase", "excision nuclease",
}

/*
Filter 对蛋白的限定，长度边界为闭区间，0 表示不限。

	ReviewedOnly 只考虑 SwissProt 条目；
*/
type Filter struct {
	MinLength    int
	MaxLength    int
	ReviewedOnly bool
}

func (f *Filter) where(alias string) (string, []interface{}) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 2)
	if f.MinLength > 0 {
		conditions = append(conditions, alias+".seq_length >= ?")
		args = append(args, f.MinLength)
	}
	if f.MaxLength > 0 {
		conditions = append(conditions, alias+".seq_length <= ?")
		args = append(args, f.MaxLength)
	}
	if f.ReviewedOnly {
		conditions = append(conditions, alias+".reviewed = ?")
		args = append(args, true)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(conditions, " AND "), args
}

type Setting struct {
	GetDatabase func() *gorm.DB
	Logger      *logrus.Logger
	Chunk       int
}

/*
Classifier 计算三种相互独立的酶判定集合（EC、关键词、GO），只报告它们之间的差异，不做裁决
*/
type Classifier struct {
	setting Setting
}

func New(setting *Setting) *Classifier {
	s := *setting
	if s.Logger == nil {
		s.Logger = logging.Default()
	}
	if s.Chunk <= 0 {
		s.Chunk = defaultChunk
	}
	return &Classifier{setting: s}
}

func (c *Classifier) rawDB() (*sqlx.DB, error) {
	return biodb.Sqlx(c.setting.GetDatabase())
}

func (c *Classifier) selectSet(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (map[string]struct{}, error) {
	var accessions []string
	if err := db.SelectContext(ctx, &accessions, db.Rebind(query), args...); err != nil {
		return nil, utils.WrapErrorf(err, "query enzyme set fail: %s", query)
	}
	ret := make(map[string]struct{}, len(accessions))
	for _, accession := range accessions {
		ret[accession] = struct{}{}
	}
	return ret, nil
}

/*
EcSet 至少有一个 EC 编号的蛋白
*/
func (c *Classifier) EcSet(ctx context.Context, filter Filter) (map[string]struct{}, error) {
	db, err := c.rawDB()
	if err != nil {
		return nil, err
	}
	where, args := filter.where("p")
	return c.selectSet(ctx, db, `SELECT DISTINCT pe.protein_accession FROM protein_ec_entries pe
		JOIN proteins p ON p.accession = pe.protein_accession WHERE 1 = 1`+where, args...)
}

/*
KeywordSet 至少有一个酶活性关键词的蛋白
*/
func (c *Classifier) KeywordSet(ctx context.Context, filter Filter) (map[string]struct{}, error) {
	db, err := c.rawDB()
	if err != nil {
		return nil, err
	}
	where, args := filter.where("p")
	query, args, err := sqlx.In(`SELECT DISTINCT pk.protein_accession FROM protein_keywords pk
		JOIN proteins p ON p.accession = pk.protein_accession WHERE pk.keyword_name IN (?)`+where,
		append([]interface{}{Keywords}, args...)...)
	if err != nil {
		return nil, utils.WrapError(err, "expand IN clause fail")
	}
	return c.selectSet(ctx, db, query, args...)
}

/*
GoSet 与 "catalytic activity" 的后代术语以 qualifier 恰为 "enables" 关联的蛋白（"NOT|enables" 不算）。
experimentalOnly 为真时，证据只限 "experimental evidence" 的后代 ECO 术语。
*/
func (c *Classifier) GoSet(ctx context.Context, filter Filter, experimentalOnly bool) (map[string]struct{}, error) {
	db, err := c.rawDB()
	if err != nil {
		return nil, err
	}

	goIDs, err := c.CatalyticTerms(ctx)
	if err != nil {
		return nil, err
	}
	var ecoIDs []string
	if experimentalOnly {
		if ecoIDs, err = c.ExperimentalEvidence(ctx); err != nil {
			return nil, err
		}
		if len(ecoIDs) == 0 {
			return map[string]struct{}{}, nil
		}
	}

	where, filterArgs := filter.where("p")
	base := `SELECT DISTINCT pg.protein_accession FROM protein_go_terms pg
		JOIN proteins p ON p.accession = pg.protein_accession
		WHERE pg.qualifier = ? AND pg.go_term_id IN (?)`
	if experimentalOnly {
		base += " AND pg.eco_term_id IN (?)"
	}
	base += where

	ret := make(map[string]struct{})
	for _, part := range utils.SliceChunk(goIDs, c.setting.Chunk) {
		args := []interface{}{QualifierEnables, part}
		if experimentalOnly {
			args = append(args, ecoIDs)
		}
		query, args, err := sqlx.In(base, append(args, filterArgs...)...)
		if err != nil {
			return nil, utils.WrapError(err, "expand IN clause fail")
		}
		found, err := c.selectSet(ctx, db, query, args...)
		if err != nil {
			return nil, err
		}
		for accession := range found {
			ret[accession] = struct{}{}
		}
	}
	return ret, nil
}

// CatalyticTerms 返回 "catalytic activity" 及其全部 is_a 后代的 GO 编号
func (c *Classifier) CatalyticTerms(ctx context.Context) ([]int, error) {
	db, err := c.rawDB()
	if err != nil {
		return nil, err
	}
	roots, err := biodb.NewGoRepo(c.setting.GetDatabase()).IDsByName(ctx, CatalyticActivity)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		c.setting.Logger.Warnf("go term [%s] not found", CatalyticActivity)
		return nil, nil
	}
	ids, err := closure.DescendantList[int](ctx, closure.GoRelationSource(db), roots)
	if err != nil {
		return nil, err
	}
	sort.Ints(ids)
	return ids, nil
}

// ExperimentalEvidence 返回 "experimental evidence" 及其全部 is_a 后代的 ECO 编号
func (c *Classifier) ExperimentalEvidence(ctx context.Context) ([]string, error) {
	db, err := c.rawDB()
	if err != nil {
		return nil, err
	}
	roots, err := biodb.NewEcoRepo(c.setting.GetDatabase()).IDsByName(ctx, ExperimentalEvidence)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		c.setting.Logger.Warnf("eco term [%s] not found", ExperimentalEvidence)
		return nil, nil
	}
	ids, err := closure.DescendantList[string](ctx, closure.EcoRelationSource(db), roots)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
