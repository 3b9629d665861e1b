package enzyme

import (
	"context"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
	"strings"
)

// SingleDomainProteins 只有一个 CATH 结构域的蛋白
func (c *Classifier) SingleDomainProteins(ctx context.Context) ([]string, error) {
	db, err := c.rawDB()
	if err != nil {
		return nil, err
	}
	var accessions []string
	err = db.SelectContext(ctx, &accessions, `SELECT protein_accession FROM protein_cath_superfamilies
		GROUP BY protein_accession HAVING COUNT(*) = 1 ORDER BY protein_accession`)
	return accessions, utils.WrapError(err, "select single domain proteins fail")
}

type familyEc struct {
	CathNumber string `db:"cath_number"`
	EcNumber   string `db:"ec_number"`
}

/*
Ec3PerFamily 每个 CATH 超家族中蛋白涉及的不同 EC 前三级编号数。
前三级含 "-" 或为初步编号的 EC 不计入
*/
func (c *Classifier) Ec3PerFamily(ctx context.Context) (map[string]int, error) {
	db, err := c.rawDB()
	if err != nil {
		return nil, err
	}
	var rows []familyEc
	err = db.SelectContext(ctx, &rows, `SELECT DISTINCT pc.cath_number, pe.ec_number FROM protein_cath_superfamilies pc
		JOIN protein_ec_entries pe ON pe.protein_accession = pc.protein_accession`)
	if err != nil {
		return nil, utils.WrapError(err, "select family ec numbers fail")
	}

	families := make(map[string]map[string]struct{})
	for _, row := range rows {
		ec3, ok := Ec3(row.EcNumber)
		if !ok {
			continue
		}
		set, exists := families[row.CathNumber]
		if !exists {
			set = make(map[string]struct{})
			families[row.CathNumber] = set
		}
		set[ec3] = struct{}{}
	}

	ret := make(map[string]int, len(families))
	for family, set := range families {
		ret[family] = len(set)
	}
	return ret, nil
}

// Ec3 返回 EC 编号的前三级，如 "3.1.1.1" -> "3.1.1"
func Ec3(number string) (string, bool) {
	parts := strings.Split(number, ".")
	if len(parts) < 3 {
		return "", false
	}
	for _, part := range parts[:3] {
		if part == "" || part == "-" || strings.HasPrefix(part, "n") {
			return "", false
		}
	}
	return strings.Join(parts[:3], "."), true
}

// CountByLength 长度在闭区间 [min, max] 内的蛋白数，max 为 0 表示不设上限
func (c *Classifier) CountByLength(ctx context.Context, min, max int) (int64, error) {
	return biodb.NewProteinRepo(c.setting.GetDatabase()).CountBySeqLength(ctx, min, max)
}
