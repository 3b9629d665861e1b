package reconcile

import (
	"context"
	"fmt"
	"gorm.io/gorm"
	"pseudoenzymes-backend/domain/parser"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
	"strconv"
)

/*
ontology 描述一种 OBO 本体如何落库

	prefix 术语前缀，如 "GO"；
	key 把去掉前缀的编号转为主键；
	term 由解析结果构造术语行；
*/
type ontology[K comparable, T any, R any] struct {
	name   string
	prefix string
	repo   func(db *gorm.DB) *biodb.TermRepo[K, T, R]
	key    func(id string) (K, error)
	term   func(id K, record parser.OboTerm) T
}

func goOntology() ontology[int, biodb.GoTerm, biodb.GoRelation] {
	return ontology[int, biodb.GoTerm, biodb.GoRelation]{
		name:   "go-terms",
		prefix: "GO",
		repo:   biodb.NewGoRepo,
		key:    strconv.Atoi,
		term: func(id int, record parser.OboTerm) biodb.GoTerm {
			return biodb.GoTerm{
				ID:         id,
				Name:       record.Name,
				Definition: record.Definition,
				Aspect:     record.Namespace,
				IsObsolete: record.IsObsolete,
			}
		},
	}
}

func ecoOntology() ontology[string, biodb.EcoTerm, biodb.EcoRelation] {
	return ontology[string, biodb.EcoTerm, biodb.EcoRelation]{
		name:   "eco-terms",
		prefix: "ECO",
		repo:   biodb.NewEcoRepo,
		key: func(id string) (string, error) {
			if len(id) != 7 {
				return "", fmt.Errorf("%w: ECO id [%s]", parser.ErrMalformed, id)
			}
			return id, nil
		},
		term: func(id string, record parser.OboTerm) biodb.EcoTerm {
			return biodb.EcoTerm{
				ID:         id,
				Name:       record.Name,
				Definition: record.Definition,
				IsObsolete: record.IsObsolete,
			}
		},
	}
}

type parsedTerm[K comparable] struct {
	id     K
	record parser.OboTerm
}

// GoTerms 导入 GO 术语与 is_a 关系
func (r *Reconciler) GoTerms(ctx context.Context, path string) (biodb.SchemaStepStats, error) {
	return loadOntology(ctx, r, path, goOntology())
}

// EcoTerms 导入 ECO 术语与 is_a 关系
func (r *Reconciler) EcoTerms(ctx context.Context, path string) (biodb.SchemaStepStats, error) {
	return loadOntology(ctx, r, path, ecoOntology())
}

/*
loadOntology 读入整个 OBO 文件后一次对比：
已存在的术语跳过；关系两端都必须是已知术语（文件中或库中），否则计为无法解析；
已存在的三元组跳过。
*/
func loadOntology[K comparable, T any, R any](ctx context.Context, r *Reconciler, path string, o ontology[K, T, R]) (biodb.SchemaStepStats, error) {
	var stats biodb.SchemaStepStats
	logger := r.setting.Logger.WithField("step", o.name)

	terms := make([]parsedTerm[K], 0)
	parseStats, err := r.setting.Parser.ReadOBOFile(path, o.prefix, func(record parser.OboTerm) error {
		id, err := o.key(record.ID)
		if err != nil {
			stats.Dropped++
			logger.Debugf("drop term: %v", err)
			return nil
		}
		terms = append(terms, parsedTerm[K]{id: id, record: record})
		return nil
	})
	stats.Read = parseStats.Records
	stats.Dropped += parseStats.Dropped
	if err != nil {
		return stats, utils.WrapError(err, "read ontology fail")
	}

	err = r.db().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := o.repo(tx)

		known, err := repo.AllTermIDs(ctx)
		if err != nil {
			return err
		}

		newTerms := make([]T, 0)
		for _, t := range terms {
			if _, ok := known[t.id]; ok {
				stats.Skipped++
				continue
			}
			known[t.id] = struct{}{}
			newTerms = append(newTerms, o.term(t.id, t.record))
		}
		created, err := repo.CreateTerms(ctx, newTerms)
		if err != nil {
			return utils.WrapError(err, "insert terms fail")
		}
		stats.Created += created

		triples, err := repo.Triples(ctx)
		if err != nil {
			return err
		}
		relations := make([]R, 0)
		for _, t := range terms {
			for _, parentID := range t.record.IsA {
				parent, err := o.key(parentID)
				if err != nil {
					stats.Unresolved++
					continue
				}
				if _, ok := known[parent]; !ok {
					stats.Unresolved++
					logger.Debugf("drop relation %v is_a %v: parent unknown", t.id, parent)
					continue
				}
				triple := biodb.Triple[K]{Term1: t.id, Relation: biodb.RelationIsA, Term2: parent}
				if _, ok := triples[triple]; ok {
					continue
				}
				triples[triple] = struct{}{}
				relations = append(relations, repo.NewRelation(triple))
			}
		}
		created, err = repo.CreateRelations(ctx, relations)
		if err != nil {
			return utils.WrapError(err, "insert relations fail")
		}
		stats.Created += created
		return nil
	})
	if err != nil {
		return stats, utils.WrapErrorf(err, "import ontology [%s] fail", path)
	}

	r.logStats(o.name, stats)
	return stats, nil
}
