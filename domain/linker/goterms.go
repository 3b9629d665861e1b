package linker

import (
	"context"
	"github.com/sirupsen/logrus"
	"pseudoenzymes-backend/domain/parser"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
)

type goKnown struct {
	proteins map[string]struct{}
	goTerms  map[int]struct{}
	ecoTerms map[string]struct{}
}

func (l *Linker) loadGoKnown(ctx context.Context) (*goKnown, error) {
	db := l.db()
	proteins, err := biodb.NewProteinRepo(db).AllAccessions(ctx)
	if err != nil {
		return nil, utils.WrapError(err, "load protein accessions fail")
	}
	goTerms, err := biodb.NewGoRepo(db).AllTermIDs(ctx)
	if err != nil {
		return nil, utils.WrapError(err, "load go term ids fail")
	}
	ecoTerms, err := biodb.NewEcoRepo(db).AllTermIDs(ctx)
	if err != nil {
		return nil, utils.WrapError(err, "load eco term ids fail")
	}
	return &goKnown{proteins: proteins, goTerms: goTerms, ecoTerms: ecoTerms}, nil
}

/*
GoFromGPA 从 GPA 文件导入蛋白与 GO 术语的关联，qualifier 与 ECO 证据按原样保存
*/
func (l *Linker) GoFromGPA(ctx context.Context, path string) (biodb.SchemaStepStats, error) {
	return l.linkGo(ctx, "go-gpa", func(fn func(parser.GoAnnotation) error) (parser.Stats, error) {
		return l.setting.Parser.ReadGPAFile(path, fn)
	})
}

/*
GoFromGAF 从 GAF 文件导入关联，证据代码通过 mappingPath（gaf-eco-mapping.txt）转换为 ECO 编号
*/
func (l *Linker) GoFromGAF(ctx context.Context, path, mappingPath string) (biodb.SchemaStepStats, error) {
	mapping, _, err := l.setting.Parser.ReadGafEcoMappingFile(mappingPath)
	if err != nil {
		return biodb.SchemaStepStats{}, utils.WrapError(err, "read gaf eco mapping fail")
	}
	return l.linkGo(ctx, "go-gaf", func(fn func(parser.GoAnnotation) error) (parser.Stats, error) {
		return l.setting.Parser.ReadGAFFile(path, mapping, fn)
	})
}

func (l *Linker) linkGo(ctx context.Context, step string, read func(fn func(parser.GoAnnotation) error) (parser.Stats, error)) (biodb.SchemaStepStats, error) {
	var stats biodb.SchemaStepStats
	known, err := l.loadGoKnown(ctx)
	if err != nil {
		return stats, err
	}

	w := newWindow(l.setting.FlushSize, &stats, insertFlush[biodb.ProteinGoTerm](ctx, l.db(), &stats))
	parseStats, err := read(func(a parser.GoAnnotation) error {
		stats.Read++
		_, okProtein := known.proteins[a.Accession]
		_, okGo := known.goTerms[a.GoID]
		_, okEco := known.ecoTerms[a.EcoID]
		if !okProtein || !okGo || !okEco {
			l.unresolved(&stats, logrus.Fields{
				"accession": a.Accession,
				"go":        a.GoID,
				"eco":       a.EcoID,
			}, "drop go annotation: unknown reference")
			return nil
		}
		return w.add(biodb.ProteinGoTerm{
			ProteinAccession: a.Accession,
			GoTermID:         a.GoID,
			Qualifier:        a.Qualifier,
			EcoTermID:        a.EcoID,
		})
	})
	stats.Dropped += parseStats.Dropped
	if err != nil {
		return stats, utils.WrapError(err, "link go annotations fail")
	}
	if err = w.done(); err != nil {
		return stats, utils.WrapError(err, "link go annotations fail")
	}

	l.logStats(step, stats)
	return stats, nil
}
