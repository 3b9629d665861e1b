package linker

import (
	"context"
	"github.com/sirupsen/logrus"
	"pseudoenzymes-backend/domain/parser"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
)

func (l *Linker) loadEcKnown(ctx context.Context) (proteins, numbers map[string]struct{}, err error) {
	proteins, err = biodb.NewProteinRepo(l.db()).AllAccessions(ctx)
	if err != nil {
		return nil, nil, utils.WrapError(err, "load protein accessions fail")
	}
	numbers, err = biodb.NewEcRepo(l.db()).AllNumbers(ctx)
	if err != nil {
		return nil, nil, utils.WrapError(err, "load ec numbers fail")
	}
	return proteins, numbers, nil
}

func (l *Linker) ecLink(stats *biodb.SchemaStepStats, w *window[biodb.ProteinEcEntry], proteins, numbers map[string]struct{}, accession, number string) error {
	stats.Read++
	_, okProtein := proteins[accession]
	_, okNumber := numbers[number]
	if !okProtein || !okNumber {
		l.unresolved(stats, logrus.Fields{"accession": accession, "ec": number}, "drop ec link: unknown reference")
		return nil
	}
	return w.add(biodb.ProteinEcEntry{ProteinAccession: accession, EcNumber: number})
}

/*
EcFromSwissProt 从 SwissProt DE 块的 EC= 编号导入蛋白与 EC 的关联
*/
func (l *Linker) EcFromSwissProt(ctx context.Context, path string) (biodb.SchemaStepStats, error) {
	var stats biodb.SchemaStepStats
	proteins, numbers, err := l.loadEcKnown(ctx)
	if err != nil {
		return stats, err
	}

	w := newWindow(l.setting.FlushSize, &stats, insertFlush[biodb.ProteinEcEntry](ctx, l.db(), &stats))
	parseStats, err := l.setting.Parser.ReadSwissProtFile(path, func(record parser.SwissProtRecord) error {
		for _, number := range record.EcNumbers {
			if err := l.ecLink(&stats, w, proteins, numbers, record.Accession(), number); err != nil {
				return err
			}
		}
		return nil
	})
	stats.Dropped += parseStats.Dropped
	if err == nil {
		err = w.done()
	}
	if err != nil {
		return stats, utils.WrapError(err, "link swissprot ec numbers fail")
	}

	l.logStats("ec-swissprot", stats)
	return stats, nil
}

/*
EcFromEnzymeDat 从 enzyme.dat 的 DR 行导入关联，只保留库中已有的蛋白
*/
func (l *Linker) EcFromEnzymeDat(ctx context.Context, path string) (biodb.SchemaStepStats, error) {
	var stats biodb.SchemaStepStats
	proteins, numbers, err := l.loadEcKnown(ctx)
	if err != nil {
		return stats, err
	}

	w := newWindow(l.setting.FlushSize, &stats, insertFlush[biodb.ProteinEcEntry](ctx, l.db(), &stats))
	parseStats, err := l.setting.Parser.ReadEcDatFile(path, func(record parser.EcDatRecord) error {
		for _, accession := range record.Accessions {
			if err := l.ecLink(&stats, w, proteins, numbers, accession, record.Number); err != nil {
				return err
			}
		}
		return nil
	})
	stats.Dropped += parseStats.Dropped
	if err == nil {
		err = w.done()
	}
	if err != nil {
		return stats, utils.WrapError(err, "link enzyme dat fail")
	}

	l.logStats("ec-enzyme-dat", stats)
	return stats, nil
}
