package linker

import (
	"context"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"pseudoenzymes-backend/domain/parser"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
)

/*
CathDomains 导入 Gene3D 结构域：蛋白与 CATH 超家族的关联。
结构域区间 [start, end] 为 1 起始的闭区间，对应的片段 seq[start-1:end] 按 hash 去重后存入共享的序列表。
*/
func (l *Linker) CathDomains(ctx context.Context, path string) (biodb.SchemaStepStats, error) {
	var stats biodb.SchemaStepStats

	proteins, err := biodb.NewProteinRepo(l.db()).AllAccessions(ctx)
	if err != nil {
		return stats, utils.WrapError(err, "load protein accessions fail")
	}
	numbers, err := biodb.NewCathRepo(l.db()).AllNumbers(ctx)
	if err != nil {
		return stats, utils.WrapError(err, "load cath numbers fail")
	}

	w := newWindow(l.setting.FlushSize, &stats, func(records []parser.CathDomainRecord) error {
		return l.db().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return l.cathBatch(ctx, tx, &stats, records)
		})
	})
	parseStats, err := l.setting.Parser.ReadCathDomainsFile(path, func(record parser.CathDomainRecord) error {
		stats.Read++
		_, okProtein := proteins[record.Accession]
		_, okNumber := numbers[record.CathNumber]
		if !okProtein || !okNumber {
			l.unresolved(&stats, logrus.Fields{
				"accession": record.Accession,
				"cath":      record.CathNumber,
			}, "drop cath domain: unknown reference")
			return nil
		}
		return w.add(record)
	})
	stats.Dropped += parseStats.Dropped
	if err == nil {
		err = w.done()
	}
	if err != nil {
		return stats, utils.WrapError(err, "link cath domains fail")
	}

	l.logStats("cath-domains", stats)
	return stats, nil
}

func (l *Linker) cathBatch(ctx context.Context, tx *gorm.DB, stats *biodb.SchemaStepStats, records []parser.CathDomainRecord) error {
	accessions := make([]string, len(records))
	for i, record := range records {
		accessions[i] = record.Accession
	}
	seqs, err := biodb.NewProteinRepo(tx).SequencesOf(ctx, accessions)
	if err != nil {
		return utils.WrapError(err, "select protein sequences fail")
	}

	kept := make([]parser.CathDomainRecord, 0, len(records))
	fragments := make([]string, 0, len(records))
	for _, record := range records {
		seq := seqs[record.Accession]
		if record.EndPos > len(seq) {
			stats.Dropped++
			l.setting.Logger.WithFields(logrus.Fields{
				"accession": record.Accession,
				"start":     record.StartPos,
				"end":       record.EndPos,
				"length":    len(seq),
			}).Debug("drop cath domain: span out of sequence")
			continue
		}
		kept = append(kept, record)
		fragments = append(fragments, DomainFragment(seq, record.StartPos, record.EndPos))
	}

	seqIDs, _, err := biodb.NewSequenceRepo(tx).Ensure(ctx, fragments)
	if err != nil {
		return utils.WrapError(err, "ensure domain sequences fail")
	}

	rows := make([]biodb.ProteinCathSuperfamily, len(kept))
	for i, record := range kept {
		rows[i] = biodb.ProteinCathSuperfamily{
			ProteinAccession: record.Accession,
			CathNumber:       record.CathNumber,
			StartPos:         record.StartPos,
			EndPos:           record.EndPos,
			Evalue:           record.Evalue,
			SequenceID:       seqIDs[biodb.SequenceHash(fragments[i])],
		}
	}
	return insertFlush[biodb.ProteinCathSuperfamily](ctx, tx, stats)(rows)
}

// DomainFragment 返回 1 起始闭区间 [start, end] 的残基
func DomainFragment(seq string, start, end int) string {
	return seq[start-1 : end]
}
