package linker

import (
	"bytes"
	"context"
	"errors"
	"github.com/sirupsen/logrus"
	"pseudoenzymes-backend/domain/parser"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/repository/remote"
	"pseudoenzymes-backend/utils"
	"sort"
)

/*
PdbFromSifts 从 SIFTS 的 uniprot_pdb 映射导入蛋白与 PDB 条目的多对多关联。

库中没有的 accession 先暂存；文件读完后最多远程获取 MaxRemoteFetch 条，
通过 Reconciler 创建蛋白后再关联。条目不存在计为 Unresolved，其它获取失败使整个步骤失败。
*/
func (l *Linker) PdbFromSifts(ctx context.Context, path string) (biodb.SchemaStepStats, error) {
	var stats biodb.SchemaStepStats

	proteins, err := biodb.NewProteinRepo(l.db()).AllAccessions(ctx)
	if err != nil {
		return stats, utils.WrapError(err, "load protein accessions fail")
	}
	pdbIDs, err := biodb.NewPdbRepo(l.db()).AllIDs(ctx)
	if err != nil {
		return stats, utils.WrapError(err, "load pdb ids fail")
	}

	missing := make(map[string][]string)
	w := newWindow(l.setting.FlushSize, &stats, insertFlush[biodb.ProteinPdbEntry](ctx, l.db(), &stats))
	parseStats, err := l.setting.Parser.ReadSiftsFile(path, func(record parser.SiftsRecord) error {
		for _, pdbID := range record.PdbIDs {
			stats.Read++
			if _, ok := pdbIDs[pdbID]; !ok {
				l.unresolved(&stats, logrus.Fields{"accession": record.Accession, "pdb": pdbID}, "drop pdb link: unknown pdb entry")
				continue
			}
			if _, ok := proteins[record.Accession]; !ok {
				missing[record.Accession] = append(missing[record.Accession], pdbID)
				continue
			}
			if err := w.add(biodb.ProteinPdbEntry{ProteinAccession: record.Accession, PdbID: pdbID}); err != nil {
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
		return stats, utils.WrapError(err, "link pdb entries fail")
	}

	if err = l.linkMissingPdb(ctx, &stats, missing); err != nil {
		return stats, err
	}

	l.logStats("pdb-sifts", stats)
	return stats, nil
}

/*
linkMissingPdb 远程获取缺失的蛋白并关联，按 accession 排序后取前 MaxRemoteFetch 条
*/
func (l *Linker) linkMissingPdb(ctx context.Context, stats *biodb.SchemaStepStats, missing map[string][]string) error {
	if len(missing) == 0 {
		return nil
	}

	accessions := make([]string, 0, len(missing))
	for accession := range missing {
		accessions = append(accessions, accession)
	}
	sort.Strings(accessions)

	fetchable := accessions
	if l.setting.Fetcher == nil || l.setting.Reconciler == nil {
		fetchable = nil
	} else if len(fetchable) > l.setting.MaxRemoteFetch {
		fetchable = fetchable[:l.setting.MaxRemoteFetch]
	}
	for _, accession := range accessions[len(fetchable):] {
		stats.Unresolved += int64(len(missing[accession]))
	}
	if skipped := len(accessions) - len(fetchable); skipped > 0 {
		l.setting.Logger.Infof("%d unknown accessions in pdb mapping not fetched", skipped)
	}

	records := make([]parser.SwissProtRecord, 0, len(fetchable))
	links := make([]biodb.ProteinPdbEntry, 0)
	for _, accession := range fetchable {
		record, err := l.fetchRecord(ctx, accession)
		if errors.Is(err, remote.ErrNotFound) {
			stats.Unresolved += int64(len(missing[accession]))
			l.setting.Logger.WithField("accession", accession).Debug("entry not found remotely")
			continue
		}
		if err != nil {
			return utils.WrapErrorf(err, "fetch missing protein [%s] fail", accession)
		}
		records = append(records, record)
		for _, pdbID := range missing[accession] {
			links = append(links, biodb.ProteinPdbEntry{ProteinAccession: record.Accession(), PdbID: pdbID})
		}
	}
	if len(records) == 0 {
		return nil
	}

	taxids, err := l.setting.Reconciler.LoadTaxidMap(ctx)
	if err != nil {
		return err
	}
	created, err := l.setting.Reconciler.ProteinRecords(ctx, taxids, records)
	if err != nil {
		return utils.WrapError(err, "create fetched proteins fail")
	}
	l.setting.Logger.Infof("fetched %d proteins, created %d", len(records), created.Created)

	// 获取到但被导入时丢弃的条目不关联
	linkAccessions := make([]string, 0, len(links))
	for _, link := range links {
		linkAccessions = append(linkAccessions, link.ProteinAccession)
	}
	exists, err := biodb.NewProteinRepo(l.db()).Existing(ctx, linkAccessions)
	if err != nil {
		return err
	}
	kept := links[:0]
	for _, link := range links {
		if _, ok := exists[link.ProteinAccession]; !ok {
			stats.Unresolved++
			continue
		}
		kept = append(kept, link)
	}

	return insertFlush[biodb.ProteinPdbEntry](ctx, l.db(), stats)(kept)
}

// fetchRecord 获取并解析单条条目，条目可能已被合并到另一个主 accession
func (l *Linker) fetchRecord(ctx context.Context, accession string) (parser.SwissProtRecord, error) {
	body, err := l.setting.Fetcher.FetchEntry(ctx, accession)
	if err != nil {
		return parser.SwissProtRecord{}, err
	}

	var records []parser.SwissProtRecord
	_, err = l.setting.Parser.ReadSwissProt(bytes.NewReader(body), func(record parser.SwissProtRecord) error {
		records = append(records, record)
		return nil
	})
	if err != nil {
		return parser.SwissProtRecord{}, utils.WrapErrorf(err, "parse entry [%s] fail", accession)
	}
	if len(records) == 0 {
		return parser.SwissProtRecord{}, remote.ErrNotFound
	}
	return records[0], nil
}
