package reconcile

import (
	"context"
	"gorm.io/gorm"
	"pseudoenzymes-backend/domain/parser"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
)

/*
EcEntries 导入 EC 类别（enzclass.txt）和具体酶（enzyme.dat），已存在的编号跳过
*/
func (r *Reconciler) EcEntries(ctx context.Context, classesPath, datPath string) (biodb.SchemaStepStats, error) {
	var stats biodb.SchemaStepStats
	p := r.setting.Parser
	entries := make([]biodb.EcEntry, 0)
	synonyms := make([]biodb.EcSynonym, 0)

	classStats, err := p.ReadEcClassesFile(classesPath, func(record parser.EcClassRecord) error {
		entries = append(entries, biodb.EcEntry{Number: record.Number, Description: record.Description})
		return nil
	})
	stats.Read += classStats.Records
	stats.Dropped += classStats.Dropped
	if err != nil {
		return stats, utils.WrapError(err, "read ec classes fail")
	}

	datStats, err := p.ReadEcDatFile(datPath, func(record parser.EcDatRecord) error {
		entries = append(entries, biodb.EcEntry{
			Number:        record.Number,
			Name:          record.Name,
			Description:   record.Description,
			Preliminary:   record.Preliminary,
			Deleted:       record.Deleted,
			Transferred:   record.Transferred,
			TransferredTo: record.TransferredTo,
		})
		for _, synonym := range record.Synonyms {
			synonyms = append(synonyms, biodb.EcSynonym{EcNumber: record.Number, Synonym: synonym})
		}
		return nil
	})
	stats.Read += datStats.Records
	stats.Dropped += datStats.Dropped
	if err != nil {
		return stats, utils.WrapError(err, "read enzyme.dat fail")
	}

	err = r.db().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := biodb.NewEcRepo(tx)
		numbers := make([]string, len(entries))
		for i, entry := range entries {
			numbers[i] = entry.Number
		}
		existing, err := repo.Existing(ctx, numbers)
		if err != nil {
			return err
		}

		toCreate := make([]biodb.EcEntry, 0, len(entries))
		for _, entry := range entries {
			if _, ok := existing[entry.Number]; ok {
				stats.Skipped++
				continue
			}
			existing[entry.Number] = struct{}{}
			toCreate = append(toCreate, entry)
		}
		created, err := repo.Create(ctx, toCreate)
		if err != nil {
			return err
		}
		stats.Created += created

		created, err = repo.CreateSynonyms(ctx, synonyms)
		stats.Created += created
		return err
	})
	if err != nil {
		return stats, utils.WrapError(err, "import ec entries fail")
	}

	r.logStats("ec-entries", stats)
	return stats, nil
}

/*
EcSynonyms 从 IntEnz XML 导入同义名，只保留库中已有的 EC 编号
*/
func (r *Reconciler) EcSynonyms(ctx context.Context, path string) (biodb.SchemaStepStats, error) {
	var stats biodb.SchemaStepStats
	repo := biodb.NewEcRepo(r.db())

	known, err := repo.AllNumbers(ctx)
	if err != nil {
		return stats, err
	}

	synonyms := make([]biodb.EcSynonym, 0)
	seen := make(map[biodb.EcSynonym]struct{})
	parseStats, err := r.setting.Parser.ReadIntEnzSynonymsFile(path, func(record parser.EcSynonymRecord) error {
		if _, ok := known[record.Number]; !ok {
			stats.Unresolved++
			return nil
		}
		synonym := biodb.EcSynonym{EcNumber: record.Number, Synonym: record.Synonym}
		if _, dup := seen[synonym]; dup {
			return nil
		}
		seen[synonym] = struct{}{}
		synonyms = append(synonyms, synonym)
		return nil
	})
	stats.Read = parseStats.Records
	stats.Dropped = parseStats.Dropped
	if err != nil {
		return stats, utils.WrapError(err, "read intenz fail")
	}

	created, err := repo.CreateSynonyms(ctx, synonyms)
	stats.Created = created
	stats.Skipped = int64(len(synonyms)) - created
	if err != nil {
		return stats, utils.WrapError(err, "insert ec synonyms fail")
	}

	r.logStats("ec-synonyms", stats)
	return stats, nil
}

// CathSuperfamilies 导入 CATH 超家族名称
func (r *Reconciler) CathSuperfamilies(ctx context.Context, path string) (biodb.SchemaStepStats, error) {
	var stats biodb.SchemaStepStats
	superfamilies := make([]biodb.CathSuperfamily, 0)

	parseStats, err := r.setting.Parser.ReadCathNamesFile(path, func(record parser.CathNameRecord) error {
		superfamilies = append(superfamilies, biodb.CathSuperfamily{Number: record.Number, Name: record.Name})
		return nil
	})
	stats.Read = parseStats.Records
	stats.Dropped = parseStats.Dropped
	if err != nil {
		return stats, utils.WrapError(err, "read cath names fail")
	}

	repo := biodb.NewCathRepo(r.db())
	numbers := make([]string, len(superfamilies))
	for i, s := range superfamilies {
		numbers[i] = s.Number
	}
	existing, err := repo.Existing(ctx, numbers)
	if err != nil {
		return stats, err
	}

	toCreate := make([]biodb.CathSuperfamily, 0, len(superfamilies))
	for _, s := range superfamilies {
		if _, ok := existing[s.Number]; ok {
			stats.Skipped++
			continue
		}
		existing[s.Number] = struct{}{}
		toCreate = append(toCreate, s)
	}
	created, err := repo.Create(ctx, toCreate)
	stats.Created = created
	if err != nil {
		return stats, utils.WrapError(err, "insert cath superfamilies fail")
	}

	r.logStats("cath-superfamilies", stats)
	return stats, nil
}

// PdbEntries 导入 PDB entries.idx
func (r *Reconciler) PdbEntries(ctx context.Context, path string) (biodb.SchemaStepStats, error) {
	var stats biodb.SchemaStepStats
	repo := biodb.NewPdbRepo(r.db())

	existing, err := repo.AllIDs(ctx)
	if err != nil {
		return stats, err
	}

	toCreate := make([]biodb.PdbEntry, 0)
	parseStats, err := r.setting.Parser.ReadPdbEntriesFile(path, func(record parser.PdbEntryRecord) error {
		if _, ok := existing[record.PdbID]; ok {
			stats.Skipped++
			return nil
		}
		existing[record.PdbID] = struct{}{}
		toCreate = append(toCreate, biodb.PdbEntry{
			PdbID:  record.PdbID,
			Title:  record.Title,
			Date:   record.Date,
			Method: record.Method,
		})
		return nil
	})
	stats.Read = parseStats.Records
	stats.Dropped = parseStats.Dropped
	if err != nil {
		return stats, utils.WrapError(err, "read pdb entries fail")
	}

	created, err := repo.Create(ctx, toCreate)
	stats.Created = created
	if err != nil {
		return stats, utils.WrapError(err, "insert pdb entries fail")
	}

	r.logStats("pdb-entries", stats)
	return stats, nil
}

/*
Prune 删除上游已经废弃的 SwissProt 条目：库中 reviewed 为真、但不再是 path 中任何记录主 accession 的蛋白，
连同它们的关联行一起删除，然后清理不再被引用的序列。格式错误的记录仍算作当前条目
*/
func (r *Reconciler) Prune(ctx context.Context, path string) (biodb.SchemaStepStats, error) {
	var stats biodb.SchemaStepStats

	current := make(map[string]struct{})
	parseStats, err := r.setting.Parser.ReadSwissProtAccessionsFile(path, func(accession string) error {
		current[accession] = struct{}{}
		return nil
	})
	stats.Read = parseStats.Records
	stats.Dropped = parseStats.Dropped
	if err != nil {
		return stats, utils.WrapError(err, "read current accessions fail")
	}
	if len(current) == 0 {
		r.setting.Logger.Warnf("no record in [%s], prune skipped", path)
		return stats, nil
	}

	proteinRepo := biodb.NewProteinRepo(r.db())
	reviewed, err := proteinRepo.ReviewedAccessions(ctx)
	if err != nil {
		return stats, err
	}

	obsolete := make([]string, 0)
	for accession := range reviewed {
		if _, ok := current[accession]; !ok {
			obsolete = append(obsolete, accession)
		}
	}

	deleted, err := proteinRepo.Delete(ctx, obsolete)
	stats.Deleted = deleted
	if err != nil {
		return stats, utils.WrapError(err, "delete obsolete proteins fail")
	}

	orphans, err := biodb.NewSequenceRepo(r.db()).DeleteOrphans(ctx)
	if err != nil {
		return stats, err
	}
	r.setting.Logger.Infof("pruned %d obsolete proteins, %d orphan sequences", deleted, orphans)

	r.logStats("prune", stats)
	return stats, nil
}
