package reconcile

import (
	"context"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"pseudoenzymes-backend/domain/parser"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
)

const maxAccessionLength = 10

/*
proteinRun 一次 UniProt 文件导入的状态。

	taxids 物种映射，整个文件只加载一次；
	seen 本次已处理的主 accession，用于过滤历史 accession；
	created 本次新建的主 accession，结束时从其它蛋白的历史 accession 中去掉；
*/
type proteinRun struct {
	taxids  TaxidMap
	seen    map[string]struct{}
	created []string
	stats   biodb.SchemaStepStats
}

func newProteinRun(taxids TaxidMap) *proteinRun {
	return &proteinRun{
		taxids: taxids,
		seen:   make(map[string]struct{}),
	}
}

/*
Proteins 导入 UniProt 文本文件（SwissProt 或 TrEMBL 格式）。

每 ParseSize 条记录为一批，每批一个事务：
已存在的 accession 跳过，其中 TrEMBL 条目遇到 reviewed 记录时只升级 reviewed 标记；
序列按 hash 去重；taxid 经过合并映射，无法映射时为空；关键词规范化后关联。
*/
func (r *Reconciler) Proteins(ctx context.Context, path string) (biodb.SchemaStepStats, error) {
	taxids, err := r.LoadTaxidMap(ctx)
	if err != nil {
		return biodb.SchemaStepStats{}, err
	}
	run := newProteinRun(taxids)

	batch := make([]parser.SwissProtRecord, 0, r.setting.ParseSize)
	parseStats, err := r.setting.Parser.ReadSwissProtFile(path, func(record parser.SwissProtRecord) error {
		batch = append(batch, record)
		if len(batch) < r.setting.ParseSize {
			return nil
		}
		err := r.proteinBatch(ctx, run, batch)
		batch = batch[:0]
		return err
	})
	run.stats.Dropped += parseStats.Dropped
	if err != nil {
		return run.stats, utils.WrapError(err, "import proteins fail")
	}
	if err = r.proteinBatch(ctx, run, batch); err != nil {
		return run.stats, utils.WrapError(err, "import proteins fail")
	}

	if err = r.fixSecondaryCollisions(ctx, run); err != nil {
		return run.stats, err
	}

	r.logStats("proteins", run.stats)
	return run.stats, nil
}

/*
ProteinRecords 导入已经解析好的记录，单独获取的条目（如 PDB 关联时按需下载的条目）走这里
*/
func (r *Reconciler) ProteinRecords(ctx context.Context, taxids TaxidMap, records []parser.SwissProtRecord) (biodb.SchemaStepStats, error) {
	run := newProteinRun(taxids)
	if err := r.proteinBatch(ctx, run, records); err != nil {
		return run.stats, err
	}
	if err := r.fixSecondaryCollisions(ctx, run); err != nil {
		return run.stats, err
	}
	return run.stats, nil
}

func (r *Reconciler) proteinBatch(ctx context.Context, run *proteinRun, records []parser.SwissProtRecord) error {
	if len(records) == 0 {
		return nil
	}
	logger := r.setting.Logger

	// 批内按 accession 去重，先出现的为准
	unique := make([]parser.SwissProtRecord, 0, len(records))
	inBatch := make(map[string]struct{}, len(records))
	for _, record := range records {
		run.stats.Read++
		accession := record.Accession()
		if len(accession) > maxAccessionLength {
			run.stats.Dropped++
			logger.WithField("accession", accession).Debug("drop record: accession too long")
			continue
		}
		if _, dup := inBatch[accession]; dup {
			run.stats.Skipped++
			continue
		}
		inBatch[accession] = struct{}{}
		unique = append(unique, record)
	}

	return r.db().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proteinRepo := biodb.NewProteinRepo(tx)

		existing, err := proteinRepo.Reviewed(ctx, utils.SetToSlice(inBatch))
		if err != nil {
			return err
		}

		toCreate := make([]parser.SwissProtRecord, 0, len(unique))
		toPromote := make([]string, 0)
		for _, record := range unique {
			wasReviewed, ok := existing[record.Accession()]
			switch {
			case !ok:
				toCreate = append(toCreate, record)
			case record.Reviewed && !wasReviewed:
				toPromote = append(toPromote, record.Accession())
			default:
				run.stats.Skipped++
			}
		}

		promoted, err := proteinRepo.Promote(ctx, toPromote)
		if err != nil {
			return err
		}
		run.stats.Updated += promoted

		if err = r.createProteins(ctx, tx, run, inBatch, toCreate); err != nil {
			return err
		}

		for accession := range inBatch {
			run.seen[accession] = struct{}{}
		}
		return nil
	})
}

func (r *Reconciler) createProteins(ctx context.Context, tx *gorm.DB, run *proteinRun, inBatch map[string]struct{}, records []parser.SwissProtRecord) error {
	if len(records) == 0 {
		return nil
	}

	seqs := make([]string, len(records))
	for i, record := range records {
		seqs[i] = record.Sequence
	}
	seqIDs, _, err := biodb.NewSequenceRepo(tx).Ensure(ctx, seqs)
	if err != nil {
		return utils.WrapError(err, "ensure sequences fail")
	}

	secondaries := make([]string, 0)
	for _, record := range records {
		secondaries = append(secondaries, record.SecondaryAccessions()...)
	}
	collide, err := biodb.NewProteinRepo(tx).Existing(ctx, secondaries)
	if err != nil {
		return err
	}

	proteins := make([]biodb.Protein, 0, len(records))
	keywordLinks := make([]biodb.ProteinKeyword, 0)
	keywordNames := make([]string, 0)
	for _, record := range records {
		accession := record.Accession()
		secondary := r.filterSecondary(run, accession, record.SecondaryAccessions(), inBatch, collide)

		proteins = append(proteins, biodb.Protein{
			Accession:           accession,
			EntryName:           record.EntryName,
			Name:                record.Name,
			Comment:             record.Comment,
			SecondaryAccessions: datatypes.JSONSlice[string](secondary),
			Reviewed:            record.Reviewed,
			Taxid:               run.taxids.Resolve(record.Taxid),
			SeqLength:           len(record.Sequence),
			Features:            toFeatures(record.Features),
			SequenceID:          seqIDs[biodb.SequenceHash(record.Sequence)],
		})
		run.created = append(run.created, accession)

		for _, keyword := range CleanKeywords(record.Keywords) {
			keywordNames = append(keywordNames, keyword)
			keywordLinks = append(keywordLinks, biodb.ProteinKeyword{ProteinAccession: accession, KeywordName: keyword})
		}
	}

	created, err := biodb.NewProteinRepo(tx).Create(ctx, proteins)
	if err != nil {
		return utils.WrapError(err, "insert proteins fail")
	}
	run.stats.Created += created

	keywordRepo := biodb.NewKeywordRepo(tx)
	if _, err = keywordRepo.Ensure(ctx, keywordNames); err != nil {
		return utils.WrapError(err, "insert keywords fail")
	}
	if _, err = keywordRepo.Link(ctx, keywordLinks); err != nil {
		return utils.WrapError(err, "insert protein keywords fail")
	}
	return nil
}

// filterSecondary 去掉与任何主 accession 相同的历史 accession
func (r *Reconciler) filterSecondary(run *proteinRun, accession string, secondary []string, inBatch, collide map[string]struct{}) []string {
	ret := make([]string, 0, len(secondary))
	for _, s := range secondary {
		_, a := inBatch[s]
		_, b := collide[s]
		_, c := run.seen[s]
		if a || b || c || s == accession {
			r.setting.Logger.WithFields(logrus.Fields{
				"accession": accession,
				"secondary": s,
			}).Debug("secondary accession collides with a primary accession, removed")
			continue
		}
		ret = append(ret, s)
	}
	return ret
}

/*
fixSecondaryCollisions 本次新建的主 accession 不能再出现在任何蛋白（包括之前导入的）的历史 accession 中
*/
func (r *Reconciler) fixSecondaryCollisions(ctx context.Context, run *proteinRun) error {
	fixed, err := biodb.NewProteinRepo(r.db()).DropSecondary(ctx, run.created)
	if err != nil {
		return utils.WrapError(err, "remove colliding secondary accessions fail")
	}
	if fixed > 0 {
		r.setting.Logger.Infof("removed colliding secondary accessions from %d proteins", fixed)
	}
	return nil
}

func toFeatures(features []parser.Feature) datatypes.JSONSlice[biodb.Feature] {
	if len(features) == 0 {
		return nil
	}
	ret := make(datatypes.JSONSlice[biodb.Feature], len(features))
	for i, f := range features {
		ret[i] = biodb.Feature{Type: f.Type, Start: f.Start, End: f.End, Note: f.Note}
	}
	return ret
}
