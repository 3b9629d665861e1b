package biodb

import (
	"context"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"pseudoenzymes-backend/utils"
)

type ProteinRepo struct {
	db *gorm.DB
}

func NewProteinRepo(db *gorm.DB) *ProteinRepo {
	return &ProteinRepo{db: db}
}

func (r *ProteinRepo) WithTx(tx *gorm.DB) *ProteinRepo {
	return &ProteinRepo{db: tx}
}

// Reviewed 返回已存在的 accession 及其 reviewed 标记
func (r *ProteinRepo) Reviewed(ctx context.Context, accessions []string) (map[string]bool, error) {
	ret := make(map[string]bool, len(accessions))
	for _, part := range utils.SliceChunk(utils.SliceUnique(accessions), lookupChunkSize()) {
		var found []Protein
		err := r.db.WithContext(ctx).Select("accession", "reviewed").Where("accession IN ?", part).Find(&found).Error
		if err != nil {
			return nil, utils.WrapError(err, "select proteins by accession fail")
		}
		for _, p := range found {
			ret[p.Accession] = p.Reviewed
		}
	}
	return ret, nil
}

func (r *ProteinRepo) Existing(ctx context.Context, accessions []string) (map[string]struct{}, error) {
	return existingKeys(ctx, r.db, &Protein{}, "accession", accessions)
}

func (r *ProteinRepo) AllAccessions(ctx context.Context) (map[string]struct{}, error) {
	return allKeys[string](ctx, r.db, &Protein{}, "accession")
}

func (r *ProteinRepo) Create(ctx context.Context, proteins []Protein) (int64, error) {
	return InsertIgnore(ctx, r.db, proteins)
}

/*
Promote 把 TrEMBL 条目升级为 SwissProt，只修改 reviewed 标记
*/
func (r *ProteinRepo) Promote(ctx context.Context, accessions []string) (int64, error) {
	var affected int64
	for _, part := range utils.SliceChunk(utils.SliceUnique(accessions), lookupChunkSize()) {
		res := r.db.WithContext(ctx).Model(&Protein{}).
			Where("accession IN ? AND reviewed = ?", part, false).
			Update("reviewed", true)
		if res.Error != nil {
			return affected, utils.WrapError(res.Error, "promote proteins fail")
		}
		affected += res.RowsAffected
	}
	return affected, nil
}

// SetSecondaryAccessions 覆盖一个蛋白的历史 accession 列表
func (r *ProteinRepo) SetSecondaryAccessions(ctx context.Context, accession string, secondary []string) error {
	err := r.db.WithContext(ctx).Model(&Protein{}).
		Where("accession = ?", accession).
		Update("secondary_accessions", datatypes.JSONSlice[string](secondary)).Error
	return utils.WrapErrorf(err, "update secondary accessions of [%s] fail", accession)
}

/*
DropSecondary 从全部蛋白的历史 accession 列表中去掉 primaries，返回被修改的蛋白数。
按 lookupChunkSize 分块，每块用一次 JSON 数组包含查询找出受影响的行
*/
func (r *ProteinRepo) DropSecondary(ctx context.Context, primaries []string) (int64, error) {
	var fixed int64
	for _, part := range utils.SliceChunk(utils.SliceUnique(primaries), lookupChunkSize()) {
		drop := make(map[string]struct{}, len(part))
		exprs := make([]clause.Expression, 0, len(part))
		for _, accession := range part {
			drop[accession] = struct{}{}
			exprs = append(exprs, datatypes.JSONArrayQuery("secondary_accessions").Contains(accession))
		}

		var found []Protein
		err := r.db.WithContext(ctx).Select("accession", "secondary_accessions").
			Where(clause.Or(exprs...)).Find(&found).Error
		if err != nil {
			return fixed, utils.WrapError(err, "select proteins by secondary accession fail")
		}

		for _, p := range found {
			kept := make([]string, 0, len(p.SecondaryAccessions))
			for _, s := range p.SecondaryAccessions {
				if _, ok := drop[s]; !ok {
					kept = append(kept, s)
				}
			}
			if len(kept) == len(p.SecondaryAccessions) {
				continue
			}
			if err = r.SetSecondaryAccessions(ctx, p.Accession, kept); err != nil {
				return fixed, err
			}
			fixed++
		}
	}
	return fixed, nil
}

// ReviewedAccessions 返回全部 SwissProt 条目的 accession
func (r *ProteinRepo) ReviewedAccessions(ctx context.Context) (map[string]struct{}, error) {
	return allKeys[string](ctx, r.db.Where("reviewed = ?", true), &Protein{}, "accession")
}

type accessionSequence struct {
	Accession string
	Seq       string
}

// SequencesOf 返回 accession -> 完整序列
func (r *ProteinRepo) SequencesOf(ctx context.Context, accessions []string) (map[string]string, error) {
	ret := make(map[string]string, len(accessions))
	for _, part := range utils.SliceChunk(utils.SliceUnique(accessions), lookupChunkSize()) {
		var found []accessionSequence
		err := r.db.WithContext(ctx).Model(&Protein{}).
			Select("proteins.accession AS accession, sequences.seq AS seq").
			Joins("JOIN sequences ON sequences.id = proteins.sequence_id").
			Where("proteins.accession IN ?", part).
			Scan(&found).Error
		if err != nil {
			return nil, utils.WrapError(err, "select protein sequences fail")
		}
		for _, s := range found {
			ret[s.Accession] = s.Seq
		}
	}
	return ret, nil
}

func (r *ProteinRepo) Get(ctx context.Context, accession string) (*Protein, error) {
	var protein Protein
	err := r.db.WithContext(ctx).Preload("Sequence").Where("accession = ?", accession).Take(&protein).Error
	if err != nil {
		return nil, err
	}
	return &protein, nil
}

/*
Delete 删除 accession 以及它的全部关联行，序列保留，由 SequenceRepo.DeleteOrphans 清理
*/
func (r *ProteinRepo) Delete(ctx context.Context, accessions []string) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, part := range utils.SliceChunk(utils.SliceUnique(accessions), lookupChunkSize()) {
			for _, link := range []interface{}{
				&ProteinGoTerm{}, &ProteinEcEntry{}, &ProteinCathSuperfamily{},
				&ProteinPdbEntry{}, &ProteinKeyword{},
			} {
				if err := tx.Where("protein_accession IN ?", part).Delete(link).Error; err != nil {
					return utils.WrapError(err, "delete protein links fail")
				}
			}

			res := tx.Where("accession IN ?", part).Delete(&Protein{})
			if res.Error != nil {
				return utils.WrapError(res.Error, "delete proteins fail")
			}
			deleted += res.RowsAffected
		}
		return nil
	})
	return deleted, err
}

// CountBySeqLength 统计 min <= 长度 <= max 的蛋白，max <= 0 表示不设上限
func (r *ProteinRepo) CountBySeqLength(ctx context.Context, min, max int) (int64, error) {
	query := r.db.WithContext(ctx).Model(&Protein{}).Where("seq_length >= ?", min)
	if max > 0 {
		query = query.Where("seq_length <= ?", max)
	}

	var count int64
	err := query.Count(&count).Error
	return count, utils.WrapError(err, "count proteins by length fail")
}
