package biodb

import (
	"context"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"pseudoenzymes-backend/utils"
)

type TaxonRepo struct {
	db *gorm.DB
}

func NewTaxonRepo(db *gorm.DB) *TaxonRepo {
	return &TaxonRepo{db: db}
}

func (r *TaxonRepo) WithTx(tx *gorm.DB) *TaxonRepo {
	return &TaxonRepo{db: tx}
}

func (r *TaxonRepo) Existing(ctx context.Context, taxids []int64) (map[int64]struct{}, error) {
	return existingKeys(ctx, r.db, &Taxon{}, "taxid", taxids)
}

func (r *TaxonRepo) AllTaxids(ctx context.Context) (map[int64]struct{}, error) {
	return allKeys[int64](ctx, r.db, &Taxon{}, "taxid")
}

func (r *TaxonRepo) Create(ctx context.Context, taxa []Taxon) (int64, error) {
	return InsertIgnore(ctx, r.db, taxa)
}

/*
MergedLists 读取所有带历史 taxid 的节点，返回 当前taxid -> 历史taxid 列表
*/
func (r *TaxonRepo) MergedLists(ctx context.Context) (map[int64][]int64, error) {
	ret := make(map[int64][]int64)
	var batch []Taxon
	err := r.db.WithContext(ctx).Select("taxid", "old_taxids").
		FindInBatches(&batch, lookupChunkSize(), func(tx *gorm.DB, batchNum int) error {
			for _, taxon := range batch {
				if len(taxon.OldTaxids) > 0 {
					ret[taxon.Taxid] = append([]int64(nil), taxon.OldTaxids...)
				}
			}
			return nil
		}).Error
	if err != nil {
		return nil, utils.WrapError(err, "select merged taxids fail")
	}
	return ret, nil
}

// SetOldTaxids 覆盖一个节点的历史 taxid 列表
func (r *TaxonRepo) SetOldTaxids(ctx context.Context, taxid int64, olds []int64) error {
	err := r.db.WithContext(ctx).Model(&Taxon{}).
		Where("taxid = ?", taxid).
		Update("old_taxids", datatypes.JSONSlice[int64](olds)).Error
	return utils.WrapErrorf(err, "update old taxids of [%d] fail", taxid)
}

// Children 返回父节点在 parents 中的全部子节点
func (r *TaxonRepo) Children(ctx context.Context, parents []int64) ([]int64, error) {
	var ret []int64
	for _, part := range utils.SliceChunk(parents, lookupChunkSize()) {
		var found []int64
		err := r.db.WithContext(ctx).Model(&Taxon{}).Where("parent_taxid IN ?", part).Pluck("taxid", &found).Error
		if err != nil {
			return nil, utils.WrapError(err, "select child taxa fail")
		}
		ret = append(ret, found...)
	}
	return ret, nil
}

func (r *TaxonRepo) Get(ctx context.Context, taxid int64) (*Taxon, error) {
	var taxon Taxon
	if err := r.db.WithContext(ctx).Where("taxid = ?", taxid).Take(&taxon).Error; err != nil {
		return nil, err
	}
	return &taxon, nil
}

// Edges 流式读取全部 (taxid, parent) 边
func (r *TaxonRepo) Edges(ctx context.Context, fn func(taxid, parent int64) error) error {
	rows, err := r.db.WithContext(ctx).Model(&Taxon{}).Select("taxid", "parent_taxid").Where("parent_taxid IS NOT NULL").Order("taxid").Rows()
	if err != nil {
		return utils.WrapError(err, "select taxon edges fail")
	}
	defer rows.Close()

	for rows.Next() {
		var taxid, parent int64
		if err = rows.Scan(&taxid, &parent); err != nil {
			return utils.WrapError(err, "scan taxon edge fail")
		}
		if err = fn(taxid, parent); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Taxa 按 taxid 顺序分批读取全部分类节点
func (r *TaxonRepo) Taxa(ctx context.Context, fn func(batch []Taxon) error) error {
	var batch []Taxon
	err := r.db.WithContext(ctx).Model(&Taxon{}).
		FindInBatches(&batch, lookupChunkSize(), func(tx *gorm.DB, batchNum int) error {
			return fn(batch)
		}).Error
	return utils.WrapError(err, "iterate taxa fail")
}
