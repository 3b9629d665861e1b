package biodb

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"gorm.io/gorm"
	"pseudoenzymes-backend/utils"
)

// SequenceHash 序列文本的 128 位 MD5 摘要，十六进制
func SequenceHash(seq string) string {
	sum := md5.Sum([]byte(seq))
	return hex.EncodeToString(sum[:])
}

func NewSequence(seq string) Sequence {
	return Sequence{Hash: SequenceHash(seq), Seq: seq, Length: len(seq)}
}

type SequenceRepo struct {
	db *gorm.DB
}

func NewSequenceRepo(db *gorm.DB) *SequenceRepo {
	return &SequenceRepo{db: db}
}

func (r *SequenceRepo) WithTx(tx *gorm.DB) *SequenceRepo {
	return &SequenceRepo{db: tx}
}

// IDsByHash 返回已存在序列的 hash -> id
func (r *SequenceRepo) IDsByHash(ctx context.Context, hashes []string) (map[string]uint, error) {
	ret := make(map[string]uint, len(hashes))
	for _, part := range utils.SliceChunk(utils.SliceUnique(hashes), lookupChunkSize()) {
		var found []Sequence
		err := r.db.WithContext(ctx).Select("id", "hash").Where("hash IN ?", part).Find(&found).Error
		if err != nil {
			return nil, utils.WrapError(err, "select sequences by hash fail")
		}
		for _, s := range found {
			ret[s.Hash] = s.ID
		}
	}
	return ret, nil
}

func (r *SequenceRepo) Create(ctx context.Context, sequences []Sequence) (int64, error) {
	return InsertIgnore(ctx, r.db, sequences)
}

/*
Ensure 保证 seqs 中的每条序列都已入库，返回 hash -> id。
已存在的序列只查询不写入，批内重复的序列只写一次。
*/
func (r *SequenceRepo) Ensure(ctx context.Context, seqs []string) (map[string]uint, int64, error) {
	hashes := make([]string, 0, len(seqs))
	byHash := make(map[string]string, len(seqs))
	for _, seq := range seqs {
		hash := SequenceHash(seq)
		if _, ok := byHash[hash]; !ok {
			byHash[hash] = seq
			hashes = append(hashes, hash)
		}
	}

	ids, err := r.IDsByHash(ctx, hashes)
	if err != nil {
		return nil, 0, err
	}

	missing := make([]string, 0)
	toCreate := make([]Sequence, 0)
	for _, hash := range hashes {
		if _, ok := ids[hash]; !ok {
			missing = append(missing, hash)
			toCreate = append(toCreate, NewSequence(byHash[hash]))
		}
	}
	if len(toCreate) == 0 {
		return ids, 0, nil
	}

	created, err := r.Create(ctx, toCreate)
	if err != nil {
		return nil, created, err
	}
	createdIDs, err := r.IDsByHash(ctx, missing)
	if err != nil {
		return nil, created, err
	}
	for hash, id := range createdIDs {
		ids[hash] = id
	}
	return ids, created, nil
}

func (r *SequenceRepo) SeqByIDs(ctx context.Context, ids []uint) (map[uint]string, error) {
	ret := make(map[uint]string, len(ids))
	for _, part := range utils.SliceChunk(utils.SliceUnique(ids), lookupChunkSize()) {
		var found []Sequence
		if err := r.db.WithContext(ctx).Select("id", "seq").Where("id IN ?", part).Find(&found).Error; err != nil {
			return nil, utils.WrapError(err, "select sequences by id fail")
		}
		for _, s := range found {
			ret[s.ID] = s.Seq
		}
	}
	return ret, nil
}

/*
DeleteOrphans 删除不再被 Protein、CATH 结构域、多序列比对引用的序列
*/
func (r *SequenceRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	db := r.db.WithContext(ctx)
	res := db.
		Where("id NOT IN (?)", db.Model(&Protein{}).Select("sequence_id")).
		Where("id NOT IN (?)", db.Model(&ProteinCathSuperfamily{}).Select("sequence_id")).
		Where("id NOT IN (?)", db.Model(&MultiSequenceAlignment{}).Select("sequence_id")).
		Delete(&Sequence{})
	return res.RowsAffected, utils.WrapError(res.Error, "delete orphan sequences fail")
}
