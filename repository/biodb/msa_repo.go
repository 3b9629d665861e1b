package biodb

import (
	"context"
	"gorm.io/gorm"
	"pseudoenzymes-backend/utils"
)

type MsaRepo struct {
	db *gorm.DB
}

func NewMsaRepo(db *gorm.DB) *MsaRepo {
	return &MsaRepo{db: db}
}

/*
Replace 删除同名比对后写入新的比对行，在一个事务中完成
*/
func (r *MsaRepo) Replace(ctx context.Context, name string, rows []MultiSequenceAlignment) (deleted int64, created int64, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("name = ?", name).Delete(&MultiSequenceAlignment{})
		if res.Error != nil {
			return utils.WrapErrorf(res.Error, "delete alignment [%s] fail", name)
		}
		deleted = res.RowsAffected

		created, err = InsertIgnore(ctx, tx, rows)
		return utils.WrapErrorf(err, "insert alignment [%s] fail", name)
	})
	return deleted, created, err
}

func (r *MsaRepo) Family(ctx context.Context, name, family string) ([]MultiSequenceAlignment, error) {
	var rows []MultiSequenceAlignment
	err := r.db.WithContext(ctx).Where("name = ? AND family = ?", name, family).Order("sequence_id").Find(&rows).Error
	return rows, utils.WrapError(err, "select alignment fail")
}
