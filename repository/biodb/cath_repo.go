package biodb

import (
	"context"
	"gorm.io/gorm"
)

type CathRepo struct {
	db *gorm.DB
}

func NewCathRepo(db *gorm.DB) *CathRepo {
	return &CathRepo{db: db}
}

func (r *CathRepo) WithTx(tx *gorm.DB) *CathRepo {
	return &CathRepo{db: tx}
}

func (r *CathRepo) Existing(ctx context.Context, numbers []string) (map[string]struct{}, error) {
	return existingKeys(ctx, r.db, &CathSuperfamily{}, "number", numbers)
}

func (r *CathRepo) AllNumbers(ctx context.Context) (map[string]struct{}, error) {
	return allKeys[string](ctx, r.db, &CathSuperfamily{}, "number")
}

func (r *CathRepo) Create(ctx context.Context, superfamilies []CathSuperfamily) (int64, error) {
	return InsertIgnore(ctx, r.db, superfamilies)
}

// DomainSequences 返回 超家族 -> 其结构域片段的序列 ID 集合
func (r *CathRepo) DomainSequences(ctx context.Context) (map[string]map[uint]struct{}, error) {
	rows, err := r.db.WithContext(ctx).Model(&ProteinCathSuperfamily{}).
		Select("cath_number", "sequence_id").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make(map[string]map[uint]struct{})
	for rows.Next() {
		var number string
		var sequenceID uint
		if err = rows.Scan(&number, &sequenceID); err != nil {
			return nil, err
		}
		set, ok := ret[number]
		if !ok {
			set = make(map[uint]struct{})
			ret[number] = set
		}
		set[sequenceID] = struct{}{}
	}
	return ret, rows.Err()
}
