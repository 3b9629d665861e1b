package biodb

import (
	"context"
	"gorm.io/gorm"
	"pseudoenzymes-backend/utils"
)

type KeywordRepo struct {
	db *gorm.DB
}

func NewKeywordRepo(db *gorm.DB) *KeywordRepo {
	return &KeywordRepo{db: db}
}

func (r *KeywordRepo) WithTx(tx *gorm.DB) *KeywordRepo {
	return &KeywordRepo{db: tx}
}

// Ensure 创建尚不存在的关键词
func (r *KeywordRepo) Ensure(ctx context.Context, names []string) (int64, error) {
	existing, err := existingKeys(ctx, r.db, &Keyword{}, "name", names)
	if err != nil {
		return 0, err
	}

	toCreate := make([]Keyword, 0)
	for _, name := range utils.SliceUnique(names) {
		if _, ok := existing[name]; !ok {
			toCreate = append(toCreate, Keyword{Name: name})
		}
	}
	return InsertIgnore(ctx, r.db, toCreate)
}

func (r *KeywordRepo) Link(ctx context.Context, links []ProteinKeyword) (int64, error) {
	return InsertIgnore(ctx, r.db, links)
}

func (r *KeywordRepo) KeywordsOf(ctx context.Context, accession string) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&ProteinKeyword{}).
		Where("protein_accession = ?", accession).
		Order("keyword_name").
		Pluck("keyword_name", &names).Error
	return names, utils.WrapError(err, "select keywords fail")
}
