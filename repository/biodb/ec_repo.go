package biodb

import (
	"context"
	"gorm.io/gorm"
	"pseudoenzymes-backend/utils"
)

type EcRepo struct {
	db *gorm.DB
}

func NewEcRepo(db *gorm.DB) *EcRepo {
	return &EcRepo{db: db}
}

func (r *EcRepo) WithTx(tx *gorm.DB) *EcRepo {
	return &EcRepo{db: tx}
}

func (r *EcRepo) Existing(ctx context.Context, numbers []string) (map[string]struct{}, error) {
	return existingKeys(ctx, r.db, &EcEntry{}, "number", numbers)
}

func (r *EcRepo) AllNumbers(ctx context.Context) (map[string]struct{}, error) {
	return allKeys[string](ctx, r.db, &EcEntry{}, "number")
}

func (r *EcRepo) Create(ctx context.Context, entries []EcEntry) (int64, error) {
	return InsertIgnore(ctx, r.db, entries)
}

func (r *EcRepo) CreateSynonyms(ctx context.Context, synonyms []EcSynonym) (int64, error) {
	return InsertIgnore(ctx, r.db, synonyms)
}

func (r *EcRepo) NumbersOf(ctx context.Context, accession string) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&ProteinEcEntry{}).
		Where("protein_accession = ?", accession).
		Order("ec_number").
		Pluck("ec_number", &numbers).Error
	return numbers, utils.WrapError(err, "select ec numbers fail")
}

func (r *EcRepo) Synonyms(ctx context.Context, number string) ([]string, error) {
	var synonyms []string
	err := r.db.WithContext(ctx).Model(&EcSynonym{}).
		Where("ec_number = ?", number).
		Order("synonym").
		Pluck("synonym", &synonyms).Error
	return synonyms, utils.WrapError(err, "select ec synonyms fail")
}
