package biodb

import (
	"context"
	"gorm.io/gorm"
)

type PdbRepo struct {
	db *gorm.DB
}

func NewPdbRepo(db *gorm.DB) *PdbRepo {
	return &PdbRepo{db: db}
}

func (r *PdbRepo) WithTx(tx *gorm.DB) *PdbRepo {
	return &PdbRepo{db: tx}
}

func (r *PdbRepo) Existing(ctx context.Context, ids []string) (map[string]struct{}, error) {
	return existingKeys(ctx, r.db, &PdbEntry{}, "pdb_id", ids)
}

func (r *PdbRepo) AllIDs(ctx context.Context) (map[string]struct{}, error) {
	return allKeys[string](ctx, r.db, &PdbEntry{}, "pdb_id")
}

func (r *PdbRepo) Create(ctx context.Context, entries []PdbEntry) (int64, error) {
	return InsertIgnore(ctx, r.db, entries)
}
