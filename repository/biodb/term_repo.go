package biodb

import (
	"context"
	"fmt"
	"gorm.io/gorm"
	"pseudoenzymes-backend/utils"
)

/*
TermRepo 本体术语与 is_a 关系的仓库，GO 与 ECO 结构相同，只有主键类型不同。

	K 术语主键类型；
	T 术语模型；
	R 关系模型，必须有 term1_id、relation、term2_id 三列；
*/
type TermRepo[K comparable, T any, R any] struct {
	db          *gorm.DB
	newRelation func(term1 K, relation string, term2 K) R
}

type GoRepo = TermRepo[int, GoTerm, GoRelation]

type EcoRepo = TermRepo[string, EcoTerm, EcoRelation]

func NewGoRepo(db *gorm.DB) *GoRepo {
	return &GoRepo{db: db, newRelation: func(term1 int, relation string, term2 int) GoRelation {
		return GoRelation{Term1ID: term1, Relation: relation, Term2ID: term2}
	}}
}

func NewEcoRepo(db *gorm.DB) *EcoRepo {
	return &EcoRepo{db: db, newRelation: func(term1 string, relation string, term2 string) EcoRelation {
		return EcoRelation{Term1ID: term1, Relation: relation, Term2ID: term2}
	}}
}

func (r *TermRepo[K, T, R]) WithTx(tx *gorm.DB) *TermRepo[K, T, R] {
	return &TermRepo[K, T, R]{db: tx, newRelation: r.newRelation}
}

// Triple 一条关系，作为集合的键使用
type Triple[K comparable] struct {
	Term1    K
	Relation string
	Term2    K
}

func (r *TermRepo[K, T, R]) NewRelation(t Triple[K]) R {
	return r.newRelation(t.Term1, t.Relation, t.Term2)
}

func (r *TermRepo[K, T, R]) ExistingTerms(ctx context.Context, ids []K) (map[K]struct{}, error) {
	return existingKeys(ctx, r.db, new(T), "id", ids)
}

func (r *TermRepo[K, T, R]) AllTermIDs(ctx context.Context) (map[K]struct{}, error) {
	return allKeys[K](ctx, r.db, new(T), "id")
}

func (r *TermRepo[K, T, R]) CreateTerms(ctx context.Context, terms []T) (int64, error) {
	return InsertIgnore(ctx, r.db, terms)
}

// Triples 读取全部已存在的关系，本体规模在十万以内
func (r *TermRepo[K, T, R]) Triples(ctx context.Context) (map[Triple[K]]struct{}, error) {
	rows, err := r.db.WithContext(ctx).Model(new(R)).Select("term1_id", "relation", "term2_id").Rows()
	if err != nil {
		return nil, utils.WrapError(err, "select relations fail")
	}
	defer rows.Close()

	ret := make(map[Triple[K]]struct{})
	for rows.Next() {
		var t Triple[K]
		if err = rows.Scan(&t.Term1, &t.Relation, &t.Term2); err != nil {
			return nil, utils.WrapError(err, "scan relation fail")
		}
		ret[t] = struct{}{}
	}
	return ret, utils.WrapError(rows.Err(), "iterate relations fail")
}

func (r *TermRepo[K, T, R]) CreateRelations(ctx context.Context, relations []R) (int64, error) {
	return InsertIgnore(ctx, r.db, relations)
}

// Children 返回 is_a 指向 parents 中任一术语的全部术语
func (r *TermRepo[K, T, R]) Children(ctx context.Context, parents []K) ([]K, error) {
	var ret []K
	for _, part := range utils.SliceChunk(parents, lookupChunkSize()) {
		var found []K
		err := r.db.WithContext(ctx).Model(new(R)).
			Where("term2_id IN ? AND relation = ?", part, RelationIsA).
			Pluck("term1_id", &found).Error
		if err != nil {
			return nil, utils.WrapError(err, "select child terms fail")
		}
		ret = append(ret, found...)
	}
	return ret, nil
}

func (r *TermRepo[K, T, R]) IDsByName(ctx context.Context, name string) ([]K, error) {
	var ids []K
	err := r.db.WithContext(ctx).Model(new(T)).Where("name = ?", name).Pluck("id", &ids).Error
	if err != nil {
		return nil, utils.WrapErrorf(err, "select term [%s] fail", name)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("term [%s] not found: %w", name, gorm.ErrRecordNotFound)
	}
	return ids, nil
}

func (r *TermRepo[K, T, R]) Get(ctx context.Context, id K) (*T, error) {
	term := new(T)
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(term).Error; err != nil {
		return nil, err
	}
	return term, nil
}

// Terms 流式读取全部术语
func (r *TermRepo[K, T, R]) Terms(ctx context.Context, fn func(batch []T) error) error {
	var batch []T
	err := r.db.WithContext(ctx).Model(new(T)).
		FindInBatches(&batch, lookupChunkSize(), func(tx *gorm.DB, batchNum int) error {
			return fn(batch)
		}).Error
	return utils.WrapError(err, "iterate terms fail")
}
