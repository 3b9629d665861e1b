package closure

import (
	"context"
	"fmt"
	"github.com/jmoiron/sqlx"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
)

const defaultTableChunk = 5000

/*
TableSource 直接在关系表上按 frontier 查询子节点，适用于整张图放不进内存的情况。
查询形如 SELECT child FROM table WHERE parent IN (...) [AND filter]，
parent 列上需要有索引。
*/
type TableSource[K comparable] struct {
	db    *sqlx.DB
	query string
	args  []interface{}
	chunk int
}

func NewTableSource[K comparable](db *sqlx.DB, table, childColumn, parentColumn, filter string, args ...interface{}) *TableSource[K] {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (?)", childColumn, table, parentColumn)
	if filter != "" {
		query += " AND " + filter
	}
	return &TableSource[K]{db: db, query: query, args: args, chunk: defaultTableChunk}
}

func (s *TableSource[K]) WithChunk(chunk int) *TableSource[K] {
	if chunk > 0 {
		s.chunk = chunk
	}
	return s
}

func (s *TableSource[K]) Children(ctx context.Context, parents []K) ([]K, error) {
	var ret []K
	for _, part := range utils.SliceChunk(parents, s.chunk) {
		args := append([]interface{}{part}, s.args...)
		query, args, err := sqlx.In(s.query, args...)
		if err != nil {
			return nil, utils.WrapError(err, "expand IN clause fail")
		}

		var found []K
		if err = s.db.SelectContext(ctx, &found, s.db.Rebind(query), args...); err != nil {
			return nil, utils.WrapErrorf(err, "query children fail: %s", s.query)
		}
		ret = append(ret, found...)
	}
	return ret, nil
}

func GoRelationSource(db *sqlx.DB) *TableSource[int] {
	return NewTableSource[int](db, "go_relations", "term1_id", "term2_id", "relation = ?", biodb.RelationIsA)
}

func EcoRelationSource(db *sqlx.DB) *TableSource[string] {
	return NewTableSource[string](db, "eco_relations", "term1_id", "term2_id", "relation = ?", biodb.RelationIsA)
}

func TaxonSource(db *sqlx.DB) *TableSource[int64] {
	return NewTableSource[int64](db, "taxa", "taxid", "parent_taxid", "")
}
