package biodb

import (
	"context"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"pseudoenzymes-backend/utils"
)

// 单条 INSERT 中占位符数量的上限，低于 sqlite 与 postgres 的限制
const maxBindVars = 30000

func insertBatchSize() int {
	if dbConfig.InsertBatchSize <= 0 {
		return 10000
	}
	return dbConfig.InsertBatchSize
}

func lookupChunkSize() int {
	if dbConfig.LookupChunkSize <= 0 {
		return 5000
	}
	return dbConfig.LookupChunkSize
}

// rowsPerStatement 按表的列数收缩每条 INSERT 的行数，避免超过占位符上限
func rowsPerStatement(db *gorm.DB, model interface{}, batch int) int {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil || len(stmt.Schema.DBNames) == 0 {
		return batch
	}

	columns := len(stmt.Schema.DBNames)
	if batch*columns > maxBindVars {
		batch = maxBindVars / columns
	}
	if batch < 1 {
		batch = 1
	}
	return batch
}

/*
InsertIgnore 批量插入，与已有行冲突（主键或唯一索引）的行被忽略，返回实际插入的行数。
调用方应先按已有键预过滤，这里的冲突忽略只是兜底。
*/
func InsertIgnore[T any](ctx context.Context, db *gorm.DB, rows []T) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch := rowsPerStatement(db, new(T), insertBatchSize())
	var affected int64
	for _, part := range utils.SliceChunk(rows, insertBatchSize()) {
		res := db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(part, batch)
		if res.Error != nil {
			return affected, utils.WrapErrorf(res.Error, "insert %d rows fail", len(part))
		}
		affected += res.RowsAffected
	}
	return affected, nil
}

/*
existingKeys 分块查询 column IN (keys)，返回已经存在的键
*/
func existingKeys[K comparable](ctx context.Context, db *gorm.DB, model interface{}, column string, keys []K) (map[K]struct{}, error) {
	ret := make(map[K]struct{}, len(keys))
	for _, part := range utils.SliceChunk(utils.SliceUnique(keys), lookupChunkSize()) {
		var found []K
		err := db.WithContext(ctx).Model(model).Where(column+" IN ?", part).Pluck(column, &found).Error
		if err != nil {
			return nil, utils.WrapErrorf(err, "select existing %s fail", column)
		}
		for _, k := range found {
			ret[k] = struct{}{}
		}
	}
	return ret, nil
}

// allKeys 流式读取整列，适用于百万行级别的主键集合
func allKeys[K comparable](ctx context.Context, db *gorm.DB, model interface{}, column string) (map[K]struct{}, error) {
	rows, err := db.WithContext(ctx).Model(model).Select(column).Rows()
	if err != nil {
		return nil, utils.WrapErrorf(err, "select all %s fail", column)
	}
	defer rows.Close()

	ret := make(map[K]struct{})
	for rows.Next() {
		var k K
		if err = rows.Scan(&k); err != nil {
			return nil, utils.WrapErrorf(err, "scan %s fail", column)
		}
		ret[k] = struct{}{}
	}
	return ret, utils.WrapError(rows.Err(), "iterate rows fail")
}

// ClearTable 清空整张表，用于全量重新导入
func ClearTable(ctx context.Context, db *gorm.DB, model interface{}) (int64, error) {
	res := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model)
	return res.RowsAffected, utils.WrapError(res.Error, "clear table fail")
}

func CountRows(ctx context.Context, db *gorm.DB, model interface{}) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(model).Count(&count).Error
	return count, utils.WrapError(err, "count rows fail")
}
