package biodb

import (
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
	"pseudoenzymes-backend/utils"
)

/*
Sqlx 在 gorm 已打开的连接池上包一层 sqlx，供只读的批量查询使用，
驱动名决定 Rebind 使用的占位符
*/
func Sqlx(db *gorm.DB) (*sqlx.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, utils.WrapError(err, "get sql.DB from gorm fail")
	}

	driver := db.Dialector.Name()
	if driver == DriverSQLite {
		driver = "sqlite3"
	}
	return sqlx.NewDb(sqlDB, driver), nil
}
