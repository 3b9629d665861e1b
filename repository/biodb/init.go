package biodb

import (
	"fmt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"path/filepath"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/utils"
	"testing"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type MySQLConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
}

func (c *MySQLConfig) dsn() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

type PostgresConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
}

func (c *PostgresConfig) dsn() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		c.Host, c.User, c.Password, c.Database, c.Port)
}

type SQLiteConfig struct {
	Path string
}

func (c *SQLiteConfig) dsn() string {
	return c.Path + "?_busy_timeout=10000&_foreign_keys=on"
}

type Config struct {
	Driver         string
	MySQL          MySQLConfig
	Postgres       PostgresConfig
	SQLite         SQLiteConfig
	CheckMigration bool
	// 单条语句的批量行数
	InsertBatchSize int
	// IN (...) 查询的分块大小
	LookupChunkSize int
}

func GenerateTestConfig(t *testing.T) *Config {
	return &Config{
		Driver:          DriverSQLite,
		SQLite:          SQLiteConfig{Path: filepath.Join(t.TempDir(), "biodb_test.db")},
		CheckMigration:  true,
		InsertBatchSize: 100,
		LookupChunkSize: 50,
	}
}

var (
	db       *gorm.DB
	dbConfig = Config{InsertBatchSize: 10000, LookupChunkSize: 5000}
)

func dialector(config *Config) (gorm.Dialector, error) {
	switch config.Driver {
	case DriverMySQL, "":
		return mysql.Open(config.MySQL.dsn()), nil
	case DriverPostgres:
		return postgres.Open(config.Postgres.dsn()), nil
	case DriverSQLite:
		return sqlite.Open(config.SQLite.dsn()), nil
	default:
		return nil, fmt.Errorf("unknown database driver [%s]", config.Driver)
	}
}

func CreateDatabase(config *Config) (*gorm.DB, error) {
	dial, err := dialector(config)
	if err != nil {
		return nil, err
	}

	database, err := gorm.Open(dial, &gorm.Config{
		Logger:          newSQLLogger(logging.NewLogger()),
		CreateBatchSize: config.InsertBatchSize,
	})
	if err != nil {
		return nil, utils.WrapError(err, "db connection fail")
	}

	if config.CheckMigration {
		err = migration(database)
		if err != nil {
			return nil, utils.WrapError(err, "migration fail")
		}
	}

	return database, nil
}

// Tables 按依赖顺序列出全部表
func Tables() []interface{} {
	return []interface{}{
		&Sequence{}, &Keyword{}, &Taxon{},
		&GoTerm{}, &GoRelation{}, &EcoTerm{}, &EcoRelation{},
		&EcEntry{}, &EcSynonym{}, &CathSuperfamily{}, &PdbEntry{},
		&Protein{},
		&ProteinGoTerm{}, &ProteinEcEntry{}, &ProteinCathSuperfamily{},
		&ProteinPdbEntry{}, &ProteinKeyword{},
		&MultiSequenceAlignment{}, &IngestRun{},
	}
}

func migration(db *gorm.DB) error {
	tx := db
	if db.Dialector.Name() == DriverMySQL {
		tx = db.Set("gorm:table_options", "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_0900_ai_ci")
	}

	err := tx.AutoMigrate(Tables()...)
	if err != nil {
		return utils.WrapError(err, "AutoMigrate fail")
	}

	return nil
}

// Open 创建数据库连接并设为全局连接，批量参数同时生效
func Open(config *Config) (*gorm.DB, error) {
	database, err := CreateDatabase(config)
	if err != nil {
		return nil, err
	}

	db = database
	dbConfig = *config
	return database, nil
}

func DatabaseRaw() *gorm.DB {
	return db
}

/*
OpenTestDatabase 为单个测试创建一个独立的 sqlite 数据库，已完成迁移
*/
func OpenTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := CreateDatabase(GenerateTestConfig(t))
	if err != nil {
		t.Fatalf("create test database fail: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return database
}
