package biodb

import (
	"database/sql"
	"encoding/json"
)

func toJSON(schema interface{}) string {
	bytes, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

const ExtraTypeStepStats = "step_stats"

/*
SchemaStepStats 一个导入步骤的计数

	Read 读到的记录数；
	Created 新写入的行数；
	Skipped 已存在而跳过的记录数；
	Updated 被更新的行数（如 TrEMBL 升级为 SwissProt）；
	Deleted 被删除的行数；
	Dropped 解析失败的记录数；
	Unresolved 引用了不存在实体的关联数；
*/
type SchemaStepStats struct {
	Read       int64 `json:"read"`
	Created    int64 `json:"created"`
	Skipped    int64 `json:"skipped"`
	Updated    int64 `json:"updated"`
	Deleted    int64 `json:"deleted"`
	Dropped    int64 `json:"dropped"`
	Unresolved int64 `json:"unresolved"`
}

func (s *SchemaStepStats) ToJSON() string {
	return toJSON(s)
}

func (s *SchemaStepStats) Add(other SchemaStepStats) {
	s.Read += other.Read
	s.Created += other.Created
	s.Skipped += other.Skipped
	s.Updated += other.Updated
	s.Deleted += other.Deleted
	s.Dropped += other.Dropped
	s.Unresolved += other.Unresolved
}

func (s *SchemaStepStats) ToExtra() Extra {
	return Extra{
		ExtraType: sql.NullString{String: ExtraTypeStepStats, Valid: true},
		ExtraJSON: sql.NullString{String: s.ToJSON(), Valid: true},
	}
}

// StepStats 解析 Extra 中保存的计数，类型不符时返回 false
func (e *Extra) StepStats() (SchemaStepStats, bool) {
	var stats SchemaStepStats
	if !e.ExtraType.Valid || e.ExtraType.String != ExtraTypeStepStats || !e.ExtraJSON.Valid {
		return stats, false
	}
	if err := json.Unmarshal([]byte(e.ExtraJSON.String), &stats); err != nil {
		return stats, false
	}
	return stats, true
}
