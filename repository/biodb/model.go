package biodb

import (
	"database/sql"
	"fmt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"strings"
	"time"
)

/*
Extra 用于扩展信息，或者保存多态的信息，通过JSON格式。不直接单独作为一个数据库对象，类似gorm.Model。

	ExtraType 标记JSON的schema；
	ExtraJSON 额外信息的JSON主体；
*/
type Extra struct {
	ExtraType sql.NullString `gorm:"size:16"`
	ExtraJSON sql.NullString
}

//////////////////////////////// 实体，全部来自外部数据文件 ////////////////////////////////////

/*
Sequence 氨基酸序列，多个 accession 或结构域共享同一条序列时只存一份。

	Hash 序列文本的 MD5（十六进制），唯一；
	Seq 序列文本；
	Length 序列长度；
*/
type Sequence struct {
	ID     uint   `gorm:"primaryKey"`
	Hash   string `gorm:"size:32;not null;uniqueIndex:idx_sequences_hash"`
	Seq    string `gorm:"not null"`
	Length int    `gorm:"not null"`
}

/*
Feature UniProt FT 行描述的特征区间，以 JSON 保存在 Protein.Features 中
*/
type Feature struct {
	Type  string `json:"type"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Note  string `json:"note,omitempty"`
}

/*
Protein 一条 UniProt 记录。

	Accession 主 accession，全局唯一；
	Name 推荐名（RecName，TrEMBL 为 SubName）；
	Comment CC 块，每个主题一行，形如 "FUNCTION: ..."；
	SecondaryAccessions 历史 accession，不会与其它 Protein 的主 accession 冲突；
	Reviewed true 表示 SwissProt，false 表示 TrEMBL；
	Taxid 物种，映射后的当前 taxid，无法映射时为空；
	SequenceID 删除被引用的序列会被拒绝；
*/
type Protein struct {
	Accession           string                      `gorm:"size:10;primaryKey"`
	EntryName           string                      `gorm:"size:32"`
	Name                string                      `gorm:"size:512"`
	Comment             string
	SecondaryAccessions datatypes.JSONSlice[string]
	Reviewed            bool                        `gorm:"not null;index:idx_proteins_reviewed"`
	Taxid               *int64                      `gorm:"index:idx_proteins_taxid"`
	SeqLength           int                         `gorm:"not null;index:idx_proteins_seq_length"`
	Features            datatypes.JSONSlice[Feature]

	SequenceID uint      `gorm:"not null;index:idx_proteins_sequence"`
	Sequence   *Sequence `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentSection 返回 Comment 中指定主题（如 "FUNCTION"、"CATALYTIC ACTIVITY"）的全部段落
func (p *Protein) CommentSection(topic string) []string {
	return CommentSection(p.Comment, topic)
}

func CommentSection(comment string, topic string) []string {
	prefix := strings.ToUpper(topic) + ": "
	var ret []string
	for _, line := range strings.Split(comment, "\n") {
		if strings.HasPrefix(line, prefix) {
			ret = append(ret, strings.TrimPrefix(line, prefix))
		}
	}
	return ret
}

/*
Keyword UniProt 关键词，主键为小写名称
*/
type Keyword struct {
	Name string `gorm:"size:128;primaryKey"`
}

/*
Taxon NCBI 分类节点。

	ParentTaxid 父节点，根节点为空；
	OldTaxids 合并到本节点的历史 taxid；
*/
type Taxon struct {
	Taxid          int64                      `gorm:"primaryKey;autoIncrement:false"`
	ParentTaxid    *int64                     `gorm:"index:idx_taxa_parent"`
	Rank           string                     `gorm:"size:32"`
	ScientificName string                     `gorm:"size:512"`
	CommonName     string                     `gorm:"size:512"`
	OldTaxids      datatypes.JSONSlice[int64]
}

func (Taxon) TableName() string {
	return "taxa"
}

/*
GoTerm Gene Ontology 术语，ID 为 "GO:" 之后的整数

	Aspect molecular_function / biological_process / cellular_component；
*/
type GoTerm struct {
	ID         int    `gorm:"primaryKey;autoIncrement:false"`
	Name       string `gorm:"size:512;index:idx_go_terms_name"`
	Definition string
	Aspect     string `gorm:"size:32"`
	IsObsolete bool
}

func (t *GoTerm) Code() string {
	return GoCode(t.ID)
}

func GoCode(id int) string {
	return fmt.Sprintf("GO:%07d", id)
}

/*
GoRelation GO 术语之间的有向边 (Term1, Relation, Term2)，Term1 is_a Term2，三元组唯一
*/
type GoRelation struct {
	ID       uint   `gorm:"primaryKey"`
	Term1ID  int    `gorm:"not null;uniqueIndex:idx_go_relations_triple"`
	Relation string `gorm:"size:16;not null;uniqueIndex:idx_go_relations_triple"`
	Term2ID  int    `gorm:"not null;uniqueIndex:idx_go_relations_triple;index:idx_go_relations_term2"`
}

/*
EcoTerm Evidence & Conclusion Ontology 术语，ID 为 "ECO:" 之后的 7 位字符串
*/
type EcoTerm struct {
	ID         string `gorm:"size:7;primaryKey"`
	Name       string `gorm:"size:512;index:idx_eco_terms_name"`
	Definition string
	IsObsolete bool
}

func (t *EcoTerm) Code() string {
	return "ECO:" + t.ID
}

type EcoRelation struct {
	ID       uint   `gorm:"primaryKey"`
	Term1ID  string `gorm:"size:7;not null;uniqueIndex:idx_eco_relations_triple"`
	Relation string `gorm:"size:16;not null;uniqueIndex:idx_eco_relations_triple"`
	Term2ID  string `gorm:"size:7;not null;uniqueIndex:idx_eco_relations_triple;index:idx_eco_relations_term2"`
}

/*
EcEntry EC 编号，包括类别行（带 "-" 通配）和具体酶。

	Number 如 "1.1.1.1"、"1.1.-.-"、"3.5.1.n3"；
	Preliminary 编号含 "n"；
	Transferred 条目已转移，Name 为空，TransferredTo 记录原文 "Transferred entry: ..."；
	Deleted 条目已删除；
*/
type EcEntry struct {
	Number        string `gorm:"size:32;primaryKey"`
	Name          string `gorm:"size:512"`
	Description   string
	Preliminary   bool
	Deleted       bool
	Transferred   bool
	TransferredTo string `gorm:"size:512"`
}

// Level 返回编号中非通配部分的层数
func (e *EcEntry) Level() int {
	return EcLevel(e.Number)
}

func EcLevel(number string) int {
	level := 0
	for _, part := range strings.Split(number, ".") {
		if part == "" || part == "-" {
			break
		}
		level++
	}
	return level
}

type EcSynonym struct {
	ID       uint   `gorm:"primaryKey"`
	EcNumber string `gorm:"size:32;not null;uniqueIndex:idx_ec_synonyms_unique"`
	Synonym  string `gorm:"size:512;not null;uniqueIndex:idx_ec_synonyms_unique"`
}

type CathSuperfamily struct {
	Number string `gorm:"size:32;primaryKey"`
	Name   string
}

/*
PdbEntry PDB 结构条目，ID 为小写 4 字符
*/
type PdbEntry struct {
	PdbID  string    `gorm:"size:4;primaryKey"`
	Title  string
	Date   time.Time `gorm:"index:idx_pdb_entries_date"`
	Method string    `gorm:"size:64"`
}

//////////////////////////////// 关联，全部带组合唯一索引 ////////////////////////////////////

/*
ProteinGoTerm 蛋白与 GO 术语的注释。

	Qualifier 原样保存，如 "enables"、"NOT|enables"；
	EcoTermID 证据类型；
*/
type ProteinGoTerm struct {
	ID               uint   `gorm:"primaryKey"`
	ProteinAccession string `gorm:"size:10;not null;uniqueIndex:idx_protein_go_terms_unique"`
	GoTermID         int    `gorm:"not null;uniqueIndex:idx_protein_go_terms_unique;index:idx_protein_go_terms_term"`
	Qualifier        string `gorm:"size:64;not null;uniqueIndex:idx_protein_go_terms_unique;index:idx_protein_go_terms_qualifier"`
	EcoTermID        string `gorm:"size:7;not null;uniqueIndex:idx_protein_go_terms_unique;index:idx_protein_go_terms_eco"`
}

type ProteinEcEntry struct {
	ID               uint   `gorm:"primaryKey"`
	ProteinAccession string `gorm:"size:10;not null;uniqueIndex:idx_protein_ec_entries_unique"`
	EcNumber         string `gorm:"size:32;not null;uniqueIndex:idx_protein_ec_entries_unique;index:idx_protein_ec_entries_ec"`
}

/*
ProteinCathSuperfamily 蛋白上的 CATH 结构域。

	StartPos/EndPos 1 起始的闭区间；
	SequenceID 结构域区间对应的序列片段 seq[StartPos-1:EndPos]；
	Evalue 来源文件不提供时为 0；
*/
type ProteinCathSuperfamily struct {
	ID               uint    `gorm:"primaryKey"`
	ProteinAccession string  `gorm:"size:10;not null;uniqueIndex:idx_protein_cath_unique"`
	CathNumber       string  `gorm:"size:32;not null;uniqueIndex:idx_protein_cath_unique;index:idx_protein_cath_number"`
	StartPos         int     `gorm:"not null;uniqueIndex:idx_protein_cath_unique"`
	EndPos           int     `gorm:"not null;uniqueIndex:idx_protein_cath_unique"`
	Evalue           float64

	SequenceID uint      `gorm:"not null;index:idx_protein_cath_sequence"`
	Sequence   *Sequence `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
}

type ProteinPdbEntry struct {
	ID               uint   `gorm:"primaryKey"`
	ProteinAccession string `gorm:"size:10;not null;uniqueIndex:idx_protein_pdb_entries_unique"`
	PdbID            string `gorm:"size:4;not null;uniqueIndex:idx_protein_pdb_entries_unique;index:idx_protein_pdb_entries_pdb"`
}

type ProteinKeyword struct {
	ID               uint   `gorm:"primaryKey"`
	ProteinAccession string `gorm:"size:10;not null;uniqueIndex:idx_protein_keywords_unique"`
	KeywordName      string `gorm:"size:128;not null;uniqueIndex:idx_protein_keywords_unique;index:idx_protein_keywords_keyword"`
}

/*
MultiSequenceAlignment 多序列比对结果中的一行。

	Name 一次比对的名称，重新导入同名比对时整体替换；
	Family 比对所属的 CATH 超家族；
	Alignment 带 gap 的比对序列；
*/
type MultiSequenceAlignment struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:64;not null;index:idx_msa_name_family"`
	Family    string `gorm:"size:32;not null;index:idx_msa_name_family"`
	Alignment string `gorm:"not null"`

	SequenceID uint      `gorm:"not null;index:idx_msa_sequence"`
	Sequence   *Sequence `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
}

///////////////////////////// 运行记录 /////////////////////////////////////////

/*
IngestRun 一次导入步骤的记录。

	Extra 保存 SchemaStepStats；
	RunUUID 同一次命令中的所有步骤共享；
	Step 步骤名，如 "go-terms"；
	Source 输入文件；
	Status DOING=1,DONE=2,FAIL=3；
*/
type IngestRun struct {
	gorm.Model
	Extra
	RunUUID    string `gorm:"size:36;not null;index:idx_ingest_runs_uuid"`
	Step       string `gorm:"size:32;not null"`
	Source     string `gorm:"size:512"`
	Status     uint   `gorm:"comment:DOING=1,DONE=2,FAIL=3"`
	Error      string
	FinishedAt *time.Time
}
