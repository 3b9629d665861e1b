package config

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/utils"
	"runtime"
)

/*
DatabaseConfig 关系数据库连接配置

	Driver 取值 mysql、postgres、sqlite；
	Path 仅 sqlite 使用，":memory:" 表示内存数据库；
	CheckMigration 启动时是否执行 AutoMigrate；
*/
type DatabaseConfig struct {
	Driver         string `yaml:"driver"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Database       string `yaml:"database"`
	Path           string `yaml:"path"`
	CheckMigration bool   `yaml:"check_migration"`
}

/*
PathsConfig 所有输入文件与输出目录。相对路径相对于进程工作目录。
*/
type PathsConfig struct {
	// SwissProt 全量记录
	UniProtSprot string `yaml:"uniprot_sprot"`
	// 与 PDB 相关的 UniProt 记录（包含 TrEMBL）
	UniProtPdb string `yaml:"uniprot_pdb"`

	GoOntology    string `yaml:"go_ontology"`
	GoAnnotations string `yaml:"go_annotations"`
	GafEcoMapping string `yaml:"gaf_eco_mapping"`
	EcoOntology   string `yaml:"eco_ontology"`

	EcDat     string `yaml:"ec_dat"`
	EcClasses string `yaml:"ec_classes"`
	EcIntenz  string `yaml:"ec_intenz"`

	TaxNames  string `yaml:"tax_names"`
	TaxNodes  string `yaml:"tax_nodes"`
	TaxMerged string `yaml:"tax_merged"`

	CathNames   string `yaml:"cath_names"`
	CathDomains string `yaml:"cath_domains"`

	PdbEntries string `yaml:"pdb_entries"`
	PdbSifts   string `yaml:"pdb_sifts"`

	OutDir  string `yaml:"out_dir"`
	MsaDir  string `yaml:"msa_dir"`
	TreeDir string `yaml:"tree_dir"`
	CsvDir  string `yaml:"csv_dir"`
}

type BatchConfig struct {
	// 每次 INSERT 的行数
	InsertSize int `yaml:"insert_size"`
	// 关联行累计到该数量时落库
	LinkFlushSize int `yaml:"link_flush_size"`
	// IN (...) 查询每块的主键数量
	LookupChunkSize int `yaml:"lookup_chunk_size"`
	// 解析 UniProt 记录时每批的记录数
	ParseSize int `yaml:"parse_size"`
	// PDB 关联时按需远程获取的最大条目数
	MaxRemoteFetch int `yaml:"max_remote_fetch"`
}

type RemoteConfig struct {
	// %s 为 accession
	UniProtEntryURL string `yaml:"uniprot_entry_url"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

type AlignerConfig struct {
	Mafft    string `yaml:"mafft"`
	Trimal   string `yaml:"trimal"`
	FastTree string `yaml:"fasttree"`
	// 0 表示使用 CPU 数
	Workers int `yaml:"workers"`
}

type RabbitMQConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	UserName string `yaml:"user_name"`
	Password string `yaml:"password"`
}

type NotifyConfig struct {
	RabbitMQ  RabbitMQConfig `yaml:"rabbitmq"`
	SMTP      SMTPConfig     `yaml:"smtp"`
	Recipient string         `yaml:"recipient"`
}

type Neo4jConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	DebugMode bool   `yaml:"debug_mode"`
}

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  logging.Config `yaml:"logging"`
	Paths    PathsConfig    `yaml:"paths"`
	Batch    BatchConfig    `yaml:"batch"`
	Remote   RemoteConfig   `yaml:"remote"`
	Aligner  AlignerConfig  `yaml:"aligner"`
	Notify   NotifyConfig   `yaml:"notify"`
	Neo4j    Neo4jConfig    `yaml:"neo4j"`
	Server   ServerConfig   `yaml:"server"`
}

func data(parts ...string) string {
	return filepath.Join(append([]string{"data"}, parts...)...)
}

func out(parts ...string) string {
	return filepath.Join(append([]string{"out"}, parts...)...)
}

func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:         "mysql",
			User:           "pseudoenzymes",
			Host:           "localhost",
			Port:           3306,
			Database:       "pseudoenzymes",
			CheckMigration: true,
		},
		Logging: logging.Config{
			FileLevel:      logrus.DebugLevel,
			ConsoleLevel:   logrus.InfoLevel,
			FileDir:        "logs",
			DisableConsole: false,
		},
		Paths: PathsConfig{
			UniProtSprot:  data("uniprot", "uniprot_sprot.dat.gz"),
			UniProtPdb:    data("pdb", "uniprot_pdb.dat.gz"),
			GoOntology:    data("go", "go.obo"),
			GoAnnotations: data("go", "goa_uniprot_all.gpa.gz"),
			GafEcoMapping: data("go", "gaf-eco-mapping.txt"),
			EcoOntology:   data("eco", "eco.obo"),
			EcDat:         data("ec", "enzyme.dat"),
			EcClasses:     data("ec", "enzclass.txt"),
			EcIntenz:      data("ec", "intenz.xml"),
			TaxNames:      data("taxonomy", "names.dmp"),
			TaxNodes:      data("taxonomy", "nodes.dmp"),
			TaxMerged:     data("taxonomy", "merged.dmp"),
			CathNames:     data("cath", "cath-b-newest-names.gz"),
			CathDomains:   data("interpro", "g3d_swissprot_only.txt"),
			PdbEntries:    data("pdb", "entries.idx"),
			PdbSifts:      data("pdb", "uniprot_pdb.tsv.gz"),
			OutDir:        out(),
			MsaDir:        out("msa"),
			TreeDir:       out("trees"),
			CsvDir:        out("csv"),
		},
		Batch: BatchConfig{
			InsertSize:      10000,
			LinkFlushSize:   50000,
			LookupChunkSize: 5000,
			ParseSize:       100000,
			MaxRemoteFetch:  200,
		},
		Remote: RemoteConfig{
			UniProtEntryURL: "https://rest.uniprot.org/uniprotkb/%s.txt",
			TimeoutSeconds:  30,
		},
		Aligner: AlignerConfig{
			Mafft:    "mafft",
			Trimal:   "trimal",
			FastTree: "fasttree",
			Workers:  runtime.NumCPU(),
		},
		Notify: NotifyConfig{
			RabbitMQ: RabbitMQConfig{Port: "5672"},
			SMTP:     SMTPConfig{Port: 25},
		},
		Neo4j: Neo4jConfig{
			Port: 7687,
			User: "neo4j",
		},
		Server: ServerConfig{
			Port: 8003,
		},
	}
}

/*
Load 在 Default() 的基础上覆盖 path 指定的 YAML 文件，再用环境变量覆盖密码类配置。
path 为空时只应用环境变量。
*/
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, utils.WrapErrorf(err, "read config file [%s] fail", path)
		}

		if err = yaml.Unmarshal(content, config); err != nil {
			return nil, utils.WrapErrorf(err, "parse config file [%s] fail", path)
		}
	}

	config.applyEnv()
	if config.Aligner.Workers <= 0 {
		config.Aligner.Workers = runtime.NumCPU()
	}

	return config, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		EnvKeyDatabasePassword:  &c.Database.Password,
		EnvKeyRabbitMQPassword:  &c.Notify.RabbitMQ.Password,
		EnvKeyEmailSMTPPassword: &c.Notify.SMTP.Password,
		EnvKeyNeo4jPassword:     &c.Neo4j.Password,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(key); ok {
			*field = v
		}
	}
	if v, ok := os.LookupEnv(EnvKeyServerPort); ok {
		c.Server.Port = utils.AtoiOr(v, c.Server.Port)
	}
}
