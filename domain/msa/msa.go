package msa

import (
	"context"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"os"
	"path/filepath"
	"pseudoenzymes-backend/domain/parser"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

const (
	inSuffix  = "_in.fasta"
	outSuffix = "_out.fasta"

	// DomainStrip 按 CATH 结构域片段比对的结果名
	DomainStrip = "single_domain_strip"
)

/*
Setting 多序列比对与建树。

	Mafft/Trimal/FastTree 可执行文件，可以是绝对路径或 PATH 中的名字；
	Workers 同时运行的外部进程数，默认 CPU 数；
*/
type Setting struct {
	GetDatabase func() *gorm.DB
	Logger      *logrus.Logger
	Parser      *parser.Parser
	Mafft       string
	Trimal      string
	FastTree    string
	Workers     int
}

type Aligner struct {
	setting Setting
}

func New(setting *Setting) *Aligner {
	s := *setting
	if s.Logger == nil {
		s.Logger = logging.Default()
	}
	if s.Parser == nil {
		s.Parser = parser.New(s.Logger)
	}
	if s.Workers <= 0 {
		s.Workers = runtime.NumCPU()
	}
	if s.Mafft == "" {
		s.Mafft = "mafft"
	}
	if s.Trimal == "" {
		s.Trimal = "trimal"
	}
	if s.FastTree == "" {
		s.FastTree = "fasttree"
	}
	return &Aligner{setting: s}
}

/*
ExportFamilies 每个 CATH 超家族写一个 {family}_in.fasta，包含该超家族全部结构域片段，
序列 ID 为片段在序列表中的 ID。返回 超家族 -> 序列数
*/
func (a *Aligner) ExportFamilies(ctx context.Context, dir string) (map[string]int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, utils.WrapErrorf(err, "create msa dir [%s] fail", dir)
	}

	db := a.setting.GetDatabase()
	families, err := biodb.NewCathRepo(db).DomainSequences(ctx)
	if err != nil {
		return nil, utils.WrapError(err, "collect domain sequences fail")
	}

	ret := make(map[string]int, len(families))
	for family, set := range families {
		ids := utils.SetToSlice(set)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		seqs, err := biodb.NewSequenceRepo(db).SeqByIDs(ctx, ids)
		if err != nil {
			return ret, err
		}
		if err = writeFamily(filepath.Join(dir, family+inSuffix), ids, seqs); err != nil {
			return ret, utils.WrapErrorf(err, "write fasta of [%s] fail", family)
		}
		ret[family] = len(ids)
	}
	a.setting.Logger.Infof("exported %d families to [%s]", len(ret), dir)
	return ret, nil
}

func writeFamily(path string, ids []uint, seqs map[uint]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := parser.NewFastaWriter(file)
	for _, id := range ids {
		if err = writer.Write(strconv.FormatUint(uint64(id), 10), seqs[id]); err != nil {
			return err
		}
	}
	return writer.Flush()
}

// familyFiles 返回 dir 中以 suffix 结尾的文件，键为超家族编号
func familyFiles(dir, suffix string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, utils.WrapErrorf(err, "read dir [%s] fail", dir)
	}
	ret := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		ret[strings.TrimSuffix(entry.Name(), suffix)] = filepath.Join(dir, entry.Name())
	}
	return ret, nil
}

/*
Load 读取 dir 中全部 {family}_out.fasta，以 name 为名整体替换库中的比对。
ID 不是序列编号的记录计为 Dropped，库中不存在的序列计为 Unresolved
*/
func (a *Aligner) Load(ctx context.Context, dir, name string) (biodb.SchemaStepStats, error) {
	var stats biodb.SchemaStepStats

	files, err := familyFiles(dir, outSuffix)
	if err != nil {
		return stats, err
	}

	rows := make([]biodb.MultiSequenceAlignment, 0)
	for family, path := range files {
		parseStats, err := a.setting.Parser.ReadFastaFile(path, func(record parser.FastaRecord) error {
			stats.Read++
			id, err := strconv.ParseUint(strings.TrimSpace(record.ID), 10, 64)
			if err != nil {
				stats.Dropped++
				a.setting.Logger.WithFields(logrus.Fields{"family": family, "id": record.ID}).Debug("drop alignment: id is not a sequence id")
				return nil
			}
			rows = append(rows, biodb.MultiSequenceAlignment{
				Name:       name,
				Family:     family,
				Alignment:  record.Sequence,
				SequenceID: uint(id),
			})
			return nil
		})
		stats.Dropped += parseStats.Dropped
		if err != nil {
			return stats, utils.WrapErrorf(err, "read alignment [%s] fail", path)
		}
	}

	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.SequenceID
	}
	known, err := biodb.NewSequenceRepo(a.setting.GetDatabase()).SeqByIDs(ctx, ids)
	if err != nil {
		return stats, err
	}
	kept := rows[:0]
	for _, row := range rows {
		if _, ok := known[row.SequenceID]; !ok {
			stats.Unresolved++
			continue
		}
		kept = append(kept, row)
	}

	deleted, created, err := biodb.NewMsaRepo(a.setting.GetDatabase()).Replace(ctx, name, kept)
	stats.Deleted = deleted
	stats.Created = created
	if err != nil {
		return stats, err
	}

	a.setting.Logger.WithFields(logrus.Fields{
		"name":       name,
		"families":   len(files),
		"deleted":    deleted,
		"created":    created,
		"unresolved": stats.Unresolved,
	}).Info("load alignments finish")
	return stats, nil
}
