package bulkload

import (
	"context"
	"encoding/csv"
	"gorm.io/gorm"
	"io"
	"os"
	"path/filepath"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
	"strconv"
)

const dumpBatchSize = 10000

/*
Dump 描述一张导出表：文件名、列名以及每行的取值
*/
type Dump struct {
	Name   string
	Header []string
	write  func(ctx context.Context, db *gorm.DB, w *csv.Writer) (int64, error)
}

func newDump[T any](name string, header []string, row func(*T) []string) Dump {
	return Dump{
		Name:   name,
		Header: header,
		write: func(ctx context.Context, db *gorm.DB, w *csv.Writer) (int64, error) {
			var written int64
			var batchData []T
			res := db.WithContext(ctx).
				FindInBatches(&batchData, dumpBatchSize, func(tx *gorm.DB, batchNum int) error {
					for i := range batchData {
						if err := w.Write(row(&batchData[i])); err != nil {
							return utils.WrapError(err, "write csv row fail")
						}
						written++
					}
					batchData = nil
					return nil
				})
			return written, res.Error
		},
	}
}

func optionalInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

// Dumps 全部可导出的表
var Dumps = []Dump{
	newDump("proteins", []string{"accession", "entry_name", "name", "reviewed", "taxid", "seq_length"},
		func(p *biodb.Protein) []string {
			return []string{p.Accession, p.EntryName, p.Name, strconv.FormatBool(p.Reviewed), optionalInt(p.Taxid), strconv.Itoa(p.SeqLength)}
		}),
	newDump("go_annotations", []string{"accession", "go_id", "qualifier", "eco_id"},
		func(a *biodb.ProteinGoTerm) []string {
			return []string{a.ProteinAccession, biodb.GoCode(a.GoTermID), a.Qualifier, "ECO:" + a.EcoTermID}
		}),
	newDump("ec_links", []string{"accession", "ec_number"},
		func(e *biodb.ProteinEcEntry) []string {
			return []string{e.ProteinAccession, e.EcNumber}
		}),
	newDump("cath_domains", []string{"accession", "cath_number", "start", "end", "evalue"},
		func(d *biodb.ProteinCathSuperfamily) []string {
			return []string{d.ProteinAccession, d.CathNumber, strconv.Itoa(d.StartPos), strconv.Itoa(d.EndPos), strconv.FormatFloat(d.Evalue, 'g', -1, 64)}
		}),
	newDump("pdb_links", []string{"accession", "pdb_id"},
		func(l *biodb.ProteinPdbEntry) []string {
			return []string{l.ProteinAccession, l.PdbID}
		}),
	newDump("taxa", []string{"taxid", "parent_taxid", "rank", "scientific_name"},
		func(t *biodb.Taxon) []string {
			return []string{strconv.FormatInt(t.Taxid, 10), optionalInt(t.ParentTaxid), t.Rank, t.ScientificName}
		}),
}

/*
WriteCSV 把一张表写成带表头的 CSV，返回写出的行数
*/
func (l *Loader) WriteCSV(ctx context.Context, dump Dump, w io.Writer) (int64, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(dump.Header); err != nil {
		return 0, utils.WrapErrorf(err, "write header of [%s] fail", dump.Name)
	}

	written, err := dump.write(ctx, l.setting.GetDatabase(), writer)
	if err != nil {
		return written, utils.WrapErrorf(err, "dump [%s] fail", dump.Name)
	}

	writer.Flush()
	return written, utils.WrapErrorf(writer.Error(), "flush [%s] fail", dump.Name)
}

/*
DumpAll 把 Dumps 中的每张表写到 dir/<name>.csv，返回 表名 -> 行数
*/
func (l *Loader) DumpAll(ctx context.Context, dir string) (map[string]int64, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, utils.WrapErrorf(err, "create dump dir [%s] fail", dir)
	}

	ret := make(map[string]int64, len(Dumps))
	for _, dump := range Dumps {
		written, err := l.dumpFile(ctx, dump, filepath.Join(dir, dump.Name+".csv"))
		if err != nil {
			return ret, err
		}
		ret[dump.Name] = written
		l.setting.Logger.Infof("dumped %d rows of [%s]", written, dump.Name)
	}
	return ret, nil
}

func (l *Loader) dumpFile(ctx context.Context, dump Dump, path string) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, utils.WrapErrorf(err, "create [%s] fail", path)
	}
	defer file.Close()

	return l.WriteCSV(ctx, dump, file)
}
