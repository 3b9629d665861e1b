package report

import (
	"context"
	"encoding/csv"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"io"
	"os"
	"path/filepath"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultCutoff 之后（含当天）发布的结构算作新结构
var DefaultCutoff = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

var PdbEcHeader = []string{"PDB_ID", "NAME", "YEAR", "DATE", "EC", "UniProt IDS", "CATH_IDS"}

type Setting struct {
	GetDatabase func() *gorm.DB
	Logger      *logrus.Logger
}

type Reporter struct {
	setting Setting
}

func New(setting *Setting) *Reporter {
	s := *setting
	if s.Logger == nil {
		s.Logger = logging.Default()
	}
	return &Reporter{setting: s}
}

type PdbEcRow struct {
	PdbID      string
	Title      string
	Date       time.Time
	EcNumber   string
	Accessions []string
	CathIDs    []string
}

func (r *PdbEcRow) record() []string {
	return []string{
		r.PdbID,
		r.Title,
		strconv.Itoa(r.Date.Year()),
		r.Date.Format("2006-01-02"),
		r.EcNumber,
		strings.Join(r.Accessions, ";"),
		strings.Join(r.CathIDs, ";"),
	}
}

/*
PdbEcSummary PDB 结构覆盖的 EC 编号统计。

	RecentOnlyEcs 只在 cutoff 之后才有结构的 EC 编号数；
*/
type PdbEcSummary struct {
	AllPdbs       int `json:"all_pdbs"`
	PreviousPdbs  int `json:"previous_pdbs"`
	RecentPdbs    int `json:"recent_pdbs"`
	AllEcs        int `json:"all_ecs"`
	PreviousEcs   int `json:"previous_ecs"`
	RecentEcs     int `json:"recent_ecs"`
	RecentOnlyEcs int `json:"recent_only_ecs"`
}

type PdbEcReport struct {
	Summary    PdbEcSummary
	All        []PdbEcRow
	RecentOnly []PdbEcRow
}

type pdbEntryRow struct {
	PdbID string    `db:"pdb_id"`
	Title string    `db:"title"`
	Date  time.Time `db:"date"`
}

type pairRow struct {
	Left  string `db:"l"`
	Right string `db:"r"`
}

func selectPairs(ctx context.Context, db *sqlx.DB, query string) (map[string][]string, error) {
	var rows []pairRow
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, utils.WrapErrorf(err, "query fail: %s", query)
	}
	ret := make(map[string][]string)
	for _, row := range rows {
		ret[row.Left] = append(ret[row.Left], row.Right)
	}
	for _, values := range ret {
		sort.Strings(values)
	}
	return ret, nil
}

/*
PdbToEc 列出每个 EC 编号对应的 PDB 结构（通过 蛋白-PDB 与 蛋白-EC 两种关联），
以及只在 cutoff 之后才出现结构的 EC 编号
*/
func (r *Reporter) PdbToEc(ctx context.Context, cutoff time.Time) (*PdbEcReport, error) {
	db, err := biodb.Sqlx(r.setting.GetDatabase())
	if err != nil {
		return nil, err
	}

	var entries []pdbEntryRow
	if err = db.SelectContext(ctx, &entries, "SELECT pdb_id, title, date FROM pdb_entries"); err != nil {
		return nil, utils.WrapError(err, "select pdb entries fail")
	}
	pdbEcs, err := selectPairs(ctx, db, `SELECT DISTINCT pp.pdb_id AS l, pe.ec_number AS r FROM protein_pdb_entries pp
		JOIN protein_ec_entries pe ON pe.protein_accession = pp.protein_accession`)
	if err != nil {
		return nil, err
	}
	pdbAccessions, err := selectPairs(ctx, db, "SELECT pdb_id AS l, protein_accession AS r FROM protein_pdb_entries")
	if err != nil {
		return nil, err
	}
	proteinCath, err := selectPairs(ctx, db, "SELECT DISTINCT protein_accession AS l, cath_number AS r FROM protein_cath_superfamilies")
	if err != nil {
		return nil, err
	}

	ret := &PdbEcReport{}
	previousEcs := make(map[string]struct{})
	recentEcs := make(map[string]struct{})
	for _, entry := range entries {
		recent := !entry.Date.Before(cutoff)
		if recent {
			ret.Summary.RecentPdbs++
		} else {
			ret.Summary.PreviousPdbs++
		}
		for _, ec := range pdbEcs[entry.PdbID] {
			if recent {
				recentEcs[ec] = struct{}{}
			} else {
				previousEcs[ec] = struct{}{}
			}
		}
	}
	ret.Summary.AllPdbs = len(entries)
	ret.Summary.PreviousEcs = len(previousEcs)
	ret.Summary.RecentEcs = len(recentEcs)

	allEcs := make(map[string]struct{}, len(previousEcs)+len(recentEcs))
	recentOnly := make(map[string]struct{})
	for ec := range previousEcs {
		allEcs[ec] = struct{}{}
	}
	for ec := range recentEcs {
		allEcs[ec] = struct{}{}
		if _, ok := previousEcs[ec]; !ok {
			recentOnly[ec] = struct{}{}
		}
	}
	ret.Summary.AllEcs = len(allEcs)
	ret.Summary.RecentOnlyEcs = len(recentOnly)

	for _, entry := range entries {
		cath := make(map[string]struct{})
		for _, accession := range pdbAccessions[entry.PdbID] {
			for _, number := range proteinCath[accession] {
				cath[number] = struct{}{}
			}
		}
		cathIDs := utils.SetToSlice(cath)
		sort.Strings(cathIDs)

		for _, ec := range pdbEcs[entry.PdbID] {
			row := PdbEcRow{
				PdbID:      entry.PdbID,
				Title:      entry.Title,
				Date:       entry.Date,
				EcNumber:   ec,
				Accessions: pdbAccessions[entry.PdbID],
				CathIDs:    cathIDs,
			}
			ret.All = append(ret.All, row)
			if _, ok := recentOnly[ec]; ok && !entry.Date.Before(cutoff) {
				ret.RecentOnly = append(ret.RecentOnly, row)
			}
		}
	}
	sortRows(ret.All)
	sortRows(ret.RecentOnly)

	r.setting.Logger.WithFields(logrus.Fields{
		"all_pdbs":        ret.Summary.AllPdbs,
		"all_ecs":         ret.Summary.AllEcs,
		"recent_only_ecs": ret.Summary.RecentOnlyEcs,
	}).Info("pdb to ec report finish")
	return ret, nil
}

func sortRows(rows []PdbEcRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EcNumber != rows[j].EcNumber {
			return rows[i].EcNumber < rows[j].EcNumber
		}
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].PdbID < rows[j].PdbID
	})
}

func WriteRows(w io.Writer, rows []PdbEcRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(PdbEcHeader); err != nil {
		return err
	}
	for i := range rows {
		if err := writer.Write(rows[i].record()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

/*
WritePdbToEc 生成报告并写出 dir/pdb2ec_all.csv 与 dir/pdb2ec_recent_only.csv
*/
func (r *Reporter) WritePdbToEc(ctx context.Context, dir string, cutoff time.Time) (*PdbEcReport, error) {
	report, err := r.PdbToEc(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(dir, 0755); err != nil {
		return report, utils.WrapErrorf(err, "create report dir [%s] fail", dir)
	}

	for name, rows := range map[string][]PdbEcRow{
		"pdb2ec_all.csv":         report.All,
		"pdb2ec_recent_only.csv": report.RecentOnly,
	} {
		if err = writeRowsFile(filepath.Join(dir, name), rows); err != nil {
			return report, utils.WrapErrorf(err, "write [%s] fail", name)
		}
	}
	return report, nil
}

func writeRowsFile(path string, rows []PdbEcRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteRows(file, rows)
}
