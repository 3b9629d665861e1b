package report

import (
	"bytes"
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"os"
	"path/filepath"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/repository/biodb"
	"testing"
	"time"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func newTestReporter(t *testing.T) *Reporter {
	logging.SetDefaultConfig(logging.GenerateTestConfig(t))
	database := biodb.OpenTestDatabase(t)

	seq := biodb.NewSequence("MKV")
	require.Nil(t, database.Create(&seq).Error)
	require.Nil(t, database.Create(&[]biodb.Protein{
		{Accession: "P00001", SeqLength: 3, SequenceID: seq.ID},
		{Accession: "P00002", SeqLength: 3, SequenceID: seq.ID},
	}).Error)
	require.Nil(t, database.Create(&[]biodb.EcEntry{{Number: "3.1.1.1"}, {Number: "2.7.11.1"}}).Error)
	require.Nil(t, database.Create(&[]biodb.ProteinEcEntry{
		{ProteinAccession: "P00001", EcNumber: "3.1.1.1"},
		{ProteinAccession: "P00002", EcNumber: "2.7.11.1"},
	}).Error)
	require.Nil(t, database.Create(&biodb.CathSuperfamily{Number: "3.40.50.1820"}).Error)
	require.Nil(t, database.Create(&biodb.ProteinCathSuperfamily{
		ProteinAccession: "P00001", CathNumber: "3.40.50.1820", StartPos: 1, EndPos: 3, SequenceID: seq.ID,
	}).Error)
	require.Nil(t, database.Create(&[]biodb.PdbEntry{
		{PdbID: "1abc", Title: "esterase", Date: date(2019, time.May, 1), Method: "x-ray diffraction"},
		{PdbID: "2xyz", Title: "kinase complex", Date: date(2022, time.March, 4), Method: "x-ray diffraction"},
		{PdbID: "3aaa", Title: "unlinked", Date: date(2023, time.January, 1), Method: "nmr"},
	}).Error)
	require.Nil(t, database.Create(&[]biodb.ProteinPdbEntry{
		{ProteinAccession: "P00001", PdbID: "1abc"},
		{ProteinAccession: "P00001", PdbID: "2xyz"},
		{ProteinAccession: "P00002", PdbID: "2xyz"},
	}).Error)

	return New(&Setting{GetDatabase: func() *gorm.DB { return database }})
}

func TestPdbToEc(t *testing.T) {
	r := newTestReporter(t)

	report, err := r.PdbToEc(context.Background(), DefaultCutoff)
	require.Nil(t, err)
	assert.Equal(t, PdbEcSummary{
		AllPdbs:       3,
		PreviousPdbs:  1,
		RecentPdbs:    2,
		AllEcs:        2,
		PreviousEcs:   1,
		RecentEcs:     2,
		RecentOnlyEcs: 1,
	}, report.Summary)

	require.Len(t, report.All, 3)
	assert.Equal(t, "2.7.11.1", report.All[0].EcNumber)
	assert.Equal(t, "1abc", report.All[1].PdbID)
	assert.Equal(t, "2xyz", report.All[2].PdbID)

	require.Len(t, report.RecentOnly, 1)
	var buf bytes.Buffer
	require.Nil(t, WriteRows(&buf, report.RecentOnly))
	assert.Equal(t, "PDB_ID,NAME,YEAR,DATE,EC,UniProt IDS,CATH_IDS\n"+
		"2xyz,kinase complex,2022,2022-03-04,2.7.11.1,P00001;P00002,3.40.50.1820\n", buf.String())
}

func TestWritePdbToEc(t *testing.T) {
	r := newTestReporter(t)
	dir := filepath.Join(t.TempDir(), "out")

	_, err := r.WritePdbToEc(context.Background(), dir, DefaultCutoff)
	require.Nil(t, err)

	for _, name := range []string{"pdb2ec_all.csv", "pdb2ec_recent_only.csv"} {
		_, err = os.Stat(filepath.Join(dir, name))
		assert.Nil(t, err, name)
	}
}
