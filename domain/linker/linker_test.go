package linker

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"os"
	"path/filepath"
	"pseudoenzymes-backend/domain/reconcile"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/repository/remote"
	"strings"
	"testing"
)

const testSequence = "MKVLAAGGHHWW"

type fakeFetcher struct {
	entries map[string]string
	err     error
	calls   []string
}

func (f *fakeFetcher) FetchEntry(ctx context.Context, accession string) ([]byte, error) {
	f.calls = append(f.calls, accession)
	if f.err != nil {
		return nil, f.err
	}
	entry, ok := f.entries[accession]
	if !ok {
		return nil, remote.ErrNotFound
	}
	return []byte(entry), nil
}

func newTestLinker(t *testing.T, fetcher Fetcher, maxFetch int) (*Linker, *gorm.DB) {
	logging.SetDefaultConfig(logging.GenerateTestConfig(t))
	database := biodb.OpenTestDatabase(t)
	getDatabase := func() *gorm.DB { return database }
	l := New(&Setting{
		GetDatabase:    getDatabase,
		FlushSize:      2,
		MaxRemoteFetch: maxFetch,
		Fetcher:        fetcher,
		Reconciler:     reconcile.New(&reconcile.Setting{GetDatabase: getDatabase}),
	})
	seed(t, database)
	return l, database
}

func seed(t *testing.T, database *gorm.DB) {
	seq := biodb.NewSequence(testSequence)
	require.Nil(t, database.Create(&seq).Error)
	require.Nil(t, database.Create(&[]biodb.Protein{
		{Accession: "P00001", Reviewed: true, SeqLength: len(testSequence), SequenceID: seq.ID},
		{Accession: "P00002", Reviewed: true, SeqLength: len(testSequence), SequenceID: seq.ID},
	}).Error)
	require.Nil(t, database.Create(&[]biodb.GoTerm{
		{ID: 3824, Name: "catalytic activity", Aspect: "molecular_function"},
		{ID: 16787, Name: "hydrolase activity", Aspect: "molecular_function"},
	}).Error)
	require.Nil(t, database.Create(&[]biodb.EcoTerm{
		{ID: "0000314", Name: "direct assay evidence used in manual assertion"},
		{ID: "0000501", Name: "evidence used in automatic assertion"},
	}).Error)
	require.Nil(t, database.Create(&[]biodb.EcEntry{
		{Number: "3.1.1.1", Name: "Carboxylesterase"},
		{Number: "3.1.1.-"},
	}).Error)
	require.Nil(t, database.Create(&biodb.CathSuperfamily{Number: "3.40.50.1820", Name: "alpha/beta hydrolase"}).Error)
	require.Nil(t, database.Create(&[]biodb.PdbEntry{{PdbID: "1abc"}, {PdbID: "2xyz"}}).Error)
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.Nil(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func count(t *testing.T, database *gorm.DB, model interface{}) int64 {
	n, err := biodb.CountRows(context.Background(), database, model)
	require.Nil(t, err)
	return n
}

func gpaLine(accession, qualifier, goID, eco string) string {
	return strings.Join([]string{"UniProtKB", accession, qualifier, goID, "PMID:1", eco, "", "", "20200101", "UniProt", "", ""}, "\t") + "\n"
}

func TestGoFromGPA(t *testing.T) {
	ctx := context.Background()
	l, database := newTestLinker(t, nil, 0)

	path := writeFile(t, "goa.gpa", "!gpa-version: 1.1\n"+
		gpaLine("P00001", "enables", "GO:0003824", "ECO:0000314")+
		gpaLine("P00001", "enables", "GO:0003824", "ECO:0000314")+
		gpaLine("P00001", "NOT|enables", "GO:0016787", "ECO:0000501")+
		gpaLine("P09999", "enables", "GO:0003824", "ECO:0000314")+
		gpaLine("P00002", "enables", "GO:9999999", "ECO:0000314")+
		gpaLine("P00001", "enables", "GO:0003824", "ECO:0000314"))

	stats, err := l.GoFromGPA(ctx, path)
	require.Nil(t, err)
	assert.EqualValues(t, 6, stats.Read)
	assert.EqualValues(t, 2, stats.Created)
	assert.EqualValues(t, 2, stats.Skipped)
	assert.EqualValues(t, 2, stats.Unresolved)

	var rows []biodb.ProteinGoTerm
	require.Nil(t, database.Order("go_term_id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "enables", rows[0].Qualifier)
	assert.Equal(t, "0000314", rows[0].EcoTermID)
	assert.Equal(t, "NOT|enables", rows[1].Qualifier)

	stats, err = l.GoFromGPA(ctx, path)
	require.Nil(t, err)
	assert.EqualValues(t, 0, stats.Created)
	assert.EqualValues(t, 2, count(t, database, &biodb.ProteinGoTerm{}))
}

func TestGoFromGAF_UnknownProtein(t *testing.T) {
	ctx := context.Background()
	l, database := newTestLinker(t, nil, 0)

	mapping := writeFile(t, "gaf-eco-mapping.txt", "IDA\tDefault\tECO:0000314\n")
	gafLine := func(accession, qualifier string) string {
		return strings.Join([]string{"UniProtKB", accession, "SYM", qualifier, "GO:0003824", "PMID:1", "IDA", "", "F", "", "", "protein", "taxon:9606", "20200101", "UniProt"}, "\t") + "\n"
	}
	path := writeFile(t, "goa.gaf", "!gaf-version: 2.1\n"+gafLine("P09999", "enables")+gafLine("P00002", ""))

	stats, err := l.GoFromGAF(ctx, path, mapping)
	require.Nil(t, err)
	assert.EqualValues(t, 1, stats.Unresolved)
	assert.EqualValues(t, 1, stats.Created)

	var rows []biodb.ProteinGoTerm
	require.Nil(t, database.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "P00002", rows[0].ProteinAccession)
	assert.Equal(t, "enables", rows[0].Qualifier)
}

func TestEcLinks(t *testing.T) {
	ctx := context.Background()
	l, database := newTestLinker(t, nil, 0)

	sprot := writeFile(t, "uniprot_sprot.dat", `ID   EST1_HUMAN              Reviewed;          12 AA.
AC   P00001;
DE   RecName: Full=Esterase;
DE            EC=3.1.1.1 {ECO:0000269|PubMed:123};
DE            EC=9.9.9.9;
OX   NCBI_TaxID=9606;
SQ   SEQUENCE   12 AA;  1000 MW;  0000000000000000 CRC64;
     MKVLAAGGHH WW
//
`)
	stats, err := l.EcFromSwissProt(ctx, sprot)
	require.Nil(t, err)
	assert.EqualValues(t, 2, stats.Read)
	assert.EqualValues(t, 1, stats.Created)
	assert.EqualValues(t, 1, stats.Unresolved)

	dat := writeFile(t, "enzyme.dat", `ID   3.1.1.1
DE   Carboxylesterase.
DR   P00001, EST1_HUMAN;  P00002, EST2_HUMAN;  P09999, EST9_HUMAN;
//
`)
	stats, err = l.EcFromEnzymeDat(ctx, dat)
	require.Nil(t, err)
	assert.EqualValues(t, 3, stats.Read)
	assert.EqualValues(t, 1, stats.Created)
	assert.EqualValues(t, 1, stats.Skipped)
	assert.EqualValues(t, 1, stats.Unresolved)

	numbers, err := biodb.NewEcRepo(database).NumbersOf(ctx, "P00002")
	require.Nil(t, err)
	assert.Equal(t, []string{"3.1.1.1"}, numbers)
}

func TestDomainFragment(t *testing.T) {
	assert.Equal(t, "JKLMNOPQRST", DomainFragment("ABCDEFGHIJKLMNOPQRSTUVWXYZ", 10, 20))
	assert.Equal(t, "A", DomainFragment("ABC", 1, 1))
	assert.Equal(t, "ABC", DomainFragment("ABC", 1, 3))
}

func TestCathDomains(t *testing.T) {
	ctx := context.Background()
	l, database := newTestLinker(t, nil, 0)

	domainLine := func(accession, signature, start, end, evalue string) string {
		return strings.Join([]string{accession, "IPR029058", "Alpha/Beta hydrolase fold", signature, start, end, evalue}, "\t") + "\n"
	}
	path := writeFile(t, "protein2ipr.dat",
		domainLine("P00001", "G3DSA:3.40.50.1820", "2", "5", "1.5e-10")+
			domainLine("P00002", "G3DSA:3.40.50.1820", "2", "5", "2.0e-10")+
			domainLine("P00001", "G3DSA:3.40.50.1820", "10", "20", "1.0")+
			domainLine("P09999", "G3DSA:3.40.50.1820", "2", "5", "1.0")+
			domainLine("P00001", "G3DSA:9.9.9.9", "2", "5", "1.0")+
			domainLine("P00001", "PF00561", "2", "5", "1.0"))

	stats, err := l.CathDomains(ctx, path)
	require.Nil(t, err)
	assert.EqualValues(t, 5, stats.Read)
	assert.EqualValues(t, 2, stats.Created)
	assert.EqualValues(t, 1, stats.Dropped)
	assert.EqualValues(t, 2, stats.Unresolved)

	var rows []biodb.ProteinCathSuperfamily
	require.Nil(t, database.Preload("Sequence").Order("protein_accession").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "KVLA", rows[0].Sequence.Seq)
	assert.Equal(t, rows[0].SequenceID, rows[1].SequenceID)
	assert.InDelta(t, 1.5e-10, rows[0].Evalue, 1e-20)
	assert.EqualValues(t, 2, count(t, database, &biodb.Sequence{}))

	stats, err = l.CathDomains(ctx, path)
	require.Nil(t, err)
	assert.EqualValues(t, 0, stats.Created)
	assert.EqualValues(t, 2, count(t, database, &biodb.Sequence{}))
}

const fetchedEntry = `ID   FETCH_HUMAN             Reviewed;           3 AA.
AC   Q11111;
DE   RecName: Full=Fetched protein;
OX   NCBI_TaxID=9606;
SQ   SEQUENCE   3 AA;  1000 MW;  0000000000000000 CRC64;
     MKW
//
`

const siftsText = "# 2024/01/01\nSP_PRIMARY\tPDB\n" +
	"P00001\t1abc;2XYZ\n" +
	"P00002\t9zzz\n" +
	"Q11111\t1abc\n" +
	"Q22222\t2xyz\n"

func TestPdbFromSifts(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{entries: map[string]string{"Q11111": fetchedEntry}}
	l, database := newTestLinker(t, fetcher, 10)

	stats, err := l.PdbFromSifts(ctx, writeFile(t, "uniprot_pdb.tsv", siftsText))
	require.Nil(t, err)
	assert.EqualValues(t, 5, stats.Read)
	assert.EqualValues(t, 3, stats.Created)
	assert.EqualValues(t, 2, stats.Unresolved)
	assert.Equal(t, []string{"Q11111", "Q22222"}, fetcher.calls)

	assert.EqualValues(t, 3, count(t, database, &biodb.ProteinPdbEntry{}))
	protein, err := biodb.NewProteinRepo(database).Get(ctx, "Q11111")
	require.Nil(t, err)
	assert.Equal(t, "MKW", protein.Sequence.Seq)
}

func TestPdbFromSifts_FetchCap(t *testing.T) {
	fetcher := &fakeFetcher{entries: map[string]string{"Q11111": fetchedEntry}}
	l, database := newTestLinker(t, fetcher, 1)

	stats, err := l.PdbFromSifts(context.Background(), writeFile(t, "uniprot_pdb.tsv", siftsText))
	require.Nil(t, err)
	assert.Equal(t, []string{"Q11111"}, fetcher.calls)
	assert.EqualValues(t, 2, stats.Unresolved)
	assert.EqualValues(t, 3, count(t, database, &biodb.ProteinPdbEntry{}))
}

func TestPdbFromSifts_FetchedRecordDropped(t *testing.T) {
	ctx := context.Background()
	// 返回的条目 accession 超长，导入时被丢弃
	dropped := strings.Replace(fetchedEntry, "AC   Q11111;", "AC   A0A0123456789;", 1)
	fetcher := &fakeFetcher{entries: map[string]string{"Q11111": dropped}}
	l, database := newTestLinker(t, fetcher, 10)

	stats, err := l.PdbFromSifts(ctx, writeFile(t, "uniprot_pdb.tsv", siftsText))
	require.Nil(t, err)
	assert.EqualValues(t, 3, stats.Unresolved)
	assert.EqualValues(t, 2, count(t, database, &biodb.ProteinPdbEntry{}))

	var orphans int64
	require.Nil(t, database.Model(&biodb.ProteinPdbEntry{}).
		Where("protein_accession NOT IN (?)", database.Model(&biodb.Protein{}).Select("accession")).
		Count(&orphans).Error)
	assert.EqualValues(t, 0, orphans)
}

func TestPdbFromSifts_FetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection reset")}
	l, _ := newTestLinker(t, fetcher, 10)

	_, err := l.PdbFromSifts(context.Background(), writeFile(t, "uniprot_pdb.tsv", siftsText))
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPdbFromSifts_NoFetcher(t *testing.T) {
	l, database := newTestLinker(t, nil, 0)

	stats, err := l.PdbFromSifts(context.Background(), writeFile(t, "uniprot_pdb.tsv", siftsText))
	require.Nil(t, err)
	assert.EqualValues(t, 3, stats.Unresolved)
	assert.EqualValues(t, 2, count(t, database, &biodb.ProteinPdbEntry{}))
}
