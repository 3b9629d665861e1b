package reconcile

import (
	"context"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"os"
	"path/filepath"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/repository/biodb"
	"strings"
	"testing"
)

func newTestReconciler(t *testing.T) (*Reconciler, *gorm.DB) {
	logging.SetDefaultConfig(logging.GenerateTestConfig(t))
	database := biodb.OpenTestDatabase(t)
	r := New(&Setting{
		GetDatabase:    func() *gorm.DB { return database },
		ParseSize:      2,
		TaxonBatchSize: 2,
	})
	return r, database
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.Nil(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

type testEntry struct {
	name       string
	reviewed   bool
	accessions []string
	taxid      int
	keywords   string
	seq        string
}

func (e testEntry) String() string {
	status := "Unreviewed"
	if e.reviewed {
		status = "Reviewed"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ID   %s    %s;    %d AA.\n", e.name, status, len(e.seq))
	fmt.Fprintf(&b, "AC   %s;\n", strings.Join(e.accessions, "; "))
	fmt.Fprintf(&b, "DE   RecName: Full=Protein %s;\n", e.name)
	fmt.Fprintf(&b, "OX   NCBI_TaxID=%d;\n", e.taxid)
	if e.keywords != "" {
		fmt.Fprintf(&b, "KW   %s\n", e.keywords)
	}
	fmt.Fprintf(&b, "SQ   SEQUENCE   %d AA;  1000 MW;  0000000000000000 CRC64;\n", len(e.seq))
	fmt.Fprintf(&b, "     %s\n//\n", e.seq)
	return b.String()
}

func datFile(t *testing.T, entries ...testEntry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.String())
	}
	return writeFile(t, "entries.dat", b.String())
}

func count(t *testing.T, database *gorm.DB, model interface{}) int64 {
	n, err := biodb.CountRows(context.Background(), database, model)
	require.Nil(t, err)
	return n
}

func TestGoTerms(t *testing.T) {
	ctx := context.Background()
	r, database := newTestReconciler(t)

	path := writeFile(t, "go.obo", `format-version: 1.2

[Term]
id: GO:0003824
name: catalytic activity
namespace: molecular_function
def: "Catalysis of a biochemical reaction." [GOC:vw]

[Term]
id: GO:0016787
name: hydrolase activity
namespace: molecular_function
is_a: GO:0003824 ! catalytic activity

[Term]
id: GO:0016788
name: hydrolase activity, acting on ester bonds
namespace: molecular_function
is_a: GO:0016787 ! hydrolase activity
is_a: GO:9999999 ! not in file

[Typedef]
id: part_of
name: part of
`)

	stats, err := r.GoTerms(ctx, path)
	require.Nil(t, err)
	assert.EqualValues(t, 3, stats.Read)
	assert.EqualValues(t, 5, stats.Created)
	assert.EqualValues(t, 1, stats.Unresolved)

	term, err := biodb.NewGoRepo(database).Get(ctx, 3824)
	require.Nil(t, err)
	assert.Equal(t, "catalytic activity", term.Name)
	assert.Equal(t, biodb.AspectMolecularFunction, term.Aspect)
	assert.Equal(t, "Catalysis of a biochemical reaction.", term.Definition)

	stats, err = r.GoTerms(ctx, path)
	require.Nil(t, err)
	assert.EqualValues(t, 0, stats.Created)
	assert.EqualValues(t, 3, stats.Skipped)
	assert.EqualValues(t, 3, count(t, database, &biodb.GoTerm{}))
	assert.EqualValues(t, 2, count(t, database, &biodb.GoRelation{}))
}

func TestEcoTerms(t *testing.T) {
	ctx := context.Background()
	r, database := newTestReconciler(t)

	path := writeFile(t, "eco.obo", `[Term]
id: ECO:0000000
name: evidence

[Term]
id: ECO:0000006
name: experimental evidence
is_a: ECO:0000000 ! evidence

[Term]
id: ECO:0000269
name: experimental evidence used in manual assertion
is_a: ECO:0000006 {source=x} ! experimental evidence
`)
	for i := 0; i < 2; i++ {
		_, err := r.EcoTerms(ctx, path)
		require.Nil(t, err)
	}
	assert.EqualValues(t, 3, count(t, database, &biodb.EcoTerm{}))
	assert.EqualValues(t, 2, count(t, database, &biodb.EcoRelation{}))

	ids, err := biodb.NewEcoRepo(database).IDsByName(ctx, "experimental evidence")
	require.Nil(t, err)
	assert.Equal(t, []string{"0000006"}, ids)
}

func TestEntities(t *testing.T) {
	ctx := context.Background()
	r, database := newTestReconciler(t)

	classes := writeFile(t, "enzclass.txt", "1. -. -.-  Oxidoreductases.\n1. 1. -.-   Acting on the CH-OH group of donors.\n")
	dat := writeFile(t, "enzyme.dat", "ID   1.1.1.1\nDE   Alcohol dehydrogenase.\nAN   Aldehyde reductase.\n//\n"+
		"ID   1.1.1.5\nDE   Transferred entry: 1.1.1.303 and 1.1.1.304.\n//\n")
	for i := 0; i < 2; i++ {
		_, err := r.EcEntries(ctx, classes, dat)
		require.Nil(t, err)
	}
	assert.EqualValues(t, 4, count(t, database, &biodb.EcEntry{}))
	assert.EqualValues(t, 1, count(t, database, &biodb.EcSynonym{}))

	intenz := writeFile(t, "intenz.xml", `<intenz><ec_class ec1="1"><ec_subclass ec2="1"><ec_sub-subclass ec3="1">
<enzyme ec4="1"><synonyms><synonym>Aldehyde reductase</synonym><synonym>ADH</synonym></synonyms></enzyme>
<enzyme ec4="99"><synonyms><synonym>unknown</synonym></synonyms></enzyme>
</ec_sub-subclass></ec_subclass></ec_class></intenz>`)
	stats, err := r.EcSynonyms(ctx, intenz)
	require.Nil(t, err)
	assert.EqualValues(t, 1, stats.Created)
	assert.EqualValues(t, 1, stats.Unresolved)

	synonyms, err := biodb.NewEcRepo(database).Synonyms(ctx, "1.1.1.1")
	require.Nil(t, err)
	assert.Equal(t, []string{"ADH", "Aldehyde reductase"}, synonyms)

	cath := writeFile(t, "cath-names.txt", "3.40.50.1820 alpha/beta hydrolase\n1.10.8.10 Helicase\n")
	for i := 0; i < 2; i++ {
		_, err = r.CathSuperfamilies(ctx, cath)
		require.Nil(t, err)
	}
	assert.EqualValues(t, 2, count(t, database, &biodb.CathSuperfamily{}))

	pdb := writeFile(t, "entries.idx", "IDCODE\n------\n"+
		"1ABC\tHYDROLASE\t01/02/03\tSOME HYDROLASE\tHUMAN\tDoe, J.\t2.0\tX-RAY DIFFRACTION\n"+
		"1ABC\tHYDROLASE\t01/02/03\tSOME HYDROLASE\tHUMAN\tDoe, J.\t2.0\tX-RAY DIFFRACTION\n")
	stats, err = r.PdbEntries(ctx, pdb)
	require.Nil(t, err)
	assert.EqualValues(t, 1, stats.Created)
	assert.EqualValues(t, 1, stats.Skipped)
}
