package enzyme

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/repository/biodb"
	"testing"
)

func keys(set map[string]struct{}) []string {
	ret := make([]string, 0, len(set))
	for k := range set {
		ret = append(ret, k)
	}
	return ret
}

func newTestClassifier(t *testing.T) (*Classifier, *gorm.DB) {
	logging.SetDefaultConfig(logging.GenerateTestConfig(t))
	database := biodb.OpenTestDatabase(t)
	seed(t, database)
	return New(&Setting{GetDatabase: func() *gorm.DB { return database }, Chunk: 1}), database
}

func seed(t *testing.T, database *gorm.DB) {
	seq := biodb.NewSequence("MKV")
	require.Nil(t, database.Create(&seq).Error)

	protein := func(accession string, length int) biodb.Protein {
		return biodb.Protein{Accession: accession, Reviewed: true, SeqLength: length, SequenceID: seq.ID}
	}
	proteins := []biodb.Protein{
		protein("P00001", 100), protein("P00002", 100), protein("P00003", 100),
		protein("P00004", 100), protein("P00005", 100), protein("P00006", 5000),
	}
	proteins[2].Reviewed = false
	require.Nil(t, database.Create(&proteins).Error)

	require.Nil(t, database.Create(&[]biodb.GoTerm{
		{ID: 3824, Name: "catalytic activity"},
		{ID: 16787, Name: "hydrolase activity"},
		{ID: 16788, Name: "hydrolase activity, acting on ester bonds"},
		{ID: 5515, Name: "protein binding"},
	}).Error)
	require.Nil(t, database.Create(&[]biodb.GoRelation{
		{Term1ID: 16787, Relation: biodb.RelationIsA, Term2ID: 3824},
		{Term1ID: 16788, Relation: biodb.RelationIsA, Term2ID: 16787},
	}).Error)
	require.Nil(t, database.Create(&[]biodb.EcoTerm{
		{ID: "0000006", Name: "experimental evidence"},
		{ID: "0000314", Name: "direct assay evidence"},
		{ID: "0000501", Name: "evidence used in automatic assertion"},
	}).Error)
	require.Nil(t, database.Create(&biodb.EcoRelation{Term1ID: "0000314", Relation: biodb.RelationIsA, Term2ID: "0000006"}).Error)

	require.Nil(t, database.Create(&[]biodb.EcEntry{{Number: "3.1.1.1"}, {Number: "3.1.1.2"}, {Number: "2.7.11.1"}, {Number: "3.1.-.-"}}).Error)
	require.Nil(t, database.Create(&[]biodb.Keyword{{Name: "hydrolase"}, {Name: "zinc"}}).Error)

	require.Nil(t, database.Create(&[]biodb.ProteinKeyword{
		{ProteinAccession: "P00001", KeywordName: "hydrolase"},
		{ProteinAccession: "P00002", KeywordName: "zinc"},
		{ProteinAccession: "P00005", KeywordName: "hydrolase"},
		{ProteinAccession: "P00006", KeywordName: "hydrolase"},
	}).Error)
	require.Nil(t, database.Create(&[]biodb.ProteinEcEntry{
		{ProteinAccession: "P00002", EcNumber: "3.1.1.1"},
		{ProteinAccession: "P00005", EcNumber: "3.1.1.2"},
	}).Error)
	require.Nil(t, database.Create(&[]biodb.ProteinGoTerm{
		{ProteinAccession: "P00002", GoTermID: 16788, Qualifier: "enables", EcoTermID: "0000314"},
		{ProteinAccession: "P00003", GoTermID: 16787, Qualifier: "NOT|enables", EcoTermID: "0000314"},
		{ProteinAccession: "P00004", GoTermID: 16787, Qualifier: "enables", EcoTermID: "0000501"},
		{ProteinAccession: "P00004", GoTermID: 5515, Qualifier: "enables", EcoTermID: "0000314"},
		{ProteinAccession: "P00005", GoTermID: 3824, Qualifier: "enables", EcoTermID: "0000314"},
	}).Error)
}

func TestSets(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClassifier(t)

	ec, err := c.EcSet(ctx, Filter{})
	require.Nil(t, err)
	assert.ElementsMatch(t, []string{"P00002", "P00005"}, keys(ec))

	keyword, err := c.KeywordSet(ctx, Filter{})
	require.Nil(t, err)
	assert.ElementsMatch(t, []string{"P00001", "P00005", "P00006"}, keys(keyword))

	goSet, err := c.GoSet(ctx, Filter{}, false)
	require.Nil(t, err)
	assert.ElementsMatch(t, []string{"P00002", "P00004", "P00005"}, keys(goSet))

	experimental, err := c.GoSet(ctx, Filter{}, true)
	require.Nil(t, err)
	assert.ElementsMatch(t, []string{"P00002", "P00005"}, keys(experimental))
}

func TestSets_Filter(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClassifier(t)

	keyword, err := c.KeywordSet(ctx, Filter{MinLength: 100, MaxLength: 100})
	require.Nil(t, err)
	assert.ElementsMatch(t, []string{"P00001", "P00005"}, keys(keyword))

	keyword, err = c.KeywordSet(ctx, Filter{MinLength: 5000})
	require.Nil(t, err)
	assert.ElementsMatch(t, []string{"P00006"}, keys(keyword))

	n, err := c.CountByLength(ctx, 100, 100)
	require.Nil(t, err)
	assert.EqualValues(t, 5, n)

	goSet, err := c.GoSet(ctx, Filter{ReviewedOnly: true}, false)
	require.Nil(t, err)
	assert.ElementsMatch(t, []string{"P00002", "P00004", "P00005"}, keys(goSet))
}

func TestClassify_KeywordOnly(t *testing.T) {
	c, _ := newTestClassifier(t)

	classification, err := c.Classify(context.Background(), Filter{}, false)
	require.Nil(t, err)
	assert.Equal(t, []string{"P00005"}, classification.Agreed)
	assert.Equal(t, []string{SetKeyword}, classification.Disputed["P00001"])
	assert.Equal(t, []string{SetEc, SetGo}, classification.Disputed["P00002"])
	assert.NotContains(t, classification.Disputed, "P00003")

	summary := classification.Summary()
	assert.Equal(t, 5, summary.Union)
	assert.Equal(t, 1, summary.Agreed)
	assert.Equal(t, 4, summary.Disputed)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	c, database := newTestClassifier(t)

	seq := biodb.NewSequence("KV")
	require.Nil(t, database.Create(&seq).Error)
	require.Nil(t, database.Create(&[]biodb.CathSuperfamily{{Number: "3.40.50.1820"}, {Number: "1.10.10.10"}}).Error)
	require.Nil(t, database.Create(&[]biodb.ProteinCathSuperfamily{
		{ProteinAccession: "P00002", CathNumber: "3.40.50.1820", StartPos: 1, EndPos: 2, SequenceID: seq.ID},
		{ProteinAccession: "P00005", CathNumber: "3.40.50.1820", StartPos: 1, EndPos: 2, SequenceID: seq.ID},
		{ProteinAccession: "P00005", CathNumber: "1.10.10.10", StartPos: 2, EndPos: 3, SequenceID: seq.ID},
	}).Error)
	require.Nil(t, database.Create(&biodb.ProteinEcEntry{ProteinAccession: "P00005", EcNumber: "2.7.11.1"}).Error)

	single, err := c.SingleDomainProteins(ctx)
	require.Nil(t, err)
	assert.Equal(t, []string{"P00002"}, single)

	families, err := c.Ec3PerFamily(ctx)
	require.Nil(t, err)
	assert.Equal(t, map[string]int{"3.40.50.1820": 2, "1.10.10.10": 2}, families)
}

func TestEc3(t *testing.T) {
	got, ok := Ec3("3.1.1.1")
	assert.True(t, ok)
	assert.Equal(t, "3.1.1", got)

	for _, number := range []string{"3.1.-.-", "3.1", "3.1.n2.1"} {
		_, ok = Ec3(number)
		assert.False(t, ok, number)
	}
}
