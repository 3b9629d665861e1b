package reconcile

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"pgregory.net/rapid"
	"pseudoenzymes-backend/domain/parser"
	"pseudoenzymes-backend/repository/biodb"
	"testing"
)

func seedTaxa(t *testing.T, r *Reconciler) {
	_, err := r.Taxa(context.Background(), TaxonomyPaths{
		Nodes:  writeFile(t, "nodes.dmp", "1\t|\t1\t|\tno rank\t|\n9606\t|\t1\t|\tspecies\t|\n"),
		Names:  writeFile(t, "names.dmp", "9606\t|\tHomo sapiens\t|\t\t|\tscientific name\t|\n"),
		Merged: writeFile(t, "merged.dmp", "63221\t|\t9606\t|\n"),
	})
	require.Nil(t, err)
}

func TestProteins(t *testing.T) {
	ctx := context.Background()
	r, database := newTestReconciler(t)
	seedTaxa(t, r)

	path := datFile(t,
		testEntry{name: "A_HUMAN", reviewed: true, accessions: []string{"P00001", "Q00009", "P00003"}, taxid: 63221,
			keywords: "Hydrolase {ECO:0000256|ARBA:ARBA00022801}; ARBA:ARBA00022801; Zinc.", seq: "MKVLAA"},
		testEntry{name: "B_HUMAN", reviewed: true, accessions: []string{"P00002"}, taxid: 9606, keywords: "Hydrolase.", seq: "MKVLAA"},
		testEntry{name: "C_MOUSE", reviewed: true, accessions: []string{"P00003"}, taxid: 77777, seq: "MKWWW"},
		testEntry{name: "A_HUMAN", reviewed: true, accessions: []string{"P00001"}, taxid: 9606, seq: "MKVLAA"},
	)

	stats, err := r.Proteins(ctx, path)
	require.Nil(t, err)
	assert.EqualValues(t, 4, stats.Read)
	assert.EqualValues(t, 3, stats.Created)
	assert.EqualValues(t, 1, stats.Skipped)

	assert.EqualValues(t, 3, count(t, database, &biodb.Protein{}))
	assert.EqualValues(t, 2, count(t, database, &biodb.Sequence{}))
	assert.EqualValues(t, 2, count(t, database, &biodb.Keyword{}))

	repo := biodb.NewProteinRepo(database)
	a, err := repo.Get(ctx, "P00001")
	require.Nil(t, err)
	assert.Equal(t, "Protein A_HUMAN", a.Name)
	require.NotNil(t, a.Taxid)
	assert.EqualValues(t, 9606, *a.Taxid)
	assert.Equal(t, []string{"Q00009"}, []string(a.SecondaryAccessions))
	assert.Equal(t, 6, a.SeqLength)
	assert.Equal(t, "MKVLAA", a.Sequence.Seq)

	c, err := repo.Get(ctx, "P00003")
	require.Nil(t, err)
	assert.Nil(t, c.Taxid)

	keywords, err := biodb.NewKeywordRepo(database).KeywordsOf(ctx, "P00001")
	require.Nil(t, err)
	assert.Equal(t, []string{"hydrolase", "zinc"}, keywords)

	stats, err = r.Proteins(ctx, path)
	require.Nil(t, err)
	assert.EqualValues(t, 0, stats.Created)
	assert.EqualValues(t, 3, count(t, database, &biodb.Protein{}))
	assert.EqualValues(t, 2, count(t, database, &biodb.Sequence{}))
}

func TestProteins_Promote(t *testing.T) {
	ctx := context.Background()
	r, database := newTestReconciler(t)

	trembl := datFile(t, testEntry{name: "X_HUMAN", accessions: []string{"A0A001"}, taxid: 9606, seq: "MKV"})
	_, err := r.Proteins(ctx, trembl)
	require.Nil(t, err)

	sprot := datFile(t, testEntry{name: "X_HUMAN", reviewed: true, accessions: []string{"A0A001"}, taxid: 9606, seq: "MKVL"})
	stats, err := r.Proteins(ctx, sprot)
	require.Nil(t, err)
	assert.EqualValues(t, 1, stats.Updated)
	assert.EqualValues(t, 0, stats.Created)

	protein, err := biodb.NewProteinRepo(database).Get(ctx, "A0A001")
	require.Nil(t, err)
	assert.True(t, protein.Reviewed)
	assert.Equal(t, "MKV", protein.Sequence.Seq)

	stats, err = r.Proteins(ctx, trembl)
	require.Nil(t, err)
	assert.EqualValues(t, 0, stats.Updated)
	assert.EqualValues(t, 1, stats.Skipped)
}

func TestProteins_SecondaryCollisionAcrossRuns(t *testing.T) {
	ctx := context.Background()
	r, database := newTestReconciler(t)
	repo := biodb.NewProteinRepo(database)

	_, err := r.Proteins(ctx, datFile(t,
		testEntry{name: "A_HUMAN", reviewed: true, accessions: []string{"P00001", "Q00009", "Q00010"}, seq: "MKV"},
		testEntry{name: "B_HUMAN", reviewed: true, accessions: []string{"P00002", "Q00011"}, seq: "MKVV"},
	))
	require.Nil(t, err)

	// 第二次导入把 Q00009 作为主 accession 新建
	stats, err := r.Proteins(ctx, datFile(t,
		testEntry{name: "Q9_HUMAN", accessions: []string{"Q00009"}, seq: "MKVVV"},
	))
	require.Nil(t, err)
	assert.EqualValues(t, 1, stats.Created)

	a, err := repo.Get(ctx, "P00001")
	require.Nil(t, err)
	assert.Equal(t, []string{"Q00010"}, []string(a.SecondaryAccessions))
	b, err := repo.Get(ctx, "P00002")
	require.Nil(t, err)
	assert.Equal(t, []string{"Q00011"}, []string(b.SecondaryAccessions))

	// 单条记录的导入路径同样检查
	_, err = r.ProteinRecords(ctx, TaxidMap{}, []parser.SwissProtRecord{
		{Accessions: []string{"Q00011"}, Sequence: "MW"},
	})
	require.Nil(t, err)
	b, err = repo.Get(ctx, "P00002")
	require.Nil(t, err)
	assert.Empty(t, b.SecondaryAccessions)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	r, database := newTestReconciler(t)

	_, err := r.Proteins(ctx, datFile(t,
		testEntry{name: "A_HUMAN", reviewed: true, accessions: []string{"P00001"}, seq: "MKV"},
		testEntry{name: "B_HUMAN", reviewed: true, accessions: []string{"P00002"}, seq: "MKVV", keywords: "Zinc."},
		testEntry{name: "C_HUMAN", accessions: []string{"A0A003"}, seq: "MKVVV"},
	))
	require.Nil(t, err)

	stats, err := r.Prune(ctx, datFile(t, testEntry{name: "A_HUMAN", reviewed: true, accessions: []string{"P00001"}, seq: "MKV"}))
	require.Nil(t, err)
	assert.EqualValues(t, 1, stats.Deleted)

	existing, err := biodb.NewProteinRepo(database).AllAccessions(ctx)
	require.Nil(t, err)
	assert.Equal(t, map[string]struct{}{"P00001": {}, "A0A003": {}}, existing)
	assert.EqualValues(t, 2, count(t, database, &biodb.Sequence{}))
	assert.EqualValues(t, 0, count(t, database, &biodb.ProteinKeyword{}))
}

func TestPrune_KeepsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	r, database := newTestReconciler(t)

	_, err := r.Proteins(ctx, datFile(t,
		testEntry{name: "A_HUMAN", reviewed: true, accessions: []string{"P00001"}, seq: "MKV"},
		testEntry{name: "B_HUMAN", reviewed: true, accessions: []string{"P00002"}, seq: "MKVV"},
	))
	require.Nil(t, err)

	// B_HUMAN 这一版缺少序列，解析时被丢弃，但它仍是当前条目
	current := datFile(t, testEntry{name: "A_HUMAN", reviewed: true, accessions: []string{"P00001"}, seq: "MKV"})
	content, err := os.ReadFile(current)
	require.Nil(t, err)
	broken := string(content) + "ID   B_HUMAN    Reviewed;    4 AA.\nAC   P00002;\n//\n"
	require.Nil(t, os.WriteFile(current, []byte(broken), 0644))

	stats, err := r.Prune(ctx, current)
	require.Nil(t, err)
	assert.EqualValues(t, 1, stats.Dropped)
	assert.EqualValues(t, 0, stats.Deleted)

	existing, err := biodb.NewProteinRepo(database).AllAccessions(ctx)
	require.Nil(t, err)
	assert.Equal(t, map[string]struct{}{"P00001": {}, "P00002": {}}, existing)
}

func TestProteins_SequenceDedupAcrossBatches(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seqs := rapid.SliceOfN(rapid.SampledFrom([]string{"MKV", "MKVL", "MAAAA", "MW"}), 1, 12).Draw(rt, "seqs")
		parseSize := rapid.IntRange(1, 5).Draw(rt, "parseSize")

		r, database := newTestReconciler(t)
		records := make([]parser.SwissProtRecord, len(seqs))
		distinct := make(map[string]struct{})
		for i, seq := range seqs {
			records[i] = parser.SwissProtRecord{
				Accessions: []string{"P" + string(rune('A'+i)) + "0000"},
				Reviewed:   true,
				Sequence:   seq,
			}
			distinct[seq] = struct{}{}
		}

		ctx := context.Background()
		for _, part := range chunk(records, parseSize) {
			if _, err := r.ProteinRecords(ctx, TaxidMap{}, part); err != nil {
				rt.Fatal(err)
			}
		}

		n, err := biodb.CountRows(ctx, database, &biodb.Sequence{})
		if err != nil {
			rt.Fatal(err)
		}
		if n != int64(len(distinct)) {
			rt.Fatalf("expected %d sequences, got %d", len(distinct), n)
		}
	})
}

func chunk[T any](s []T, size int) [][]T {
	var ret [][]T
	for size < len(s) {
		ret = append(ret, s[:size])
		s = s[size:]
	}
	return append(ret, s)
}
