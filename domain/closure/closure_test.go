package closure

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
	"sort"
	"testing"
)

func keys[K comparable](set map[K]struct{}) map[K]bool {
	ret := make(map[K]bool, len(set))
	for k := range set {
		ret[k] = true
	}
	return ret
}

func TestDescendants_OboExample(t *testing.T) {
	g := NewGraph[int]()
	g.AddNode(1)
	g.AddEdge(2, 1)

	result, err := Descendants[int](context.Background(), g, []int{1})
	require.Nil(t, err)
	assert.Equal(t, map[int]bool{1: true, 2: true}, keys(result))

	result, err = Descendants[int](context.Background(), g, []int{2})
	require.Nil(t, err)
	assert.Equal(t, map[int]bool{2: true}, keys(result))
}

func TestDescendants_QueriesFrontierOnly(t *testing.T) {
	g := NewGraph[string]()
	g.AddEdge("b", "a")
	g.AddEdge("c", "a")
	g.AddEdge("d", "b")
	g.AddEdge("d", "c")
	g.AddEdge("a", "d")

	queried := make(map[string]int)
	source := SourceFunc[string](func(ctx context.Context, parents []string) ([]string, error) {
		for _, parent := range parents {
			queried[parent]++
		}
		return g.Children(ctx, parents)
	})

	result, err := Descendants[string](context.Background(), source, []string{"a", "a"})
	require.Nil(t, err)
	assert.Len(t, result, 4)
	for node, count := range queried {
		assert.Equal(t, 1, count, node)
	}
}

func TestDescendants_SourceError(t *testing.T) {
	boom := errors.New("boom")
	source := SourceFunc[int](func(ctx context.Context, parents []int) ([]int, error) {
		return nil, boom
	})
	_, err := Descendants[int](context.Background(), source, []int{1})
	assert.ErrorIs(t, err, boom)
}

func TestGraph_SelfEdgeAndParents(t *testing.T) {
	g := NewGraph[int64]()
	g.AddEdge(1, 1)
	g.AddEdge(2, 1)
	g.AddEdge(3, 1)

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []int64{1}, g.Parents(2))
	assert.Nil(t, g.Parents(99))

	children, err := g.Children(context.Background(), []int64{1, 99})
	require.Nil(t, err)
	sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
	assert.Equal(t, []int64{2, 3}, children)
}

func randomGraph(t *rapid.T) (*Graph[int], int) {
	n := rapid.IntRange(1, 25).Draw(t, "n")
	g := NewGraph[int]()
	for i := 0; i < n; i++ {
		g.AddNode(i)
	}
	edges := rapid.IntRange(0, 60).Draw(t, "edges")
	for i := 0; i < edges; i++ {
		child := rapid.IntRange(0, n-1).Draw(t, "child")
		parent := rapid.IntRange(0, n-1).Draw(t, "parent")
		g.AddEdge(child, parent)
	}
	return g, n
}

func subset(t *rapid.T, n int, label string) []int {
	return rapid.SliceOfDistinct(rapid.IntRange(0, n-1), rapid.ID[int]).Draw(t, label)
}

func TestDescendants_Properties(t *testing.T) {
	ctx := context.Background()
	rapid.Check(t, func(t *rapid.T) {
		g, n := randomGraph(t)
		roots := subset(t, n, "roots")
		extra := subset(t, n, "extra")

		closure, err := Descendants[int](ctx, g, roots)
		if err != nil {
			t.Fatal(err)
		}
		for _, root := range roots {
			if _, ok := closure[root]; !ok {
				t.Fatalf("root %d missing from closure", root)
			}
		}

		again, err := Descendants[int](ctx, g, utils.SetToSlice(closure))
		if err != nil {
			t.Fatal(err)
		}
		if len(again) != len(closure) {
			t.Fatalf("closure is not a fixed point: %d != %d", len(again), len(closure))
		}

		wider, err := Descendants[int](ctx, g, append(append([]int{}, roots...), extra...))
		if err != nil {
			t.Fatal(err)
		}
		for node := range closure {
			if _, ok := wider[node]; !ok {
				t.Fatalf("closure is not monotonic: %d missing", node)
			}
		}
	})
}

func TestTermGraphAndTableSource(t *testing.T) {
	ctx := context.Background()
	database := biodb.OpenTestDatabase(t)

	repo := biodb.NewGoRepo(database)
	_, err := repo.CreateTerms(ctx, []biodb.GoTerm{
		{ID: 3824, Name: "catalytic activity"},
		{ID: 16787, Name: "hydrolase activity"},
		{ID: 16788, Name: "hydrolase activity, acting on ester bonds"},
		{ID: 5488, Name: "binding"},
	})
	require.Nil(t, err)
	_, err = repo.CreateRelations(ctx, []biodb.GoRelation{
		{Term1ID: 16787, Relation: biodb.RelationIsA, Term2ID: 3824},
		{Term1ID: 16788, Relation: biodb.RelationIsA, Term2ID: 16787},
		{Term1ID: 5488, Relation: "part_of", Term2ID: 3824},
	})
	require.Nil(t, err)

	expected := map[int]bool{3824: true, 16787: true, 16788: true}

	g, err := TermGraph(ctx, repo)
	require.Nil(t, err)
	result, err := Descendants[int](ctx, g, []int{3824})
	require.Nil(t, err)
	assert.Equal(t, expected, keys(result))

	db, err := biodb.Sqlx(database)
	require.Nil(t, err)
	result, err = Descendants[int](ctx, GoRelationSource(db).WithChunk(1), []int{3824})
	require.Nil(t, err)
	assert.Equal(t, expected, keys(result))

	result, err = Descendants[int](ctx, repo, []int{3824})
	require.Nil(t, err)
	assert.Equal(t, expected, keys(result))
}

func TestTaxonGraph(t *testing.T) {
	ctx := context.Background()
	database := biodb.OpenTestDatabase(t)

	parent := func(taxid int64) *int64 { return &taxid }
	repo := biodb.NewTaxonRepo(database)
	_, err := repo.Create(ctx, []biodb.Taxon{
		{Taxid: 1, ScientificName: "root"},
		{Taxid: 2, ParentTaxid: parent(1), ScientificName: "Bacteria"},
		{Taxid: 2759, ParentTaxid: parent(1), ScientificName: "Eukaryota"},
		{Taxid: 9606, ParentTaxid: parent(2759), ScientificName: "Homo sapiens"},
	})
	require.Nil(t, err)

	g, err := TaxonGraph(ctx, repo)
	require.Nil(t, err)
	list, err := DescendantList[int64](ctx, g, []int64{2759})
	require.Nil(t, err)
	assert.ElementsMatch(t, []int64{2759, 9606}, list)

	db, err := biodb.Sqlx(database)
	require.Nil(t, err)
	list, err = DescendantList[int64](ctx, TaxonSource(db), []int64{1})
	require.Nil(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 2759, 9606}, list)
}
