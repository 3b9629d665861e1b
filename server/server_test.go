package server

import (
	"context"
	"encoding/json"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"net/http"
	"net/http/httptest"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/server/handler"
	"testing"
)

func ptr(v int64) *int64 {
	return &v
}

func newTestServer(t *testing.T) *Server {
	logging.SetDefaultConfig(logging.GenerateTestConfig(t))
	gin.SetMode(gin.TestMode)
	database := biodb.OpenTestDatabase(t)

	seq := biodb.NewSequence("MKVLAAGIVALLLA")
	require.Nil(t, database.Create(&seq).Error)
	fragment := biodb.NewSequence("KVLA")
	require.Nil(t, database.Create(&fragment).Error)

	require.Nil(t, database.Create(&[]biodb.Taxon{
		{Taxid: 1, ParentTaxid: ptr(1), ScientificName: "root"},
		{Taxid: 2, ParentTaxid: ptr(1), ScientificName: "Bacteria"},
		{Taxid: 562, ParentTaxid: ptr(2), ScientificName: "Escherichia coli"},
		{Taxid: 9606, ParentTaxid: ptr(1), ScientificName: "Homo sapiens"},
	}).Error)

	require.Nil(t, database.Create(&[]biodb.Protein{
		{
			Accession:           "P00001",
			Name:                "Carboxylesterase",
			Comment:             "FUNCTION: Hydrolyses esters.\nCAUTION: Lacks a catalytic residue.",
			SecondaryAccessions: []string{"Q00009"},
			Reviewed:            true,
			Taxid:               ptr(562),
			SeqLength:           seq.Length,
			SequenceID:          seq.ID,
		},
		{Accession: "P00002", Reviewed: true, SeqLength: seq.Length, SequenceID: seq.ID},
	}).Error)

	require.Nil(t, database.Create(&[]biodb.GoTerm{
		{ID: 3824, Name: "catalytic activity"},
		{ID: 16787, Name: "hydrolase activity"},
	}).Error)
	require.Nil(t, database.Create(&biodb.GoRelation{Term1ID: 16787, Relation: biodb.RelationIsA, Term2ID: 3824}).Error)
	require.Nil(t, database.Create(&[]biodb.EcoTerm{
		{ID: "0000006", Name: "experimental evidence"},
		{ID: "0000314", Name: "direct assay evidence"},
	}).Error)
	require.Nil(t, database.Create(&biodb.EcoRelation{Term1ID: "0000314", Relation: biodb.RelationIsA, Term2ID: "0000006"}).Error)
	require.Nil(t, database.Create(&biodb.EcEntry{Number: "3.1.1.1"}).Error)
	require.Nil(t, database.Create(&biodb.Keyword{Name: "hydrolase"}).Error)
	require.Nil(t, database.Create(&biodb.PdbEntry{PdbID: "1abc"}).Error)

	require.Nil(t, database.Create(&[]biodb.ProteinKeyword{
		{ProteinAccession: "P00001", KeywordName: "hydrolase"},
		{ProteinAccession: "P00002", KeywordName: "hydrolase"},
	}).Error)
	require.Nil(t, database.Create(&biodb.ProteinEcEntry{ProteinAccession: "P00001", EcNumber: "3.1.1.1"}).Error)
	require.Nil(t, database.Create(&biodb.ProteinGoTerm{ProteinAccession: "P00001", GoTermID: 16787, Qualifier: "enables", EcoTermID: "0000314"}).Error)
	require.Nil(t, database.Create(&biodb.ProteinCathSuperfamily{
		ProteinAccession: "P00001", CathNumber: "3.40.50.1820", StartPos: 2, EndPos: 5, SequenceID: fragment.ID,
	}).Error)
	require.Nil(t, database.Create(&biodb.ProteinPdbEntry{ProteinAccession: "P00001", PdbID: "1abc"}).Error)

	run, err := biodb.NewRunRepo(database).Start(context.Background(), "run-1", "go-links", "goa.gpa")
	require.Nil(t, err)
	require.Nil(t, biodb.NewRunRepo(database).Finish(context.Background(), run, biodb.SchemaStepStats{Read: 4, Created: 3}, nil))

	handlers := handler.New(&handler.Handlers{GetDatabase: func() *gorm.DB { return database }})
	return New(&Config{DebugMode: true}, handlers)
}

type resp[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

func get[T any](t *testing.T, s *Server, url string) (int, resp[T]) {
	t.Helper()
	recorder := httptest.NewRecorder()
	s.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, url, nil))

	var body resp[T]
	require.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &body), recorder.Body.String())
	return recorder.Code, body
}

func TestGetProtein(t *testing.T) {
	s := newTestServer(t)

	code, body := get[map[string]interface{}](t, s, "/protein?accession=p00001")
	require.Equal(t, http.StatusOK, code)
	data := body.Data
	assert.Equal(t, "P00001", data["accession"])
	assert.Equal(t, true, data["reviewed"])
	assert.EqualValues(t, 562, data["taxid"])
	assert.Equal(t, []interface{}{"Q00009"}, data["secondary_accessions"])
	assert.Equal(t, []interface{}{"Hydrolyses esters."}, data["function"])
	assert.Equal(t, "MKVLAAGIVALLLA", data["sequence"])
	assert.Equal(t, []interface{}{"hydrolase"}, data["keywords"])
	assert.Equal(t, []interface{}{"3.1.1.1"}, data["ec_numbers"])
	assert.Equal(t, []interface{}{map[string]interface{}{
		"term": "GO:0016787", "qualifier": "enables", "evidence": "ECO:0000314",
	}}, data["go_annotations"])
	assert.Equal(t, []interface{}{map[string]interface{}{
		"superfamily": "3.40.50.1820", "start": float64(2), "end": float64(5), "evalue": float64(0),
	}}, data["cath_domains"])
	assert.Equal(t, []interface{}{"1abc"}, data["pdb_entries"])
}

func TestGetProtein_Errors(t *testing.T) {
	s := newTestServer(t)

	code, _ := get[interface{}](t, s, "/protein")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := get[interface{}](t, s, "/protein?accession=Z99999")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not found", body.Msg)
}

func TestEnzymeSummary(t *testing.T) {
	s := newTestServer(t)

	code, body := get[map[string]int](t, s, "/enzyme/summary")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]int{
		"ec": 1, "keyword": 2, "go": 1, "union": 2, "agreed": 1, "disputed": 1,
	}, body.Data)

	code, body = get[map[string]int](t, s, "/enzyme/summary?min_length=20&max_length=100")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, body.Data["union"])

	code, _ = get[interface{}](t, s, "/enzyme/summary?min_length=50&max_length=10")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = get[interface{}](t, s, "/enzyme/summary?reviewed_only=maybe")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestEnzymeDisputed(t *testing.T) {
	s := newTestServer(t)

	code, body := get[[]map[string]interface{}](t, s, "/enzyme/disputed?experimental_only=true")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []map[string]interface{}{
		{"accession": "P00002", "sets": []interface{}{"keyword"}},
	}, body.Data)
}

func TestDescendants(t *testing.T) {
	s := newTestServer(t)

	code, body := get[map[string]interface{}](t, s, "/descendants/term?id=go:0003824")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "GO:0003824", body.Data["root"])
	assert.Equal(t, []interface{}{"GO:0003824", "GO:0016787"}, body.Data["descendants"])

	code, body = get[map[string]interface{}](t, s, "/descendants/term?id=ECO:0000006")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{"ECO:0000006", "ECO:0000314"}, body.Data["descendants"])

	code, body = get[map[string]interface{}](t, s, "/descendants/taxon?taxid=2")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{"2", "562"}, body.Data["descendants"])

	code, _ = get[interface{}](t, s, "/descendants/term?id=EC:1.1.1.1")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = get[interface{}](t, s, "/descendants/taxon?taxid=abc")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestListRuns(t *testing.T) {
	s := newTestServer(t)

	code, body := get[[]map[string]interface{}](t, s, "/runs?limit=5")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "go-links", body.Data[0]["step"])
	assert.Equal(t, "done", body.Data[0]["status"])
	assert.Equal(t, map[string]interface{}{
		"read": float64(4), "created": float64(3), "skipped": float64(0), "updated": float64(0),
		"deleted": float64(0), "dropped": float64(0), "unresolved": float64(0),
	}, body.Data[0]["stats"])
}
