package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"net/http"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/server/common"
	"pseudoenzymes-backend/utils"
	"strings"
)

func (h *Handlers) GetProtein(ctx *gin.Context) {
	handler := getProteinHandler{
		ctx: ctx,
		db:  h.GetDatabase(),
	}

	if err := handler.checkParam(); err != nil {
		h.Logger.WithError(err).Errorf("parse req error: %s", err.Error())
		ctx.JSON(http.StatusBadRequest, common.MakeBadRequestResp(err.Error()))
		return
	}

	resp, err := handler.produce()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, common.MakeNotFoundResp())
		return
	}
	if err != nil {
		h.Logger.WithError(err).Errorf("produce error: %s", err.Error())
		ctx.JSON(http.StatusInternalServerError, common.MakeUnknownErrorResp())
		return
	}

	ctx.JSON(http.StatusOK, common.MakeSuccessResp(resp))
}

type getProteinHandler struct {
	ctx *gin.Context
	db  *gorm.DB

	// params
	accession string
}

type goAnnotationItem struct {
	Term      string `json:"term"`
	Qualifier string `json:"qualifier"`
	Evidence  string `json:"evidence"`
}

type cathDomainItem struct {
	Superfamily string  `json:"superfamily"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
	Evalue      float64 `json:"evalue"`
}

type getProteinResp struct {
	Accession           string             `json:"accession"`
	EntryName           string             `json:"entry_name"`
	Name                string             `json:"name"`
	Reviewed            bool               `json:"reviewed"`
	Taxid               *int64             `json:"taxid"`
	SecondaryAccessions []string           `json:"secondary_accessions"`
	Function            []string           `json:"function"`
	Length              int                `json:"length"`
	Sequence            string             `json:"sequence"`
	Keywords            []string           `json:"keywords"`
	EcNumbers           []string           `json:"ec_numbers"`
	GoAnnotations       []goAnnotationItem `json:"go_annotations"`
	CathDomains         []cathDomainItem   `json:"cath_domains"`
	PdbEntries          []string           `json:"pdb_entries"`
}

func (h *getProteinHandler) checkParam() error {
	accession := strings.TrimSpace(h.ctx.Query("accession"))
	if len(accession) == 0 {
		return utils.WrapError(common.ErrRequestParamEmpty, "query 'accession' is empty")
	}
	h.accession = strings.ToUpper(accession)
	return nil
}

func (h *getProteinHandler) produce() (*getProteinResp, error) {
	c := h.ctx.Request.Context()

	protein, err := biodb.NewProteinRepo(h.db).Get(c, h.accession)
	if err != nil {
		return nil, utils.WrapErrorf(err, "select protein [%s] fail", h.accession)
	}

	resp := &getProteinResp{
		Accession:           protein.Accession,
		EntryName:           protein.EntryName,
		Name:                protein.Name,
		Reviewed:            protein.Reviewed,
		Taxid:               protein.Taxid,
		SecondaryAccessions: append([]string{}, protein.SecondaryAccessions...),
		Function:            protein.CommentSection("FUNCTION"),
		Length:              protein.SeqLength,
	}
	if protein.Sequence != nil {
		resp.Sequence = protein.Sequence.Seq
	}

	if resp.Keywords, err = biodb.NewKeywordRepo(h.db).KeywordsOf(c, h.accession); err != nil {
		return nil, err
	}
	if resp.EcNumbers, err = biodb.NewEcRepo(h.db).NumbersOf(c, h.accession); err != nil {
		return nil, err
	}

	var goTerms []biodb.ProteinGoTerm
	err = h.db.WithContext(c).Where("protein_accession = ?", h.accession).Order("go_term_id, qualifier, eco_term_id").Find(&goTerms).Error
	if err != nil {
		return nil, utils.WrapError(err, "select go annotations fail")
	}
	resp.GoAnnotations = make([]goAnnotationItem, 0, len(goTerms))
	for _, t := range goTerms {
		resp.GoAnnotations = append(resp.GoAnnotations, goAnnotationItem{
			Term:      biodb.GoCode(t.GoTermID),
			Qualifier: t.Qualifier,
			Evidence:  "ECO:" + t.EcoTermID,
		})
	}

	var domains []biodb.ProteinCathSuperfamily
	err = h.db.WithContext(c).Where("protein_accession = ?", h.accession).Order("start_pos, cath_number").Find(&domains).Error
	if err != nil {
		return nil, utils.WrapError(err, "select cath domains fail")
	}
	resp.CathDomains = make([]cathDomainItem, 0, len(domains))
	for _, d := range domains {
		resp.CathDomains = append(resp.CathDomains, cathDomainItem{Superfamily: d.CathNumber, Start: d.StartPos, End: d.EndPos, Evalue: d.Evalue})
	}

	resp.PdbEntries = make([]string, 0)
	err = h.db.WithContext(c).Model(&biodb.ProteinPdbEntry{}).Where("protein_accession = ?", h.accession).Order("pdb_id").Pluck("pdb_id", &resp.PdbEntries).Error
	if err != nil {
		return nil, utils.WrapError(err, "select pdb entries fail")
	}

	return resp, nil
}
