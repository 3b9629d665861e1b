package handler

import (
	"github.com/gin-gonic/gin"
	"net/http"
	"pseudoenzymes-backend/domain/closure"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/server/common"
	"pseudoenzymes-backend/utils"
	"sort"
	"strconv"
	"strings"
)

type descendantsResp struct {
	Root        string   `json:"root"`
	Descendants []string `json:"descendants"`
}

/*
TermDescendants 返回 GO 或 ECO 术语及其全部 is_a 后代，id 形如 "GO:0003824" 或 "ECO:0000006"
*/
func (h *Handlers) TermDescendants(ctx *gin.Context) {
	id := strings.ToUpper(strings.TrimSpace(ctx.Query("id")))
	if id == "" {
		ctx.JSON(http.StatusBadRequest, common.MakeBadRequestResp("query 'id' is empty"))
		return
	}

	db, err := biodb.Sqlx(h.GetDatabase())
	if err != nil {
		h.Logger.WithError(err).Error("open raw db fail")
		ctx.JSON(http.StatusInternalServerError, common.MakeUnknownErrorResp())
		return
	}

	var codes []string
	switch {
	case strings.HasPrefix(id, "GO:"):
		n, convErr := strconv.Atoi(strings.TrimPrefix(id, "GO:"))
		if convErr != nil {
			ctx.JSON(http.StatusBadRequest, common.MakeBadRequestResp("invalid go id"))
			return
		}
		var ids []int
		ids, err = closure.DescendantList[int](ctx.Request.Context(), closure.GoRelationSource(db), []int{n})
		sort.Ints(ids)
		for _, v := range ids {
			codes = append(codes, biodb.GoCode(v))
		}
	case strings.HasPrefix(id, "ECO:"):
		var ids []string
		ids, err = closure.DescendantList[string](ctx.Request.Context(), closure.EcoRelationSource(db), []string{strings.TrimPrefix(id, "ECO:")})
		sort.Strings(ids)
		for _, v := range ids {
			codes = append(codes, "ECO:"+v)
		}
	default:
		ctx.JSON(http.StatusBadRequest, common.MakeBadRequestResp("id must start with GO: or ECO:"))
		return
	}
	if err != nil {
		h.Logger.WithError(err).Errorf("produce error: %s", err.Error())
		ctx.JSON(http.StatusInternalServerError, common.MakeUnknownErrorResp())
		return
	}

	ctx.JSON(http.StatusOK, common.MakeSuccessResp(descendantsResp{Root: id, Descendants: codes}))
}

// TaxonDescendants 返回 taxid 及其子树中的全部 taxid
func (h *Handlers) TaxonDescendants(ctx *gin.Context) {
	taxid, err := strconv.ParseInt(ctx.Query("taxid"), 10, 64)
	if err != nil || taxid <= 0 {
		ctx.JSON(http.StatusBadRequest, common.MakeBadRequestResp("query 'taxid' invalid"))
		return
	}

	db, err := biodb.Sqlx(h.GetDatabase())
	if err != nil {
		h.Logger.WithError(err).Error("open raw db fail")
		ctx.JSON(http.StatusInternalServerError, common.MakeUnknownErrorResp())
		return
	}

	ids, err := closure.DescendantList[int64](ctx.Request.Context(), closure.TaxonSource(db), []int64{taxid})
	if err != nil {
		err = utils.WrapErrorf(err, "collect descendants of taxon [%d] fail", taxid)
		h.Logger.WithError(err).Errorf("produce error: %s", err.Error())
		ctx.JSON(http.StatusInternalServerError, common.MakeUnknownErrorResp())
		return
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	codes := make([]string, len(ids))
	for i, v := range ids {
		codes[i] = strconv.FormatInt(v, 10)
	}
	ctx.JSON(http.StatusOK, common.MakeSuccessResp(descendantsResp{Root: strconv.FormatInt(taxid, 10), Descendants: codes}))
}
