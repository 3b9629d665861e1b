package handler

import (
	"github.com/gin-gonic/gin"
	"net/http"
	"pseudoenzymes-backend/domain/enzyme"
	"pseudoenzymes-backend/server/common"
	"pseudoenzymes-backend/utils"
	"sort"
)

type enzymeParams struct {
	filter           enzyme.Filter
	experimentalOnly bool
}

/*
parseEnzymeParams 读取 min_length、max_length、reviewed_only、experimental_only，长度为闭区间
*/
func parseEnzymeParams(ctx *gin.Context) (*enzymeParams, error) {
	var p enzymeParams
	var err error
	if p.filter.MinLength, err = queryInt(ctx, "min_length"); err != nil {
		return nil, utils.WrapError(err, "query 'min_length' invalid")
	}
	if p.filter.MaxLength, err = queryInt(ctx, "max_length"); err != nil {
		return nil, utils.WrapError(err, "query 'max_length' invalid")
	}
	if p.filter.MaxLength > 0 && p.filter.MinLength > p.filter.MaxLength {
		return nil, utils.WrapErrorf(common.ErrRequestParamInvalid, "min_length(%d) > max_length(%d)", p.filter.MinLength, p.filter.MaxLength)
	}
	if p.filter.ReviewedOnly, err = queryBool(ctx, "reviewed_only"); err != nil {
		return nil, utils.WrapError(err, "query 'reviewed_only' invalid")
	}
	if p.experimentalOnly, err = queryBool(ctx, "experimental_only"); err != nil {
		return nil, utils.WrapError(err, "query 'experimental_only' invalid")
	}
	return &p, nil
}

func (h *Handlers) classify(ctx *gin.Context) (*enzyme.Classification, bool) {
	params, err := parseEnzymeParams(ctx)
	if err != nil {
		h.Logger.WithError(err).Errorf("parse req error: %s", err.Error())
		ctx.JSON(http.StatusBadRequest, common.MakeBadRequestResp(err.Error()))
		return nil, false
	}

	classification, err := h.Classifier.Classify(ctx.Request.Context(), params.filter, params.experimentalOnly)
	if err != nil {
		h.Logger.WithError(err).Errorf("produce error: %s", err.Error())
		ctx.JSON(http.StatusInternalServerError, common.MakeUnknownErrorResp())
		return nil, false
	}
	return classification, true
}

// EnzymeSummary 三种判定集合的大小与一致情况
func (h *Handlers) EnzymeSummary(ctx *gin.Context) {
	classification, ok := h.classify(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, common.MakeSuccessResp(classification.Summary()))
}

type disputedItem struct {
	Accession string   `json:"accession"`
	Sets      []string `json:"sets"`
}

// EnzymeDisputed 列出判定不一致的蛋白及包含它们的集合
func (h *Handlers) EnzymeDisputed(ctx *gin.Context) {
	classification, ok := h.classify(ctx)
	if !ok {
		return
	}

	items := make([]disputedItem, 0, len(classification.Disputed))
	for accession, sets := range classification.Disputed {
		items = append(items, disputedItem{Accession: accession, Sets: sets})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Accession < items[j].Accession })

	ctx.JSON(http.StatusOK, common.MakeSuccessResp(items))
}
