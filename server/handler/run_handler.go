package handler

import (
	"github.com/gin-gonic/gin"
	"net/http"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/server/common"
	"time"
)

const defaultRunLimit = 20

type runItem struct {
	RunUUID    string                 `json:"run_uuid"`
	Step       string                 `json:"step"`
	Source     string                 `json:"source"`
	Status     string                 `json:"status"`
	Error      string                 `json:"error,omitempty"`
	Stats      *biodb.SchemaStepStats `json:"stats,omitempty"`
	CreateTime string                 `json:"create_time"`
}

func runStatusName(status uint) string {
	switch status {
	case biodb.RunStatusDoing:
		return "doing"
	case biodb.RunStatusDone:
		return "done"
	case biodb.RunStatusFail:
		return "fail"
	}
	return "unknown"
}

// ListRuns 最近的导入步骤记录，新的在前
func (h *Handlers) ListRuns(ctx *gin.Context) {
	limit, err := queryInt(ctx, "limit")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, common.MakeBadRequestResp("query 'limit' invalid"))
		return
	}
	if limit == 0 {
		limit = defaultRunLimit
	}

	runs, err := biodb.NewRunRepo(h.GetDatabase()).Latest(ctx.Request.Context(), limit)
	if err != nil {
		h.Logger.WithError(err).Errorf("ListRuns produce error: %s", err.Error())
		ctx.JSON(http.StatusInternalServerError, common.MakeUnknownErrorResp())
		return
	}

	items := make([]runItem, 0, len(runs))
	for _, run := range runs {
		item := runItem{
			RunUUID:    run.RunUUID,
			Step:       run.Step,
			Source:     run.Source,
			Status:     runStatusName(run.Status),
			Error:      run.Error,
			CreateTime: run.CreatedAt.Format(time.RFC3339),
		}
		if stats, ok := run.StepStats(); ok {
			item.Stats = &stats
		}
		items = append(items, item)
	}

	ctx.JSON(http.StatusOK, common.MakeSuccessResp(items))
}
