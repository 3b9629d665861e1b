package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"pseudoenzymes-backend/domain/enzyme"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/server/common"
	"strconv"
)

/*
Handlers 只读查询接口，所有查询直接读库
*/
type Handlers struct {
	GetDatabase func() *gorm.DB
	Classifier  *enzyme.Classifier
	Logger      *logrus.Logger
}

func New(handlers *Handlers) *Handlers {
	h := *handlers
	if h.Logger == nil {
		h.Logger = logging.Default()
	}
	if h.Classifier == nil {
		h.Classifier = enzyme.New(&enzyme.Setting{GetDatabase: h.GetDatabase, Logger: h.Logger})
	}
	return &h
}

func queryInt(ctx *gin.Context, key string) (int, error) {
	value := ctx.Query(key)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, common.ErrRequestParamInvalid
	}
	return n, nil
}

func queryBool(ctx *gin.Context, key string) (bool, error) {
	value := ctx.Query(key)
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, common.ErrRequestParamInvalid
	}
	return b, nil
}
