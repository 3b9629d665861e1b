package common

import "github.com/pkg/errors"

var (
	ErrRequestParamEmpty   = errors.New("request param is empty")
	ErrRequestParamInvalid = errors.New("request param is invalid")
)

const (
	CodeSuccess      = 0
	CodeBadRequest   = 1
	CodeNotFound     = 2
	CodeUnknownError = 99
)

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

func MakeSuccessResp(data interface{}) Resp {
	return Resp{Code: CodeSuccess, Msg: "success", Data: data}
}

func MakeBadRequestResp(msg string) Resp {
	return Resp{Code: CodeBadRequest, Msg: msg}
}

func MakeNotFoundResp() Resp {
	return Resp{Code: CodeNotFound, Msg: "not found"}
}

func MakeUnknownErrorResp() Resp {
	return Resp{Code: CodeUnknownError, Msg: "unknown error"}
}
