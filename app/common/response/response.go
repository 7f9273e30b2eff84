package response

import (
	"context"
	"errors"
	"net/http"

	xerrors "github.com/zeromicro/x/errors"

	"tripsmith/app/common/consts/errno"
)

type Response struct {
	StatusCode int    `json:"code"`
	StatusMsg  string `json:"msg"`
}

type ResponseWithData struct {
	StatusCode int         `json:"code"`
	StatusMsg  string      `json:"msg"`
	Data       interface{} `json:"data"`
}

func NewResponse(statusCode int, statusMsg string) Response {
	return Response{
		StatusCode: statusCode,
		StatusMsg:  statusMsg,
	}
}

func NewResponseWithData(statusCode int, statusMsg string, data interface{}) ResponseWithData {
	return ResponseWithData{
		StatusCode: statusCode,
		StatusMsg:  statusMsg,
		Data:       data,
	}
}

// ErrorHandler adapts coded errors to the envelope for httpx. Anything
// without a code is an internal failure and keeps its 500.
func ErrorHandler(_ context.Context, err error) (int, any) {
	var cm *xerrors.CodeMsg
	if errors.As(err, &cm) {
		return http.StatusOK, NewResponse(cm.Code, cm.Msg)
	}
	return http.StatusInternalServerError, NewResponse(errno.InternalError, err.Error())
}
