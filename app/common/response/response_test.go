package response

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	xerrors "github.com/zeromicro/x/errors"

	"tripsmith/app/common/consts/errno"
)

func TestErrorHandlerRendersCodedErrors(t *testing.T) {
	err := xerrors.New(errno.TripNotFound, "trip does not exist")

	status, body := ErrorHandler(context.Background(), err)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, Response{StatusCode: errno.TripNotFound, StatusMsg: "trip does not exist"}, body)
}

func TestErrorHandlerWrapsBareErrors(t *testing.T) {
	status, body := ErrorHandler(context.Background(), fmt.Errorf("dial tcp: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, status)
	resp, ok := body.(Response)
	assert.True(t, ok)
	assert.Equal(t, errno.InternalError, resp.StatusCode)
}
