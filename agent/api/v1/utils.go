package v1

import (
	"errors"
	"net/http"

	"github.com/erikmagkekse/nfs-exports/agent/share"
	"github.com/erikmagkekse/nfs-exports/agent/share/nfs"

	"github.com/labstack/echo/v5"
)

var codeStatus = map[string]int{
	nfs.ErrSyntax:   http.StatusBadRequest,
	nfs.ErrInvalid:  http.StatusBadRequest,
	nfs.ErrNotFound: http.StatusNotFound,
}

func ShareError(c *echo.Context, err error) error {
	if errors.Is(err, share.ErrUnknownProtocol) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "UNKNOWN_PROTOCOL"})
	}
	if errors.Is(err, nfs.ErrLockTimeout) {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Code: "LOCK_TIMEOUT"})
	}
	var se *nfs.ShareError
	if errors.As(err, &se) {
		status, found := codeStatus[se.Code]
		if !found {
			status = http.StatusInternalServerError
		}
		return c.JSON(status, ErrorResponse{Error: se.Error(), Code: se.Code})
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "INTERNAL_ERROR"})
}

func badRequest(c *echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "BAD_REQUEST"})
}
