package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/reqctx"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/response"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves err against cases or falls back to a generic response.
func RespondWithMappedError(c *gin.Context, rc reqctx.RequestContext, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err != nil && errors.Is(err, cs.Err) {
			response.Fail(c, rc, cs.Status, cs.Message)
			return
		}
	}

	_ = c.Error(err)
	response.Fail(c, rc, fallbackStatus, fallbackMessage)
}
