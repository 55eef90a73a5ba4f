// Package response builds the JSON envelope every /api route answers with.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/reqctx"
)

const (
	statusSuccess = 0
	statusError   = 1
)

// APIResponse is the standard envelope.
type APIResponse struct {
	Status     int            `json:"status"`
	StatusCode int            `json:"statusCode"`
	Data       any            `json:"data,omitempty"`
	Message    string         `json:"message,omitempty"`
	IsOk       bool           `json:"isOk"`
	IsError    bool           `json:"isError"`
	Timestamp  time.Time      `json:"timestamp"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Metadata describes the caller of rc. Extra entries are merged in.
func Metadata(rc reqctx.RequestContext, extra map[string]any) map[string]any {
	metadata := make(map[string]any, len(extra)+4)
	if identity := rc.Identity(); identity != nil {
		metadata["requestedBy"] = identity.FullName
		metadata["userId"] = identity.ID
		metadata["userEmail"] = identity.Email
	}
	if ip := rc.ClientIP(); ip != "" {
		metadata["clientIp"] = ip
	}
	for k, v := range extra {
		metadata[k] = v
	}
	if len(metadata) == 0 {
		return nil
	}
	return metadata
}

func success(code int, data any, message string, metadata map[string]any) APIResponse {
	return APIResponse{
		Status:     statusSuccess,
		StatusCode: code,
		Data:       data,
		Message:    message,
		IsOk:       true,
		Timestamp:  time.Now().UTC(),
		Metadata:   metadata,
	}
}

// Error builds a failure envelope without writing it.
func Error(code int, message string, metadata map[string]any) APIResponse {
	return APIResponse{
		Status:     statusError,
		StatusCode: code,
		Message:    message,
		IsError:    true,
		Timestamp:  time.Now().UTC(),
		Metadata:   metadata,
	}
}

// OK writes a 200 envelope carrying data and the caller metadata.
func OK(c *gin.Context, rc reqctx.RequestContext, data any, message string, extra map[string]any) {
	if message == "" {
		message = "Success"
	}
	c.JSON(http.StatusOK, success(http.StatusOK, data, message, Metadata(rc, extra)))
}

// Created writes a 201 envelope.
func Created(c *gin.Context, rc reqctx.RequestContext, data any, message string) {
	if message == "" {
		message = "Created successfully"
	}
	c.JSON(http.StatusCreated, success(http.StatusCreated, data, message, Metadata(rc, nil)))
}

// Fail aborts with a failure envelope.
func Fail(c *gin.Context, rc reqctx.RequestContext, code int, message string) {
	c.AbortWithStatusJSON(code, Error(code, message, Metadata(rc, nil)))
}

// Unauthorized aborts with 401. The message never names the cause.
func Unauthorized(c *gin.Context, rc reqctx.RequestContext) {
	Fail(c, rc, http.StatusUnauthorized, "Authentication required")
}

// Forbidden aborts with 403.
func Forbidden(c *gin.Context, rc reqctx.RequestContext, message string) {
	if message == "" {
		message = "Access denied"
	}
	Fail(c, rc, http.StatusForbidden, message)
}

// NotFound aborts with 404.
func NotFound(c *gin.Context, rc reqctx.RequestContext, message string) {
	if message == "" {
		message = "Resource not found"
	}
	Fail(c, rc, http.StatusNotFound, message)
}

// BadRequest aborts with 400.
func BadRequest(c *gin.Context, rc reqctx.RequestContext, message string) {
	Fail(c, rc, http.StatusBadRequest, message)
}
