package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/reqctx"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/response"
)

// SecureHandler serves sample endpoints that only need an authenticated caller.
type SecureHandler struct{}

func NewSecureHandler() *SecureHandler {
	return &SecureHandler{}
}

// Profile returns the caller as resolved by the auth pipeline.
func (h *SecureHandler) Profile(c *gin.Context) {
	rc := reqctx.Current(c)
	identity := rc.Identity()
	result := rc.AuthResult()

	response.OK(c, rc, ProfileResponse{
		User: ProfileUser{
			ID:       identity.ID,
			FullName: identity.FullName,
			Email:    identity.Email,
			IsActive: identity.Active,
			Roles:    identity.RoleNames(),
		},
		AuthResult: ProfileAuthResult{IsOk: result.OK, Message: result.Message},
		ClientIP:   rc.ClientIP(),
	}, "", map[string]any{"operation": "profile"})
}

// PostData echoes the posted document back with the caller attached.
func (h *SecureHandler) PostData(c *gin.Context) {
	rc := reqctx.Current(c)

	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BadRequest(c, rc, "invalid JSON payload")
		return
	}

	response.OK(c, rc, gin.H{
		"processedBy":  rc.Identity().FullName,
		"fromIp":       rc.ClientIP(),
		"receivedData": data,
	}, "Data received successfully", nil)
}

// CheckOwner reports whether the caller owns resource :id.
func (h *SecureHandler) CheckOwner(c *gin.Context) {
	rc := reqctx.Current(c)

	resourceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, rc, http.StatusBadRequest, "resource id must be numeric")
		return
	}

	owner := resourceID == rc.Identity().ID
	message := "You don't own this resource"
	if owner {
		message = "You own this resource"
	}

	response.OK(c, rc, gin.H{
		"resourceId": resourceID,
		"userId":     rc.Identity().ID,
		"isOwner":    owner,
	}, message, map[string]any{"isOwner": owner})
}
