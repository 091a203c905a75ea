package http

import (
	"strings"

	"docseal/internal/domain"

	"github.com/gin-gonic/gin"
)

// principalFromHeaders resolves the caller identity placed on the request
// by the upstream gateway. The service never sees tokens; authentication
// happened before the request reached us.
func principalFromHeaders(c *gin.Context) domain.Principal {
	return domain.Principal{
		Identity:    strings.TrimSpace(c.GetHeader("X-User-Id")),
		DisplayName: strings.TrimSpace(c.GetHeader("X-User-Name")),
		Email:       strings.TrimSpace(c.GetHeader("X-User-Email")),
		Role:        domain.ParseRole(c.GetHeader("X-User-Role")),
	}
}
