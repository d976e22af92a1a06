package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/advoga/advoga/internal/app/services"
	"github.com/advoga/advoga/internal/middleware"
)

// actorFromContext rebuilds the authenticated actor set by the auth middleware
func actorFromContext(c *gin.Context) services.Actor {
	return services.Actor{
		ID:       c.GetString(middleware.CtxActorID),
		Name:     c.GetString(middleware.CtxActorName),
		IsClient: c.GetBool(middleware.CtxIsClient),
	}
}
