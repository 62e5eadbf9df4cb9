package api

import (
	"github.com/gin-gonic/gin"
)

// registerOpenAPIRoutes 提供 /openapi 文档数据
func registerOpenAPIRoutes(engine *gin.Engine) {
	engine.GET("/openapi", serveOpenAPI)
	engine.GET("/openapi.yaml", serveOpenAPI)
}

func serveOpenAPI(c *gin.Context) {
	c.Header("Content-Type", "application/yaml; charset=utf-8")
	c.File("docs/api/openapi.yaml")
}
