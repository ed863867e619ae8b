package router

import (
	"signaling-service/src/controller"
	"signaling-service/src/middleware"
	"signaling-service/src/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter builds the gin engine for the signaling API. The wire protocol is
// a single endpoint: POST / dispatches mutating actions by body field, GET /
// dispatches reads by query param, OPTIONS is CORS preflight.
func NewRouter(engine *service.Engine, log *logrus.Logger) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.IdentityMiddleware())

	sc := controller.NewSignalingController(engine, log)
	r.POST("/", sc.HandleAction)
	r.GET("/", sc.HandleQuery)
	r.GET("/healthz", sc.Health)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
