package server

import (
	"fmt"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"net/http"
	"pseudoenzymes-backend/server/common"
	"pseudoenzymes-backend/server/handler"
)

type Config struct {
	Host      string
	Port      int
	DebugMode bool
}

type Server struct {
	engine *gin.Engine
	config *Config
}

func New(config *Config, handlers *handler.Handlers) *Server {
	if !config.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	eng := gin.New()

	eng.Use(gin.Recovery())
	eng.Use(common.LogRequest)
	eng.Use(cors.Default())

	eng.GET("/test/coffee", coffeeHandler)

	eng.GET("/protein", handlers.GetProtein)
	eng.GET("/runs", handlers.ListRuns)

	enzymeGroup := eng.Group("enzyme")
	{
		enzymeGroup.GET("/summary", handlers.EnzymeSummary)
		enzymeGroup.GET("/disputed", handlers.EnzymeDisputed)
	}

	descendantGroup := eng.Group("descendants")
	{
		descendantGroup.GET("/term", handlers.TermDescendants)
		descendantGroup.GET("/taxon", handlers.TaxonDescendants)
	}

	return &Server{
		engine: eng,
		config: config,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) RunServer() error {
	return s.engine.Run(fmt.Sprintf("%s:%d", s.config.Host, s.config.Port))
}

func coffeeHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusTeapot, common.MakeSuccessResp("I'm a teapot"))
}
