package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gocrud/component/inject"
	"github.com/gocrud/component/scene"
	"github.com/gocrud/component/singleton"
)

// DefaultDiagnosticsPrefix 诊断接口默认路径
const DefaultDiagnosticsPrefix = "/debug/inject"

// DiagnosticsController 暴露注入引擎的运行状态
type DiagnosticsController struct {
	Engine     *inject.Engine      `di:""`
	Scene      *scene.Scene        `di:"optional"`
	Singletons *singleton.Registry `di:"optional"`

	prefix string
}

// InjectStats 诊断接口返回的统计信息
type InjectStats struct {
	Cache      inject.CacheStats `json:"cache"`
	Tracked    int               `json:"tracked"`
	Components int               `json:"components"`
}

func (c *DiagnosticsController) MountRoutes(router gin.IRouter) {
	prefix := c.prefix
	if prefix == "" {
		prefix = DefaultDiagnosticsPrefix
	}
	group := router.Group(prefix)
	group.GET("", c.stats)
	group.GET("/types", c.types)
	group.POST("/sweep", c.sweep)
}

func (c *DiagnosticsController) stats(ctx *gin.Context) {
	stats := InjectStats{
		Cache:   c.Engine.Cache().Stats(),
		Tracked: c.Engine.Tracker().Len(),
	}
	if c.Scene != nil {
		stats.Components = c.Scene.Len()
	}
	ctx.JSON(http.StatusOK, stats)
}

func (c *DiagnosticsController) types(ctx *gin.Context) {
	generated := c.Engine.Cache().GeneratedTypes()
	names := make([]string, 0, len(generated))
	for _, t := range generated {
		names = append(names, t.String())
	}
	ctx.JSON(http.StatusOK, gin.H{"generated": names})
}

func (c *DiagnosticsController) sweep(ctx *gin.Context) {
	removed := c.Engine.Tracker().Sweep()
	ctx.JSON(http.StatusOK, gin.H{"removed": removed})
}
