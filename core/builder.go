package core

import "github.com/gocrud/component/logging"

// BaseBuilder 提供基础的构建上下文能力
// 所有模块的 Builder 都应该嵌入此结构体
type BaseBuilder struct {
	ctx *BuildContext
}

// NewBaseBuilder 创建基础构建器
func NewBaseBuilder(ctx *BuildContext) BaseBuilder {
	return BaseBuilder{ctx: ctx}
}

// ConfigContext 获取构建上下文（受限接口）
func (b *BaseBuilder) ConfigContext() ConfigurationContext {
	return b.ctx
}

// Logger 返回指定类别的日志记录器
func (b *BaseBuilder) Logger(category string) logging.Logger {
	return b.ctx.LoggerFactory().CreateLogger(category)
}

// RegisterCleanup 允许 Builder 注册清理函数
// 通过 ConfigContext() 获取的接口无法注册
func (b *BaseBuilder) RegisterCleanup(key string, cleanup func()) {
	b.ctx.SetCleanup(key, cleanup)
}
