package core

import (
	"fmt"

	"github.com/gocrud/component/inject"
)

// Extension 应用程序扩展
// 扩展至少实现 ServiceConfigurator、AppConfigurator、GeneratedRegistrar 之一
type Extension interface {
	// Name 返回扩展的名称，用于日志记录和调试
	Name() string
}

// ServiceConfigurator 在 ConfigureServices 阶段注册服务与组件
type ServiceConfigurator interface {
	ConfigureServices(services *ServiceCollection)
}

// AppConfigurator 在 Configure 阶段配置构建上下文（Options、托管服务等）
type AppConfigurator interface {
	ConfigureBuilder(ctx *BuildContext)
}

// GeneratedRegistrar 由携带生成注入代码的扩展实现，
// 在注入引擎创建后、任何组件激活前调用
type GeneratedRegistrar interface {
	RegisterGenerated(cache *inject.Cache)
}

// validateExtension 扩展未实现任何支持的接口时 panic
func validateExtension(ext Extension) {
	_, isServiceConfigurator := ext.(ServiceConfigurator)
	_, isAppConfigurator := ext.(AppConfigurator)
	_, isGeneratedRegistrar := ext.(GeneratedRegistrar)

	if !isServiceConfigurator && !isAppConfigurator && !isGeneratedRegistrar {
		panic(fmt.Sprintf("core: extension '%s' implements none of ServiceConfigurator, AppConfigurator, GeneratedRegistrar", ext.Name()))
	}
}
