package di

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/gocrud/component/inject"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ErrMissingDependency 工厂函数的参数无法解析。
var ErrMissingDependency = errors.New("di: 缺少依赖")

type resolver struct {
	engine *inject.Engine
}

func newResolver(engine *inject.Engine) *resolver {
	return &resolver{engine: engine}
}

// createInstance 创建 def 描述的服务的新实例。
// 它使用提供的容器 c 递归解析依赖项。
func (r *resolver) createInstance(c Container, def *ServiceDefinition) (any, error) {
	if def.IsValue {
		if def.InjectFields {
			if err := r.engine.Inject(c, def.Impl); err != nil {
				return nil, err
			}
		}
		return def.Impl, nil
	}

	if def.IsFactory || (def.Impl != nil && reflect.TypeOf(def.Impl).Kind() == reflect.Func) {
		return r.invokeFunction(c, def)
	}

	// 否则，视为结构体注入
	return r.createStruct(c, def)
}

// invokeFunction 调用工厂或构造函数，参数从容器解析。
func (r *resolver) invokeFunction(c Container, def *ServiceDefinition) (any, error) {
	fnVal := reflect.ValueOf(def.Impl)

	args := make([]reflect.Value, len(def.args))
	for i, argType := range def.args {
		argVal, err := c.Get(argType)
		if err != nil {
			// 参数缺失不能向上表现为"服务不存在"
			if errors.Is(err, inject.ErrServiceNotFound) {
				return nil, fmt.Errorf("%w: %v 参数 %d (%v)", ErrMissingDependency, def.key(), i, argType)
			}
			return nil, fmt.Errorf("di: %v 参数 %d: %w", def.key(), i, err)
		}
		if argVal == nil {
			args[i] = reflect.Zero(argType)
			continue
		}
		args[i] = reflect.ValueOf(argVal)
	}

	results := fnVal.Call(args)
	if len(results) == 0 {
		return nil, fmt.Errorf("di: 工厂/构造函数没有返回值")
	}

	// 最后一个返回值是 error 时检查它
	if len(results) > 1 {
		last := results[len(results)-1]
		if last.Type().Implements(errorType) && !last.IsNil() {
			return nil, last.Interface().(error)
		}
	}

	return results[0].Interface(), nil
}

// createStruct 实例化结构体并由注入引擎填充带标记的字段。
func (r *resolver) createStruct(c Container, def *ServiceDefinition) (any, error) {
	implType := def.ImplType

	var val reflect.Value
	if implType.Kind() == reflect.Pointer {
		val = reflect.New(implType.Elem())
	} else {
		val = reflect.New(implType)
	}

	if val.Elem().Kind() == reflect.Struct {
		if err := r.engine.Populate(c, val.Interface()); err != nil {
			return nil, fmt.Errorf("di: 创建 %v 失败: %w", def.key(), err)
		}
	}

	if implType.Kind() == reflect.Pointer {
		return val.Interface(), nil
	}
	return val.Elem().Interface(), nil
}
