package di_test

import (
	"errors"
	"testing"

	"github.com/gocrud/component/di"
	"github.com/gocrud/component/inject"
)

type TestLogger interface {
	Log(msg string)
}

type TestConsoleLogger struct {
	Name string
}

func (l *TestConsoleLogger) Log(msg string) {}

type TestCache interface {
	Get(key string) string
}

type TestMemoryCache struct {
	Host string
}

func (c *TestMemoryCache) Get(key string) string { return "" }

// 测试可选字段注入
func TestOptionalFieldInjection(t *testing.T) {
	type Service struct {
		Logger TestLogger `di:""`  // 必需
		Cache  TestCache  `di:"?"` // 可选
	}

	c := di.NewContainer()
	di.Register[TestLogger](c, di.WithValue(&TestConsoleLogger{Name: "test"}))
	di.Register[*Service](c)

	// 构建应该成功（Cache 是可选的）
	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	svc, err := di.Resolve[*Service](c)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if svc.Logger == nil {
		t.Error("Expected Logger to be injected")
	}
	if svc.Cache != nil {
		t.Error("Expected Cache to be nil (optional and not registered)")
	}
}

// 测试可选字段注入（使用 optional 标签，服务存在时照常注入）
func TestOptionalFieldInjection_Registered(t *testing.T) {
	type Service struct {
		Cache TestCache `di:"optional"`
	}

	cache := &TestMemoryCache{Host: "local"}
	c := di.NewContainer()
	di.Register[TestCache](c, di.WithValue(cache))
	di.Register[*Service](c)

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	svc, _ := di.Resolve[*Service](c)
	if svc.Cache != cache {
		t.Error("Expected registered cache to be injected")
	}
}

// 测试必需字段未注册应该失败
func TestRequiredFieldInjection_Failure(t *testing.T) {
	type Service struct {
		Logger TestLogger `di:""` // 必需
		Cache  TestCache  `di:""` // 必需
	}

	c := di.NewContainer()
	di.Register[TestLogger](c, di.WithValue(&TestConsoleLogger{}))
	di.Register[*Service](c)

	// 构建应该失败（单例在构建时创建，Cache 是必需的但未注册）
	err := c.Build()
	if err == nil {
		t.Fatal("Expected Build to fail when required dependency is missing")
	}
	if !errors.Is(err, inject.ErrMissingRequiredService) {
		t.Errorf("Expected ErrMissingRequiredService, got %v", err)
	}
}

// 测试未注册服务返回 ErrServiceNotFound
func TestServiceNotFound(t *testing.T) {
	c := di.NewContainer()
	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	_, err := di.Resolve[TestCache](c)
	if !errors.Is(err, inject.ErrServiceNotFound) {
		t.Errorf("Expected ErrServiceNotFound, got %v", err)
	}
}

// 测试工厂参数缺失不会被当作"服务不存在"
func TestFactoryMissingDependency(t *testing.T) {
	type Service struct {
		Cache TestCache `di:"?"`
	}

	c := di.NewContainer()
	di.Register[TestCache](c, di.WithTransient(), di.WithFactory(func(l TestLogger) TestCache {
		return &TestMemoryCache{}
	}))
	di.Register[*Service](c, di.WithTransient())
	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	_, err := di.Resolve[*Service](c)
	if !errors.Is(err, di.ErrMissingDependency) {
		t.Errorf("Expected ErrMissingDependency, got %v", err)
	}
	if errors.Is(err, inject.ErrServiceNotFound) {
		t.Error("Missing factory argument must not look like an absent service")
	}
}

// 测试循环依赖检测
func TestCircularDependency(t *testing.T) {
	type A struct {
		Cache TestCache `di:""`
	}

	c := di.NewContainer()
	di.Register[TestCache](c, di.WithFactory(func(a *A) TestCache { return &TestMemoryCache{} }))
	di.Register[*A](c)

	if err := c.Build(); err == nil {
		t.Fatal("Expected circular dependency error")
	}
}

// 测试未导出字段注入
func TestUnexportedFieldInjection(t *testing.T) {
	type Service struct {
		logger TestLogger `di:""`
	}

	logger := &TestConsoleLogger{Name: "hidden"}
	c := di.NewContainer()
	di.Register[TestLogger](c, di.WithValue(logger))
	di.Register[*Service](c)
	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	svc, _ := di.Resolve[*Service](c)
	if svc.logger != logger {
		t.Error("Expected unexported field to be injected")
	}
}

// 测试容器构建的结构体使用引擎中注册的预编译注入函数
func TestContainerUsesGeneratedAction(t *testing.T) {
	type Service struct {
		Logger    TestLogger `di:""`
		viaAction bool
	}

	engine := inject.New()
	engine.Cache().RegisterAction(di.TypeOf[Service](), func(sp inject.ServiceProvider, instance any) error {
		svc := instance.(*Service)
		logger, ok, err := inject.Resolve[TestLogger](sp, "Service.Logger", nil, true)
		if err != nil {
			return err
		}
		if ok {
			svc.Logger = logger
		}
		svc.viaAction = true
		return nil
	})

	c := di.NewContainer(di.WithEngine(engine))
	di.Register[TestLogger](c, di.WithValue(&TestConsoleLogger{}))
	di.Register[*Service](c)
	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	svc, _ := di.Resolve[*Service](c)
	if !svc.viaAction || svc.Logger == nil {
		t.Error("Expected generated action to populate the service")
	}
	if c.Engine() != engine {
		t.Error("Expected container to expose its engine")
	}
}

// 测试 FieldsOf 声明的字段依赖参与循环检测
func TestFieldsOfParticipatesInGraph(t *testing.T) {
	type Holder struct {
		Cache TestCache `di:""`
	}

	c := di.NewContainer()
	err := c.Add(&di.ServiceDefinition{
		Type:      di.TypeOf[TestCache](),
		Scope:     di.ScopeSingleton,
		Impl:      func() (any, error) { return &TestMemoryCache{}, nil },
		IsFactory: true,
		FieldsOf:  di.TypeOf[*Holder](),
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := c.Build(); err == nil {
		t.Fatal("Expected circular dependency error from declared fields")
	}
}
