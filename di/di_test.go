package di_test

import (
	"reflect"
	"testing"

	"github.com/gocrud/component/di"
)

type ServiceA struct {
	Val int
}

type ServiceB struct {
	A *ServiceA `di:""`
}

type InterfaceC interface {
	Do() string
}

type ServiceC struct{}

func (s *ServiceC) Do() string { return "C" }

// ---------------- 测试 Provide 相关结构 ----------------

// AutoServiceA 用于测试构造函数注册
type AutoServiceA struct {
	Val string
}

func NewAutoServiceA() *AutoServiceA {
	return &AutoServiceA{Val: "auto-A"}
}

// AutoServiceB 用于测试带依赖的构造函数
type AutoServiceB struct {
	A *AutoServiceA
}

func NewAutoServiceB(a *AutoServiceA) *AutoServiceB {
	return &AutoServiceB{A: a}
}

// AutoServiceWithTag 用于测试实例注入 (Struct Pointer + Tag)
type AutoServiceWithTag struct {
	B    *AutoServiceB `di:""`
	Data string
}

func TestDI(t *testing.T) {
	c := di.NewContainer()

	// Register Value
	di.Register[int](c, di.WithValue(100))

	// Register Singleton
	di.Register[*ServiceA](c, di.WithFactory(func(val int) *ServiceA {
		return &ServiceA{Val: val}
	}))

	// Register Transient struct with field injection
	di.Register[*ServiceB](c, di.WithTransient())

	// Register Interface
	di.Register[InterfaceC](c, di.Use[*ServiceC]())

	err := c.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Resolve
	b, err := di.Resolve[*ServiceB](c)
	if err != nil {
		t.Fatalf("Resolve ServiceB failed: %v", err)
	}
	if b == nil {
		t.Fatal("Resolved nil ServiceB")
	}
	if b.A == nil {
		t.Fatal("Field injection failed: b.A is nil")
	}
	if b.A.Val != 100 {
		t.Errorf("Expected 100, got %d", b.A.Val)
	}

	// Resolve Interface
	iface, err := di.Resolve[InterfaceC](c)
	if err != nil {
		t.Fatalf("Resolve InterfaceC failed: %v", err)
	}
	if iface.Do() != "C" {
		t.Errorf("Expected 'C', got '%s'", iface.Do())
	}
}

func TestScope(t *testing.T) {
	c := di.NewContainer()

	type ScopedService struct {
		ID int
	}

	counter := 0
	di.Register[*ScopedService](c, di.WithScoped(), di.WithFactory(func() *ScopedService {
		counter++
		return &ScopedService{ID: counter}
	}))

	c.Build()

	scope1 := c.CreateScope()
	s1a, _ := di.Resolve[*ScopedService](scope1)
	s1b, _ := di.Resolve[*ScopedService](scope1)

	if s1a.ID != s1b.ID {
		t.Errorf("Expected same instance in scope 1, got IDs %d and %d", s1a.ID, s1b.ID)
	}
	if s1a.ID != 1 {
		t.Errorf("Expected ID 1, got %d", s1a.ID)
	}

	scope2 := c.CreateScope()
	s2a, _ := di.Resolve[*ScopedService](scope2)
	if s2a.ID != 2 {
		t.Errorf("Expected ID 2, got %d", s2a.ID)
	}
	if s1a.ID == s2a.ID {
		t.Error("Expected different instances across scopes")
	}
}

func TestProvide(t *testing.T) {
	c := di.NewContainer()

	// 1. 注册构造函数 (无依赖)
	typA, err := di.Provide(c, NewAutoServiceA)
	if err != nil {
		t.Fatalf("Failed to auto register A: %v", err)
	}
	if typA != reflect.TypeOf(&AutoServiceA{}) {
		t.Errorf("Unexpected return type for A: %v", typA)
	}

	// 2. 注册构造函数 (有依赖)
	typB, err := di.Provide(c, NewAutoServiceB)
	if err != nil {
		t.Fatalf("Failed to auto register B: %v", err)
	}
	if typB != reflect.TypeOf(&AutoServiceB{}) {
		t.Errorf("Unexpected return type for B: %v", typB)
	}

	// 3. 注册实例指针 (带 Tag，智能检测应自动开启注入)
	// 手动创建一个部分初始化的对象
	instanceWithTag := &AutoServiceWithTag{Data: "manual-data"}
	typTag, err := di.Provide(c, instanceWithTag)
	if err != nil {
		t.Fatalf("Failed to auto register Tag Instance: %v", err)
	}
	if typTag != reflect.TypeOf(&AutoServiceWithTag{}) {
		t.Errorf("Unexpected return type for Tag: %v", typTag)
	}

	// 4. 注册 reflect.Type (纯类型注册)
	// 这里我们注册一个新类型 AutoServiceC，假设它不需要外部依赖或者依赖已满足
	type AutoServiceC struct {
		Val string
	}
	typC, err := di.Provide(c, reflect.TypeOf(&AutoServiceC{})) // 注册 *AutoServiceC
	if err != nil {
		t.Fatalf("Failed to auto register Type: %v", err)
	}
	if typC != reflect.TypeOf(&AutoServiceC{}) {
		t.Errorf("Unexpected return type for C: %v", typC)
	}

	// 构建容器
	if err := c.Build(); err != nil {
		t.Fatalf("Container build failed: %v", err)
	}

	// --- 验证 ---

	// 验证构造函数注入
	svcB, err := di.Resolve[*AutoServiceB](c)
	if err != nil {
		t.Fatalf("Resolve B failed: %v", err)
	}
	if svcB.A == nil || svcB.A.Val != "auto-A" {
		t.Error("Dependency injection for B (constructor) failed")
	}

	// 验证实例字段注入 (智能检测)
	svcTag, err := di.Resolve[*AutoServiceWithTag](c)
	if err != nil {
		t.Fatalf("Resolve Tag Instance failed: %v", err)
	}
	if svcTag.Data != "manual-data" {
		t.Error("Instance value preserved failed")
	}
	if svcTag.B == nil {
		t.Error("Field injection for Tag Instance failed (should have been auto-enabled)")
	} else if svcTag.B.A.Val != "auto-A" {
		t.Error("Deep dependency resolution via field injection failed")
	}
}

func TestWithFieldsOption(t *testing.T) {
	c := di.NewContainer()

	// 准备依赖
	di.Provide(c, NewAutoServiceA)
	di.Provide(c, NewAutoServiceB)

	// 场景 1: 显式使用 WithFields
	instance1 := &AutoServiceWithTag{Data: "explicit"}
	di.Provide(c, instance1, di.WithFields())

	instance2 := &AutoServiceA{Val: "no-tag"}

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// 验证场景 1
	svc1, _ := di.Resolve[*AutoServiceWithTag](c)
	if svc1.B == nil {
		t.Error("Explicit WithFieldInjection failed to inject")
	}

	// 场景 2: 重复注册返回错误，已注册的单例不受影响
	if _, err := di.Provide(c, instance2, di.WithFields()); err == nil {
		t.Error("Expected duplicate registration error")
	}
	svc2, _ := di.Resolve[*AutoServiceA](c)
	if svc2.Val != "auto-A" {
		t.Errorf("Expected constructor instance, got %q", svc2.Val)
	}
}

func TestProvideDuplicates(t *testing.T) {
	c := di.NewContainer()
	di.Provide(c, NewAutoServiceA)

	// 尝试重复注册
	_, err := di.Provide(c, &AutoServiceA{})
	if err == nil {
		t.Error("Expected error when registering duplicate service, got nil")
	}
}
