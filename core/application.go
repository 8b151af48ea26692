package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"reflect"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gocrud/component/config"
	"github.com/gocrud/component/di"
	"github.com/gocrud/component/hosting"
	"github.com/gocrud/component/inject"
	"github.com/gocrud/component/logging"
	"github.com/gocrud/component/scene"
	"github.com/gocrud/component/singleton"
)

// Application 应用程序接口
type Application interface {
	Run() error
	RunAsync(ctx context.Context) error
	Stop(ctx context.Context) error
	Services() di.Container
	Configuration() config.Configuration
	Logger() logging.Logger
	Environment() Environment
	Engine() *inject.Engine
	Scene() *scene.Scene
	Singletons() *singleton.Registry
	GetService(ptr any)
	// InjectServices 对组件执行至多一次的服务注入
	InjectServices(component any) error
}

// ApplicationBuilder 应用程序构建器
type ApplicationBuilder struct {
	environment          string
	configBuilder        *config.ConfigurationBuilder
	loggingBuilder       *logging.LoggingBuilder
	serviceConfigurators []func(*ServiceCollection)
	configurators        []Configurator
	engineOptions        []inject.Option
	generated            []func(*inject.Cache)
	shutdownTimeout      time.Duration
	mu                   sync.RWMutex
}

// NewApplicationBuilder 创建应用程序构建器
func NewApplicationBuilder() *ApplicationBuilder {
	return &ApplicationBuilder{
		environment:     "development",
		configBuilder:   config.NewConfigurationBuilder(),
		loggingBuilder:  logging.NewLoggingBuilder(),
		shutdownTimeout: 30 * time.Second,
	}
}

// UseEnvironment 设置环境
func (b *ApplicationBuilder) UseEnvironment(env string) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.environment = env
	return b
}

// ConfigureConfiguration 配置配置系统
func (b *ApplicationBuilder) ConfigureConfiguration(configure func(*config.ConfigurationBuilder)) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if configure != nil {
		configure(b.configBuilder)
	}
	return b
}

// ConfigureLogging 配置日志系统
func (b *ApplicationBuilder) ConfigureLogging(configure func(*logging.LoggingBuilder)) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if configure != nil {
		configure(b.loggingBuilder)
	}
	return b
}

// ConfigureServices 配置服务
func (b *ApplicationBuilder) ConfigureServices(configure func(*ServiceCollection)) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if configure != nil {
		b.serviceConfigurators = append(b.serviceConfigurators, configure)
	}
	return b
}

// Configure 添加配置器（支持链式调用和可变参数）
// 接受 Configurator 或 func(*BuildContext)
func (b *ApplicationBuilder) Configure(configurators ...any) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range configurators {
		switch fn := c.(type) {
		case Configurator:
			b.configurators = append(b.configurators, fn)
		case func(*BuildContext):
			b.configurators = append(b.configurators, fn)
		default:
			panic(fmt.Sprintf("configurator must be func(*BuildContext), got %T", c))
		}
	}

	return b
}

// AddExtension 添加应用程序扩展
func (b *ApplicationBuilder) AddExtension(ext Extension) *ApplicationBuilder {
	validateExtension(ext)

	b.mu.Lock()
	defer b.mu.Unlock()

	if sc, ok := ext.(ServiceConfigurator); ok {
		b.serviceConfigurators = append(b.serviceConfigurators, sc.ConfigureServices)
	}
	if ac, ok := ext.(AppConfigurator); ok {
		b.configurators = append(b.configurators, ac.ConfigureBuilder)
	}
	if gr, ok := ext.(GeneratedRegistrar); ok {
		b.generated = append(b.generated, gr.RegisterGenerated)
	}

	return b
}

// AddOptions 注册配置选项
// 使用示例: core.AddOptions[AppSetting](builder, "app")
func AddOptions[T any](b *ApplicationBuilder, section string) *ApplicationBuilder {
	return b.Configure(func(ctx *BuildContext) {
		ConfigureOptions[T](ctx, section)
	})
}

// AddTask 添加一个简单的后台任务
func (b *ApplicationBuilder) AddTask(name string, task func(ctx context.Context) error) *ApplicationBuilder {
	return b.Configure(func(ctx *BuildContext) {
		ctx.AddHostedService(hosting.NewFuncService(name, task))
	})
}

// UseShutdownTimeout 设置关闭超时
func (b *ApplicationBuilder) UseShutdownTimeout(timeout time.Duration) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shutdownTimeout = timeout
	return b
}

// UseEngineOptions 追加注入引擎选项，例如自定义解析器
func (b *ApplicationBuilder) UseEngineOptions(opts ...inject.Option) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.engineOptions = append(b.engineOptions, opts...)
	return b
}

// UseGenerated 注册生成的注入计划和注入动作
func (b *ApplicationBuilder) UseGenerated(register func(*inject.Cache)) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if register != nil {
		b.generated = append(b.generated, register)
	}
	return b
}

// MustBuild 构建应用程序，失败时 panic
func (b *ApplicationBuilder) MustBuild() Application {
	app, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build application: %v", err))
	}
	return app
}

// Build 构建应用程序
func (b *ApplicationBuilder) Build() (Application, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	reloadableConfig, err := b.configBuilder.BuildReloadable()
	if err != nil {
		return nil, fmt.Errorf("failed to build configuration: %w", err)
	}

	loggerFactory := b.loggingBuilder.Build()
	logger := loggerFactory.CreateLogger("Application")
	env := NewEnvironment(b.environment)

	logger.Info("Building application",
		logging.Field{Key: "environment", Value: env.Name()})

	settings, err := loadInjectSettings(reloadableConfig)
	if err != nil {
		return nil, err
	}

	// 注入引擎
	engineOpts := []inject.Option{inject.WithLogger(loggerFactory.CreateLogger("Inject"))}
	if settings.CleanupInterval > 0 {
		engineOpts = append(engineOpts, inject.WithCleanupInterval(settings.CleanupInterval))
	}
	engine := inject.New(append(engineOpts, b.engineOptions...)...)
	for _, register := range b.generated {
		register(engine.Cache())
	}

	container := di.NewContainer(di.WithEngine(engine))

	// 组件场景与单例注册表
	sc := scene.New("main", scene.WithLogger(loggerFactory.CreateLogger("Scene")))
	registry := singleton.NewRegistry(sc,
		singleton.WithMissingBehavior(settings.MissingSingleton),
		singleton.WithLogger(loggerFactory.CreateLogger("Singleton")))

	app := &application{
		container:       container,
		configuration:   reloadableConfig,
		loggerFactory:   loggerFactory,
		logger:          logger,
		environment:     env,
		engine:          engine,
		scene:           sc,
		registry:        registry,
		shutdownTimeout: b.shutdownTimeout,
		stopCh:          make(chan struct{}),
	}

	sc.OnActivate(registry.Claim)
	sc.OnActivate(app.activate)
	sc.OnDestroy(registry.Release)
	sc.OnDestroy(engine.Forget)

	reloadableConfig.OnReload(func() {
		logger.Info("Configuration reloaded")
	})

	// 核心服务
	di.Register[config.Configuration](container, di.WithValue(reloadableConfig))
	di.Register[*config.ReloadableConfiguration](container, di.WithValue(reloadableConfig))
	di.Register[logging.LoggerFactory](container, di.WithValue(loggerFactory))
	di.Register[logging.Logger](container, di.WithValue(logger))
	di.Register[di.Container](container, di.WithValue(container))
	di.Register[Environment](container, di.WithValue(env))
	di.Register[*inject.Engine](container, di.WithValue(engine))
	di.Register[*scene.Scene](container, di.WithValue(sc))
	di.Register[*singleton.Registry](container, di.WithValue(registry))

	services := &ServiceCollection{
		container: container,
		engine:    engine,
		registry:  registry,
		logger:    logger,
	}

	buildContext := &BuildContext{
		container:     container,
		configuration: reloadableConfig,
		logger:        logger,
		loggerFactory: loggerFactory,
		environment:   env,
		engine:        engine,
		scene:         sc,
		registry:      registry,
	}

	if settings.SweepInterval > 0 {
		buildContext.AddHostedService(hosting.NewTimedHostedService("inject-sweep", settings.SweepInterval,
			func(context.Context) error {
				if n := engine.Tracker().Sweep(); n > 0 {
					logger.Debug("Swept destroyed instances", logging.Field{Key: "count", Value: n})
				}
				return nil
			}, logger))
	}

	for _, configurator := range b.configurators {
		configurator(buildContext)
	}
	for _, configurator := range b.serviceConfigurators {
		configurator(services)
	}
	if err := errors.Join(buildContext.Err(), services.Err()); err != nil {
		return nil, fmt.Errorf("failed to configure services: %w", err)
	}

	if err := container.Build(); err != nil {
		return nil, fmt.Errorf("failed to build DI container: %w", err)
	}
	logger.Info("DI container built successfully")

	// 容器就绪后，激活的组件立即注入；此前创建的组件补做一次
	app.ready.Store(true)
	for _, c := range sc.Components() {
		if err := app.InjectServices(c); err != nil {
			return nil, fmt.Errorf("failed to inject %T: %w", c, err)
		}
	}

	hosted := append([]hosting.HostedService(nil), buildContext.hostedServices...)
	for _, typ := range services.hostedTypes {
		logger.Debug("Retrieving hosted service from container",
			logging.Field{Key: "type", Value: typ.String()})

		instance, err := container.Get(typ)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve hosted service %s: %w", typ, err)
		}
		hs, ok := instance.(hosting.HostedService)
		if !ok {
			return nil, fmt.Errorf("service %s does not implement HostedService", typ)
		}
		hosted = append(hosted, hs)
	}
	app.hostedServices = hosted
	app.cleanups = buildContext.cleanups

	return app, nil
}

// injectSettings 注入相关的配置项
type injectSettings struct {
	CleanupInterval  int
	MissingSingleton singleton.MissingBehavior
	SweepInterval    time.Duration
}

func loadInjectSettings(cfg config.Configuration) (injectSettings, error) {
	var s injectSettings
	if cfg.Exists("inject:cleanupInterval") {
		n, err := cfg.GetInt("inject:cleanupInterval")
		if err != nil {
			return s, fmt.Errorf("invalid inject:cleanupInterval: %w", err)
		}
		s.CleanupInterval = n
	}

	m, err := singleton.ParseMissingBehavior(cfg.Get("inject:missingSingleton"))
	if err != nil {
		return s, err
	}
	s.MissingSingleton = m

	if cfg.Exists("inject:sweepInterval") {
		d, err := cfg.GetDuration("inject:sweepInterval")
		if err != nil {
			return s, fmt.Errorf("invalid inject:sweepInterval: %w", err)
		}
		s.SweepInterval = d
	}
	return s, nil
}

// application 应用程序实现
type application struct {
	container       di.Container
	configuration   *config.ReloadableConfiguration
	loggerFactory   logging.LoggerFactory
	logger          logging.Logger
	environment     Environment
	engine          *inject.Engine
	scene           *scene.Scene
	registry        *singleton.Registry
	hostedServices  []hosting.HostedService
	serviceManager  *hosting.HostedServiceManager
	cleanups        []cleanup
	shutdownTimeout time.Duration
	ready           atomic.Bool
	stopCh          chan struct{}
	stopOnce        sync.Once
	running         bool
	mu              sync.Mutex
}

// activate 场景激活钩子，容器构建完成前不注入
func (a *application) activate(component any) error {
	if !a.ready.Load() {
		return nil
	}
	return a.InjectServices(component)
}

// InjectServices 对组件执行服务注入，应用程序自身被忽略
func (a *application) InjectServices(component any) error {
	if component == nil {
		return nil
	}
	if c, ok := component.(*application); ok && c == a {
		return nil
	}
	return a.engine.Inject(a.container, component)
}

// Run 运行应用程序（阻塞）
func (a *application) Run() error {
	return a.RunAsync(context.Background())
}

// RunAsync 运行应用程序，直到收到信号、Stop、ctx 结束或托管服务失败
func (a *application) RunAsync(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return errors.New("application is already running")
	}
	a.running = true
	a.mu.Unlock()

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	a.logger.Info("Starting application",
		logging.Field{Key: "environment", Value: a.environment.Name()})

	// 配置源监听
	var watchWg sync.WaitGroup
	watchWg.Add(1)
	go func() {
		defer watchWg.Done()
		a.configuration.Watch(runCtx, func(err error) {
			a.logger.Error("Configuration watch failed",
				logging.Field{Key: "error", Value: err.Error()})
		})
	}()
	a.serviceManager = hosting.NewHostedServiceManager(a.logger)
	for _, service := range a.hostedServices {
		a.serviceManager.Add(service)
	}
	errCh := a.serviceManager.StartAll(runCtx)

	a.logger.Info("Application started successfully")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info("Received shutdown signal",
			logging.Field{Key: "signal", Value: sig.String()})
	case <-a.stopCh:
		a.logger.Info("Application stop requested")
	case <-ctx.Done():
		a.logger.Info("Context cancelled")
	case err := <-errCh:
		a.logger.Error("Hosted service failed, stopping application",
			logging.Field{Key: "error", Value: err.Error()})
		runErr = err
	}

	a.logger.Info("Shutting down application",
		logging.Field{Key: "timeout", Value: a.shutdownTimeout.String()})

	runCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	if err := a.serviceManager.StopAll(shutdownCtx); err != nil {
		a.logger.Error("Failed to stop hosted services",
			logging.Field{Key: "error", Value: err.Error()})
	}
	a.serviceManager.Wait()
	watchWg.Wait()

	// 销毁所有组件
	a.scene.Clear()

	// 按注册的逆序执行清理函数
	if len(a.cleanups) > 0 {
		a.logger.Info("Running cleanup functions",
			logging.Field{Key: "count", Value: len(a.cleanups)})
		for i := len(a.cleanups) - 1; i >= 0; i-- {
			a.logger.Debug("Running cleanup",
				logging.Field{Key: "key", Value: a.cleanups[i].key})
			a.cleanups[i].fn()
		}
	}

	a.logger.Info("Application stopped")

	if closer, ok := a.loggerFactory.(io.Closer); ok {
		_ = closer.Close()
	}

	a.mu.Lock()
	a.running = false
	a.mu.Unlock()

	return runErr
}

// Stop 请求停止应用程序，可重复调用
func (a *application) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() { close(a.stopCh) })
	return nil
}

func (a *application) Services() di.Container { return a.container }

func (a *application) Configuration() config.Configuration { return a.configuration }

func (a *application) Logger() logging.Logger { return a.logger }

func (a *application) Environment() Environment { return a.environment }

func (a *application) Engine() *inject.Engine { return a.engine }

func (a *application) Scene() *scene.Scene { return a.scene }

func (a *application) Singletons() *singleton.Registry { return a.registry }

// GetService 获取服务实例（通过指针参数）
//
// 使用示例：
//
//	var myService *MyService
//	app.GetService(&myService)
func (a *application) GetService(ptr any) {
	ptrValue := reflect.ValueOf(ptr)
	if ptrValue.Kind() != reflect.Pointer {
		panic(fmt.Sprintf("app: GetService argument must be a pointer, got %T", ptr))
	}

	elemValue := ptrValue.Elem()
	if !elemValue.CanSet() {
		panic("app: GetService argument must be settable")
	}

	targetType := elemValue.Type()
	instance, err := a.container.Get(targetType)
	if err != nil {
		panic(fmt.Sprintf("app: failed to get service %s: %v", targetType.String(), err))
	}
	if instance == nil {
		elemValue.Set(reflect.Zero(targetType))
		return
	}
	elemValue.Set(reflect.ValueOf(instance))
}
