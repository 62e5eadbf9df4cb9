package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wfunc/secret-mission/internal/api"
	"github.com/wfunc/secret-mission/internal/config"
	"github.com/wfunc/secret-mission/internal/database"
	"github.com/wfunc/secret-mission/internal/errors"
	"github.com/wfunc/secret-mission/internal/game"
	"github.com/wfunc/secret-mission/internal/logger"
	"github.com/wfunc/secret-mission/internal/repository"
	"github.com/wfunc/secret-mission/internal/service"
	"github.com/wfunc/secret-mission/internal/websocket"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	gameService *game.Service
	hub         *websocket.Hub
	router      *api.Router
	httpServer  *http.Server

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	setupSystem(&cfg.System)
	printStartInfo(cfg)

	server := NewServer(cfg)

	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动秘密任务游戏服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initComponents(); err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "初始化组件失败")
	}

	s.startServices()

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.cfg = newCfg
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)),
		zap.String("websocket", s.cfg.WebSocket.Path),
	)

	return nil
}

// initComponents 初始化组件
func (s *Server) initComponents() error {
	s.logger.Info("初始化组件...")

	if err := s.initDatabase(); err != nil {
		return err
	}

	db := database.GetDB()

	// 游戏协调服务
	s.gameService = game.NewService(
		repository.NewGameRepository(db),
		repository.NewPlayerRepository(db),
		repository.NewMissionRepository(db),
		nil,
		&s.cfg.Game,
	)

	// WebSocket中心, 连接注册后由游戏服务绑定玩家
	s.hub = websocket.NewHub(s.gameService)
	s.gameService.SetBroadcaster(s.hub)

	// 认证服务
	services := service.NewServices(db, &service.Config{
		JWTSecret:          s.cfg.Security.JWT.Secret,
		AccessTokenExpiry:  time.Duration(s.cfg.Security.JWT.ExpireHours) * time.Hour,
		RefreshTokenExpiry: time.Duration(s.cfg.Security.JWT.RefreshHours) * time.Hour,
	})

	// HTTP路由
	wsHandler := websocket.NewHandler(s.hub, &s.cfg.WebSocket)
	s.router = api.NewRouter(db, s.gameService, services, wsHandler, s.cfg)

	s.logger.Info("所有组件初始化完成")
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	s.logger.Info("初始化数据库...")

	if err := database.Init(&s.cfg.Database); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseConnect, "初始化数据库连接失败")
	}

	if s.cfg.Database.AutoMigrate {
		s.logger.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	if !database.IsConnected() {
		return errors.New(errors.ErrDatabaseConnect, "数据库连接检查失败")
	}

	s.logger.Info("数据库初始化完成")
	return nil
}

// startServices 启动服务
func (s *Server) startServices() {
	s.logger.Info("启动服务...")

	// WebSocket中心
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run()
	}()

	// HTTP服务器
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      s.router.GetEngine(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP服务器异常退出", zap.Error(err))
		}
	}()

	s.logger.Info("所有服务启动完成")
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 停止接收新请求
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP服务器关闭超时", zap.Error(err))
		}
	}

	s.cancel()

	// hub.Run 随进程退出, 不单独等待
	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
	}

	if err := logger.Sync(); err != nil {
		fmt.Printf("同步日志失败: %v\n", err)
	}

	return nil
}

// setupSystem 设置系统参数
func setupSystem(cfg *config.SystemConfig) {
	if cfg.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
			time.Local = loc
		}
	}

	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err == nil {
		rLimit.Cur = rLimit.Max
		syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	}
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("秘密任务游戏服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("秘密任务游戏服务器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  secret-mission-server [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  MISSION_GAME_SERVER_PORT   监听端口")
	fmt.Println("  MISSION_GAME_DATABASE_DSN  数据库连接串")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  secret-mission-server -config=/path/to/config.yaml")
	fmt.Println("  secret-mission-server -version")
}

// printStartInfo 打印启动信息
func printStartInfo(cfg *config.Config) {
	fmt.Println("═══════════════════════════════════════════")
	fmt.Println("          秘密任务 · 派对游戏服务器")
	fmt.Println("═══════════════════════════════════════════")
	fmt.Printf("版本: %s | 模式: %s | PID: %d\n", Version, cfg.Server.Mode, os.Getpid())
	fmt.Printf("配置文件: %s\n", config.GetString("config_file"))
	fmt.Println("═══════════════════════════════════════════")
}
