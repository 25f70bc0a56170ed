package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"student-wellness/backend/config"
	"student-wellness/backend/internal/api/handler"
	"student-wellness/backend/internal/api/router"
	"student-wellness/backend/internal/repository"
	"student-wellness/backend/internal/service"
	"student-wellness/backend/pkg/database"
	"student-wellness/backend/pkg/identity"
	applogger "student-wellness/backend/pkg/logger"
	"student-wellness/backend/pkg/notifier"
	"student-wellness/backend/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("auth_provider", cfg.Auth.Provider),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：失败时权限缓存退回进程内，限流与投票序号放行）
	var deps service.Deps
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，以降级模式运行", zap.Error(err))
		rdb = nil
	} else {
		deps.Cache = service.NewRedisAccessCache(rdb, cfg.Access.CacheTTL)
		deps.Sequencer = rdb.Sequencer(cfg.Vote.SeqTTL)
	}

	// 5. 身份提供方
	provider, err := identity.NewProvider(cfg)
	if err != nil {
		logger.Fatal("初始化身份提供方失败", zap.Error(err))
	}

	// 6. 通知机器人（需要 Redis 保存手机号绑定）
	botCtx, stopBot := context.WithCancel(context.Background())
	defer stopBot()
	switch {
	case cfg.Telegram.BotToken == "":
		logger.Info("未配置 Telegram Bot Token，状态通知已关闭")
	case rdb == nil:
		logger.Warn("Redis 不可用，无法保存手机号绑定，状态通知已关闭")
	default:
		tg, err := notifier.NewTelegramNotifier(&cfg.Telegram, rdb, logger)
		if err != nil {
			logger.Warn("通知机器人初始化失败，状态通知已关闭", zap.Error(err))
		} else {
			deps.Notifier = tg
			go tg.Run(botCtx)
		}
	}

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, deps, logger)
	h := handler.NewHandler(svc)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, provider, svc.Access, rdb, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // 导出可能较慢
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	stopBot()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
