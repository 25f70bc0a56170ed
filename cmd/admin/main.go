// Package main 运维命令行：权限记录维护与投票台账修复
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"student-wellness/backend/config"
	"student-wellness/backend/internal/dto"
	"student-wellness/backend/internal/repository"
	"student-wellness/backend/internal/service"
	"student-wellness/backend/pkg/database"
	"student-wellness/backend/pkg/identity"
	applogger "student-wellness/backend/pkg/logger"
)

// operatorID 命令行操作在审计记录中的操作人
const operatorID = "cli"

// app 子命令共享的运行时依赖
type app struct {
	cfg    *config.Config
	db     *gorm.DB
	svc    *service.Service
	logger *zap.Logger
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		timeout    time.Duration
		a          app
	)

	cmd := &cobra.Command{
		Use:           "wellness-admin",
		Short:         "校园心理健康平台运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(configPath)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			a.close()
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径（默认 ./config.yaml）")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "单条命令超时")

	ctx := func() (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		return ctx, func() { stop(); cancel() }
	}

	cmd.AddCommand(adminCmd(&a, ctx))
	cmd.AddCommand(moderatorCmd(&a, ctx))
	cmd.AddCommand(departmentCmd(&a, ctx))
	cmd.AddCommand(votesCmd(&a, ctx))
	cmd.AddCommand(migrateCmd(&a))
	cmd.AddCommand(tokenCmd(&a))

	return cmd
}

func (a *app) init(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}

	a.cfg = cfg
	a.db = db
	a.logger = logger
	// 命令行不连接 Redis：进程内缓存随命令结束失效
	a.svc = service.NewService(cfg, repository.NewRepository(db), service.Deps{}, logger)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}

type ctxFunc func() (context.Context, context.CancelFunc)

// ── admin ──

func adminCmd(a *app, ctx ctxFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "管理员记录"}

	var email, note string
	grant := &cobra.Command{
		Use:   "grant <user_id>",
		Short: "授予管理员",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c, cancel := ctx()
			defer cancel()
			if err := a.svc.Authority.GrantAdmin(c, args[0], email, note, operatorID); err != nil {
				return err
			}
			fmt.Printf("已授予管理员: %s\n", args[0])
			return nil
		},
	}
	grant.Flags().StringVar(&email, "email", "", "邮箱")
	grant.Flags().StringVar(&note, "note", "", "备注")

	revoke := &cobra.Command{
		Use:   "revoke <user_id>",
		Short: "撤销管理员",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c, cancel := ctx()
			defer cancel()
			if err := a.svc.Authority.RevokeAdmin(c, args[0], operatorID); err != nil {
				return err
			}
			fmt.Printf("已撤销管理员: %s\n", args[0])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "列出管理员",
		RunE: func(_ *cobra.Command, _ []string) error {
			c, cancel := ctx()
			defer cancel()
			admins, err := a.svc.Authority.ListAdmins(c)
			if err != nil {
				return err
			}
			return printJSON(admins)
		},
	}

	cmd.AddCommand(grant, revoke, list)
	return cmd
}

// ── moderator ──

func moderatorCmd(a *app, ctx ctxFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "moderator", Short: "版主记录"}

	var email string
	grant := &cobra.Command{
		Use:   "grant <user_id>",
		Short: "授予版主",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c, cancel := ctx()
			defer cancel()
			m, err := a.svc.Authority.GrantModerator(c, &dto.GrantModeratorRequest{UserID: args[0], Email: email}, operatorID)
			if err != nil {
				return err
			}
			return printJSON(m)
		},
	}
	grant.Flags().StringVar(&email, "email", "", "邮箱")

	revoke := &cobra.Command{
		Use:   "revoke <user_id>",
		Short: "撤销版主（保留记录）",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c, cancel := ctx()
			defer cancel()
			if err := a.svc.Authority.RevokeModerator(c, args[0], operatorID); err != nil {
				return err
			}
			fmt.Printf("已撤销版主: %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(grant, revoke)
	return cmd
}

// ── department ──

func departmentCmd(a *app, ctx ctxFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "department", Short: "部门维护"}

	var phone string
	setHead := &cobra.Command{
		Use:   "set-head <code> <email>",
		Short: "设置部门负责人；email 传空字符串表示撤销",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			c, cancel := ctx()
			defer cancel()
			dept, err := a.svc.Department.SetHead(c, args[0], args[1], phone, operatorID)
			if err != nil {
				return err
			}
			return printJSON(dept)
		},
	}
	setHead.Flags().StringVar(&phone, "phone", "", "负责人电话")

	cmd.AddCommand(setHead)
	return cmd
}

// ── votes ──

func votesCmd(a *app, ctx ctxFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "votes", Short: "投票台账"}

	recount := &cobra.Command{
		Use:   "recount <post_id>",
		Short: "按投票记录重算帖子票数",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c, cancel := ctx()
			defer cancel()
			before, after, err := a.svc.Vote.Recount(c, args[0])
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"post_id": args[0],
				"before":  before,
				"after":   after,
				"changed": before != after,
			})
		},
	}

	cmd.AddCommand(recount)
	return cmd
}

// ── migrate ──

func migrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "migrate", Short: "数据库结构迁移"}

	up := &cobra.Command{
		Use:   "up",
		Short: "执行全部未应用的迁移",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			if err := database.RunMigrations(sqlDB, a.logger); err != nil {
				return err
			}
			st, err := database.MigrationStatus(sqlDB)
			if err != nil {
				return err
			}
			return printJSON(st)
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "查看当前迁移版本",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			st, err := database.MigrationStatus(sqlDB)
			if err != nil {
				return err
			}
			return printJSON(st)
		},
	}

	cmd.AddCommand(up, status)
	return cmd
}

// ── token ──

// tokenCmd 为本地身份提供方签发测试 Token
func tokenCmd(a *app) *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "token <user_id>",
		Short: "签发本地 Token（仅 auth.provider=local）",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if a.cfg.Auth.Provider != "local" {
				return fmt.Errorf("当前身份提供方为 %s，无法签发本地 Token", a.cfg.Auth.Provider)
			}
			token, err := identity.NewLocalProvider(&a.cfg.Auth).Issue(args[0], email, name)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "已验证邮箱")
	cmd.Flags().StringVar(&name, "name", "", "显示名")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
