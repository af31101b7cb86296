/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eslsoft/vocsync/internal/adapter/codec"
	adapterrepo "github.com/eslsoft/vocsync/internal/adapter/repository"
	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/infrastructure/config"
	"github.com/eslsoft/vocsync/internal/infrastructure/database"
	"github.com/eslsoft/vocsync/internal/infrastructure/docstore"
	"github.com/eslsoft/vocsync/internal/infrastructure/server"
)

// dbInitCmd creates the local segment tables and, with --server, the document store of the word list service.
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "初始化本地存储",
	Long:  "创建本地生词本的数据段表与索引。注意: go-sqlite3 需要 CGO_ENABLED=1 构建。使用 --server 同时初始化服务端 PostgreSQL 文档表。",
	RunE: func(cmd *cobra.Command, args []string) error {
		withServer, _ := cmd.Flags().GetBool("server")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		logger, err := server.NewLogger(cfg)
		if err != nil {
			return fmt.Errorf("初始化日志失败: %w", err)
		}

		if err := migrateLocal(cmd, cfg, logger); err != nil {
			return err
		}
		if withServer {
			return migrateServer(cmd, cfg, logger)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
	dbInitCmd.Flags().Bool("server", false, "同时初始化服务端文档存储 (server.store=postgres)")
}

func migrateLocal(cmd *cobra.Command, cfg *config.Config, logger *logrus.Logger) error {
	db, cleanup, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("打开本地存储失败: %w", err)
	}
	defer cleanup()

	store := adapterrepo.NewLocalStore[*entity.WordItem](db, cfg.Sync.UserID, codec.NewWordItemSegments(), logger)
	if err := store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("执行本地存储迁移失败: %w", err)
	}
	cmd.Printf("本地存储初始化完成: %s\n", db.Dialect)
	return nil
}

func migrateServer(cmd *cobra.Command, cfg *config.Config, logger *logrus.Logger) error {
	if !strings.EqualFold(strings.TrimSpace(cfg.Server.Store), "postgres") {
		cmd.Println("服务端使用内存存储, 无需迁移")
		return nil
	}
	pool, cleanup, err := database.NewConnection(cfg, logger)
	if err != nil {
		return fmt.Errorf("连接服务端数据库失败: %w", err)
	}
	defer cleanup()

	if err := docstore.NewPostgres(pool).Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("执行服务端存储迁移失败: %w", err)
	}
	cmd.Println("服务端文档存储初始化完成")
	return nil
}
