// @title EdForge 测评与进度引擎 API
// @version 1.0
// @description 学习平台的测评、作业与进度聚合后端服务。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"

	"edforge_backend/internal/app"
	"edforge_backend/internal/config"
	"edforge_backend/pkg/configwatcher"
	"edforge_backend/pkg/database"
	"edforge_backend/pkg/logger"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	if *migrateOnly {
		logger.InitLogger(cfg)
		db, err := database.InitDB(&cfg.Database)
		if err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		_ = db
		log.Println("数据库迁移完成，退出程序")
		return
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 配置热更新：引擎阈值改动无需重启
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(newCfg interface{}) {
		if reloaded, ok := newCfg.(*config.Config); ok {
			application.ApplyEngineConfig(reloaded.Engine)
		}
	})

	application.Run()
}
