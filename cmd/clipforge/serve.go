package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clipforge/config"
	"clipforge/internal/handler"
	"clipforge/internal/queue"
	"clipforge/internal/router"
	"clipforge/internal/service"
	"clipforge/internal/taskrunner"
	"clipforge/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootstrap(); err != nil {
			return err
		}
		defer log.GetLogger().Sync()
		return runServer()
	},
}

func runServer() error {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.Default()

	// Analyze requests go through a dispatcher: the redis queue when enabled,
	// otherwise an in-process runner so a single binary still works.
	var dispatcher handler.ClipTaskDispatcher
	if config.Conf.Queue.Enabled {
		q := queue.NewQueue(config.Conf.Queue)
		defer q.Close()
		go func() {
			if err := queue.StartWorker(q, service.NewService()); err != nil {
				log.GetLogger().Error("queue worker stopped", zap.Error(err))
			}
		}()
		dispatcher = q
	} else {
		runner := taskrunner.New(service.NewService(), taskrunner.DefaultConfig())
		defer runner.Close()
		dispatcher = runner
	}
	router.SetupRouter(engine, dispatcher)

	addr := fmt.Sprintf("%s:%d", config.Conf.Server.Host, config.Conf.Server.Port)
	log.GetLogger().Info("服务启动 Server starting", zap.String("addr", addr))
	return engine.Run(addr)
}
