package main

import (
	"os"

	"github.com/quillblog/quill/config"
	"github.com/quillblog/quill/models"
	"github.com/quillblog/quill/routes"
	"github.com/quillblog/quill/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		utils.Sugar.Fatalf("failed to create uploads directory: %v", err)
	}

	db := config.InitDatabase(&models.User{}, &models.Post{}, &models.Comment{})
	utils.InitRedis(cfg)

	r := routes.SetupRouter(db, cfg)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
