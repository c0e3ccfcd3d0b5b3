// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/stratacloud/internal/app/drive"
	adminfeature "github.com/dalemusser/stratacloud/internal/app/features/admin"
	filesfeature "github.com/dalemusser/stratacloud/internal/app/features/files"
	foldersfeature "github.com/dalemusser/stratacloud/internal/app/features/folders"
	healthfeature "github.com/dalemusser/stratacloud/internal/app/features/health"
	sharesfeature "github.com/dalemusser/stratacloud/internal/app/features/shares"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The router mounts one feature per
// concern: folder tree operations, file operations, anonymous shares, owner
// administration, and health probes. All state flows through the drive
// engine; no handler touches the stores or the blob store directly.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := drive.New(deps.MongoDatabase, deps.FileStorage, logger)

	r := chi.NewRouter()

	// Request timeout middleware: prevents requests from hanging indefinitely.
	// Generous because zip exports of large subtrees stream through it.
	r.Use(chimw.Timeout(5 * time.Minute))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Folder tree operations
	foldersHandler := foldersfeature.NewHandler(svc, logger)
	r.Mount("/folders", foldersfeature.Routes(foldersHandler))

	// File operations
	filesHandler := filesfeature.NewHandler(svc, logger, appCfg.MaxUploadSize)
	r.Mount("/files", filesfeature.Routes(filesHandler))

	// Anonymous share access
	sharesHandler := sharesfeature.NewHandler(svc, logger)
	r.Mount("/public", sharesfeature.Routes(sharesHandler))

	// Owner administration
	adminHandler := adminfeature.NewHandler(svc, logger)
	r.Mount("/admin", adminfeature.Routes(adminHandler))

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	return r, nil
}
