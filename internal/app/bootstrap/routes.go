// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	"github.com/dalemusser/enrollhub/internal/app/enroll"
	attendancefeature "github.com/dalemusser/enrollhub/internal/app/features/attendance"
	groupsfeature "github.com/dalemusser/enrollhub/internal/app/features/groups"
	healthfeature "github.com/dalemusser/enrollhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/enrollhub/internal/app/features/login"
	studentsfeature "github.com/dalemusser/enrollhub/internal/app/features/students"
	sweepfeature "github.com/dalemusser/enrollhub/internal/app/features/sweep"
	"github.com/dalemusser/enrollhub/internal/app/system/auth"
	"github.com/dalemusser/enrollhub/internal/app/system/sweeper"
	"github.com/dalemusser/enrollhub/internal/app/system/timeouts"
	"github.com/dalemusser/enrollhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// balanceResetWorker is started in BuildHandler and stopped in Shutdown.
var balanceResetWorker *workers.BalanceReset

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It wires the enrollment engine, the
// balance sweeper, and the feature routers, and starts the background
// balance-reset worker.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	engine := enroll.NewEngine(deps.MongoDatabase, logger)
	sweep := sweeper.New(deps.MongoDatabase, logger, appCfg.BalanceStaleAfter, appCfg.SweepMinGap)

	// Run one forced sweep at boot so a long-stopped deployment catches up
	// without waiting for the first worker tick.
	bootCtx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
	res := sweep.MaybeRun(bootCtx, true)
	cancel()
	if res.Err != nil {
		logger.Warn("initial balance sweep failed", zap.Error(res.Err))
	}

	balanceResetWorker = workers.NewBalanceReset(sweep, logger, appCfg.SweepInterval)
	balanceResetWorker.Start()

	r := chi.NewRouter()

	// Global auth middleware: loads the operator into context if signed in.
	r.Use(sessionMgr.LoadSession)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler, err := loginfeature.NewHandler(appCfg.AdminLoginID, appCfg.AdminPassword, sessionMgr, logger)
	if err != nil {
		logger.Error("login handler init failed", zap.Error(err))
		return nil, err
	}
	r.Mount("/", loginfeature.Routes(loginHandler))

	// Students
	studentsHandler := studentsfeature.NewHandler(deps.MongoDatabase, engine, sweep, logger)
	r.Mount("/students", studentsfeature.Routes(studentsHandler))

	// Groups, with attendance endpoints on the same router
	groupsHandler := groupsfeature.NewHandler(deps.MongoDatabase, engine, sweep, logger)
	groupsRouter := groupsfeature.Routes(groupsHandler)
	attendanceHandler := attendancefeature.NewHandler(deps.MongoDatabase, engine, logger)
	attendancefeature.Register(groupsRouter, attendanceHandler)
	r.Mount("/groups", groupsRouter)

	// Sweep status and manual trigger
	sweepHandler := sweepfeature.NewHandler(sweep, logger)
	r.Mount("/sweep", sweepfeature.Routes(sweepHandler))

	return r, nil
}
