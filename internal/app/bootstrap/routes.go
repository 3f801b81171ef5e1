// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	adminfeature "github.com/dalemusser/sudhub/internal/app/features/admin"
	auditlogfeature "github.com/dalemusser/sudhub/internal/app/features/auditlog"
	branchesfeature "github.com/dalemusser/sudhub/internal/app/features/branches"
	errorsfeature "github.com/dalemusser/sudhub/internal/app/features/errors"
	filesfeature "github.com/dalemusser/sudhub/internal/app/features/files"
	healthfeature "github.com/dalemusser/sudhub/internal/app/features/health"
	homefeature "github.com/dalemusser/sudhub/internal/app/features/home"
	loginfeature "github.com/dalemusser/sudhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/sudhub/internal/app/features/logout"
	registerfeature "github.com/dalemusser/sudhub/internal/app/features/register"
	requestsfeature "github.com/dalemusser/sudhub/internal/app/features/requests"
	searchfeature "github.com/dalemusser/sudhub/internal/app/features/search"
	workspacesfeature "github.com/dalemusser/sudhub/internal/app/features/workspaces"
	auditstore "github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/store/preferences"
	"github.com/dalemusser/sudhub/internal/app/store/submissions"
	"github.com/dalemusser/sudhub/internal/app/system/auditlog"
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/identity"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for sudhub.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed. It builds the shared services (session manager,
// backend client, audit logger, mutation dispatcher), boots the template
// engine and mounts every feature router.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	be, err := backend.New(backend.Config{
		BaseURL:      appCfg.BackendBaseURL,
		CookieName:   appCfg.BackendCookieName,
		Timeout:      appCfg.BackendTimeout,
		MaxFileBytes: appCfg.MaxUploadBytes(),
	}, logger)
	if err != nil {
		logger.Error("backend client init failed", zap.Error(err))
		return nil, err
	}

	// Dev mode enables template reloading.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	events := auditstore.New(deps.MongoDatabase)
	auditLog := auditlog.New(events, logger, auditlog.Config{
		Auth:      appCfg.AuditLogAuth,
		Workspace: appCfg.AuditLogWorkspace,
		Admin:     appCfg.AuditLogAdmin,
	})
	dispatcher := mutate.New(submissions.New(deps.MongoDatabase), auditLog, logger)
	prefs := preferences.New(deps.MongoDatabase)
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Health check and static assets sit outside the session and CSRF layers.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, be, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	r.Group(func(app chi.Router) {
		app.Use(sessionMgr.LoadSessionUser)
		app.Use(sessionMgr.CSRF())
		app.Use(identity.NewResolver(be, logger).Middleware)

		homeHandler := homefeature.NewHandler(logger)
		app.Mount("/", homefeature.Routes(homeHandler))

		// Authentication
		loginHandler := loginfeature.NewHandler(be, sessionMgr, errLog, auditLog, logger)
		app.Mount("/login", loginfeature.Routes(loginHandler))

		registerHandler := registerfeature.NewHandler(be, errLog, auditLog, logger)
		app.Mount("/register", registerfeature.Routes(registerHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
		app.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

		// Error pages
		errorsHandler := errorsfeature.NewHandler()
		app.Get("/forbidden", errorsHandler.Forbidden)
		app.Get("/unauthorized", errorsHandler.Unauthorized)
		app.NotFound(errorsHandler.NotFound)

		// Workspaces, with branches and requests below /workspaces/{id}
		wsHandler := workspacesfeature.NewHandler(be, dispatcher, prefs, errLog, auditLog, appCfg.MaxUploadBytes(), logger)
		wsRouter := workspacesfeature.Routes(wsHandler, sessionMgr)

		branchHandler := branchesfeature.NewHandler(be, dispatcher, errLog, auditLog, appCfg.MaxUploadBytes(), logger)
		wsRouter.Mount("/{id}/branches", branchesfeature.Routes(branchHandler, sessionMgr))

		requestHandler := requestsfeature.NewHandler(be, dispatcher, errLog, auditLog, logger)
		wsRouter.Mount("/{id}/requests", requestsfeature.Routes(requestHandler, sessionMgr))

		app.Mount("/workspaces", wsRouter)

		searchHandler := searchfeature.NewHandler(be, errLog, logger)
		app.Mount("/search", searchfeature.Routes(searchHandler, sessionMgr))

		filesHandler := filesfeature.NewHandler(be, errLog, logger)
		app.Mount("/files", filesfeature.Routes(filesHandler, sessionMgr))

		// Administration
		auditHandler := auditlogfeature.NewHandler(events, errLog, logger)
		app.Mount("/admin/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

		adminHandler := adminfeature.NewHandler(be, dispatcher, events, errLog, auditLog, logger)
		app.Mount("/admin", adminfeature.Routes(adminHandler, sessionMgr))
	})

	return r, nil
}
