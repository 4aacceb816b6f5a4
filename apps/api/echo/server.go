package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/aid"
	"github.com/yardimel/yardimel/core/audit"
	"github.com/yardimel/yardimel/core/cms"
	"github.com/yardimel/yardimel/core/family"
	"github.com/yardimel/yardimel/core/finance"
	"github.com/yardimel/yardimel/core/inventory"
	"github.com/yardimel/yardimel/core/user"
)

type (
	Options struct {
		Conf           *core.Config
		Address        string
		DisableReqLogs bool
		Logger         core.Logger
		// Shutdown receives a SIGTERM whenever an unrecoverable error is
		// caught by the error handler. It may be nil (tests).
		Shutdown chan os.Signal

		UserSvc      user.Service
		FamilySvc    family.Service
		InventorySvc inventory.Service
		AidSvc       aid.Service
		FinanceSvc   finance.Service
		CMSSvc       cms.Service
		AuditSvc     audit.Service

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	configureJWT(opts.Conf)
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.opts.Conf.Debug || s.opts.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = s.opts.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)
	rec := auditRecorder{svc: s.opts.AuditSvc}

	registerUserAPI(v1, jwt, s.opts.UserSvc, rec, s.opts.Validate)
	registerFamilyAPI(v1, jwt, s.opts.FamilySvc, rec, s.opts.Validate)
	registerInventoryAPI(v1, jwt, s.opts.InventorySvc, rec, s.opts.Validate)
	registerAidAPI(v1, jwt, s.opts.AidSvc, rec, s.opts.Validate)
	registerFinanceAPI(v1, jwt, s.opts.FinanceSvc, rec, s.opts.Validate)
	registerCMSAPI(v1, jwt, s.opts.CMSSvc, rec, s.opts.Validate)
	registerAuditAPI(v1, jwt, s.opts.AuditSvc)
}

// signalShutdown asks main to gracefully bring the server down.
func (s *server) signalShutdown() {
	if s.opts.Shutdown != nil {
		s.opts.Shutdown <- syscall.SIGTERM
	}
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to YardimEl API!")
}
