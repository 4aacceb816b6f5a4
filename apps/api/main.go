package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/yardimel/yardimel/apps/api/echo"
	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/aid"
	"github.com/yardimel/yardimel/core/audit"
	"github.com/yardimel/yardimel/core/cms"
	"github.com/yardimel/yardimel/core/family"
	"github.com/yardimel/yardimel/core/finance"
	"github.com/yardimel/yardimel/core/inventory"
	"github.com/yardimel/yardimel/core/user"
	emailsvc "github.com/yardimel/yardimel/services/email"
	logsvc "github.com/yardimel/yardimel/services/logger"
	"github.com/yardimel/yardimel/storage/database"
	"github.com/yardimel/yardimel/storage/database/sqlxrepos"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig(core.Getwd())

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close database", err)
		}
	}()
	sdb := sqlx.NewDb(db, conf.Database.Engine)

	// set up repos
	usrRepo := sqlxrepos.NewUserRepository(sdb)
	famRepo := sqlxrepos.NewFamilyRepository(sdb)
	invRepo := sqlxrepos.NewInventoryRepository(sdb)
	aidRepo := sqlxrepos.NewAidRepository(sdb)
	finRepo := sqlxrepos.NewFinanceRepository(sdb)
	cmsRepo := sqlxrepos.NewCMSRepository(sdb)
	auditRepo := sqlxrepos.NewAuditRepository(sdb)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(conf, usrRepo, mailSvc)
	famSvc := family.NewService(famRepo)
	invSvc := inventory.NewService(conf, invRepo, mailSvc)
	aidSvc := aid.NewService(aidRepo, famRepo, invSvc)
	finSvc := finance.NewService(finRepo, famRepo, invSvc)
	cmsSvc := cms.NewService(conf, cmsRepo, mailSvc)
	auditSvc := audit.NewService(auditRepo, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator, conf.WorkDir)
	user.SetTokenConfig(conf)

	core.ParseEmailTemplates(conf)

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Conf:     conf,
		Address:  conf.Server.Address(),
		Logger:   logger,
		Shutdown: shutdown,

		UserSvc:      usrSvc,
		FamilySvc:    famSvc,
		InventorySvc: invSvc,
		AidSvc:       aidSvc,
		FinanceSvc:   finSvc,
		CMSSvc:       cmsSvc,
		AuditSvc:     auditSvc,

		Validate:   validate,
		Translator: translator,
	})

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db, conf); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
