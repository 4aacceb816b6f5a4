package tests

import (
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/yardimel/yardimel/apps/api/echo"
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
	dummydb "github.com/yardimel/yardimel/storage/database/dummy"
)

var (
	db  *dummydb.DB
	app Server

	usrRepo user.Repository
	famRepo family.Repository
	invRepo inventory.Repository
	aidRepo aid.Repository
	finRepo finance.Repository
	cmsRepo cms.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	conf := core.NewConfig(core.Getwd())
	conf.Debug = false
	conf.TestMode = true

	// set up DB & repos
	var err error
	if db, err = dummydb.Open(); err != nil {
		fmt.Printf("dummydb.Open(): %v", err)
		os.Exit(1)
	}
	usrRepo = dummydb.NewUserRepository(db)
	famRepo = dummydb.NewFamilyRepository(db)
	invRepo = dummydb.NewInventoryRepository(db)
	aidRepo = dummydb.NewAidRepository(db)
	finRepo = dummydb.NewFinanceRepository(db)
	cmsRepo = dummydb.NewCMSRepository(db)
	auditRepo := dummydb.NewAuditRepository(db)

	// set up services
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewServiceMock(conf, usrRepo, mailSvc)
	famSvc := family.NewService(famRepo)
	invSvc := inventory.NewService(conf, invRepo, mailSvc)
	aidSvc := aid.NewService(aidRepo, famRepo, invSvc)
	finSvc := finance.NewService(finRepo, famRepo, invSvc)
	cmsSvc := cms.NewService(conf, cmsRepo, mailSvc)
	auditSvc := audit.NewService(auditRepo, logger)

	// set up validation & templates
	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator, conf.WorkDir)
	user.SetTokenConfig(conf)
	core.ParseEmailTemplates(conf)

	// set up server
	app = NewServer(&Options{
		Conf:           conf,
		DisableReqLogs: true,
		Logger:         logger,
		UserSvc:        usrSvc,
		FamilySvc:      famSvc,
		InventorySvc:   invSvc,
		AidSvc:         aidSvc,
		FinanceSvc:     finSvc,
		CMSSvc:         cmsSvc,
		AuditSvc:       auditSvc,
		Validate:       validate,
		Translator:     translator,
	})

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
