package router

import (
	"pdvinova/internal/config"
	"pdvinova/internal/handler"
	"pdvinova/internal/infra"
	"pdvinova/internal/middleware"
	"pdvinova/internal/repository"
	"pdvinova/internal/service"
	"pdvinova/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the long-lived infrastructure pieces built by main.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Relay    service.Relay
	Monitor  handler.RelayStatusSource
	LLM      *infra.GroqClient
	Launcher service.Launcher
	Receipts service.ReceiptIssuer
	Limiter  *middleware.RateLimiter
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.ErrorHandler())
	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware())
	}

	loc := cfg.Location()
	store := service.StoreInfo{Name: cfg.StoreName, CNPJ: cfg.StoreCNPJ, INPI: cfg.StoreINPI}
	notifyCfg := service.NotificationConfig{CountryPrefix: cfg.CountryPrefix, Store: store, Location: loc}

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(d.DB)
	punchRepo := repository.NewTimeClockRepository(d.DB)
	shiftRepo := repository.NewShiftRepository(d.DB)
	saleRepo := repository.NewSaleRepository(d.DB)
	productRepo := repository.NewProductRepository(d.DB)
	countRepo := repository.NewInventoryRepository(d.DB)

	productCache := infra.NewProductCache(d.Redis)
	var lookups service.LookupCache
	if productCache != nil {
		lookups = productCache
	}

	// ── Services ─────────────────────────────────────────────────────────────
	notifier := service.NewNotificationService(d.Relay, notifyCfg)
	reports := service.NewExternalReportSender(notifier, infra.RenderReportPDF, notifyCfg)
	clockSvc := service.NewClockService(userRepo, punchRepo, shiftRepo, notifier, d.Launcher, loc)

	var emails service.EmailQueue
	if d.Redis != nil {
		emails = worker.NewDispatcher(d.Redis)
	}
	shiftSvc := service.NewShiftService(service.ShiftDeps{
		Users:    userRepo,
		Punches:  punchRepo,
		Shifts:   shiftRepo,
		Sales:    saleRepo,
		Notifier: notifier,
		Receipts: d.Receipts,
		Render:   infra.RenderReportPDF,
		Emails:   emails,
	}, service.ShiftConfig{
		Store:          store,
		Location:       loc,
		ManagerEmail:   cfg.ManagerEmail,
		PDFStoragePath: cfg.PDFStoragePath,
	})
	saleSvc := service.NewSaleService(saleRepo, productRepo, countRepo, lookups, loc, nil)
	inventorySvc := service.NewInventoryService(countRepo, productRepo, infra.RenderReportPDF, store, loc, nil)
	importSvc := service.NewImportService(productRepo, lookups, nil)
	timesheetSvc := service.NewTimesheetService(punchRepo, loc)

	var llm service.LLM
	var breaker *infra.CircuitBreaker
	if d.LLM != nil {
		llm = d.LLM
		breaker = d.LLM.Breaker()
	}
	assistantSvc := service.NewAssistantService(llm, notifier)

	// ── Handlers ─────────────────────────────────────────────────────────────
	relayH := handler.NewRelayHandler(notifier, reports, assistantSvc, d.Monitor, loc)
	shiftsH := handler.NewShiftsHandler(clockSvc, shiftSvc, loc)
	salesH := handler.NewSalesHandler(saleSvc)
	productsH := handler.NewProductsHandler(productRepo, importSvc, productCache)
	timesheetH := handler.NewTimesheetHandler(timesheetSvc, loc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(handler.HealthDeps{DB: d.DB, Redis: d.Redis, Relay: d.Monitor, Breaker: breaker}))

	// WhatsApp bot surface, same paths the frontends already call
	r.POST("/send-clock-notification", relayH.SendClockNotification)
	r.POST("/send-report", relayH.SendReport)
	r.GET("/status", relayH.Status)
	r.POST("/webhook", relayH.Webhook)

	v1 := r.Group("/v1")
	{
		workers := v1.Group("/workers/:id")
		{
			workers.GET("/shift", shiftsH.State)
			workers.POST("/clock-in", shiftsH.ClockIn)
			workers.POST("/clock-out", shiftsH.ClockOut)
			workers.GET("/shift/summary", shiftsH.Summary)
			workers.POST("/shift/finalize", shiftsH.Finalize)
			workers.GET("/shift-closures", shiftsH.Closures)
			workers.GET("/timesheet", timesheetH.Month)
			workers.GET("/timesheet.xlsx", timesheetH.XLSX)
		}

		v1.POST("/sales", salesH.Register)
		v1.GET("/sales", salesH.List)
		v1.DELETE("/sales/:id", salesH.Cancel)

		v1.GET("/products/barcode/:barcode", productsH.ByBarcode)
		v1.POST("/products/import", productsH.Import)

		counts := v1.Group("/inventory-counts")
		{
			counts.POST("", inventoryH.Record)
			counts.GET("", inventoryH.List)
			counts.GET("/latest", inventoryH.Latest)
			counts.GET("/report.pdf", inventoryH.Report)
			counts.PUT("/:id", inventoryH.Edit)
			counts.POST("/:id/close", inventoryH.Close)
		}
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
