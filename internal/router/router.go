package router

import (
	"time"

	"medispa/internal/config"
	"medispa/internal/handler"
	"medispa/internal/infra"
	"medispa/internal/middleware"
	"medispa/internal/model"
	"medispa/internal/repository"
	"medispa/internal/service"
	"medispa/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	storage := infra.NewStorage(cfg.StoragePath)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	priceHistoryRepo := repository.NewPriceHistoryRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, patientRepo, staffRepo, cfg)
	inventorySvc := service.NewInventoryService(productRepo, movementRepo)
	loyaltySvc := service.NewLoyaltyService(patientRepo)
	productSvc := service.NewProductService(productRepo, movementRepo, priceHistoryRepo)
	patientSvc := service.NewPatientService(patientRepo, documentRepo, appointmentRepo, staffRepo, storage)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, patientRepo, staffRepo)
	dashboardSvc := service.NewDashboardService(saleRepo, patientRepo, appointmentRepo, productRepo)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	saleSvc := service.NewSaleService(saleRepo, inventorySvc, loyaltySvc, productRepo, patientRepo, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	patientsH := handler.NewPatientsHandler(patientSvc, loyaltySvc)
	productsH := handler.NewProductsHandler(productSvc, inventorySvc)
	salesH := handler.NewSalesHandler(saleSvc)
	appointmentsH := handler.NewAppointmentsHandler(appointmentSvc)
	dashboardH := handler.NewDashboardHandler(dashboardSvc, patientSvc, staffRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/register-patient", middleware.LoginRateLimiter(), authH.RegisterPatient)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	clinic := []string{model.RoleAdmin, model.RoleDoctor, model.RoleStaff}
	v1 := r.Group("/v1", jwtMW)
	{
		v1.GET("/auth/me", authH.Me)
		v1.POST("/auth/register-staff", middleware.RequireRole(model.RoleAdmin), authH.RegisterStaff)

		// Patients — clinic roles; doctors are scoped inside the handler
		patients := v1.Group("/patients", middleware.RequireRole(clinic...))
		{
			patients.POST("", patientsH.Create)
			patients.GET("", patientsH.List)
			patients.GET("/:id", patientsH.Get)
			patients.PUT("/:id", patientsH.Update)
			patients.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), patientsH.Delete)
			patients.GET("/:id/qr-code", patientsH.QRCode)
			patients.POST("/:id/loyalty/add", patientsH.AddLoyalty)
			patients.POST("/:id/loyalty/redeem", patientsH.RedeemLoyalty)
			patients.POST("/:id/photos", patientsH.UploadPhoto)
			patients.POST("/:id/documents", patientsH.UploadDocument)
			patients.POST("/:id/documents/:document_id/sign", patientsH.SignDocument)
			patients.GET("/:id/documents/:document_id/download", patientsH.DownloadDocument)
		}

		// Products — every clinic role reads, admin writes
		v1.GET("/products", middleware.RequireRole(clinic...), productsH.List)
		v1.GET("/products/:id", middleware.RequireRole(clinic...), productsH.Get)
		v1.GET("/products/:id/movements", middleware.RequireRole(clinic...), productsH.Movements)
		v1.GET("/products/:id/price-history", middleware.RequireRole(clinic...), productsH.PriceHistory)
		v1.POST("/products/:id/adjust-stock", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), productsH.AdjustStock)
		products := v1.Group("/products", middleware.RequireRole(model.RoleAdmin))
		{
			products.POST("", productsH.Create)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", productsH.Deactivate)
			products.POST("/:id/reactivate", productsH.Reactivate)
		}

		// Sales
		v1.POST("/sales", middleware.RequireRole(clinic...), salesH.Create)
		v1.GET("/sales", middleware.RequireRole(clinic...), salesH.List)
		v1.GET("/sales/:id", middleware.RequireRole(clinic...), salesH.Get)
		v1.PATCH("/sales/:id/status", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), salesH.UpdateStatus)
		v1.DELETE("/sales/:id", middleware.RequireRole(model.RoleAdmin), salesH.Cancel)
		// Separate path: /v1/sales/statistics would collide with /v1/sales/:id
		v1.GET("/sales-statistics", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), salesH.Statistics)

		// Appointments
		appts := v1.Group("/appointments", middleware.RequireRole(clinic...))
		{
			appts.POST("", appointmentsH.Create)
			appts.GET("", appointmentsH.List)
			appts.GET("/:id", appointmentsH.Get)
			appts.PUT("/:id", appointmentsH.Update)
			appts.PATCH("/:id/status", appointmentsH.UpdateStatus)
			appts.DELETE("/:id", appointmentsH.Delete)
		}

		// Dashboard
		v1.GET("/dashboard/stats", middleware.RequireRole(clinic...), dashboardH.Stats)
		v1.GET("/staff-members", middleware.RequireRole(clinic...), dashboardH.StaffMembers)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
