package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/pos-ledger/internal/application/access"
	"github.com/jhoicas/pos-ledger/internal/application/audit"
	"github.com/jhoicas/pos-ledger/internal/application/auth"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/orchestrator"
	"github.com/jhoicas/pos-ledger/internal/application/payroll"
	"github.com/jhoicas/pos-ledger/internal/application/rates"
	"github.com/jhoicas/pos-ledger/internal/application/sales"
	"github.com/jhoicas/pos-ledger/internal/application/treasury"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	Access       *access.Service
	Inventory    *inventory.StockLedger
	Treasury     *treasury.Ledger
	Rates        *rates.Service
	Sales        *sales.UseCase
	Payroll      *payroll.Ledger
	Orchestrator *orchestrator.Orchestrator
	Audit        *audit.UseCase
	Gate         *permission.Gate
	JWTSecret    string

	// Opcionales: sin Metrics no se mide ni se expone MetricsPath.
	Metrics        httpObserver
	MetricsHandler nethttp.Handler
	MetricsPath    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Use(MetricsMiddleware(deps.Metrics))
	}
	if deps.MetricsHandler != nil && deps.MetricsPath != "" {
		app.Get(deps.MetricsPath, adaptor.HTTPHandler(deps.MetricsHandler))
	}

	api := app.Group("/api")

	// Auth (público; el registro exige token salvo para el primer usuario)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", OptionalAuth(deps.JWTSecret), authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Usuarios y permisos
	accessHandler := NewAccessHandler(deps.Access)
	users := protected.Group("/users")
	users.Get("/", authHandler.ListUsers)
	users.Put("/:id/role", accessHandler.SetRole)
	users.Get("/:id/capabilities", accessHandler.Effective)
	users.Post("/:id/capabilities", accessHandler.Grant)
	users.Delete("/:id/capabilities/:capability", accessHandler.Revoke)
	protected.Get("/security/events", accessHandler.SecurityEvents)

	// Productos y categorías
	productHandler := NewProductHandler(deps.Inventory)
	products := protected.Group("/products")
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)
	categories := protected.Group("/categories")
	categories.Get("/", productHandler.ListCategories)
	categories.Post("/", productHandler.CreateCategory)
	categories.Delete("/:name", productHandler.DeleteCategory)

	// Kardex
	inventoryHandler := NewInventoryHandler(deps.Inventory)
	invGroup := protected.Group("/inventory")
	invGroup.Get("/low-stock", inventoryHandler.LowStock)
	invGroup.Get("/products/:id/kardex", inventoryHandler.Kardex)
	invGroup.Get("/products/:id/verify", inventoryHandler.Verify)
	invGroup.Post("/products/:id/adjust", inventoryHandler.Adjust)
	invGroup.Post("/consumptions", inventoryHandler.Consume)
	invGroup.Post("/consumptions/:id/restore", inventoryHandler.Restore)

	// Caja
	treasuryHandler := NewTreasuryHandler(deps.Treasury, deps.Rates)
	tr := protected.Group("/treasury")
	tr.Post("/sessions", treasuryHandler.Open)
	tr.Get("/sessions/current", treasuryHandler.Current)
	tr.Get("/sessions/current/verify", treasuryHandler.Verify)
	tr.Post("/sessions/current/close", treasuryHandler.Close)
	tr.Get("/expenses", treasuryHandler.Expenses)
	tr.Post("/expenses", treasuryHandler.Expense)
	tr.Post("/expenses/:id/revert", treasuryHandler.RevertExpense)
	tr.Get("/cuts", treasuryHandler.Cuts)
	tr.Get("/cuts/:id", treasuryHandler.Cut)
	tr.Get("/cuts/:id/pdf", treasuryHandler.CutPDF)

	// Tasa
	protected.Get("/rates/current", treasuryHandler.Rate)
	protected.Put("/rates", treasuryHandler.SetRate)

	// Ventas
	saleHandler := NewSaleHandler(deps.Sales)
	salesGroup := protected.Group("/sales")
	salesGroup.Post("/", saleHandler.Checkout)
	salesGroup.Get("/", saleHandler.ListCurrent)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Post("/:id/void", saleHandler.Void)

	// Nómina (solo planes con la función nómina)
	payrollHandler := NewPayrollHandler(deps.Payroll)
	pay := protected.Group("/payroll", RequireFeature(permission.FeaturePayroll, deps.Gate))
	pay.Get("/accounts", payrollHandler.Accounts)
	pay.Put("/accounts", payrollHandler.UpsertAccount)
	pay.Get("/accounts/:id", payrollHandler.Account)
	pay.Get("/accounts/:id/history", payrollHandler.History)
	pay.Get("/accounts/:id/capacity", payrollHandler.Capacity)
	pay.Get("/accounts/:id/verify", payrollHandler.Verify)
	pay.Post("/accounts/:id/close", payrollHandler.Close)
	pay.Post("/entries/:id/reverse", payrollHandler.Reverse)
	pay.Get("/preview", payrollHandler.Preview)
	pay.Get("/periods", payrollHandler.Periods)
	pay.Post("/periods", payrollHandler.GlobalClose)

	// Operaciones cruzadas
	opsHandler := NewOperationsHandler(deps.Orchestrator)
	ops := protected.Group("/operations")
	ops.Post("/advances", opsHandler.Advance)
	ops.Post("/consumptions", opsHandler.Consumption)
	ops.Post("/entries/:id/revert", opsHandler.Revert)
	ops.Post("/payroll-payments", opsHandler.PayrollPayment)
	ops.Post("/supply-purchases", opsHandler.SupplyPurchase)

	// Auditoría física (plan con kardex)
	auditHandler := NewAuditHandler(deps.Audit)
	aud := protected.Group("/audit", RequireFeature(permission.FeatureKardex, deps.Gate))
	aud.Get("/templates", auditHandler.ListTemplates)
	aud.Post("/templates", auditHandler.CreateTemplate)
	aud.Delete("/templates/:id", auditHandler.DeleteTemplate)
	aud.Get("/sessions", auditHandler.List)
	aud.Post("/sessions", auditHandler.Start)
	aud.Get("/sessions/:id", auditHandler.Get)
	aud.Put("/sessions/:id/items/:productID/count", auditHandler.Count)
	aud.Post("/sessions/:id/items/:productID/resolve", auditHandler.Resolve)
	aud.Post("/sessions/:id/close", auditHandler.Close)
}
