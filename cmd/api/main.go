package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/application/access"
	"github.com/jhoicas/pos-ledger/internal/application/audit"
	"github.com/jhoicas/pos-ledger/internal/application/auth"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/mirror"
	"github.com/jhoicas/pos-ledger/internal/application/orchestrator"
	"github.com/jhoicas/pos-ledger/internal/application/payroll"
	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/application/rates"
	"github.com/jhoicas/pos-ledger/internal/application/sales"
	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/application/treasury"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/metrics"
	inframirror "github.com/jhoicas/pos-ledger/internal/infrastructure/mirror"
	infrapdf "github.com/jhoicas/pos-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/postgres"
	infrarates "github.com/jhoicas/pos-ledger/internal/infrastructure/rates"
	httpRouter "github.com/jhoicas/pos-ledger/internal/interfaces/http"
	"github.com/jhoicas/pos-ledger/pkg/config"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

// ledgerStore transacciones de todos los libros sobre el mismo almacenamiento.
type ledgerStore interface {
	inventory.TxRunner
	treasury.TxRunner
	payroll.TxRunner
	sales.TxRunner
	audit.TxRunner
}

type backend struct {
	store  ledgerStore
	users  repository.UserRepository
	events repository.SecurityEventRepository
	close  func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Str("tier", cfg.Ledger.Tier).
		Msg("iniciando aplicación")
	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento de libros")
	}
	defer be.close()

	prom := metrics.New("pos_ledger")
	zl := log.Zerolog()

	// Compuerta de permisos y guardia con log de seguridad
	tier, err := permission.ParseTier(cfg.Ledger.Tier)
	if err != nil {
		log.Fatal().Err(err).Msg("plan de suscripción")
	}
	gate := permission.NewGate(tier)
	if cfg.Ledger.DebugTierBypass {
		if cfg.App.Env != "development" {
			log.Fatal().Msg("LEDGER_DEBUG_TIER_BYPASS solo se permite en development")
		}
		log.Warn().Msg("bypass de plan activo: todas las funciones habilitadas")
		gate = gate.WithTierBypass(true)
	}
	recorder := security.NewRecorder(be.events, zl)
	guard := security.NewGuard(gate, recorder, prom, zl)

	// Tasa VES/USD: cadena de proveedores con breaker y respaldo manual
	rateSvc := rates.NewService(buildRateChain(cfg.Rates, prom, zl), guard, zl).WithGauge(prom)
	go rateSvc.Run(ctx, cfg.Rates.RefreshInterval)

	// Réplica remota (opcional)
	var notifier ports.ChangeNotifier
	var publisher *inframirror.KafkaPublisher
	if cfg.Mirror.Enabled {
		publisher = inframirror.NewKafkaPublisher(cfg.Mirror.Brokers, cfg.Mirror.Topic, cfg.App.Name)
		n := mirror.NewNotifier(publisher, mirror.Config{
			Buffer:    cfg.Mirror.Buffer,
			RateLimit: cfg.Mirror.RateLimit,
			Burst:     cfg.Mirror.Burst,
		}, prom, zl)
		go n.Run(ctx)
		notifier = n
		log.Info().Strs("brokers", cfg.Mirror.Brokers).Str("topic", cfg.Mirror.Topic).Msg("réplica kafka habilitada")
	}

	// Libros
	stockLedger := inventory.NewStockLedger(be.store, guard, inventory.Options{
		AllowNegativeStock: cfg.Ledger.AllowNegativeStock,
	}, log.Component("inventory")).WithNotifier(notifier)
	cashLedger := treasury.NewLedger(be.store, guard, treasury.Options{
		AllowNegativeCash: cfg.Ledger.AllowNegativeCash,
	}, log.Component("treasury")).WithNotifier(notifier).WithRenderer(infrapdf.NewMarotoCutRenderer(cfg.App.StoreName))
	payrollLedger := payroll.NewLedger(be.store, guard, log.Component("payroll")).WithNotifier(notifier)
	salesUC := sales.NewUseCase(be.store, stockLedger, cashLedger, guard, rateSvc, log.Component("sales")).WithNotifier(notifier)
	auditUC := audit.NewUseCase(be.store, stockLedger, guard, log.Component("audit")).WithNotifier(notifier)
	orch := orchestrator.New(stockLedger, cashLedger, payrollLedger, guard, rateSvc, zl)

	authUC := auth.NewAuthUseCase(be.users, guard, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, zl)
	accessSvc := access.NewService(be.users, be.events, guard, zl)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "tier": tier.Name})
	})

	deps := httpRouter.RouterDeps{
		AuthUC:       authUC,
		Access:       accessSvc,
		Inventory:    stockLedger,
		Treasury:     cashLedger,
		Rates:        rateSvc,
		Sales:        salesUC,
		Payroll:      payrollLedger,
		Orchestrator: orch,
		Audit:        auditUC,
		Gate:         gate,
		JWTSecret:    cfg.JWT.Secret,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = prom
		deps.MetricsHandler = prom.Handler()
		deps.MetricsPath = cfg.Metrics.Path
	}
	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	stop()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("cierre del publicador kafka")
		}
	}

	log.Info().Msg("aplicación detenida")
}

// openBackend abre PostgreSQL (aplicando el esquema) o el almacén en memoria.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.Store.Driver == "memory" {
		return &backend{
			store:  memory.NewStore(),
			users:  memory.NewUserRepository(),
			events: memory.NewSecurityEventRepository(),
			close:  func() {},
		}, nil
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &backend{
		store:  postgres.NewTxRunner(pool),
		users:  postgres.NewUserRepository(pool),
		events: postgres.NewSecurityEventRepository(pool),
		close:  pool.Close,
	}, nil
}

// buildRateChain arma la cadena de proveedores. Sin proveedores ni tasa manual
// devuelve nil y la tasa solo se carga a mano.
func buildRateChain(cfg config.RatesConfig, obs infrarates.Observer, logger zerolog.Logger) ports.RateSource {
	client := &http.Client{Timeout: cfg.Timeout}
	var providers []infrarates.Provider
	for _, spec := range cfg.Providers {
		p, err := infrarates.ParseSpec(spec, client)
		if err != nil {
			logger.Warn().Err(err).Str("spec", spec).Msg("proveedor de tasa ignorado")
			continue
		}
		providers = append(providers, p)
	}
	if cfg.ManualRate != "" {
		v, err := decimal.NewFromString(cfg.ManualRate)
		if err != nil || !v.IsPositive() {
			logger.Warn().Str("value", cfg.ManualRate).Msg("RATES_MANUAL_RATE inválida, ignorada")
		} else {
			providers = append(providers, infrarates.StaticProvider{Value: v})
		}
	}
	if len(providers) == 0 {
		return nil
	}
	chain, err := infrarates.NewChain(infrarates.ChainConfig{
		Providers:   providers,
		MaxFailures: cfg.MaxFailures,
		OpenTimeout: cfg.OpenTimeout,
		Rounding:    infrarates.Rounding(cfg.Rounding),
	}, obs, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("cadena de tasa deshabilitada")
		return nil
	}
	return chain
}
