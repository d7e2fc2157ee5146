// import_catalog carga un catálogo de productos desde CSV al kardex, con su stock
// inicial como movimiento de apertura.
//
// Uso: go run ./cmd/import_catalog [-encoding latin1] [-dry-run] catalogo.csv
// Cabecera: nombre;categoria;precio;costo;stock;minimo;paquete;bulto
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-ledger/pkg/config"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

func main() {
	encoding := flag.String("encoding", "utf-8", "codificación del archivo: utf-8, latin1, windows-1252")
	dryRun := flag.Bool("dry-run", false, "solo validar el archivo")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: import_catalog [-encoding latin1] [-dry-run] catalogo.csv")
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	items, err := ParseCatalog(f, *encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		fmt.Printf("%d productos válidos, %d categorías\n", len(items), len(categories(items)))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "import_catalog"}).Zerolog()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a base de datos")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("aplicar esquema")
	}

	tier, err := permission.ParseTier(cfg.Ledger.Tier)
	if err != nil {
		log.Fatal().Err(err).Msg("plan de suscripción")
	}
	recorder := security.NewRecorder(postgres.NewSecurityEventRepository(pool), log)
	guard := security.NewGuard(permission.NewGate(tier), recorder, nil, log)
	ledger := inventory.NewStockLedger(postgres.NewTxRunner(pool), guard, inventory.Options{}, log)

	actor := &permission.Actor{ID: "import_catalog", Name: "importador", Role: permission.RoleOwner, Master: true}

	for _, name := range categories(items) {
		_, err := ledger.CreateCategory(ctx, actor, name)
		switch {
		case err == nil, errors.Is(err, domain.ErrDuplicate):
		case errors.Is(err, domain.ErrForbidden):
			// Plan sin categorías: el producto conserva el nombre igual.
			log.Warn().Str("category", name).Msg("categoría no creada: el plan no incluye categorías")
		default:
			log.Fatal().Err(err).Str("category", name).Msg("crear categoría")
		}
	}

	created := 0
	for _, in := range items {
		p, err := ledger.CreateProduct(ctx, actor, in)
		if err != nil {
			log.Error().Err(err).Str("name", in.Name).Msg("producto omitido")
			continue
		}
		created++
		log.Debug().Str("id", p.ID).Str("name", p.Name).Str("stock", p.Stock.String()).Msg("producto creado")
	}
	log.Info().Int("created", created).Int("total", len(items)).Msg("catálogo importado")
}
