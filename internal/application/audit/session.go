// Package audit concilia conteos físicos contra el kardex.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

const ledgerName = "audit"

// Action resolución de una partida.
type Action string

const (
	ActionAccept  Action = "ACCEPT"
	ActionRecount Action = "RECOUNT"
	ActionIgnore  Action = "IGNORE"
)

// ParseAction reconoce la acción sin distinguir mayúsculas.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToUpper(strings.TrimSpace(s))); a {
	case ActionAccept, ActionRecount, ActionIgnore:
		return a, nil
	}
	return "", domain.NewValidationError("action", fmt.Sprintf("acción desconocida %q", s))
}

// UseCase sesiones de auditoría física.
type UseCase struct {
	txRunner TxRunner
	stock    StockAdjuster
	guard    *security.Guard
	notifier ports.ChangeNotifier
	logger   zerolog.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(txRunner TxRunner, stock StockAdjuster, guard *security.Guard, logger zerolog.Logger) *UseCase {
	return &UseCase{
		txRunner: txRunner,
		stock:    stock,
		guard:    guard,
		notifier: ports.NopNotifier{},
		logger:   logger.With().Str("ledger", ledgerName).Logger(),
	}
}

// WithNotifier registra el receptor de avisos post-commit.
func (uc *UseCase) WithNotifier(n ports.ChangeNotifier) *UseCase {
	if n != nil {
		uc.notifier = n
	}
	return uc
}

func (uc *UseCase) require(ctx context.Context, actor *permission.Actor, op string) error {
	return uc.guard.Require(ctx, actor, op, permission.AuditManage, permission.InventoryAdjust)
}

// requireStockEdit lo que exige AdjustStock; aceptar una diferencia mueve el stock vivo.
func (uc *UseCase) requireStockEdit(ctx context.Context, actor *permission.Actor, op string) error {
	return uc.guard.Require(ctx, actor, op, permission.InventoryManage, permission.InventoryAdjust)
}

// CreateTemplate registra una lista de productos a contar.
func (uc *UseCase) CreateTemplate(ctx context.Context, actor *permission.Actor, name string, productIDs []string) (*entity.AuditTemplate, error) {
	const op = "create_template"
	if err := uc.require(ctx, actor, op); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "el nombre es requerido")
	}
	if len(productIDs) == 0 {
		return nil, domain.NewValidationError("productIds", "la plantilla necesita productos")
	}
	t := &entity.AuditTemplate{
		ID:         uuid.New().String(),
		Name:       name,
		ProductIDs: dedupe(productIDs),
		CreatedAt:  time.Now().UTC(),
	}
	err := uc.txRunner.RunAudit(ctx, func(templateRepo repository.AuditTemplateRepository, _ repository.AuditSessionRepository, _ repository.MovementRepository, productRepo repository.ProductRepository) error {
		for _, id := range t.ProductIDs {
			p, err := productRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
			}
		}
		return templateRepo.Create(ctx, t)
	})
	if err := uc.finish(ctx, actor, op, t.ID, map[string]any{"products": len(t.ProductIDs)}, err); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTemplates lista las plantillas.
func (uc *UseCase) ListTemplates(ctx context.Context, actor *permission.Actor) ([]*entity.AuditTemplate, error) {
	if err := uc.require(ctx, actor, "list_templates"); err != nil {
		return nil, err
	}
	var out []*entity.AuditTemplate
	err := uc.txRunner.RunAudit(ctx, func(templateRepo repository.AuditTemplateRepository, _ repository.AuditSessionRepository, _ repository.MovementRepository, _ repository.ProductRepository) error {
		var err error
		out, err = templateRepo.List(ctx)
		return err
	})
	return out, err
}

// DeleteTemplate elimina la plantilla; las sesiones ya iniciadas conservan su copia.
func (uc *UseCase) DeleteTemplate(ctx context.Context, actor *permission.Actor, templateID string) error {
	const op = "delete_template"
	if err := uc.require(ctx, actor, op); err != nil {
		return err
	}
	err := uc.txRunner.RunAudit(ctx, func(templateRepo repository.AuditTemplateRepository, _ repository.AuditSessionRepository, _ repository.MovementRepository, _ repository.ProductRepository) error {
		t, err := templateRepo.GetByID(ctx, templateID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		return templateRepo.Delete(ctx, templateID)
	})
	return uc.finish(ctx, actor, op, templateID, nil, err)
}

// StartSession congela stock y jerarquía de cada producto de la plantilla.
func (uc *UseCase) StartSession(ctx context.Context, actor *permission.Actor, templateID, name string) (*entity.AuditSession, error) {
	const op = "start_session"
	if err := uc.require(ctx, actor, op); err != nil {
		return nil, err
	}
	var out *entity.AuditSession
	err := uc.txRunner.RunAudit(ctx, func(templateRepo repository.AuditTemplateRepository, sessionRepo repository.AuditSessionRepository, _ repository.MovementRepository, productRepo repository.ProductRepository) error {
		t, err := templateRepo.GetByID(ctx, templateID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		s := &entity.AuditSession{
			ID:         uuid.New().String(),
			TemplateID: t.ID,
			Name:       strings.TrimSpace(name),
			Status:     entity.AuditInProgress,
			Items:      make([]entity.AuditItem, 0, len(t.ProductIDs)),
			StartedBy:  actor.ID,
			StartedAt:  time.Now().UTC(),
		}
		if s.Name == "" {
			s.Name = t.Name
		}
		for _, id := range t.ProductIDs {
			p, err := productRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if p == nil {
				// producto eliminado después de crear la plantilla
				continue
			}
			s.Items = append(s.Items, entity.AuditItem{
				ProductID:         p.ID,
				ProductName:       p.Name,
				SnapshotStock:     p.Stock,
				SnapshotHierarchy: p.Hierarchy,
				Status:            entity.AuditItemPending,
			})
		}
		if len(s.Items) == 0 {
			return domain.NewValidationError("template", "la plantilla ya no tiene productos")
		}
		if err := sessionRepo.Create(ctx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	subject := ""
	if out != nil {
		subject = out.ID
	}
	if err := uc.finish(ctx, actor, op, subject, map[string]any{"template_id": templateID}, err); err != nil {
		return nil, err
	}
	return out, nil
}

// CountInput conteo plano en unidades base o desglosado por nivel. Exactamente uno.
type CountInput struct {
	Flat      *decimal.Decimal
	Breakdown *entity.CountBreakdown
}

// RecordCount convierte el conteo a unidades base con la jerarquía del snapshot.
func (uc *UseCase) RecordCount(ctx context.Context, actor *permission.Actor, sessionID, productID string, in CountInput) (*entity.AuditItem, error) {
	const op = "record_count"
	if err := uc.require(ctx, actor, op); err != nil {
		return nil, err
	}
	if (in.Flat == nil) == (in.Breakdown == nil) {
		return nil, domain.NewValidationError("count", "indique conteo plano o desglosado")
	}
	var out *entity.AuditItem
	err := uc.mutateItem(ctx, sessionID, productID, func(_ repository.MovementRepository, _ repository.ProductRepository, s *entity.AuditSession, item *entity.AuditItem) error {
		if item.Status != entity.AuditItemPending {
			return fmt.Errorf("%w: %s ya está %s", domain.ErrNotPending, item.ProductName, item.Status)
		}
		var count decimal.Decimal
		if in.Flat != nil {
			count = *in.Flat
			item.Breakdown = nil
		} else {
			b := *in.Breakdown
			count = inventory.Compose(item.SnapshotHierarchy, b)
			item.Breakdown = &b
		}
		if count.IsNegative() {
			return domain.NewValidationError("count", "el conteo no puede ser negativo")
		}
		item.Count = &count
		copied := *item
		out = &copied
		return nil
	})
	if err := uc.finish(ctx, actor, op, sessionID+"/"+productID, nil, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve aplica la acción a la partida. ACCEPT ajusta el stock vivo en (conteo − snapshot)
// dentro de la misma transacción que marca la partida.
func (uc *UseCase) Resolve(ctx context.Context, actor *permission.Actor, sessionID, productID string, action Action) (*entity.AuditItem, error) {
	const op = "resolve"
	if err := uc.require(ctx, actor, op); err != nil {
		return nil, err
	}
	var out *entity.AuditItem
	err := uc.mutateItem(ctx, sessionID, productID, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, s *entity.AuditSession, item *entity.AuditItem) error {
		if item.Status != entity.AuditItemPending {
			return fmt.Errorf("%w: %s ya está %s", domain.ErrNotPending, item.ProductName, item.Status)
		}
		switch action {
		case ActionAccept:
			if err := uc.accept(ctx, movRepo, productRepo, actor, op, s, item); err != nil {
				return err
			}
		case ActionRecount:
			item.Count = nil
			item.Breakdown = nil
			item.Status = entity.AuditItemPending
		case ActionIgnore:
			now := time.Now().UTC()
			item.Status = entity.AuditItemIgnored
			item.Resolution = string(ActionIgnore)
			item.ResolvedAt = &now
		default:
			return domain.NewValidationError("action", fmt.Sprintf("acción desconocida %q", action))
		}
		copied := *item
		out = &copied
		return nil
	})
	if err := uc.finish(ctx, actor, op, sessionID+"/"+productID, map[string]any{"action": string(action)}, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *UseCase) accept(
	ctx context.Context,
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	actor *permission.Actor,
	op string,
	s *entity.AuditSession,
	item *entity.AuditItem,
) error {
	if item.Count == nil {
		return domain.NewValidationError("count", "la partida no tiene conteo")
	}
	if !item.Difference().IsZero() {
		if err := uc.requireStockEdit(ctx, actor, op); err != nil {
			return err
		}
	}
	reason := fmt.Sprintf("Ajuste por auditoría (%s)", s.Name)
	mov, err := uc.stock.AdjustInTx(ctx, movRepo, productRepo, actor.ID, item.ProductID, item.Difference(), reason, "audit:"+s.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	item.Status = entity.AuditItemResolved
	item.Resolution = string(ActionAccept)
	item.ResolvedAt = &now
	if mov != nil {
		item.MovementID = mov.ID
	}
	return nil
}

// CloseSession acepta las partidas pendientes que ya tienen conteo y cierra la sesión.
func (uc *UseCase) CloseSession(ctx context.Context, actor *permission.Actor, sessionID string) (*entity.AuditSession, error) {
	const op = "close_session"
	if err := uc.require(ctx, actor, op); err != nil {
		return nil, err
	}
	var out *entity.AuditSession
	err := uc.txRunner.RunAudit(ctx, func(_ repository.AuditTemplateRepository, sessionRepo repository.AuditSessionRepository, movRepo repository.MovementRepository, productRepo repository.ProductRepository) error {
		s, err := lockOpen(ctx, sessionRepo, sessionID)
		if err != nil {
			return err
		}
		for i := range s.Items {
			item := &s.Items[i]
			if item.Status != entity.AuditItemPending || item.Count == nil {
				continue
			}
			if err := uc.accept(ctx, movRepo, productRepo, actor, op, s, item); err != nil {
				return err
			}
		}
		now := time.Now().UTC()
		s.Status = entity.AuditClosed
		s.ClosedBy = actor.ID
		s.ClosedAt = &now
		if err := sessionRepo.Update(ctx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err := uc.finish(ctx, actor, op, sessionID, nil, err); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSession consulta una sesión.
func (uc *UseCase) GetSession(ctx context.Context, actor *permission.Actor, sessionID string) (*entity.AuditSession, error) {
	if err := uc.require(ctx, actor, "get_session"); err != nil {
		return nil, err
	}
	var s *entity.AuditSession
	err := uc.txRunner.RunAudit(ctx, func(_ repository.AuditTemplateRepository, sessionRepo repository.AuditSessionRepository, _ repository.MovementRepository, _ repository.ProductRepository) error {
		var err error
		s, err = sessionRepo.GetByID(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// ListSessions sesiones, más reciente primero.
func (uc *UseCase) ListSessions(ctx context.Context, actor *permission.Actor, limit, offset int) ([]*entity.AuditSession, error) {
	if err := uc.require(ctx, actor, "list_sessions"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*entity.AuditSession
	err := uc.txRunner.RunAudit(ctx, func(_ repository.AuditTemplateRepository, sessionRepo repository.AuditSessionRepository, _ repository.MovementRepository, _ repository.ProductRepository) error {
		var err error
		out, err = sessionRepo.List(ctx, limit, offset)
		return err
	})
	return out, err
}

// mutateItem bloquea la sesión abierta, aplica fn a la partida y guarda.
func (uc *UseCase) mutateItem(
	ctx context.Context,
	sessionID, productID string,
	fn func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, s *entity.AuditSession, item *entity.AuditItem) error,
) error {
	return uc.txRunner.RunAudit(ctx, func(_ repository.AuditTemplateRepository, sessionRepo repository.AuditSessionRepository, movRepo repository.MovementRepository, productRepo repository.ProductRepository) error {
		s, err := lockOpen(ctx, sessionRepo, sessionID)
		if err != nil {
			return err
		}
		idx := s.Item(productID)
		if idx < 0 {
			return fmt.Errorf("%w: el producto no está en la sesión", domain.ErrNotFound)
		}
		if err := fn(movRepo, productRepo, s, &s.Items[idx]); err != nil {
			return err
		}
		return sessionRepo.Update(ctx, s)
	})
}

func lockOpen(ctx context.Context, sessionRepo repository.AuditSessionRepository, sessionID string) (*entity.AuditSession, error) {
	s, err := sessionRepo.GetForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	if s.Status != entity.AuditInProgress {
		return nil, fmt.Errorf("%w: la sesión de auditoría está cerrada", domain.ErrConflict)
	}
	return s, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (uc *UseCase) finish(ctx context.Context, actor *permission.Actor, op, subject string, detail map[string]any, err error) error {
	uc.guard.Metrics().ObserveOp(ledgerName, op, err)
	if err != nil {
		uc.logger.Debug().Err(err).Str("op", op).Msg("operación rechazada")
		return err
	}
	uc.logger.Debug().Str("op", op).Str("subject", subject).Msg("operación confirmada")
	uc.guard.Mutation(ctx, actor, op, subject, detail)
	uc.notifier.Notify(ports.Change{Ledger: ledgerName, Op: op, Subject: subject, At: time.Now().UTC()})
	return nil
}
