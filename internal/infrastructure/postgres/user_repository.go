package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var (
	_ repository.UserRepository          = (*UserRepo)(nil)
	_ repository.SecurityEventRepository = (*SecurityEventRepo)(nil)
)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `id, name, email, pin_hash, role, master, extra_capabilities, status, created_at, updated_at`

func scanUser(row rowScanner) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PinHash, &u.Role, &u.Master, &u.ExtraCapabilities,
		&u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		u.ID, u.Name, u.Email, u.PinHash, u.Role, u.Master, u.ExtraCapabilities, u.Status, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := one(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), scanUser)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetByEmail obtiene un usuario por email sin distinguir mayúsculas.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := one(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) LIMIT 1`, email), scanUser)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// Update actualiza un usuario.
func (r *UserRepo) Update(ctx context.Context, u *entity.User) error {
	query := `
		UPDATE users SET name = $2, email = $3, pin_hash = $4, role = $5, master = $6,
			extra_capabilities = $7, status = $8, updated_at = $9
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		u.ID, u.Name, u.Email, u.PinHash, u.Role, u.Master, u.ExtraCapabilities, u.Status, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// List usuarios por email.
func (r *UserRepo) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return collect(rows, scanUser)
}

// SecurityEventRepo log de seguridad (solo INSERT).
type SecurityEventRepo struct {
	q Querier
}

// NewSecurityEventRepository construye el adaptador.
func NewSecurityEventRepository(q Querier) *SecurityEventRepo {
	return &SecurityEventRepo{q: q}
}

// Append agrega el evento.
func (r *SecurityEventRepo) Append(ctx context.Context, e *entity.SecurityEvent) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	detail := e.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO security_events (kind, actor_id, subject, detail, severity, ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		e.Kind, e.ActorID, e.Subject, detail, e.Severity, e.Timestamp,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}

// List del más reciente al más antiguo.
func (r *SecurityEventRepo) List(ctx context.Context, limit int) ([]*entity.SecurityEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, kind, actor_id, subject, detail, severity, ts
		FROM security_events ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list security events: %w", err)
	}
	return collect(rows, func(row rowScanner) (*entity.SecurityEvent, error) {
		var e entity.SecurityEvent
		if err := row.Scan(&e.ID, &e.Kind, &e.ActorID, &e.Subject, &e.Detail, &e.Severity, &e.Timestamp); err != nil {
			return nil, err
		}
		return &e, nil
	})
}
