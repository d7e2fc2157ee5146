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
	_ repository.ProductRepository  = (*ProductRepo)(nil)
	_ repository.CategoryRepository = (*CategoryRepo)(nil)
	_ repository.MovementRepository = (*MovementRepo)(nil)
)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, name, category, price, cost, stock, hierarchy, min_stock, expires_at, created_at, updated_at`

func scanProduct(row rowScanner) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Cost, &p.Stock, &p.Hierarchy,
		&p.MinStock, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.Name, p.Category, p.Price, p.Cost, p.Stock, p.Hierarchy,
		p.MinStock, p.ExpiresAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := one(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id), scanProduct)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetForUpdate obtiene el producto y bloquea la fila (SELECT FOR UPDATE).
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	p, err := one(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id), scanProduct)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}
	return p, nil
}

// Update reescribe el producto completo.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET name = $2, category = $3, price = $4, cost = $5, stock = $6, hierarchy = $7,
			min_stock = $8, expires_at = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		p.ID, p.Name, p.Category, p.Price, p.Cost, p.Stock, p.Hierarchy, p.MinStock, p.ExpiresAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el producto. Sus movimientos quedan en el kardex.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List productos por nombre con paginación.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return collect(rows, scanProduct)
}

// ReassignCategory mueve los productos de from a to.
func (r *ProductRepo) ReassignCategory(ctx context.Context, from, to string) (int64, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE products SET category = $2, updated_at = $3 WHERE lower(category) = lower($1)`,
		from, to, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("reassign category: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CategoryRepo categorías planas identificadas por nombre (sin distinguir mayúsculas).
type CategoryRepo struct {
	q Querier
}

// NewCategoryRepository construye el adaptador. Pasar pool o tx.
func NewCategoryRepository(q Querier) *CategoryRepo {
	return &CategoryRepo{q: q}
}

func scanCategory(row rowScanner) (*entity.Category, error) {
	var c entity.Category
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persiste la categoría; el nombre es único.
func (r *CategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.q.Exec(ctx, `INSERT INTO categories (id, name, created_at) VALUES ($1, $2, $3)`, c.ID, c.Name, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetByName busca la categoría sin distinguir mayúsculas.
func (r *CategoryRepo) GetByName(ctx context.Context, name string) (*entity.Category, error) {
	c, err := one(r.q.QueryRow(ctx, `SELECT id, name, created_at FROM categories WHERE lower(name) = lower($1)`, name), scanCategory)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// List categorías por nombre.
func (r *CategoryRepo) List(ctx context.Context) ([]*entity.Category, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return collect(rows, scanCategory)
}

// Delete elimina la categoría.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MovementRepo kardex de solo-agregado. El ID sale de una secuencia.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador del kardex. Pasar pool o tx.
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, product_id, product_name, kind, quantity, resulting_stock, reason, actor_id, meta, created_at`

func scanMovement(row rowScanner) (*entity.Movement, error) {
	var m entity.Movement
	if err := row.Scan(&m.ID, &m.ProductID, &m.ProductName, &m.Kind, &m.Quantity, &m.ResultingStock,
		&m.Reason, &m.ActorID, &m.Meta, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// Append inserta el movimiento y devuelve ID y fecha asignados.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO movements (product_id, product_name, kind, quantity, resulting_stock, reason, actor_id, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		m.ProductID, m.ProductName, string(m.Kind), m.Quantity, m.ResultingStock, m.Reason, m.ActorID, m.Meta, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento.
func (r *MovementRepo) GetByID(ctx context.Context, id int64) (*entity.Movement, error) {
	m, err := one(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1`, id), scanMovement)
	if err != nil {
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByProduct movimientos del producto en orden de ID.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, `SELECT `+movementColumns+` FROM movements WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return collect(rows, scanMovement)
}

// ListByKindSince movimientos de un tipo desde since, en orden de ID.
func (r *MovementRepo) ListByKindSince(ctx context.Context, kind entity.MovementKind, since time.Time) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+movementColumns+` FROM movements WHERE kind = $1 AND created_at >= $2 ORDER BY id`,
		string(kind), since)
	if err != nil {
		return nil, fmt.Errorf("list movements by kind: %w", err)
	}
	return collect(rows, scanMovement)
}

// RenameProduct único reescrito permitido del kardex: el nombre mostrado.
func (r *MovementRepo) RenameProduct(ctx context.Context, productID, oldName, newName string) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE movements SET product_name = $3
		WHERE product_id = $1 OR (product_id = '' AND product_name = $2)`,
		productID, oldName, newName)
	if err != nil {
		return 0, fmt.Errorf("rename product in movements: %w", err)
	}
	return tag.RowsAffected(), nil
}
