// Package pg implementa core.Store sobre PostgreSQL con pgxpool.
package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/multiblog/internal/observability/logger"
	core "github.com/dropDatabas3/multiblog/internal/store/core"
)

type Store struct{ pool *pgxpool.Pool }

// Tuning opcional del pool, mapeado desde la config.
type Tuning struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

func New(ctx context.Context, dsn string, t Tuning) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if t.MaxOpenConns > 0 {
		pcfg.MaxConns = int32(t.MaxOpenConns)
	}
	// MaxIdleConns → MinConns (pgxpool)
	if t.MaxIdleConns > 0 {
		pcfg.MinConns = int32(t.MaxIdleConns)
	}
	if t.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(t.ConnMaxLifetime); err == nil {
			pcfg.MaxConnLifetime = d
			pcfg.MaxConnIdleTime = d
		}
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 8
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	// Arranque no bloqueante: si la DB está caída el servicio levanta igual
	// y /readyz lo refleja.
	if err := pool.Ping(ctx); err != nil {
		logger.L().Named("pg").Warn("startup ping failed", logger.Err(err))
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Pool expone el pool interno (migraciones, métricas).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ─── Blogs ───

func (s *Store) GetBlog(ctx context.Context, id int64) (*core.Blog, error) {
	const q = `
		SELECT id, name, domain, path, title, public, archived, deleted, created_at
		FROM blogs WHERE id = $1`
	var b core.Blog
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&b.ID, &b.Name, &b.Domain, &b.Path, &b.Title, &b.Public, &b.Archived, &b.Deleted, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *Store) GetBlogIDByName(ctx context.Context, name string) (int64, error) {
	const q = `SELECT id FROM blogs WHERE name = $1`
	var id int64
	if err := s.pool.QueryRow(ctx, q, name).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, core.ErrNotFound
		}
		return 0, err
	}
	return id, nil
}

func (s *Store) SearchBlogs(ctx context.Context, prefix string) ([]int64, error) {
	const q = `SELECT id FROM blogs WHERE path LIKE $1 || '%' ORDER BY path`
	rows, err := s.pool.Query(ctx, q, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) CreateBlog(ctx context.Context, b *core.Blog) error {
	const q = `
		INSERT INTO blogs (name, domain, path, title, public, archived, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := s.pool.QueryRow(ctx, q,
		b.Name, b.Domain, b.Path, b.Title, b.Public, b.Archived, b.Deleted,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) BlogsOfUser(ctx context.Context, userID string) ([]int64, error) {
	const q = `
		SELECT DISTINCT m.blog_id
		FROM memberships m
		JOIN blogs b ON b.id = m.blog_id
		WHERE m.user_id = $1
		ORDER BY m.blog_id`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ─── Opciones de sitio ───

func (s *Store) GetSiteOption(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM site_options WHERE key = $1`
	var v string
	if err := s.pool.QueryRow(ctx, q, key).Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", core.ErrNotFound
		}
		return "", err
	}
	return v, nil
}

func (s *Store) SetSiteOption(ctx context.Context, key, value string) error {
	const q = `
		INSERT INTO site_options (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	_, err := s.pool.Exec(ctx, q, key, value)
	return err
}

// ─── Usuarios ───

func (s *Store) GetUserByLogin(ctx context.Context, login string) (*core.User, error) {
	const q = `SELECT id, login, email, display_name, created_at FROM users WHERE login = $1`
	var u core.User
	err := s.pool.QueryRow(ctx, q, login).Scan(&u.ID, &u.Login, &u.Email, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) UpsertUserByLogin(ctx context.Context, u *core.User) (*core.User, error) {
	// El DO UPDATE vacuo hace que RETURNING devuelva la fila existente sin
	// pisar sus atributos: el provisioning es idempotente.
	const q = `
		INSERT INTO users (login, email, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (login) DO UPDATE SET login = EXCLUDED.login
		RETURNING id, login, email, display_name, created_at`
	var out core.User
	err := s.pool.QueryRow(ctx, q, u.Login, u.Email, u.DisplayName).Scan(
		&out.ID, &out.Login, &out.Email, &out.DisplayName, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ─── Cuentas de servicio ───

func (s *Store) GetServiceAccount(ctx context.Context, login string) (*core.ServiceAccount, error) {
	const q = `SELECT login, secret_hash, disabled, created_at FROM service_accounts WHERE login = $1`
	var sa core.ServiceAccount
	err := s.pool.QueryRow(ctx, q, login).Scan(&sa.Login, &sa.SecretHash, &sa.Disabled, &sa.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &sa, nil
}

func (s *Store) NetworkCapabilities(ctx context.Context, login string) ([]string, error) {
	const q = `SELECT capability FROM service_account_caps WHERE login = $1 ORDER BY capability`
	rows, err := s.pool.Query(ctx, q, login)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ─── Membresías ───

func (s *Store) AddMembership(ctx context.Context, blogID int64, userID, role string) error {
	const q = `INSERT INTO memberships (blog_id, user_id, role) VALUES ($1, $2, $3)`
	if _, err := s.pool.Exec(ctx, q, blogID, userID, role); err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) RemoveMembership(ctx context.Context, blogID int64, userID string) error {
	const q = `DELETE FROM memberships WHERE blog_id = $1 AND user_id = $2`
	_, err := s.pool.Exec(ctx, q, blogID, userID)
	return err
}

func (s *Store) MembershipRoles(ctx context.Context, blogID int64, userID string) ([]string, error) {
	const q = `SELECT role FROM memberships WHERE blog_id = $1 AND user_id = $2 ORDER BY role`
	rows, err := s.pool.Query(ctx, q, blogID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) IsMember(ctx context.Context, blogID int64, userID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM memberships WHERE blog_id = $1 AND user_id = $2)`
	var ok bool
	if err := s.pool.QueryRow(ctx, q, blogID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// ─── Grupos sincronizados ───

func (s *Store) UpsertSyncedGroup(ctx context.Context, g *core.SyncedGroup) error {
	const q = `
		INSERT INTO synced_groups (blog_id, group_dn, role, last_synced_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (blog_id, group_dn)
		DO UPDATE SET role = EXCLUDED.role, last_synced_at = EXCLUDED.last_synced_at`
	_, err := s.pool.Exec(ctx, q, g.BlogID, g.GroupDN, g.Role, g.LastSyncedAt)
	return err
}

func (s *Store) ListSyncedGroups(ctx context.Context, blogID int64) ([]core.SyncedGroup, error) {
	const q = `
		SELECT blog_id, group_dn, role, created_at, last_synced_at
		FROM synced_groups WHERE blog_id = $1 ORDER BY group_dn`
	rows, err := s.pool.Query(ctx, q, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSyncedGroups(rows)
}

func (s *Store) DeleteSyncedGroup(ctx context.Context, blogID int64, groupDN string) error {
	const q = `DELETE FROM synced_groups WHERE blog_id = $1 AND group_dn = $2`
	_, err := s.pool.Exec(ctx, q, blogID, groupDN)
	return err
}

func (s *Store) AllSyncedGroups(ctx context.Context) ([]core.SyncedGroup, error) {
	const q = `
		SELECT blog_id, group_dn, role, created_at, last_synced_at
		FROM synced_groups ORDER BY blog_id, group_dn`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSyncedGroups(rows)
}

func scanSyncedGroups(rows pgx.Rows) ([]core.SyncedGroup, error) {
	var out []core.SyncedGroup
	for rows.Next() {
		var g core.SyncedGroup
		if err := rows.Scan(&g.BlogID, &g.GroupDN, &g.Role, &g.CreatedAt, &g.LastSyncedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
