package repos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id,email,username,password_hash,role_type,role_name`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Create inserts a new user; a taken email yields domain.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u domain.User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users(id,email,username,password_hash,role_type,role_name)
		VALUES(?,?,?,?,?,?)
	`, u.ID, u.Email, u.Username, u.Hash, u.RoleType, u.RoleName)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "unique") {
		return domain.ErrConflict
	}
	return err
}

// ListCustomers returns every non-admin user.
func (r *UserRepo) ListCustomers(ctx context.Context) ([]domain.User, error) {
	out := []domain.User{}
	err := r.DB.SelectContext(ctx, &out, `SELECT `+userCols+` FROM users WHERE role_type != 'admin' ORDER BY email`)
	return out, err
}

func (r *UserRepo) BindToken(ctx context.Context, token, userID string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO sessions(token,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(token) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, token, userID)
	return err
}

func (r *UserRepo) TokenUser(ctx context.Context, token string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `
      SELECT u.id,u.email,u.username,u.password_hash,u.role_type,u.role_name
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.token=?`, token)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) UnbindToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE token=?`, token)
	return err
}

// DeleteUserCascade removes the user with their sessions and favorites.
// Orders are kept for audit; pending ones are canceled.
func (r *UserRepo) DeleteUserCascade(ctx context.Context, userID string) error {
	return InTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE orders SET status=? WHERE user_id=? AND status=?`,
			domain.StatusCanceled, userID, domain.StatusPending); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id=?`, userID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE user_id=?`, userID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=?`, userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}
