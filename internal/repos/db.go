package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"storefront/internal/domain"
)

// OpenDB opens the sqlite database, applies the schema and seeds demo data.
func OpenDB(dsn string) (*sqlx.DB, error) { return Open(dsn, true) }

func Open(dsn string, seed bool) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", withForeignKeys(dsn))
	if err != nil {
		return nil, err
	}
	// One connection: sqlite serializes writers anyway, and ":memory:" is per-connection.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if !seed {
		return db, nil
	}
	if err := seedCatalog(db); err != nil {
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		return nil, err
	}
	return db, nil
}

// withForeignKeys sets the pragma on every connection the pool opens.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// InTx runs fn inside a transaction, committing on nil and rolling back otherwise.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w; rollback err: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Catalog
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

CREATE TABLE IF NOT EXISTS brands(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_brands_name_nocase ON brands(LOWER(name));

CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
  brand_id TEXT REFERENCES brands(id) ON DELETE SET NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  discount INTEGER NOT NULL DEFAULT 0 CHECK (discount BETWEEN 0 AND 100),
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_brand      ON products(brand_id);
CREATE INDEX IF NOT EXISTS idx_products_name       ON products(LOWER(name));
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Users & bearer sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  username TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role_type TEXT NOT NULL DEFAULT 'authenticated',
  role_name TEXT NOT NULL DEFAULT 'Authenticated',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  token TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Orders (user_id has no FK: orders outlive deleted users for audit)
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  total NUMERIC NOT NULL CHECK (total >= 0),
  status TEXT NOT NULL DEFAULT 'pending',
  created_at TEXT NOT NULL,
  published_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_user       ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  position   INTEGER NOT NULL,
  quantity   INTEGER NOT NULL CHECK (quantity > 0),
  unit_price NUMERIC NOT NULL,
  PRIMARY KEY (order_id, product_id)
);

-- Favorites
CREATE TABLE IF NOT EXISTS favorites(
  user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (user_id, product_id)
);
`
	_, err := db.Exec(schema)
	return err
}

// seedCatalog inserts the demo catalog. Safe to run on every startup.
func seedCatalog(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo categories/brands/products")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO categories(id,name,description) VALUES
	  ('sneakers','Sneakers','Everyday and running shoes'),
	  ('apparel','Apparel','Shirts, hoodies and jackets'),
	  ('accessories','Accessories','Bags, caps and socks')
	  ON CONFLICT(id) DO NOTHING`)

	tx.MustExec(`INSERT INTO brands(id,name,description) VALUES
	  ('northpeak','Northpeak','Outdoor gear'),
	  ('urbanline','Urbanline','Streetwear')
	  ON CONFLICT(id) DO NOTHING`)

	tx.MustExec(`INSERT INTO products(id,category_id,brand_id,name,description,price,discount,stock,is_active) VALUES
	  ('runner-01','sneakers','northpeak','Trail Runner','Lightweight trail running shoe',89.90,10,12,1),
	  ('court-02','sneakers','urbanline','Court Classic','Leather low-top',64.50,0,3,1),
	  ('hoodie-01','apparel','urbanline','Heavy Hoodie','Brushed fleece hoodie',49.00,20,8,1),
	  ('shell-03','apparel','northpeak','Rain Shell','Packable waterproof jacket',120.00,0,1,1),
	  ('cap-01','accessories','urbanline','Logo Cap','Six-panel cotton cap',19.99,0,0,0)
	  ON CONFLICT(id) DO NOTHING`)

	return tx.Commit()
}

// seedUsers ensures two customers and one admin exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Username, RoleType, RoleName, Hash string
	}
	mk := func(id, email, username, roleType, roleName, raw string) (u, error) {
		h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		if err != nil {
			return u{}, err
		}
		return u{ID: id, Email: email, Username: username, RoleType: roleType, RoleName: roleName, Hash: string(h)}, nil
	}

	specs := [][6]string{
		{"u-alice", "alice@storefront.test", "alice", domain.RoleAuthenticated, "Authenticated", "Passw0rd!"},
		{"u-bob", "bob@storefront.test", "bob", domain.RoleAuthenticated, "Authenticated", "Passw0rd!"},
		{"u-admin", "admin@storefront.test", "admin", domain.RoleAdmin, "Admin", "Passw0rd!"},
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, s := range specs {
		x, err := mk(s[0], s[1], s[2], s[3], s[4], s[5])
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,username,password_hash,role_type,role_name)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Username, x.Hash, x.RoleType, x.RoleName); err != nil {
			return err
		}
	}

	return tx.Commit()
}
