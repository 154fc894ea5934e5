package felix

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"
)

const librarySchema = `
CREATE TABLE IF NOT EXISTS parts (
	id             TEXT NOT NULL,
	name           TEXT NOT NULL,
	sequence       TEXT NOT NULL,
	roles          TEXT NOT NULL,
	left_junction  TEXT NOT NULL,
	right_junction TEXT NOT NULL,
	feature_type   TEXT NOT NULL DEFAULT '',
	confidence     REAL NOT NULL DEFAULT 0,
	source         TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (sequence, left_junction, right_junction)
);
CREATE INDEX IF NOT EXISTS parts_confidence ON parts (confidence);
`

// Library is a sqlite store of annotated parts, used to assemble new constructs
type Library struct {
	db *sql.DB
}

// OpenLibrary opens, creating if needed, the parts library at path
func OpenLibrary(path string) (*Library, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parts library %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(librarySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate parts library %s: %w", path, err)
	}

	return &Library{db: db}, nil
}

// Close the underlying database
func (l *Library) Close() error {
	return l.db.Close()
}

// Save stores each annotated part of the construct. Parts with the Unknown role aren't stored
// and a part that's already in the library is replaced. Returns the number of parts saved.
func (l *Library) Save(ctx context.Context, c *Construct) (int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO parts
			(id, name, sequence, roles, left_junction, right_junction, feature_type, confidence, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	saved := 0
	for _, p := range c.Parts() {
		if p.Primary() == Unknown {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Name, p.Seq(), encodeRoles(p.Roles), p.LeftJunction, p.RightJunction,
			p.Meta.FeatureType, p.Score.Confidence, c.Name,
		); err != nil {
			return 0, fmt.Errorf("failed to save %s: %w", p.Name, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to save parts of %s: %w", c.Name, err)
	}
	return saved, nil
}

// ByRole returns the parts with the role, most confident first
func (l *Library) ByRole(ctx context.Context, role Role) ([]*Part, error) {
	return l.query(ctx, `
		SELECT id, name, sequence, roles, left_junction, right_junction, feature_type, confidence
		FROM parts WHERE instr(roles, ?) > 0 ORDER BY confidence DESC, name`,
		","+role.String()+",",
	)
}

// Parts returns every part in the library, most confident first
func (l *Library) Parts(ctx context.Context) ([]*Part, error) {
	return l.query(ctx, `
		SELECT id, name, sequence, roles, left_junction, right_junction, feature_type, confidence
		FROM parts ORDER BY confidence DESC, name`,
	)
}

// Assemble builds a linear construct with the most confident part for each role, in order.
// Roles without a part in the library are skipped and returned.
func (l *Library) Assemble(ctx context.Context, name string, roles []Role) (*Construct, []Role, error) {
	c := NewConstruct(canonicalName(name), false)
	missing := []Role{}

	for _, role := range roles {
		parts, err := l.ByRole(ctx, role)
		if err != nil {
			return nil, nil, err
		}
		if len(parts) == 0 {
			missing = append(missing, role)
			continue
		}
		c.Add(parts[0], Forward)
	}

	return c, missing, nil
}

func (l *Library) query(ctx context.Context, query string, args ...any) ([]*Part, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query parts library: %w", err)
	}
	defer rows.Close()

	parts := []*Part{}
	for rows.Next() {
		var id, name, seq, roles, left, right, featureType string
		var confidence float64
		if err := rows.Scan(&id, &name, &seq, &roles, &left, &right, &featureType, &confidence); err != nil {
			return nil, err
		}

		p, err := NewPart(id, name, seq, left, right)
		if err != nil {
			return nil, err
		}
		if p.Roles, err = decodeRoles(roles); err != nil {
			return nil, fmt.Errorf("part %s: %w", name, err)
		}
		p.Score.Confidence = confidence
		p.Meta.FeatureType = featureType
		p.Meta.Label = name
		p.Meta.SOTerm = p.Primary().SOTerm()
		parts = append(parts, p)
	}

	return parts, rows.Err()
}

// encodeRoles delimits roles with commas on both ends so a single role can be matched with instr
func encodeRoles(roles []Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return "," + strings.Join(names, ",") + ","
}

func decodeRoles(encoded string) ([]Role, error) {
	roles := []Role{}
	for _, name := range strings.Split(strings.Trim(encoded, ","), ",") {
		if name == "" {
			continue
		}
		r, err := ParseRole(name)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}
