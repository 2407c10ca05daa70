package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"orgdesk.io/internal/auth"
)

type principalTable struct {
	name      string
	orgColumn string
}

var principalTables = map[auth.Kind]principalTable{
	auth.KindAdmin:   {name: "admins", orgColumn: "''"},
	auth.KindOrgUser: {name: "org_users", orgColumn: "organization_id"},
}

func tableFor(kind auth.Kind) (principalTable, error) {
	t, ok := principalTables[kind]
	if !ok {
		return principalTable{}, fmt.Errorf("%w: unknown principal kind %q", auth.ErrInvalidInput, kind)
	}
	return t, nil
}

func (t principalTable) selectColumns() string {
	return "id, " + t.orgColumn + ", name, email, password_hash, designation, status, picture_path, created_at, updated_at"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(kind auth.Kind, row rowScanner) (*auth.Principal, error) {
	p := auth.Principal{Kind: kind}
	var (
		designation string
		status      string
		picture     sql.NullString
	)
	if err := row.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Email, &p.PasswordHash,
		&designation, &status, &picture, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Designation = auth.ParseDesignation(designation)
	p.Status = auth.Status(status)
	p.PicturePath = picture.String
	return &p, nil
}

func (s *Store) findPrincipal(ctx context.Context, kind auth.Kind, column, value string) (*auth.Principal, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`select %s from %s where %s = $1`, t.selectColumns(), t.name, column)
	p, err := scanPrincipal(kind, s.db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	return p, err
}

func (s *Store) FindPrincipal(ctx context.Context, kind auth.Kind, id string) (*auth.Principal, error) {
	return s.findPrincipal(ctx, kind, "id", id)
}

func (s *Store) FindPrincipalByEmail(ctx context.Context, kind auth.Kind, email string) (*auth.Principal, error) {
	return s.findPrincipal(ctx, kind, "email", email)
}

func (s *Store) ListPrincipals(ctx context.Context, f auth.PrincipalFilter) ([]*auth.Principal, error) {
	t, err := tableFor(f.Kind)
	if err != nil {
		return nil, err
	}
	var (
		rows *sql.Rows
		base = fmt.Sprintf(`select %s from %s`, t.selectColumns(), t.name)
	)
	if f.Kind == auth.KindOrgUser && f.OrganizationID != "" {
		rows, err = s.db.QueryContext(ctx, base+` where organization_id = $1 order by id`, f.OrganizationID)
	} else {
		rows, err = s.db.QueryContext(ctx, base+` order by id`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*auth.Principal, 0)
	for rows.Next() {
		p, err := scanPrincipal(f.Kind, rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CreatePrincipal(ctx context.Context, p *auth.Principal) error {
	var err error
	switch p.Kind {
	case auth.KindAdmin:
		_, err = s.db.ExecContext(ctx, `
			insert into admins (id, name, email, password_hash, designation, status, picture_path, created_at, updated_at)
			values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, p.ID, p.Name, p.Email, p.PasswordHash, p.Designation.String(), string(p.Status),
			nullIfEmpty(p.PicturePath), p.CreatedAt, p.UpdatedAt)
	case auth.KindOrgUser:
		_, err = s.db.ExecContext(ctx, `
			insert into org_users (id, organization_id, name, email, password_hash, designation, status, picture_path, created_at, updated_at)
			values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, p.ID, p.OrganizationID, p.Name, p.Email, p.PasswordHash, p.Designation.String(), string(p.Status),
			nullIfEmpty(p.PicturePath), p.CreatedAt, p.UpdatedAt)
	default:
		_, err = tableFor(p.Kind)
	}
	return mapWriteError(err)
}

func (s *Store) UpdatePrincipal(ctx context.Context, p *auth.Principal) error {
	t, err := tableFor(p.Kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		update %s
		set name = $2, email = $3, password_hash = $4, designation = $5, status = $6, picture_path = $7, updated_at = $8
		where id = $1
	`, t.name)
	res, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.Email, p.PasswordHash,
		p.Designation.String(), string(p.Status), nullIfEmpty(p.PicturePath), p.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return expectOne(res)
}

func (s *Store) DeletePrincipal(ctx context.Context, kind auth.Kind, id string) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`delete from %s where id = $1`, t.name), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
