package pg

import (
	"context"
	"database/sql"
	"errors"

	"orgdesk.io/internal/auth"
	"orgdesk.io/internal/orgs"
)

const organizationColumns = `id, name, vat_number, email, phone, address, picture_path, qr_path, status, created_at, updated_at`

func scanOrganization(row rowScanner) (*orgs.Organization, error) {
	var (
		o                                  orgs.Organization
		email, phone, address, picture, qr sql.NullString
		status                             string
	)
	if err := row.Scan(&o.ID, &o.Name, &o.VATNumber, &email, &phone, &address, &picture, &qr,
		&status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Email = email.String
	o.Phone = phone.String
	o.Address = address.String
	o.PicturePath = picture.String
	o.QRPath = qr.String
	o.Status = orgs.Status(status)
	return &o, nil
}

func (s *Store) CreateOrganization(ctx context.Context, o *orgs.Organization) error {
	_, err := s.db.ExecContext(ctx, `
		insert into organizations (id, name, vat_number, email, phone, address, picture_path, qr_path, status, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, o.ID, o.Name, o.VATNumber, nullIfEmpty(o.Email), nullIfEmpty(o.Phone), nullIfEmpty(o.Address),
		nullIfEmpty(o.PicturePath), nullIfEmpty(o.QRPath), string(o.Status), o.CreatedAt, o.UpdatedAt)
	return mapWriteError(err)
}

func (s *Store) FindOrganization(ctx context.Context, id string) (*orgs.Organization, error) {
	o, err := scanOrganization(s.db.QueryRowContext(ctx,
		`select `+organizationColumns+` from organizations where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	return o, err
}

func (s *Store) ListOrganizations(ctx context.Context) ([]*orgs.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `select `+organizationColumns+` from organizations order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*orgs.Organization, 0)
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdateOrganization(ctx context.Context, o *orgs.Organization) error {
	res, err := s.db.ExecContext(ctx, `
		update organizations
		set name = $2, vat_number = $3, email = $4, phone = $5, address = $6,
		    picture_path = $7, qr_path = $8, status = $9, updated_at = $10
		where id = $1
	`, o.ID, o.Name, o.VATNumber, nullIfEmpty(o.Email), nullIfEmpty(o.Phone), nullIfEmpty(o.Address),
		nullIfEmpty(o.PicturePath), nullIfEmpty(o.QRPath), string(o.Status), o.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return expectOne(res)
}

// DeleteOrganization removes the organization; org_users rows cascade.
func (s *Store) DeleteOrganization(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from organizations where id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
