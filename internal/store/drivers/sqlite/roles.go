package sqlite

import (
	"context"

	"github.com/nitrolabs/nitro/internal/domain"
)

type rolesRepo struct {
	db dbtx
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	var role domain.Role
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM roles WHERE name = ?`,
		name,
	).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}

	role.Permissions, err = r.listPermissions(ctx, role.ID)
	if err != nil {
		return domain.Role{}, err
	}
	return role, nil
}

func (r *rolesRepo) CreateRole(ctx context.Context, role domain.Role) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO roles (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		role.ID, role.Name, role.Description, role.CreatedAt, role.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *rolesRepo) GrantPermission(ctx context.Context, roleID, permissionID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)
		ON CONFLICT (role_id, permission_id) DO NOTHING`,
		roleID, permissionID,
	)
	return err
}

func (r *rolesRepo) ListAll(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM roles ORDER BY rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range roles {
		roles[i].Permissions, err = r.listPermissions(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return roles, nil
}

func (r *rolesRepo) listPermissions(ctx context.Context, roleID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.name
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = ?
		ORDER BY rp.rowid`,
		roleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

type permissionsRepo struct {
	db dbtx
}

func (r *permissionsRepo) GetPermissionByName(ctx context.Context, name string) (domain.Permission, error) {
	var p domain.Permission
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description FROM permissions WHERE name = ?`,
		name,
	).Scan(&p.ID, &p.Name, &p.Description)
	if err != nil {
		return domain.Permission{}, mapNotFound(err)
	}
	return p, nil
}

func (r *permissionsRepo) CreatePermission(ctx context.Context, p domain.Permission) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO permissions (id, name, description) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.Description,
	)
	return mapConstraint(err)
}
