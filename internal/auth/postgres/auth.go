package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/auth"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentialsForUsername(username string) (*auth.Credentials, error) {
	var creds auth.Credentials
	query := `SELECT id, password_hash, status FROM users WHERE username = ? AND hidden = false`

	row := r.db.Raw(query, username).Row()
	if err := row.Scan(&creds.UserID, &creds.PasswordHash, &creds.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}
	return &creds, nil
}

// GetUserWithPermissions loads the session identity and flattens the role's
// permission codes. Main and secondary permissions attached to the role all
// collapse into one deduplicated set.
func (r *Repository) GetUserWithPermissions(userID string) (*internal.SessionUser, error) {
	var user internal.SessionUser

	query := `SELECT u.id, u.username, u.first_name, u.last_name, COALESCE(ro.name, '')
	          FROM users u
	          LEFT JOIN roles ro ON ro.id = u.role_id
	          WHERE u.id = ? AND u.status = 'ACTIVE' AND u.hidden = false`

	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&user.ID, &user.Username, &user.FirstName, &user.LastName, &user.RoleName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	permQuery := `SELECT DISTINCT p.code
	              FROM permissions p
	              JOIN role_permissions rp ON rp.permission_id = p.id
	              JOIN users u ON u.role_id = rp.role_id
	              WHERE u.id = ?
	              ORDER BY p.code`

	rows, err := r.db.Raw(permQuery, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		permissions = append(permissions, code)
	}

	user.Permissions = permissions
	return &user, nil
}
