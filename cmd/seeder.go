package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the initial admin account and permission tree",
	Long:  `Seed roles, permissions, the configuration row and an administrator account. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			tables := []string{
				"activity_entries", "task_technicians", "tasks", "work_orders",
				"role_permissions", "users", "roles", "permissions", "configurations",
			}
			for _, table := range tables {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		seedPermissions(db)
		adminRoleID := seedRole(db, "Administrator", "Full access to every feature", []string{"admin"})
		seedRole(db, "Technician", "Workshop floor account", []string{
			"workorder.view", "task.manage", "history.view", "dashboard.view",
		})
		seedAdminUser(db, adminRoleID)
		seedConfiguration(db)

		fmt.Println("Seeding completed")
	},
}

// permissionSeed is one node of the two-level permission tree. Mains carry no
// parent, secondaries reference their main by code.
type permissionSeed struct {
	Code   string
	Label  string
	Parent string
}

var permissionSeeds = []permissionSeed{
	{Code: "admin", Label: "Administrator"},
	{Code: "user", Label: "Users"},
	{Code: "user.manage", Label: "Manage users", Parent: "user"},
	{Code: "role", Label: "Roles"},
	{Code: "role.manage", Label: "Manage roles", Parent: "role"},
	{Code: "permission", Label: "Permissions"},
	{Code: "permission.manage", Label: "Manage permissions", Parent: "permission"},
	{Code: "workorder", Label: "Work orders"},
	{Code: "workorder.view", Label: "View work orders", Parent: "workorder"},
	{Code: "workorder.manage", Label: "Manage work orders", Parent: "workorder"},
	{Code: "task", Label: "Tasks"},
	{Code: "task.manage", Label: "Manage tasks", Parent: "task"},
	{Code: "history", Label: "Activity history"},
	{Code: "history.view", Label: "View activity history", Parent: "history"},
	{Code: "config", Label: "Configuration"},
	{Code: "config.manage", Label: "Manage configuration", Parent: "config"},
	{Code: "dashboard", Label: "Dashboard"},
	{Code: "dashboard.view", Label: "View dashboard", Parent: "dashboard"},
	{Code: "export", Label: "Exports"},
	{Code: "export.data", Label: "Export data", Parent: "export"},
}

func seedPermissions(db *gorm.DB) {
	ids := make(map[string]string, len(permissionSeeds))

	for _, p := range permissionSeeds {
		var id string
		if err := db.Raw("SELECT id FROM permissions WHERE code = ?", p.Code).Row().Scan(&id); err == nil {
			ids[p.Code] = id
			continue
		}

		id = uuid.NewString()
		var parentID interface{}
		if p.Parent != "" {
			parentID = ids[p.Parent]
		}
		if err := db.Exec(
			"INSERT INTO permissions (id, code, label, parent_id, created_at, updated_at) VALUES (?, ?, ?, ?, now(), now())",
			id, p.Code, p.Label, parentID,
		).Error; err != nil {
			log.Fatalf("failed to insert permission %s: %v", p.Code, err)
		}
		ids[p.Code] = id
		fmt.Println("Seeded permission:", p.Code)
	}
}

func seedRole(db *gorm.DB, name, description string, permissionCodes []string) string {
	var roleID string
	if err := db.Raw("SELECT id FROM roles WHERE name = ?", name).Row().Scan(&roleID); err != nil {
		roleID = uuid.NewString()
		if err := db.Exec(
			"INSERT INTO roles (id, name, description, created_at, updated_at) VALUES (?, ?, ?, now(), now())",
			roleID, name, description,
		).Error; err != nil {
			log.Fatalf("failed to insert role %s: %v", name, err)
		}
		fmt.Println("Seeded role:", name)
	}

	for _, code := range permissionCodes {
		var permissionID string
		if err := db.Raw("SELECT id FROM permissions WHERE code = ?", code).Row().Scan(&permissionID); err != nil {
			log.Fatalf("permission not found %s: %v", code, err)
		}

		var exists int
		if err := db.Raw(
			"SELECT 1 FROM role_permissions WHERE role_id = ? AND permission_id = ?",
			roleID, permissionID,
		).Row().Scan(&exists); err == nil {
			continue
		}

		if err := db.Exec(
			"INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)",
			roleID, permissionID,
		).Error; err != nil {
			log.Fatalf("failed to grant permission %s to role %s: %v", code, name, err)
		}
	}

	return roleID
}

func seedAdminUser(db *gorm.DB, roleID string) {
	const username = "admin"

	var exists int
	if err := db.Raw("SELECT 1 FROM users WHERE username = ?", username).Row().Scan(&exists); err == nil {
		fmt.Println("admin user already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash admin password: %v", err)
	}

	if err := db.Exec(
		`INSERT INTO users (id, username, first_name, last_name, badge_number, password_hash, status, hidden, role_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 'ACTIVE', false, ?, now(), now())`,
		uuid.NewString(), username, "Workshop", "Administrator", "A-0001", string(hash), roleID,
	).Error; err != nil {
		log.Fatalf("failed to insert admin user: %v", err)
	}

	fmt.Println("Seeded admin user:", username)
}

func seedConfiguration(db *gorm.DB) {
	var exists int
	if err := db.Raw("SELECT 1 FROM configurations WHERE id = 1").Row().Scan(&exists); err == nil {
		return
	}

	if err := db.Exec(
		`INSERT INTO configurations (id, parallel_tasks_per_technician, multi_technicians_per_task, only_creator_end_task, restart_task, updated_at)
		 VALUES (1, false, false, false, true, now())`,
	).Error; err != nil {
		log.Fatalf("failed to insert configuration row: %v", err)
	}

	fmt.Println("Seeded configuration defaults")
}
