package role

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	internal "github.com/atelierhub/workshop-management/internal"
)

func TestRole(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Role Module Suite")
}

type mockRepository struct {
	roles         map[string]*Role
	permissions   map[string][]string
	knownPerms    map[string]bool
	userCounts    map[string]int
	returnError   bool
	errorToReturn error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		roles:       make(map[string]*Role),
		permissions: make(map[string][]string),
		knownPerms:  map[string]bool{"p-1": true, "p-2": true, "p-3": true},
		userCounts:  make(map[string]int),
	}
}

func (m *mockRepository) failing() error {
	if m.returnError {
		return m.errorToReturn
	}
	return nil
}

func (m *mockRepository) List(includePermissions bool) ([]*Role, error) {
	if err := m.failing(); err != nil {
		return nil, err
	}
	var out []*Role
	for _, r := range m.roles {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRepository) GetByID(id string, includePermissions bool) (*Role, error) {
	if err := m.failing(); err != nil {
		return nil, err
	}
	r, ok := m.roles[id]
	if !ok {
		return nil, errors.New("role not found")
	}
	if includePermissions {
		r.Permissions = nil
		for _, pid := range m.permissions[id] {
			r.Permissions = append(r.Permissions, Permission{ID: pid})
		}
	}
	return r, nil
}

func (m *mockRepository) Create(r *Role) error {
	if err := m.failing(); err != nil {
		return err
	}
	m.roles[r.ID] = r
	return nil
}

func (m *mockRepository) Update(r *Role) error {
	if err := m.failing(); err != nil {
		return err
	}
	m.roles[r.ID] = r
	return nil
}

func (m *mockRepository) Delete(id string) error {
	if err := m.failing(); err != nil {
		return err
	}
	delete(m.roles, id)
	delete(m.permissions, id)
	return nil
}

func (m *mockRepository) NameExists(name string, excludeID string) (bool, error) {
	if err := m.failing(); err != nil {
		return false, err
	}
	for _, r := range m.roles {
		if r.Name == name && r.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) UserCount(id string) (int, error) {
	if err := m.failing(); err != nil {
		return 0, err
	}
	return m.userCounts[id], nil
}

func (m *mockRepository) SetPermissions(roleID string, permissionIDs []string) error {
	if err := m.failing(); err != nil {
		return err
	}
	m.permissions[roleID] = permissionIDs
	return nil
}

func (m *mockRepository) PermissionsExist(permissionIDs []string) (bool, error) {
	if err := m.failing(); err != nil {
		return false, err
	}
	for _, pid := range permissionIDs {
		if !m.knownPerms[pid] {
			return false, nil
		}
	}
	return true, nil
}

func (m *mockRepository) setError(err error) {
	m.returnError = true
	m.errorToReturn = err
}

var _ = ginkgo.Describe("RoleService", func() {
	var (
		service  *Service
		mockRepo *mockRepository
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockRepository()
		service = NewService(mockRepo, slog.Default())
	})

	ginkgo.Describe("Create", func() {
		ginkgo.It("should create a role", func() {
			r, err := service.Create(CreateRoleDTO{Name: "Technician", Description: "Shop floor"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(r.ID).ToNot(gomega.BeEmpty())
			gomega.Expect(r.Name).To(gomega.Equal("Technician"))
		})

		ginkgo.It("should reject a duplicate name", func() {
			_, err := service.Create(CreateRoleDTO{Name: "Technician"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Create(CreateRoleDTO{Name: "Technician"})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeRoleNameTaken))
		})

		ginkgo.It("should reject an empty name", func() {
			_, err := service.Create(CreateRoleDTO{Name: ""})

			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("Delete", func() {
		ginkgo.It("should delete an unused role", func() {
			r, err := service.Create(CreateRoleDTO{Name: "Temp"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(service.Delete(r.ID)).To(gomega.Succeed())
			gomega.Expect(mockRepo.roles).ToNot(gomega.HaveKey(r.ID))
		})

		ginkgo.It("should refuse while users hold the role", func() {
			r, err := service.Create(CreateRoleDTO{Name: "Busy"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			mockRepo.userCounts[r.ID] = 3

			err = service.Delete(r.ID)

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeRoleInUse))
		})

		ginkgo.It("should return not found for an unknown role", func() {
			err := service.Delete("nope")

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeRoleNotFound))
		})
	})

	ginkgo.Describe("SetPermissions", func() {
		var existing *Role

		ginkgo.BeforeEach(func() {
			var err error
			existing, err = service.Create(CreateRoleDTO{Name: "Technician"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should replace the permission set", func() {
			r, err := service.SetPermissions(existing.ID, SetPermissionsDTO{PermissionIDs: []string{"p-1", "p-2"}})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(r.Permissions).To(gomega.HaveLen(2))

			r, err = service.SetPermissions(existing.ID, SetPermissionsDTO{PermissionIDs: []string{"p-3"}})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(r.Permissions).To(gomega.HaveLen(1))
			gomega.Expect(r.Permissions[0].ID).To(gomega.Equal("p-3"))
		})

		ginkgo.It("should allow clearing every permission", func() {
			_, err := service.SetPermissions(existing.ID, SetPermissionsDTO{PermissionIDs: []string{"p-1"}})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			r, err := service.SetPermissions(existing.ID, SetPermissionsDTO{PermissionIDs: nil})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(r.Permissions).To(gomega.BeEmpty())
		})

		ginkgo.It("should reject unknown permission IDs", func() {
			_, err := service.SetPermissions(existing.ID, SetPermissionsDTO{PermissionIDs: []string{"p-404"}})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodePermNotFound))
		})
	})

	ginkgo.Describe("when the repository fails", func() {
		ginkgo.It("should propagate the error from List", func() {
			mockRepo.setError(errors.New("database error"))

			_, err := service.List(false)

			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})
})
