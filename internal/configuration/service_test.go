package configuration

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	internal "github.com/atelierhub/workshop-management/internal"
)

func TestConfiguration(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Configuration Module Suite")
}

type mockRepository struct {
	cfg           *Configuration
	returnError   bool
	errorToReturn error
}

func (m *mockRepository) Get() (*Configuration, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	if m.cfg == nil {
		return nil, errors.New("configuration not found")
	}
	return m.cfg, nil
}

func (m *mockRepository) Save(cfg *Configuration) error {
	if m.returnError {
		return m.errorToReturn
	}
	m.cfg = cfg
	return nil
}

func boolPtr(b bool) *bool { return &b }

var _ = ginkgo.Describe("ConfigurationService", func() {
	var (
		service  *Service
		mockRepo *mockRepository
	)

	ginkgo.BeforeEach(func() {
		mockRepo = &mockRepository{cfg: Defaults()}
		service = NewService(mockRepo, slog.Default())
	})

	ginkgo.Describe("Get", func() {
		ginkgo.It("should return the singleton", func() {
			cfg, err := service.Get()

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(cfg.ID).To(gomega.Equal(SingletonID))
			gomega.Expect(cfg.RestartTask).To(gomega.BeTrue())
		})

		ginkgo.It("should report not found when the row is missing", func() {
			mockRepo.cfg = nil

			_, err := service.Get()

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeConfigNotFound))
		})
	})

	ginkgo.Describe("Update", func() {
		ginkgo.It("should flip only the provided toggles", func() {
			cfg, err := service.Update(UpdateConfigurationDTO{
				MultiTechniciansPerTask: boolPtr(true),
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(cfg.MultiTechniciansPerTask).To(gomega.BeTrue())
			gomega.Expect(cfg.ParallelTasksPerTechnician).To(gomega.BeFalse())
			gomega.Expect(cfg.RestartTask).To(gomega.BeTrue())
		})

		ginkgo.It("should be a no-op for an empty patch", func() {
			before := *mockRepo.cfg

			cfg, err := service.Update(UpdateConfigurationDTO{})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(cfg.UpdatedAt).To(gomega.Equal(before.UpdatedAt))
		})

		ginkgo.It("should allow disabling restart", func() {
			cfg, err := service.Update(UpdateConfigurationDTO{RestartTask: boolPtr(false)})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(cfg.RestartTask).To(gomega.BeFalse())
		})
	})
})
