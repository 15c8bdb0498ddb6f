package history

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/events"
	"github.com/atelierhub/workshop-management/internal/core/listing"
	"github.com/atelierhub/workshop-management/internal/task"
)

func TestHistory(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "History Module Suite")
}

type mockRepository struct {
	entries       []*Entry
	technicians   []TechnicianRef
	badges        map[string]string
	returnError   bool
	errorToReturn error
}

func (m *mockRepository) failing() error {
	if m.returnError {
		return m.errorToReturn
	}
	return nil
}

func (m *mockRepository) setError(err error) {
	m.returnError = true
	m.errorToReturn = err
}

func (m *mockRepository) Append(e *Entry) error {
	if err := m.failing(); err != nil {
		return err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockRepository) List(params listing.Params) ([]*Entry, int, error) {
	if err := m.failing(); err != nil {
		return nil, 0, err
	}
	total := len(m.entries)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.Items
	if end > total {
		end = total
	}
	return m.entries[start:end], total, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func (m *mockRepository) ListByTechnicianForDay(technicianID string, day time.Time) ([]*Entry, error) {
	if err := m.failing(); err != nil {
		return nil, err
	}
	var out []*Entry
	for _, e := range m.entries {
		if e.TechnicianID == technicianID && sameDay(e.OccurredAt, day) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockRepository) ListForDay(day time.Time) ([]*Entry, error) {
	if err := m.failing(); err != nil {
		return nil, err
	}
	var out []*Entry
	for _, e := range m.entries {
		if sameDay(e.OccurredAt, day) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockRepository) TechnicianRefs() ([]TechnicianRef, error) {
	if err := m.failing(); err != nil {
		return nil, err
	}
	return m.technicians, nil
}

func (m *mockRepository) TechnicianByBadge(badgeNumber string) (*TechnicianRef, error) {
	if err := m.failing(); err != nil {
		return nil, err
	}
	id, ok := m.badges[badgeNumber]
	if !ok {
		return nil, internal.NewNotFoundError("no technician wears this badge", internal.ErrCodeUserNotFound)
	}
	for i := range m.technicians {
		if m.technicians[i].ID == id {
			return &m.technicians[i], nil
		}
	}
	return nil, internal.NewNotFoundError("no technician wears this badge", internal.ErrCodeUserNotFound)
}

var _ = ginkgo.Describe("DerivePresence", func() {
	entry := func(entryType string) *Entry {
		return &Entry{Type: entryType, OccurredAt: time.Now()}
	}

	ginkgo.It("should report not checked in without entries", func() {
		gomega.Expect(DerivePresence(nil)).To(gomega.Equal(PresenceNotCheckedIn))
	})

	ginkgo.It("should report present after an entry", func() {
		gomega.Expect(DerivePresence([]*Entry{entry(TypeEntry)})).To(gomega.Equal(PresencePresent))
	})

	ginkgo.It("should report on break after entry then break", func() {
		gomega.Expect(DerivePresence([]*Entry{entry(TypeEntry), entry(TypeBreak)})).
			To(gomega.Equal(PresenceOnBreak))
	})

	ginkgo.It("should report present again after a resume", func() {
		gomega.Expect(DerivePresence([]*Entry{entry(TypeEntry), entry(TypeBreak), entry(TypeResume)})).
			To(gomega.Equal(PresencePresent))
	})

	ginkgo.It("should report out after an exit", func() {
		gomega.Expect(DerivePresence([]*Entry{entry(TypeEntry), entry(TypeExit)})).
			To(gomega.Equal(PresenceOut))
	})

	ginkgo.It("should ignore task entries", func() {
		gomega.Expect(DerivePresence([]*Entry{entry(TypeEntry), entry(TypeTaskStarted)})).
			To(gomega.Equal(PresencePresent))
	})
})

var _ = ginkgo.Describe("DeriveDaySummary", func() {
	at := func(hour, min int) time.Time {
		return time.Date(2025, time.March, 14, hour, min, 0, 0, time.UTC)
	}
	entry := func(entryType string, t time.Time) *Entry {
		return &Entry{Type: entryType, OccurredAt: t}
	}

	ginkgo.It("should report an empty day", func() {
		sum := DeriveDaySummary(nil, at(13, 0))

		gomega.Expect(sum.Presence).To(gomega.Equal(PresenceNotCheckedIn))
		gomega.Expect(sum.FirstEntry).To(gomega.BeNil())
		gomega.Expect(sum.LastExit).To(gomega.BeNil())
		gomega.Expect(sum.Pauses).To(gomega.BeEmpty())
		gomega.Expect(sum.WorkedMinutes).To(gomega.BeZero())
	})

	ginkgo.It("should track boundaries, pauses, tasks and worked time", func() {
		entries := []*Entry{
			entry(TypeEntry, at(8, 0)),
			entry(TypeTaskStarted, at(8, 5)),
			entry(TypeBreak, at(10, 0)),
			entry(TypeResume, at(10, 30)),
			entry(TypeTaskEnded, at(11, 30)),
			entry(TypeExit, at(12, 0)),
		}

		sum := DeriveDaySummary(entries, at(13, 0))

		gomega.Expect(sum.Presence).To(gomega.Equal(PresenceOut))
		gomega.Expect(sum.FirstEntry).ToNot(gomega.BeNil())
		gomega.Expect(*sum.FirstEntry).To(gomega.Equal(at(8, 0)))
		gomega.Expect(sum.LastExit).ToNot(gomega.BeNil())
		gomega.Expect(*sum.LastExit).To(gomega.Equal(at(12, 0)))
		gomega.Expect(sum.Pauses).To(gomega.HaveLen(1))
		gomega.Expect(sum.Pauses[0].Start).To(gomega.Equal(at(10, 0)))
		gomega.Expect(sum.Pauses[0].End).ToNot(gomega.BeNil())
		gomega.Expect(*sum.Pauses[0].End).To(gomega.Equal(at(10, 30)))
		gomega.Expect(sum.TasksStarted).To(gomega.Equal(1))
		gomega.Expect(sum.TasksCompleted).To(gomega.Equal(1))
		gomega.Expect(sum.WorkedMinutes).To(gomega.Equal(210))
	})

	ginkgo.It("should count a still-open work interval up to now", func() {
		sum := DeriveDaySummary([]*Entry{entry(TypeEntry, at(8, 0))}, at(9, 30))

		gomega.Expect(sum.Presence).To(gomega.Equal(PresencePresent))
		gomega.Expect(sum.WorkedMinutes).To(gomega.Equal(90))
	})

	ginkgo.It("should leave a running break open and stop the clock", func() {
		entries := []*Entry{
			entry(TypeEntry, at(8, 0)),
			entry(TypeBreak, at(9, 0)),
		}

		sum := DeriveDaySummary(entries, at(9, 45))

		gomega.Expect(sum.Presence).To(gomega.Equal(PresenceOnBreak))
		gomega.Expect(sum.Pauses).To(gomega.HaveLen(1))
		gomega.Expect(sum.Pauses[0].End).To(gomega.BeNil())
		gomega.Expect(sum.WorkedMinutes).To(gomega.Equal(60))
	})
})

var _ = ginkgo.Describe("HistoryService", func() {
	var (
		service  *Service
		mockRepo *mockRepository
	)

	ginkgo.BeforeEach(func() {
		mockRepo = &mockRepository{
			technicians: []TechnicianRef{
				{ID: "t-1", FirstName: "Alice", LastName: "Moreau"},
				{ID: "t-2", FirstName: "Bob", LastName: "Lefevre"},
			},
		}
		service = NewService(mockRepo, slog.Default())
	})

	ginkgo.Describe("Badge", func() {
		ginkgo.It("should record an entry on the first badge of the day", func() {
			e, err := service.Badge("t-1")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(e.Type).To(gomega.Equal(TypeEntry))
			gomega.Expect(e.TechnicianID).To(gomega.Equal("t-1"))
		})

		ginkgo.It("should record an exit on the second badge", func() {
			_, err := service.Badge("t-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			e, err := service.Badge("t-1")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(e.Type).To(gomega.Equal(TypeExit))
		})

		ginkgo.It("should record a new entry after an exit", func() {
			for _, want := range []string{TypeEntry, TypeExit, TypeEntry} {
				e, err := service.Badge("t-1")
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(e.Type).To(gomega.Equal(want))
			}
		})

		ginkgo.It("should badge out a technician who is on break", func() {
			_, err := service.Badge("t-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			_, err = service.Break("t-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			e, err := service.Badge("t-1")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(e.Type).To(gomega.Equal(TypeExit))
		})
	})

	ginkgo.Describe("BadgeByNumber", func() {
		ginkgo.BeforeEach(func() {
			mockRepo.badges = map[string]string{"A-0042": "t-1"}
		})

		ginkgo.It("should resolve the badge and toggle that technician", func() {
			e, err := service.BadgeByNumber("A-0042")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(e.Type).To(gomega.Equal(TypeEntry))
			gomega.Expect(e.TechnicianID).To(gomega.Equal("t-1"))
		})

		ginkgo.It("should reject an unknown badge", func() {
			_, err := service.BadgeByNumber("A-9999")

			var appErr *internal.AppError
			gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeUserNotFound))
		})
	})

	ginkgo.Describe("Break", func() {
		ginkgo.It("should toggle break and resume while present", func() {
			_, err := service.Badge("t-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			e, err := service.Break("t-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(e.Type).To(gomega.Equal(TypeBreak))

			e, err = service.Break("t-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(e.Type).To(gomega.Equal(TypeResume))
		})

		ginkgo.It("should refuse a break before check in", func() {
			_, err := service.Break("t-1")

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeValidationFailed))
		})
	})

	ginkgo.Describe("Today", func() {
		ginkgo.It("should only return the technician's entries of the day", func() {
			yesterday := time.Now().AddDate(0, 0, -1)
			mockRepo.entries = append(mockRepo.entries,
				&Entry{TechnicianID: "t-1", Type: TypeEntry, OccurredAt: yesterday},
				&Entry{TechnicianID: "t-2", Type: TypeEntry, OccurredAt: time.Now()},
			)
			_, err := service.Badge("t-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			entries, err := service.Today("t-1")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(entries).To(gomega.HaveLen(1))
			gomega.Expect(entries[0].Type).To(gomega.Equal(TypeEntry))
		})
	})

	ginkgo.Describe("Digest", func() {
		ginkgo.It("should cover every technician, badged or not", func() {
			_, err := service.Badge("t-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			digest, err := service.Digest()

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(digest).To(gomega.HaveLen(2))
			gomega.Expect(digest[0].Presence).To(gomega.Equal(PresencePresent))
			gomega.Expect(digest[1].Presence).To(gomega.Equal(PresenceNotCheckedIn))
		})

		ginkgo.It("should carry each technician's day summary", func() {
			at := func(hour, min int) time.Time {
				return time.Date(2025, time.March, 14, hour, min, 0, 0, time.UTC)
			}
			service.now = func() time.Time { return at(13, 0) }
			mockRepo.entries = []*Entry{
				{TechnicianID: "t-1", Type: TypeEntry, OccurredAt: at(8, 0)},
				{TechnicianID: "t-1", Type: TypeTaskStarted, OccurredAt: at(8, 5)},
				{TechnicianID: "t-1", Type: TypeBreak, OccurredAt: at(10, 0)},
				{TechnicianID: "t-1", Type: TypeResume, OccurredAt: at(10, 30)},
				{TechnicianID: "t-1", Type: TypeTaskEnded, OccurredAt: at(11, 30)},
				{TechnicianID: "t-1", Type: TypeExit, OccurredAt: at(12, 0)},
			}

			digest, err := service.Digest()

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(digest).To(gomega.HaveLen(2))

			alice := digest[0]
			gomega.Expect(alice.Presence).To(gomega.Equal(PresenceOut))
			gomega.Expect(*alice.FirstEntry).To(gomega.Equal(at(8, 0)))
			gomega.Expect(*alice.LastExit).To(gomega.Equal(at(12, 0)))
			gomega.Expect(alice.Pauses).To(gomega.HaveLen(1))
			gomega.Expect(alice.TasksStarted).To(gomega.Equal(1))
			gomega.Expect(alice.TasksCompleted).To(gomega.Equal(1))
			gomega.Expect(alice.WorkedMinutes).To(gomega.Equal(210))

			bob := digest[1]
			gomega.Expect(bob.Presence).To(gomega.Equal(PresenceNotCheckedIn))
			gomega.Expect(bob.WorkedMinutes).To(gomega.BeZero())
		})
	})

	ginkgo.Describe("Recorder", func() {
		var bus *events.EventBus

		ginkgo.BeforeEach(func() {
			bus = events.NewEventBus(slog.Default())
			RegisterRecorder(bus, service)
		})

		ginkgo.It("should log every task lifecycle event", func() {
			pairs := map[string]string{
				task.EventTaskStarted:   TypeTaskStarted,
				task.EventTaskPaused:    TypeTaskPaused,
				task.EventTaskResumed:   TypeTaskResumed,
				task.EventTaskEnded:     TypeTaskEnded,
				task.EventTaskRestarted: TypeTaskRestarted,
				task.EventTaskJoined:    TypeJoinedTask,
			}

			for eventType, entryType := range pairs {
				mockRepo.entries = nil
				event := events.NewBaseEvent(eventType, map[string]interface{}{
					"task_id":       "task-42",
					"task_title":    "Replace brake pads",
					"work_order_id": "wo-1",
					"technician_id": "t-1",
				})

				err := bus.PublishSync(context.Background(), event)

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(mockRepo.entries).To(gomega.HaveLen(1))
				gomega.Expect(mockRepo.entries[0].Type).To(gomega.Equal(entryType))
				gomega.Expect(mockRepo.entries[0].TaskID).ToNot(gomega.BeNil())
				gomega.Expect(*mockRepo.entries[0].TaskID).To(gomega.Equal("task-42"))
			}
		})

		ginkgo.It("should reject an event without a technician", func() {
			event := events.NewBaseEvent(task.EventTaskStarted, map[string]interface{}{
				"task_id": "task-42",
			})

			err := bus.PublishSync(context.Background(), event)

			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("failure propagation", func() {
		ginkgo.It("should surface repository failures", func() {
			mockRepo.setError(errors.New("connection reset"))

			_, err := service.Badge("t-1")

			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})
})
