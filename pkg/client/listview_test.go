package client

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type vehicleRow struct {
	Number string
	Status string
}

// collector records every emitted request and serves pages from an
// in-memory dataset, like a screen fetching from the API.
type collector struct {
	mu       sync.Mutex
	requests []PageRequest
	dataset  []vehicleRow
	view     *ListView[vehicleRow]
}

func (c *collector) sink(req PageRequest) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	var filtered []vehicleRow
	for _, row := range c.dataset {
		if req.Search != "" && !strings.Contains(strings.ToLower(row.Number), strings.ToLower(req.Search)) {
			continue
		}
		if len(req.Statuses) > 0 {
			match := false
			for _, s := range req.Statuses {
				if s == row.Status {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		filtered = append(filtered, row)
	}

	total := len(filtered)
	lastPage := (total + req.Items - 1) / req.Items
	if lastPage < 1 {
		lastPage = 1
	}
	start := (req.Page - 1) * req.Items
	if start > total {
		start = total
	}
	end := start + req.Items
	if end > total {
		end = total
	}

	c.view.Accept(req.Seq, filtered[start:end], total, lastPage)
}

func (c *collector) requestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func (c *collector) lastRequest() PageRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[len(c.requests)-1]
}

var _ = ginkgo.Describe("ListView", func() {
	var col *collector

	newView := func(opts ...ListViewOption[vehicleRow]) *ListView[vehicleRow] {
		col = &collector{}
		for i := 0; i < 35; i++ {
			status := "NOT_STARTED"
			if i%2 == 0 {
				status = "COMPLETED"
			}
			col.dataset = append(col.dataset, vehicleRow{
				Number: fmt.Sprintf("OR-%03d", i),
				Status: status,
			})
		}
		view := NewListView[vehicleRow](col.sink, opts...)
		col.view = view
		return view
	}

	ginkgo.It("should split 35 rows into 4 pages of 10", func() {
		view := newView()
		view.Load()

		gomega.Expect(view.Rows()).To(gomega.HaveLen(10))
		gomega.Expect(view.Total()).To(gomega.Equal(35))
		gomega.Expect(view.LastPage()).To(gomega.Equal(4))

		view.SetPage(4)
		gomega.Expect(view.Rows()).To(gomega.HaveLen(5))
	})

	ginkgo.It("should collapse rapid typing into one debounced request", func() {
		view := newView(WithDebounce[vehicleRow](20 * time.Millisecond))
		view.Load()
		gomega.Expect(col.requestCount()).To(gomega.Equal(1))

		view.SetSearch("O")
		view.SetSearch("OR")
		view.SetSearch("OR-007")

		gomega.Consistently(col.requestCount, "10ms", "2ms").Should(gomega.Equal(1))
		gomega.Eventually(col.requestCount, "1s", "5ms").Should(gomega.Equal(2))
		gomega.Expect(col.lastRequest().Search).To(gomega.Equal("OR-007"))
		gomega.Expect(view.Total()).To(gomega.Equal(1))
	})

	ginkgo.It("should reset to the first page when the search changes", func() {
		view := newView(WithDebounce[vehicleRow](5 * time.Millisecond))
		view.Load()
		view.SetPage(3)

		view.SetSearch("OR-0")

		gomega.Eventually(func() int { return view.Request().Page }, "1s", "5ms").Should(gomega.Equal(1))
	})

	ginkgo.It("should comma-join statuses on the wire", func() {
		view := newView()
		view.SetStatuses("COMPLETED", "NOT_STARTED")

		q := col.lastRequest().Query()
		gomega.Expect(q.Get("status")).To(gomega.Equal("COMPLETED,NOT_STARTED"))
	})

	ginkgo.It("should filter by status with OR semantics", func() {
		view := newView()
		view.SetStatuses("COMPLETED")

		gomega.Expect(view.Total()).To(gomega.Equal(18))

		view.SetStatuses()
		gomega.Expect(view.Total()).To(gomega.Equal(35))
	})

	ginkgo.It("should discard a stale response", func() {
		view := newView()
		view.Load()
		stale := view.Request().Seq

		view.SetPage(2)

		accepted := view.Accept(stale, []vehicleRow{{Number: "OLD"}}, 1, 1)
		gomega.Expect(accepted).To(gomega.BeFalse())
		gomega.Expect(view.Rows()[0].Number).ToNot(gomega.Equal("OLD"))
	})

	ginkgo.It("should sort by a sortable column and reset the page", func() {
		view := newView(WithColumns[vehicleRow](
			Column[vehicleRow]{Key: "number", Title: "Order", Sortable: true},
			Column[vehicleRow]{Key: "status", Title: "Status", Render: RenderBadge},
		))
		view.Load()
		view.SetPage(3)

		view.SetSort("-number")

		req := col.lastRequest()
		gomega.Expect(req.Sort).To(gomega.Equal("-number"))
		gomega.Expect(req.Page).To(gomega.Equal(1))
		gomega.Expect(req.Query().Get("sort")).To(gomega.Equal("-number"))
	})

	ginkgo.It("should ignore a sort on a column that is not sortable", func() {
		view := newView(WithColumns[vehicleRow](
			Column[vehicleRow]{Key: "number", Title: "Order", Sortable: true},
			Column[vehicleRow]{Key: "status", Title: "Status"},
		))
		view.Load()
		before := col.requestCount()

		view.SetSort("status")

		gomega.Expect(col.requestCount()).To(gomega.Equal(before))
		gomega.Expect(view.Request().Sort).To(gomega.BeEmpty())
	})

	ginkgo.It("should tell an empty dataset apart from an empty match", func() {
		view := newView()
		gomega.Expect(view.Empty()).To(gomega.Equal(EmptyNone))

		view.Load()
		gomega.Expect(view.Empty()).To(gomega.Equal(EmptyNone))

		view.SetStatuses("CANCELLED")
		gomega.Expect(view.Total()).To(gomega.BeZero())
		gomega.Expect(view.Empty()).To(gomega.Equal(EmptyNoMatch))

		view.SetStatuses()
		col.dataset = nil
		view.Refresh()
		gomega.Expect(view.Empty()).To(gomega.Equal(EmptyNoData))
	})

	ginkgo.It("should only offer actions the session permits", func() {
		store := NewStore()
		store.Set(&Session{User: &User{ID: "u-1", Permissions: []string{"workorder.view"}}})
		gate := NewGate(store)

		view := newView(WithActions[vehicleRow](
			Action[vehicleRow]{Label: "Open", Permission: "workorder.view"},
			Action[vehicleRow]{Label: "Delete", Permission: "workorder.manage"},
		))

		actions := view.VisibleActions(gate)
		gomega.Expect(actions).To(gomega.HaveLen(1))
		gomega.Expect(actions[0].Label).To(gomega.Equal("Open"))
	})
})
