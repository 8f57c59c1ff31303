// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/swarmforge/swarm/lib/clock"
	"github.com/swarmforge/swarm/lib/notify"
	"github.com/swarmforge/swarm/lib/schema"
	"github.com/swarmforge/swarm/lib/store"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	engine   *Engine
	store    *store.Store
	recorder *notify.Recorder
	clock    *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fakeClock := clock.Fake(epoch)
	st, err := store.Open(t.TempDir(), fakeClock)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	recorder := notify.NewRecorder()
	return &fixture{
		engine:   New(st, recorder, fakeClock),
		store:    st,
		recorder: recorder,
		clock:    fakeClock,
	}
}

// newProject returns a fixture with an initialized project, a
// coordinator session, and two registered groups.
func newProject(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	if err := f.engine.Init("demo"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := f.engine.SetCoordinatorSession("swarm_td"); err != nil {
		t.Fatalf("SetCoordinatorSession: %v", err)
	}
	for _, group := range []string{"alpha", "beta"} {
		if err := f.engine.RegisterGroup(group, "swarm_"+group); err != nil {
			t.Fatalf("RegisterGroup(%s): %v", group, err)
		}
	}
	return f
}

func (f *fixture) create(t *testing.T, title, assignee string) schema.Task {
	t.Helper()
	task, err := f.engine.Create(title, "", assignee)
	if err != nil {
		t.Fatalf("Create(%q): %v", title, err)
	}
	return task
}

func (f *fixture) task(t *testing.T, id int64) schema.Task {
	t.Helper()
	for _, task := range f.store.LoadTasks() {
		if task.ID == id {
			return task
		}
	}
	t.Fatalf("task #%d not in store", id)
	panic("unreachable")
}

func TestInit(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.Create("early", "", ""); !errors.Is(err, ErrUninitialized) {
		t.Fatalf("Create before Init: %v, want ErrUninitialized", err)
	}

	if err := f.engine.Init("demo"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	config := f.store.LoadConfig()
	if config == nil || config.Name != "demo" || !config.CreatedAt.Equal(epoch) {
		t.Fatalf("config after Init = %+v", config)
	}

	if err := f.engine.Init("other"); err == nil || !strings.Contains(err.Error(), "already initialized") {
		t.Fatalf("second Init: %v, want already-initialized error", err)
	}
	if err := f.engine.Init("no spaces allowed"); err == nil {
		t.Fatal("Init accepted an invalid project name")
	}
}

func TestRegisterGroup(t *testing.T) {
	f := newProject(t)

	if err := f.engine.RegisterGroup(schema.Coordinator, "s"); err == nil {
		t.Fatal("RegisterGroup accepted the reserved coordinator id")
	}
	if err := f.engine.RegisterGroup("bad id", "s"); err == nil {
		t.Fatal("RegisterGroup accepted an invalid group id")
	}

	joined := f.store.LoadConfig().Group("alpha").JoinedAt

	// Re-registration models an agent reconnecting: the session ref
	// changes, identity and join time do not.
	f.clock.Advance(time.Hour)
	if err := f.engine.RegisterGroup("alpha", "swarm_alpha_2"); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	config := f.store.LoadConfig()
	group := config.Group("alpha")
	if group.Session != "swarm_alpha_2" {
		t.Fatalf("session after re-register = %q", group.Session)
	}
	if !group.JoinedAt.Equal(joined) {
		t.Fatalf("JoinedAt changed on re-register: %v -> %v", joined, group.JoinedAt)
	}
	if len(config.Groups) != 2 || config.Groups[0].ID != "alpha" {
		t.Fatalf("groups after re-register = %+v", config.Groups)
	}
}

func TestCreateIDsAndNotification(t *testing.T) {
	f := newProject(t)

	// The clock is frozen, so every creation lands in the same
	// millisecond; ids must still come out distinct and increasing.
	first := f.create(t, "one", "")
	second := f.create(t, "two", "alpha")
	third := f.create(t, "three", "alpha")
	if !(first.ID < second.ID && second.ID < third.ID) {
		t.Fatalf("ids not increasing: %d, %d, %d", first.ID, second.ID, third.ID)
	}
	if first.Status != schema.TaskPending || !first.CreatedAt.Equal(epoch) {
		t.Fatalf("created task = %+v", first)
	}

	if _, err := f.engine.Create("", "", ""); err == nil {
		t.Fatal("Create accepted an empty title")
	}
	var notFound *NotFoundError
	if _, err := f.engine.Create("t", "", "ghost"); !errors.As(err, &notFound) || notFound.Kind != "group" {
		t.Fatalf("Create with unknown assignee: %v", err)
	}

	// Only the assigned creations notify, and only their assignee.
	deliveries := f.recorder.Deliveries()
	if len(deliveries) != 2 {
		t.Fatalf("deliveries = %+v, want 2", deliveries)
	}
	for _, d := range deliveries {
		if d.Target != "swarm_alpha" || !strings.Contains(d.Text, "new task") {
			t.Fatalf("unexpected delivery %+v", d)
		}
	}
}

func TestDependencyEdgesMirroredAndDeduplicated(t *testing.T) {
	f := newProject(t)
	a := f.create(t, "a", "")
	b := f.create(t, "b", "")

	if err := f.engine.AddDependency(a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	gotA, gotB := f.task(t, a.ID), f.task(t, b.ID)
	if len(gotA.Blocks) != 1 || gotA.Blocks[0] != b.ID {
		t.Fatalf("blocker edges = %v", gotA.Blocks)
	}
	if len(gotB.BlockedBy) != 1 || gotB.BlockedBy[0] != a.ID {
		t.Fatalf("blocked edges = %v", gotB.BlockedBy)
	}

	// The duplicate edge changes nothing, including the version the
	// watchers poll.
	version := f.store.TaskVersion()
	if err := f.engine.AddDependency(a.ID, b.ID); err != nil {
		t.Fatalf("duplicate AddDependency: %v", err)
	}
	if gotA := f.task(t, a.ID); len(gotA.Blocks) != 1 {
		t.Fatalf("edges duplicated: %v", gotA.Blocks)
	}
	if f.store.TaskVersion() != version {
		t.Fatal("no-op AddDependency bumped the task version")
	}

	if err := f.engine.AddDependency(a.ID, a.ID); !errors.Is(err, ErrSelfReference) {
		t.Fatalf("self dependency: %v, want ErrSelfReference", err)
	}
	var notFound *NotFoundError
	if err := f.engine.AddDependency(a.ID, 999); !errors.As(err, &notFound) {
		t.Fatalf("dependency on missing task: %v", err)
	}
}

func TestDependencyCycleRejected(t *testing.T) {
	f := newProject(t)
	a := f.create(t, "a", "")
	b := f.create(t, "b", "")
	c := f.create(t, "c", "")

	// a -> b -> c, then closing the loop from either end must fail.
	if err := f.engine.AddDependency(a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if err := f.engine.AddDependency(b.ID, c.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}

	var cycle *CycleError
	if err := f.engine.AddDependency(c.ID, a.ID); !errors.As(err, &cycle) {
		t.Fatalf("transitive cycle: %v, want CycleError", err)
	}
	if err := f.engine.AddDependency(b.ID, a.ID); !errors.As(err, &cycle) {
		t.Fatalf("direct reverse edge: %v, want CycleError", err)
	}

	// The rejected edges left no partial writes behind.
	if got := f.task(t, c.ID); len(got.Blocks) != 0 {
		t.Fatalf("rejected edge persisted: %v", got.Blocks)
	}
}

func TestRemoveDependency(t *testing.T) {
	f := newProject(t)
	a := f.create(t, "a", "")
	b := f.create(t, "b", "")
	if err := f.engine.AddDependency(a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}

	if err := f.engine.RemoveDependency(a.ID, b.ID); err != nil {
		t.Fatalf("RemoveDependency: %v", err)
	}
	if got := f.task(t, a.ID); len(got.Blocks) != 0 {
		t.Fatalf("blocks after remove = %v", got.Blocks)
	}
	if got := f.task(t, b.ID); len(got.BlockedBy) != 0 {
		t.Fatalf("blocked_by after remove = %v", got.BlockedBy)
	}

	// Absent edge: no error, no write.
	version := f.store.TaskVersion()
	if err := f.engine.RemoveDependency(a.ID, b.ID); err != nil {
		t.Fatalf("removing absent edge: %v", err)
	}
	if f.store.TaskVersion() != version {
		t.Fatal("no-op RemoveDependency bumped the task version")
	}

	var notFound *NotFoundError
	if err := f.engine.RemoveDependency(a.ID, 999); !errors.As(err, &notFound) {
		t.Fatalf("RemoveDependency with missing task: %v", err)
	}
}

func TestBlockersDerived(t *testing.T) {
	f := newProject(t)
	a := f.create(t, "foundation", "alpha")
	b := f.create(t, "walls", "")
	c := f.create(t, "roof", "")
	for _, blocker := range []int64{a.ID, b.ID} {
		if err := f.engine.AddDependency(blocker, c.ID); err != nil {
			t.Fatalf("AddDependency: %v", err)
		}
	}

	blockers, err := f.engine.Blockers(c.ID)
	if err != nil {
		t.Fatalf("Blockers: %v", err)
	}
	if len(blockers) != 2 {
		t.Fatalf("blockers = %+v, want both", blockers)
	}

	if err := f.engine.Complete(a.ID, "alpha"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	blockers, err = f.engine.Blockers(c.ID)
	if err != nil {
		t.Fatalf("Blockers: %v", err)
	}
	if len(blockers) != 1 || blockers[0].ID != b.ID {
		t.Fatalf("blockers after completing one = %+v", blockers)
	}

	if _, err := f.engine.Blockers(999); err == nil {
		t.Fatal("Blockers on missing task succeeded")
	}
}

func TestBlockersSkipDanglingIDs(t *testing.T) {
	f := newProject(t)
	a := f.create(t, "a", "")

	// A hand-edited document can reference ids that no longer exist;
	// they must read as non-blocking, not crash or block forever.
	tasks := f.store.LoadTasks()
	tasks[0].BlockedBy = []int64{12345}
	if err := f.store.SaveTasks(tasks); err != nil {
		t.Fatalf("SaveTasks: %v", err)
	}

	blockers, err := f.engine.Blockers(a.ID)
	if err != nil {
		t.Fatalf("Blockers: %v", err)
	}
	if len(blockers) != 0 {
		t.Fatalf("dangling id reported as blocker: %+v", blockers)
	}
	if err := f.engine.Complete(a.ID, schema.Coordinator); err != nil {
		t.Fatalf("Complete with dangling blocker id: %v", err)
	}
}

func TestAssign(t *testing.T) {
	f := newProject(t)
	a := f.create(t, "a", "")
	b := f.create(t, "b", "")
	if err := f.engine.AddDependency(a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}

	// Blocked tasks are assignable; only completion is gated.
	if err := f.engine.Assign(b.ID, "beta"); err != nil {
		t.Fatalf("Assign of blocked task: %v", err)
	}
	if got := f.task(t, b.ID); got.Assignee != "beta" {
		t.Fatalf("assignee = %q", got.Assignee)
	}

	deliveries := f.recorder.Deliveries()
	if len(deliveries) != 1 || deliveries[0].Target != "swarm_beta" {
		t.Fatalf("deliveries = %+v", deliveries)
	}

	var notFound *NotFoundError
	if err := f.engine.Assign(b.ID, "ghost"); !errors.As(err, &notFound) {
		t.Fatalf("Assign to unknown group: %v", err)
	}
	if err := f.engine.Assign(999, "alpha"); !errors.As(err, &notFound) {
		t.Fatalf("Assign of missing task: %v", err)
	}
}

func TestCompletePermissions(t *testing.T) {
	f := newProject(t)
	task := f.create(t, "work", "alpha")

	var denied *PermissionDeniedError
	if err := f.engine.Complete(task.ID, "beta"); !errors.As(err, &denied) {
		t.Fatalf("Complete by non-assignee: %v, want PermissionDeniedError", err)
	}
	if got := f.task(t, task.ID); got.Completed() {
		t.Fatal("denied completion persisted")
	}

	if err := f.engine.Complete(task.ID, "alpha"); err != nil {
		t.Fatalf("Complete by assignee: %v", err)
	}

	other := f.create(t, "more", "alpha")
	if err := f.engine.Complete(other.ID, schema.Coordinator); err != nil {
		t.Fatalf("Complete by coordinator: %v", err)
	}
}

func TestCompleteGatingAndStamp(t *testing.T) {
	f := newProject(t)
	blocker := f.create(t, "dig hole", "alpha")
	blocked := f.create(t, "plant tree", "alpha")
	if err := f.engine.AddDependency(blocker.ID, blocked.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}

	var blockedErr *BlockedError
	if err := f.engine.Complete(blocked.ID, "alpha"); !errors.As(err, &blockedErr) {
		t.Fatalf("Complete of blocked task: %v, want BlockedError", err)
	}
	if len(blockedErr.Blockers) != 1 || blockedErr.Blockers[0].Title != "dig hole" {
		t.Fatalf("BlockedError.Blockers = %+v", blockedErr.Blockers)
	}
	if !strings.Contains(blockedErr.Error(), "dig hole") {
		t.Fatalf("error text omits the blocker title: %v", blockedErr)
	}

	if err := f.engine.Complete(blocker.ID, "alpha"); err != nil {
		t.Fatalf("Complete blocker: %v", err)
	}
	f.clock.Advance(time.Minute)
	if err := f.engine.Complete(blocked.ID, "alpha"); err != nil {
		t.Fatalf("Complete after unblocking: %v", err)
	}
	got := f.task(t, blocked.ID)
	if !got.CompletedAt.Equal(epoch.Add(time.Minute)) {
		t.Fatalf("CompletedAt = %v, want clock time", got.CompletedAt)
	}
}

func TestCompleteNotifiesCoordinatorOnce(t *testing.T) {
	f := newProject(t)
	task := f.create(t, "work", "alpha")

	if err := f.engine.Complete(task.ID, "alpha"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	// Re-completing is a no-op and must not re-announce.
	if err := f.engine.Complete(task.ID, "alpha"); err != nil {
		t.Fatalf("repeat Complete: %v", err)
	}

	deliveries := f.recorder.Deliveries()
	var toCoordinator []notify.Delivery
	for _, d := range deliveries {
		if d.Target == "swarm_td" {
			toCoordinator = append(toCoordinator, d)
		}
	}
	if len(toCoordinator) != 1 || !strings.Contains(toCoordinator[0].Text, "completed by alpha") {
		t.Fatalf("coordinator deliveries = %+v", toCoordinator)
	}

	// The coordinator acting on its own does not message itself.
	other := f.create(t, "more", "alpha")
	before := len(f.recorder.Deliveries())
	if err := f.engine.Complete(other.ID, schema.Coordinator); err != nil {
		t.Fatalf("Complete by coordinator: %v", err)
	}
	if len(f.recorder.Deliveries()) != before {
		t.Fatal("coordinator completion produced a notification")
	}
}

func TestUncomplete(t *testing.T) {
	f := newProject(t)
	task := f.create(t, "work", "alpha")
	if err := f.engine.Complete(task.ID, "alpha"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	var denied *PermissionDeniedError
	if err := f.engine.Uncomplete(task.ID, "beta"); !errors.As(err, &denied) {
		t.Fatalf("Uncomplete by non-assignee: %v", err)
	}

	if err := f.engine.Uncomplete(task.ID, "alpha"); err != nil {
		t.Fatalf("Uncomplete: %v", err)
	}
	got := f.task(t, task.ID)
	if got.Status != schema.TaskPending || !got.CompletedAt.IsZero() {
		t.Fatalf("task after Uncomplete = %+v", got)
	}

	// Uncompleting a pending task is a no-op.
	version := f.store.TaskVersion()
	if err := f.engine.Uncomplete(task.ID, "alpha"); err != nil {
		t.Fatalf("repeat Uncomplete: %v", err)
	}
	if f.store.TaskVersion() != version {
		t.Fatal("no-op Uncomplete bumped the task version")
	}
}

func TestDeletePrunesEdges(t *testing.T) {
	f := newProject(t)
	a := f.create(t, "a", "")
	b := f.create(t, "b", "")
	c := f.create(t, "c", "")
	if err := f.engine.AddDependency(a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if err := f.engine.AddDependency(b.ID, c.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}

	if err := f.engine.Delete(b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := f.task(t, a.ID); len(got.Blocks) != 0 {
		t.Fatalf("deleted id survives in blocks: %v", got.Blocks)
	}
	if got := f.task(t, c.ID); len(got.BlockedBy) != 0 {
		t.Fatalf("deleted id survives in blocked_by: %v", got.BlockedBy)
	}

	var notFound *NotFoundError
	if err := f.engine.Delete(b.ID); !errors.As(err, &notFound) {
		t.Fatalf("double Delete: %v", err)
	}
}

func TestListAndTasksFor(t *testing.T) {
	f := newProject(t)
	a := f.create(t, "a", "alpha")
	b := f.create(t, "b", "alpha")
	c := f.create(t, "c", "beta")
	if err := f.engine.AddDependency(a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if err := f.engine.Complete(c.ID, "beta"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	tests := []struct {
		filter string
		want   []int64
	}{
		{FilterAll, []int64{a.ID, b.ID, c.ID}},
		{FilterPending, []int64{a.ID, b.ID}},
		{FilterCompleted, []int64{c.ID}},
		{FilterBlocked, []int64{b.ID}},
		{FilterReady, []int64{a.ID}},
	}
	for _, tt := range tests {
		got, err := f.engine.List(tt.filter)
		if err != nil {
			t.Fatalf("List(%q): %v", tt.filter, err)
		}
		ids := make([]int64, len(got))
		for i, task := range got {
			ids[i] = task.ID
		}
		if len(ids) != len(tt.want) {
			t.Fatalf("List(%q) = %v, want %v", tt.filter, ids, tt.want)
		}
		for i := range ids {
			if ids[i] != tt.want[i] {
				t.Fatalf("List(%q) = %v, want %v", tt.filter, ids, tt.want)
			}
		}
	}
	if _, err := f.engine.List("bogus"); err == nil {
		t.Fatal("List accepted an unknown filter")
	}

	mine := f.engine.TasksFor("alpha")
	if len(mine) != 2 || mine[0].ID != a.ID || mine[1].ID != b.ID {
		t.Fatalf("TasksFor(alpha) = %+v", mine)
	}
	if got := f.engine.TasksFor("ghost"); len(got) != 0 {
		t.Fatalf("TasksFor(ghost) = %+v", got)
	}
}

func TestSendMessage(t *testing.T) {
	f := newProject(t)

	delivered, err := f.engine.SendMessage("alpha", schema.Coordinator, "need review")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if !delivered {
		t.Fatal("delivery to live coordinator session reported false")
	}

	f.recorder.FailFor("swarm_beta")
	delivered, err = f.engine.SendMessage(schema.Coordinator, "beta", "status?")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if delivered {
		t.Fatal("delivery to unreachable session reported true")
	}

	// Both messages are durably logged regardless of delivery.
	messages := f.store.LoadMessages()
	if len(messages) != 2 {
		t.Fatalf("message log = %+v", messages)
	}
	if messages[0].From != "alpha" || messages[0].To != schema.Coordinator || !messages[0].SentAt.Equal(epoch) {
		t.Fatalf("logged message = %+v", messages[0])
	}

	var notFound *NotFoundError
	if _, err := f.engine.SendMessage("alpha", "ghost", "hi"); !errors.As(err, &notFound) {
		t.Fatalf("SendMessage to unknown recipient: %v", err)
	}
}

func TestReportProgress(t *testing.T) {
	f := newProject(t)
	task := f.create(t, "work", "alpha")

	delivered, err := f.engine.ReportProgress("alpha", task.ID, "tests passing")
	if err != nil {
		t.Fatalf("ReportProgress: %v", err)
	}
	if !delivered {
		t.Fatal("progress delivery reported false")
	}

	data, err := os.ReadFile(f.store.AgentLogPath("alpha"))
	if err != nil {
		t.Fatalf("reading agent log: %v", err)
	}
	if !strings.Contains(string(data), "tests passing") || !strings.Contains(string(data), "2026-03-01T09:00:00") {
		t.Fatalf("agent log = %q", data)
	}

	deliveries := f.recorder.Deliveries()
	last := deliveries[len(deliveries)-1]
	if last.Target != "swarm_td" || !strings.Contains(last.Text, "progress: tests passing") {
		t.Fatalf("progress delivery = %+v", last)
	}

	var denied *PermissionDeniedError
	if _, err := f.engine.ReportProgress("beta", task.ID, "mine now"); !errors.As(err, &denied) {
		t.Fatalf("ReportProgress by non-assignee: %v", err)
	}
}

// TestConcurrentCreatesAllSurvive is the lost-update regression: two
// engines over the same directory racing load-mutate-save must not
// overwrite each other's task.
func TestConcurrentCreatesAllSurvive(t *testing.T) {
	f := newProject(t)
	second := New(f.store, notify.NewRecorder(), f.clock)

	const perEngine = 8
	var wg sync.WaitGroup
	for _, engine := range []*Engine{f.engine, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perEngine; i++ {
				if _, err := engine.Create("racing", "", ""); err != nil {
					t.Errorf("Create: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	tasks := f.store.LoadTasks()
	if len(tasks) != 2*perEngine {
		t.Fatalf("survived tasks = %d, want %d", len(tasks), 2*perEngine)
	}
	seen := make(map[int64]bool)
	for _, task := range tasks {
		if seen[task.ID] {
			t.Fatalf("duplicate id %d", task.ID)
		}
		seen[task.ID] = true
	}
}
