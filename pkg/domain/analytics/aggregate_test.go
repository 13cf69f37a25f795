package analytics

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/felixgeelhaar/teampulse/pkg/domain/tasks"
)

// Wednesday; the current ISO week starts Monday 2025-03-10.
var testNow = time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)

func daysAgo(n float64) time.Time {
	return testNow.Add(-time.Duration(n * 24 * float64(time.Hour)))
}

func ptr(t time.Time) *time.Time { return &t }

func task(id, assignee string, state tasks.TaskState, created time.Time) tasks.Task {
	t := tasks.Task{
		ID:        id,
		Title:     "Task " + id,
		State:     state,
		Priority:  tasks.PriorityMedium,
		CreatedAt: created,
	}
	if assignee != "" {
		t.AssigneeID = assignee
		t.AssigneeName = "Name " + assignee
	}
	return t
}

func doneTask(id, assignee string, created, completed time.Time) tasks.Task {
	t := task(id, assignee, tasks.StateDone, created)
	t.UpdatedAt = ptr(completed)
	return t
}

func TestAggregate_EmptyInput(t *testing.T) {
	report := Aggregate(nil, testNow, DefaultOptions())

	if report.Stats != (Stats{}) {
		t.Errorf("expected zero stats, got %+v", report.Stats)
	}
	if report.Workload == nil || len(report.Workload) != 0 {
		t.Errorf("expected empty non-nil workload, got %#v", report.Workload)
	}
	if len(report.WeeklyTrend) != WeekCount {
		t.Fatalf("expected %d weekly buckets, got %d", WeekCount, len(report.WeeklyTrend))
	}
	for i, b := range report.WeeklyTrend {
		if b.Created != 0 || b.Completed != 0 {
			t.Errorf("bucket %d not empty: %+v", i, b)
		}
	}
	if report.StagnationAlerts == nil || len(report.StagnationAlerts) != 0 {
		t.Errorf("expected empty stagnation alerts, got %#v", report.StagnationAlerts)
	}
	if report.Leaderboard == nil || report.TagFocus.Tags == nil {
		t.Error("slices must be empty, not nil")
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["workload"].([]any); !ok {
		t.Errorf("workload should encode as an array, got %v", decoded["workload"])
	}

	flow := AggregateFlow([]tasks.Task{}, testNow, Options{})
	if flow.FlowHealth.Score != 0 || flow.FlowHealth.Status != FlowHealthy {
		t.Errorf("empty flow health = %+v", flow.FlowHealth)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	input := []tasks.Task{
		task("1", "u1", tasks.StatePending, daysAgo(10)),
		task("2", "u2", tasks.StateInProgress, daysAgo(20)),
		doneTask("3", "u1", daysAgo(9), daysAgo(2)),
		task("4", "", tasks.StateBlocked, daysAgo(1)),
	}
	input[0].Tags = []string{"ops", "finanzas"}
	input[2].Tags = []string{"ops"}

	first := Aggregate(input, testNow, DefaultOptions())
	second := Aggregate(input, testNow, DefaultOptions())
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Aggregate is not idempotent")
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatal("Aggregate output differs between runs")
	}

	fa, _ := json.Marshal(AggregateFlow(input, testNow, DefaultOptions()))
	fb, _ := json.Marshal(AggregateFlow(input, testNow, DefaultOptions()))
	if string(fa) != string(fb) {
		t.Fatal("AggregateFlow output differs between runs")
	}
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	input := []tasks.Task{
		task("a", "u1", tasks.StatePending, daysAgo(3)),
		task("b", "u1", tasks.StatePending, daysAgo(1)),
	}
	before := fmt.Sprintf("%+v", input)
	report := Aggregate(input, testNow, DefaultOptions())
	report.Workload[0].PendingTasks[0].Title = "changed"

	if after := fmt.Sprintf("%+v", input); after != before {
		t.Fatal("input tasks were mutated")
	}
}

func TestAggregate_WorkloadConservation(t *testing.T) {
	input := []tasks.Task{
		task("1", "u1", tasks.StatePending, daysAgo(1)),
		task("2", "u1", tasks.StateInProgress, daysAgo(1)),
		task("3", "u1", tasks.StateCancelled, daysAgo(1)),
		doneTask("4", "u1", daysAgo(5), daysAgo(1)),
		task("5", "u2", tasks.StateBlocked, daysAgo(1)),
		task("6", "", tasks.StatePending, daysAgo(1)),
	}
	report := Aggregate(input, testNow, DefaultOptions())

	counts := map[string]int{}
	for _, tk := range input {
		if tk.IsAssigned() {
			counts[tk.AssigneeID]++
		}
	}
	for _, w := range report.Workload {
		if w.Pending+w.Completed != counts[w.AssigneeID] {
			t.Errorf("%s: pending %d + completed %d != %d", w.AssigneeID, w.Pending, w.Completed, counts[w.AssigneeID])
		}
		if w.Total != w.Pending+w.Completed {
			t.Errorf("%s: total %d != pending + completed", w.AssigneeID, w.Total)
		}
		if len(w.PendingTasks) != w.Pending {
			t.Errorf("%s: %d pending tasks listed, want %d", w.AssigneeID, len(w.PendingTasks), w.Pending)
		}
	}

	u1, ok := FindWorkload(report.Workload, "u1")
	if !ok {
		t.Fatal("u1 missing from workload")
	}
	if u1.Pending != 3 || u1.InProgress != 1 || u1.Completed != 1 {
		t.Errorf("unexpected u1 workload: %+v", u1)
	}
	if report.Unassigned.Total != 1 || report.Unassigned.Pending != 1 {
		t.Errorf("unexpected unassigned summary: %+v", report.Unassigned)
	}
	if _, ok := FindWorkload(report.Workload, ""); ok {
		t.Error("unassigned bucket must not appear in member workload")
	}
}

func TestAggregate_UnresolvedAssigneeIsUnassigned(t *testing.T) {
	ghost := tasks.Task{ID: "g", AssigneeID: "ghost", State: tasks.StatePending, CreatedAt: daysAgo(1)}
	report := Aggregate([]tasks.Task{ghost}, testNow, DefaultOptions())

	if len(report.Workload) != 0 {
		t.Errorf("expected no member workload, got %+v", report.Workload)
	}
	if report.Unassigned.Pending != 1 {
		t.Errorf("expected 1 unassigned pending task, got %+v", report.Unassigned)
	}
}

func TestAggregate_LoadClassification(t *testing.T) {
	var input []tasks.Task
	add := func(assignee string, n int) {
		for i := 0; i < n; i++ {
			input = append(input, task(fmt.Sprintf("%s-%d", assignee, i), assignee, tasks.StatePending, daysAgo(1)))
		}
	}
	add("heavy", 13)
	add("light", 3)
	add("even", 8)

	report := Aggregate(input, testNow, Options{IdealLoad: 8})

	want := map[string]LoadStatus{
		"heavy": LoadOverloaded,
		"light": LoadAvailable,
		"even":  LoadBalanced,
	}
	for id, status := range want {
		w, ok := FindWorkload(report.Workload, id)
		if !ok {
			t.Fatalf("missing workload for %s", id)
		}
		if w.Load != status {
			t.Errorf("%s with %d pending: load = %s, want %s", id, w.Pending, w.Load, status)
		}
	}

	order := []string{report.Workload[0].AssigneeID, report.Workload[1].AssigneeID, report.Workload[2].AssigneeID}
	if !reflect.DeepEqual(order, []string{"heavy", "even", "light"}) {
		t.Errorf("workload not sorted by pending desc: %v", order)
	}
}

func TestClassifyLoad(t *testing.T) {
	tests := []struct {
		pending int
		want    LoadStatus
	}{
		{13, LoadOverloaded},
		{12, LoadBalanced},
		{8, LoadBalanced},
		{4, LoadBalanced},
		{3, LoadAvailable},
		{0, LoadAvailable},
	}
	for _, tt := range tests {
		if got := ClassifyLoad(tt.pending, 8); got != tt.want {
			t.Errorf("ClassifyLoad(%d, 8) = %s, want %s", tt.pending, got, tt.want)
		}
	}
}

func TestAggregate_InProgressCasingVariants(t *testing.T) {
	var input []tasks.Task
	for i, label := range []string{"En Progreso", "En progreso"} {
		tk := task(fmt.Sprintf("t%d", i), "u1", tasks.ParseStateLabel(label), daysAgo(1))
		input = append(input, tk)
	}

	report := Aggregate(input, testNow, DefaultOptions())
	if report.Stats.InProgress != 2 {
		t.Errorf("stats.in_progress = %d, want 2", report.Stats.InProgress)
	}
	w, _ := FindWorkload(report.Workload, "u1")
	if w.InProgress != 2 {
		t.Errorf("workload in_progress = %d, want 2", w.InProgress)
	}
}

func TestAggregate_StatsOverdueAndCompletedThisWeek(t *testing.T) {
	overdue := task("o", "u1", tasks.StatePending, daysAgo(10))
	overdue.DueDate = ptr(daysAgo(1))
	doneLate := doneTask("d", "u1", daysAgo(10), daysAgo(20))
	doneLate.DueDate = ptr(daysAgo(30))

	input := []tasks.Task{
		overdue,
		doneLate,
		doneTask("w", "u1", daysAgo(3), daysAgo(1)), // Tuesday of the current week
		doneTask("x", "u1", daysAgo(10), daysAgo(4)), // previous week
	}
	report := Aggregate(input, testNow, DefaultOptions())

	if report.Stats.Overdue != 1 {
		t.Errorf("overdue = %d, want 1", report.Stats.Overdue)
	}
	if report.Stats.CompletedThisWeek != 1 {
		t.Errorf("completed this week = %d, want 1", report.Stats.CompletedThisWeek)
	}
	if report.Stats.Total != 4 || report.Stats.Completed != 3 || report.Stats.Pending != 1 {
		t.Errorf("unexpected stats: %+v", report.Stats)
	}
}

func TestAggregate_WeeklyBuckets(t *testing.T) {
	input := []tasks.Task{
		task("a", "u1", tasks.StatePending, daysAgo(0.5)),              // current week
		task("b", "u1", tasks.StatePending, daysAgo(8)),                // week -1
		doneTask("c", "u1", daysAgo(40), daysAgo(16)),                  // completed week -2
		task("d", "u1", tasks.StatePending, daysAgo(60)),               // outside window
		doneTask("e", "u1", daysAgo(23), daysAgo(1)),                   // created week -3, completed current
	}
	report := Aggregate(input, testNow, DefaultOptions())
	b := report.WeeklyTrend

	wantCreated := []int{1, 0, 1, 1}
	wantCompleted := []int{0, 1, 0, 1}
	for i := range b {
		if b[i].Created != wantCreated[i] || b[i].Completed != wantCompleted[i] {
			t.Errorf("week %d (%s): created=%d completed=%d, want %d/%d",
				i, b[i].Label, b[i].Created, b[i].Completed, wantCreated[i], wantCompleted[i])
		}
	}
}

func TestAggregate_ResolutionStats(t *testing.T) {
	high := doneTask("h", "u1", daysAgo(5), daysAgo(1)) // 4 days
	high.Priority = tasks.PriorityHigh
	input := []tasks.Task{
		doneTask("a", "u1", daysAgo(3), daysAgo(1)),   // 2 days
		doneTask("b", "u1", daysAgo(11), daysAgo(1)),  // 10 days
		high,
		doneTask("old", "u1", daysAgo(200), daysAgo(120)), // outside 3 months
	}
	res := Aggregate(input, testNow, DefaultOptions()).Resolution

	if res.Samples != 3 {
		t.Fatalf("samples = %d, want 3", res.Samples)
	}
	if got, want := res.MeanDays, 16.0/3; !almostEqual(got, want) {
		t.Errorf("mean = %v, want %v", got, want)
	}
	if !almostEqual(res.MedianDays, 4) {
		t.Errorf("median = %v, want 4", res.MedianDays)
	}
	if len(res.ByPriority) != 2 || res.ByPriority[0].Priority != tasks.PriorityMedium || res.ByPriority[1].Priority != tasks.PriorityHigh {
		t.Fatalf("unexpected by-priority breakdown: %+v", res.ByPriority)
	}
	if !almostEqual(res.ByPriority[0].MeanDays, 6) || !almostEqual(res.ByPriority[1].MeanDays, 4) {
		t.Errorf("unexpected priority means: %+v", res.ByPriority)
	}
}

func TestAggregate_Bottlenecks(t *testing.T) {
	input := []tasks.Task{
		task("p1", "u1", tasks.StatePending, daysAgo(1)),
		task("p2", "u1", tasks.StatePending, daysAgo(0.5)),
		task("i1", "u1", tasks.StateInProgress, daysAgo(5)),
		task("b1", "u1", tasks.StateBlocked, daysAgo(20)),
		task("b2", "u1", tasks.StateBlocked, daysAgo(16)),
		task("c1", "u1", tasks.StateCancelled, daysAgo(90)),
		doneTask("d1", "u1", daysAgo(90), daysAgo(1)),
	}
	b := Aggregate(input, testNow, DefaultOptions()).Bottlenecks

	if len(b) != 3 {
		t.Fatalf("expected 3 open states, got %+v", b)
	}
	worst, ok := b.Worst()
	if !ok || worst.State != tasks.StateBlocked || worst.Severity != SeverityBlocked {
		t.Errorf("worst = %+v, want blocked/blocked", worst)
	}
	if b[1].State != tasks.StateInProgress || b[1].Severity != SeverityNormal {
		t.Errorf("second = %+v, want in_progress/normal", b[1])
	}
	if b[2].State != tasks.StatePending || b[2].Severity != SeverityFast || b[2].Count != 2 {
		t.Errorf("third = %+v, want pending/fast with 2 tasks", b[2])
	}
}

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		mean float64
		want Severity
	}{
		{0.5, SeverityFast},
		{2, SeverityNormal},
		{7, SeverityNormal},
		{7.5, SeveritySlow},
		{14, SeveritySlow},
		{14.1, SeverityBlocked},
	}
	for _, tt := range tests {
		if got := classifySeverity(tt.mean); got != tt.want {
			t.Errorf("classifySeverity(%v) = %s, want %s", tt.mean, got, tt.want)
		}
	}
}

func TestAggregate_StagnationFallbackThreshold(t *testing.T) {
	input := []tasks.Task{
		task("fresh", "u1", tasks.StateInProgress, daysAgo(6)),
		task("stale", "u1", tasks.StateInProgress, daysAgo(14)),
		task("pending", "u1", tasks.StatePending, daysAgo(30)),
	}
	report := Aggregate(input, testNow, DefaultOptions())

	if report.StagnationThresholdDays != 7 {
		t.Fatalf("threshold = %v, want exactly 7", report.StagnationThresholdDays)
	}
	if len(report.StagnationAlerts) != 1 || report.StagnationAlerts[0].TaskID != "stale" {
		t.Fatalf("unexpected alerts: %+v", report.StagnationAlerts)
	}
	if !almostEqual(report.StagnationAlerts[0].ThresholdMultiple, 2) {
		t.Errorf("multiple = %v, want 2", report.StagnationAlerts[0].ThresholdMultiple)
	}
}

func TestAggregate_StagnationUsesMedianAndSortsStable(t *testing.T) {
	touched := task("touched", "u1", tasks.StateInProgress, daysAgo(40))
	touched.UpdatedAt = ptr(daysAgo(1))
	input := []tasks.Task{
		doneTask("r1", "u1", daysAgo(3), daysAgo(1)), // 2 days
		doneTask("r2", "u1", daysAgo(4), daysAgo(1)), // 3 days
		doneTask("r3", "u1", daysAgo(5), daysAgo(1)), // 4 days
		task("a", "u1", tasks.StateInProgress, daysAgo(9)),
		task("b", "u2", tasks.StateInProgress, daysAgo(12)),
		task("c", "u2", tasks.StateInProgress, daysAgo(9)),
		touched,
	}
	report := Aggregate(input, testNow, DefaultOptions())

	if !almostEqual(report.StagnationThresholdDays, 6) {
		t.Fatalf("threshold = %v, want 6 (2 x median 3)", report.StagnationThresholdDays)
	}
	var ids []string
	for _, a := range report.StagnationAlerts {
		ids = append(ids, a.TaskID)
	}
	if !reflect.DeepEqual(ids, []string{"b", "a", "c"}) {
		t.Errorf("alert order = %v, want [b a c]", ids)
	}
}

func TestAggregate_TagFocus(t *testing.T) {
	var input []tasks.Task
	for i := 0; i < 10; i++ {
		tk := task(fmt.Sprintf("t%d", i), "u1", tasks.StatePending, daysAgo(1))
		switch {
		case i < 4:
			tk.Tags = []string{"eventos", " eventos ", "socios"}
		case i < 6:
			tk.Tags = []string{"cuotas"}
		}
		input = append(input, tk)
	}
	for i := 0; i < 9; i++ {
		input[9].Tags = append(input[9].Tags, fmt.Sprintf("z%d", i))
	}

	focus := Aggregate(input, testNow, DefaultOptions()).TagFocus

	if len(focus.Tags) != DefaultTagLimit {
		t.Fatalf("expected top %d tags, got %d", DefaultTagLimit, len(focus.Tags))
	}
	if focus.Tags[0].Tag != "eventos" || focus.Tags[0].Count != 4 || !almostEqual(focus.Tags[0].Percent, 40) {
		t.Errorf("unexpected top tag: %+v", focus.Tags[0])
	}
	if focus.Tags[1].Tag != "socios" || focus.Tags[2].Tag != "cuotas" {
		t.Errorf("unexpected ranking: %+v", focus.Tags[:3])
	}
	if focus.TaggedTasks != 7 || focus.UntaggedTasks != 3 || !almostEqual(focus.UntaggedPercent, 30) {
		t.Errorf("unexpected tagged/untagged split: %+v", focus)
	}
	for _, m := range focus.Tags {
		if m.Percent < 0 || m.Percent > 100.0001 {
			t.Errorf("percent out of range: %+v", m)
		}
	}
}

func TestAggregate_Leaderboard(t *testing.T) {
	var input []tasks.Task
	completions := map[string]int{"a": 1, "b": 5, "c": 3, "d": 3, "e": 2, "f": 4}
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		for i := 0; i < completions[id]; i++ {
			input = append(input, doneTask(fmt.Sprintf("%s%d", id, i), id, daysAgo(5), daysAgo(1)))
		}
	}
	input = append(input, task("g0", "g", tasks.StatePending, daysAgo(1)))

	board := Aggregate(input, testNow, DefaultOptions()).Leaderboard

	var got []string
	for _, e := range board {
		got = append(got, e.AssigneeID)
	}
	if !reflect.DeepEqual(got, []string{"b", "f", "c", "d", "e"}) {
		t.Errorf("leaderboard = %v", got)
	}
	if board[0].Streak != 2 || board[2].Streak != 1 {
		t.Errorf("unexpected streaks: %+v", board)
	}
}

func TestPlaceholderStreak(t *testing.T) {
	for completed, want := range map[int]int{0: 0, 1: 0, 2: 1, 5: 2, 9: 4} {
		if got := PlaceholderStreak(completed); got != want {
			t.Errorf("PlaceholderStreak(%d) = %d, want %d", completed, got, want)
		}
	}
}

func TestAggregate_PercentagesBounded(t *testing.T) {
	input := []tasks.Task{
		task("1", "u1", tasks.StatePending, daysAgo(30)),
		task("2", "u1", tasks.StatePending, daysAgo(1)),
		doneTask("3", "u1", daysAgo(2), daysAgo(1)),
	}
	input[0].Tags = []string{"a", "b"}
	input[1].Tags = []string{"a"}

	flow := AggregateFlow(input, testNow, DefaultOptions())
	check := func(name string, v float64) {
		if v < 0 || v > 100.0001 {
			t.Errorf("%s = %v out of [0,100]", name, v)
		}
	}
	for _, w := range flow.Workload {
		check("stale_percent", w.StalePercent)
	}
	for _, m := range flow.TagFocus.Tags {
		check("tag "+m.Tag, m.Percent)
	}
	check("untagged", flow.TagFocus.UntaggedPercent)
	check("completion", flow.Stats.CompletionRate())
}

func almostEqual(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d < eps && d > -eps
}

func TestAggregateFlow_HealthScore(t *testing.T) {
	weeks := TrailingWeeks(testNow)
	inWeek := func(i int) time.Time { return weeks[i].Start.Add(36 * time.Hour) }
	longAgo := testNow.AddDate(0, -2, 0)

	var input []tasks.Task
	n := 0
	next := func() string { n++; return fmt.Sprintf("t%d", n) }
	for i := 0; i < 2; i++ {
		input = append(input, doneTask(next(), "u1", longAgo, inWeek(0)))
	}
	input = append(input, task(next(), "u1", tasks.StatePending, inWeek(1)))
	for i := 0; i < 3; i++ {
		input = append(input, doneTask(next(), "u1", longAgo, inWeek(2)))
	}
	for i := 0; i < 15; i++ {
		input = append(input, task(next(), "u2", tasks.StatePending, inWeek(3)))
	}

	report := AggregateFlow(input, testNow, DefaultOptions())

	var nets []int
	for _, w := range report.Weeks {
		nets = append(nets, w.Net)
	}
	if !reflect.DeepEqual(nets, []int{2, -1, 3, -15}) {
		t.Fatalf("nets = %v, want [2 -1 3 -15]", nets)
	}
	if report.Weeks[0].Sustainable != true || report.Weeks[3].Sustainable != false {
		t.Errorf("unexpected sustainability flags: %+v", report.Weeks)
	}
	if report.FlowHealth.Score != -11 || report.FlowHealth.Status != FlowCritical {
		t.Errorf("flow health = %+v, want -11/critical", report.FlowHealth)
	}
}

func TestClassifyFlow(t *testing.T) {
	tests := []struct {
		score int
		want  FlowStatus
	}{
		{5, FlowHealthy},
		{0, FlowHealthy},
		{-1, FlowWarning},
		{-10, FlowWarning},
		{-11, FlowCritical},
	}
	for _, tt := range tests {
		if got := ClassifyFlow(tt.score); got != tt.want {
			t.Errorf("ClassifyFlow(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestAggregateFlow_StaleWorkloadOrdering(t *testing.T) {
	input := []tasks.Task{
		task("f1", "fresh", tasks.StatePending, daysAgo(1)),
		task("f2", "fresh", tasks.StatePending, daysAgo(2)),
		task("s1", "stale", tasks.StatePending, daysAgo(10)),
		task("s2", "stale", tasks.StatePending, daysAgo(30)),
	}
	report := AggregateFlow(input, testNow, DefaultOptions())

	if report.Workload[0].AssigneeID != "stale" {
		t.Fatalf("expected stale assignee first, got %+v", report.Workload)
	}
	stale := report.Workload[0]
	if stale.StaleCount != 2 || !almostEqual(stale.StalePercent, 100) {
		t.Errorf("unexpected stale figures: %+v", stale)
	}
	// Two pending tasks would be "available", but a fully stale queue is not.
	if stale.Load != LoadOverloaded {
		t.Errorf("stale load = %s, want overloaded", stale.Load)
	}
	if report.Workload[1].Load != LoadAvailable {
		t.Errorf("fresh load = %s, want available", report.Workload[1].Load)
	}
}
