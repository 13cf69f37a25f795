package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/teampulse/pkg/domain/tasks"
)

// Aggregate builds the standard team dashboard from tasks whose assignee
// names have already been merged (see tasks.MergeAssignees). Workload is
// sorted by pending count.
func Aggregate(list []tasks.Task, now time.Time, opts Options) TeamReport {
	acc := accumulate(list, now, opts)
	resolution := acc.resolutionStats()
	threshold := stagnationThreshold(resolution, acc.opts.StagnationFallback)

	workload := acc.workload(classifyLoad)
	sort.SliceStable(workload, func(i, j int) bool {
		return workload[i].Pending > workload[j].Pending
	})

	return TeamReport{
		GeneratedAt:             now,
		Stats:                   acc.stats,
		Workload:                workload,
		Unassigned:              acc.unassigned,
		WeeklyTrend:             acc.weekBuckets(),
		Resolution:              resolution,
		Bottlenecks:             acc.bottlenecks(),
		StagnationThresholdDays: threshold,
		StagnationAlerts:        acc.stagnationAlerts(threshold),
		TagFocus:                acc.tagFocus(),
		Leaderboard:             acc.leaderboard(),
	}
}

// AggregateFlow builds the flow-health dashboard. Workload classification
// also weighs stale tasks and the list is sorted by stale count.
func AggregateFlow(list []tasks.Task, now time.Time, opts Options) FlowReport {
	acc := accumulate(list, now, opts)
	resolution := acc.resolutionStats()
	threshold := stagnationThreshold(resolution, acc.opts.StagnationFallback)

	workload := acc.workload(classifyFlowLoad)
	sort.SliceStable(workload, func(i, j int) bool {
		return workload[i].StaleCount > workload[j].StaleCount
	})

	weeks := acc.flowWeeks()

	return FlowReport{
		GeneratedAt:             now,
		Stats:                   acc.stats,
		Workload:                workload,
		Unassigned:              acc.unassigned,
		Weeks:                   weeks,
		FlowHealth:              flowHealth(weeks),
		Resolution:              resolution,
		Bottlenecks:             acc.bottlenecks(),
		StagnationThresholdDays: threshold,
		StagnationAlerts:        acc.stagnationAlerts(threshold),
		TagFocus:                acc.tagFocus(),
	}
}

type assigneeTally struct {
	id           string
	name         string
	pending      int
	inProgress   int
	completed    int
	stale        int
	pendingTasks []tasks.Task
}

// accumulator carries everything a single traversal of the input collects.
type accumulator struct {
	now   time.Time
	opts  Options
	weeks []WeekWindow

	stats      Stats
	unassigned UnassignedSummary

	order     []string
	assignees map[string]*assigneeTally

	created   [WeekCount]int
	completed [WeekCount]int

	resolutionCutoff time.Time
	resolution       []float64
	byPriority       map[tasks.TaskPriority][]float64

	ages       map[tasks.TaskState][]float64
	inProgress []tasks.Task

	tagCounts map[string]int
	tagged    int
}

func accumulate(list []tasks.Task, now time.Time, opts Options) *accumulator {
	opts = opts.withDefaults()
	acc := &accumulator{
		now:              now,
		opts:             opts,
		weeks:            TrailingWeeks(now),
		assignees:        make(map[string]*assigneeTally),
		resolutionCutoff: now.AddDate(0, -opts.ResolutionWindowMonths, 0),
		byPriority:       make(map[tasks.TaskPriority][]float64),
		ages:             make(map[tasks.TaskState][]float64),
		tagCounts:        make(map[string]int),
	}
	for _, t := range list {
		acc.add(t)
	}
	return acc
}

func (a *accumulator) add(t tasks.Task) {
	completedAt, done := t.CompletedAt()

	a.stats.Total++
	if done {
		a.stats.Completed++
	} else {
		a.stats.Pending++
	}
	switch t.State {
	case tasks.StateInProgress:
		a.stats.InProgress++
		a.inProgress = append(a.inProgress, t)
	case tasks.StateBlocked:
		a.stats.Blocked++
	}
	if t.IsOverdue(a.now) {
		a.stats.Overdue++
	}
	if done && a.weeks[WeekCount-1].Contains(completedAt) {
		a.stats.CompletedThisWeek++
	}

	a.addWorkload(t, done)

	if i := weekIndex(a.weeks, t.CreatedAt); i >= 0 {
		a.created[i]++
	}
	if done {
		if i := weekIndex(a.weeks, completedAt); i >= 0 {
			a.completed[i]++
		}
		if !completedAt.Before(a.resolutionCutoff) {
			elapsed := completedAt.Sub(t.CreatedAt)
			// Completion before creation is a data anomaly; leave it out.
			if elapsed >= 0 {
				d := days(elapsed)
				a.resolution = append(a.resolution, d)
				p := t.Priority
				if !p.IsValid() {
					p = tasks.DefaultPriority()
				}
				a.byPriority[p] = append(a.byPriority[p], d)
			}
		}
	}

	if !t.State.IsTerminal() {
		a.ages[t.State] = append(a.ages[t.State], ageDays(a.now, t.CreatedAt))
	}

	a.addTags(t.Tags)
}

func (a *accumulator) addWorkload(t tasks.Task, done bool) {
	if !t.IsAssigned() {
		a.unassigned.Total++
		if done {
			a.unassigned.Completed++
		} else {
			a.unassigned.Pending++
		}
		return
	}

	tally, ok := a.assignees[t.AssigneeID]
	if !ok {
		tally = &assigneeTally{id: t.AssigneeID, name: t.AssigneeName}
		a.assignees[t.AssigneeID] = tally
		a.order = append(a.order, t.AssigneeID)
	}
	if done {
		tally.completed++
		return
	}
	tally.pending++
	tally.pendingTasks = append(tally.pendingTasks, t)
	if t.State.IsInProgress() {
		tally.inProgress++
	}
	if a.now.Sub(t.CreatedAt) > a.opts.StaleAfter {
		tally.stale++
	}
}

func (a *accumulator) addTags(tags []string) {
	if len(tags) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		a.tagCounts[tag]++
	}
	if len(seen) > 0 {
		a.tagged++
	}
}

func ageDays(now, since time.Time) float64 {
	if since.After(now) {
		return 0
	}
	return days(now.Sub(since))
}

type loadClassifier func(pending, ideal int, stalePercent float64) LoadStatus

func classifyLoad(pending, ideal int, _ float64) LoadStatus {
	switch {
	case float64(pending) > float64(ideal)*1.5:
		return LoadOverloaded
	case float64(pending) < float64(ideal)*0.5:
		return LoadAvailable
	default:
		return LoadBalanced
	}
}

func classifyFlowLoad(pending, ideal int, stalePercent float64) LoadStatus {
	switch {
	case float64(pending) > float64(ideal)*1.5 || stalePercent >= 50:
		return LoadOverloaded
	case float64(pending) < float64(ideal)*0.5 && stalePercent < 25:
		return LoadAvailable
	default:
		return LoadBalanced
	}
}

// ClassifyLoad exposes the standard dashboard classification.
func ClassifyLoad(pending, idealLoad int) LoadStatus {
	if idealLoad <= 0 {
		idealLoad = DefaultIdealLoad
	}
	return classifyLoad(pending, idealLoad, 0)
}

func (a *accumulator) workload(classify loadClassifier) []Workload {
	out := make([]Workload, 0, len(a.order))
	for _, id := range a.order {
		t := a.assignees[id]
		stalePct := percent(t.stale, t.pending)
		pendingTasks := make([]tasks.Task, len(t.pendingTasks))
		copy(pendingTasks, t.pendingTasks)
		out = append(out, Workload{
			AssigneeID:   t.id,
			Name:         t.name,
			Pending:      t.pending,
			InProgress:   t.inProgress,
			Completed:    t.completed,
			Total:        t.pending + t.completed,
			StaleCount:   t.stale,
			StalePercent: stalePct,
			Load:         classify(t.pending, a.opts.IdealLoad, stalePct),
			PendingTasks: pendingTasks,
		})
	}
	return out
}

func (a *accumulator) weekBuckets() []WeekBucket {
	out := make([]WeekBucket, len(a.weeks))
	for i, w := range a.weeks {
		out[i] = WeekBucket{
			WeekWindow: w,
			Label:      weekLabel(w),
			Created:    a.created[i],
			Completed:  a.completed[i],
		}
	}
	return out
}

func (a *accumulator) flowWeeks() []FlowWeek {
	buckets := a.weekBuckets()
	out := make([]FlowWeek, len(buckets))
	for i, b := range buckets {
		net := b.Completed - b.Created
		out[i] = FlowWeek{WeekBucket: b, Net: net, Sustainable: net >= 0}
	}
	return out
}

func flowHealth(weeks []FlowWeek) FlowHealth {
	score := 0
	for _, w := range weeks {
		score += w.Net
	}
	return FlowHealth{Score: score, Status: ClassifyFlow(score)}
}

// ClassifyFlow maps a flow-health score to its status.
func ClassifyFlow(score int) FlowStatus {
	switch {
	case score < -10:
		return FlowCritical
	case score < 0:
		return FlowWarning
	default:
		return FlowHealthy
	}
}

func (a *accumulator) resolutionStats() ResolutionStats {
	stats := ResolutionStats{
		Samples:    len(a.resolution),
		MeanDays:   Mean(a.resolution),
		MedianDays: Median(a.resolution),
		ByPriority: make([]PriorityResolution, 0, len(a.byPriority)),
	}
	for _, p := range tasks.AllPriorities() {
		samples := a.byPriority[p]
		if len(samples) == 0 {
			continue
		}
		stats.ByPriority = append(stats.ByPriority, PriorityResolution{
			Priority: p,
			Samples:  len(samples),
			MeanDays: Mean(samples),
		})
	}
	return stats
}

func classifySeverity(meanAgeDays float64) Severity {
	switch {
	case meanAgeDays > 14:
		return SeverityBlocked
	case meanAgeDays > 7:
		return SeveritySlow
	case meanAgeDays < 2:
		return SeverityFast
	default:
		return SeverityNormal
	}
}

func (a *accumulator) bottlenecks() Bottlenecks {
	out := make(Bottlenecks, 0, len(a.ages))
	for _, state := range tasks.AllStates() {
		ages := a.ages[state]
		if len(ages) == 0 {
			continue
		}
		mean := Mean(ages)
		out = append(out, StateBottleneck{
			State:         state,
			Count:         len(ages),
			MeanAgeDays:   mean,
			MedianAgeDays: Median(ages),
			Severity:      classifySeverity(mean),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MeanAgeDays > out[j].MeanAgeDays
	})
	return out
}

// stagnationThreshold is twice the median resolution time in days, or the
// fallback when the organization has no usable resolution history.
func stagnationThreshold(res ResolutionStats, fallback time.Duration) float64 {
	if res.Samples == 0 || res.MedianDays <= 0 {
		return days(fallback)
	}
	return 2 * res.MedianDays
}

func (a *accumulator) stagnationAlerts(threshold float64) []StagnationAlert {
	alerts := make([]StagnationAlert, 0)
	for _, t := range a.inProgress {
		idle := ageDays(a.now, t.LastChange())
		if idle <= threshold {
			continue
		}
		alerts = append(alerts, StagnationAlert{
			TaskID:            t.ID,
			Title:             t.Title,
			AssigneeID:        t.AssigneeID,
			AssigneeName:      t.AssigneeName,
			DaysStale:         idle,
			ThresholdMultiple: idle / threshold,
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].ThresholdMultiple > alerts[j].ThresholdMultiple
	})
	return alerts
}

func (a *accumulator) tagFocus() TagFocus {
	metrics := make([]TagMetric, 0, len(a.tagCounts))
	for tag, count := range a.tagCounts {
		metrics = append(metrics, TagMetric{
			Tag:     tag,
			Count:   count,
			Percent: percent(count, a.stats.Total),
		})
	}
	sort.Slice(metrics, func(i, j int) bool {
		if metrics[i].Count != metrics[j].Count {
			return metrics[i].Count > metrics[j].Count
		}
		return metrics[i].Tag < metrics[j].Tag
	})
	if len(metrics) > a.opts.TagLimit {
		metrics = metrics[:a.opts.TagLimit]
	}
	untagged := a.stats.Total - a.tagged
	return TagFocus{
		Tags:            metrics,
		TotalTasks:      a.stats.Total,
		TaggedTasks:     a.tagged,
		UntaggedTasks:   untagged,
		UntaggedPercent: percent(untagged, a.stats.Total),
	}
}

func (a *accumulator) leaderboard() []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0)
	for _, id := range a.order {
		t := a.assignees[id]
		if t.completed == 0 {
			continue
		}
		out = append(out, LeaderboardEntry{
			AssigneeID: t.id,
			Name:       t.name,
			Completed:  t.completed,
			Streak:     PlaceholderStreak(t.completed),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Completed > out[j].Completed
	})
	if len(out) > a.opts.LeaderboardLimit {
		out = out[:a.opts.LeaderboardLimit]
	}
	return out
}

// PlaceholderStreak approximates a completion streak as completed/2.
// It is not a consecutive-day streak.
// TODO: replace with a real streak once per-day completion history is fetched.
func PlaceholderStreak(completed int) int {
	if completed <= 0 {
		return 0
	}
	return completed / 2
}
