package analytics

import (
	"time"

	"github.com/felixgeelhaar/teampulse/pkg/domain/tasks"
)

// LoadStatus classifies an assignee's pending load against the ideal load.
type LoadStatus string

const (
	LoadOverloaded LoadStatus = "overloaded"
	LoadBalanced   LoadStatus = "balanced"
	LoadAvailable  LoadStatus = "available"
)

// Severity classifies how long tasks linger in a workflow state.
type Severity string

const (
	SeverityFast    Severity = "fast"
	SeverityNormal  Severity = "normal"
	SeveritySlow    Severity = "slow"
	SeverityBlocked Severity = "blocked"
)

// FlowStatus classifies the flow-health score.
type FlowStatus string

const (
	FlowHealthy  FlowStatus = "healthy"
	FlowWarning  FlowStatus = "warning"
	FlowCritical FlowStatus = "critical"
)

// Stats holds the basic counts over the whole input.
type Stats struct {
	Total             int `json:"total"`
	Pending           int `json:"pending"`
	InProgress        int `json:"in_progress"`
	Blocked           int `json:"blocked"`
	Completed         int `json:"completed"`
	Overdue           int `json:"overdue"`
	CompletedThisWeek int `json:"completed_this_week"`
}

// CompletionRate returns the percentage of tasks completed.
func (s Stats) CompletionRate() float64 {
	return percent(s.Completed, s.Total)
}

// Workload is one assignee's share of the tasks. Pending counts every
// non-done task, so Total == Pending + Completed.
type Workload struct {
	AssigneeID   string       `json:"assignee_id"`
	Name         string       `json:"name"`
	Pending      int          `json:"pending"`
	InProgress   int          `json:"in_progress"`
	Completed    int          `json:"completed"`
	Total        int          `json:"total"`
	StaleCount   int          `json:"stale_count"`
	StalePercent float64      `json:"stale_percent"`
	Load         LoadStatus   `json:"load"`
	PendingTasks []tasks.Task `json:"pending_tasks"`
}

// UnassignedSummary counts tasks without a resolvable assignee.
type UnassignedSummary struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// WeekBucket counts tasks created and completed inside one calendar week.
type WeekBucket struct {
	WeekWindow
	Label     string `json:"label"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
}

// FlowWeek extends a WeekBucket with the net backlog change.
type FlowWeek struct {
	WeekBucket
	Net         int  `json:"net"`
	Sustainable bool `json:"sustainable"`
}

// PriorityResolution is the mean resolution time for one priority.
type PriorityResolution struct {
	Priority tasks.TaskPriority `json:"priority"`
	Samples  int                `json:"samples"`
	MeanDays float64            `json:"mean_days"`
}

// ResolutionStats summarizes creation-to-completion times.
type ResolutionStats struct {
	Samples    int                  `json:"samples"`
	MeanDays   float64              `json:"mean_days"`
	MedianDays float64              `json:"median_days"`
	ByPriority []PriorityResolution `json:"by_priority"`
}

// MeanHours returns the mean resolution time in hours.
func (r ResolutionStats) MeanHours() float64 {
	return r.MeanDays * 24
}

// StateBottleneck is the age profile of open tasks in one state.
type StateBottleneck struct {
	State         tasks.TaskState `json:"state"`
	Count         int             `json:"count"`
	MeanAgeDays   float64         `json:"mean_age_days"`
	MedianAgeDays float64         `json:"median_age_days"`
	Severity      Severity        `json:"severity"`
}

// Bottlenecks is ordered by mean age, oldest first.
type Bottlenecks []StateBottleneck

// Worst returns the state where tasks accumulate the most time.
func (b Bottlenecks) Worst() (StateBottleneck, bool) {
	if len(b) == 0 {
		return StateBottleneck{}, false
	}
	return b[0], true
}

// StagnationAlert flags an in-progress task idle beyond the threshold.
type StagnationAlert struct {
	TaskID            string  `json:"task_id"`
	Title             string  `json:"title"`
	AssigneeID        string  `json:"assignee_id,omitempty"`
	AssigneeName      string  `json:"assignee_name,omitempty"`
	DaysStale         float64 `json:"days_stale"`
	ThresholdMultiple float64 `json:"threshold_multiple"`
}

// TagMetric is one tag's share of the task population.
type TagMetric struct {
	Tag     string  `json:"tag"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// TagFocus ranks tags by occurrence. Percentages use TotalTasks as the
// denominator; UntaggedPercent is the explicit remainder.
type TagFocus struct {
	Tags            []TagMetric `json:"tags"`
	TotalTasks      int         `json:"total_tasks"`
	TaggedTasks     int         `json:"tagged_tasks"`
	UntaggedTasks   int         `json:"untagged_tasks"`
	UntaggedPercent float64     `json:"untagged_percent"`
}

// LeaderboardEntry ranks an assignee by completed tasks.
type LeaderboardEntry struct {
	AssigneeID string `json:"assignee_id"`
	Name       string `json:"name"`
	Completed  int    `json:"completed"`
	Streak     int    `json:"streak"`
}

// FlowHealth is the signed sum of weekly net differences.
type FlowHealth struct {
	Score  int        `json:"score"`
	Status FlowStatus `json:"status"`
}

// TeamReport is the standard team dashboard bundle.
type TeamReport struct {
	GeneratedAt             time.Time          `json:"generated_at"`
	Stats                   Stats              `json:"stats"`
	Workload                []Workload         `json:"workload"`
	Unassigned              UnassignedSummary  `json:"unassigned"`
	WeeklyTrend             []WeekBucket       `json:"weekly_trend"`
	Resolution              ResolutionStats    `json:"resolution"`
	Bottlenecks             Bottlenecks        `json:"bottlenecks"`
	StagnationThresholdDays float64            `json:"stagnation_threshold_days"`
	StagnationAlerts        []StagnationAlert  `json:"stagnation_alerts"`
	TagFocus                TagFocus           `json:"tag_focus"`
	Leaderboard             []LeaderboardEntry `json:"leaderboard"`
}

// FlowReport is the flow-health dashboard bundle.
type FlowReport struct {
	GeneratedAt             time.Time         `json:"generated_at"`
	Stats                   Stats             `json:"stats"`
	Workload                []Workload        `json:"workload"`
	Unassigned              UnassignedSummary `json:"unassigned"`
	Weeks                   []FlowWeek        `json:"weeks"`
	FlowHealth              FlowHealth        `json:"flow_health"`
	Resolution              ResolutionStats   `json:"resolution"`
	Bottlenecks             Bottlenecks       `json:"bottlenecks"`
	StagnationThresholdDays float64           `json:"stagnation_threshold_days"`
	StagnationAlerts        []StagnationAlert `json:"stagnation_alerts"`
	TagFocus                TagFocus          `json:"tag_focus"`
}

// FindWorkload returns the workload entry for an assignee id.
func FindWorkload(list []Workload, assigneeID string) (Workload, bool) {
	for _, w := range list {
		if w.AssigneeID == assigneeID {
			return w, true
		}
	}
	return Workload{}, false
}
