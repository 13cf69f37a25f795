package application

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/teampulse/pkg/domain/tasks"
	"github.com/felixgeelhaar/teampulse/pkg/domain/team"
)

type demoTask struct {
	title    string
	assignee string
	state    tasks.TaskState
	priority tasks.TaskPriority
	ageDays  int
	doneDays int // days since completion, done tasks only
	dueDays  int // relative to now, 0 = no due date
	tags     []string
}

var demoMembers = []team.Member{
	{ID: "u-ana", Name: "Ana Ruiz", Role: team.RoleAdmin},
	{ID: "u-luis", Name: "Luis Ortega", Role: team.RoleMember},
	{ID: "u-vera", Name: "Vera Campos", Role: team.RoleMember},
	{ID: "u-tom", Name: "Tomas Gil", Role: team.RoleViewer},
}

var demoTasks = []demoTask{
	{"Close March books", "u-ana", tasks.StateInProgress, tasks.PriorityHigh, 12, 0, -2, []string{"finance"}},
	{"Renew venue contract", "u-ana", tasks.StatePending, tasks.PriorityMedium, 9, 0, 5, []string{"events"}},
	{"Board meeting minutes", "u-ana", tasks.StateDone, tasks.PriorityLow, 20, 15, 0, []string{"governance"}},
	{"Member dues reminder", "u-ana", tasks.StateDone, tasks.PriorityHigh, 8, 2, 0, []string{"finance", "members"}},
	{"Volunteer schedule", "u-luis", tasks.StatePending, tasks.PriorityMedium, 3, 0, 10, []string{"events"}},
	{"Spring newsletter", "u-luis", tasks.StateInProgress, tasks.PriorityMedium, 6, 0, 0, []string{"comms"}},
	{"Update website roster", "u-luis", tasks.StateBlocked, tasks.PriorityLow, 15, 0, 0, []string{"comms"}},
	{"Grant application", "u-luis", tasks.StatePending, tasks.PriorityUrgent, 2, 0, 3, []string{"finance"}},
	{"Insurance quote", "u-luis", tasks.StatePending, tasks.PriorityMedium, 18, 0, -5, nil},
	{"Sponsor thank-you notes", "u-luis", tasks.StateDone, tasks.PriorityLow, 11, 6, 0, []string{"comms"}},
	{"Tax filing", "u-luis", tasks.StateDone, tasks.PriorityCritical, 30, 21, 0, []string{"finance"}},
	{"Catering order", "u-vera", tasks.StateInProgress, tasks.PriorityHigh, 25, 0, 1, []string{"events"}},
	{"Photo release forms", "u-vera", tasks.StateDone, tasks.PriorityMedium, 5, 1, 0, []string{"events", "members"}},
	{"Annual survey", "u-vera", tasks.StateDone, tasks.PriorityMedium, 14, 9, 0, []string{"members"}},
	{"Inventory check", "u-vera", tasks.StatePending, tasks.PriorityLow, 1, 0, 0, nil},
	{"Archive old records", "", tasks.StatePending, tasks.PriorityLow, 22, 0, 0, []string{"governance"}},
	{"Find new treasurer", "", tasks.StatePending, tasks.PriorityHigh, 4, 0, 14, []string{"governance"}},
	{"Fix donation form", "", tasks.StateDone, tasks.PriorityUrgent, 7, 3, 0, []string{"comms"}},
}

// DemoDataset returns a small club workspace spread over the last weeks
// relative to now. Task ids and timestamps are stable for a given now.
func DemoDataset(orgID string, now time.Time) ([]tasks.Task, []team.Member) {
	now = now.UTC().Truncate(time.Hour)

	members := make([]team.Member, len(demoMembers))
	for i, m := range demoMembers {
		m.OrganizationID = orgID
		members[i] = m
	}

	list := make([]tasks.Task, 0, len(demoTasks))
	for i, d := range demoTasks {
		t := tasks.Task{
			ID:             fmt.Sprintf("demo-%02d", i+1),
			Title:          d.title,
			State:          d.state,
			Priority:       d.priority,
			AssigneeID:     d.assignee,
			OrganizationID: orgID,
			CreatedAt:      now.AddDate(0, 0, -d.ageDays),
			Tags:           d.tags,
		}
		if d.dueDays != 0 {
			due := now.AddDate(0, 0, d.dueDays)
			t.DueDate = &due
		}
		if d.state.IsDone() {
			done := now.AddDate(0, 0, -d.doneDays)
			t.UpdatedAt = &done
		}
		list = append(list, t)
	}
	return list, members
}
