package webhook

import (
	"fmt"

	"github.com/felixgeelhaar/teampulse/pkg/domain"
)

// slackMessage renders a payload for a Slack incoming webhook.
func slackMessage(p Payload) map[string]any {
	text := slackText(p)
	return map[string]any{
		"text": text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]string{"type": "mrkdwn", "text": text},
			},
		},
	}
}

func slackText(p Payload) string {
	switch p.Action {
	case domain.ActionTasksReassigned:
		return fmt.Sprintf(":arrows_counterclockwise: %v task(s) moved from %v to %v", p.Data["count"], p.Data["from"], p.Data["to"])
	case domain.ActionReassignFailed:
		return fmt.Sprintf(":warning: Reassignment from %v to %v failed", p.Data["from"], p.Data["to"])
	default:
		return fmt.Sprintf("teampulse: %s", p.Action)
	}
}
