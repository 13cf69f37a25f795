package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/teampulse/pkg/domain/analytics"
)

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	PaddingLeft(1).
	PaddingRight(1)

var sectionStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)

var statusOK = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
var statusWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
var statusErr = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

func loadStyle(l analytics.LoadStatus) lipgloss.Style {
	switch l {
	case analytics.LoadOverloaded:
		return statusErr
	case analytics.LoadAvailable:
		return statusOK
	default:
		return lipgloss.NewStyle()
	}
}

func flowStyle(s analytics.FlowStatus) lipgloss.Style {
	switch s {
	case analytics.FlowHealthy:
		return statusOK
	case analytics.FlowWarning:
		return statusWarn
	default:
		return statusErr
	}
}

func severityStyle(s analytics.Severity) lipgloss.Style {
	switch s {
	case analytics.SeverityFast:
		return statusOK
	case analytics.SeveritySlow:
		return statusWarn
	case analytics.SeverityBlocked:
		return statusErr
	default:
		return lipgloss.NewStyle()
	}
}
