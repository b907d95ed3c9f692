package in

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"studylog/internal/modules/insights/dto"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#74c7ec")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6adc8"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#cdd6f4"))
	hotStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#fab387")).Bold(true)
	sectionStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475a")).
			Padding(0, 1)
)

// RenderStats turns a stats snapshot into the styled block the stats
// command prints.
func RenderStats(stats dto.StatsOutput) string {
	sections := []string{
		renderTotals(stats),
		renderDaily(stats.Daily),
	}
	if len(stats.Subjects) > 0 {
		sections = append(sections, renderSubjects(stats.Subjects))
	}
	if len(stats.Bottlenecks) > 0 {
		sections = append(sections, renderBottlenecks(stats.Bottlenecks))
	}
	if stats.LatestExam != nil {
		sections = append(sections, renderExams(stats))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderTotals(stats dto.StatsOutput) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Study time") + "\n")
	fmt.Fprintf(&b, "%s %s (%d questions)\n",
		labelStyle.Render("today"),
		valueStyle.Render(formatMS(stats.Today.DurationMS)),
		stats.Today.QuestionCount)
	fmt.Fprintf(&b, "%s  %s (%d questions)",
		labelStyle.Render("week"),
		valueStyle.Render(formatMS(stats.Week.DurationMS)),
		stats.Week.QuestionCount)
	return sectionStyle.Render(b.String())
}

func renderDaily(daily []dto.DayPointOutput) string {
	var peak int64
	for _, point := range daily {
		if point.DurationMS > peak {
			peak = point.DurationMS
		}
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Daily") + "\n")
	for i, point := range daily {
		bar := ""
		if peak > 0 {
			width := int(point.DurationMS * 20 / peak)
			bar = strings.Repeat("█", width)
		}
		fmt.Fprintf(&b, "%s %s %s",
			labelStyle.Render(point.Date),
			valueStyle.Render(fmt.Sprintf("%7s", formatMS(point.DurationMS))),
			bar)
		if i < len(daily)-1 {
			b.WriteString("\n")
		}
	}
	return sectionStyle.Render(b.String())
}

func renderSubjects(rows []dto.SubjectRowOutput) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Subjects (week)") + "\n")
	for i, row := range rows {
		fmt.Fprintf(&b, "%s %s (%d questions)",
			labelStyle.Render(row.Name),
			valueStyle.Render(formatMS(row.DurationMS)),
			row.QuestionCount)
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return sectionStyle.Render(b.String())
}

func renderBottlenecks(rows []dto.BottleneckOutput) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Slower than typical") + "\n")
	for i, row := range rows {
		fmt.Fprintf(&b, "%s %s over average",
			valueStyle.Render(formatMS(row.DurationMS)),
			hotStyle.Render("+"+formatMS(row.OverAvgMS)))
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return sectionStyle.Render(b.String())
}

func renderExams(stats dto.StatsOutput) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Mock exams") + "\n")
	fmt.Fprintf(&b, "%s %s (%d questions)\n",
		labelStyle.Render("week"),
		valueStyle.Render(formatMS(stats.ExamWeek.DurationMS)),
		stats.ExamWeek.QuestionCount)
	for i, exam := range stats.RecentExams {
		title := exam.Title
		if title == "" {
			title = exam.StudyDate
		}
		fmt.Fprintf(&b, "%s %s (%d questions)",
			labelStyle.Render(title),
			valueStyle.Render(formatMS(exam.DurationMS)),
			exam.QuestionCount)
		if i < len(stats.RecentExams)-1 {
			b.WriteString("\n")
		}
	}
	return sectionStyle.Render(b.String())
}

func formatMS(ms int64) string {
	d := (time.Duration(ms) * time.Millisecond).Round(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
