package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/upl/internal/models"
	"github.com/desertthunder/upl/internal/tasks"
)

var (
	_ list.Item = resultItem{}
)

// resultItem wraps [tasks.ItemResult] to implement [list.Item].
type resultItem struct {
	res tasks.ItemResult
}

func (i resultItem) FilterValue() string { return i.res.Text }
func (i resultItem) Title() string {
	text := i.res.Text
	if text == "" {
		text = "(empty)"
	}
	return fmt.Sprintf("%d. %s %s", i.res.Position+1, outcomeMark(i.res.Outcome), text)
}
func (i resultItem) Description() string {
	switch i.res.Outcome {
	case models.OutcomeAdded:
		return i.res.TrackURI
	case models.OutcomeNoMatch:
		return "no match"
	case models.OutcomeSkipped:
		return "skipped"
	default:
		if i.res.Err != nil {
			return i.res.Err.Error()
		}
		return "failed"
	}
}

func outcomeMark(o models.Outcome) string {
	switch o {
	case models.OutcomeAdded:
		return styles.ok.Render("✓")
	case models.OutcomeNoMatch:
		return styles.warn.Render("?")
	case models.OutcomeSkipped:
		return styles.help.Render("-")
	default:
		return styles.err.Render("✗")
	}
}

func resultItems(results []tasks.ItemResult) []list.Item {
	items := make([]list.Item, len(results))
	for i, r := range results {
		items[i] = resultItem{res: r}
	}
	return items
}
