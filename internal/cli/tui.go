package cli

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// FocusPicker - Interactive focus person selection
// =============================================================================

// focusItem is one row of the picker.
type focusItem struct {
	ID    string
	Name  string
	Years string
}

// FocusPicker is the bubbletea model for choosing a focus person. Typing
// filters by name or ID.
type FocusPicker struct {
	items    []focusItem
	visible  []int // indexes into items matching the filter
	filter   string
	Cursor   int
	Offset   int
	Height   int
	Selected string
}

// NewFocusPicker lists the tree's persons ordered by birth date.
func NewFocusPicker(t *family.Tree) FocusPicker {
	idx := family.NewIndex(t)
	ids := t.PersonIDs()
	idx.SortByBirth(ids)

	items := make([]focusItem, len(ids))
	for i, id := range ids {
		p := idx.Person(id)
		items[i] = focusItem{ID: id, Name: p.Label(), Years: lifespan(p)}
	}
	m := FocusPicker{items: items, Height: 15}
	m.applyFilter()
	return m
}

func (m FocusPicker) Init() tea.Cmd {
	return nil
}

func (m FocusPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case tea.KeyDown:
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case tea.KeyEnter:
			if len(m.visible) == 0 {
				return m, nil
			}
			m.Selected = m.items[m.visible[m.Cursor]].ID
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.filter != "" {
				r := []rune(m.filter)
				m.filter = string(r[:len(r)-1])
				m.applyFilter()
			}
		case tea.KeyRunes, tea.KeySpace:
			m.filter += string(msg.Runes)
			m.applyFilter()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m *FocusPicker) applyFilter() {
	q := strings.ToLower(m.filter)
	m.visible = nil
	for i, it := range m.items {
		if q == "" || strings.Contains(strings.ToLower(it.Name), q) || strings.Contains(strings.ToLower(it.ID), q) {
			m.visible = append(m.visible, i)
		}
	}
	m.Cursor, m.Offset = 0, 0
}

func (m FocusPicker) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Select Focus Person"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  type to filter  esc quit"))
	b.WriteString("\n")
	if m.filter != "" {
		b.WriteString(styleValue.Render("filter: " + m.filter))
	}
	b.WriteString("\n")

	end := min(m.Offset+m.Height, len(m.visible))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		it := m.items[m.visible[i]]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, it.Name, it.Years, it.ID})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(listDimStyle).
		Headers("", "Name", "Lived", "ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col >= 2 {
				return listDimStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	if len(m.visible) == 0 {
		b.WriteString(listDimStyle.Render("  no matches"))
	} else {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.visible))))
	}
	return b.String()
}

// lifespan formats birth and death years, e.g. "1921–1998" or "b. 1950".
func lifespan(p *family.Person) string {
	birth, death := year(p.BirthDate), year(p.DeathDate)
	switch {
	case birth != "" && death != "":
		return birth + "–" + death
	case birth != "":
		return "b. " + birth
	case death != "":
		return "d. " + death
	}
	return "—"
}

func year(date string) string {
	if len(date) < 4 {
		return date
	}
	return date[:4]
}

// pickFocus runs the picker on the terminal and returns the chosen ID.
func pickFocus(t *family.Tree, in io.Reader, out io.Writer) (string, error) {
	if len(t.Persons) == 0 {
		return "", errors.New(errors.ErrCodeInvalidTree, "tree has no persons")
	}
	final, err := tea.NewProgram(NewFocusPicker(t), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return "", fmt.Errorf("focus picker: %w", err)
	}
	id := final.(FocusPicker).Selected
	if id == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "no focus person selected")
	}
	return id, nil
}
