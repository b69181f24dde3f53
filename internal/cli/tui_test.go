package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/family/familytest"
)

func press(m FocusPicker, msgs ...tea.Msg) (FocusPicker, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(FocusPicker)
	}
	return m, cmd
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func typed(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestFocusPickerOrder(t *testing.T) {
	m := NewFocusPicker(familytest.Nuclear())
	var got []string
	for _, i := range m.visible {
		got = append(got, m.items[i].ID)
	}
	want := []string{"p1", "p2", "c1", "c2"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestFocusPickerSelect(t *testing.T) {
	m, cmd := press(NewFocusPicker(familytest.Nuclear()),
		key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyUp), key(tea.KeyEnter))
	if m.Selected != "p2" {
		t.Errorf("Selected = %q, want p2", m.Selected)
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}
}

func TestFocusPickerCursorBounds(t *testing.T) {
	m, _ := press(NewFocusPicker(familytest.Nuclear()), key(tea.KeyUp))
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d after up at top", m.Cursor)
	}
	m, _ = press(m, key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyDown))
	if m.Cursor != 3 {
		t.Errorf("Cursor = %d, want 3", m.Cursor)
	}
}

func TestFocusPickerScroll(t *testing.T) {
	m := NewFocusPicker(familytest.Nuclear())
	m.Height = 2
	m, _ = press(m, key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyDown))
	if m.Offset != 2 {
		t.Errorf("Offset = %d, want 2", m.Offset)
	}
	m, _ = press(m, key(tea.KeyUp), key(tea.KeyUp))
	if m.Offset != 1 {
		t.Errorf("Offset = %d, want 1", m.Offset)
	}
}

func TestFocusPickerFilter(t *testing.T) {
	m, _ := press(NewFocusPicker(familytest.Nuclear()), typed("c"), typed("2"))
	if len(m.visible) != 1 || m.items[m.visible[0]].ID != "c2" {
		t.Fatalf("filter %q kept %v", m.filter, m.visible)
	}
	if !strings.Contains(m.View(), "filter: c2") {
		t.Error("view does not show the filter")
	}

	m, _ = press(m, key(tea.KeyBackspace))
	if len(m.visible) != 2 {
		t.Errorf("after backspace %d visible, want 2", len(m.visible))
	}

	m, _ = press(m, typed("zz"), key(tea.KeyEnter))
	if m.Selected != "" {
		t.Errorf("enter with no matches selected %q", m.Selected)
	}
	if !strings.Contains(m.View(), "no matches") {
		t.Error("view should report no matches")
	}
}

func TestFocusPickerQuit(t *testing.T) {
	for _, k := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		m, cmd := press(NewFocusPicker(familytest.Nuclear()), key(k))
		if cmd == nil || m.Selected != "" {
			t.Errorf("%v: cmd = %v, selected = %q", k, cmd, m.Selected)
		}
	}
}

func TestLifespan(t *testing.T) {
	tests := []struct {
		birth, death string
		want         string
	}{
		{"1921-04-02", "1998-12-01", "1921–1998"},
		{"1950", "", "b. 1950"},
		{"", "1890-01-01", "d. 1890"},
		{"", "", "—"},
	}
	for _, tt := range tests {
		p := &family.Person{BirthDate: tt.birth, DeathDate: tt.death}
		if got := lifespan(p); got != tt.want {
			t.Errorf("lifespan(%q, %q) = %q, want %q", tt.birth, tt.death, got, tt.want)
		}
	}
}
