package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextPane     key.Binding
	PrevPane     key.Binding
	Down         key.Binding
	Up           key.Binding
	HalfDown     key.Binding
	HalfUp       key.Binding
	Highlight    key.Binding
	Add          key.Binding
	Copy         key.Binding
	Drop         key.Binding
	Verse        key.Binding
	Chorus       key.Binding
	Bridge       key.Binding
	AutoNumber   key.Binding
	Newline      key.Binding
	Edit         key.Binding
	Save         key.Binding
	ToggleSync   key.Binding
	CycleMode    key.Binding
	Rhyme        key.Binding
	Actions      key.Binding
	Export       key.Binding
	Close        key.Binding
	Help         key.Binding
	ApplyEdit    key.Binding
	CancelEdit   key.Binding
	ToggleSelect key.Binding
	Open         key.Binding
	Reload       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextPane:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
		PrevPane:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev pane")),
		Down:         key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/k", "move")),
		Up:           key.NewBinding(key.WithKeys("k", "up")),
		HalfDown:     key.NewBinding(key.WithKeys("ctrl+d", "pgdown"), key.WithHelp("ctrl+d/u", "page")),
		HalfUp:       key.NewBinding(key.WithKeys("ctrl+u", "pgup")),
		Highlight:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "select lines")),
		Add:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add to song")),
		Copy:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Drop:         key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "drop last add")),
		Verse:        key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "verse")),
		Chorus:       key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "chorus")),
		Bridge:       key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "bridge")),
		AutoNumber:   key.NewBinding(key.WithKeys("#"), key.WithHelp("#", "auto number")),
		Newline:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "newline")),
		Edit:         key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit song")),
		Save:         key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save now")),
		ToggleSync:   key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sync on/off")),
		CycleMode:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "sync mode")),
		Rhyme:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rhymes")),
		Actions:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "quick actions")),
		Export:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export")),
		Close:        key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "close")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "legend")),
		ApplyEdit:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "apply")),
		CancelEdit:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		ToggleSelect: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select version")),
		Open:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open studio")),
		Reload:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	}
}

func (k keyMap) studioLegend() []key.Binding {
	return []key.Binding{
		k.NextPane, k.Down, k.HalfDown, k.Highlight, k.Add, k.Drop, k.Copy,
		k.Verse, k.Chorus, k.Bridge, k.AutoNumber, k.Newline,
		k.Edit, k.Save, k.ToggleSync, k.CycleMode, k.Rhyme, k.Actions,
		k.Export, k.Close, k.Help,
	}
}

func (k keyMap) libraryLegend() []key.Binding {
	return []key.Binding{k.Down, k.ToggleSelect, k.Open, k.Reload, k.Close, k.Help}
}
