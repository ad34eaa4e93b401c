package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rota/internal/engine"
	"rota/internal/store"
	"rota/internal/task"
	"rota/internal/ui/keys"
	"rota/internal/ui/styles"
)

const remindAtLayout = "2006-01-02 15:04"

// Focus stops in the routine form.
const (
	rfTitle = iota
	rfDesc
	rfRemindAt
	rfRecurrence
	rfCron
	rfNotifyUsers
	rfSound
	rfLevel
	rfIcon
	rfImage
	rfURL
	rfCallMode
	rfSave
	rfCount
)

// RoutineListView shows the recurring tasks, paged and filtered by
// activity.
type RoutineListView struct {
	eng    *engine.Engine
	styles *styles.Styles
	keys   keys.KeyMap

	// Configured defaults for new routines' notification profiles.
	defSoundIdx int
	defLevelIdx int

	width  int
	height int

	rows    []task.Task
	cursor  int
	scrollY int
	loaded  bool

	notice string
	alert  string

	// Creation/editing
	editing         bool
	editingNew      bool
	editID          string
	hadNotification bool
	editTitle       textinput.Model
	editDesc        textarea.Model
	editRemind      textinput.Model
	editCron        textinput.Model
	editNotify      textinput.Model
	editIcon        textinput.Model
	editImage       textinput.Model
	editURL         textinput.Model
	editFocus       int
	recurChoice     int // index into recurrenceChoices
	soundIdx        int
	levelIdx        int
	callMode        bool

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   string

	showHelpPopup bool
}

// recurrenceChoice pairs a display label with the stored descriptor.
// The raw cron input overrides the choice when filled in.
type recurrenceChoice struct {
	label string
	value task.Recurrence
}

func recurrenceChoices() []recurrenceChoice {
	choices := []recurrenceChoice{{label: "once", value: ""}}
	for _, d := range task.IntervalPresets {
		r := task.IntervalRecurrence(d)
		choices = append(choices, recurrenceChoice{label: r.Label(), value: r})
	}
	for _, name := range task.FixedPresetNames {
		choices = append(choices, recurrenceChoice{label: name, value: task.PresetRecurrence(name)})
	}
	return choices
}

// NewRoutineListView creates the routine list view. defaultSound and
// defaultLevel seed the notification profile of new routines; unknown
// values fall back to the first catalogue entry.
func NewRoutineListView(eng *engine.Engine, defaultSound, defaultLevel string) *RoutineListView {
	s := styles.NewStyles()

	defSoundIdx := 0
	for i, snd := range task.Sounds {
		if snd == defaultSound {
			defSoundIdx = i
		}
	}
	defLevelIdx := 0
	for i, l := range task.Levels {
		if string(l) == defaultLevel {
			defLevelIdx = i
		}
	}

	editTitle := textinput.New()
	editTitle.Placeholder = "Routine title"
	editTitle.CharLimit = 200

	editDesc := textarea.New()
	editDesc.Placeholder = "Description"
	editDesc.CharLimit = 1000
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false

	editRemind := textinput.New()
	editRemind.Placeholder = remindAtLayout
	editRemind.CharLimit = 16

	editCron := textinput.New()
	editCron.Placeholder = "custom cron, e.g. 0 9 * * 1-5"
	editCron.CharLimit = 100

	editNotify := textinput.New()
	editNotify.Placeholder = "user ids, comma separated"
	editNotify.CharLimit = 200

	editIcon := textinput.New()
	editIcon.Placeholder = "https://... icon"
	editIcon.CharLimit = 500

	editImage := textinput.New()
	editImage.Placeholder = "https://... image"
	editImage.CharLimit = 500

	editURL := textinput.New()
	editURL.Placeholder = "https://... opened on tap"
	editURL.CharLimit = 500

	return &RoutineListView{
		eng:         eng,
		styles:      s,
		keys:        keys.DefaultKeyMap(),
		defSoundIdx: defSoundIdx,
		defLevelIdx: defLevelIdx,
		editTitle:   editTitle,
		editDesc:    editDesc,
		editRemind:  editRemind,
		editCron:    editCron,
		editNotify:  editNotify,
		editIcon:    editIcon,
		editImage:   editImage,
		editURL:     editURL,
	}
}

// InputActive reports whether the view is capturing keystrokes for a
// form or dialog, in which case global shortcuts must stay out.
func (v *RoutineListView) InputActive() bool {
	return v.editing || v.confirmingDelete
}

func (v *RoutineListView) Init() tea.Cmd {
	return v.loadRoutines(v.eng.Filter())
}

func (v *RoutineListView) loadRoutines(filter store.ActiveFilter) tea.Cmd {
	return func() tea.Msg {
		return routinesLoadedMsg{err: v.eng.LoadRoutines(context.Background(), filter)}
	}
}

func (v *RoutineListView) loadMore() tea.Msg {
	return routinesLoadedMsg{err: v.eng.MoreRoutines(context.Background())}
}

func (v *RoutineListView) refresh() {
	v.rows = v.eng.Routines()
	if v.cursor >= len(v.rows) {
		v.cursor = max(0, len(v.rows)-1)
	}
}

func (v *RoutineListView) selected() (task.Task, bool) {
	if len(v.rows) == 0 || v.cursor >= len(v.rows) {
		return task.Task{}, false
	}
	return v.rows[v.cursor], true
}

func (v *RoutineListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.editDesc.SetWidth(clamp(contentWidth-10, 20, 50))
		return v, nil

	case routinesLoadedMsg:
		if msg.err != nil {
			v.alert = msg.err.Error()
			return v, nil
		}
		v.loaded = true
		v.refresh()
		return v, nil

	case opDoneMsg:
		v.notice = ""
		v.alert = ""
		switch {
		case errors.Is(msg.err, engine.ErrInFlight):
		case msg.err != nil:
			v.alert = msg.err.Error()
		case msg.note != "":
			v.notice = msg.note
		}
		v.refresh()
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.editing {
			return v.updateEditing(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *RoutineListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.rows)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		// Pause/resume. Optimistic: flip the row now, engine rolls it
		// back if the store refuses.
		if r, ok := v.selected(); ok {
			v.rows[v.cursor].Active = !r.Active
			return v, func() tea.Msg {
				return opDoneMsg{id: r.ID, err: v.eng.ToggleActive(context.Background(), r.ID)}
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.CheckIn):
		if r, ok := v.selected(); ok {
			if !r.Active {
				v.alert = "Paused routines cannot be checked in"
				return v, nil
			}
			return v, func() tea.Msg {
				note, err := v.eng.CheckIn(context.Background(), r.ID)
				return opDoneMsg{id: r.ID, note: note, err: err}
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Notify):
		if r, ok := v.selected(); ok {
			return v, func() tea.Msg {
				err := v.eng.TestNotification(context.Background(), r.ID)
				note := ""
				if err == nil {
					note = "Test notification sent"
				}
				return opDoneMsg{id: r.ID, note: note, err: err}
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Filter):
		// Cycle active → paused → all. Resets to page one.
		next := nextFilter(v.eng.Filter())
		v.cursor = 0
		v.scrollY = 0
		return v, v.loadRoutines(next)

	case key.Matches(msg, v.keys.More):
		if v.eng.HasMore() {
			return v, v.loadMore
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startNew()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit):
		if r, ok := v.selected(); ok {
			v.startEdit(r)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if r, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTargetID = r.ID
		}
		return v, nil

	case key.Matches(msg, v.keys.Reload):
		return v, v.loadRoutines(v.eng.Filter())

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

func nextFilter(f store.ActiveFilter) store.ActiveFilter {
	for i, cur := range store.Filters {
		if cur == f {
			return store.Filters[(i+1)%len(store.Filters)]
		}
	}
	return store.FilterActive
}

func (v *RoutineListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		id := v.deleteTargetID
		v.confirmingDelete = false
		return v, func() tea.Msg {
			return opDoneMsg{id: id, err: v.eng.Delete(context.Background(), id)}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *RoutineListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case msg.String() == "ctrl+s":
		return v.saveRoutine()

	case key.Matches(msg, v.keys.Tab):
		v.editFocus = (v.editFocus + 1) % rfCount
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editFocus = (v.editFocus + rfCount - 1) % rfCount
		v.updateEditFocus()
		return v, nil

	case msg.String() == "left" && v.isSelectorFocus():
		v.cycleSelector(-1)
		return v, nil

	case msg.String() == "right" && v.isSelectorFocus():
		v.cycleSelector(1)
		return v, nil

	case msg.String() == " " && v.editFocus == rfCallMode:
		v.callMode = !v.callMode
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.editFocus {
		case rfDesc:
			// Textarea takes the newline.
		case rfSave:
			return v.saveRoutine()
		default:
			v.editFocus = (v.editFocus + 1) % rfCount
			v.updateEditFocus()
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.editFocus {
	case rfTitle:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case rfDesc:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case rfRemindAt:
		v.editRemind, cmd = v.editRemind.Update(msg)
	case rfCron:
		v.editCron, cmd = v.editCron.Update(msg)
	case rfNotifyUsers:
		v.editNotify, cmd = v.editNotify.Update(msg)
	case rfIcon:
		v.editIcon, cmd = v.editIcon.Update(msg)
	case rfImage:
		v.editImage, cmd = v.editImage.Update(msg)
	case rfURL:
		v.editURL, cmd = v.editURL.Update(msg)
	}
	return v, cmd
}

func (v *RoutineListView) isSelectorFocus() bool {
	switch v.editFocus {
	case rfRecurrence, rfSound, rfLevel:
		return true
	}
	return false
}

func (v *RoutineListView) cycleSelector(dir int) {
	switch v.editFocus {
	case rfRecurrence:
		n := len(recurrenceChoices())
		v.recurChoice = (v.recurChoice + dir + n) % n
	case rfSound:
		n := len(task.Sounds)
		v.soundIdx = (v.soundIdx + dir + n) % n
	case rfLevel:
		n := len(task.Levels)
		v.levelIdx = (v.levelIdx + dir + n) % n
	}
}

func (v *RoutineListView) startNew() {
	v.editing = true
	v.editingNew = true
	v.editID = ""
	v.editFocus = rfTitle
	v.alert = ""
	v.recurChoice = 0
	v.hadNotification = false
	v.soundIdx = v.defSoundIdx
	v.levelIdx = v.defLevelIdx
	v.callMode = false
	v.editTitle.Reset()
	v.editDesc.Reset()
	v.editRemind.Reset()
	v.editCron.Reset()
	v.editNotify.Reset()
	v.editIcon.Reset()
	v.editImage.Reset()
	v.editURL.Reset()
	v.updateEditFocus()
}

func (v *RoutineListView) startEdit(r task.Task) {
	v.editing = true
	v.editingNew = false
	v.editID = r.ID
	v.editFocus = rfTitle
	v.alert = ""
	v.editTitle.SetValue(r.Title)
	v.editDesc.SetValue(r.Description)
	if r.RemindAt != nil {
		v.editRemind.SetValue(r.RemindAt.Local().Format(remindAtLayout))
	} else {
		v.editRemind.Reset()
	}

	v.recurChoice = 0
	v.editCron.Reset()
	switch r.Recurrence.Kind() {
	case task.RecurCron:
		v.editCron.SetValue(string(r.Recurrence))
	default:
		for i, c := range recurrenceChoices() {
			if c.value == r.Recurrence {
				v.recurChoice = i
				break
			}
		}
	}

	v.editNotify.SetValue(strings.Join(r.NotifyUsers, ", "))
	v.hadNotification = r.Notification != nil
	v.soundIdx = v.defSoundIdx
	v.levelIdx = v.defLevelIdx
	v.callMode = false
	v.editIcon.Reset()
	v.editImage.Reset()
	v.editURL.Reset()
	if n := r.Notification; n != nil {
		for i, s := range task.Sounds {
			if s == n.Sound {
				v.soundIdx = i
			}
		}
		for i, l := range task.Levels {
			if l == n.Level {
				v.levelIdx = i
			}
		}
		v.callMode = n.CallMode
		v.editIcon.SetValue(n.Icon)
		v.editImage.SetValue(n.Image)
		v.editURL.SetValue(n.URL)
	}
	v.updateEditFocus()
}

func (v *RoutineListView) updateEditFocus() {
	inputs := []*textinput.Model{
		&v.editTitle, &v.editRemind, &v.editCron, &v.editNotify,
		&v.editIcon, &v.editImage, &v.editURL,
	}
	for _, in := range inputs {
		in.Blur()
	}
	v.editDesc.Blur()

	switch v.editFocus {
	case rfTitle:
		v.editTitle.Focus()
	case rfDesc:
		v.editDesc.Focus()
	case rfRemindAt:
		v.editRemind.Focus()
	case rfCron:
		v.editCron.Focus()
	case rfNotifyUsers:
		v.editNotify.Focus()
	case rfIcon:
		v.editIcon.Focus()
	case rfImage:
		v.editImage.Focus()
	case rfURL:
		v.editURL.Focus()
	}
}

// formRecurrence resolves the descriptor: a filled-in cron line wins
// over the preset choice.
func (v *RoutineListView) formRecurrence() task.Recurrence {
	if raw := strings.TrimSpace(v.editCron.Value()); raw != "" {
		return task.Recurrence(raw)
	}
	return recurrenceChoices()[v.recurChoice].value
}

// notificationEdited reports whether the profile section differs from
// the pristine defaults the form opened with.
func (v *RoutineListView) notificationEdited() bool {
	return v.soundIdx != v.defSoundIdx ||
		v.levelIdx != v.defLevelIdx ||
		strings.TrimSpace(v.editIcon.Value()) != "" ||
		strings.TrimSpace(v.editImage.Value()) != "" ||
		strings.TrimSpace(v.editURL.Value()) != "" ||
		v.callMode
}

func (v *RoutineListView) formNotification() *task.Notification {
	n := task.Notification{
		Sound:    task.Sounds[v.soundIdx],
		Level:    task.Levels[v.levelIdx],
		Icon:     strings.TrimSpace(v.editIcon.Value()),
		Image:    strings.TrimSpace(v.editImage.Value()),
		URL:      strings.TrimSpace(v.editURL.Value()),
		CallMode: v.callMode,
	}
	return &n
}

func (v *RoutineListView) saveRoutine() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(v.editTitle.Value())
	if title == "" {
		v.alert = "Title must not be empty"
		return v, nil
	}

	var remind *time.Time
	clearRemind := true
	if raw := strings.TrimSpace(v.editRemind.Value()); raw != "" {
		d, err := time.ParseInLocation(remindAtLayout, raw, time.Local)
		if err != nil {
			v.alert = "Remind at must look like " + remindAtLayout
			return v, nil
		}
		remind = &d
		clearRemind = false
	}

	recurrence := v.formRecurrence()
	if err := recurrence.Validate(); err != nil {
		v.alert = err.Error()
		return v, nil
	}
	notification := v.formNotification()
	if err := notification.Validate(); err != nil {
		v.alert = err.Error()
		return v, nil
	}

	desc := strings.TrimSpace(v.editDesc.Value())
	notifyUsers := splitComma(v.editNotify.Value())

	v.editing = false
	v.alert = ""

	if v.editingNew {
		t := task.Task{
			Variant:      task.VariantRoutine,
			Title:        title,
			Description:  desc,
			Active:       true,
			RemindAt:     remind,
			Recurrence:   recurrence,
			NotifyUsers:  notifyUsers,
			Notification: notification,
		}
		return v, func() tea.Msg {
			return opDoneMsg{err: v.eng.Create(context.Background(), t)}
		}
	}

	id := v.editID
	f := store.Fields{
		Title:       &title,
		Description: &desc,
		RemindAt:    remind,
		ClearRemind: clearRemind,
		Recurrence:  &recurrence,
		NotifyUsers: &notifyUsers,
	}
	// A routine without a profile keeps none unless the user actually
	// configured one; an existing profile is always rewritten.
	if v.hadNotification || v.notificationEdited() {
		f.Notification = &notification
	}
	return v, func() tea.Msg {
		return opDoneMsg{id: id, err: v.eng.UpdateFields(context.Background(), id, f)}
	}
}

func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (v *RoutineListView) ensureVisible() {
	availableHeight := v.height - 12
	if availableHeight < 2 {
		availableHeight = 2
	}
	visibleItems := availableHeight / 2
	if visibleItems < 1 {
		visibleItems = 1
	}

	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

// View renders the view
func (v *RoutineListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}
	if v.editing {
		return v.renderEditForm()
	}
	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	if len(v.rows) == 0 {
		b.WriteString(v.styles.TitleMuted.Render("No routines under this filter. Press 'n' to add one, 'f' to change filter."))
	} else {
		b.WriteString(v.renderList())
	}
	b.WriteString("\n")
	b.WriteString(v.renderStatusLine())
	b.WriteString(v.renderHelp())
	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *RoutineListView) renderHeader() string {
	s := v.styles
	filter := string(v.eng.Filter())
	header := s.Title.Render("Routines") + "  " + s.TitleMuted.Render("filter: "+filter)
	if v.eng.HasMore() {
		header += "  " + s.TitleMuted.Render("(more pages, press m)")
	}
	return header
}

func (v *RoutineListView) renderList() string {
	availableHeight := v.height - 12
	if availableHeight < 2 {
		availableHeight = 2
	}
	visibleItems := availableHeight / 2
	if visibleItems < 1 {
		visibleItems = 1
	}

	var items []string
	endIdx := min(v.scrollY+visibleItems, len(v.rows))
	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderItem(v.rows[i], i == v.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *RoutineListView) renderItem(r task.Task, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	marker := s.BadgePaused.Render("‖")
	if r.Active {
		marker = s.BadgeActive.Render("●")
	}
	if v.eng.Busy(r.ID) {
		marker = s.Busy.Render("⋯")
	}

	line := marker + " " + r.Title + "  " + s.TitleMuted.Render(r.Recurrence.Label())
	if r.RemindAt != nil {
		line += s.TitleMuted.Render(" @ " + r.RemindAt.Local().Format("Jan 2 15:04"))
	}
	if r.Notification != nil && r.Notification.Level == task.LevelCritical {
		line += "  " + s.BadgeInProgress.Render("critical")
	}

	itemStyle := s.ListItem
	if selected {
		itemStyle = s.ListSelected
	}
	return itemStyle.Width(width).Render(line) + "\n"
}

func (v *RoutineListView) renderStatusLine() string {
	if v.alert != "" {
		return v.styles.Alert.Render(v.alert)
	}
	if v.notice != "" {
		return v.styles.Notice.Render(v.notice)
	}
	return ""
}

func (v *RoutineListView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Routine"
	if !v.editingNew {
		formTitle = "Edit Routine"
	}

	style := func(focus int) lipgloss.Style {
		if v.editFocus == focus {
			return s.InputFocused
		}
		return s.Input
	}
	selector := func(focus int, label string) string {
		text := "◂ " + label + " ▸"
		if v.editFocus == focus {
			return s.Selector.Bold(true).Render(text)
		}
		return s.Selector.Render(text)
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	recurLabel := recurrenceChoices()[v.recurChoice].label
	callLabel := "off"
	if v.callMode {
		callLabel = "on (ring persistently)"
	}
	btnStyle := s.Button
	if v.editFocus == rfSave {
		btnStyle = s.ButtonFocused
	}

	parts := []string{
		s.Title.Render(formTitle),
		"",
		"Title:",
		style(rfTitle).Width(inputWidth).Render(v.editTitle.View()),
		"Description:",
		style(rfDesc).Render(v.editDesc.View()),
		"Remind at (optional):",
		style(rfRemindAt).Width(20).Render(v.editRemind.View()),
		"Repeat: " + selector(rfRecurrence, recurLabel),
		style(rfCron).Width(inputWidth).Render(v.editCron.View()),
		"Also notify:",
		style(rfNotifyUsers).Width(inputWidth).Render(v.editNotify.View()),
		"",
		s.TitleMuted.Render("Notification"),
		"Sound: " + selector(rfSound, task.Sounds[v.soundIdx]) +
			"   Level: " + selector(rfLevel, string(task.Levels[v.levelIdx])),
		"Icon:",
		style(rfIcon).Width(inputWidth).Render(v.editIcon.View()),
		"Image:",
		style(rfImage).Width(inputWidth).Render(v.editImage.View()),
		"Link:",
		style(rfURL).Width(inputWidth).Render(v.editURL.View()),
		"Call mode: " + selector(rfCallMode, callLabel),
		"",
		btnStyle.Render(" Save "),
		s.TitleMuted.Render("Tab: next • ◂▸: choose • Ctrl+S: save • Esc: cancel"),
	}
	if v.alert != "" {
		parts = append(parts, s.Alert.Render(v.alert))
	}

	form := lipgloss.JoinVertical(lipgloss.Left, parts...)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *RoutineListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s pause/resume • %s check in • %s test • %s filter • %s more • %s new • %s edit • %s del • %s quit",
			v.styles.HelpKey.Render("space"),
			v.styles.HelpKey.Render("c"),
			v.styles.HelpKey.Render("t"),
			v.styles.HelpKey.Render("f"),
			v.styles.HelpKey.Render("m"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *RoutineListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("space") + "  pause/resume routine",
		s.HelpKey.Render("c") + "      check in current occurrence",
		s.HelpKey.Render("t") + "      send test notification",
		s.HelpKey.Render("f") + "      cycle filter active/paused/all",
		s.HelpKey.Render("m") + "      load more",
		s.HelpKey.Render("n") + "      new routine",
		s.HelpKey.Render("e") + "      edit routine",
		s.HelpKey.Render("d") + "      delete routine",
		s.HelpKey.Render("r") + "      reload",
		s.HelpKey.Render("1/2") + "    switch wishes/routines",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *RoutineListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Routine?"),
		"",
		s.TitleMuted.Render("Deletion is immediate and cannot be undone."),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
