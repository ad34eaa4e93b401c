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

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

const targetDateLayout = "2006-01-02"

// WishListView shows the one-off tasks bucketed by lifecycle.
type WishListView struct {
	eng    *engine.Engine
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	rows    []task.Task // flattened buckets: todo, in progress, done
	cursor  int
	scrollY int
	loaded  bool

	notice string
	alert  string

	// Creation/editing
	editing    bool
	editingNew bool
	editID     string
	editTitle  textinput.Model
	editDesc   textarea.Model
	editTarget textinput.Model
	editImages textarea.Model
	editFocus  int // 0=title, 1=desc, 2=target, 3=images, 4=save

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   string

	showHelpPopup bool
}

// NewWishListView creates the wish list view
func NewWishListView(eng *engine.Engine) *WishListView {
	s := styles.NewStyles()

	editTitle := textinput.New()
	editTitle.Placeholder = "Wish title"
	editTitle.CharLimit = 200

	editDesc := textarea.New()
	editDesc.Placeholder = "Description"
	editDesc.CharLimit = 1000
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false

	editTarget := textinput.New()
	editTarget.Placeholder = targetDateLayout
	editTarget.CharLimit = 10

	editImages := textarea.New()
	editImages.Placeholder = "Image URLs, one per line"
	editImages.CharLimit = 2000
	editImages.SetWidth(50)
	editImages.SetHeight(3)
	editImages.ShowLineNumbers = false

	return &WishListView{
		eng:        eng,
		styles:     s,
		keys:       keys.DefaultKeyMap(),
		editTitle:  editTitle,
		editDesc:   editDesc,
		editTarget: editTarget,
		editImages: editImages,
	}
}

// InputActive reports whether the view is capturing keystrokes for a
// form or dialog, in which case global shortcuts must stay out.
func (v *WishListView) InputActive() bool {
	return v.editing || v.confirmingDelete
}

func (v *WishListView) Init() tea.Cmd {
	return v.loadWishes
}

func (v *WishListView) loadWishes() tea.Msg {
	return wishesLoadedMsg{err: v.eng.LoadWishes(context.Background())}
}

func (v *WishListView) refresh() {
	todo, inProgress, done := v.eng.WishBuckets()
	v.rows = append(append(todo, inProgress...), done...)
	if v.cursor >= len(v.rows) {
		v.cursor = max(0, len(v.rows)-1)
	}
}

func (v *WishListView) selected() (task.Task, bool) {
	if len(v.rows) == 0 || v.cursor >= len(v.rows) {
		return task.Task{}, false
	}
	return v.rows[v.cursor], true
}

func (v *WishListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		inputWidth := clamp(contentWidth-10, 20, 50)
		v.editDesc.SetWidth(inputWidth)
		v.editImages.SetWidth(inputWidth)
		return v, nil

	case wishesLoadedMsg:
		if msg.err != nil {
			v.alert = msg.err.Error()
			return v, nil
		}
		v.loaded = true
		v.refresh()
		return v, nil

	case opDoneMsg:
		v.applyOpDone(msg)
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

// applyOpDone folds a finished mutation back into the view. Re-entrancy
// rejections stay invisible; the busy marker was already on screen.
func (v *WishListView) applyOpDone(msg opDoneMsg) {
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
}

func (v *WishListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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

	case key.Matches(msg, v.keys.Status):
		// Quick status cycle on the selected wish. The engine applies
		// it optimistically and guards double-fire per task.
		if w, ok := v.selected(); ok {
			next := w.Status.Next()
			v.rows[v.cursor].Status = next // show the move immediately
			return v, func() tea.Msg {
				return opDoneMsg{id: w.ID, err: v.eng.SetStatus(context.Background(), w.ID, next)}
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startNew()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit):
		if w, ok := v.selected(); ok {
			v.startEdit(w)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if w, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTargetID = w.ID
		}
		return v, nil

	case key.Matches(msg, v.keys.Reload):
		return v, v.loadWishes

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

func (v *WishListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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

func (v *WishListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case msg.String() == "ctrl+s":
		return v.saveWish()

	case key.Matches(msg, v.keys.Tab):
		v.editFocus = (v.editFocus + 1) % 5
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editFocus = (v.editFocus + 4) % 5
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		// Enter on single-line fields advances; on the save button it saves.
		if v.editFocus == 0 || v.editFocus == 2 {
			v.editFocus++
			v.updateEditFocus()
			return v, nil
		}
		if v.editFocus == 4 {
			return v.saveWish()
		}
		// Textareas take the newline.
	}

	var cmd tea.Cmd
	switch v.editFocus {
	case 0:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case 1:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case 2:
		v.editTarget, cmd = v.editTarget.Update(msg)
	case 3:
		v.editImages, cmd = v.editImages.Update(msg)
	}
	return v, cmd
}

func (v *WishListView) startNew() {
	v.editing = true
	v.editingNew = true
	v.editID = ""
	v.editFocus = 0
	v.alert = ""
	v.editTitle.Reset()
	v.editDesc.Reset()
	v.editTarget.Reset()
	v.editImages.Reset()
	v.updateEditFocus()
}

func (v *WishListView) startEdit(w task.Task) {
	v.editing = true
	v.editingNew = false
	v.editID = w.ID
	v.editFocus = 0
	v.alert = ""
	v.editTitle.SetValue(w.Title)
	v.editDesc.SetValue(w.Description)
	if w.TargetDate != nil {
		v.editTarget.SetValue(w.TargetDate.Format(targetDateLayout))
	} else {
		v.editTarget.Reset()
	}
	v.editImages.SetValue(strings.Join(w.Images, "\n"))
	v.updateEditFocus()
}

func (v *WishListView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDesc.Blur()
	v.editTarget.Blur()
	v.editImages.Blur()

	switch v.editFocus {
	case 0:
		v.editTitle.Focus()
	case 1:
		v.editDesc.Focus()
	case 2:
		v.editTarget.Focus()
	case 3:
		v.editImages.Focus()
	}
}

// saveWish validates inline; nothing leaves the client until the form
// is well-formed.
func (v *WishListView) saveWish() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(v.editTitle.Value())
	if title == "" {
		v.alert = "Title must not be empty"
		return v, nil
	}

	var target *time.Time
	clearTarget := true
	if raw := strings.TrimSpace(v.editTarget.Value()); raw != "" {
		d, err := time.ParseInLocation(targetDateLayout, raw, time.Local)
		if err != nil {
			v.alert = "Target date must look like " + targetDateLayout
			return v, nil
		}
		target = &d
		clearTarget = false
	}

	desc := strings.TrimSpace(v.editDesc.Value())
	images := splitLines(v.editImages.Value())

	v.editing = false
	v.alert = ""

	if v.editingNew {
		t := task.Task{
			Variant:     task.VariantWish,
			Title:       title,
			Description: desc,
			Status:      task.StatusTodo,
			TargetDate:  target,
			Images:      images,
		}
		return v, func() tea.Msg {
			return opDoneMsg{err: v.eng.Create(context.Background(), t)}
		}
	}

	id := v.editID
	f := store.Fields{
		Title:       &title,
		Description: &desc,
		TargetDate:  target,
		ClearTarget: clearTarget,
		Images:      &images,
	}
	return v, func() tea.Msg {
		return opDoneMsg{id: id, err: v.eng.UpdateFields(context.Background(), id, f)}
	}
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func (v *WishListView) ensureVisible() {
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
func (v *WishListView) View() string {
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
	if len(v.rows) == 0 {
		return v.renderEmpty()
	}

	var b strings.Builder
	b.WriteString(v.renderList())
	b.WriteString("\n")
	b.WriteString(v.renderStatusLine())
	b.WriteString(v.renderHelp())
	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *WishListView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Wishes"),
		"",
		s.TitleMuted.Render("Press 'n' to add your first wish"),
	)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *WishListView) renderList() string {
	s := v.styles

	availableHeight := v.height - 12
	if availableHeight < 2 {
		availableHeight = 2
	}
	visibleItems := availableHeight / 2
	if visibleItems < 1 {
		visibleItems = 1
	}

	var items []string
	lastStatus := task.Status("")
	endIdx := min(v.scrollY+visibleItems, len(v.rows))
	for i := v.scrollY; i < endIdx; i++ {
		w := v.rows[i]
		if w.Status != lastStatus {
			items = append(items, s.SectionHead.Render(strings.ToUpper(w.Status.Label())))
			lastStatus = w.Status
		}
		items = append(items, v.renderItem(w, i == v.cursor))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *WishListView) renderItem(w task.Task, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	marker := v.statusBadge(w.Status)
	if v.eng.Busy(w.ID) {
		marker = s.Busy.Render("⋯")
	}

	line := marker + " " + w.Title
	if w.TargetDate != nil {
		line += "  " + s.TitleMuted.Render("by "+w.TargetDate.Format("Jan 2"))
	}
	if len(w.Images) > 0 {
		line += "  " + s.TitleMuted.Render(fmt.Sprintf("[%d img]", len(w.Images)))
	}

	itemStyle := s.ListItem
	if selected {
		itemStyle = s.ListSelected
	}
	return itemStyle.Width(width).Render(line) + "\n"
}

func (v *WishListView) statusBadge(st task.Status) string {
	s := v.styles
	switch st {
	case task.StatusInProgress:
		return s.BadgeInProgress.Render("◐")
	case task.StatusDone:
		return s.BadgeDone.Render("●")
	default:
		return s.BadgeTodo.Render("○")
	}
}

func (v *WishListView) renderStatusLine() string {
	if v.alert != "" {
		return v.styles.Alert.Render(v.alert)
	}
	if v.notice != "" {
		return v.styles.Notice.Render(v.notice)
	}
	return ""
}

func (v *WishListView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Wish"
	if !v.editingNew {
		formTitle = "Edit Wish"
	}

	titleStyle := s.Input
	descStyle := s.Input
	targetStyle := s.Input
	imagesStyle := s.Input
	btnStyle := s.Button

	switch v.editFocus {
	case 0:
		titleStyle = s.InputFocused
	case 1:
		descStyle = s.InputFocused
	case 2:
		targetStyle = s.InputFocused
	case 3:
		imagesStyle = s.InputFocused
	case 4:
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	parts := []string{
		s.Title.Render(formTitle),
		"",
		"Title:",
		titleStyle.Width(inputWidth).Render(v.editTitle.View()),
		"",
		"Description:",
		descStyle.Render(v.editDesc.View()),
		"",
		"Target date (optional):",
		targetStyle.Width(16).Render(v.editTarget.View()),
		"",
		"Images:",
		imagesStyle.Render(v.editImages.View()),
		"",
		btnStyle.Render(" Save "),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	}
	if v.alert != "" {
		parts = append(parts, "", s.Alert.Render(v.alert))
	}

	form := lipgloss.JoinVertical(lipgloss.Left, parts...)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *WishListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s status • %s new • %s edit • %s del • %s reload • %s quit",
			v.styles.HelpKey.Render("s"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *WishListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("s") + "      cycle todo → in progress → done",
		s.HelpKey.Render("n") + "      new wish",
		s.HelpKey.Render("e") + "      edit wish",
		s.HelpKey.Render("d") + "      delete wish",
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

func (v *WishListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Wish?"),
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
