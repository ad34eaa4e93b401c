package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rota/internal/engine"
	"rota/internal/ui/styles"
	"rota/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewWishes View = iota
	ViewRoutines
)

type App struct {
	currentView View
	wishList    *views.WishListView
	routineList *views.RoutineListView
	styles      *styles.Styles
	width       int
	height      int
}

// Creates a new application. defaultSound and defaultLevel come from
// the config file and seed new routines' notification profiles.
func NewApp(eng *engine.Engine, defaultSound, defaultLevel string) *App {
	return &App{
		currentView: ViewWishes,
		wishList:    views.NewWishListView(eng),
		routineList: views.NewRoutineListView(eng, defaultSound, defaultLevel),
		styles:      styles.NewStyles(),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.wishList.Init(), a.routineList.Init())
}

func (a *App) inputActive() bool {
	if a.currentView == ViewWishes {
		return a.wishList.InputActive()
	}
	return a.routineList.InputActive()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Both views persist, so both track the terminal size.
		a.wishList.Update(msg)
		a.routineList.Update(msg)
		return a, nil

	case tea.KeyMsg:
		if !a.inputActive() {
			switch msg.String() {
			case "1":
				a.currentView = ViewWishes
				return a, nil
			case "2":
				a.currentView = ViewRoutines
				return a, nil
			case "tab":
				if a.currentView == ViewWishes {
					a.currentView = ViewRoutines
				} else {
					a.currentView = ViewWishes
				}
				return a, nil
			}
		}
		// Keys go to the active view only.
		var cmd tea.Cmd
		if a.currentView == ViewWishes {
			_, cmd = a.wishList.Update(msg)
		} else {
			_, cmd = a.routineList.Update(msg)
		}
		return a, cmd
	}

	// Load and op results may land after the user switched tabs, so both
	// views see them.
	_, wishCmd := a.wishList.Update(msg)
	_, routineCmd := a.routineList.Update(msg)
	return a, tea.Batch(wishCmd, routineCmd)
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.renderTabs())
	b.WriteString("\n")
	if a.currentView == ViewRoutines {
		b.WriteString(a.routineList.View())
	} else {
		b.WriteString(a.wishList.View())
	}
	return b.String()
}

func (a *App) renderTabs() string {
	s := a.styles
	wishes := s.Tab.Render("1 Wishes")
	routines := s.Tab.Render("2 Routines")
	if a.currentView == ViewWishes {
		wishes = s.TabActive.Render("1 Wishes")
	} else {
		routines = s.TabActive.Render("2 Routines")
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, wishes, routines)
	return styles.CenterView(bar, a.width, 1)
}
