package console

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/zetzet7298/letta-code/pkg/configuration"
	"github.com/zetzet7298/letta-code/pkg/history"
	"github.com/zetzet7298/letta-code/pkg/models"
	"github.com/zetzet7298/letta-code/pkg/pastestore"
	"github.com/zetzet7298/letta-code/pkg/utils"
)

// SessionConfig assembles the collaborators for an interactive session.
type SessionConfig struct {
	Input      *os.File
	Output     io.Writer
	Config     *configuration.Config
	Catalog    *models.Catalog
	History    *history.Manager
	Registry   *pastestore.Registry
	Translator Translator

	MaxPasteChars int
	MaxPasteLines int
}

// Session runs the interactive prompt: it owns the reader loop and
// routes keystrokes to the dropdown or the edit line, recalls history,
// and resolves paste placeholders at submission time. All keystroke
// handling happens on the reader's goroutine.
type Session struct {
	out      io.Writer
	config   *configuration.Config
	catalog  *models.Catalog
	history  *history.Manager
	cursor   *history.Cursor
	registry *pastestore.Registry

	bus      *EventBus
	reader   *InputReader
	widget   *EditLine
	renderer *LineRenderer
	dropdown *Dropdown

	currentModel string
	exclusive    bool
	quitting     bool

	modelsStale  atomic.Bool
	resizedWidth atomic.Int64
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	s := &Session{
		out:      cfg.Output,
		config:   cfg.Config,
		catalog:  cfg.Catalog,
		history:  cfg.History,
		cursor:   history.NewCursor(cfg.History),
		registry: cfg.Registry,
		bus:      NewEventBus(),
	}

	prompt := "> "
	if cfg.Config != nil && cfg.Config.Prompt != "" {
		prompt = cfg.Config.Prompt
	}
	s.renderer = NewLineRenderer(cfg.Output, prompt)

	s.widget = NewEditLine(EditLineConfig{
		Bus:           s.bus,
		Translator:    cfg.Translator,
		Registry:      cfg.Registry,
		MaxPasteChars: cfg.MaxPasteChars,
		MaxPasteLines: cfg.MaxPasteLines,
		Placeholder:   "Type a message, /help for commands",
		OnChange:      s.onChange,
		OnSubmit:      s.onSubmit,
		OnEscape:      s.onEscape,
		OnRefresh:     s.onRefresh,
	})

	s.dropdown = NewDropdown(s.bus, cfg.Output, s.onModelSelected, s.onDropdownCancel)

	// The dropdown claims and releases input routing over the bus, the
	// same way any future exclusive component would.
	s.bus.Subscribe(EventRequestExclusive, func(Event) error {
		s.exclusive = true
		return nil
	})
	s.bus.Subscribe(EventReleaseExclusive, func(Event) error {
		s.exclusive = false
		return nil
	})
	s.bus.Subscribe(EventModelsUpdated, func(Event) error {
		// Published from the watcher goroutine; pick it up on the next
		// keystroke instead of touching terminal state here.
		s.modelsStale.Store(true)
		return nil
	})

	s.reader = NewInputReader(cfg.Input, cfg.Output, s.bus, s.handleKeystroke)

	s.currentModel = s.pickModel()
	return s
}

func (s *Session) pickModel() string {
	if s.config != nil && s.config.LastUsedModel != "" {
		if _, ok := s.catalog.Find(s.config.LastUsedModel); ok {
			return s.config.LastUsedModel
		}
	}
	if all := s.catalog.Models(); len(all) > 0 {
		return all[0].ID
	}
	return ""
}

// Run blocks until the user quits or input ends.
func (s *Session) Run() error {
	s.updateWidth()

	if err := s.catalog.Watch(func() {
		_ = s.bus.Publish(Event{Type: EventModelsUpdated, Source: "models"})
	}); err != nil {
		utils.GetLogger().LogError(err)
	}
	defer s.catalog.Close()
	defer s.widget.Close()

	stopSignals := make(chan os.Signal, 1)
	signal.Notify(stopSignals, signalsToCapture()...)
	defer signal.Stop(stopSignals)
	go func() {
		if _, ok := <-stopSignals; ok {
			s.reader.Stop()
		}
	}()

	if sig := resizeSignal(); sig != nil {
		resized := make(chan os.Signal, 1)
		signal.Notify(resized, sig)
		defer signal.Stop(resized)
		go func() {
			for range resized {
				if f, ok := s.out.(*os.File); ok {
					if w, _, err := term.GetSize(int(f.Fd())); err == nil {
						s.resizedWidth.Store(int64(w))
					}
				}
			}
		}()
	}

	fmt.Fprintf(s.out, "letta-code interactive console. Model: %s. /help for commands.\r\n", s.currentModel)
	s.render()

	err := s.reader.Run()
	fmt.Fprint(s.out, "\r\n")

	if s.history != nil {
		if saveErr := s.history.Save(); saveErr != nil {
			utils.GetLogger().LogError(saveErr)
		}
	}
	if err == io.EOF {
		return nil
	}
	return err
}

// handleKeystroke is the single routing point for every keystroke.
func (s *Session) handleKeystroke(k Keystroke) {
	s.applyPendingUpdates()

	switch k.Name {
	case "interrupt":
		s.onInterrupt()
		return
	case "eof":
		if s.widget.Value() == "" && !s.exclusive {
			s.quit()
		}
		return
	case "resume":
		s.render()
		return
	}

	if s.exclusive {
		s.dropdown.HandleKeystroke(k)
		if !s.exclusive {
			s.render()
		}
		return
	}

	if !k.Ctrl && !k.Meta {
		switch k.Name {
		case "up":
			if entry, ok := s.cursor.Up(s.widget.Value()); ok {
				s.widget.SetValueAndCursor(entry, utf8.RuneCountInString(entry))
			}
			s.render()
			return
		case "down":
			if entry, ok := s.cursor.Down(); ok {
				s.widget.SetValueAndCursor(entry, utf8.RuneCountInString(entry))
			}
			s.render()
			return
		}
	}

	s.widget.HandleKeystroke(k)
	if !s.quitting && !s.exclusive {
		s.render()
	}
}

// applyPendingUpdates folds in state changed by other goroutines: a
// resized terminal and a reloaded model catalog.
func (s *Session) applyPendingUpdates() {
	if w := s.resizedWidth.Swap(0); w > 0 {
		s.renderer.SetWidth(int(w))
		s.dropdown.SetWidth(int(w))
	}
	if s.modelsStale.Swap(false) {
		if _, ok := s.catalog.Find(s.currentModel); !ok {
			s.currentModel = s.pickModel()
		}
		if s.dropdown.Active() {
			s.dropdown.Refresh(s.modelItems())
		}
	}
}

func (s *Session) onInterrupt() {
	if s.exclusive {
		s.dropdown.HandleKeystroke(Keystroke{Name: "escape"})
		s.render()
		return
	}
	if s.widget.Value() != "" {
		fmt.Fprint(s.out, "^C\r\n")
		s.widget.SetValue("")
		s.cursor.Reset()
		s.render()
		return
	}
	s.quit()
}

func (s *Session) quit() {
	s.quitting = true
	s.reader.Stop()
}

func (s *Session) onChange(string) {
	// Typing leaves history navigation.
	s.cursor.Reset()
}

func (s *Session) onEscape() {
	if s.widget.Value() != "" {
		s.widget.SetValue("")
		s.cursor.Reset()
	}
}

func (s *Session) onRefresh() {
	if err := s.catalog.Load(); err != nil {
		utils.GetLogger().LogError(err)
		return
	}
	utils.GetLogger().LogConsoleEvent("models_refreshed", "shortcut")
}

func (s *Session) onSubmit(value string) {
	if value == "" {
		return
	}

	if strings.HasPrefix(value, "/") {
		s.renderer.Newline()
		s.runCommand(value)
		if !s.quitting && !s.exclusive {
			s.widget.SetValue("")
			s.render()
		}
		return
	}

	s.deliver(value)

	if s.history != nil {
		s.history.Add(value)
		if err := s.history.Save(); err != nil {
			utils.GetLogger().LogError(err)
		}
	}
	s.cursor.Reset()
	s.widget.SetValue("")
	s.render()
}

// deliver expands paste placeholders and prints the outgoing message.
// Resolution happens here, at submission time, never inside the editing
// engine.
func (s *Session) deliver(value string) {
	resolved := value
	if s.registry != nil {
		resolved = s.registry.Resolve(value)
	}

	s.renderer.Newline()
	fmt.Fprintf(s.out, "%s[%s]%s %s\r\n",
		DimTextSeq(), s.currentModel, ResetTextSeq(),
		strings.ReplaceAll(resolved, "\n", "\r\n  "))

	utils.GetLogger().LogConsoleEvent("message_submitted",
		fmt.Sprintf("model=%s chars=%d", s.currentModel, utf8.RuneCountInString(resolved)))
}

func (s *Session) runCommand(line string) {
	fields := strings.Fields(line)
	cmd := fields[0]

	switch cmd {
	case "/help":
		fmt.Fprint(s.out, "Commands:\r\n"+
			"  /model [id]   select the active model (no id opens the picker)\r\n"+
			"  /models       list available models\r\n"+
			"  /history      show recent prompts\r\n"+
			"  /clear        clear the input line\r\n"+
			"  /quit         exit\r\n")

	case "/model":
		if len(fields) > 1 {
			s.selectModel(fields[1])
			return
		}
		s.widget.SetFocus(false)
		s.dropdown.Open("Select model (type to filter, Enter to choose)", s.modelItems())

	case "/models":
		for _, m := range s.catalog.Models() {
			marker := "  "
			if m.ID == s.currentModel {
				marker = "* "
			}
			fmt.Fprintf(s.out, "%s%-24s %-10s %s\r\n", marker, m.ID, m.Provider, m.Description)
		}

	case "/history":
		entries := s.history.Entries()
		start := 0
		if len(entries) > 10 {
			start = len(entries) - 10
		}
		for _, entry := range entries[start:] {
			fmt.Fprintf(s.out, "  %s\r\n", entry)
		}

	case "/clear":
		// the caller resets the widget value after every command

	case "/quit", "/exit":
		s.quit()

	default:
		fmt.Fprintf(s.out, "unknown command %s, try /help\r\n", cmd)
	}
}

func (s *Session) selectModel(id string) {
	model, ok := s.catalog.Find(id)
	if !ok {
		fmt.Fprintf(s.out, "unknown model %q, see /models\r\n", id)
		s.widget.SetValue("")
		s.render()
		return
	}
	s.setModel(model)
	s.widget.SetValue("")
	s.render()
}

func (s *Session) setModel(model models.Model) {
	s.currentModel = model.ID
	fmt.Fprintf(s.out, "model set to %s (%s)\r\n", model.ID, model.Provider)
	utils.GetLogger().LogConsoleEvent("model_selected", model.ID)

	if s.config != nil {
		s.config.LastUsedModel = model.ID
		if err := s.config.Save(); err != nil {
			utils.GetLogger().LogError(err)
		}
	}
}

func (s *Session) onModelSelected(item ListItem) {
	s.widget.SetFocus(true)
	s.renderer.Newline()
	if model, ok := s.catalog.Find(item.Value()); ok {
		s.setModel(model)
	}
	s.widget.SetValue("")
	s.render()
}

func (s *Session) onDropdownCancel() {
	s.widget.SetFocus(true)
	s.widget.SetValue("")
}

func (s *Session) modelItems() []ListItem {
	all := s.catalog.Models()
	items := make([]ListItem, 0, len(all))
	for _, m := range all {
		items = append(items, modelItem{m})
	}
	return items
}

func (s *Session) render() {
	s.renderer.Render(s.widget.Value(), s.widget.Cursor(), s.widget.Placeholder())
}

func (s *Session) updateWidth() {
	if f, ok := s.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			s.renderer.SetWidth(w)
			s.dropdown.SetWidth(w)
		}
	}
}

// modelItem adapts a catalog model to the dropdown.
type modelItem struct {
	m models.Model
}

func (it modelItem) Display() string {
	if it.m.Description == "" {
		return fmt.Sprintf("%-28s %s", it.m.Name, it.m.Provider)
	}
	return fmt.Sprintf("%-28s %-10s %s", it.m.Name, it.m.Provider, it.m.Description)
}

func (it modelItem) SearchText() string {
	return strings.ToLower(it.m.ID + " " + it.m.Name + " " + it.m.Provider)
}

func (it modelItem) Value() string { return it.m.ID }
