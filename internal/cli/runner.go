package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/prefs"
	"github.com/idilsaglam/tada/internal/store/unidb"
	"github.com/idilsaglam/tada/internal/todolist"
	"github.com/idilsaglam/tada/internal/tui"
	"github.com/idilsaglam/tada/internal/ui"
)

// Options tune output behavior from root flags.
type Options struct {
	Plain bool   // print the list instead of starting the TUI
	Theme string // overrides the saved theme preference
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "ls":
		return withSession(ctx, opt, func(s *session) int { return doList(ctx, s) })

	case "add":
		if len(a) == 0 {
			ui.Fail("usage: todo add <name...>")
			return 2
		}
		return withSession(ctx, opt, func(s *session) int { return doAdd(ctx, s, strings.Join(a, " ")) })

	case "edit":
		if len(a) < 2 {
			ui.Fail("usage: todo edit <index> <name...>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("edit: not a number: " + a[0])
			return 2
		}
		return withSession(ctx, opt, func(s *session) int { return doEdit(ctx, s, n, strings.Join(a[1:], " ")) })

	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: todo rm <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("rm: not a number: " + a[0])
			return 2
		}
		return withSession(ctx, opt, func(s *session) int { return doRemove(ctx, s, n) })

	case "clear":
		return withSession(ctx, opt, func(s *session) int { return doClear(ctx, s) })

	case "config":
		if len(a) == 0 {
			ui.Fail("usage: todo config <show|set KEY VALUE>")
			return 2
		}
		switch a[0] {
		case "show":
			return doConfigShow()
		case "set":
			if len(a) != 3 {
				ui.Fail("usage: todo config set <base_url|contract_key|table> VALUE")
				return 2
			}
			return doConfigSet(a[1], a[2])
		}
		ui.Fail("usage: todo config <show|set KEY VALUE>")
		return 2

	case "prefs":
		return doPrefs(a)
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Printf(`todo - a tiny client for a hosted todo table

Usage:
  todo [-plain] [-theme NAME] <subcommand> [args]

Subcommands:
  ls                          List todos (interactive TUI unless -plain)
  add <name...>               Add a todo (name can be multiple words)
  edit <index> <name...>      Rename the todo at 1-based index
  rm <index>                  Remove the todo at 1-based index
  clear                       Remove every todo (best effort, not atomic)
  config show                 Show the store the client talks to
  config set KEY VALUE        Set base_url, contract_key or table
  prefs get KEY [KIND]        Read a local preference (bool|int|double|string|stringArray)
  prefs set KEY VALUE [KIND]  Write a local preference

Environment:
  TADA_BASE_URL, TADA_CONTRACT_KEY, TADA_TABLE override ~/.tada/config.yaml

Examples:
  todo add "Buy milk"
  todo ls
  todo edit 2 "Buy oat milk"
  todo rm 3
  todo prefs set theme neon
`)
}

// ---------------------------------------------------
// Session: config + remote client + controller
// ---------------------------------------------------

type session struct {
	cfg    *config.Config
	client *unidb.Client
	ctrl   *todolist.Controller
	prefs  *prefs.Store
	plain  bool
}

func openPrefs() (*prefs.Store, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return prefs.Open(dir), nil
}

func withSession(ctx context.Context, opt Options, fn func(*session) int) int {
	cfg, err := config.Load()
	if err != nil {
		ui.Fail("config: " + err.Error())
		return 1
	}
	client, err := unidb.New(unidb.Options{BaseURL: cfg.BaseURL, ContractKey: cfg.ContractKey, Table: cfg.Table})
	if err != nil {
		ui.Fail("config: " + err.Error())
		ui.Hint("Hint: run `todo config show`")
		return 1
	}
	p, err := openPrefs()
	if err != nil {
		ui.Fail("prefs: " + err.Error())
		return 1
	}

	theme := opt.Theme
	if theme == "" {
		theme = p.GetString("theme", "classic")
	}
	ui.SetTheme(theme)

	s := &session{
		cfg:    cfg,
		client: client,
		ctrl:   todolist.New(client),
		prefs:  p,
		plain:  opt.Plain || p.GetBool("plain", false),
	}
	return fn(s)
}

// pick refreshes and resolves a 1-based index against the fresh list.
func pick(ctx context.Context, s *session, userIndex int) (model.Todo, int) {
	if err := s.ctrl.Refresh(ctx); err != nil {
		ui.Fail("load: " + err.Error())
		return model.Todo{}, 1
	}
	items := s.ctrl.Snapshot().Items
	if userIndex < 1 || userIndex > len(items) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(items), userIndex))
		ui.Hint("Hint: run `todo -plain ls` to see valid indexes")
		return model.Todo{}, 2
	}
	return items[userIndex-1], 0
}

func countNamed(items []model.Todo, name string) int {
	n := 0
	for _, it := range items {
		if it.Name == name {
			n++
		}
	}
	return n
}

func find(items []model.Todo, id string) (model.Todo, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Todo{}, false
}

// ---------------------------------------------------
// Core subcommands (remote table CRUD)
// ---------------------------------------------------

func doList(ctx context.Context, s *session) int {
	if !s.plain {
		// The interactive TUI refreshes on start and after every change.
		if err := tui.Run(ctx, s.ctrl); err != nil {
			ui.Fail("tui: " + err.Error())
			return 1
		}
		return 0
	}
	if err := s.ctrl.Refresh(ctx); err != nil {
		ui.Fail("load: " + err.Error())
		return 1
	}
	ui.Panel(listLines(s.ctrl.Snapshot().Items, s.cfg.Table))
	return 0
}

func doAdd(ctx context.Context, s *session, name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		ui.Fail("add: empty name")
		return 2
	}
	if err := s.ctrl.Refresh(ctx); err != nil {
		ui.Fail("load: " + err.Error())
		return 1
	}
	before := countNamed(s.ctrl.Snapshot().Items, name)
	if err := s.ctrl.Create(ctx, map[string]any{"name": name}); err != nil {
		ui.Fail("add: " + err.Error())
		return 1
	}
	st := s.ctrl.Snapshot()
	if st.LastError != "" {
		ui.Fail("add: " + st.LastError)
		return 1
	}
	if countNamed(st.Items, name) <= before {
		ui.Fail("add: the store did not keep the new todo")
		return 1
	}
	ui.OK("added")
	return 0
}

func doEdit(ctx context.Context, s *session, userIndex int, name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		ui.Fail("edit: empty name")
		return 2
	}
	t, code := pick(ctx, s, userIndex)
	if code != 0 {
		return code
	}
	if err := s.ctrl.Update(ctx, t.WithName(name)); err != nil {
		ui.Fail("edit: " + err.Error())
		return 1
	}
	st := s.ctrl.Snapshot()
	if st.LastError != "" {
		ui.Fail("edit: " + st.LastError)
		return 1
	}
	if got, ok := find(st.Items, t.ID); !ok || got.Name != name {
		ui.Fail("edit: the store did not keep the new name")
		return 1
	}
	ui.OK("updated")
	return 0
}

func doRemove(ctx context.Context, s *session, userIndex int) int {
	t, code := pick(ctx, s, userIndex)
	if code != 0 {
		return code
	}
	if err := s.ctrl.Delete(ctx, t.ID); err != nil {
		ui.Fail("rm: " + err.Error())
		return 1
	}
	if _, still := find(s.ctrl.Snapshot().Items, t.ID); still {
		ui.Fail("rm: the store did not confirm the delete")
		return 1
	}
	ui.OK("removed")
	return 0
}

func doClear(ctx context.Context, s *session) int {
	if !s.client.DeleteAll(ctx) {
		ui.Fail("clear: some todos may not have been removed")
		ui.Hint("Hint: run `todo -plain ls` to see what is left")
		return 1
	}
	ui.OK("cleared")
	return 0
}

// -------------- rendering helpers --------------

func listLines(items []model.Todo, table string) []string {
	t := ui.Current()
	header := fmt.Sprintf("%s  %s %d",
		ui.C(t.Title, "Todos"),
		ui.C(t.Accent, "Total"), len(items),
	)
	lines := []string{header, ui.C(t.Muted, "table: "+table), ""}
	if len(items) == 0 {
		lines = append(lines, ui.C(t.Muted, "no todos"))
	}
	for i, it := range items {
		idx := fmt.Sprintf("%2d.", i+1)
		lines = append(lines, fmt.Sprintf("%s %s %s",
			ui.C(t.Muted, idx), ui.C(t.Accent, t.Bullet), ui.Truncate(it.Name, 80)))
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `todo add \"Buy milk\"`"))
	return lines
}
