package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"

	"github.com/Shiraishi0303/todo-claude-code/internal/export"
	"github.com/Shiraishi0303/todo-claude-code/internal/model"
	"github.com/Shiraishi0303/todo-claude-code/internal/store"
	"github.com/Shiraishi0303/todo-claude-code/version"
)

const cancelWord = ":cancel"

var errQuit = errors.New("quit")

type ShellConfig struct {
	Color           bool
	DefaultPriority model.Priority
}

type palette struct {
	high, medium, low *color.Color
	overdue           *color.Color
	done              *color.Color
	header            *color.Color
	muted             *color.Color
	err               *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		high:    color.New(color.FgRed),
		medium:  color.New(color.FgYellow),
		low:     color.New(color.FgGreen),
		overdue: color.New(color.FgRed, color.Bold),
		done:    color.New(color.Faint, color.CrossedOut),
		header:  color.New(color.FgCyan, color.Bold),
		muted:   color.New(color.Faint),
		err:     color.New(color.FgRed),
	}
	if !enabled {
		for _, c := range []*color.Color{p.high, p.medium, p.low, p.overdue, p.done, p.header, p.muted, p.err} {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) priority(pr model.Priority) *color.Color {
	switch pr {
	case model.PriorityHigh:
		return p.high
	case model.PriorityLow:
		return p.low
	default:
		return p.medium
	}
}

// Shell is a line-oriented front end: it reads commands, calls the store and
// prints the filtered list after every change.
type Shell struct {
	cfg      ShellConfig
	store    *store.Store
	exporter *export.Exporter
	log      lgr.L

	in    io.Reader
	out   io.Writer
	lines <-chan string
	color palette
}

func NewShell(
	cfg ShellConfig,
	st *store.Store,
	exporter *export.Exporter,
	in io.Reader,
	out io.Writer,
	logger lgr.L,
) *Shell {
	if cfg.DefaultPriority == "" {
		cfg.DefaultPriority = model.PriorityMedium
	}
	return &Shell{
		cfg:      cfg,
		store:    st,
		exporter: exporter,
		log:      logger,
		in:       in,
		out:      out,
		color:    newPalette(cfg.Color),
	}
}

func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// Start runs until the input ends, the user quits or ctx is cancelled.
func (s *Shell) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.lines = readLines(ctx, s.in)
	s.render()
	for {
		s.prompt()
		select {
		case line, ok := <-s.lines:
			if !ok {
				fmt.Fprintln(s.out)
				return
			}
			if err := s.handleCommand(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return
				}
				s.log.Logf("[DEBUG] command %q failed: %v", line, err)
				s.color.err.Fprintln(s.out, err)
			}

		case <-ctx.Done():
			s.log.Logf("[DEBUG] stopped: %s", ctx.Err())
			return
		}
	}
}

func (s *Shell) prompt() {
	fmt.Fprintf(s.out, "[%s] > ", s.store.Labels().Filter(s.store.Filter()))
}

// ask prints a question and waits for one line of input.
func (s *Shell) ask(ctx context.Context, question string) (string, bool) {
	fmt.Fprint(s.out, question)
	select {
	case line, ok := <-s.lines:
		return strings.TrimSpace(line), ok
	case <-ctx.Done():
		return "", false
	}
}

func parseCommand(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(strings.TrimPrefix(fields[0], "/")), fields[1:]
}

func (s *Shell) handleCommand(ctx context.Context, line string) error {
	command, args := parseCommand(line)
	switch command {
	case "":
		return nil
	case "help", "?":
		return s.helpCommand()
	case "list", "ls":
		s.render()
		return nil
	case "add", "a":
		return s.addCommand(ctx, args)
	case "filter", "f":
		if len(args) == 0 {
			s.store.SetFilter(string(s.store.Filter().Next()))
		} else {
			s.store.SetFilter(args[0])
		}
		s.render()
		return nil
	case "all", "active", "completed":
		s.store.SetFilter(command)
		s.render()
		return nil
	case "done", "toggle", "x":
		return s.toggleCommand(ctx, args)
	case "rm", "del", "delete":
		return s.removeCommand(ctx, args)
	case "edit", "e":
		return s.editCommand(ctx, args)
	case "export":
		return s.exportCommand(args)
	case "version":
		fmt.Fprintln(s.out, version.String())
		return nil
	case "quit", "exit", "q":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q, try help", command)
	}
}

func (s *Shell) helpCommand() error {
	fmt.Fprint(s.out, `commands:
  add <title> [!high|!medium|!low] [@YYYY-MM-DD]   add a task
  done <n>                                         toggle completion of row n
  edit <n>                                         edit row n
  rm <n>                                           delete row n
  filter [all|active|completed]                    change or cycle the filter
  list                                             show tasks
  export <file.json|file.csv|file.pdf>             export the visible tasks
  version, help, quit
`)
	return nil
}

// parseTaskArgs splits "Pay rent !high @2026-10-20" into its parts. Words
// starting with ! and @ set priority and deadline, the rest is the title.
func parseTaskArgs(args []string, priority model.Priority) (string, model.Priority, model.Date, error) {
	var (
		title    []string
		deadline model.Date
	)
	for _, arg := range args {
		switch {
		case len(arg) > 1 && arg[0] == '!':
			p, ok := model.ParsePriority(arg[1:])
			if !ok {
				return "", "", model.Date{}, fmt.Errorf("unknown priority %q", arg[1:])
			}
			priority = p
		case len(arg) > 1 && arg[0] == '@':
			d, err := model.ParseDate(arg[1:])
			if err != nil {
				return "", "", model.Date{}, err
			}
			deadline = d
		default:
			title = append(title, arg)
		}
	}
	return strings.Join(title, " "), priority, deadline, nil
}

func (s *Shell) addCommand(ctx context.Context, args []string) error {
	title, priority, deadline, err := parseTaskArgs(args, s.cfg.DefaultPriority)
	if err != nil {
		return err
	}
	if _, ok := s.store.Add(ctx, title, priority, deadline); !ok {
		return errors.New("title must not be empty")
	}
	s.render()
	return nil
}

// resolve maps a 1-based row number of the current view to a task.
func (s *Shell) resolve(args []string) (model.Task, error) {
	if len(args) == 0 {
		return model.Task{}, errors.New("which row? give its number")
	}
	n, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
	if err != nil {
		return model.Task{}, fmt.Errorf("invalid row %q", args[0])
	}
	tasks := s.store.Filtered()
	if n < 1 || n > len(tasks) {
		return model.Task{}, fmt.Errorf("no row %d", n)
	}
	return tasks[n-1], nil
}

func (s *Shell) toggleCommand(ctx context.Context, args []string) error {
	task, err := s.resolve(args)
	if err != nil {
		return err
	}
	s.store.Toggle(ctx, task.ID)
	s.render()
	return nil
}

func (s *Shell) removeCommand(ctx context.Context, args []string) error {
	task, err := s.resolve(args)
	if err != nil {
		return err
	}

	answer, ok := s.ask(ctx, fmt.Sprintf("%s %q [y/N] ", s.store.Labels().ConfirmDelete(), task.Title))
	if !ok || !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		fmt.Fprintln(s.out, "kept")
		return nil
	}

	s.store.Remove(ctx, task.ID)
	s.render()
	return nil
}

func (s *Shell) editCommand(ctx context.Context, args []string) error {
	row, err := s.resolve(args)
	if err != nil {
		return err
	}
	task, ok := s.store.BeginEdit(row.ID)
	if !ok {
		return fmt.Errorf("task %d is gone", row.ID)
	}

	fmt.Fprintf(s.out, "editing %q (enter keeps the value, %s aborts, - clears the deadline)\n", task.Title, cancelWord)
	cancel := func() error {
		s.store.CancelEdit()
		fmt.Fprintln(s.out, "edit cancelled")
		return nil
	}

	title, ok := s.ask(ctx, fmt.Sprintf("title [%s]: ", task.Title))
	if !ok || title == cancelWord {
		return cancel()
	}
	if title == "" {
		title = task.Title
	}

	answer, ok := s.ask(ctx, fmt.Sprintf("priority [%s]: ", task.Priority))
	if !ok || answer == cancelWord {
		return cancel()
	}
	priority := task.Priority
	if answer != "" {
		p, known := model.ParsePriority(answer)
		if !known {
			s.store.CancelEdit()
			return fmt.Errorf("unknown priority %q", answer)
		}
		priority = p
	}

	answer, ok = s.ask(ctx, fmt.Sprintf("deadline [%s]: ", task.Deadline))
	if !ok || answer == cancelWord {
		return cancel()
	}
	deadline := task.Deadline
	switch answer {
	case "":
	case "-":
		deadline = model.Date{}
	default:
		d, err := model.ParseDate(answer)
		if err != nil {
			s.store.CancelEdit()
			return err
		}
		deadline = d
	}

	s.store.CommitEdit(ctx, title, priority, deadline)
	s.render()
	return nil
}

func (s *Shell) exportCommand(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: export <file.json|file.csv|file.pdf>")
	}
	tasks := s.store.Filtered()
	if err := s.exporter.WriteFile(args[0], tasks); err != nil {
		return err
	}
	s.log.Logf("[INFO] exported %d tasks to %s", len(tasks), args[0])
	fmt.Fprintf(s.out, "exported %d tasks to %s\n", len(tasks), args[0])
	return nil
}

func (s *Shell) render() {
	labels := s.store.Labels()
	filter := s.store.Filter()
	counts := s.store.Counts()

	s.color.header.Fprintf(s.out, "TODO · %s", labels.Filter(filter))
	s.color.muted.Fprintf(s.out, "  %d total, %d active, %d completed\n", counts.Total, counts.Active, counts.Completed)

	tasks := s.store.Filtered()
	if len(tasks) == 0 {
		s.color.muted.Fprintf(s.out, "  %s\n", labels.Empty(filter))
		return
	}
	for i, t := range tasks {
		fmt.Fprintf(s.out, "%3d. %s\n", i+1, s.formatTask(t))
	}
}

func (s *Shell) formatTask(t model.Task) string {
	box := "[ ]"
	title := t.Title
	if t.Completed {
		box = "[x]"
		title = s.color.done.Sprint(title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  %s", box, title, s.color.priority(t.Priority).Sprint(s.store.PriorityLabel(t.Priority)))
	if !t.Deadline.IsZero() {
		due := "due " + t.Deadline.Display()
		if s.store.ShowOverdue(t) {
			b.WriteString("  " + s.color.overdue.Sprintf("%s (%s)", due, s.store.Labels().Overdue()))
		} else {
			b.WriteString("  " + due)
		}
	}
	return b.String()
}
