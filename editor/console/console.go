// Package console drives an editing session from a terminal. Each line is
// one command; prompts raised by a command read the following line.
package console

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/pterm/pterm"

	"github.com/teranos/arbor/editor"
	"github.com/teranos/arbor/editor/menu"
	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/graph"
)

// CancelInput cancels a prompt; an empty line accepts the default
const CancelInput = "!"

// Console is both the prompt and the view of a session
type Console struct {
	session *editor.Session
	in      *bufio.Scanner
	out     io.Writer
}

// New creates a console reading commands from in. Pass it to editor.New as
// prompter and view, then Attach the resulting session.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewScanner(in), out: out}
}

// Attach binds the session the commands act on
func (c *Console) Attach(s *editor.Session) { c.session = s }

// Prompt reads one line
func (c *Console) Prompt(message, def string) (string, bool) {
	pterm.Fprint(c.out, pterm.LightCyan(message), pterm.Gray(fmt.Sprintf(" [%s]: ", def)))
	if !c.in.Scan() {
		return "", false
	}
	line := strings.TrimSpace(c.in.Text())
	switch {
	case line == CancelInput:
		return "", false
	case line == "":
		return def, true
	case line == `""` || line == `''`:
		return "", true
	}
	return line, true
}

// Highlight reports selection changes
func (c *Console) Highlight(id string, on bool) {
	if on {
		pterm.Fprintln(c.out, pterm.Yellow("selected "+id))
		return
	}
	pterm.Fprintln(c.out, pterm.Gray("deselected "+id))
}

// ShowMenu lists a menu's items with their indexes
func (c *Console) ShowMenu(p menu.Panel) {
	items := make([]string, len(p.Labels))
	for i, l := range p.Labels {
		items[i] = fmt.Sprintf("%d) %s", i, l)
	}
	pterm.Fprintln(c.out, pterm.LightMagenta(string(p.Kind)), pterm.Gray(p.Target+":"), strings.Join(items, "  "))
}

// HideMenu is silent; a closed menu needs no announcement
func (c *Console) HideMenu(menu.Kind) {}

// Run reads commands until quit, end of input or ctx is done
func (c *Console) Run(ctx context.Context) error {
	if c.session == nil {
		return errors.New("console has no session")
	}
	pterm.Info.WithWriter(c.out).Printfln("Session %s. Type 'help' for commands.", c.session.ID())
	for {
		if ctx.Err() != nil {
			return nil
		}
		pterm.Fprint(c.out, pterm.LightGreen("arbor> "))
		if !c.in.Scan() {
			return c.in.Err()
		}
		quit, err := c.Exec(c.in.Text())
		if err != nil {
			pterm.Error.WithWriter(c.out).Println(err.Error())
		}
		if quit {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the console should exit
func (c *Console) Exec(line string) (bool, error) {
	args, err := shellquote.Split(line)
	if err != nil {
		return false, errors.Mark(errors.Wrap(err, "parse command"), errors.ErrInvalidRequest)
	}
	if len(args) == 0 {
		return false, nil
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "tap", "dbltap":
		kind := editor.Tap
		if cmd == "dbltap" {
			kind = editor.DoubleTap
		}
		g, err := parseTap(kind, args)
		if err != nil {
			return false, err
		}
		return false, c.session.Handle(g)
	case "cxttap":
		g, err := parseContextTap(args)
		if err != nil {
			return false, err
		}
		return false, c.session.Handle(g)
	case "choose":
		return false, c.choose(args)
	case "pointer":
		x, y, err := parseXY(args)
		if err != nil {
			return false, err
		}
		c.session.PointerDown(menu.Point{X: x, Y: y})
		return false, nil
	case "show":
		c.show()
		return false, nil
	case "export":
		return false, c.export(args)
	case "nodelink":
		return false, c.nodeLink()
	case "reset":
		c.session.Reset()
		pterm.Success.WithWriter(c.out).Println("Graph reset")
		return false, nil
	case "load":
		return false, c.load(args)
	case "help":
		c.help()
		return false, nil
	case "quit", "exit":
		return true, nil
	}
	return false, errors.NewInvalidRequestError("unknown command %q (try 'help')", cmd)
}

func parseXY(args []string) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, errors.NewInvalidRequestError("want X Y")
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, errors.NewInvalidRequestError("bad X %q", args[0])
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, errors.NewInvalidRequestError("bad Y %q", args[1])
	}
	return x, y, nil
}

// tap X Y | tap NODE
func parseTap(kind editor.GestureKind, args []string) (editor.Gesture, error) {
	switch len(args) {
	case 1:
		return editor.Gesture{Kind: kind, Target: editor.NodeTarget(args[0])}, nil
	case 2:
		x, y, err := parseXY(args)
		if err != nil {
			return editor.Gesture{}, err
		}
		return editor.Gesture{
			Kind:     kind,
			Target:   editor.Background(),
			Position: graph.Position{X: x, Y: y},
		}.At(x, y), nil
	}
	return editor.Gesture{}, errors.NewInvalidRequestError("want X Y or NODE")
}

// cxttap node|edge ID [X Y]
func parseContextTap(args []string) (editor.Gesture, error) {
	if len(args) != 2 && len(args) != 4 {
		return editor.Gesture{}, errors.NewInvalidRequestError("want node|edge ID [X Y]")
	}
	g := editor.Gesture{Kind: editor.ContextTap}
	switch args[0] {
	case "node":
		g.Target = editor.NodeTarget(args[1])
	case "edge":
		g.Target = editor.EdgeTarget(args[1])
	default:
		return editor.Gesture{}, errors.NewInvalidRequestError("want node or edge, got %q", args[0])
	}
	if len(args) == 4 {
		x, y, err := parseXY(args[2:])
		if err != nil {
			return editor.Gesture{}, err
		}
		g = g.At(x, y)
	}
	return g, nil
}

func (c *Console) choose(args []string) error {
	if len(args) != 2 {
		return errors.NewInvalidRequestError("want KIND INDEX")
	}
	name := args[0]
	if name == "node" || name == "edge" {
		name += "-menu"
	}
	kind, err := menu.ParseKind(name)
	if err != nil {
		return err
	}
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return errors.NewInvalidRequestError("bad index %q", args[1])
	}
	return c.session.ChooseMenuItem(kind, idx)
}

func (c *Console) show() {
	store := c.session.Store()
	data := pterm.TableData{{"kind", "id", "details"}}
	for _, n := range store.Nodes() {
		data = append(data, []string{"node", n.ID, fmt.Sprintf("(%g, %g)", n.Position.X, n.Position.Y)})
	}
	for _, e := range store.Edges() {
		data = append(data, []string{"edge", e.ID, fmt.Sprintf("%s -> %s  w=%q", e.Source, e.Target, string(e.Weight))})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(c.out).WithData(data).Render(); err != nil {
		pterm.Error.WithWriter(c.out).Println(err.Error())
	}
	if id, ok := c.session.Selected(); ok {
		pterm.Fprintln(c.out, pterm.Yellow("selected: "+id))
	}
	for _, p := range c.session.Menus().Visible() {
		pterm.Fprintln(c.out, pterm.LightMagenta("open: "+string(p.Kind)), pterm.Gray(p.Target))
	}
}

func (c *Console) export(args []string) error {
	data, err := json.MarshalIndent(c.session.Snapshot(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	if len(args) == 0 {
		pterm.Fprintln(c.out, string(data))
		return nil
	}
	if err := os.WriteFile(args[0], append(data, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", args[0])
	}
	pterm.Success.WithWriter(c.out).Printfln("Wrote %s", args[0])
	return nil
}

func (c *Console) nodeLink() error {
	data, err := json.MarshalIndent(c.session.Snapshot().ToNodeLink(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode node-link graph")
	}
	pterm.Fprintln(c.out, string(data))
	return nil
}

// load FILE: .toml fixtures, anything else is snapshot JSON
func (c *Console) load(args []string) error {
	if len(args) != 1 {
		return errors.NewInvalidRequestError("want FILE")
	}
	path := args[0]
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := c.session.LoadFixture(path); err != nil {
			return err
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		snap, err := graph.ParseSnapshot(data)
		if err != nil {
			return err
		}
		if err := c.session.Import(snap); err != nil {
			return err
		}
	}
	n, e := c.session.Store().Len()
	pterm.Success.WithWriter(c.out).Printfln("Loaded %s: %d nodes, %d edges", path, n, e)
	return nil
}

func (c *Console) help() {
	pterm.Fprintln(c.out, `Commands:
  tap X Y              tap the canvas (creates a node)
  tap NODE             select NODE, or connect the selected node to it
  dbltap NODE          rename NODE
  cxttap node NODE [X Y]
  cxttap edge EDGE [X Y]
                       open a context menu at X Y
  choose KIND INDEX    pick a menu item (KIND: node|edge)
  pointer X Y          click at X Y (dismisses menus outside it)
  show                 list nodes, edges, selection and menus
  export [FILE]        print or write the snapshot JSON
  nodelink             print the node-link JSON
  load FILE            import a .toml fixture or snapshot JSON
  reset                start over
  quit

At a prompt an empty line keeps the default, '' enters an empty value
and ! cancels.`)
}
