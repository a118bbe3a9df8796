// ABOUTME: Line-oriented command interpreter driving a collector-managed heap
// ABOUTME: Lines are tokenized with shlex; each command maps onto an object or gc operation

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/aclements/go-moremath/stats"
	"github.com/google/shlex"
	"github.com/inhies/go-bytesize"

	"github.com/prateek/tricolor/gc"
	"github.com/prateek/tricolor/graph"
	"github.com/prateek/tricolor/heapdump"
	"github.com/prateek/tricolor/object"
)

var (
	errUsage       = errors.New("usage")
	errUnknownName = errors.New("unknown name")
	errNotObject   = errors.New("not a heap object")
)

const (
	colorRed    = "31"
	colorGreen  = "32"
	colorYellow = "33"
	colorBold   = "1"
)

// interp runs scripts against one state. Names bound by commands are not
// roots: an object stays alive only while the heap reaches it.
type interp struct {
	s     *object.State
	out   io.Writer
	color bool
	names map[string]object.Value
	line  int
}

func newInterp(s *object.State, out io.Writer, color bool) *interp {
	return &interp{s: s, out: out, color: color, names: make(map[string]object.Value)}
}

type command struct {
	args     string
	min, max int // max < 0 means unbounded
	run      func(in *interp, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"new":        {"table|string|userdata|closure|thread NAME [...]", 2, -1, (*interp).cmdNew},
		"set":        {"TABLE KEY VALUE", 3, 3, (*interp).cmdSet},
		"get":        {"TABLE KEY", 2, 2, (*interp).cmdGet},
		"global":     {"NAME", 1, 1, (*interp).cmdGlobal},
		"unglobal":   {"NAME", 1, 1, (*interp).cmdUnglobal},
		"push":       {"VALUE", 1, 1, (*interp).cmdPush},
		"pop":        {"[N]", 0, 1, (*interp).cmdPop},
		"weak":       {"TABLE k|v|kv", 2, 2, (*interp).cmdWeak},
		"meta":       {"OBJECT TABLE|nil", 2, 2, (*interp).cmdMeta},
		"open":       {"NAME LEVEL", 2, 2, (*interp).cmdOpen},
		"close":      {"LEVEL", 1, 1, (*interp).cmdClose},
		"bind":       {"CLOSURE INDEX UPVALUE", 3, 3, (*interp).cmdBind},
		"setupval":   {"UPVALUE VALUE", 2, 2, (*interp).cmdSetUpval},
		"finalizer":  {"NAME [resurrect]", 1, 2, (*interp).cmdFinalizer},
		"collect":    {"", 0, 0, (*interp).cmdCollect},
		"step":       {"[KB]", 0, 1, (*interp).cmdStep},
		"stop":       {"", 0, 0, (*interp).cmdStop},
		"restart":    {"", 0, 0, (*interp).cmdRestart},
		"count":      {"", 0, 0, (*interp).cmdCount},
		"setpause":   {"PERCENT", 1, 1, (*interp).cmdSetPause},
		"setstepmul": {"PERCENT", 1, 1, (*interp).cmdSetStepMul},
		"alive":      {"NAME", 1, 1, (*interp).cmdAlive},
		"stats":      {"", 0, 0, (*interp).cmdStats},
		"check":      {"", 0, 0, (*interp).cmdCheck},
		"why":        {"NAME", 1, 1, (*interp).cmdWhy},
		"retained":   {"NAME", 1, 1, (*interp).cmdRetained},
		"cycles":     {"", 0, 0, (*interp).cmdCycles},
		"dump":       {"FORMAT FILE", 2, 2, (*interp).cmdDump},
		"help":       {"", 0, 0, (*interp).cmdHelp},
	}
}

// Run executes every line of r, stopping at the first failing command.
func (in *interp) Run(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		in.line++
		args, err := shlex.Split(sc.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", in.line, err)
		}
		if len(args) == 0 {
			continue
		}
		if err := in.Exec(args); err != nil {
			return fmt.Errorf("line %d: %s: %w", in.line, args[0], err)
		}
	}
	return sc.Err()
}

// Exec runs one tokenized command.
func (in *interp) Exec(args []string) error {
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command (try help)")
	}
	n := len(args) - 1
	if n < cmd.min || (cmd.max >= 0 && n > cmd.max) {
		return fmt.Errorf("%w: %s %s", errUsage, args[0], cmd.args)
	}
	return cmd.run(in, args[1:])
}

func (in *interp) paint(color, s string) string {
	if !in.color {
		return s
	}
	return "\x1b[" + color + "m" + s + "\x1b[0m"
}

func (in *interp) printf(format string, a ...any) {
	fmt.Fprintf(in.out, format, a...)
}

// lookup returns the value bound to name.
func (in *interp) lookup(name string) (object.Value, error) {
	v, ok := in.names[name]
	if !ok {
		return object.Nil, fmt.Errorf("%w %q", errUnknownName, name)
	}
	return v, nil
}

// handle returns the object bound to name.
func (in *interp) handle(name string) (gc.Handle, error) {
	v, err := in.lookup(name)
	if err != nil {
		return gc.Nil, err
	}
	h, ok := v.Handle()
	if !ok {
		return gc.Nil, fmt.Errorf("%s: %w", name, errNotObject)
	}
	return h, nil
}

// value resolves a token: a bound name, nil, a boolean, a number, or
// else an interned string.
func (in *interp) value(tok string) (object.Value, error) {
	if v, ok := in.names[tok]; ok {
		return v, nil
	}
	switch tok {
	case "nil":
		return object.Nil, nil
	case "true":
		return object.Bool(true), nil
	case "false":
		return object.Bool(false), nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return object.Number(f), nil
	}
	return in.s.NewString(tok)
}

// hold pushes vs onto the stack and returns a function that pops them.
func (in *interp) hold(vs ...object.Value) func() {
	top := in.s.Top()
	for _, v := range vs {
		in.s.Push(v)
	}
	return func() { _ = in.s.SetTop(top) }
}

func parseBytes(s string) (uint64, error) {
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n, nil
	}
	b, err := bytesize.Parse(s)
	if err != nil {
		return 0, err
	}
	if b < 0 {
		return 0, fmt.Errorf("negative size %s", s)
	}
	return uint64(b), nil
}

func fmtBytes(n uint64) string {
	return bytesize.New(float64(n)).String()
}

func (in *interp) cmdNew(args []string) error {
	kind, name, rest := args[0], args[1], args[2:]
	var (
		v   object.Value
		h   gc.Handle
		err error
	)
	switch kind {
	case "table":
		if len(rest) != 0 {
			return fmt.Errorf("%w: new table NAME", errUsage)
		}
		h, err = in.s.NewTable()
		v = object.Ref(h)
	case "string":
		if len(rest) != 1 {
			return fmt.Errorf("%w: new string NAME TEXT", errUsage)
		}
		v, err = in.s.NewString(rest[0])
	case "userdata":
		var size uint64
		if len(rest) > 1 {
			return fmt.Errorf("%w: new userdata NAME [SIZE]", errUsage)
		}
		if len(rest) == 1 {
			if size, err = parseBytes(rest[0]); err != nil {
				return err
			}
		}
		h, err = in.s.NewUserdata(name, size)
		v = object.Ref(h)
	case "closure":
		if len(rest) < 1 {
			return fmt.Errorf("%w: new closure NAME NUPVALUES [CONST...]", errUsage)
		}
		nup, perr := strconv.Atoi(rest[0])
		if perr != nil || nup < 0 {
			return fmt.Errorf("bad upvalue count %q", rest[0])
		}
		restore := in.hold()
		var consts []object.Value
		for _, tok := range rest[1:] {
			c, err := in.value(tok)
			if err != nil {
				restore()
				return err
			}
			in.s.Push(c)
			consts = append(consts, c)
		}
		h, err = in.s.NewClosure(name, nup, consts)
		restore()
		v = object.Ref(h)
	case "thread":
		if len(rest) != 0 {
			return fmt.Errorf("%w: new thread NAME", errUsage)
		}
		h, err = in.s.NewThread()
		v = object.Ref(h)
	default:
		return fmt.Errorf("%w: unknown kind %q", errUsage, kind)
	}
	if err != nil {
		return err
	}
	in.names[name] = v
	return nil
}

func (in *interp) cmdSet(args []string) error {
	t, err := in.handle(args[0])
	if err != nil {
		return err
	}
	restore := in.hold(object.Ref(t))
	defer restore()
	k, err := in.value(args[1])
	if err != nil {
		return err
	}
	in.s.Push(k)
	v, err := in.value(args[2])
	if err != nil {
		return err
	}
	in.s.Push(v)
	return in.s.SetField(t, k, v)
}

func (in *interp) cmdGet(args []string) error {
	t, err := in.handle(args[0])
	if err != nil {
		return err
	}
	restore := in.hold(object.Ref(t))
	defer restore()
	k, err := in.value(args[1])
	if err != nil {
		return err
	}
	v, err := in.s.GetField(t, k)
	if err != nil {
		return err
	}
	in.printf("%s\n", in.s.ToString(v))
	return nil
}

func (in *interp) cmdGlobal(args []string) error {
	v, err := in.lookup(args[0])
	if err != nil {
		return err
	}
	return in.s.SetGlobal(args[0], v)
}

func (in *interp) cmdUnglobal(args []string) error {
	return in.s.SetGlobal(args[0], object.Nil)
}

func (in *interp) cmdPush(args []string) error {
	v, err := in.value(args[0])
	if err != nil {
		return err
	}
	in.s.Push(v)
	return nil
}

func (in *interp) cmdPop(args []string) error {
	n := 1
	if len(args) == 1 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("bad count %q", args[0])
		}
	}
	return in.s.Pop(n)
}

func (in *interp) cmdWeak(args []string) error {
	t, err := in.handle(args[0])
	if err != nil {
		return err
	}
	switch args[1] {
	case "k", "v", "kv", "vk":
	default:
		return fmt.Errorf("%w: weak TABLE k|v|kv", errUsage)
	}
	return in.s.SetMode(t, gc.ParseWeakMode(args[1]))
}

func (in *interp) cmdMeta(args []string) error {
	obj, err := in.handle(args[0])
	if err != nil {
		return err
	}
	mt := gc.Nil
	if args[1] != "nil" {
		if mt, err = in.handle(args[1]); err != nil {
			return err
		}
	}
	return in.s.SetMetatable(obj, mt)
}

func (in *interp) cmdOpen(args []string) error {
	level, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad level %q", args[1])
	}
	h, err := in.s.OpenUpvalue(level)
	if err != nil {
		return err
	}
	in.names[args[0]] = object.Ref(h)
	return nil
}

func (in *interp) cmdClose(args []string) error {
	level, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad level %q", args[0])
	}
	in.s.CloseUpvalues(level)
	return nil
}

func (in *interp) cmdBind(args []string) error {
	cl, err := in.handle(args[0])
	if err != nil {
		return err
	}
	i, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad index %q", args[1])
	}
	u, err := in.handle(args[2])
	if err != nil {
		return err
	}
	return in.s.SetClosureUpvalue(cl, i, u)
}

func (in *interp) cmdSetUpval(args []string) error {
	u, err := in.handle(args[0])
	if err != nil {
		return err
	}
	restore := in.hold(object.Ref(u))
	defer restore()
	v, err := in.value(args[1])
	if err != nil {
		return err
	}
	return in.s.SetUpvalue(u, v)
}

func (in *interp) cmdFinalizer(args []string) error {
	name := args[0]
	h, err := in.handle(name)
	if err != nil {
		return err
	}
	resurrect := false
	if len(args) == 2 {
		if args[1] != "resurrect" {
			return fmt.Errorf("%w: finalizer NAME [resurrect]", errUsage)
		}
		resurrect = true
	}
	return in.s.SetFinalizer(h, func(h gc.Handle) error {
		in.printf("%s %s\n", in.paint(colorYellow, "finalized"), name)
		if resurrect {
			return in.s.SetGlobal(name, object.Ref(h))
		}
		return nil
	})
}

func (in *interp) cmdCollect([]string) error {
	_, err := in.s.GC(gc.OpCollect, 0)
	return err
}

func (in *interp) cmdStep(args []string) error {
	kb := 0
	if len(args) == 1 {
		var err error
		if kb, err = strconv.Atoi(args[0]); err != nil || kb < 0 {
			return fmt.Errorf("bad step size %q", args[0])
		}
	}
	done, err := in.s.GC(gc.OpStep, kb)
	if err != nil {
		return err
	}
	phase := in.s.Collector().Phase()
	if done == 1 {
		in.printf("step: cycle finished, %s\n", phase)
	} else {
		in.printf("step: %s\n", phase)
	}
	return nil
}

func (in *interp) cmdStop([]string) error {
	_, err := in.s.GC(gc.OpStop, 0)
	return err
}

func (in *interp) cmdRestart([]string) error {
	_, err := in.s.GC(gc.OpRestart, 0)
	return err
}

func (in *interp) cmdCount([]string) error {
	kb, err := in.s.GC(gc.OpCount, 0)
	if err != nil {
		return err
	}
	rem, err := in.s.GC(gc.OpCountB, 0)
	if err != nil {
		return err
	}
	total := uint64(kb)<<10 | uint64(rem)
	in.printf("count: %s (%d bytes)\n", fmtBytes(total), total)
	return nil
}

func (in *interp) setParam(op gc.Op, label, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("bad percentage %q", arg)
	}
	prev, err := in.s.GC(op, n)
	if err != nil {
		return err
	}
	in.printf("%s: %d -> %d\n", label, prev, max(n, 1))
	return nil
}

func (in *interp) cmdSetPause(args []string) error {
	return in.setParam(gc.OpSetPause, "pause", args[0])
}

func (in *interp) cmdSetStepMul(args []string) error {
	return in.setParam(gc.OpSetStepMul, "stepmul", args[0])
}

func (in *interp) cmdAlive(args []string) error {
	h, err := in.handle(args[0])
	if err != nil {
		return err
	}
	if in.s.Collector().IsAlive(h) {
		in.printf("%s: %s\n", args[0], in.paint(colorGreen, "alive"))
	} else {
		in.printf("%s: %s\n", args[0], in.paint(colorRed, "collected"))
	}
	return nil
}

func (in *interp) cmdStats([]string) error {
	var st gc.Stats
	in.s.Collector().ReadStats(&st)
	in.printf("%s", st.String())
	var xs []float64
	for _, t := range st.ThresholdHistory {
		// Cycles finished while stopped leave an unbounded threshold.
		if t != math.MaxUint64 {
			xs = append(xs, float64(t))
		}
	}
	if len(xs) == 0 {
		return nil
	}
	sample := stats.Sample{Xs: xs}
	lo, hi := sample.Bounds()
	in.printf("pacing:     mean %s, stddev %s, range %s..%s over %d cycles\n",
		fmtBytes(uint64(sample.Mean())), fmtBytes(uint64(sample.StdDev())),
		fmtBytes(uint64(lo)), fmtBytes(uint64(hi)), len(xs))
	return nil
}

func (in *interp) cmdCheck([]string) error {
	if err := in.s.Collector().CheckInvariant(); err != nil {
		return err
	}
	in.printf("invariant: %s\n", in.paint(colorGreen, "ok"))
	return nil
}

// nameOf finds the script name bound to id, for output.
func (in *interp) nameOf(g graph.Graph, id graph.ObjID) string {
	var names []string
	for name, v := range in.names {
		if h, ok := v.Handle(); ok && graph.ObjID(h) == id {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	desc := id.String()
	if obj := g.GetObject(id); obj != nil {
		desc = obj.Name()
	}
	if len(names) == 0 {
		return desc
	}
	return strings.Join(names, ",") + "=" + desc
}

func (in *interp) cmdWhy(args []string) error {
	h, err := in.handle(args[0])
	if err != nil {
		return err
	}
	g := graph.FromCollector(in.s.Collector())
	paths := graph.PathsToRoots(g, graph.ObjID(h), 3)
	if len(paths) == 0 {
		in.printf("%s: %s\n", args[0], in.paint(colorRed, "unreachable"))
		return nil
	}
	for _, p := range paths {
		in.printf("%s\n", p.Format(g))
	}
	return nil
}

func (in *interp) cmdRetained(args []string) error {
	h, err := in.handle(args[0])
	if err != nil {
		return err
	}
	g := graph.FromCollector(in.s.Collector())
	sizes := graph.RetainedSizeOf(g, []graph.ObjID{graph.ObjID(h)})
	size, ok := sizes[graph.ObjID(h)]
	if !ok {
		in.printf("%s: %s\n", args[0], in.paint(colorRed, "unreachable"))
		return nil
	}
	in.printf("%s retains %s (%d bytes)\n", args[0], in.paint(colorBold, fmtBytes(size)), size)
	return nil
}

func (in *interp) cmdCycles([]string) error {
	g := graph.FromCollector(in.s.Collector())
	cycles := graph.Cycles(g)
	if len(cycles) == 0 {
		in.printf("no cycles\n")
		return nil
	}
	for _, ids := range cycles {
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = in.nameOf(g, id)
		}
		in.printf("cycle: %s\n", strings.Join(parts, " <-> "))
	}
	return nil
}

func (in *interp) cmdDump(args []string) (err error) {
	f, err := os.Create(args[1])
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	g := graph.FromCollector(in.s.Collector())
	if err := heapdump.Write(f, args[0], g); err != nil {
		return err
	}
	in.printf("wrote %d objects to %s\n", g.NumObjects(), args[1])
	return nil
}

func (in *interp) cmdHelp([]string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		in.printf("%-11s %s\n", name, commands[name].args)
	}
	return nil
}
