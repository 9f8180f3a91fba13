package runtime

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"kaulin/internal/diag"
	"kaulin/internal/span"
)

// DefaultMaxCallDepth bounds nested user function calls.
const DefaultMaxCallDepth = 10000

// maxRandomBound keeps integer satunnainen bounds and their difference inside int64.
const maxRandomBound = 1 << 61

// Options carries everything the runtime needs from its host. Nothing in this
// package reads process-wide state; zero fields fall back to the process streams,
// a time-seeded random source and the wall clock.
type Options struct {
	Stdout       io.Writer
	Stdin        io.Reader
	Rand         *rand.Rand
	Now          func() time.Time
	MaxCallDepth int
}

func (o Options) withDefaults() Options {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		o.Rand = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.MaxCallDepth <= 0 {
		o.MaxCallDepth = DefaultMaxCallDepth
	}
	return o
}

// NewGlobalEnvironment builds a root frame holding the constants tosi, epätosi and
// tyhjä plus the native library.
// It panics if a name is declared twice, which only a broken native table can cause.
func NewGlobalEnvironment(opts Options) *Environment {
	opts = opts.withDefaults()
	env := NewEnvironment(nil)

	for _, c := range []struct {
		name string
		val  Value
	}{
		{"tosi", BoolVal(true)},
		{"epätosi", BoolVal(false)},
		{"tyhjä", NullVal{}},
	} {
		if err := env.Declare(c.name, c.val, true); err != nil {
			panic(err)
		}
	}

	if err := RegisterNatives(env, opts); err != nil {
		panic(err)
	}
	return env
}

// RegisterNatives declares the native functions in env as constants. It fails if
// env already binds one of their names.
func RegisterNatives(env *Environment, opts Options) error {
	opts = opts.withDefaults()
	n := &natives{
		out:  opts.Stdout,
		in:   bufio.NewReader(opts.Stdin),
		rand: opts.Rand,
		now:  opts.Now,
	}

	for name, fn := range map[string]NativeFn{
		"tulosta":      n.print,
		"aika":         n.time,
		"itseisarvo":   n.abs,
		"pyöristä":     n.round,
		"neliöjuuri":   n.sqrt,
		"syöte":        n.input,
		"satunnainen":  n.random,
		"pienin":       n.min,
		"suurin":       n.max,
		"pituus":       n.length,
		"järjestä":     n.sort,
		"käännä":       n.reverse,
		"kokonaisluku": n.toInt,
		"liukuluku":    n.toFloat,
		"merkkijono":   n.toString,
		"tyyppi":       n.typeOf,
	} {
		if err := env.Declare(name, &NativeFuncVal{Name: name, Fn: fn}, true); err != nil {
			return errors.Wrapf(err, "registering native %s", name)
		}
	}
	return nil
}

type natives struct {
	out  io.Writer
	in   *bufio.Reader
	rand *rand.Rand
	now  func() time.Time
}

// ---- argument helpers ----

func nativeErr(code, format string, args ...any) *diag.Diagnostic {
	return diag.Errorf(diag.Type, code, span.Span{}, format, args...)
}

func arity(name string, args []Value, min, max int) error {
	if len(args) >= min && len(args) <= max {
		return nil
	}
	want := strconv.Itoa(min)
	if max != min {
		want = fmt.Sprintf("%d to %d", min, max)
	}
	return nativeErr("E4004", "%s expects %s arguments, got %d", name, want, len(args))
}

func numberArg(name string, args []Value, i int) (float64, error) {
	n, ok := args[i].(NumberVal)
	if !ok {
		return 0, nativeErr("E4009", "%s expects a number as argument %d, got %s", name, i+1, args[i].TypeName())
	}
	return float64(n), nil
}

func arrayArg(name string, args []Value, i int) (*ArrayVal, error) {
	arr, ok := args[i].(*ArrayVal)
	if !ok {
		return nil, nativeErr("E4009", "%s expects a list as argument %d, got %s", name, i+1, args[i].TypeName())
	}
	return arr, nil
}

// ---- output and input ----

var placeholder = regexp.MustCompile(`\{([\p{L}_][\p{L}\p{N}_]*)\}`)

// interpolate fills {name} placeholders from the caller's bindings. Unknown names
// are left untouched.
func interpolate(s string, caller Bindings) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		val, err := caller.Lookup(m[1 : len(m)-1])
		if err != nil {
			return m
		}
		return val.String()
	})
}

func (n *natives) print(args []Value, caller Bindings) (Value, error) {
	parts := make([]Value, len(args))
	for i, arg := range args {
		if s, ok := arg.(StringVal); ok {
			arg = StringVal(interpolate(string(s), caller))
		}
		parts[i] = arg
	}
	fmt.Fprintln(n.out, JoinValues(parts, " "))
	return NullVal{}, nil
}

func (n *natives) input(args []Value, _ Bindings) (Value, error) {
	if err := arity("syöte", args, 0, 0); err != nil {
		return nil, err
	}
	line, err := n.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, nativeErr("E4010", "syöte failed: %v", err)
	}
	return StringVal(strings.TrimRight(line, "\r\n")), nil
}

// ---- numbers ----

func (n *natives) time(args []Value, _ Bindings) (Value, error) {
	if err := arity("aika", args, 0, 0); err != nil {
		return nil, err
	}
	return NumberVal(float64(n.now().UnixNano()) / 1e9), nil
}

func (n *natives) abs(args []Value, _ Bindings) (Value, error) {
	if err := arity("itseisarvo", args, 1, 1); err != nil {
		return nil, err
	}
	x, err := numberArg("itseisarvo", args, 0)
	if err != nil {
		return nil, err
	}
	return NumberVal(math.Abs(x)), nil
}

func (n *natives) round(args []Value, _ Bindings) (Value, error) {
	if err := arity("pyöristä", args, 1, 2); err != nil {
		return nil, err
	}
	x, err := numberArg("pyöristä", args, 0)
	if err != nil {
		return nil, err
	}
	digits := 0.0
	if len(args) == 2 {
		if digits, err = numberArg("pyöristä", args, 1); err != nil {
			return nil, err
		}
	}
	mult := math.Pow(10, math.Trunc(digits))
	result := math.Round(x*mult) / mult
	if result == 0 {
		result = 0 // no negative zero
	}
	return NumberVal(result), nil
}

func (n *natives) sqrt(args []Value, _ Bindings) (Value, error) {
	if err := arity("neliöjuuri", args, 1, 1); err != nil {
		return nil, err
	}
	x, err := numberArg("neliöjuuri", args, 0)
	if err != nil {
		return nil, err
	}
	if x < 0 {
		return nil, diag.Errorf(diag.Arithmetic, "E5003", span.Span{}, "neliöjuuri of negative number %s", formatNumber(x))
	}
	return NumberVal(math.Sqrt(x)), nil
}

// random returns a number in [min, max). Without a mode, or with "kokonaisluku",
// the result is an integer in [floor(min), ceil(max)).
func (n *natives) random(args []Value, _ Bindings) (Value, error) {
	if err := arity("satunnainen", args, 2, 3); err != nil {
		return nil, err
	}
	lo, err := numberArg("satunnainen", args, 0)
	if err != nil {
		return nil, err
	}
	hi, err := numberArg("satunnainen", args, 1)
	if err != nil {
		return nil, err
	}

	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, nativeErr("E4009", "satunnainen bounds must be finite")
	}

	mode := "kokonaisluku"
	if len(args) == 3 {
		s, ok := args[2].(StringVal)
		if !ok || (s != "kokonaisluku" && s != "liukuluku") {
			return nil, nativeErr("E4009", "satunnainen mode must be \"kokonaisluku\" or \"liukuluku\"")
		}
		mode = string(s)
	}

	if mode == "liukuluku" {
		if hi <= lo {
			return nil, nativeErr("E4009", "satunnainen needs min < max, got %s and %s", formatNumber(lo), formatNumber(hi))
		}
		return NumberVal(lo + n.rand.Float64()*(hi-lo)), nil
	}
	lo, hi = math.Floor(lo), math.Ceil(hi)
	if math.Abs(lo) > maxRandomBound || math.Abs(hi) > maxRandomBound {
		return nil, nativeErr("E4009", "satunnainen bounds must lie within ±%s", formatNumber(maxRandomBound))
	}
	ilo, ihi := int64(lo), int64(hi)
	if ihi <= ilo {
		return nil, nativeErr("E4009", "satunnainen needs min < max, got %s and %s", formatNumber(lo), formatNumber(hi))
	}
	return NumberVal(float64(ilo + n.rand.Int64N(ihi-ilo))), nil
}

func (n *natives) min(args []Value, _ Bindings) (Value, error) {
	return extreme("pienin", args, func(a, b float64) bool { return a < b })
}

func (n *natives) max(args []Value, _ Bindings) (Value, error) {
	return extreme("suurin", args, func(a, b float64) bool { return a > b })
}

func extreme(name string, args []Value, better func(a, b float64) bool) (Value, error) {
	if err := arity(name, args, 1, 1); err != nil {
		return nil, err
	}
	arr, err := arrayArg(name, args, 0)
	if err != nil {
		return nil, err
	}
	if len(arr.Elements) == 0 {
		return nil, nativeErr("E4009", "%s of an empty list", name)
	}
	var best float64
	for i, elem := range arr.Elements {
		num, ok := elem.(NumberVal)
		if !ok {
			return nil, nativeErr("E4009", "%s expects a list of numbers, found %s", name, elem.TypeName())
		}
		if i == 0 || better(float64(num), best) {
			best = float64(num)
		}
	}
	return NumberVal(best), nil
}

// ---- lists and strings ----

func (n *natives) length(args []Value, _ Bindings) (Value, error) {
	if err := arity("pituus", args, 1, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case *ArrayVal:
		return NumberVal(len(v.Elements)), nil
	case StringVal:
		return NumberVal(len([]rune(string(v)))), nil
	default:
		return nil, nativeErr("E4009", "pituus expects a list or a string, got %s", v.TypeName())
	}
}

// sort returns a sorted copy of a list holding only numbers or only strings.
func (n *natives) sort(args []Value, _ Bindings) (Value, error) {
	if err := arity("järjestä", args, 1, 1); err != nil {
		return nil, err
	}
	arr, err := arrayArg("järjestä", args, 0)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(arr.Elements)
	if len(out) == 0 {
		return &ArrayVal{Elements: out}, nil
	}

	switch out[0].(type) {
	case NumberVal:
		for _, elem := range out {
			if _, ok := elem.(NumberVal); !ok {
				return nil, nativeErr("E4009", "järjestä cannot compare luku with %s", elem.TypeName())
			}
		}
		slices.SortStableFunc(out, func(a, b Value) int {
			x, y := a.(NumberVal), b.(NumberVal)
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		})
	case StringVal:
		for _, elem := range out {
			if _, ok := elem.(StringVal); !ok {
				return nil, nativeErr("E4009", "järjestä cannot compare merkkijono with %s", elem.TypeName())
			}
		}
		slices.SortStableFunc(out, func(a, b Value) int {
			return strings.Compare(string(a.(StringVal)), string(b.(StringVal)))
		})
	default:
		return nil, nativeErr("E4009", "järjestä expects a list of numbers or strings, found %s", out[0].TypeName())
	}
	return &ArrayVal{Elements: out}, nil
}

func (n *natives) reverse(args []Value, _ Bindings) (Value, error) {
	if err := arity("käännä", args, 1, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case *ArrayVal:
		out := slices.Clone(v.Elements)
		slices.Reverse(out)
		return &ArrayVal{Elements: out}, nil
	case StringVal:
		runes := []rune(string(v))
		slices.Reverse(runes)
		return StringVal(runes), nil
	default:
		return nil, nativeErr("E4009", "käännä expects a list or a string, got %s", v.TypeName())
	}
}

// ---- conversions ----

func (n *natives) toInt(args []Value, _ Bindings) (Value, error) {
	f, err := toNumber("kokonaisluku", args)
	if err != nil {
		return nil, err
	}
	return NumberVal(math.Trunc(f)), nil
}

func (n *natives) toFloat(args []Value, _ Bindings) (Value, error) {
	f, err := toNumber("liukuluku", args)
	if err != nil {
		return nil, err
	}
	return NumberVal(f), nil
}

func toNumber(name string, args []Value) (float64, error) {
	if err := arity(name, args, 1, 1); err != nil {
		return 0, err
	}
	switch v := args[0].(type) {
	case NumberVal:
		return float64(v), nil
	case BoolVal:
		if v {
			return 1, nil
		}
		return 0, nil
	case StringVal:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return 0, nativeErr("E4009", "%s cannot convert %q to a number", name, string(v))
		}
		return f, nil
	default:
		return 0, nativeErr("E4009", "%s cannot convert %s to a number", name, v.TypeName())
	}
}

func (n *natives) toString(args []Value, _ Bindings) (Value, error) {
	if err := arity("merkkijono", args, 1, 1); err != nil {
		return nil, err
	}
	return StringVal(args[0].String()), nil
}

func (n *natives) typeOf(args []Value, _ Bindings) (Value, error) {
	if err := arity("tyyppi", args, 1, 1); err != nil {
		return nil, err
	}
	return StringVal(args[0].TypeName()), nil
}
