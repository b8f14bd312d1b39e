// Package help holds the uuu quick reference and help topics shown by
// `uuu --help` and the REPL `:help` command.
package help

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/thomasrohde/uuu/pkg/evaluator"
	"github.com/thomasrohde/uuu/pkg/stdlib"
)

// Version is the language version reported by the CLI.
const Version = "v0.1"

// QUICKREF is the one-screen summary.
const QUICKREF = `uuu ` + Version + ` - a small dynamically-typed scripting language

USAGE
  uuu [flags] [file.uuu]      run a file, or start the REPL without one

FLAGS
  --pretty          human-readable diagnostics (default: JSON)
  --check           parse and resolve only
  --ast             print the debug AST and exit
  --trace <path>    write JSONL trace events
  --debug           debug logging to stderr
  --config <path>   configuration file (default: .uuu.yaml, ~/.uuu/config.yaml)

TOPICS (uuu --help <topic>, or :help <topic> in the REPL)
  syntax        statements and expressions
  types         values, equality and printing
  classes       classes, self, super and init
  flow          if, while, for, break, continue, return
  natives       built-in functions
  diagnostics   error codes and exit codes
  repl          interactive commands
  examples      short programs
`

// TopicList is the display order of help topics.
var TopicList = []string{"syntax", "types", "classes", "flow", "natives", "diagnostics", "repl", "examples"}

// Topics maps topic names to their text.
var Topics = map[string]string{
	"syntax": `SYNTAX
  var x = 1;                  declaration, initializer optional (defaults to null)
  x = x + 1;                  assignment is an expression
  fn add(a, b) { return a + b; }
  { var scoped = true; }      blocks open a new scope
  // comment to end of line

OPERATORS (lowest to highest)
  =  ?:  |  &  == !=  > >= < <=  + -  * /  ! -(unary)  call .property
  & and | are logical and short-circuit; their left operand must be a boolean.
`,
	"types": `TYPES
  null, true/false, numbers (64-bit float), strings, functions, classes, instances

  + adds numbers or concatenates strings; other arithmetic needs numbers.
  Conditions must be booleans; there is no truthiness.
  Division by zero follows IEEE 754 (Infinity, NaN).
  Equality compares primitives by value and everything else by identity.

PRINTING
  6  2.5  hi  true  null  <fn: f>  <native fn: print>  <class: A>  <instance of: A>
`,
	"classes": `CLASSES
  class Point {
    fn init(x, y) { self.x = x; self.y = y; }
    fn sum() { return self.x + self.y; }
  }
  var p = Point(1, 2);        calling a class runs init and returns the instance
  p.z = 3;                    fields can be added at any time

  class Point3 < Point {
    fn init(x, y, z) { super.init(x, y); self.z = z; }
  }

  Methods read from an instance are bound to it. Fields shadow methods.
`,
	"flow": `CONTROL FLOW
  if (cond) stmt; else stmt;
  while (cond) stmt;
  for (var i = 0; i < n; i = i + 1) stmt;     every clause is optional
  break; continue;                             only inside loops
  return value;                                only inside functions
  cond ? a : b
`,
	"natives": `NATIVES
  clock()        milliseconds from a monotonic clock
  print(value)   writes the value and a newline, returns null
`,
	"diagnostics": `DIAGNOSTICS
  syntax    E_LEX E_PARSE E_UNEXPECTED_EOF
  scope     E_REDECLARED E_SELF_INIT E_SELF_INHERIT E_LOOP_CONTROL
            E_RETURN_OUTSIDE E_SELF_OUTSIDE E_SUPER_OUTSIDE
  binding   E_UNDEFINED E_UNDEFINED_PROPERTY E_NOT_CALLABLE E_NOT_INSTANCE
  type      E_TYPE
  arity     E_ARITY
  host      E_STACK_OVERFLOW E_CANCELLED E_INTERNAL E_IO

EXIT CODES
  0 success   1 usage or I/O error   2 syntax or scope error   4 runtime error
`,
	"repl": `REPL
  Globals persist between lines. Unclosed blocks and strings continue on the
  next line. Ctrl-C abandons the current input, Ctrl-D exits.

  :help [topic]   show help
  :ast <code>     print the debug AST of code
  :quit           exit
`,
	"examples": `EXAMPLES
  fn fib(n) { if (n <= 1) return n; return fib(n - 1) + fib(n - 2); }
  print(fib(10));                                   // 55

  fn counter() { var n = 0; fn inc() { n = n + 1; return n; } return inc; }
  var c = counter(); c(); print(c());               // 2

  class A { fn hi() { return "A"; } }
  class B < A { fn hi() { return "B+" + super.hi(); } }
  print(B().hi());                                  // B+A
`,
}

// MatchTopic resolves a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}

	var matches []string
	for _, name := range TopicList {
		if query != "" && strings.HasPrefix(name, query) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q (topics: %s)", query, strings.Join(TopicList, ", "))
	default:
		return "", "", fmt.Errorf("ambiguous help topic %q (matches: %s)", query, strings.Join(matches, ", "))
	}
}

// NativesIndex lists the natives bound by default with their arity.
func NativesIndex() string {
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg, io.Discard)

	var names []string
	for name := range reg.All() {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fn := reg.Get(name)
		fmt.Fprintf(&b, "  %-8s arity %d  %s\n", name, fn.Arity, evaluator.Stringify(&evaluator.Native{Name: name}))
	}
	fmt.Fprintf(&b, "Total: %d functions\n", len(names))
	return b.String()
}
