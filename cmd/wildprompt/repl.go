package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"nickandperla.net/wildprompt/pkg/wildprompt"
)

// ReplCmd expands templates read line by line.
type ReplCmd struct {
	History string  `help:"History file (default: ~/.wildprompt_history)." type:"path"`
	Seed    *uint64 `short:"s" help:"Seed for every expansion until changed with :seed."`
}

func (c *ReplCmd) Run(a *app) error {
	r := &repl{rt: a.rt, out: a.out, seed: c.Seed}
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return r.runLiner(c.historyFile())
	}
	return r.runBasic(a.in)
}

func (c *ReplCmd) historyFile() string {
	if c.History != "" {
		return c.History
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".wildprompt_history")
	}
	return filepath.Join(home, ".wildprompt_history")
}

type repl struct {
	rt   *wildprompt.Runtime
	out  io.Writer
	seed *uint64

	multiline strings.Builder
	continued bool
}

func printBanner(w io.Writer) {
	fmt.Fprintln(w, "wildprompt REPL (Ctrl+D to exit)")
	fmt.Fprintln(w, "End a line with \\ to continue it. :help lists commands.")
	fmt.Fprintln(w)
}

const replHelp = `  :seed N     use seed N for every expansion
  :seed       use a fresh random seed each time
  :last       show the value chosen for each slot
  :process T  expand T and show its prompt parts
  :list       list wildcards
  :reload     reload the dictionary
  :quit       exit`

// runLiner handles TTY input with line editing and history.
func (r *repl) runLiner(historyFile string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			_, _ = line.WriteHistory(f)
			_ = f.Close()
		}
	}()

	printBanner(r.out)
	for {
		text, err := line.Prompt(r.prompt())
		if errors.Is(err, liner.ErrPromptAborted) {
			r.multiline.Reset()
			r.continued = false
			continue
		}
		if err != nil {
			fmt.Fprintln(r.out)
			return nil
		}
		if strings.TrimSpace(text) != "" {
			line.AppendHistory(text)
		}
		if r.feed(text) {
			return nil
		}
	}
}

// runBasic handles non-TTY input (piped input).
func (r *repl) runBasic(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if r.feed(strings.TrimRight(scanner.Text(), "\r")) {
			return nil
		}
	}
	return scanner.Err()
}

func (r *repl) prompt() string {
	if r.continued {
		return "... "
	}
	return ">>> "
}

// feed consumes one input line and reports whether the REPL should exit.
func (r *repl) feed(line string) bool {
	if strings.HasSuffix(line, "\\") {
		r.multiline.WriteString(strings.TrimSuffix(line, "\\"))
		r.multiline.WriteString("\n")
		r.continued = true
		return false
	}

	input := line
	if r.continued {
		r.multiline.WriteString(line)
		input = r.multiline.String()
		r.multiline.Reset()
		r.continued = false
	}
	if strings.TrimSpace(input) == "" {
		return false
	}
	return r.eval(input)
}

func (r *repl) params() wildprompt.Params {
	if r.seed == nil {
		return wildprompt.Params{}
	}
	return wildprompt.Seed(*r.seed)
}

func (r *repl) eval(input string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	switch cmd {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintln(r.out, replHelp)
	case ":seed":
		if arg == "" {
			r.seed = nil
			fmt.Fprintln(r.out, "seed: random")
			break
		}
		n, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			fmt.Fprintf(r.out, "Error: invalid seed %q\n", arg)
			break
		}
		r.seed = &n
		fmt.Fprintf(r.out, "seed: %d\n", n)
	case ":last":
		if err := writeYAML(r.out, r.rt.LastGenerated()); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
	case ":process":
		if err := writeYAML(r.out, r.rt.Process(arg, r.params())); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
	case ":list":
		for _, w := range r.rt.WildcardList() {
			fmt.Fprintln(r.out, w)
		}
	case ":reload":
		if err := r.rt.Reload(); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			break
		}
		fmt.Fprintf(r.out, "%d wildcards\n", r.rt.Snapshot().Len())
	default:
		out, _ := r.rt.Expand(input, r.params())
		fmt.Fprintln(r.out, out)
	}
	return false
}
