// Command wildprompt expands wildcard prompt templates and edits the
// wildcard dictionary.
//
// Usage:
//
//	wildprompt expand "a __m/hair__ girl" --seed 42
//	wildprompt --backend sqlite --db wildcards.db add hair long short
//	wildprompt repl
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"nickandperla.net/wildprompt/internal/config"
	"nickandperla.net/wildprompt/internal/logging"
	"nickandperla.net/wildprompt/pkg/wildprompt"
)

// CLI defines the command-line interface.
type CLI struct {
	Expand       ExpandCmd       `cmd:"" help:"Expand a template."`
	Generate     GenerateCmd     `cmd:"" help:"Expand the root template with pinned selections."`
	Process      ProcessCmd      `cmd:"" help:"Expand a template and split it into prompt parts."`
	Loras        LorasCmd        `cmd:"" help:"List the lora tags in a text."`
	List         ListCmd         `cmd:"" help:"List every wildcard."`
	Menu         MenuCmd         `cmd:"" help:"List the editable slots and their choices."`
	Add          AddCmd          `cmd:"" help:"Add or replace a slot under the editable root."`
	Rename       RenameCmd       `cmd:"" help:"Rename a slot."`
	EditGroup    EditGroupCmd    `cmd:"" name:"edit-group" help:"Rename a group."`
	DeleteGroup  DeleteGroupCmd  `cmd:"" name:"delete-group" help:"Delete a group."`
	DeleteSlot   DeleteSlotCmd   `cmd:"" name:"delete-slot" help:"Delete a slot."`
	Move         MoveCmd         `cmd:"" help:"Move or copy a slot."`
	ReorderGroup ReorderGroupCmd `cmd:"" name:"reorder-group" help:"Move a group's slots as a block."`
	Reload       ReloadCmd       `cmd:"" help:"Reload the dictionary from the store."`
	Repl         ReplCmd         `cmd:"" help:"Expand templates interactively."`

	Config        string   `short:"c" help:"Path to config file." type:"path"`
	EnvFile       []string `name:"env-file" help:"Load environment variables from these files (default: .env.local, .env)."`
	Backend       string   `help:"Store backend (dir, sqlite, bunt, memory)."`
	Wildcards     []string `short:"w" help:"Wildcard directories, later ones override earlier ones."`
	PersistFile   string   `name:"persist-file" help:"YAML file edits are written to (dir backend)." type:"path"`
	DB            string   `name:"db" help:"Database path (sqlite and bunt backends)."`
	Root          string   `help:"Editable root group."`
	MaxIterations int      `name:"max-iterations" help:"Bound on the expansion rewrite loop."`
	Watch         bool     `help:"Reload when wildcard files change."`
	LogLevel      string   `name:"log-level" help:"Log level (debug, info, warn, error)."`
	LogFormat     string   `name:"log-format" help:"Log format (console, json)."`
}

// loadConfig merges the config file, environment and flags.
func (c *CLI) loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFiles(c.EnvFile...); err != nil {
		return nil, err
	}
	cfg, err := config.Read(c.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if c.Backend != "" {
		cfg.Backend = c.Backend
	}
	if len(c.Wildcards) > 0 {
		cfg.Wildcards = c.Wildcards
	}
	if c.PersistFile != "" {
		cfg.PersistFile = c.PersistFile
	}
	if c.DB != "" {
		cfg.Database = c.DB
	}
	if c.Root != "" {
		cfg.Root = c.Root
	}
	if c.MaxIterations != 0 {
		cfg.MaxIterations = c.MaxIterations
	}
	if c.Watch {
		cfg.Watch = true
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app is bound to every command's Run method.
type app struct {
	rt  *wildprompt.Runtime
	in  io.Reader
	out io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("wildprompt"),
		kong.Description("Wildcard prompt template expansion."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	opts := append(wildprompt.FromConfig(cfg), wildprompt.WithLogger(logger.Sugar()))
	rt, err := wildprompt.New(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	return ctx.Run(&app{rt: rt, in: stdin, out: stdout})
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
