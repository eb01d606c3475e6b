package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"nickandperla.net/wildprompt/pkg/wildprompt"
)

// TemplateInput selects the template text of expand and process.
type TemplateInput struct {
	Template string  `arg:"" optional:"" help:"Template text. Reads stdin when empty or \"-\"."`
	File     string  `short:"f" help:"Read the template from a file." type:"existingfile"`
	Seed     *uint64 `short:"s" help:"Seed for a reproducible expansion."`
}

func (t *TemplateInput) text(a *app) (string, error) {
	switch {
	case t.File != "":
		data, err := os.ReadFile(t.File)
		return string(data), err
	case t.Template == "" || t.Template == "-":
		data, err := io.ReadAll(a.in)
		return strings.TrimRight(string(data), "\n"), err
	}
	return t.Template, nil
}

func (t *TemplateInput) params() wildprompt.Params {
	if t.Seed == nil {
		return wildprompt.Params{}
	}
	return wildprompt.Seed(*t.Seed)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// ExpandCmd expands a template.
type ExpandCmd struct {
	TemplateInput `embed:""`
	Chosen        bool `help:"Also print the value chosen for each slot."`
}

func (c *ExpandCmd) Run(a *app) error {
	text, err := c.text(a)
	if err != nil {
		return err
	}
	out, chosen := a.rt.Expand(text, c.params())
	fmt.Fprintln(a.out, out)
	if c.Chosen && len(chosen) > 0 {
		return writeYAML(a.out, chosen)
	}
	return nil
}

// GenerateCmd expands the root template.
type GenerateCmd struct {
	Seed   uint64            `short:"s" help:"Seed." default:"0"`
	Select map[string]string `help:"Pin a slot by short name (disabled, random or a value)." placeholder:"SLOT=VALUE"`
}

func (c *GenerateCmd) Run(a *app) error {
	fmt.Fprintln(a.out, a.rt.GeneratePrompt(c.Seed, c.Select))
	return nil
}

// ProcessCmd expands a template and prints its prompt parts.
type ProcessCmd struct {
	TemplateInput `embed:""`
}

func (c *ProcessCmd) Run(a *app) error {
	text, err := c.text(a)
	if err != nil {
		return err
	}
	return writeYAML(a.out, a.rt.Process(text, c.params()))
}

// LorasCmd lists lora tags.
type LorasCmd struct {
	Text string `arg:"" help:"Text containing <lora:...> tags."`
}

func (c *LorasCmd) Run(a *app) error {
	stripped, tags := a.rt.ExtractLoraTags(c.Text)
	for _, t := range tags {
		fmt.Fprintln(a.out, t.String())
	}
	fmt.Fprintln(a.out, stripped)
	return nil
}

// ListCmd lists every wildcard token.
type ListCmd struct{}

func (c *ListCmd) Run(a *app) error {
	for _, w := range a.rt.WildcardList() {
		fmt.Fprintln(a.out, w)
	}
	return nil
}

// MenuCmd prints the editable slots.
type MenuCmd struct{}

func (c *MenuCmd) Run(a *app) error {
	return writeYAML(a.out, a.rt.Menu())
}

// AddCmd adds a slot.
type AddCmd struct {
	Name   string   `arg:"" help:"Slot name relative to the editable root."`
	Values []string `arg:"" optional:"" help:"Slot entries."`
}

func (c *AddCmd) Run(a *app) error {
	key, err := a.rt.Add(c.Name, c.Values)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, key)
	return nil
}

// RenameCmd renames a slot.
type RenameCmd struct {
	Name    string `arg:""`
	NewName string `arg:""`
}

func (c *RenameCmd) Run(a *app) error {
	return a.rt.Rename(c.Name, c.NewName)
}

// EditGroupCmd renames a group.
type EditGroupCmd struct {
	Name    string `arg:""`
	NewName string `arg:""`
}

func (c *EditGroupCmd) Run(a *app) error {
	return a.rt.EditGroup(c.Name, c.NewName)
}

// DeleteGroupCmd deletes a group.
type DeleteGroupCmd struct {
	Name string `arg:""`
}

func (c *DeleteGroupCmd) Run(a *app) error {
	return a.rt.DeleteGroup(c.Name)
}

// DeleteSlotCmd deletes a slot.
type DeleteSlotCmd struct {
	Name string `arg:""`
}

func (c *DeleteSlotCmd) Run(a *app) error {
	return a.rt.DeleteSlot(c.Name)
}

// MoveCmd moves a slot.
type MoveCmd struct {
	From  string `arg:"" help:"Slot to move."`
	To    string `arg:"" help:"Slot to insert before, or group with --group."`
	Group bool   `help:"Treat the target as a group and insert at its start."`
	Copy  bool   `help:"Keep the original slot."`
	Force bool   `help:"Overwrite an existing slot with the same name."`
}

var errMoveConflict = errors.New("move conflict")

func (c *MoveCmd) Run(a *app) error {
	res, err := a.rt.MoveSlot(c.From, c.To, c.Group, c.Copy, c.Force)
	if err != nil {
		return err
	}
	if res.Status == wildprompt.MoveConflict {
		return fmt.Errorf("%w: %s exists (use --force)", errMoveConflict, res.Key)
	}
	fmt.Fprintln(a.out, res.Key)
	return nil
}

// ReorderGroupCmd moves a group block.
type ReorderGroupCmd struct {
	From     string `arg:"" help:"Group to move."`
	To       string `arg:"" optional:"" help:"Group to place it before."`
	Position string `short:"p" help:"Where to place the group (before, end)." default:"before" enum:"before,end,last"`
}

func (c *ReorderGroupCmd) Run(a *app) error {
	pos, ok := wildprompt.ParsePosition(c.Position)
	if !ok {
		return fmt.Errorf("unknown position %q", c.Position)
	}
	if pos == wildprompt.Before && c.To == "" {
		return errors.New("reorder-group before needs a target group")
	}
	return a.rt.ReorderGroup(c.From, c.To, pos)
}

// ReloadCmd reloads the dictionary.
type ReloadCmd struct{}

func (c *ReloadCmd) Run(a *app) error {
	if err := a.rt.Reload(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d wildcards\n", a.rt.Snapshot().Len())
	return nil
}
