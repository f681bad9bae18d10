package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/alecthomas/kong"

	cms "github.com/goliatone/go-cms-admin"
	"github.com/goliatone/go-cms-admin/internal/commands"
	entitiescmd "github.com/goliatone/go-cms-admin/internal/commands/entities"
	"github.com/goliatone/go-cms-admin/internal/dispatch"
	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/internal/runtimeconfig"
	"github.com/goliatone/go-cms-admin/internal/validation"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

var moduleBuilder = func(cfg runtimeconfig.Config) (*cms.Module, error) {
	return cms.New(cfg)
}

// errOperationFailed marks a command whose result envelope reported a failure.
var errOperationFailed = errors.New("operation failed")

type cli struct {
	Env []string `help:"Dotenv files to load before reading CMS_* variables." type:"existingfile" sep:","`

	Migrate   migrateCmd   `cmd:"" help:"Apply pending schema migrations."`
	Types     typesCmd     `cmd:"" help:"List registered entity types."`
	Toggle    toggleCmd    `cmd:"" help:"Flip the active flag of one record."`
	Delete    deleteCmd    `cmd:"" help:"Delete one record and reclaim its assets."`
	Bulk      bulkCmd      `cmd:"" help:"Run a bulk action over several records."`
	Reorder   reorderCmd   `cmd:"" help:"Rewrite display positions for a type."`
	CheckSlug checkSlugCmd `cmd:"" name:"check-slug" help:"Check whether a slug is free and suggest one."`
}

type session struct {
	ctx      context.Context
	out      io.Writer
	envFiles []string
}

func (s *session) open() (*cms.Module, error) {
	cfg, err := runtimeconfig.LoadEnv(s.envFiles...)
	if err != nil {
		return nil, err
	}
	return moduleBuilder(cfg)
}

// run executes fn against a freshly built module and prints the result
// envelope it publishes.
func (s *session) run(fn func(ctx context.Context, module *cms.Module, logger interfaces.Logger, sink entitiescmd.ResultSink) error) error {
	module, err := s.open()
	if err != nil {
		return err
	}
	defer module.Close()

	logger := logging.ModuleLogger(module.Container().LoggerProvider(), "cms.cli")
	var last *dispatch.Result
	sink := func(_ context.Context, _ string, result dispatch.Result) {
		last = &result
	}
	ctx := commands.WithActor(s.ctx, interfaces.SystemActor())
	execErr := fn(ctx, module, logger, sink)
	if last == nil {
		return execErr
	}
	if err := printJSON(s.out, last); err != nil {
		return err
	}
	if !last.OK {
		return fmt.Errorf("%w: %s", errOperationFailed, last.Message)
	}
	return nil
}

type migrateCmd struct{}

func (c *migrateCmd) Run(s *session) error {
	module, err := s.open()
	if err != nil {
		return err
	}
	defer module.Close()

	applied, err := cms.Migrate(s.ctx, module.Container().DB())
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(s.out, "schema up to date")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(s.out, "applied %s\n", name)
	}
	return nil
}

type typesCmd struct{}

func (c *typesCmd) Run(s *session) error {
	module, err := s.open()
	if err != nil {
		return err
	}
	defer module.Close()
	for _, key := range module.EntityTypes() {
		fmt.Fprintln(s.out, key)
	}
	return nil
}

type toggleCmd struct {
	Type string `arg:"" help:"Entity type key."`
	ID   string `arg:"" help:"Record id."`
}

func (c *toggleCmd) Run(s *session) error {
	return s.run(func(ctx context.Context, module *cms.Module, logger interfaces.Logger, sink entitiescmd.ResultSink) error {
		handler := entitiescmd.NewToggleEntityHandler(module.Dispatcher(), logger, sink)
		return handler.Execute(ctx, entitiescmd.ToggleEntityCommand{EntityType: c.Type, ID: c.ID})
	})
}

type deleteCmd struct {
	Type string `arg:"" help:"Entity type key."`
	ID   string `arg:"" help:"Record id."`
}

func (c *deleteCmd) Run(s *session) error {
	return s.run(func(ctx context.Context, module *cms.Module, logger interfaces.Logger, sink entitiescmd.ResultSink) error {
		handler := entitiescmd.NewDeleteEntityHandler(module.Dispatcher(), logger, sink)
		return handler.Execute(ctx, entitiescmd.DeleteEntityCommand{EntityType: c.Type, ID: c.ID})
	})
}

type bulkCmd struct {
	Type    string `arg:"" help:"Entity type key."`
	Action  string `help:"Bulk action: toggle, activate, deactivate or delete." default:"toggle"`
	IDs     string `name:"ids" help:"Comma-separated record ids."`
	Payload string `help:"JSON request body file with action and ids." type:"existingfile"`
}

func (c *bulkCmd) Run(s *session) error {
	msg := entitiescmd.BulkEntityCommand{EntityType: c.Type, Action: c.Action, IDs: validation.SplitIDs(c.IDs)}
	if c.Payload != "" {
		raw, err := os.ReadFile(c.Payload)
		if err != nil {
			return err
		}
		payload, err := validation.DecodeBulkPayload(raw)
		if err != nil {
			return err
		}
		msg.IDs = payload.IDs
		if payload.Action != "" {
			msg.Action = payload.Action
		}
	}
	return s.run(func(ctx context.Context, module *cms.Module, logger interfaces.Logger, sink entitiescmd.ResultSink) error {
		handler := entitiescmd.NewBulkEntityHandler(module.Dispatcher(), logger, sink)
		return handler.Execute(ctx, msg)
	})
}

type reorderCmd struct {
	Type    string   `arg:"" help:"Entity type key."`
	Order   []string `arg:"" optional:"" help:"Record ids in display order."`
	Payload string   `help:"JSON request body file with the order list." type:"existingfile"`
}

func (c *reorderCmd) Run(s *session) error {
	order := c.Order
	if c.Payload != "" {
		raw, err := os.ReadFile(c.Payload)
		if err != nil {
			return err
		}
		payload, err := validation.DecodeOrderPayload(raw)
		if err != nil {
			return err
		}
		order = payload.Order
	}
	return s.run(func(ctx context.Context, module *cms.Module, logger interfaces.Logger, sink entitiescmd.ResultSink) error {
		handler := entitiescmd.NewReorderEntityHandler(module.Dispatcher(), logger, sink)
		return handler.Execute(ctx, entitiescmd.ReorderEntityCommand{EntityType: c.Type, Order: order})
	})
}

type checkSlugCmd struct {
	Type    string `arg:"" help:"Entity type key."`
	Value   string `arg:"" help:"Candidate slug or title."`
	Exclude string `help:"Record id to ignore, for edits."`
}

func (c *checkSlugCmd) Run(s *session) error {
	return s.run(func(ctx context.Context, module *cms.Module, logger interfaces.Logger, sink entitiescmd.ResultSink) error {
		handler := entitiescmd.NewCheckSlugHandler(module.Dispatcher(), logger, sink)
		return handler.Execute(ctx, entitiescmd.CheckSlugCommand{EntityType: c.Type, Value: c.Value, Exclude: c.Exclude})
	})
}

func printJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func main() {
	if err := runCLI(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("cms-admin: %v", err)
	}
}

func runCLI(ctx context.Context, args []string, out io.Writer) error {
	var root cli
	parser, err := kong.New(&root,
		kong.Name("cms-admin"),
		kong.Description("Administrative operations over CMS entities."),
		kong.Writers(out, os.Stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run(&session{ctx: ctx, out: out, envFiles: root.Env})
}
