package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"knowledge-center/api"
	"knowledge-center/session"
	"knowledge-center/tui/component/renderer"
)

func runDocs(ctx context.Context, env *Env, args []string) error {
	if len(args) == 0 {
		return usagef("kb docs list|edit|rename|rm")
	}
	switch args[0] {
	case "list", "ls":
		return docsList(ctx, env, args[1:])
	case "edit":
		return docsEdit(ctx, env, args[1:])
	case "rename":
		return docsRename(ctx, env, args[1:])
	case "rm", "delete":
		return docsRemove(ctx, env, args[1:])
	}
	return usagef("unknown docs command %q", args[0])
}

func docsList(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("docs list", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print JSON")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}

	docs, err := env.Client.ListDocuments(ctx)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	if len(docs) == 0 {
		fmt.Fprintln(env.Stdout, "No documents yet. Upload files to get started.")
		return nil
	}
	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tVERSION\tCHUNKS\tUPLOADED")
	for _, d := range docs {
		version := "-"
		if d.Version > 0 {
			version = fmt.Sprintf("v%d", d.Version)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			d.ID, renderer.Truncate(d.Title(), 48), d.CategoryLabel(), version,
			d.ElementCount, renderer.FormatDate(d.UploadedAt))
	}
	return tw.Flush()
}

func docsEdit(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("docs edit", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	category := fs.String("category", "", "category")
	description := fs.String("description", "", "description")
	positional, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return usagef("kb docs edit <id> [--name N] [--category C] [--description D]")
	}

	// only flags given on the command line are sent, so "" clears a field
	var upd api.DocumentUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			upd.DisplayName = name
		case "category":
			upd.Category = category
		case "description":
			upd.Description = description
		}
	})
	if upd.Empty() {
		return usagef("nothing to change: pass --name, --category or --description")
	}

	id := positional[0]
	if _, err := env.Client.UpdateDocument(ctx, id, upd); err != nil {
		return fmt.Errorf("%s: %w", session.UpdateFailed, err)
	}
	fmt.Fprintf(env.Stdout, "Updated %s\n", id)
	return nil
}

func docsRename(ctx context.Context, env *Env, args []string) error {
	if len(args) < 2 {
		return usagef("kb docs rename <id> <name>")
	}
	id, name := args[0], joinArgs(args[1:])
	if name == "" {
		return usagef("name must not be empty")
	}
	if err := env.Client.RenameDocument(ctx, id, name); err != nil {
		return fmt.Errorf("%s: %w", session.UpdateFailed, err)
	}
	fmt.Fprintf(env.Stdout, "Renamed %s to %q\n", id, name)
	return nil
}

func docsRemove(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("docs rm", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	fs.BoolVar(yes, "y", false, "do not ask for confirmation")
	positional, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return usagef("kb docs rm <id> [--yes]")
	}
	id := positional[0]

	if !*yes && !confirm(env.Stdin, env.Stdout, fmt.Sprintf("Delete %s. Are you sure? [y/N] ", id)) {
		fmt.Fprintln(env.Stdout, "Cancelled")
		return nil
	}

	if err := env.Client.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", session.DeleteFailed, err)
	}
	fmt.Fprintf(env.Stdout, "Deleted %s\n", id)
	return nil
}

// confirm asks prompt and accepts y or yes. No input means no.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	if in == nil {
		return false
	}
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
