package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"

	"knowledge-center/api"
	"knowledge-center/session"

	"github.com/bmatcuk/doublestar/v4"
)

func runUpload(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	name := fs.String("name", "", "display name (single file only)")
	id := fs.String("id", "", "replace this document (single file only)")
	watch := fs.String("watch", "", "watch a directory and upload new files")
	positional, err := parseFlags(fs, args)
	if err != nil {
		return err
	}

	if *watch != "" {
		if len(positional) > 0 {
			return usagef("kb upload --watch <dir> takes no other paths")
		}
		w, err := NewWatcher(env.Client, *watch, env.Stdout, env.logger())
		if err != nil {
			return err
		}
		return w.Run(ctx)
	}

	if len(positional) == 0 {
		return usagef("kb upload [--name N] [--id ID] <path|glob>...")
	}

	files, skipped, err := ExpandPaths(positional)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		fmt.Fprintf(env.Stderr, "skipping %s: only .pdf and .pptx files are supported\n", s)
	}
	if len(files) == 0 {
		return errors.New("no files to upload")
	}
	if (*name != "" || *id != "") && len(files) > 1 {
		return usagef("--name and --id need exactly one file, got %d", len(files))
	}

	var failed int
	for _, path := range files {
		displayName := *name
		if displayName == "" {
			displayName = session.DefaultDisplayName(path)
		}
		res, err := env.Client.Upload(ctx, api.UploadRequest{
			Path:        path,
			DisplayName: displayName,
			DocumentID:  *id,
		})
		if err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "%s: %s\n", path, api.UserMessage(err, session.UploadFallback))
			continue
		}
		fmt.Fprintf(env.Stdout, "Uploaded %s as %s (%d chunks, v%d)\n", path, res.ID, res.Count, res.Version)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(files))
	}
	return nil
}

// ExpandPaths resolves literal paths and doublestar patterns into the
// supported files they name, sorted and without duplicates. Unsupported
// files are returned separately.
func ExpandPaths(args []string) (files, skipped []string, err error) {
	seen := map[string]bool{}
	add := func(p string) {
		if seen[p] {
			return
		}
		seen[p] = true
		if session.IsSupported(p) {
			files = append(files, p)
		} else {
			skipped = append(skipped, p)
		}
	}

	for _, arg := range args {
		arg = session.NormalizePath(arg)
		if arg == "" {
			continue
		}
		if _, statErr := os.Stat(arg); statErr == nil {
			add(arg)
			continue
		}
		if !doublestar.ValidatePathPattern(arg) {
			return nil, nil, fmt.Errorf("bad pattern %q", arg)
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, nil, fmt.Errorf("glob %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, nil, fmt.Errorf("%s: no such file", arg)
		}
		for _, m := range matches {
			add(m)
		}
	}
	sort.Strings(files)
	return files, skipped, nil
}
