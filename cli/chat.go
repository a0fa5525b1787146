package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"knowledge-center/session"
	"knowledge-center/tui/component/renderer"

	"github.com/charmbracelet/glamour"
)

func runChat(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	raw := fs.Bool("raw", false, "print the answer without markdown rendering")
	positional, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	message := joinArgs(positional)
	if message == "" {
		return usagef("kb chat <message...>")
	}

	conv := session.NewConversation(env.Client, env.logger())
	defer conv.Close()

	reply, sendErr := conv.Send(ctx, message)

	answer := reply.Content
	if !*raw && !reply.Failed {
		answer = renderMarkdown(answer, env.MarkdownStyle)
	}
	fmt.Fprintln(env.Stdout, answer)

	if len(reply.Sources) > 0 {
		labels := make([]string, 0, len(reply.Sources))
		for _, s := range reply.Sources {
			labels = append(labels, renderer.SourceLabel(s))
		}
		fmt.Fprintf(env.Stdout, "\nSources: %s\n", strings.Join(labels, ", "))
	}
	return sendErr
}

func renderMarkdown(text, style string) string {
	if style == "" {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
