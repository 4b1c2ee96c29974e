package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/walteh/snipkit/pkg/snippet"
)

type ParseHandler struct {
	finalTabstop bool
}

func NewParseCommand() *cobra.Command {
	me := &ParseHandler{}

	cmd := &cobra.Command{
		Use:   "parse <template>",
		Short: "parse a snippet template and print its marker tree",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().BoolVar(&me.finalTabstop, "final-tabstop", false, "append an implicit final tabstop")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		snip := snippet.Parse(args[0], me.finalTabstop)
		snip.ComputeOffsets(0)
		for _, m := range snip.Markers() {
			dumpMarker(cmd, m, 0)
		}
		cmd.Printf("rendered: %q\n", snip.Render())
		return nil
	}

	return cmd
}

func dumpMarker(cmd *cobra.Command, m snippet.Marker, depth int) {
	indent := strings.Repeat("  ", depth)
	switch m := m.(type) {
	case *snippet.Text:
		cmd.Printf("%stext %s %q\n", indent, m.Span(), m.Value)
	case *snippet.Placeholder:
		details := ""
		if len(m.Choices) > 0 {
			details = fmt.Sprintf(" choices=%v", m.Choices)
		}
		if m.Transform != nil {
			details += " transform"
		}
		cmd.Printf("%splaceholder %s index=%d%s\n", indent, m.Span(), m.Index, details)
	case *snippet.Variable:
		details := ""
		if m.Transform != nil {
			details = " transform"
		}
		cmd.Printf("%svariable %s name=%s%s\n", indent, m.Span(), m.Name, details)
	}
	for _, child := range m.Children() {
		dumpMarker(cmd, child, depth+1)
	}
}
