package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/walteh/snipkit/pkg/snippet"
	"gitlab.com/tozd/go/errors"
)

type RenderHandler struct {
	vars         []string
	finalTabstop bool
}

func NewRenderCommand() *cobra.Command {
	me := &RenderHandler{}

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "expand a snippet template to plain text",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringArrayVar(&me.vars, "var", nil, "variable binding in name=value form (repeatable)")
	cmd.Flags().BoolVar(&me.finalTabstop, "final-tabstop", false, "append an implicit final tabstop")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		resolver := snippet.MapResolver{}
		for _, binding := range me.vars {
			name, value, ok := strings.Cut(binding, "=")
			if !ok {
				return errors.Errorf("invalid variable binding %q, expected name=value", binding)
			}
			resolver[name] = value
		}

		snip := snippet.Parse(args[0], me.finalTabstop)
		snip.ResolveVariables(resolver)
		cmd.Println(snip.Render())
		return nil
	}

	return cmd
}
