package main

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/snipkit/pkg/library"
	"gitlab.com/tozd/go/errors"
)

type ListHandler struct {
	dir  string
	glob string
}

func NewListCommand() *cobra.Command {
	me := &ListHandler{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "list snippet definitions from a library directory",
	}

	cmd.Flags().StringVar(&me.dir, "dir", ".", "snippet library directory")
	cmd.Flags().StringVar(&me.glob, "glob", "**/*.yaml", "glob pattern for snippet files")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		fsys := afero.NewBasePathFs(afero.NewOsFs(), me.dir)
		lib, err := library.Load(cmd.Context(), fsys, me.glob)
		if err != nil {
			return errors.Errorf("loading snippet library: %w", err)
		}
		for _, def := range lib.All() {
			cmd.Printf("%-16s %-24s %s\n", def.Prefix, def.Name, def.Description)
		}
		return nil
	}

	return cmd
}
