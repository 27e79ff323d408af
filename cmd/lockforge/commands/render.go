package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/lockforge/internal/app"
)

func (c *CLI) newRenderCmd() *cobra.Command {
	var opts app.RenderOptions

	cmd := &cobra.Command{
		Use:   "render [LOCKFILE]",
		Short: "Write explicit per-platform files from a lock",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.LockFile = args[0]
			}
			return c.components.App.Render(opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Credentials, "credentials", "", "INI file with channel credentials")
	f.StringArrayVarP(&opts.Platforms, "platform", "p", nil, "Platform to render; repeatable")
	f.StringVar(&opts.FilenameTemplate, "filename-template", "", "Name template for explicit files")

	return cmd
}
