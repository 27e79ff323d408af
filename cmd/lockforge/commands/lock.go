package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/lockforge/internal/adapters/virtual" //nolint:depguard // Flag mapping only
	"go.trai.ch/lockforge/internal/app"
	"go.trai.ch/lockforge/internal/core/domain"
)

func (c *CLI) newLockCmd() *cobra.Command {
	var opts app.LockOptions
	var mamba, micromamba bool

	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Resolve the input files into a lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case mamba:
				opts.Variant = "mamba"
			case micromamba:
				opts.Variant = "micromamba"
			}
			if opts.Variant != "" && !cmd.Flags().Changed("conda") {
				opts.Executable = opts.Variant
			}
			opts.VirtualOverrides = virtual.OverridesFromFlags(
				changed(cmd, "glibc"),
				changed(cmd, "cuda"),
				changed(cmd, "osx"),
			)
			_, err := c.components.App.Lock(cmd.Context(), opts)
			return err
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.Files, "file", "f", nil, "Input file (environment.yml or pyproject.toml); repeatable")
	f.StringArrayVarP(&opts.Platforms, "platform", "p", nil, "Platform to lock; repeatable")
	f.StringArrayVar(&opts.Update, "update", nil, "Package allowed to change relative to the existing lock; repeatable")
	f.StringVar(&opts.Executable, "conda", "", "Path or name of the conda, mamba or micromamba executable")
	f.BoolVar(&mamba, "mamba", false, "Use mamba as the solver")
	f.BoolVar(&micromamba, "micromamba", false, "Use micromamba as the solver")
	f.StringVar(&opts.VirtualSpec, "virtual-package-spec", "", "YAML file describing the virtual packages")
	f.String("glibc", "", "Override the __glibc virtual package version; empty removes it")
	f.String("cuda", "", "Override the __cuda virtual package version; empty removes it")
	f.String("osx", "", "Override the __osx virtual package version; empty removes it")
	f.BoolVar(&opts.CheckInputHash, "check-input-hash", false, "Skip platforms whose input hash is already locked")
	f.StringVar(&opts.Credentials, "credentials", "", "INI file with channel credentials")
	f.IntVar(&opts.Workers, "workers", 0, "Number of platforms locked concurrently")
	f.DurationVar(&opts.Timeout, "timeout", 0, "Time limit for each solver invocation")
	f.StringVar(&opts.LockFile, "lockfile", "", "Lock file to read and write (default "+domain.DefaultLockFile+")")
	f.StringArrayVar(&opts.Kinds, "kind", nil, "Output kind: lock or explicit; repeatable")
	f.StringVar(&opts.FilenameTemplate, "filename-template", "", "Name template for explicit files (default "+domain.DefaultFilenameTemplate+")")
	cmd.MarkFlagsMutuallyExclusive("mamba", "micromamba")

	return cmd
}

// changed returns the flag's value when it was set on the command line.
func changed(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}
