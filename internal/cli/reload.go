package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewReloadCommand creates the reload command.
func NewReloadCommand(rootOpts *RootOptions) *cobra.Command {
	var flags LoadFlags

	cmd := &cobra.Command{
		Use:   "reload",
		Short: "Hot-reload a bound library",
		Long: `Load the binding against one library, then swap in another without
reloading the binding. The record keeps its version text; only the
bound table changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReload(cmd, rootOpts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Library, "lib", "l", "", "initial library .wasm file")
	cmd.Flags().StringVarP(&flags.Next, "next", "n", "", "library .wasm file to reload to")
	cmd.Flags().StringVar(&flags.Version, "version", "", "library version text (load argument)")
	cmd.Flags().StringVar(&flags.BuildID, "build-id", "", "override the library build id")

	return cmd
}

func runReload(cmd *cobra.Command, opts *RootOptions, flags LoadFlags) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, opts, flags)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	if s.cfg.Next == "" {
		return fmt.Errorf("no reload target: set --next or next in the config file")
	}

	p := NewPrinter(cmd.OutOrStdout(), opts.Format)

	info, err := s.info()
	if err != nil {
		return err
	}
	if err := p.Print("before reload", info); err != nil {
		return err
	}

	next, err := s.openLibrary(ctx, s.cfg.Next)
	if err != nil {
		return err
	}
	if err := s.host.Reload(ctx, s.ref, next); err != nil {
		return err
	}

	if info, err = s.info(); err != nil {
		return err
	}
	return p.Print("after reload", info)
}
