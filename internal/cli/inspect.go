package cli

import (
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	var flags LoadFlags

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load a library and print its binding state",
		Long: `Open a WebAssembly library, load the binding with the given version
text and print the resulting record. The library is shut down through
the record before exiting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, rootOpts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Library, "lib", "l", "", "library .wasm file")
	cmd.Flags().StringVar(&flags.Version, "version", "", "library version text (load argument)")
	cmd.Flags().StringVar(&flags.BuildID, "build-id", "", "override the library build id")

	return cmd
}

func runInspect(cmd *cobra.Command, opts *RootOptions, flags LoadFlags) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, opts, flags)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	p := NewPrinter(cmd.OutOrStdout(), opts.Format)

	info, err := s.info()
	if err != nil {
		return err
	}
	if err := p.Print("loaded", info); err != nil {
		return err
	}

	if err := s.host.CloseAPIHandle(ctx, s.ref); err != nil {
		return err
	}

	if info, err = s.info(); err != nil {
		return err
	}
	return p.Print("closed", info)
}
