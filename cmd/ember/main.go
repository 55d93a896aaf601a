// Command ember is the command-line front-end for the ember key/value store.
//
// The store root is the current working directory unless --path, or the
// dataDir setting of a --config file, names a different one. Exit codes follow the store contract: a get miss prints
// "Key not found" and exits 0 (a miss is not an error), while removing an
// absent key prints "Key not found" and exits 1.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/emberkv/ember/pkg/ember"
	"github.com/emberkv/ember/pkg/errors"
	"github.com/emberkv/ember/pkg/options"
	"github.com/spf13/cobra"
)

const service = "ember"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var path string
	var configFile string

	root := &cobra.Command{
		Use:           "ember",
		Short:         "A log-structured key/value store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Invocation with no subcommand is an error.
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}

	root.PersistentFlags().StringVar(&path, "path", "", "store directory (default: current directory)")
	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file")

	open := func(ctx context.Context) (*ember.Instance, error) {
		opts, err := buildOptions(path, configFile)
		if err != nil {
			return nil, err
		}
		return ember.NewInstance(ctx, service, opts...)
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "get KEY",
			Short: "Get the string value of a given key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				store, err := open(ctx)
				if err != nil {
					return printErr(err)
				}
				defer store.Close(ctx)

				value, ok, err := store.Get(ctx, args[0])
				if err != nil {
					return printErr(err)
				}
				if !ok {
					// A miss is not an error condition for get.
					fmt.Println("Key not found")
					return nil
				}
				fmt.Println(value)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Set a key to a value",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				store, err := open(ctx)
				if err != nil {
					return printErr(err)
				}
				defer store.Close(ctx)

				if err := store.Set(ctx, args[0], args[1]); err != nil {
					return printErr(err)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm KEY",
			Short: "Remove a given key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				store, err := open(ctx)
				if err != nil {
					return printErr(err)
				}
				defer store.Close(ctx)

				if err := store.Remove(ctx, args[0]); err != nil {
					if errors.IsKeyNotFound(err) {
						// The not-found message goes to stdout, with a
						// failing exit code.
						fmt.Println("Key not found")
						return err
					}
					return printErr(err)
				}
				return nil
			},
		},
	)

	return root
}

// buildOptions assembles the store options from the config file (when given)
// and the flags, with flags taking precedence. The CLI runs quiet: engine
// logs are suppressed below the error level unless the config file raises
// them.
func buildOptions(path, configFile string) ([]options.OptionFunc, error) {
	opts := []options.OptionFunc{options.WithLogLevel("error")}

	if configFile != "" {
		fileOpt, err := options.FromFile(configFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fileOpt)
	}

	if path != "" {
		opts = append(opts, options.WithDataDir(path))
	} else if configFile == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		opts = append(opts, options.WithDataDir(cwd))
	}

	return opts, nil
}

// printErr reports an engine failure on stderr and returns the error so the
// process exits non-zero.
func printErr(err error) error {
	fmt.Fprintln(os.Stderr, err)
	return err
}
