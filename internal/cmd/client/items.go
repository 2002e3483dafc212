package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rzbill/folio/internal/catalog"
	"github.com/rzbill/folio/pkg/folio"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newPutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <key> <json>",
		Short: "Write a JSON value under key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
				raw, _ := cmd.Flags().GetBool("raw")
				if !raw {
					return fmt.Errorf("value is not JSON (use --raw to store it as a string): %w", err)
				}
				value = args[1]
			}
			return withBook(cmd, func(ctx context.Context, b *folio.Book) error {
				err := b.Write(args[0], value).Await(ctx)
				if errors.Is(err, folio.ErrBroadcast) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().Bool("raw", false, "Store a non-JSON argument as a string")
	return cmd
}

func newGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored under key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, _ := cmd.Flags().GetString("default")
			return withBook(cmd, func(ctx context.Context, b *folio.Book) error {
				v, err := b.ReadAny(args[0]).Await(ctx)
				if errors.Is(err, folio.ErrNotFound) && cmd.Flags().Changed("default") {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), def)
					return err
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), v)
			})
		},
	}
	cmd.Flags().String("default", "", "Print this instead of failing when the key is absent")
	return cmd
}

func newRmCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <key>...",
		Aliases: []string{"delete"},
		Short:   "Delete keys; absent keys are ignored",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBook(cmd, func(ctx context.Context, b *folio.Book) error {
				for _, k := range args {
					if err := b.Delete(k).Await(ctx); err != nil {
						return fmt.Errorf("delete %q: %w", k, err)
					}
				}
				return nil
			})
		},
	}
}

func newKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List every key in the book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBook(cmd, func(ctx context.Context, b *folio.Book) error {
				keys, err := b.Keys().Await(ctx)
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			})
		},
	}
}

func newExistsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <key>",
		Short: "Print true or false",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBook(cmd, func(ctx context.Context, b *folio.Book) error {
				ok, err := b.Contains(args[0]).Await(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), ok)
				return err
			})
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path [key]",
		Short: "Print the book directory, or the backing file of key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBook(cmd, func(ctx context.Context, b *folio.Book) error {
				var (
					p   string
					err error
				)
				if len(args) == 1 {
					p, err = b.KeyPath(args[0]).Await(ctx)
				} else {
					p, err = b.Path().Await(ctx)
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), p)
				return err
			})
		},
	}
}

func newDestroyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Remove every key in the book (requires --confirm)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ok, _ := cmd.Flags().GetBool("confirm"); !ok {
				return errors.New("refusing to destroy without --confirm")
			}
			return withBook(cmd, func(ctx context.Context, b *folio.Book) error {
				return b.Destroy().Await(ctx)
			})
		},
	}
	cmd.Flags().Bool("confirm", false, "Confirm destruction")
	return cmd
}

func newBooksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List books recorded under the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return err
			}
			books, err := catalog.List(cfg.ResolvedDataDir())
			if err != nil {
				return err
			}
			for _, m := range books {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", m.Name, m.Engine, time.UnixMilli(m.CreatedAtMs).UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
}
