package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/menezmethod/memoria/internal/memory"
)

var addCmd = &cobra.Command{
	Use:   "add <text>...",
	Short: "Append a memory to the store file",
	Long: `Append a memory directly to the store file without going through
the HTTP server. Arguments are joined with spaces.

Do not run this while the server is writing to the same file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every memory in the store file",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(addCmd, listCmd)
}

// openStore loads the configured store for a one-off command.
func openStore(cmd *cobra.Command) (*memory.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log)

	store, err := memory.Open(cfg.Store.Path, logger)
	if err != nil {
		return nil, err
	}
	if err := store.Load(cmd.Context()); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	m, err := store.Add(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("add memory: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added memory %d\n", m.ID)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	printMemories(cmd.OutOrStdout(), store.All())
	return nil
}

func printMemories(w io.Writer, memories []memory.Memory) {
	if len(memories) == 0 {
		fmt.Fprintln(w, "no memories yet")
		return
	}
	for _, m := range memories {
		fmt.Fprintf(w, "%d\t%s\n", m.ID, m.Content)
	}
}
