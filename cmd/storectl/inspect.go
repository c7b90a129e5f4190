package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cuemby/storectl/internal/keys"
	"github.com/cuemby/storectl/internal/storage"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a row count per key subspace",
	Long: `inspect opens the storage backend (the same read-write open
the other commands use), only reads from it, and reports how
many rows live in each subspace, for capacity planning and spotting a
subspace that is growing unexpectedly (a leaking temporary blob link,
an unbounded task backlog, and so on).`,
	RunE: runInspect,
}

var subspaces = []struct {
	id   keys.Subspace
	name string
}{
	{keys.Property, "Property"},
	{keys.Index, "Index"},
	{keys.IndexProperty, "IndexProperty"},
	{keys.ACL, "ACL"},
	{keys.ChangeLog, "ChangeLog"},
	{keys.Vanished, "Vanished"},
	{keys.BlobCommit, "BlobCommit"},
	{keys.BlobLink, "BlobLink"},
	{keys.BlobQuota, "BlobQuota"},
	{keys.TaskQueue, "TaskQueue"},
	{keys.InMemory, "InMemory"},
	{keys.Directory, "Directory"},
	{keys.SearchIndex, "SearchIndex"},
	{keys.Counter, "Counter"},
	{keys.Config, "Config"},
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUBSPACE\tROWS")
	for _, sub := range subspaces {
		count, err := countRows(ctx, engine, sub.id)
		if err != nil {
			return fmt.Errorf("count %s: %w", sub.name, err)
		}
		fmt.Fprintf(w, "%s\t%d\n", sub.name, count)
	}
	return w.Flush()
}

func countRows(ctx context.Context, engine storage.Engine, sub keys.Subspace) (int, error) {
	lo, hi := keys.SubspaceRange(sub)
	it, err := engine.Iterate(ctx, lo, hi, false, false)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	count := 0
	for it.Next() {
		count++
	}
	return count, it.Err()
}
