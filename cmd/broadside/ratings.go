package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cfoust/broadside/pkg/config"
)

func ratingsCommand(configs []string, limit int) error {
	config, err := config.Process(configs)
	if err != nil {
		return fmt.Errorf("failed to load broadside configuration: %w", err)
	}

	ctx := context.Background()

	store, err := openStore(ctx, config.Server.Ratings)
	if err != nil {
		return fmt.Errorf("failed to open ratings store: %w", err)
	}
	defer store.Close()

	top, err := store.Top(ctx, limit)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "#\tNAME\tRATING\tWINS\tLOSSES\tMATCHES")
	for i, rating := range top {
		fmt.Fprintf(
			writer,
			"%d\t%s\t%d\t%d\t%d\t%d\n",
			i+1,
			rating.Name,
			rating.Rating,
			rating.Wins,
			rating.Losses,
			rating.Matches,
		)
	}

	return writer.Flush()
}
