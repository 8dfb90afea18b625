package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"keeptrack/internal/feed"
	"keeptrack/internal/platform/storage"
	"keeptrack/pkg/activity"
	id "keeptrack/pkg/domain"
)

type listFlags struct {
	trackable string
	owner     string
	recipient string
	keyPrefix string
	limit     int
}

func newListCommand(opts *rootOptions) *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded activities, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := flags.query()
			if err != nil {
				return err
			}
			p, err := storage.Open(cmd.Context(), opts.cfg.Store)
			if err != nil {
				return err
			}
			defer p.Close()

			records, err := p.Repository.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			if opts.format == formatJSON {
				if records == nil {
					records = []*activity.Record{}
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{"activities": records})
			}
			return writeTable(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().StringVar(&flags.trackable, "trackable", "", "filter by trackable (Type#ID)")
	cmd.Flags().StringVar(&flags.owner, "owner", "", "filter by owner (Type#ID)")
	cmd.Flags().StringVar(&flags.recipient, "recipient", "", "filter by recipient (Type#ID)")
	cmd.Flags().StringVar(&flags.keyPrefix, "key-prefix", "", "filter by key prefix")
	cmd.Flags().IntVar(&flags.limit, "limit", feed.DefaultLimit, "maximum number of activities")
	return cmd
}

func (f *listFlags) query() (activity.Query, error) {
	q := activity.Query{KeyPrefix: f.keyPrefix, Limit: feed.NormalizeLimit(f.limit)}
	for _, filter := range []struct {
		flag  string
		value string
		dst   **id.Ref
	}{
		{"trackable", f.trackable, &q.Trackable},
		{"owner", f.owner, &q.Owner},
		{"recipient", f.recipient, &q.Recipient},
	} {
		if filter.value == "" {
			continue
		}
		ref, err := id.ParseRef(filter.value)
		if err != nil {
			return activity.Query{}, fmt.Errorf("--%s: %w", filter.flag, err)
		}
		*filter.dst = &ref
	}
	return q, nil
}

func refString(ref *id.Ref) string {
	if ref == nil {
		return "-"
	}
	return ref.String()
}

func writeTable(w io.Writer, records []*activity.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tKEY\tTRACKABLE\tOWNER\tRECIPIENT")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rec.CreatedAt.Format(time.RFC3339), rec.Key, rec.Trackable, refString(rec.Owner), refString(rec.Recipient))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
