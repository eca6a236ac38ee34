package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/couchcryptid/flood-report-basket/internal/basket"
	"github.com/couchcryptid/flood-report-basket/internal/domain"
	"github.com/couchcryptid/flood-report-basket/internal/ingest"
	"github.com/spf13/cobra"
)

func (a *app) addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an analysis result to the basket",
		Example: `  basketctl add --query "muni=Opol&province=Misamis%20Oriental&rain=250&histMax=400&pop=12000"
  basketctl add -f muni=Opol -f rain=250 -f histMax=400`,
		Args: cobra.NoArgs,
	}
	addFieldFlags(cmd)
	cmd.RunE = a.withSession(func(ctx context.Context, s *session, _ []string) error {
		fields, err := fieldsFromFlags(cmd)
		if err != nil {
			return err
		}
		rec, err := s.ingester.Ingest(ctx, fields)
		if err != nil {
			return fmt.Errorf("failed to add analysis: %w", err)
		}
		fmt.Fprintf(a.out, "✓ Added %d: %s %s\n", rec.ID, rec.Municipality, tierLabel(domain.Classify(rec)))
		return nil
	})
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Add every analysis result in a JSON array file",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(ctx context.Context, s *session, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}
			var items []json.RawMessage
			if err := json.Unmarshal(data, &items); err != nil {
				return fmt.Errorf("import file must hold a JSON array of objects: %w", err)
			}

			added := 0
			for i, item := range items {
				fields, err := ingest.FieldsFromJSON(item)
				if err != nil {
					fmt.Fprintf(a.errw, "skipping entry %d: %v\n", i, err)
					continue
				}
				if _, err := s.ingester.Ingest(ctx, fields); err != nil {
					return fmt.Errorf("failed to add entry %d: %w", i, err)
				}
				added++
			}
			fmt.Fprintf(a.out, "✓ Imported %d of %d analyses (basket now holds %d)\n", added, len(items), s.store.Count())
			return nil
		}),
	}
}

func (a *app) classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Preview the severity and narrative for analysis fields without storing them",
		Args:  cobra.NoArgs,
	}
	addFieldFlags(cmd)
	cmd.RunE = a.withSession(func(_ context.Context, s *session, _ []string) error {
		fields, err := fieldsFromFlags(cmd)
		if err != nil {
			return err
		}
		rec := s.ingester.Preview(fields)
		tier := domain.Classify(rec)
		fmt.Fprintf(a.out, "%s  %s\n\n%s\n", tierLabel(tier), domain.RatioSummary(rec), domain.Interpret(rec, tier))
		return nil
	})
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List basket contents, newest first",
		Args:  cobra.NoArgs,
		RunE: a.withSession(func(_ context.Context, s *session, _ []string) error {
			records := s.store.List()
			if len(records) == 0 {
				fmt.Fprintln(a.out, "Basket is empty.")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tADDED\tMUNICIPALITY\tSEVERITY\tRAINFALL")
			for _, rec := range records {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					rec.ID, rec.Timestamp, rec.Municipality,
					tierLabel(domain.Classify(rec)), domain.RatioSummary(rec))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\n%d record(s)\n", len(records))
			return nil
		}),
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one basket record",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(_ context.Context, s *session, args []string) error {
			rec, err := lookup(s, args[0])
			if err != nil {
				return err
			}
			printRecord(a.out, rec)
			return nil
		}),
	}
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove one record from the basket",
		Args:    cobra.ExactArgs(1),
		RunE: a.withSession(func(ctx context.Context, s *session, args []string) error {
			rec, err := lookup(s, args[0])
			if err != nil {
				return err
			}
			if err := s.store.Remove(ctx, rec.ID); err != nil {
				return fmt.Errorf("failed to remove record: %w", err)
			}
			fmt.Fprintf(a.out, "✓ Removed %d: %s\n", rec.ID, rec.Municipality)
			return nil
		}),
	}
}

func (a *app) clearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every record from the basket",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	cmd.RunE = a.withSession(func(ctx context.Context, s *session, _ []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		confirm := promptConfirm(a.in, a.out)
		if yes {
			confirm = func(string) bool { return true }
		}

		count := s.store.Count()
		err := s.store.Clear(ctx, confirm)
		if errors.Is(err, basket.ErrClearNotConfirmed) {
			fmt.Fprintln(a.out, "Aborted.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to clear basket: %w", err)
		}
		fmt.Fprintf(a.out, "✓ Cleared %d record(s)\n", count)
		return nil
	})
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <id>",
		Short: "Assemble the printable report for a basket record",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().Bool("json", false, "Print the report fields as JSON")
	cmd.RunE = a.withSession(func(_ context.Context, s *session, args []string) error {
		rec, err := lookup(s, args[0])
		if err != nil {
			return err
		}
		fields := s.assembler.Assemble(rec)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(fields)
		}
		printReport(a.out, fields)
		return nil
	})
	return cmd
}

func lookup(s *session, arg string) (domain.AnalysisRecord, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return domain.AnalysisRecord{}, fmt.Errorf("invalid record id %q", arg)
	}
	rec, ok := s.store.Get(id)
	if !ok {
		return domain.AnalysisRecord{}, fmt.Errorf("record %d: %w", id, basket.ErrNotFound)
	}
	return rec, nil
}
