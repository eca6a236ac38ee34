package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/couchcryptid/flood-report-basket/internal/ingest"
	"github.com/spf13/cobra"
)

// addFieldFlags registers the --field and --query flags shared by add and classify.
func addFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("field", "f", nil, "Analysis field as key=value (repeatable)")
	cmd.Flags().StringP("query", "q", "", `Analysis fields as a query string, e.g. "muni=Opol&rain=250"`)
}

// fieldsFromFlags merges --query and --field values; --field wins on conflicts.
func fieldsFromFlags(cmd *cobra.Command) (map[string]string, error) {
	query, _ := cmd.Flags().GetString("query")
	pairs, _ := cmd.Flags().GetStringArray("field")

	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return nil, fmt.Errorf("invalid --query: %w", err)
	}
	fields := ingest.FieldsFromValues(values)

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --field %q: want key=value", pair)
		}
		fields[key] = value
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no analysis fields given\nHint: use --field key=value or --query \"muni=...&rain=...\"")
	}
	return fields, nil
}
