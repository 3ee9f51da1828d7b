package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Aranil/dbflow/internal/store"
)

// recordColumns returns the columns present in records, preferred ones
// first in their given order and the rest sorted.
func recordColumns(records []store.Record, preferred []string) []string {
	present := make(map[string]bool)
	for _, r := range records {
		for k := range r {
			present[k] = true
		}
	}

	var cols []string
	for _, c := range preferred {
		if present[c] {
			cols = append(cols, c)
			delete(present, c)
		}
	}

	var rest []string
	for c := range present {
		rest = append(rest, c)
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

func writeRecords(w io.Writer, records []store.Record, preferred []string, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "(no rows)")
		return err
	}

	cols := recordColumns(records, preferred)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, r := range records {
		vals := make([]string, len(cols))
		for i, c := range cols {
			vals[i] = formatValue(r[c])
		}
		fmt.Fprintln(tw, strings.Join(vals, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "(%d rows)\n", len(records))
	return err
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(t))
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// parseScalar reads a command line value as an integer, a float or text
func parseScalar(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// parseAssignments splits "key=value" pairs
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
