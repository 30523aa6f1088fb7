package internal

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Column describes one catalog table column as reported by the database.
type Column struct {
	Type     string
	Nullable bool
}

// ErrTableMissing is returned by CompareColumns when the table has no columns.
var ErrTableMissing = errors.New("table does not exist")

// CompareColumns checks got against want. Extra columns are allowed. The
// error lists missing columns first, then type and nullability mismatches,
// each in column name order.
func CompareColumns(table string, want, got map[string]Column) error {
	if len(got) == 0 {
		return fmt.Errorf("%s: %w", table, ErrTableMissing)
	}

	names := make([]string, 0, len(want))
	for name := range want {
		names = append(names, name)
	}
	sort.Strings(names)

	var missing []string
	var mismatched []error

	for _, name := range names {
		w := want[name]
		g, ok := got[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if !strings.EqualFold(g.Type, w.Type) {
			mismatched = append(mismatched, fmt.Errorf("column %s: type %s, want %s", name, g.Type, w.Type))
		}
		if g.Nullable != w.Nullable {
			mismatched = append(mismatched, fmt.Errorf("column %s: nullable=%t, want %t", name, g.Nullable, w.Nullable))
		}
	}

	if len(missing) == 0 && len(mismatched) == 0 {
		return nil
	}

	errs := mismatched
	if len(missing) > 0 {
		errs = append([]error{fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))}, errs...)
	}
	return fmt.Errorf("table %s schema: %w", table, errors.Join(errs...))
}
