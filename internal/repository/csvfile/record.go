package csvfile

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/gestock/internal/domain/models"
)

// record is one data row paired with the header index of its file. Columns
// absent from the header resolve to the zero value, so older files lacking a
// column still load.
type record struct {
	columns map[string]int
	values  []string
}

func (r record) field(name string) string {
	idx, ok := r.columns[name]
	if !ok || idx >= len(r.values) {
		return ""
	}
	return r.values[idx]
}

func (r record) intField(name string) (int, error) {
	raw := r.field(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return v, nil
}

func (r record) decimalField(name string) (decimal.Decimal, error) {
	raw := r.field(name)
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("column %s: %w", name, err)
	}
	return v, nil
}

// timeField parses in the local location: rows are stamped with the local
// clock and serialized zone-less, so parsing anywhere else would shift every
// stored instant by the machine's UTC offset on reload.
func (r record) timeField(name string) (time.Time, error) {
	raw := r.field(name)
	if raw == "" {
		return time.Time{}, nil
	}
	v, err := time.ParseInLocation(models.TimeLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %s: %w", name, err)
	}
	return v, nil
}
