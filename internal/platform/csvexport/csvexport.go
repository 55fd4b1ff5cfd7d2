// Package csvexport renders row data as comma-separated text.
//
// Fields are quoted only when they contain a comma, a double quote or a
// newline, with inner quotes doubled. Rows are joined with "\n" and the
// output has no trailing newline. encoding/csv's Writer is not used because
// it also quotes fields with a leading space or a carriage return and always
// terminates the last row, which would change the exported bytes.
package csvexport

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// EscapeField converts v to text and quotes it when needed. nil becomes "".
func EscapeField(v any) string {
	s := stringify(v)
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(dateLayout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format(dateLayout)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// Row escapes each value and joins them with commas.
func Row(values ...any) string {
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = EscapeField(v)
	}
	return strings.Join(fields, ",")
}

// Join renders the header followed by one line per row.
func Join(header []string, rows [][]any) string {
	var b strings.Builder
	h := make([]any, len(header))
	for i, name := range header {
		h[i] = name
	}
	b.WriteString(Row(h...))
	for _, r := range rows {
		b.WriteByte('\n')
		b.WriteString(Row(r...))
	}
	return b.String()
}
