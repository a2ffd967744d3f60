package classify

import (
	"strings"

	"github.com/sells-group/tablediff/internal/normalize"
	"github.com/sells-group/tablediff/internal/table"
)

// Type is the inferred value type of a column.
type Type string

// Column types.
const (
	TypeText    Type = "text"
	TypeNumber  Type = "number"
	TypeDate    Type = "date"
	TypeBoolean Type = "boolean"
)

var (
	booleanKeywords = []string{
		"active", "enabled", "disabled", "visible", "hidden", "deleted", "verified", "confirmed",
		"активен", "включен", "отключен", "видимый", "скрытый", "удален", "подтвержден",
	}
	numberKeywords = []string{
		"id", "count", "amount", "price", "cost", "sum", "total", "number",
		"номер", "количество", "сумма", "цена", "стоимость",
	}
	booleanTokens = map[string]bool{
		"true": true, "false": true, "1": true, "0": true, "yes": true, "no": true,
		"да": true, "нет": true, "истина": true, "ложь": true,
	}
)

// ColumnType infers the value type of a column. Boolean tokens are checked
// before numbers, so a column of 0 and 1 reads as boolean.
func ColumnType(values []table.Cell, header string) Type {
	var total, numbers, dates, booleans int
	for _, v := range values {
		if v.IsEmpty() {
			continue
		}
		total++
		text := strings.ToLower(strings.TrimSpace(v.Text()))
		switch {
		case booleanTokens[text]:
			booleans++
		case v.Kind == table.KindNumber:
			numbers++
		case v.Kind == table.KindDate || v.Kind == table.KindTime:
			dates++
		default:
			if _, ok := normalize.ParseNumber(v.Str); ok {
				numbers++
			} else if looksLikeDate(v.Str) {
				dates++
			}
		}
	}
	if total == 0 {
		return TypeText
	}

	n := float64(total)
	switch br, dr, nr := float64(booleans)/n, float64(dates)/n, float64(numbers)/n; {
	case br > 0.7 || (headerHas(header, booleanKeywords) && br > 0.4):
		return TypeBoolean
	case dr > 0.6 || (headerHas(header, dateKeywords) && dr > 0.3):
		return TypeDate
	case nr > 0.7 || (headerHas(header, numberKeywords) && nr > 0.5):
		return TypeNumber
	default:
		return TypeText
	}
}

// ColumnTypes infers the type of every column of t.
func ColumnTypes(t *table.Table) []Type {
	w := t.Width()
	out := make([]Type, w)
	for i := 0; i < w; i++ {
		var header string
		if i < len(t.Header) {
			header = t.Header[i]
		}
		out[i] = ColumnType(t.Column(i), header)
	}
	return out
}
