package zuora

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Data is an untyped record of snake_case keys to field values, as supplied
// by callers of the generic create operation. Only keys matching a schema
// field survive serialization.
type Data map[string]any

// Response is the raw result of a SOAP round trip. The adapter never
// interprets create responses; callers read the status and body themselves.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the round trip returned HTTP 200.
func (r *Response) OK() bool { return r.StatusCode == http.StatusOK }

// renderValue converts a record value to element text. The second return is
// false when the element must be omitted: nil, empty strings, false booleans
// and zero numbers are all dropped. Dropping zero numbers is the upstream
// platform's contract, kept as-is even though it looks like a footgun.
func renderValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case bool:
		if !val {
			return "", false
		}
		return "true", true
	case int:
		return strconv.Itoa(val), val != 0
	case int32:
		return strconv.FormatInt(int64(val), 10), val != 0
	case int64:
		return strconv.FormatInt(val, 10), val != 0
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), val != 0
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), val != 0
	case decimal.Decimal:
		return val.String(), !val.IsZero()
	case time.Time:
		return val.Format("2006-01-02"), !val.IsZero()
	case fmt.Stringer:
		s := val.String()
		return s, s != ""
	default:
		s := fmt.Sprintf("%v", val)
		return s, s != ""
	}
}
