package zuora

import (
	"strings"
	"sync"
	"unicode"
)

// objectSchemas maps a remote object type to its ordered field whitelist.
// Only whitelisted fields are ever serialized, in list order. Unlisted keys
// in caller data are silently ignored, which keeps arbitrary fields out of
// the wire payload.
var (
	schemaMu      sync.RWMutex
	objectSchemas = map[string][]string{
		"Refund": {
			"AccountId",
			"Amount",
			"PaymentId",
			"Type",
		},
		"BillRun": {
			"AccountId",
			"AutoEmail",
			"AutoPost",
			"AutoRenewal",
			"Batch",
			"BillCycleDay",
			"ChargeTypeToExclude",
			"Id",
			"InvoiceDate",
			"NoEmailForZeroAmountInvoice",
			"Status",
			"TargetDate",
		},
	}
)

// RegisterSchema adds or replaces the field whitelist for an object type.
// Intended for init-time registration of additional zObject types.
func RegisterSchema(typeName string, fields []string) {
	schemaMu.Lock()
	defer schemaMu.Unlock()
	cp := make([]string, len(fields))
	copy(cp, fields)
	objectSchemas[typeName] = cp
}

// SchemaFields returns the ordered field whitelist for an object type.
func SchemaFields(typeName string) ([]string, bool) {
	schemaMu.RLock()
	defer schemaMu.RUnlock()
	fields, ok := objectSchemas[typeName]
	if !ok {
		return nil, false
	}
	cp := make([]string, len(fields))
	copy(cp, fields)
	return cp, true
}

// RegisteredTypes returns the names of all registered object types.
func RegisteredTypes() []string {
	schemaMu.RLock()
	defer schemaMu.RUnlock()
	names := make([]string, 0, len(objectSchemas))
	for name := range objectSchemas {
		names = append(names, name)
	}
	return names
}

// fieldKey converts a wire field name to the snake_case key callers use in
// a Data record, e.g. "AccountId" -> "account_id".
func fieldKey(field string) string {
	var b strings.Builder
	for i, r := range field {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
