package nodetype

import (
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/sharedcode/som"
	"github.com/sharedcode/som/item"
)

// InferType guesses a property's declared type tag from a Go value, used
// when a transport payload carries no ":name" type tag for a property. The
// second result reports whether v is a slice or array. It favors the
// narrowest applicable JCR type: a string that parses as a UUID is
// REFERENCE-shaped data but is reported as STRING here, since only the
// caller knows whether it names a reference property — REFERENCE/
// WEAKREFERENCE are never inferred, only ever set explicitly.
func InferType(v any) (item.Type, bool) {
	if v == nil {
		return item.STRING, false
	}

	switch v.(type) {
	case som.UUID, uuid.UUID:
		return item.STRING, false
	case time.Time:
		return item.DATE, false
	case string:
		return item.STRING, false
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return item.LONG, false
	case float32, float64:
		return item.DOUBLE, false
	case bool:
		return item.BOOLEAN, false
	case []byte:
		return item.BINARY, false
	}

	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Slice || val.Kind() == reflect.Array {
		if val.Len() > 0 {
			t, _ := InferType(val.Index(0).Interface())
			return t, true
		}
		return item.STRING, true
	}

	return item.STRING, false
}
