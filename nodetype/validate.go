package nodetype

import (
	"regexp"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/sharedcode/som"
	"github.com/sharedcode/som/item"
	"github.com/sharedcode/som/pathutil"
)

// uriPattern implements the RFC-3986-ish pattern from spec §6: scheme,
// optional userinfo, host or bracketed IPv6, optional port, optional
// path/query.
var uriPattern = regexp.MustCompile(
	`^[a-z][a-z0-9*\-.]*://` +
		`([^@/]+@)?` +
		`(\[[0-9a-fA-F:]+\]|[^/:]+)` +
		`(:[0-9]+)?` +
		`(/[^?]*)?` +
		`(\?.*)?$`)

var (
	validatorOnce sync.Once
	validate      *validator.Validate
)

// initValidator registers the declared-type custom validators once. Done
// lazily so the zero-value nodetype package can be imported without side
// effects at init time.
func initValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validate = validator.New()
		validate.RegisterValidation("jcruri", func(fl validator.FieldLevel) bool {
			return uriPattern.MatchString(fl.Field().String())
		})
		validate.RegisterValidation("jcrxmlchars", func(fl validator.FieldLevel) bool {
			return isValidXMLString(fl.Field().String())
		})
	})
	return validate
}

// isValidXMLString reports whether s contains only the XML 1.0 permitted
// characters from spec §6's STRING/DECIMAL allow-class: U+0009, U+000A,
// U+000D, U+0020-U+D7FF, U+E000-U+FFFD, U+10000-U+10FFFF.
func isValidXMLString(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == 0x9 || r == 0xA || r == 0xD:
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return false
		}
	}
	return true
}

// validateValue validates a single value against a property's declared
// type, per spec §4.8 step 3. The registry is consulted for NAME's
// prefix-registration check.
func validateValue(reg *Registry, typ item.Type, value any) error {
	s, isString := value.(string)

	switch typ {
	case item.NAME:
		if !isString {
			return som.NewError(som.ValueFormat, value, nil)
		}
		if prefix, ok := pathutil.Prefix(s); ok && !reg.IsRegisteredPrefix(prefix) {
			return som.NewError(som.Namespace, s, nil)
		}
	case item.PATH:
		if !isString {
			return som.NewError(som.ValueFormat, value, nil)
		}
		if err := pathutil.Validate(s); err != nil {
			return som.NewError(som.ValueFormat, s, err)
		}
	case item.URI:
		if !isString || initValidator().Var(s, "jcruri") != nil {
			return som.NewError(som.ValueFormat, value, nil)
		}
	case item.STRING, item.DECIMAL:
		if !isString || initValidator().Var(s, "jcrxmlchars") != nil {
			return som.NewError(som.ValueFormat, value, nil)
		}
	}
	return nil
}
