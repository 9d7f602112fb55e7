package httpinfra

import (
	"fmt"
	"net/url"
	"regexp"
)

// queryValue matches one name=value pair of a URL query embedded in free text
var queryValue = regexp.MustCompile(`([?&][^=&\s"?#]+)=[^&\s"#]*`)

// redact masks query values so credentials sent as parameters never reach logs
func redact(s string) string {
	return queryValue.ReplaceAllString(s, "${1}=xxxxx")
}

func redactValues(keysAndValues []interface{}) []interface{} {
	out := make([]interface{}, len(keysAndValues))
	for i, v := range keysAndValues {
		switch x := v.(type) {
		case string:
			out[i] = redact(x)
		case error:
			out[i] = redact(x.Error())
		case *url.URL:
			out[i] = redact(x.String())
		case fmt.Stringer:
			out[i] = redact(x.String())
		default:
			out[i] = v
		}
	}
	return out
}

// redactedError hides query values in the message but keeps the cause reachable
type redactedError struct {
	err error
}

func (e redactedError) Error() string { return redact(e.err.Error()) }

func (e redactedError) Unwrap() error { return e.err }
