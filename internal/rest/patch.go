package rest

import (
	"github.com/tidwall/gjson"
)

// fieldState inspects raw JSON for key at the top level and reports
// whether it was present at all, and if so whether it was explicitly
// null. PATCH bodies across §4.10/§4.7 distinguish three states per
// field: omitted (leave alone), present-and-null (clear), present with
// a value (set) — a plain struct-tagged json.Unmarshal collapses the
// first two, so presence has to be read off the raw body instead.
func fieldState(raw []byte, key string) (present, isNull bool) {
	res := gjson.GetBytes(raw, key)
	if !res.Exists() {
		return false, false
	}
	return true, res.Type == gjson.Null
}
