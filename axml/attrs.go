package axml

import (
	_ "embed"
	"encoding/json"
)

//go:embed android-attrs.json
var androidAttrsJSON []byte

// androidAttrs maps an android: attribute's local name to its
// platform resource id, the same table the Android build tools bake
// into aapt. It lets ResourceMap.Append register attributes this
// engine didn't read from the original document (e.g. newly injected
// elements) without guessing an id.
var androidAttrs map[string]uint32

func init() {
	if err := json.Unmarshal(androidAttrsJSON, &androidAttrs); err != nil {
		panic("axml: embedded android-attrs.json is invalid: " + err.Error())
	}
}
