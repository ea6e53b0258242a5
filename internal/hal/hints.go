package hal

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed hints.yaml
var hintsYAML []byte

var addressHints map[int][]string

func init() {
	// The hint table ships inside the binary; a parse failure is a build
	// defect, not a runtime condition.
	if err := yaml.Unmarshal(hintsYAML, &addressHints); err != nil {
		panic("hal: invalid embedded hints.yaml: " + err.Error())
	}
}

// IdentifyAddress returns the chips commonly found at a bus address. The
// list is heuristic; an empty result just means the address is unlisted.
func IdentifyAddress(addr int) []string {
	return addressHints[addr]
}
