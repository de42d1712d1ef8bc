// Package patterns provides the embedded default extraction rules for the
// transcript state extractor. Rules are plain regex → slot/flag mappings in
// YAML so they can be unit-tested rule-by-rule and extended without touching
// extractor control flow.
package patterns

import _ "embed"

//go:embed support_en.yaml
var supportENYAML []byte

// SupportENYAML returns the embedded default support-conversation rules.
func SupportENYAML() []byte { return supportENYAML }
