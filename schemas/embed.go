// Package schemas embeds the JSON Schemas that define the agent-facing
// decision contract.
package schemas

import "embed"

//go:embed *.schema.json
var FS embed.FS

// Action returns the raw action schema document.
func Action() []byte {
	b, err := FS.ReadFile("action.schema.json")
	if err != nil {
		panic("schemas: action.schema.json missing from embed: " + err.Error())
	}
	return b
}
