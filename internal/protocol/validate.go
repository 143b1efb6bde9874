package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"drugwars.ai/schemas"
)

var actionSchema = mustCompileAction()

func mustCompileAction() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("action.schema.json", bytes.NewReader(schemas.Action())); err != nil {
		panic("protocol: add action schema: " + err.Error())
	}
	s, err := c.Compile("action.schema.json")
	if err != nil {
		panic("protocol: compile action schema: " + err.Error())
	}
	return s
}

// ParseAction turns a raw agent payload into a structured Action. The payload
// must be a single JSON object conforming to the action schema (unknown extra
// fields are refused by the schema itself), and must carry every companion
// field its kind requires.
func ParseAction(raw []byte) (Action, *Rejection) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Action{}, Reject(ErrSchemaViolation, "response is not valid JSON: %v", err)
	}
	if err := actionSchema.Validate(v); err != nil {
		return Action{}, Reject(ErrSchemaViolation, "action schema: %v", err)
	}

	var act Action
	if err := json.Unmarshal(raw, &act); err != nil {
		return Action{}, Reject(ErrSchemaViolation, "decode action: %v", err)
	}

	if rej := checkCompanions(act); rej != nil {
		return Action{}, rej
	}
	return act, nil
}

// checkCompanions enforces the per-kind required fields the schema alone
// cannot express (the schema only requires "action").
func checkCompanions(act Action) *Rejection {
	switch act.Kind {
	case KindBuy, KindSell:
		if act.DrugType == "" {
			return Reject(ErrMissingField, "%s requires drug_type", act.Kind)
		}
		if act.Amount < 1 {
			return Reject(ErrMissingField, "%s requires amount >= 1", act.Kind)
		}
	case KindTravel:
		if act.Location == "" {
			return Reject(ErrMissingField, "travel requires location")
		}
	case KindLoan, KindRepay:
		if act.Amount < 1 {
			return Reject(ErrMissingField, "%s requires amount >= 1", act.Kind)
		}
	case KindBank:
		if act.SubAction == "" {
			return Reject(ErrMissingField, "bank requires sub_action")
		}
	case KindQuit:
	default:
		return Reject(ErrSchemaViolation, "unknown action %q", act.Kind)
	}
	return nil
}
