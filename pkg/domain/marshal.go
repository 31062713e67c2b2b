package domain

import "encoding/json"

// employeeAlias avoids infinite recursion in (Un)MarshalJSON by sharing
// Employee's JSON tags without its methods.
type employeeAlias Employee

// MarshalJSON re-merges Extra back onto the typed fields so that any
// field this engine does not model by name still round-trips into the
// payload handed to generated rule code.
func (e Employee) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(employeeAlias(e))
	if err != nil {
		return nil, err
	}
	if len(e.Extra) == 0 {
		return base, nil
	}
	return mergeRaw(base, e.Extra)
}

// UnmarshalJSON captures every field, named or not, so that fields this
// struct does not model explicitly survive under Extra.
func (e *Employee) UnmarshalJSON(data []byte) error {
	var alias employeeAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*e = Employee(alias)

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	known := knownEmployeeFields()
	extra := make(map[string]json.RawMessage)
	for k, v := range all {
		if !known[k] {
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		e.Extra = extra
	}
	return nil
}

func knownEmployeeFields() map[string]bool {
	return map[string]bool{
		"id": true, "role": true, "division": true, "tier": true,
		"restricted_tickers": true, "can_trade": true, "coverage_stocks": true,
		"active_deals": true, "firm_restrictions": true, "quick_reference": true,
	}
}

// mergeRaw merges extra top-level keys into an already-marshaled JSON
// object, without re-decoding the typed fields (which would lose
// number/string formatting fidelity).
func mergeRaw(base []byte, extra map[string]json.RawMessage) ([]byte, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(base, &obj); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, exists := obj[k]; !exists {
			obj[k] = v
		}
	}
	return json.Marshal(obj)
}
