package model

// EventSummary is one event occurrence as returned by the explorer list endpoint.
type EventSummary struct {
	EventIndex     string `json:"event_index"`
	BlockNum       uint64 `json:"block_num"`
	ModuleID       string `json:"module_id"`
	EventID        string `json:"event_id"`
	BlockTimestamp uint64 `json:"block_timestamp"`
	ExtrinsicHash  string `json:"extrinsic_hash"`
	Finalized      bool   `json:"finalized"`
}

// EventParam is a single decoded event parameter.
type EventParam struct {
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	TypeName string `json:"type_name"`
	Value    any    `json:"value"`
}

// EventParams is the ordered parameter set the params endpoint returns for one
// event index.
type EventParams struct {
	EventIndex string       `json:"event_index"`
	Params     []EventParam `json:"params"`
}

// ParsedEvent pairs an event's chain coordinates with its decoded parameters.
type ParsedEvent struct {
	Block            uint64       `json:"block"`
	BlockTimestampMs uint64       `json:"block_timestamp_ms"`
	ExtrinsicHash    string       `json:"extrinsic_hash"`
	Params           []EventParam `json:"params"`
}

// NormalizedEvent is a ParsedEvent with its parameters flattened into a
// type-name keyed map.
type NormalizedEvent struct {
	ParsedEvent
	Values map[string]any `json:"values"`
}

// Normalize flattens Params into a type_name -> value map. Later entries win
// on duplicate type names.
func Normalize(ev ParsedEvent) NormalizedEvent {
	values := make(map[string]any, len(ev.Params))
	for _, param := range ev.Params {
		values[param.TypeName] = param.Value
	}
	return NormalizedEvent{ParsedEvent: ev, Values: values}
}
