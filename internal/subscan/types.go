package subscan

import "subscanFeed/internal/model"

// EventsRequest is the payload for the events list endpoint.
type EventsRequest struct {
	Module     string `json:"module"`
	EventID    string `json:"event_id"`
	BlockRange string `json:"block_range"`
	Order      string `json:"order"`
	Row        int    `json:"row"`
	Page       int    `json:"page"`
	Finalized  bool   `json:"finalized"`
}

// EventsData is the body of an events list response. Events is nil when the
// queried range holds no rows for the requested page.
type EventsData struct {
	Count  int                  `json:"count"`
	Events []model.EventSummary `json:"events"`
}

type eventsResponse struct {
	Data EventsData `json:"data"`
}

type paramsRequest struct {
	EventIndex []string `json:"event_index"`
}

type paramsResponse struct {
	Data []model.EventParams `json:"data"`
}
