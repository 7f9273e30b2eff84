// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package types

import "encoding/json"

type CreateTripRequest struct {
	UserId string `json:"userId,optional"`
}

type CreateTripResponse struct {
	StatusCode int32  `json:"statusCode"`
	StatusMsg  string `json:"statusMsg"`
	TripId     string `json:"tripId"`
	Prompt     string `json:"prompt"`
}

type TurnRequest struct {
	TripId    string `json:"tripId"`
	TurnToken string `json:"turnToken"`
	Message   string `json:"message"`
}

type TurnResponse struct {
	StatusCode int32     `json:"statusCode"`
	StatusMsg  string    `json:"statusMsg"`
	Data       *TurnData `json:"data,omitempty"`
}

type TurnData struct {
	TripId            string           `json:"tripId"`
	Status            string           `json:"status"`
	Version           int64            `json:"version"`
	Prompt            string           `json:"prompt,omitempty"`
	NextSlot          string           `json:"nextSlot,omitempty"`
	Ready             bool             `json:"ready"`
	PlanGenerated     bool             `json:"planGenerated"`
	Brief             *BriefView       `json:"brief,omitempty"`
	Changes           []SlotChangeView `json:"changes,omitempty"`
	Evictions         []EvictionView   `json:"evictions,omitempty"`
	Conditions        []ConditionView  `json:"conditions,omitempty"`
	SearchesTriggered []string         `json:"searchesTriggered,omitempty"`
}

type BriefView struct {
	TripId       string              `json:"tripId"`
	Status       string              `json:"status"`
	Version      int64               `json:"version"`
	Slots        map[string]SlotView `json:"slots"`
	Pending      *PendingView        `json:"pending,omitempty"`
	MissingSlots []string            `json:"missingSlots,omitempty"`
}

type SlotView struct {
	Value      string        `json:"value,omitempty"`
	Filled     bool          `json:"filled"`
	Locked     bool          `json:"locked"`
	Confidence int           `json:"confidence,omitempty"`
	Source     string        `json:"source,omitempty"`
	History    []HistoryView `json:"history,omitempty"`
}

type HistoryView struct {
	Value  string `json:"value"`
	Reason string `json:"reason,omitempty"`
	At     string `json:"at"`
}

type PendingView struct {
	Kind    string   `json:"kind"`
	Slot    string   `json:"slot"`
	Options []string `json:"options,omitempty"`
}

type SlotChangeView struct {
	Slot  string `json:"slot"`
	Op    string `json:"op"`
	Value string `json:"value,omitempty"`
}

type EvictionView struct {
	Slot     string   `json:"slot"`
	OldValue string   `json:"oldValue"`
	Domains  []string `json:"domains,omitempty"`
}

type ConditionView struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

type GetBriefRequest struct {
	TripId string `path:"tripId"`
}

type GetBriefResponse struct {
	StatusCode int32      `json:"statusCode"`
	StatusMsg  string     `json:"statusMsg"`
	Data       *BriefView `json:"data,omitempty"`
}

type GetPlanRequest struct {
	TripId string `path:"tripId"`
}

type GetPlanResponse struct {
	StatusCode int32           `json:"statusCode"`
	StatusMsg  string          `json:"statusMsg"`
	Data       json.RawMessage `json:"data,omitempty"`
}

type ArchiveTripRequest struct {
	TripId string `path:"tripId"`
}

type ArchiveTripResponse struct {
	StatusCode int32  `json:"statusCode"`
	StatusMsg  string `json:"statusMsg"`
}
