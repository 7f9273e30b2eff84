package mq

// TaskResearchDomains refreshes offer domains dropped by a slot relock.
// It runs out of band so the turn that caused the eviction stays fast.
const TaskResearchDomains = "planner:research_domains"

type ResearchPayload struct {
	TripId  string   `json:"tripId"`
	Slot    string   `json:"slot"`
	Domains []string `json:"domains"`
}
