package importer

import "strings"

type JobStatus string

const (
	JobStatusBid   JobStatus = "Bid"
	JobStatusNoBid JobStatus = "No Bid"
	JobStatusUnset JobStatus = "Unset"
)

type BidStatus string

const (
	BidStatusDraft   BidStatus = "DRAFT"
	BidStatusPending BidStatus = "PENDING"
	BidStatusWon     BidStatus = "WON"
	BidStatusLost    BidStatus = "LOST"
)

// MapStatus normalizes free-text job status labels. Literal labels win over
// substring heuristics, and anything unrecognized degrades to Unset.
func MapStatus(v Value) JobStatus {
	s := strings.ToLower(strings.TrimSpace(Clean(v).Text()))
	if s == "" {
		return JobStatusUnset
	}

	switch s {
	case "bid":
		return JobStatusBid
	case "no bid":
		return JobStatusNoBid
	case "choose", "unset":
		return JobStatusUnset
	}

	hasBid := strings.Contains(s, "bid")
	hasNo := strings.Contains(s, "no")
	switch {
	case hasBid && !hasNo:
		return JobStatusBid
	case hasBid && hasNo:
		return JobStatusNoBid
	case strings.Contains(s, "open"):
		return JobStatusBid
	case strings.Contains(s, "urgent"):
		return JobStatusNoBid
	case strings.Contains(s, "closed"):
		return JobStatusUnset
	}
	return JobStatusUnset
}

// MapBidStatus normalizes active bid stages, defaulting to PENDING.
func MapBidStatus(v Value) BidStatus {
	s := strings.ToUpper(Clean(v).Text())
	switch {
	case strings.Contains(s, string(BidStatusDraft)):
		return BidStatusDraft
	case strings.Contains(s, string(BidStatusPending)):
		return BidStatusPending
	case strings.Contains(s, string(BidStatusWon)):
		return BidStatusWon
	case strings.Contains(s, string(BidStatusLost)):
		return BidStatusLost
	}
	return BidStatusPending
}

// ClassifyOwner buckets an owner name into the agencies bids are tracked
// against. Unknown owners classify as empty.
func ClassifyOwner(owner string) string {
	s := strings.ToUpper(owner)
	switch {
	case s == "" || s == strings.ToUpper(unknownText):
		return ""
	case strings.Contains(s, "PENNDOT"):
		return "PENNDOT"
	case strings.Contains(s, "TURNPIKE"):
		return "TURNPIKE"
	case strings.Contains(s, "PRIVATE"):
		return "PRIVATE"
	case strings.Contains(s, "SEPTA"):
		return "SEPTA"
	}
	return "OTHER"
}

func classifyDivision(division string) string {
	s := strings.ToUpper(division)
	switch {
	case strings.Contains(s, "PUBLIC"):
		return "PUBLIC"
	case strings.Contains(s, "PRIVATE"):
		return "PRIVATE"
	}
	return ""
}
