package domain

// AccessDecision is how a result may be presented to a requester.
type AccessDecision string

const (
	AccessAllow                AccessDecision = "allow"
	AccessPremiumRequired      AccessDecision = "premium_required"
	AccessVerificationRequired AccessDecision = "verification_required"
)

// SearchResult pairs an item with the requester's access decision.
type SearchResult struct {
	Item     IndexedItem
	Decision AccessDecision
}

// SearchResultPage is one window of an ordered result set.
type SearchResultPage struct {
	Query   string
	Results []SearchResult
	Total   int
	Offset  int
	Limit   int
	HasNext bool
}

// NextOffset returns the offset of the following page.
func (p *SearchResultPage) NextOffset() int {
	return p.Offset + p.Limit
}
