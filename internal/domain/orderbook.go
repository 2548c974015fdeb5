package domain

// BookStatus distinguishes a sampled book from an empty or failed fetch.
type BookStatus string

const (
	BookOK     BookStatus = "ok"
	BookEmpty  BookStatus = "empty"
	BookFailed BookStatus = "failed"
)

// PriceLevel is a single price+size entry in an orderbook.
type PriceLevel struct {
	Price float64
	Size  float64
}

// BookQuote is the top of book for one token. BestBid and BestAsk are 0 when
// the side is absent or the fetch failed; Status tells the two apart.
type BookQuote struct {
	TokenID string
	BestBid float64
	BestAsk float64
	Bids    []PriceLevel
	Asks    []PriceLevel
	Status  BookStatus
	Err     error
}

// Midpoint returns (bid+ask)/2 when both sides are present, else 0.
func (q BookQuote) Midpoint() float64 {
	if q.BestBid > 0 && q.BestAsk > 0 {
		return (q.BestBid + q.BestAsk) / 2
	}
	return 0
}

// FailedQuote builds the zero sentinel for a token whose book could not be
// fetched.
func FailedQuote(tokenID string, err error) BookQuote {
	return BookQuote{TokenID: tokenID, Status: BookFailed, Err: err}
}
