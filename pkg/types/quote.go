package types

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// QuoteOrigin keeps the carrier-side identifiers needed to reconcile a
// chosen rate after checkout.
type QuoteOrigin struct {
	PriceID string `json:"priceID"`
}

// Quote is one priced shipping option returned for a package.
type Quote struct {
	Label    string          `json:"label"`
	Cost     decimal.Decimal `json:"cost"`
	Original QuoteOrigin     `json:"original"`
}

// QuoteResponse is the remote quoting endpoint's reply. Depending on
// the upstream API version the quote list arrives under either a
// "quote" or a "quotes" key; both are legitimate and "quote" wins when
// it is present and is a proper list.
type QuoteResponse struct {
	Success  bool              `json:"success"`
	Quote    []Quote           `json:"-"`
	Quotes   []Quote           `json:"quotes,omitempty"`
	Errors   []string          `json:"errors,omitempty"`
	Settings *MerchantSettings `json:"settings,omitempty"`
}

// QuoteList returns the effective quote sequence.
func (q QuoteResponse) QuoteList() []Quote {
	if q.Quote != nil {
		return q.Quote
	}
	return q.Quotes
}

// UnmarshalJSON tolerates the quote/quotes key split and non-list
// values under the "quote" key.
func (q *QuoteResponse) UnmarshalJSON(data []byte) error {
	type alias QuoteResponse
	aux := struct {
		*alias
		RawQuote json.RawMessage `json:"quote,omitempty"`
	}{alias: (*alias)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.RawQuote) > 0 {
		var list []Quote
		if err := json.Unmarshal(aux.RawQuote, &list); err == nil {
			q.Quote = list
		}
	}
	return nil
}

// MarshalJSON writes the singular key only when it carries the list.
func (q QuoteResponse) MarshalJSON() ([]byte, error) {
	type alias QuoteResponse
	aux := struct {
		alias
		Quote []Quote `json:"quote,omitempty"`
	}{alias: alias(q), Quote: q.Quote}
	return json.Marshal(aux)
}
