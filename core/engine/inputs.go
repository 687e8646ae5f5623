package engine

import (
	"craft-cost/core/magnitude"
	"craft-cost/core/rate"
	"craft-cost/core/recipe"
	"craft-cost/internal/errors"
)

// Book supplies recipes and base prices. *catalog.Catalog implements it.
type Book interface {
	Recipe(series, part string, quantity int) (recipe.Recipe, error)
	Prices() recipe.PriceBook
}

// Inputs describes an evaluation the way a user enters it: a recipe book
// lookup or explicit lines, price overrides, quotes and offers. Resolve
// turns it into a Request.
type Inputs struct {
	Series string `json:"series,omitempty"`
	Part   string `json:"part,omitempty"`

	// Quantity is the production quantity; zero means one
	Quantity int `json:"quantity,omitempty"`

	Lines  []LineInput                `json:"lines,omitempty"`
	Prices map[string]magnitude.Input `json:"prices,omitempty"`

	Retail RetailInput `json:"retail"`
	Bulk   BulkInput   `json:"bulk"`

	// Direction falls back to the engine default when nil
	Direction *rate.Direction `json:"direction,omitempty"`

	Offers []Offer `json:"offers,omitempty"`
}

// Clone returns a copy of in that shares no maps, slices or pointers with it
func (in Inputs) Clone() Inputs {
	out := in
	if in.Lines != nil {
		out.Lines = append([]LineInput(nil), in.Lines...)
	}
	if in.Prices != nil {
		out.Prices = make(map[string]magnitude.Input, len(in.Prices))
		for k, v := range in.Prices {
			out.Prices[k] = v
		}
	}
	if in.Direction != nil {
		dir := *in.Direction
		out.Direction = &dir
	}
	if in.Offers != nil {
		out.Offers = append([]Offer(nil), in.Offers...)
	}
	return out
}

// Overlay returns in with every field set in over replacing its own. Price
// overrides are merged by material; lines and offers are replaced whole.
func (in Inputs) Overlay(over Inputs) Inputs {
	out := in
	if over.Series != "" || over.Part != "" {
		out.Series, out.Part = over.Series, over.Part
	}
	if over.Quantity != 0 {
		out.Quantity = over.Quantity
	}
	if len(over.Lines) > 0 {
		out.Lines = over.Lines
	}
	if len(over.Prices) > 0 {
		merged := make(map[string]magnitude.Input, len(in.Prices)+len(over.Prices))
		for k, v := range in.Prices {
			merged[k] = v
		}
		for k, v := range over.Prices {
			merged[k] = v
		}
		out.Prices = merged
	}

	if over.Retail.Rate != "" {
		out.Retail.Rate = over.Retail.Rate
	}
	if over.Retail.Scenario != "" {
		out.Retail.Scenario = over.Retail.Scenario
	}
	if over.Bulk.CurrencyPaid != "" {
		out.Bulk.CurrencyPaid = over.Bulk.CurrencyPaid
	}
	if over.Bulk.CoinReceived != "" {
		out.Bulk.CoinReceived = over.Bulk.CoinReceived
	}
	if over.Bulk.Scenario != "" {
		out.Bulk.Scenario = over.Bulk.Scenario
	}

	if over.Direction != nil {
		out.Direction = over.Direction
	}
	if len(over.Offers) > 0 {
		out.Offers = over.Offers
	}
	return out
}

// Resolve builds the request for in. Series and part are looked up in book,
// which may be nil when in only has lines; with a book, lines are priced
// against its base prices as well.
func (e *Engine) Resolve(in Inputs, book Book) (Request, error) {
	quantity := in.Quantity
	if quantity == 0 {
		quantity = 1
	}

	req := Request{
		Lines:          in.Lines,
		PriceOverrides: in.Prices,
		Retail:         in.Retail,
		Bulk:           in.Bulk,
		Direction:      e.defaults.Direction,
		Offers:         in.Offers,
	}
	if in.Direction != nil {
		req.Direction = *in.Direction
	}

	switch {
	case in.Series != "" && in.Part != "":
		if book == nil {
			return req, errors.Input("no recipe book is loaded; give lines instead of series and part")
		}
		r, err := book.Recipe(in.Series, in.Part, quantity)
		if err != nil {
			return req, err
		}
		req.Recipe = r
		req.Prices = book.Prices()
	case in.Series != "" || in.Part != "":
		return req, errors.Input("series and part must be given together")
	case len(in.Lines) == 0:
		return req, errors.Input("nothing to evaluate: give series and part or at least one line")
	default:
		req.Recipe = recipe.New("", "").WithQuantity(quantity)
		if book != nil {
			req.Prices = book.Prices()
		}
	}
	return req, nil
}
