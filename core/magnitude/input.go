package magnitude

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Input is an amount as a user entered it. It decodes from either a JSON
// string or a JSON number and is only parsed when used, so malformed text
// survives decoding and can be reported as a diagnostic.
type Input string

// Parse is ParseString on the input text
func (in Input) Parse() (decimal.Decimal, error) {
	return ParseString(string(in))
}

// UnmarshalJSON implements json.Unmarshaler
func (in *Input) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*in = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*in = Input(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	// normalise exponent forms such as 1e5, which the shorthand grammar rejects
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return err
	}
	*in = Input(d.String())
	return nil
}
