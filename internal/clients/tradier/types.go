package tradier

import (
	"bytes"
	"encoding/json"
)

// oneOrMany decodes a field the API sends as a single object when there is
// exactly one element, as an array otherwise, and as "null" when empty.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = nil
		return nil
	}
	if data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*o = []T{one}
	return nil
}

type quote struct {
	Symbol string  `json:"symbol"`
	Last   float64 `json:"last"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
}

type quotesResponse struct {
	Quotes struct {
		Quote oneOrMany[quote] `json:"quote"`
	} `json:"quotes"`
}

type historyDay struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

type historyResponse struct {
	History *struct {
		Day oneOrMany[historyDay] `json:"day"`
	} `json:"history"`
}

type expirationsResponse struct {
	Expirations *struct {
		Date oneOrMany[string] `json:"date"`
	} `json:"expirations"`
}

type option struct {
	Symbol     string  `json:"symbol"`
	OptionType string  `json:"option_type"`
	Strike     float64 `json:"strike"`
	Bid        float64 `json:"bid"`
	Ask        float64 `json:"ask"`
	Last       float64 `json:"last"`
}

type chainResponse struct {
	Options *struct {
		Option oneOrMany[option] `json:"option"`
	} `json:"options"`
}

// cachedChain is the msgpack payload of a cached option chain.
type cachedChain struct {
	Contracts []cachedContract `msgpack:"contracts"`
}

type cachedContract struct {
	Symbol  string  `msgpack:"symbol"`
	Strike  float64 `msgpack:"strike"`
	Premium float64 `msgpack:"premium"`
	Bid     float64 `msgpack:"bid"`
	Ask     float64 `msgpack:"ask"`
}
