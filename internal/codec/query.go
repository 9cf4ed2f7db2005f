package codec

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Query evaluates a JSONPath expression against an encoded frame document
// and returns the matched values in document order.
func Query(data []byte, selector string) ([]any, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}

	root, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return x.Get(root), nil
}
