package main

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// readableElements joins elements for display, "none" for an empty set.
func readableElements(elements []*big.Int) string {
	var sb strings.Builder
	for _, e := range elements {
		sb.WriteString(fmt.Sprintf("%d, ", e))
	}
	str := sb.String()
	if len(str) >= 3 {
		return str[0 : len(str)-2]
	}
	return "none"
}

// parseElements reads decimal integers separated by commas and/or newlines.
// Blank entries are ignored.
func parseElements(text string) ([]*big.Int, error) {
	text = strings.Replace(text, "\r\n", "\n", -1)
	var elements []*big.Int
	for _, line := range strings.Split(text, "\n") {
		for _, v := range strings.Split(line, ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			e, succ := new(big.Int).SetString(v, 10)
			if !succ {
				return nil, errors.Errorf("error when parsing element %q", v)
			}
			elements = append(elements, e)
		}
	}
	return elements, nil
}

func parseElementfile(filename string) ([]*big.Int, error) {
	dat, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "error when reading file %v", filename)
	}
	return parseElements(string(dat))
}
