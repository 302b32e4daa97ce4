package psm

import "math/big"

// Dataset is the server's set of distinct integers in first-occurrence order.
type Dataset struct {
	elements []*big.Int
}

// NewDataset copies values and drops repeats. nil entries are skipped.
func NewDataset(values []*big.Int) Dataset {
	seen := make(map[string]struct{}, len(values))
	elements := make([]*big.Int, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		key := v.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		elements = append(elements, new(big.Int).Set(v))
	}
	return Dataset{elements: elements}
}

func (d Dataset) Size() int {
	return len(d.elements)
}

// Elements returns a copy of the set.
func (d Dataset) Elements() []*big.Int {
	return copyInts(d.elements)
}

// Contains reports plain membership of x.
func (d Dataset) Contains(x *big.Int) bool {
	for _, e := range d.elements {
		if e.Cmp(x) == 0 {
			return true
		}
	}
	return false
}

// BigInts converts vals to big integers.
func BigInts(vals ...int64) []*big.Int {
	s := make([]*big.Int, len(vals))
	for i, v := range vals {
		s[i] = big.NewInt(v)
	}
	return s
}

func copyInts(s []*big.Int) []*big.Int {
	out := make([]*big.Int, len(s))
	for i, v := range s {
		out[i] = new(big.Int).Set(v)
	}
	return out
}
