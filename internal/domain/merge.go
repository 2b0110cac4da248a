package domain

// ProductLinePatch is a partial product line. CodProduct identifies the
// stored line; nil fields keep their stored value.
type ProductLinePatch struct {
	CodProduct string
	From       *string
	To         *string
	Quantity   *int
}

// MergeProductList applies patches to stored by product code. Every patched
// product must already be in stored, otherwise nothing is applied. Stored
// order is kept and neither input is modified.
func MergeProductList(stored []ProductLine, patches []ProductLinePatch) ([]ProductLine, error) {
	index := make(map[string]int, len(stored))
	for i, line := range stored {
		if _, seen := index[line.CodProduct]; !seen {
			index[line.CodProduct] = i
		}
	}

	for _, p := range patches {
		if _, ok := index[p.CodProduct]; !ok {
			return nil, &MissingProductError{CodProduct: p.CodProduct}
		}
	}

	merged := make([]ProductLine, len(stored))
	copy(merged, stored)

	for _, p := range patches {
		line := &merged[index[p.CodProduct]]
		if p.From != nil {
			line.From = *p.From
		}
		if p.To != nil {
			line.To = *p.To
		}
		if p.Quantity != nil {
			line.Quantity = *p.Quantity
		}
	}

	return merged, nil
}

// MissingProductError names the patched product that is not in the task.
// It matches ErrProductNotInTaskList with errors.Is.
type MissingProductError struct {
	CodProduct string
}

func (e *MissingProductError) Error() string {
	return ErrProductNotInTaskList.Error() + ": " + e.CodProduct
}

func (e *MissingProductError) Unwrap() error { return ErrProductNotInTaskList }
