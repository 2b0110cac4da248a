package domain

import "context"

// ConstraintOutcome classifies a remote constraint lookup
type ConstraintOutcome int

const (
	OutcomeOK ConstraintOutcome = iota
	OutcomeProductNotFound
	OutcomeShelfNotFound
	OutcomeProductNotOnShelf
	OutcomeInsufficientStock
	OutcomeTransportError
)

func (o ConstraintOutcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeProductNotFound:
		return "product_not_found"
	case OutcomeShelfNotFound:
		return "shelf_not_found"
	case OutcomeProductNotOnShelf:
		return "product_not_on_shelf"
	case OutcomeInsufficientStock:
		return "insufficient_stock"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// ShelfDirection says whether goods leave or enter a shelf
type ShelfDirection string

const (
	DirectionFrom ShelfDirection = "from"
	DirectionTo   ShelfDirection = "to"
)

// ConstraintChecker looks product lines up against the catalog and shelf
// services. A non-nil error always comes with OutcomeTransportError.
type ConstraintChecker interface {
	CheckProduct(ctx context.Context, caller Caller, codProduct string) (ConstraintOutcome, error)
	CheckShelf(ctx context.Context, caller Caller, shelfID, codProduct string, quantity int, direction ShelfDirection) (ConstraintOutcome, error)
}

// TransferGateway tells logistics that goods of a completed task moved
type TransferGateway interface {
	RequestTransfer(ctx context.Context, caller Caller, lines []ProductLine) error
}

// LineViolation is the first failed constraint of a product line
type LineViolation struct {
	Index      int
	CodProduct string
	ShelfID    string
	Outcome    ConstraintOutcome
	Err        error
}
