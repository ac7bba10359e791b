package orderflow

// Status is a fulfillment stage. An order walks the happy path one stage at a
// time; cancellation is the only escape hatch.
type Status string

const (
	StatusPending           Status = "pending"
	StatusValidated         Status = "validated"
	StatusReachedWarehouse  Status = "reached_warehouse"
	StatusShippedToStockist Status = "shipped_to_stockist"
	StatusReachedStockist   Status = "reached_stockist"
	StatusDelivered         Status = "delivered"
	StatusCancelled         Status = "cancelled"
)

// happyPath is the linear fulfillment sequence. Position i+1 is the only
// valid non-cancel target from position i.
var happyPath = []Status{
	StatusPending,
	StatusValidated,
	StatusReachedWarehouse,
	StatusShippedToStockist,
	StatusReachedStockist,
	StatusDelivered,
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Successor returns the next happy-path stage after s, if any.
func (s Status) Successor() (Status, bool) {
	for i, stage := range happyPath {
		if stage == s && i+1 < len(happyPath) {
			return happyPath[i+1], true
		}
	}
	return "", false
}

// Parse validates an incoming status string.
func Parse(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusPending, StatusValidated, StatusReachedWarehouse,
		StatusShippedToStockist, StatusReachedStockist, StatusDelivered,
		StatusCancelled:
		return Status(raw), true
	}
	return "", false
}
