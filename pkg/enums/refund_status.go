package enums

// RefundStatus summarizes refunds issued against a booking deposit.
type RefundStatus string

const (
	RefundStatusNone    RefundStatus = "none"
	RefundStatusPartial RefundStatus = "partial"
	RefundStatusFull    RefundStatus = "full"
)

var validRefundStatuses = []RefundStatus{
	RefundStatusNone,
	RefundStatusPartial,
	RefundStatusFull,
}

func (r RefundStatus) IsValid() bool {
	return oneOf(r, validRefundStatuses)
}

// RefundType selects how a refund amount is derived.
type RefundType string

const (
	RefundTypeFull    RefundType = "full"
	RefundTypePartial RefundType = "partial"
)

var validRefundTypes = []RefundType{RefundTypeFull, RefundTypePartial}

func (r RefundType) IsValid() bool {
	return oneOf(r, validRefundTypes)
}

// ParseRefundType converts raw input into a RefundType.
func ParseRefundType(value string) (RefundType, error) {
	return parse("refund type", validRefundTypes, value)
}
