package domain

// defaultFlagThreshold applies to every single-access ticket type.
const defaultFlagThreshold = 2

// flagThresholds lists the ticket types that tolerate more than one scan.
// Dual-access tickets cover two event phases and get one extra use.
var flagThresholds = map[TicketType]int{
	TicketTypeBalAndAfter:    3,
	TicketTypeBalAndAfterVIP: 3,
}

// FlagThreshold returns the verification count at or above which a ticket
// of this type is flagged as reused.
func FlagThreshold(t TicketType) int {
	if threshold, ok := flagThresholds[t]; ok {
		return threshold
	}
	return defaultFlagThreshold
}

// IsDualAccess reports whether the ticket type grants entry to two phases.
func IsDualAccess(t TicketType) bool {
	return FlagThreshold(t) > defaultFlagThreshold
}
