package game

// Action-space locations. A checker action encodes two sub-move sources;
// LocPass marks an unused die.
const (
	LocBar  = 0
	LocPass = 25

	numLocations = 26
)

// Checker actions occupy codes 1..676; the four cube actions follow in a
// fixed, reserved range. Consumers must treat all codes as opaque stable
// identifiers.
const (
	MinAction = 1
	MaxAction = numLocations * numLocations // 676

	// PassAction is the sole legal action when no checker move exists.
	PassAction = LocPass*numLocations + LocPass + 1 // 676

	ActionNoDouble = MaxAction + 1 // 677
	ActionDouble   = MaxAction + 2 // 678
	ActionTake     = MaxAction + 3 // 679
	ActionPass     = MaxAction + 4 // 680
)

// EncodeAction packs two sub-move locations into a single action code.
// For non-doubles rolls loc1 is the high-die move and loc2 the low-die
// move; play order is resolved at application time. The formula
// loc1*26+loc2+1 is a wire contract and must stay bit-exact.
func EncodeAction(loc1, loc2 int) int {
	return loc1*numLocations + loc2 + 1
}

// DecodeAction unpacks an action code into its two sub-move locations.
// It reports false for codes outside the checker-action range, including
// the cube actions.
func DecodeAction(code int) (loc1, loc2 int, ok bool) {
	if code < MinAction || code > MaxAction {
		return 0, 0, false
	}
	c := code - 1
	return c / numLocations, c % numLocations, true
}

// IsCubeAction reports whether the code belongs to the reserved cube range.
func IsCubeAction(code int) bool {
	return code >= ActionNoDouble && code <= ActionPass
}
