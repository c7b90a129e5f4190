package statemgr

// DataType is a bitmask identifying the kind of state a StateChange
// carries (mail, calendar, contacts, ...). The concrete bit
// assignments are a protocol-layer concern; this package only ever
// intersects masks, never names one.
type DataType uint32

// StateChange is one committed mutation projected to subscribers.
// Account is the account the change happened on; a subscriber
// watching a different account only sees it via a shared-account
// edge whose allowed-types mask intersects Type.
type StateChange struct {
	Account    uint32
	Collection uint8
	Type       DataType
	Payload    []byte
}
