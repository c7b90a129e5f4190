package davcache

// Resource is one flat entry in a DavResources snapshot: a container
// or an item within one, named and parented for path construction.
type Resource struct {
	ID          uint32
	ParentID    uint32 // 0 for a root-level resource
	Name        string
	IsContainer bool
}

// Snapshot is the DavResources cache entry spec.md §4.9 describes: the
// flat resource list plus the hierarchical path namespace derived from
// it, stamped with the highest change id reflected so a subsequent
// fetch knows where to resume.
type Snapshot struct {
	Account    uint32
	Collection uint8

	Resources map[uint32]Resource
	Paths     map[uint32]string // resource id -> full path

	HighestChangeID uint64
}

func newSnapshot(account uint32, collection uint8) *Snapshot {
	return &Snapshot{
		Account:    account,
		Collection: collection,
		Resources:  make(map[uint32]Resource),
		Paths:      make(map[uint32]string),
	}
}

func (s *Snapshot) clone() *Snapshot {
	c := newSnapshot(s.Account, s.Collection)
	c.HighestChangeID = s.HighestChangeID
	for id, r := range s.Resources {
		c.Resources[id] = r
	}
	for id, p := range s.Paths {
		c.Paths[id] = p
	}
	return c
}
