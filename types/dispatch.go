package types

// DispatchClass is the class of a dispatched call.
type DispatchClass uint8

const (
	DispatchNormal DispatchClass = iota
	DispatchOperational
	DispatchMandatory
)

// Pays says whether the dispatch pays a fee.
type Pays uint8

const (
	PaysYes Pays = iota
	PaysNo
)

// DispatchInfo is the weight information declared for a call
// before it is dispatched.
type DispatchInfo struct {
	Weight  Weight        `cramberry:"1"`
	Class   DispatchClass `cramberry:"2"`
	PaysFee Pays          `cramberry:"3"`
}

// PostDispatchInfo is the weight information reported by a call
// after it has been dispatched.
type PostDispatchInfo struct {
	// Actual weight consumed. Nil = the declared weight.
	ActualWeight *Weight `cramberry:"1"`
	PaysFee      Pays    `cramberry:"2"`
}

// CalcActualWeight returns the consumed weight, never more than
// the declared weight.
func (p PostDispatchInfo) CalcActualWeight(info DispatchInfo) Weight {
	if p.ActualWeight == nil || *p.ActualWeight > info.Weight {
		return info.Weight
	}
	return *p.ActualWeight
}

// Pays returns PaysNo if either the declared or the reported
// info waives the fee.
func (p PostDispatchInfo) Pays(info DispatchInfo) Pays {
	if info.PaysFee == PaysNo || p.PaysFee == PaysNo {
		return PaysNo
	}
	return PaysYes
}
