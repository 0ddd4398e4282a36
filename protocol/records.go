package protocol

// Records is a batch of TLV records, the unit the snapshot store
// moves node state around in.
type Records [][]byte

func (recs Records) TotalLen() (total int64) {
	for _, r := range recs {
		total += int64(len(r))
	}
	return
}
