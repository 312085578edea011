package partition_graph

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
)

// Hash is a deterministic fnv digest of the snapshot. Snapshots are already
// canonically ordered, so equal structures hash equally regardless of the
// partition ids that produced them.
func (s Snapshot) Hash() uint64 {
	h := fnv.New64a()

	writeInt(h, len(s.Partitions))
	for _, p := range s.Partitions {
		writeString(h, p.Type)
		writeInt(h, len(p.Occurrences))
		for _, o := range p.Occurrences {
			writeInt(h, o)
		}
	}

	writeInt(h, len(s.Transitions))
	for _, t := range s.Transitions {
		writeInt(h, t.From)
		writeInt(h, t.To)
		writeInt(h, t.Weight)
		for _, tid := range t.Traces {
			writeInt(h, tid)
		}
		writeString(h, "")
	}
	return h.Sum64()
}

func writeInt(h hash.Hash64, v int) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, _ = h.Write(buf[:])
}

func writeString(h hash.Hash64, s string) {
	_, _ = h.Write([]byte(s))
	_, _ = h.Write([]byte{0}) // separator
}
