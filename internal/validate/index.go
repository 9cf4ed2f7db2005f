package validate

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/quotaframe/internal/quota"
)

// idIndex interns ids as dense uint32 keys so id sets can be held in roaring
// bitmaps. One index lives for the duration of a single Validate call.
type idIndex struct {
	keys map[quota.ID]uint32
	ids  []quota.ID
}

func newIDIndex() *idIndex {
	return &idIndex{keys: make(map[quota.ID]uint32)}
}

func (x *idIndex) key(id quota.ID) uint32 {
	if k, ok := x.keys[id]; ok {
		return k
	}
	k := uint32(len(x.ids))
	x.keys[id] = k
	x.ids = append(x.ids, id)
	return k
}

func (x *idIndex) set(ids ...quota.ID) *roaring.Bitmap {
	bm := roaring.New()
	for _, id := range ids {
		bm.Add(x.key(id))
	}
	return bm
}

func (x *idIndex) resolve(bm *roaring.Bitmap) []string {
	out := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, x.ids[it.Next()].String())
	}
	return out
}

// uniqueSet records ids and reports the ones seen before.
type uniqueSet struct {
	index *idIndex
	seen  *roaring.Bitmap
}

func newUniqueSet(index *idIndex) *uniqueSet {
	return &uniqueSet{index: index, seen: roaring.New()}
}

// add returns false if id was already added.
func (u *uniqueSet) add(id quota.ID) bool {
	return u.seen.CheckedAdd(u.index.key(id))
}
