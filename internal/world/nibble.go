package world

// NibbleArray packs one 4-bit value per block, two per byte. It shares the
// flat block-array indexing, so len(bytes) == Volume/2.
type NibbleArray []byte

func NewNibbleArray() NibbleArray {
	return make(NibbleArray, Volume/2)
}

func (n NibbleArray) At(i int) uint8 {
	b := n[i>>1]
	if i&1 == 1 {
		return b >> 4
	}
	return b & 0xF
}

func (n NibbleArray) SetAt(i int, v uint8) {
	v &= 0xF
	if i&1 == 1 {
		n[i>>1] = n[i>>1]&0x0F | v<<4
	} else {
		n[i>>1] = n[i>>1]&0xF0 | v
	}
}

// Fill sets every entry to v.
func (n NibbleArray) Fill(v uint8) {
	v &= 0xF
	b := v | v<<4
	for i := range n {
		n[i] = b
	}
}
