package biosimd

var revComp8Table = [256]byte{
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'T', 'N', 'G', 'N', 'N', 'N', 'C', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'A', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 't', 'N', 'g', 'N', 'N', 'N', 'c', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'a', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N'}

// ReverseComp8NoValidate writes the reverse complement of src to dst, assuming
// every byte is in {'A','C','G','T','N','a','c','g','t','n'}.  Bytes outside
// that set become 'N'.
func ReverseComp8NoValidate(dst, src []byte) {
	nByte := len(src)
	if len(dst) != nByte {
		panic("ReverseComp8NoValidate requires len(dst) == len(src)")
	}
	for i, j := 0, nByte-1; i < nByte; i, j = i+1, j-1 {
		dst[i] = revComp8Table[src[j]]
	}
}

// ReverseComp8InplaceNoValidate is the in-place form of ReverseComp8NoValidate.
func ReverseComp8InplaceNoValidate(ascii8 []byte) {
	n := len(ascii8)
	half := n >> 1
	for i, j := 0, n-1; i != half; i, j = i+1, j-1 {
		ascii8[i], ascii8[j] = revComp8Table[ascii8[j]], revComp8Table[ascii8[i]]
	}
	if n&1 == 1 {
		ascii8[half] = revComp8Table[ascii8[half]]
	}
}

var isNotACGTTable = [256]bool{}

func init() {
	for _, b := range []byte("ACGTacgt") {
		isNotACGTTable[b] = false
	}
	for i := range isNotACGTTable {
		isNotACGTTable[i] = true
	}
	for _, b := range []byte("ACGTacgt") {
		isNotACGTTable[b] = false
	}
}

// IsNonACGTPresent returns true iff ascii8 contains a byte outside
// {A,C,G,T,a,c,g,t}.
func IsNonACGTPresent(ascii8 []byte) bool {
	for _, b := range ascii8 {
		if isNotACGTTable[b] {
			return true
		}
	}
	return false
}

var cleanASCIISeqTable = [256]byte{}

func init() {
	for i := range cleanASCIISeqTable {
		cleanASCIISeqTable[i] = 'N'
	}
	for _, p := range [][2]byte{{'A', 'A'}, {'a', 'A'}, {'C', 'C'}, {'c', 'C'}, {'G', 'G'}, {'g', 'G'}, {'T', 'T'}, {'t', 'T'}} {
		cleanASCIISeqTable[p[0]] = p[1]
	}
}

// CleanASCIISeqInplace capitalizes 'a'/'c'/'g'/'t' and replaces everything
// else with 'N'.
func CleanASCIISeqInplace(ascii8 []byte) {
	for i, b := range ascii8 {
		ascii8[i] = cleanASCIISeqTable[b]
	}
}
