// Package bvid converts between BV identifiers and AV numbers.
package bvid

import (
	"math/big"
	"strconv"

	"github.com/pkg/errors"
)

const (
	XorCode  int64 = 23442827791579
	MaskCode int64 = 2251799813685247
	MaxAid   int64 = 1 << 51
	Alphabet       = "FcwAPNKTMug3GV5Lj7EJnHpWsx4tb8haYeviqBz6rkCy12mUSDQX9RdoZf"
	Prefix         = "BV"
	AVPrefix       = "AV"
	Length         = 12
	Template       = "BV1000000000"
	PayloadStart   = 3
)

var (
	ErrInvalidIdentifier = errors.New("invalid BV identifier")
	ErrInvalidNumericID  = errors.New("invalid AV number")
	ErrNotFound          = errors.New("no BV identifier found")
)

var (
	swapIndices = [...][2]int{{3, 9}, {4, 7}}
	base        = big.NewInt(int64(len(Alphabet)))
	xorBig      = big.NewInt(XorCode)
	maskBig     = big.NewInt(MaskCode)
	maxAidBig   = big.NewInt(MaxAid)
	// 0xff 表示不在字母表中
	charIndex [256]byte
)

func init() {
	for i := range charIndex {
		charIndex[i] = 0xff
	}
	for i := 0; i < len(Alphabet); i++ {
		charIndex[Alphabet[i]] = byte(i)
	}
}

// Symbol returns the alphabet symbol for a digit value in [0, 58).
func Symbol(digit int) byte {
	return Alphabet[digit]
}

// Digit returns the value of symbol c and whether c is part of the alphabet.
func Digit(c byte) (int, bool) {
	v := charIndex[c]
	if v == 0xff {
		return 0, false
	}
	return int(v), true
}

// applySwaps is its own inverse.
func applySwaps(b []byte) {
	for _, s := range swapIndices {
		b[s[0]], b[s[1]] = b[s[1]], b[s[0]]
	}
}

// IsValid reports whether s is exactly "BV" followed by ten alphabet symbols.
func IsValid(s string) bool {
	if len(s) != Length || s[:len(Prefix)] != Prefix {
		return false
	}
	for i := len(Prefix); i < Length; i++ {
		if _, ok := Digit(s[i]); !ok {
			return false
		}
	}
	return true
}

// DecodeBig returns the AV number encoded by bvid.
func DecodeBig(bvid string) (*big.Int, error) {
	if !IsValid(bvid) {
		return nil, errors.Wrapf(ErrInvalidIdentifier, "decode %q", bvid)
	}
	b := []byte(bvid)
	applySwaps(b)

	acc := new(big.Int)
	d := new(big.Int)
	for _, c := range b[PayloadStart:] {
		v, _ := Digit(c)
		acc.Mul(acc, base)
		acc.Add(acc, d.SetInt64(int64(v)))
	}
	acc.And(acc, maskBig)
	return acc.Xor(acc, xorBig), nil
}

// Decode is DecodeBig for callers that want a plain integer. The result is
// masked to 51 bits so it always fits.
func Decode(bvid string) (int64, error) {
	n, err := DecodeBig(bvid)
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}

// EncodeBig returns the BV identifier for avid. Inputs wider than the 51 bit
// domain are accepted; only the low payload digits survive.
func EncodeBig(avid *big.Int) (string, error) {
	if avid == nil || avid.Sign() < 0 {
		return "", errors.Wrapf(ErrInvalidNumericID, "encode %v", avid)
	}
	b := []byte(Template)
	seed := new(big.Int).Or(maxAidBig, avid)
	seed.Xor(seed, xorBig)

	m := new(big.Int)
	for i := Length - 1; i >= PayloadStart && seed.Sign() > 0; i-- {
		seed.DivMod(seed, base, m)
		b[i] = Alphabet[m.Int64()]
	}
	applySwaps(b)
	return string(b), nil
}

// Encode is EncodeBig for int64 input.
func Encode(avid int64) (string, error) {
	if avid < 0 {
		return "", errors.Wrapf(ErrInvalidNumericID, "encode %d", avid)
	}
	return EncodeBig(big.NewInt(avid))
}

// FormatAV renders avid as "AV" plus its decimal digits.
func FormatAV(avid int64) string {
	return AVPrefix + strconv.FormatInt(avid, 10)
}

func FormatAVBig(avid *big.Int) string {
	return AVPrefix + avid.String()
}
