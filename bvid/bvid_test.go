package bvid

import (
	"math/big"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var knownPairs = []struct {
	bvid string
	aid  int64
}{
	{"BV1xx411c7mD", 2},
	{"BV17x411w7KC", 170001},
	{"BV1L9Uoa9EUx", 111298867365120},
	{"BV1Qop4zBEin", 115219577766105},
	{"BV1wbn9zdE53", 115281032781556},
	{"BV1xx411c7mX", 0},
	{"BV1aPPTfmvQq", MaxAid - 1},
}

func TestAlphabet(t *testing.T) {
	require.Len(t, Alphabet, 58)
	seen := make(map[byte]bool)
	for i := 0; i < len(Alphabet); i++ {
		c := Alphabet[i]
		require.False(t, seen[c], "duplicate symbol %q", c)
		seen[c] = true

		d, ok := Digit(c)
		require.True(t, ok)
		assert.Equal(t, i, d)
		assert.Equal(t, c, Symbol(d))
	}
	for _, c := range []byte{'0', 'I', 'O', 'l', '-', ' ', 0xff} {
		_, ok := Digit(c)
		assert.False(t, ok, "%q should not be a symbol", c)
	}
}

func TestSwapsAreInvolution(t *testing.T) {
	b := []byte("BV1234567890")
	applySwaps(b)
	assert.Equal(t, "BV1864537290", string(b))
	applySwaps(b)
	assert.Equal(t, "BV1234567890", string(b))
}

func TestDecode(t *testing.T) {
	for _, p := range knownPairs {
		aid, err := Decode(p.bvid)
		require.NoError(t, err, p.bvid)
		assert.Equal(t, p.aid, aid, p.bvid)

		n, err := DecodeBig(p.bvid)
		require.NoError(t, err)
		assert.Zero(t, big.NewInt(p.aid).Cmp(n), p.bvid)
	}
}

func TestEncode(t *testing.T) {
	for _, p := range knownPairs {
		id, err := Encode(p.aid)
		require.NoError(t, err)
		assert.Equal(t, p.bvid, id, "aid %d", p.aid)
	}
}

func TestEncodeZeroIsValid(t *testing.T) {
	id, err := Encode(0)
	require.NoError(t, err)
	assert.Len(t, id, Length)
	assert.True(t, IsValid(id))
}

func TestEncodeRejectsNegative(t *testing.T) {
	_, err := Encode(-1)
	assert.True(t, errors.Is(err, ErrInvalidNumericID))

	_, err = EncodeBig(big.NewInt(-42))
	assert.True(t, errors.Is(err, ErrInvalidNumericID))

	_, err = EncodeBig(nil)
	assert.True(t, errors.Is(err, ErrInvalidNumericID))
}

func TestEncodeWideInput(t *testing.T) {
	// 高位被掩码丢弃，结果仍是合法标识
	wide, ok := new(big.Int).SetString("100000000000000000000", 10)
	require.True(t, ok)
	id, err := EncodeBig(wide)
	require.NoError(t, err)
	assert.Equal(t, "BV1PJHEv6bJR", id)
	assert.True(t, IsValid(id))
	assert.True(t, strings.HasPrefix(id, "BV1"))

	// 2^51 与 0 只差被 OR 掉的那一位
	id, err = Encode(MaxAid)
	require.NoError(t, err)
	assert.Equal(t, "BV1xx411c7mX", id)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	for _, s := range []string{
		"",
		"BV1xx411c7m",
		"BV1xx411c7mDD",
		"bv1xx411c7mD",
		"AV1xx411c7mD",
		"BV1xx411c7m0",
		"BV1xx411c7mI",
		"BV1xx411c7m-",
	} {
		_, err := Decode(s)
		assert.True(t, errors.Is(err, ErrInvalidIdentifier), "%q", s)
	}
}

func TestRoundTripKnown(t *testing.T) {
	for _, p := range knownPairs {
		aid, err := Decode(p.bvid)
		require.NoError(t, err)
		id, err := Encode(aid)
		require.NoError(t, err)
		assert.Equal(t, p.bvid, id)
	}
}

func TestRoundTripSampled(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		aid := r.Int63n(MaxAid)
		id, err := Encode(aid)
		require.NoError(t, err)
		require.True(t, IsValid(id), id)

		back, err := Decode(id)
		require.NoError(t, err)
		require.Equal(t, aid, back)

		again, err := Encode(back)
		require.NoError(t, err)
		require.Equal(t, id, again)
	}
}

func TestDeterministicAndConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				for _, p := range knownPairs {
					aid, err := Decode(p.bvid)
					if err != nil || aid != p.aid {
						t.Errorf("decode %s = %d, %v", p.bvid, aid, err)
						return
					}
					id, err := Encode(p.aid)
					if err != nil || id != p.bvid {
						t.Errorf("encode %d = %s, %v", p.aid, id, err)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}

func TestFormatAV(t *testing.T) {
	assert.Equal(t, "AV170001", FormatAV(170001))
	assert.Equal(t, "AV0", FormatAV(0))
	assert.Equal(t, "AV111298867365120", FormatAVBig(big.NewInt(111298867365120)))
}
