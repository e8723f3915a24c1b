package metadata

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type returEntry struct {
	Description string `json:"beskrivelse"`
	Date        string `json:"dato"`
	Locked      bool   `json:"laast"`
}

func TestEncodeDecode_RoundTripSingleChunk(t *testing.T) {
	codec := NewCodec(100)
	in := []returEntry{{Description: "retur", Date: "2024-03-01", Locked: false}}

	pairs, err := codec.Encode("retur", in)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "retur0", pairs[0].Key)

	var out []returEntry
	found, err := codec.Decode("retur", pairs, &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in, out)
}

func TestEncodeDecode_RoundTripMultiChunk(t *testing.T) {
	codec := NewCodec(100)
	in := []returEntry{
		{Description: strings.Repeat("dokumentet kom i retur ", 4), Date: "2024-03-01"},
		{Description: strings.Repeat("ny distribusjon bestilt ", 4), Date: "2024-04-12", Locked: true},
		{Description: "manuell oppfoelging", Date: "2024-05-30"},
	}

	pairs, err := codec.Encode("retur", in)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(pairs), 2, "value must span multiple chunks")
	require.LessOrEqual(t, len(pairs), 4)
	for i, pair := range pairs {
		assert.LessOrEqual(t, utf8.RuneCountInString(pair.Value), 100, "chunk %d over limit", i)
	}

	var out []returEntry
	found, err := codec.Decode("retur", pairs, &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in, out)
}

func TestEncode_NeverSplitsMultiByteCharacters(t *testing.T) {
	codec := NewCodec(10)
	// Norwegian letters are two bytes in UTF-8; a byte-based split at an odd
	// boundary would corrupt them.
	in := strings.Repeat("æøå", 20)

	pairs, err := codec.Encode("adresse", in)
	require.NoError(t, err)

	for _, pair := range pairs {
		assert.True(t, utf8.ValidString(pair.Value), "chunk %q splits a rune", pair.Value)
		assert.LessOrEqual(t, utf8.RuneCountInString(pair.Value), 10)
	}

	var out string
	found, err := codec.Decode("adresse", pairs, &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in, out)
}

func TestDecode_OrdersChunksByNumericSuffix(t *testing.T) {
	codec := NewCodec(100)
	// Suffixes 10 and 2 sort numerically, not lexically.
	pairs := Pairs{
		{Key: "blob10", Value: `J"`},
		{Key: "blob0", Value: `"AB`},
		{Key: "blob2", Value: "CDEFGHI"},
	}

	var out string
	found, err := codec.Decode("blob", pairs, &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ABCDEFGHIJ", out)
}

func TestDecode_IgnoresFlagAndForeignKeys(t *testing.T) {
	codec := NewCodec(100)
	pairs := Pairs{
		{Key: "retur", Value: "true"},          // flag, no numeric suffix
		{Key: "returAdresse0", Value: "x"},     // different prefix family
		{Key: "annetFelt", Value: "ignorert"},  // unrelated
	}

	var out []returEntry
	found, err := codec.Decode("retur", pairs, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReplace_PreservesPositionOfFirstChunk(t *testing.T) {
	codec := NewCodec(100)
	pairs := Pairs{
		{Key: "originalBestilt", Value: "true"},
		{Key: "retur0", Value: `"gammel`},
		{Key: "retur1", Value: ` verdi"`},
		{Key: "distribusjonBestilt", Value: "false"},
	}

	out, err := codec.Replace("retur", pairs, "ny")
	require.NoError(t, err)

	require.Len(t, out, 3)
	assert.Equal(t, "originalBestilt", out[0].Key)
	assert.Equal(t, "retur0", out[1].Key)
	assert.Equal(t, `"ny"`, out[1].Value)
	assert.Equal(t, "distribusjonBestilt", out[2].Key)
}

func TestReplace_AppendsWhenPrefixAbsent(t *testing.T) {
	codec := NewCodec(100)
	pairs := Pairs{{Key: "originalBestilt", Value: "true"}}

	out, err := codec.Replace("retur", pairs, "foerste")
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, "retur0", out[1].Key)
}

func TestPairs_Flags(t *testing.T) {
	var pairs Pairs

	pairs = pairs.SetFlag("distribusjonBestilt", true)
	assert.True(t, pairs.HasFlag("distribusjonBestilt"))
	assert.False(t, pairs.HasFlag("originalBestilt"))

	pairs = pairs.SetFlag("distribusjonBestilt", false)
	assert.False(t, pairs.HasFlag("distribusjonBestilt"))
	assert.Len(t, pairs, 1, "flag updates replace in place")
}

func TestPairs_WithoutPrefix(t *testing.T) {
	pairs := Pairs{
		{Key: "distribusjonBestilt", Value: "true"},
		{Key: "distribuertAdresse0", Value: "a"},
		{Key: "distribuertAdresse1", Value: "b"},
		{Key: "retur0", Value: "x"},
	}

	out := pairs.WithoutPrefix("distribuertAdresse")
	require.Len(t, out, 2)
	assert.Equal(t, "distribusjonBestilt", out[0].Key)
	assert.Equal(t, "retur0", out[1].Key)
}
