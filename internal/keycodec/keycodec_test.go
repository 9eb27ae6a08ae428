package keycodec

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPad(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    string
		wantErr error
	}{
		{name: "short", id: "5", want: "0000000005"},
		{name: "exact width", id: "1234567890", want: "1234567890"},
		{name: "leading zeros kept", id: "007", want: "0000000007"},
		{name: "too wide", id: "12345678901", wantErr: ErrIDTooWide},
		{name: "letters", id: "12a", wantErr: ErrNotNumeric},
		{name: "empty", id: "", wantErr: ErrNotNumeric},
		{name: "delimiter", id: "1:2", wantErr: ErrNotNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Pad(tt.id, Width)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]string{
		{"1", "1"},
		{"42", "7"},
		{"9999999999", "0"},
		{"300", "1234567"},
	}
	for _, fields := range cases {
		key, err := Encode(fields, []int{Width, Width})
		require.NoError(t, err)
		assert.Len(t, key, 2*Width+1)

		got, err := Decode(key, 2)
		require.NoError(t, err)
		assert.Equal(t, fields, got)
	}
}

func TestEncode_WidthMismatch(t *testing.T) {
	_, err := Encode([]string{"1", "2"}, []int{Width})
	require.Error(t, err)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode("0000000001", 2)
	require.ErrorIs(t, err, ErrMalformedKey)

	_, err = Decode("0000000001::", 2)
	require.ErrorIs(t, err, ErrMalformedKey)
}

func TestLexicalOrderMatchesNumericOrder(t *testing.T) {
	ids := []int{0, 1, 2, 9, 10, 11, 99, 100, 1000, 123456, 9999999999}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, err := Encode([]string{strconv.Itoa(ids[i])}, []int{Width})
			require.NoError(t, err)
			b, err := Encode([]string{strconv.Itoa(ids[j])}, []int{Width})
			require.NoError(t, err)
			assert.Less(t, a, b, "%d should sort before %d", ids[i], ids[j])
		}
	}

	// Without padding the orders diverge.
	assert.Greater(t, "9", "10")
}

func TestGameKeyAndPrefix(t *testing.T) {
	key, err := GameKey("5", "12")
	require.NoError(t, err)
	assert.Equal(t, "0000000005:0000000012", key)

	prefix, err := PrefixFor("5")
	require.NoError(t, err)
	assert.Equal(t, "0000000005:", prefix)
	assert.True(t, len(key) > len(prefix) && key[:len(prefix)] == prefix)

	other, err := GameKey("50", "1")
	require.NoError(t, err)
	assert.False(t, other[:len(prefix)] == prefix)
}

func TestRangeBounds(t *testing.T) {
	start, end, err := RangeBounds("3", "7")
	require.NoError(t, err)
	assert.Equal(t, "0000000003:0000000000", start)
	assert.Equal(t, "0000000007:0000000000", end)

	inRange, _ := GameKey("6", "99")
	lastGame, _ := GameKey("7", "1")
	assert.True(t, start <= inRange && inRange < end)
	assert.False(t, lastGame < end, "games of the last tourney fall outside the half-open range")

	_, _, err = RangeBounds("3", "12345678901")
	require.ErrorIs(t, err, ErrIDTooWide)
}

func TestTourneyOf(t *testing.T) {
	key, _ := GameKey("120", "4")
	tid, err := TourneyOf(key)
	require.NoError(t, err)
	assert.Equal(t, "120", tid)
}
