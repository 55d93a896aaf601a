package record

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"simple", "key1", "value1"},
		{"empty value", "key", ""},
		{"embedded quotes", `he said "hi"`, `she said "bye"`},
		{"newlines", "line1\nline2", "a\nb\r\nc"},
		{"unicode", "ключ-鍵-🔑", "значение-値-💾"},
		{"json-looking value", "k", `{"command":"Rm","key":"x"}`},
		{"control characters", "tab\tkey", "bell\x07value"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Encode(NewSet(tc.key, tc.value))
			require.NoError(t, err)

			cmd, err := DecodeOne(data)
			require.NoError(t, err)
			require.True(t, cmd.IsSet())
			require.Equal(t, tc.key, cmd.Key)
			require.Equal(t, tc.value, cmd.Value)
		})
	}
}

func TestEncodeRemoveRoundTrip(t *testing.T) {
	data, err := Encode(NewRemove("some-key"))
	require.NoError(t, err)

	cmd, err := DecodeOne(data)
	require.NoError(t, err)
	require.True(t, cmd.IsRemove())
	require.False(t, cmd.IsSet())
	require.Equal(t, "some-key", cmd.Key)
}

func TestDecodeOneRejectsUnknownTag(t *testing.T) {
	_, err := DecodeOne([]byte(`{"command":"Compact","key":"k"}`))
	require.Error(t, err)
}

func TestDecoderStreamsBackToBackRecords(t *testing.T) {
	records := []Command{
		NewSet("a", "1"),
		NewRemove("a"),
		NewSet("b", "two"),
		NewSet("寿司", "🍣"),
	}

	// Concatenate with no separators, as the append path does.
	var buf bytes.Buffer
	var lengths []int64
	for _, r := range records {
		data, err := Encode(r)
		require.NoError(t, err)
		buf.Write(data)
		lengths = append(lengths, int64(len(data)))
	}

	decoder := NewDecoder(bytes.NewReader(buf.Bytes()))

	var prev int64
	for i, want := range records {
		cmd, after, err := decoder.Next()
		require.NoError(t, err)
		require.Equal(t, want, cmd)

		// The reported boundary is exactly the end of the encoded record.
		require.Equal(t, prev+lengths[i], after, "record %d boundary", i)
		prev = after
	}

	_, _, err := decoder.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestDecoderFailsOnTornTail(t *testing.T) {
	whole, err := Encode(NewSet("k", "v"))
	require.NoError(t, err)
	torn, err := Encode(NewSet("other", strings.Repeat("x", 64)))
	require.NoError(t, err)

	// A crash mid-append leaves a prefix of the final record.
	input := append(append([]byte{}, whole...), torn[:len(torn)/2]...)
	decoder := NewDecoder(bytes.NewReader(input))

	cmd, after, err := decoder.Next()
	require.NoError(t, err)
	require.Equal(t, "k", cmd.Key)
	require.Equal(t, int64(len(whole)), after)

	_, _, err = decoder.Next()
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
}

func TestDecoderFailsOnGarbage(t *testing.T) {
	decoder := NewDecoder(strings.NewReader("not json at all"))
	_, _, err := decoder.Next()
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
}
