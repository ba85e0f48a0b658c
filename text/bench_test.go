package text

import (
	"strings"
	"testing"
)

func BenchmarkClassify(b *testing.B) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "Stored",
			input: "STORED\r\n",
		},
		{
			name:  "Counter",
			input: "18446744073709551615\r\n",
		},
		{
			name:  "Version",
			input: "VERSION 1.6.21\r\n",
		},
		{
			name:  "ServerError",
			input: "SERVER_ERROR out of memory storing object\r\n",
		},
		{
			name:  "SmallValue",
			input: "VALUE key 0 5\r\nhello\r\nEND\r\n",
		},
		{
			name:  "MediumValue",
			input: "VALUE key 0 1024 42\r\n" + strings.Repeat("x", 1024) + "\r\nEND\r\n",
		},
		{
			name:  "LargeValue",
			input: "VALUE key 0 102400 42\r\n" + strings.Repeat("x", 100*1024) + "\r\nEND\r\n",
		},
		{
			name:  "ValueWithManyLines",
			input: "VALUE key 0 1198\r\n" + strings.Repeat("0123456789\r\n", 99) + "0123456789\r\nEND\r\n",
		},
		{
			name:  "PartialValue",
			input: "VALUE key 0 1024\r\n" + strings.Repeat("x", 512) + "\r\n",
		},
	}

	for _, tt := range tests {
		buf := []byte(tt.input)
		b.Run(tt.name, func(b *testing.B) {
			b.SetBytes(int64(len(buf)))
			for b.Loop() {
				Classify(buf)
			}
		})
	}
}

func BenchmarkParseValue(b *testing.B) {
	buf := []byte("VALUE key 0 1024 42\r\n" + strings.Repeat("x", 1024) + "\r\nEND\r\n")

	for b.Loop() {
		if _, err := ParseValue(buf); err != nil {
			b.Fatal(err)
		}
	}
}
