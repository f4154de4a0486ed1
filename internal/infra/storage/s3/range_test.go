package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRange(t *testing.T) {
	tcs := []struct {
		name   string
		header string
		total  int64
		start  int64
		end    int64
		ok     bool
	}{
		{name: "Full", header: "", total: 100, ok: false},
		{name: "Bounded", header: "bytes=0-9", total: 100, start: 0, end: 9, ok: true},
		{name: "OpenEnd", header: "bytes=50-", total: 100, start: 50, end: 99, ok: true},
		{name: "Suffix", header: "bytes=-10", total: 100, start: 90, end: 99, ok: true},
		{name: "SuffixLargerThanObject", header: "bytes=-500", total: 100, start: 0, end: 99, ok: true},
		{name: "Inverted", header: "bytes=9-0", total: 100, ok: false},
		{name: "Garbage", header: "bytes=a-b", total: 100, ok: false},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			start, end, ok := parseRange(c.header, c.total)
			assert.Equal(t, c.ok, ok)
			if c.ok {
				assert.Equal(t, c.start, start)
				assert.Equal(t, c.end, end)
			}
		})
	}
}
