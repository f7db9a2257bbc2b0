package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wkalt/distplan/util"
)

func TestGroupBy(t *testing.T) {
	type edge struct{ from, to int64 }
	edges := []edge{{0, 2}, {1, 2}, {0, 3}, {2, 3}}
	groups := util.GroupBy(edges, func(e edge) int64 { return e.from })
	assert.Equal(t, map[int64][]edge{
		0: {{0, 2}, {0, 3}},
		1: {{1, 2}},
		2: {{2, 3}},
	}, groups)
}

func TestOkeys(t *testing.T) {
	m := map[string]int64{"kelvin": 2, "pem-1": 0, "pem-2": 1}
	for i := 0; i < 100; i++ {
		assert.Equal(t, []string{"kelvin", "pem-1", "pem-2"}, util.Okeys(m))
	}
}

func TestHumanBytes(t *testing.T) {
	cases := []struct {
		assertion string
		input     uint64
		expected  string
	}{
		{"0 bytes", 0, "0 B"},
		{"50 bytes", 50, "50 B"},
		{"just under a kilobyte", 1023, "1023 B"},
		{"1 kilobyte", 1024, "1 KB"},
		{"1 megabyte", 1024 * 1024, "1 MB"},
		{"50 gigabytes", 50 * 1024 * 1024 * 1024, "50 GB"},
		{"1 exabyte", 1024 * 1024 * 1024 * 1024 * 1024 * 1024, "1 EB"},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, util.HumanBytes(c.input), c.assertion)
	}
}

func TestWhen(t *testing.T) {
	cases := []struct {
		assertion string
		cond      bool
		a         string
		b         string
		expected  string
	}{
		{"true", true, "agent", "kelvin", "agent"},
		{"false", false, "agent", "kelvin", "kelvin"},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, util.When(c.cond, c.a, c.b), c.assertion)
	}
}
