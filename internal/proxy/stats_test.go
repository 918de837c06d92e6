package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsSnapshotsEveryEgress(t *testing.T) {
	a := &Egress{ID: "a"}
	a.counters.add(10, 20)
	b := &Egress{ID: "b"}
	b.counters.add(1, 2)

	snaps := Stats(map[string]*Egress{"a": a, "b": b})
	byID := map[string]Snapshot{}
	for _, s := range snaps {
		byID[s.EgressID] = s
	}

	assert.Equal(t, int64(10), byID["a"].Tx)
	assert.Equal(t, int64(20), byID["a"].Rx)
	assert.Equal(t, int64(1), byID["b"].Tx)
	assert.Equal(t, int64(2), byID["b"].Rx)
}
