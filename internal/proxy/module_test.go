package proxy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerneld-io/kerneld/internal/kernel"
	"github.com/kerneld-io/kerneld/internal/proxy/transport"
)

func TestModuleEarlyInitRegistersBuilt(t *testing.T) {
	inj := kernel.New()
	m := &Module{Config: testConfig(t)}
	require.NoError(t, m.EarlyInit(context.Background(), inj))

	built, err := kernel.Get[*Built](context.Background(), inj)
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, s := range built.Servers {
			if srv, ok := s.(*Server); ok {
				srv.Acceptor.(*transport.TCPAcceptor).Close()
			}
		}
	})
	assert.Contains(t, built.Egresses, "direct")
}

func TestModuleEarlyInitFailsOnBadConfig(t *testing.T) {
	inj := kernel.New()
	cfg := testConfig(t)
	cfg.Egress[0].Transport = "nope"
	m := &Module{Config: cfg}
	assert.Error(t, m.EarlyInit(context.Background(), inj))
}

func TestModuleInitStartsWithoutError(t *testing.T) {
	inj := kernel.New()
	m := &Module{Config: testConfig(t)}
	require.NoError(t, m.EarlyInit(context.Background(), inj))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Init(ctx, inj))

	built, err := kernel.Get[*Built](context.Background(), inj)
	require.NoError(t, err)
	cancel()
	for _, s := range built.Servers {
		if srv, ok := s.(*Server); ok {
			srv.Acceptor.(*transport.TCPAcceptor).Close()
		}
	}
}
