package proxy

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerneld-io/kerneld/internal/proxy/transport"
)

type fakeConnector struct {
	peer *duplexStream
}

func (f *fakeConnector) Connect(ctx context.Context) (transport.Stream, error) {
	stream, peer := newStreamPair()
	f.peer = peer
	return stream, nil
}

func (f *fakeConnector) Close() error { return nil }

func TestEgressSendRelaysAndAccumulatesCounters(t *testing.T) {
	connector := &fakeConnector{}
	egress := &Egress{ID: "e", Connector: connector}

	client, clientPeer := newStreamPair()

	done := make(chan struct{})
	go func() {
		_, _, err := egress.Send(context.Background(), ProxyRequest{Kind: ForwardTCP, Client: client})
		assert.NoError(t, err)
		close(done)
	}()

	// Give Send a moment to call Connect and populate connector.peer.
	require.Eventually(t, func() bool { return connector.peer != nil }, time.Second, time.Millisecond)

	_, err := clientPeer.Write([]byte("hello"))
	require.NoError(t, err)
	buf := make([]byte, 5)
	_, err = io.ReadFull(connector.peer, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	clientPeer.Close()
	connector.peer.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected Send to return once the transfer finished")
	}

	snap := egress.Snapshot()
	assert.Equal(t, int64(5), snap.Tx)
}
