package proxy

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRoutesToSelectedEgress(t *testing.T) {
	router := NewRouter([]Rule{
		{SourceIDs: []string{"i"}, Matcher: mustMatcher(t, "f:example.com"), Dest: "e"},
	})
	connector := &fakeConnector{}
	egresses := map[string]*Egress{"e": {ID: "e", Connector: connector}}

	d := NewDispatcher(router, egresses)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	client, clientPeer := newStreamPair()
	d.Submit("i", ProxyRequest{Kind: ForwardTCP, Remote: NetLocation{Host: "example.com", Port: 443}, Client: client})

	require.Eventually(t, func() bool { return connector.peer != nil }, time.Second, time.Millisecond)

	_, err := clientPeer.Write([]byte("hi"))
	require.NoError(t, err)
	buf := make([]byte, 2)
	_, err = io.ReadFull(connector.peer, buf)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(buf))

	clientPeer.Close()
	connector.peer.Close()
}

func TestDispatcherClosesClientOnRoutingFailure(t *testing.T) {
	router := NewRouter(nil)
	d := NewDispatcher(router, map[string]*Egress{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	client, clientPeer := newStreamPair()
	d.Submit("i", ProxyRequest{Kind: ForwardTCP, Remote: NetLocation{Host: "example.com", Port: 443}, Client: client})

	buf := make([]byte, 1)
	_, err := clientPeer.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}
