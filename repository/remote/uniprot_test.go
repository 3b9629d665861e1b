package remote

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"net"
	"testing"
	"time"
)

func startServer(t *testing.T, handler fasthttp.RequestHandler) *UniProtClient {
	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: handler}
	go func() {
		_ = server.Serve(ln)
	}()
	t.Cleanup(func() {
		_ = ln.Close()
	})

	client := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) {
			return ln.Dial()
		},
	}
	return NewUniProtClientWith(&Config{
		EntryURL: "http://uniprot.test/uniprotkb/%s.txt",
		Timeout:  5 * time.Second,
	}, client)
}

func TestFetchEntry(t *testing.T) {
	client := startServer(t, func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/uniprotkb/P12345.txt":
			ctx.SetBodyString("ID   AATM_RABIT\n//\n")
		case "/uniprotkb/P00000.txt":
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		case "/uniprotkb/Q00000.txt":
			ctx.SetStatusCode(fasthttp.StatusOK)
		default:
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		}
	})
	ctx := context.Background()

	body, err := client.FetchEntry(ctx, "P12345")
	require.Nil(t, err)
	assert.Equal(t, "ID   AATM_RABIT\n//\n", string(body))

	_, err = client.FetchEntry(ctx, "P00000")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = client.FetchEntry(ctx, "Q00000")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = client.FetchEntry(ctx, "A00000")
	require.NotNil(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestFetchEntry_Canceled(t *testing.T) {
	client := startServer(t, func(ctx *fasthttp.RequestCtx) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchEntry(ctx, "P12345")
	assert.True(t, errors.Is(err, context.Canceled))
}
