package aria2

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"
	"unicode"

	"github.com/jgivc/celty/internal/common"
	"github.com/jgivc/celty/internal/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type rpcCall struct {
	Method string
	Params []json.RawMessage
}

type fakeDaemon struct {
	mu     sync.Mutex
	calls  []rpcCall
	result func(method string) (any, *RPCError)
}

func (d *fakeDaemon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/jsonrpc" || r.Method != http.MethodPost {
		http.NotFound(w, r)

		return
	}

	var req struct {
		JSONRPC string            `json:"jsonrpc"`
		ID      string            `json:"id"`
		Method  string            `json:"method"`
		Params  []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	d.mu.Lock()
	d.calls = append(d.calls, rpcCall{Method: req.Method, Params: req.Params})
	d.mu.Unlock()

	result, rpcErr := d.result(req.Method)
	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if rpcErr != nil {
		resp["error"] = rpcErr
		w.WriteHeader(http.StatusBadRequest)
	} else {
		resp["result"] = result
	}

	_ = json.NewEncoder(w).Encode(resp)
}

func okResults(method string) (any, *RPCError) {
	switch method {
	case methodAddTorrent:
		return "2089b05ecca3d829", nil
	case methodGetVersion:
		return map[string]any{"version": "1.37.0", "enabledFeatures": []string{"BitTorrent"}}, nil
	}

	return "OK", nil
}

func newTestClient(t *testing.T, daemon http.Handler, secret string) (*Client, afero.Fs) {
	t.Helper()

	srv := httptest.NewServer(daemon)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)

	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	cl, err := NewClient(&config.Aria2Config{
		Host:        host,
		Port:        port,
		UseSecret:   secret != "",
		FixedSecret: secret,
		Timeout:     time.Second,
	}, fs, log)
	require.NoError(t, err)

	return cl, fs
}

func decodeParam[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(raw, &v))

	return v
}

func TestAddTorrent(t *testing.T) {
	daemon := &fakeDaemon{result: okResults}
	cl, fs := newTestClient(t, daemon, "ABCDEF")

	content := []byte("d8:announce3:urle")
	require.NoError(t, afero.WriteFile(fs, "/watch/nisemono.torrent", content, 0o644))

	gid, err := cl.AddTorrent(context.Background(), "/watch/nisemono.torrent", Options{
		OptionDir:      "/srv/anime",
		OptionSeedTime: SeedTimeOption(10 * time.Minute),
	})
	require.NoError(t, err)
	require.Equal(t, "2089b05ecca3d829", gid)

	require.Len(t, daemon.calls, 1)
	call := daemon.calls[0]
	require.Equal(t, methodAddTorrent, call.Method)
	require.Len(t, call.Params, 4)
	require.Equal(t, "token:ABCDEF", decodeParam[string](t, call.Params[0]))
	require.Equal(t, base64.StdEncoding.EncodeToString(content), decodeParam[string](t, call.Params[1]))
	require.Empty(t, decodeParam[[]string](t, call.Params[2]))
	require.Equal(t, map[string]string{"dir": "/srv/anime", "seed-time": "10"}, decodeParam[map[string]string](t, call.Params[3]))
}

func TestAddTorrentMissingFile(t *testing.T) {
	daemon := &fakeDaemon{result: okResults}
	cl, _ := newTestClient(t, daemon, "")

	_, err := cl.AddTorrent(context.Background(), "/watch/missing.torrent", Options{})
	require.Error(t, err)
	require.Empty(t, daemon.calls)
}

func TestChangeGlobalOptionWithoutSecret(t *testing.T) {
	daemon := &fakeDaemon{result: okResults}
	cl, _ := newTestClient(t, daemon, "")

	err := cl.ChangeGlobalOption(context.Background(), Options{
		OptionMaxConcurrentDownloads: "2",
		OptionCheckIntegrity:         BoolOption(true),
	})
	require.NoError(t, err)

	require.Len(t, daemon.calls, 1)
	require.Equal(t, methodChangeGlobalOption, daemon.calls[0].Method)
	require.Len(t, daemon.calls[0].Params, 1)
	require.Equal(t, map[string]string{"max-concurrent-downloads": "2", "check-integrity": "true"},
		decodeParam[map[string]string](t, daemon.calls[0].Params[0]))
}

func TestShutdown(t *testing.T) {
	daemon := &fakeDaemon{result: okResults}
	cl, _ := newTestClient(t, daemon, "ABCDEF")

	require.NoError(t, cl.Shutdown(context.Background()))
	require.Len(t, daemon.calls, 1)
	require.Equal(t, methodShutdown, daemon.calls[0].Method)
	require.Len(t, daemon.calls[0].Params, 1)
}

func TestVersion(t *testing.T) {
	cl, _ := newTestClient(t, &fakeDaemon{result: okResults}, "")

	info, err := cl.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1.37.0", info.Version)
	require.Equal(t, []string{"BitTorrent"}, info.EnabledFeatures)
}

func TestRPCError(t *testing.T) {
	daemon := &fakeDaemon{result: func(string) (any, *RPCError) {
		return nil, &RPCError{Code: 1, Message: "Unauthorized"}
	}}
	cl, _ := newTestClient(t, daemon, "wrong")

	err := cl.Shutdown(context.Background())
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, 1, rpcErr.Code)
	require.Equal(t, "Unauthorized", rpcErr.Message)
}

func TestDaemonUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	srv.Close()

	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	cl, err := NewClient(&config.Aria2Config{Host: host, Port: port, Timeout: time.Second}, afero.NewMemMapFs(), log)
	require.NoError(t, err)

	err = cl.Shutdown(context.Background())
	require.ErrorIs(t, err, common.ErrDaemonUnavailable)
}

func TestNewClientRequiresSecret(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	_, err := NewClient(&config.Aria2Config{Host: "localhost", Port: 6800, UseSecret: true}, afero.NewMemMapFs(), log)
	require.ErrorIs(t, err, common.ErrMalformedConfig)
}

func TestSeedTimeOption(t *testing.T) {
	require.Equal(t, "0", SeedTimeOption(0))
	require.Equal(t, "10", SeedTimeOption(600*time.Second))
	require.Equal(t, "1.5", SeedTimeOption(90*time.Second))
	require.Equal(t, "60", SeedTimeOption(time.Hour))
}

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)
	require.Len(t, secret, 15)

	for _, r := range secret {
		require.True(t, r < unicode.MaxASCII && unicode.IsLetter(r), "unexpected rune %q", r)
	}

	other, err := GenerateSecret()
	require.NoError(t, err)
	require.NotEqual(t, secret, other)
}
