package aria2

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jgivc/celty/internal/common"
	"github.com/jgivc/celty/internal/config"
	"github.com/spf13/afero"
)

const (
	OptionDir                    = "dir"
	OptionSeedTime               = "seed-time"
	OptionMaxConcurrentDownloads = "max-concurrent-downloads"
	OptionCheckIntegrity         = "check-integrity"

	methodAddTorrent         = "aria2.addTorrent"
	methodChangeGlobalOption = "aria2.changeGlobalOption"
	methodShutdown           = "aria2.shutdown"
	methodGetVersion         = "aria2.getVersion"

	jsonRPCVersion = "2.0"
	tokenPrefix    = "token:"
	resultOK       = "OK"

	maxResponseSize = 1 << 20
)

// Options are aria2 options. aria2 takes every option value as a string.
type Options map[string]string

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("aria2 error %d: %s", e.Code, e.Message)
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

type VersionInfo struct {
	Version         string   `json:"version"`
	EnabledFeatures []string `json:"enabledFeatures"`
}

type Client struct {
	url     string
	secret  string
	timeout time.Duration
	cl      *http.Client
	fs      afero.Fs
	log     *slog.Logger
}

func NewClient(cfg *config.Aria2Config, fs afero.Fs, log *slog.Logger) (*Client, error) {
	c := &Client{
		url:     cfg.URL(),
		timeout: cfg.Timeout,
		cl:      &http.Client{},
		fs:      fs,
		log:     log.With(slog.String("item", "Aria2Client")),
	}

	if cfg.UseSecret {
		if cfg.FixedSecret == "" {
			return nil, fmt.Errorf("%w: aria2.useSecret is set but no secret is configured, set aria2.fixedSecret or %s",
				common.ErrMalformedConfig, config.EnvRPCSecret)
		}

		c.secret = cfg.FixedSecret
	}

	return c, nil
}

// AddTorrent uploads the torrent file at path and returns its GID.
func (c *Client) AddTorrent(ctx context.Context, path string, opts Options) (string, error) {
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return "", fmt.Errorf("cannot read torrent file %s: %w", path, err)
	}

	var gid string
	if err := c.call(ctx, methodAddTorrent, []any{base64.StdEncoding.EncodeToString(data), []string{}, opts}, &gid); err != nil {
		return "", fmt.Errorf("cannot add torrent %s: %w", path, err)
	}

	return gid, nil
}

func (c *Client) ChangeGlobalOption(ctx context.Context, opts Options) error {
	var result string
	if err := c.call(ctx, methodChangeGlobalOption, []any{opts}, &result); err != nil {
		return fmt.Errorf("cannot change global options: %w", err)
	}

	if result != resultOK {
		return fmt.Errorf("cannot change global options: unexpected result %q", result)
	}

	return nil
}

func (c *Client) Shutdown(ctx context.Context) error {
	var result string
	if err := c.call(ctx, methodShutdown, nil, &result); err != nil {
		return fmt.Errorf("cannot shutdown daemon: %w", err)
	}

	return nil
}

func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	var info VersionInfo
	if err := c.call(ctx, methodGetVersion, nil, &info); err != nil {
		return nil, fmt.Errorf("cannot get daemon version: %w", err)
	}

	return &info, nil
}

func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	if c.secret != "" {
		params = append([]any{tokenPrefix + c.secret}, params...)
	}

	if params == nil {
		params = []any{}
	}

	req := request{
		JSONRPC: jsonRPCVersion,
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(&req)
	if err != nil {
		return fmt.Errorf("cannot marshal request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("cannot create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log := c.log.With(slog.String("method", method), slog.String("id", req.ID))
	log.Debug("Call")

	resp, err := c.cl.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrDaemonUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("cannot read response: %w", err)
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		return fmt.Errorf("cannot unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		log.Error("Daemon returned an error", slog.Int("code", rpcResp.Error.Code), slog.String("message", rpcResp.Error.Message))

		return rpcResp.Error
	}

	if rpcResp.ID != req.ID {
		return fmt.Errorf("response id %q does not match request id %q", rpcResp.ID, req.ID)
	}

	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("cannot unmarshal result: %w", err)
		}
	}

	return nil
}

// SeedTimeOption renders d as the value of the seed-time option, which aria2
// reads in minutes.
func SeedTimeOption(d time.Duration) string {
	return strconv.FormatFloat(d.Minutes(), 'f', -1, 64)
}

func BoolOption(b bool) string {
	return strconv.FormatBool(b)
}
