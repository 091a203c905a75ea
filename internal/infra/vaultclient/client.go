package vaultclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrCheckAndSetConflict reports that a conditional write lost to a
// concurrent writer. Callers provisioning keys treat it as "someone else
// already created this", not as a failure.
var ErrCheckAndSetConflict = errors.New("vault check-and-set conflict")

var ErrSecretNotFound = errors.New("vault secret not found")

type Client struct {
	addr       string
	token      string
	httpClient *http.Client
}

func New(addr, token string) *Client {
	return &Client{
		addr:       strings.TrimRight(addr, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) ReadKV(ctx context.Context, path string, out any) error {
	if err := c.check(path); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.addr+"/v1/"+strings.TrimLeft(path, "/"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Vault-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrSecretNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vault read failed: status %d", resp.StatusCode)
	}

	var envelope struct {
		Data struct {
			Data json.RawMessage `json:"data"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return err
	}
	if len(envelope.Data.Data) == 0 {
		return ErrSecretNotFound
	}
	return json.Unmarshal(envelope.Data.Data, out)
}

// WriteKV writes unconditionally (KV v2 data envelope).
func (c *Client) WriteKV(ctx context.Context, path string, payload any) error {
	return c.write(ctx, path, map[string]any{"data": payload})
}

// WriteKVWithCAS writes only if the secret's current version equals cas.
// cas=0 means "create only if absent", which is how concurrent first-time
// key provisioning stays safe without a lock.
func (c *Client) WriteKVWithCAS(ctx context.Context, path string, payload any, cas int) error {
	return c.write(ctx, path, map[string]any{
		"data":    payload,
		"options": map[string]any{"cas": cas},
	})
}

func (c *Client) write(ctx context.Context, path string, envelope map[string]any) error {
	if err := c.check(path); err != nil {
		return err
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.addr+"/v1/"+strings.TrimLeft(path, "/"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("X-Vault-Token", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		if strings.Contains(string(raw), "check-and-set") {
			return ErrCheckAndSetConflict
		}
		return fmt.Errorf("vault write failed: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("vault write failed: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) DeleteKV(ctx context.Context, path string) error {
	if err := c.check(path); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.addr+"/v1/"+strings.TrimLeft(path, "/"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Vault-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vault delete failed: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) check(path string) error {
	if c == nil {
		return errors.New("vault client is nil")
	}
	if c.addr == "" || c.token == "" {
		return errors.New("vault addr or token missing")
	}
	if path == "" {
		return errors.New("vault path is required")
	}
	return nil
}
