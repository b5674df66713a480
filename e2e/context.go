// Package e2e drives a running ledgerguard server through its HTTP API.
// The server must be started with DEV_TOKEN_TTL set so actors can log in.
package e2e

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext holds per-scenario state: named actors and the last response.
type TestContext struct {
	baseURL string
	owner   string
	client  *http.Client

	accounts map[string]string
	tokens   map[string]string
	actor    string

	lastStatus int
	lastBody   []byte
}

func NewTestContext(baseURL, owner string) *TestContext {
	return &TestContext{
		baseURL: strings.TrimRight(baseURL, "/"),
		owner:   owner,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset starts a scenario with fresh actor addresses so scenarios do not
// share balances or list entries on a long-lived server.
func (tc *TestContext) Reset() {
	tc.accounts = map[string]string{"owner": tc.owner}
	tc.tokens = map[string]string{}
	tc.actor = ""
	tc.lastStatus = 0
	tc.lastBody = nil
}

// Address returns the address bound to name, generating one on first use.
// Names starting with 0x are returned unchanged.
func (tc *TestContext) Address(name string) string {
	if strings.HasPrefix(name, "0x") {
		return name
	}
	if addr, ok := tc.accounts[name]; ok {
		return addr
	}
	var raw [20]byte
	_, _ = rand.Read(raw[:])
	addr := "0x" + hex.EncodeToString(raw[:])
	tc.accounts[name] = addr
	return addr
}

// ActAs makes name the caller of subsequent requests, fetching a token when needed.
// The empty name makes requests anonymous.
func (tc *TestContext) ActAs(name string) error {
	if name == "" {
		tc.actor = ""
		return nil
	}
	if _, ok := tc.tokens[name]; !ok {
		if err := tc.send(http.MethodPost, "/dev/token", map[string]string{"account": tc.Address(name)}, ""); err != nil {
			return err
		}
		if tc.lastStatus != http.StatusOK {
			return fmt.Errorf("login as %s: status %d: %s", name, tc.lastStatus, tc.lastBody)
		}
		token, err := tc.GetResponseField("access_token")
		if err != nil {
			return err
		}
		tc.tokens[name] = token.(string)
	}
	tc.actor = name
	return nil
}

func (tc *TestContext) GET(path string) error {
	return tc.send(http.MethodGet, path, nil, tc.tokens[tc.actor])
}

func (tc *TestContext) POST(path string, body interface{}) error {
	return tc.send(http.MethodPost, path, body, tc.tokens[tc.actor])
}

func (tc *TestContext) PUT(path string, body interface{}) error {
	return tc.send(http.MethodPut, path, body, tc.tokens[tc.actor])
}

func (tc *TestContext) DELETE(path string) error {
	return tc.send(http.MethodDelete, path, nil, tc.tokens[tc.actor])
}

func (tc *TestContext) send(method, path string, body interface{}, token string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) GetLastStatus() int { return tc.lastStatus }

func (tc *TestContext) GetLastBody() []byte { return tc.lastBody }

// GetResponseField reads a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var body map[string]interface{}
	if err := json.Unmarshal(tc.lastBody, &body); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	v, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response %s", field, tc.lastBody)
	}
	return v, nil
}
