// Package session establishes short-lived authenticated sessions with xnode
// managers and relays calls through them. A session never outlives the single
// WithSession call that created it.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"time"

	"xnode-reserved/pkg/wallet"
)

const (
	loginPurpose = "Create Xnode Manager session"

	// Remote deploys can be slow (nix builds); generous but bounded.
	sessionTimeout = 10 * time.Minute
)

type loginMethod struct {
	WalletSignature wallet.Signature `json:"WalletSignature"`
}

type loginRequest struct {
	LoginMethod loginMethod `json:"login_method"`
	Timestamp   int64       `json:"timestamp"`
}

// Broker opens authenticated sessions on behalf of the operator wallet.
type Broker struct {
	wallet *wallet.Wallet
	now    func() int64
}

func NewBroker(w *wallet.Wallet) *Broker {
	return &Broker{wallet: w, now: func() int64 { return time.Now().Unix() }}
}

// WithSession logs in to the xnode's manager, runs action with the
// authenticated client, and always attempts a logout afterwards. A logout
// failure is logged but never overrides action's result. If login fails,
// action is never invoked and no logout is attempted.
func (b *Broker) WithSession(ctx context.Context, xnodeID string, action func(client *http.Client) error) error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	client := &http.Client{Jar: jar, Timeout: sessionTimeout}

	if err := b.login(ctx, client, xnodeID); err != nil {
		return err
	}

	actionErr := action(client)

	b.logout(ctx, client, xnodeID)

	return actionErr
}

// login signs a credential binding the purpose string, the target xnode and
// the current timestamp, and exchanges it at the manager's auth endpoint.
func (b *Broker) login(ctx context.Context, client *http.Client, xnodeID string) error {
	ts := b.now()
	message := fmt.Sprintf("%s\n%s\n%d", loginPurpose, xnodeID, ts)
	sig := b.wallet.SignPersonal([]byte(message))

	body, err := json.Marshal(loginRequest{
		LoginMethod: loginMethod{WalletSignature: sig},
		Timestamp:   ts,
	})
	if err != nil {
		return fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, xnodeID+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build login request for %s: %w", xnodeID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("login to %s: %w", xnodeID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("login to %s rejected with status %d", xnodeID, resp.StatusCode)
	}
	return nil
}

func (b *Broker) logout(ctx context.Context, client *http.Client, xnodeID string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, xnodeID+"/auth/logout", nil)
	if err != nil {
		log.Printf("could not build logout request for %s: %v", xnodeID, err)
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("logout from %s failed: %v", xnodeID, err)
		return
	}
	resp.Body.Close()
}
