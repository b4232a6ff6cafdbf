// Package api exposes the reservation and forwarding endpoints over HTTP.
// Routing is a plain ServeMux; handlers validate, call into the ledger or the
// session broker, and translate domain errors into safe client messages.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"xnode-reserved/pkg/audit"
	"xnode-reserved/pkg/auth"
	"xnode-reserved/pkg/ledger"
	"xnode-reserved/pkg/session"
	"xnode-reserved/pkg/wallet"
	"xnode-reserved/pkg/xnode"
)

// secretHeader carries the reservation secret on ownership-gated requests.
const secretHeader = "X-Reservation-Secret"

// ResponseError is the structured error body returned to clients. Messages
// are safe and descriptive for validation/ownership failures and generic for
// internal faults.
type ResponseError struct {
	Message string `json:"message"`
}

// Handlers wires the HTTP surface to the subsystem's collaborators.
type Handlers struct {
	store      ledger.Store
	broker     *session.Broker
	wallet     *wallet.Wallet
	audit      *audit.Recorder
	adminToken string
}

func New(store ledger.Store, broker *session.Broker, w *wallet.Wallet, rec *audit.Recorder, adminToken string) *Handlers {
	return &Handlers{store: store, broker: broker, wallet: w, audit: rec, adminToken: adminToken}
}

// RegisterRoutes wires all handlers on the provided mux under /demo.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	admin := h.adminToken != ""

	mux.HandleFunc("/demo/address", h.handleAddress)
	mux.HandleFunc("/demo/xnodes", h.handleXnodes)
	mux.HandleFunc("/demo/reserve", h.handleReserve)
	mux.HandleFunc("/demo/forward_request", h.handleForward)
	mux.HandleFunc("/demo/set_app", h.handleSetApp)
	mux.HandleFunc("/demo/watch", NewWatcher(h.store).Handle)

	mux.HandleFunc("/demo/auth/login", h.handleAdminLogin)
	mux.HandleFunc("/demo/release", auth.Middleware(h.handleRelease, admin))
	mux.HandleFunc("/demo/audit", auth.Middleware(h.handleAudit, admin))
}

func (h *Handlers) handleAddress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.wallet.Address())
}

// nodeSummary is the public listing shape. The reservation secret is returned
// exactly once, by reserve; listings only say until when a node is taken.
type nodeSummary struct {
	ID            string `json:"id"`
	ReservedUntil *int64 `json:"reserved_until,omitempty"`
}

func summarize(nodes []xnode.Xnode) []nodeSummary {
	out := make([]nodeSummary, len(nodes))
	for i, n := range nodes {
		out[i].ID = n.ID
		if n.Reservation != nil {
			until := n.Reservation.ReservedUntil
			out[i].ReservedUntil = &until
		}
	}
	return out
}

func (h *Handlers) handleXnodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	nodes, err := h.store.List(r.Context())
	if err != nil {
		log.Printf("could not list xnodes: %v", err)
		writeError(w, http.StatusInternalServerError, "Xnodes could not be listed.")
		return
	}
	writeJSON(w, http.StatusOK, summarize(nodes))
}

type reserveRequest struct {
	XnodeID string `json:"xnode_id"`
}

func (h *Handlers) handleReserve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.XnodeID == "" {
		writeError(w, http.StatusBadRequest, "Invalid payload.")
		return
	}

	res, err := h.store.Reserve(r.Context(), req.XnodeID)
	if err != nil {
		h.writeDomainError(w, err, "Xnode could not be reserved.")
		return
	}
	h.audit.Record(req.XnodeID, remoteIP(r), "reserved")

	writeJSON(w, http.StatusOK, xnode.Xnode{ID: req.XnodeID, Reservation: &res})
}

func (h *Handlers) handleForward(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req session.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload.")
		return
	}

	// Only introspection paths are forwardable; everything else, including
	// config mutation, has its own gated endpoint or none at all.
	path, ok := req.Path()
	if !ok || !forwardable(path) {
		writeError(w, http.StatusBadRequest, "Invalid path.")
		return
	}

	if err := h.checkReservation(r, req.XnodeID); err != nil {
		h.writeDomainError(w, err, "Request could not be forwarded.")
		return
	}

	resp, err := h.relay(r, req)
	if err != nil {
		log.Printf("could not forward request to %s: %v", req.XnodeID, err)
		writeError(w, http.StatusInternalServerError, "Could not perform request.")
		return
	}
	respond(w, resp)
}

type setAppRequest struct {
	XnodeID string `json:"xnode_id"`
	Flake   string `json:"flake"`
}

func (h *Handlers) handleSetApp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req setAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.XnodeID == "" {
		writeError(w, http.StatusBadRequest, "Invalid payload.")
		return
	}

	if err := h.checkReservation(r, req.XnodeID); err != nil {
		h.writeDomainError(w, err, "New configuration could not be applied.")
		return
	}

	// The container is named after the caller's owner token, so each
	// reservation deploys into its own container.
	freq, err := session.PostJSON(req.XnodeID, "config/change", []xnode.ConfigAction{{
		Set: &xnode.SetAction{
			Container: xnode.ContainerID(r.Header.Get(secretHeader)),
			Config:    xnode.ContainerConfig{Flake: req.Flake},
		},
	}})
	if err != nil {
		log.Printf("could not build config change for %s: %v", req.XnodeID, err)
		writeError(w, http.StatusInternalServerError, "New configuration could not be applied.")
		return
	}

	resp, err := h.relay(r, freq)
	if err != nil {
		log.Printf("could not apply configuration on %s: %v", req.XnodeID, err)
		writeError(w, http.StatusInternalServerError, "New configuration could not be applied.")
		return
	}
	h.audit.Record(req.XnodeID, remoteIP(r), "deployed")
	respond(w, resp)
}

type adminLoginRequest struct {
	Token string `json:"token"`
}

func (h *Handlers) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.adminToken == "" {
		http.Error(w, "admin surface disabled", http.StatusUnauthorized)
		return
	}
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload.")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Token), []byte(h.adminToken)) != 1 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	token, err := auth.Generate(h.wallet.Address(), 24*time.Hour)
	if err != nil {
		log.Printf("could not generate admin token: %v", err)
		writeError(w, http.StatusInternalServerError, "Login could not be completed.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handlers) handleRelease(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.XnodeID == "" {
		writeError(w, http.StatusBadRequest, "Invalid payload.")
		return
	}
	if err := h.store.Release(r.Context(), req.XnodeID); err != nil {
		h.writeDomainError(w, err, "Xnode could not be released.")
		return
	}
	h.audit.Record(req.XnodeID, "admin", "released")
	writeJSON(w, http.StatusOK, xnode.Xnode{ID: req.XnodeID})
}

func (h *Handlers) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	entries, err := h.audit.List(100)
	if err != nil {
		log.Printf("could not list audit entries: %v", err)
		writeError(w, http.StatusInternalServerError, "Audit log could not be read.")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// checkReservation enforces ownership: the xnode must be known, currently
// reserved, and the caller must present the stored secret. It never touches
// the network.
func (h *Handlers) checkReservation(r *http.Request, xnodeID string) error {
	x, err := h.store.Get(r.Context(), xnodeID)
	if err != nil {
		return err
	}
	if x.Reservation == nil {
		return xnode.ErrNotReserved
	}
	secret := r.Header.Get(secretHeader)
	if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(x.Reservation.Secret)) != 1 {
		return xnode.ErrOwnershipMismatch
	}
	return nil
}

// relay runs exactly one forwarded call inside one broker session.
func (h *Handlers) relay(r *http.Request, req session.Request) (session.Response, error) {
	var out session.Response
	err := h.broker.WithSession(r.Context(), req.XnodeID, func(client *http.Client) error {
		resp, err := session.Do(r.Context(), client, req)
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	return out, err
}

func forwardable(path string) bool {
	return strings.HasPrefix(path, "processes") || strings.HasPrefix(path, "usage")
}

// respond relays the remote result verbatim: identical status, identical body
// bytes. The remote status line is trusted only after range validation.
func respond(w http.ResponseWriter, resp session.Response) {
	if resp.Status < 100 || resp.Status > 599 {
		log.Printf("remote status code %d is outside the valid range", resp.Status)
		writeError(w, http.StatusInternalServerError, "Status code of response could not be parsed.")
		return
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write([]byte(resp.Body))
}

func (h *Handlers) writeDomainError(w http.ResponseWriter, err error, internalMsg string) {
	switch {
	case errors.Is(err, xnode.ErrUnknownNode):
		writeError(w, http.StatusBadRequest, "Invalid Xnode id.")
	case errors.Is(err, xnode.ErrAlreadyReserved):
		writeError(w, http.StatusBadRequest, "Xnode is already reserved.")
	case errors.Is(err, xnode.ErrNotReserved):
		writeError(w, http.StatusBadRequest, "Xnode is not reserved.")
	case errors.Is(err, xnode.ErrOwnershipMismatch):
		writeError(w, http.StatusBadRequest, "Xnode is reserved by someone else.")
	default:
		log.Printf("internal fault: %v", err)
		writeError(w, http.StatusInternalServerError, internalMsg)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("could not encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ResponseError{Message: msg})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// CORS wraps a handler with a permissive cross-origin policy, matching the
// open demo surface.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+secretHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
