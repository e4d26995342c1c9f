package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/bitfsorg/cidvault/vault"
)

// StoreRequest is the body of POST /store_data. UserPrivateKey is the hex
// signing key of UserWallet.
type StoreRequest struct {
	UserWallet          string `json:"user_wallet"`
	UserPrivateKey      string `json:"user_private_key"`
	UserPublicKeyBase64 string `json:"user_public_key_base64"`
	Data                string `json:"data"`
}

// StoreResponse is the body of a successful store.
type StoreResponse struct {
	Message string `json:"message"`
	CID     string `json:"cid"`
	TxHash  string `json:"tx_hash"`
}

// RetrieveRequest is the body of POST /retrieve_data. UserPrivateKey is the
// base64 decryption key.
type RetrieveRequest struct {
	UserWallet     string `json:"user_wallet"`
	UserPrivateKey string `json:"user_private_key"`
}

// RetrieveItem is one entry of a retrieve response. Data is the plaintext as
// text, or base64 with Encoding set when it is not valid UTF-8.
type RetrieveItem struct {
	CID      string `json:"cid"`
	Data     string `json:"data"`
	Encoding string `json:"encoding,omitempty"`
}

// RetrieveResponse is the body of a successful retrieve.
type RetrieveResponse struct {
	Message string         `json:"message"`
	Data    []RetrieveItem `json:"data"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

const (
	msgStored    = "Data stored successfully"
	msgRetrieved = "Data retrieved successfully"
	msgNoData    = "No data found for this wallet"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	res, err := s.vault.Store(ctx, vault.StoreRequest{
		WalletAddress:      req.UserWallet,
		SigningKey:         req.UserPrivateKey,
		RecipientPublicKey: req.UserPublicKeyBase64,
		Plaintext:          []byte(req.Data),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, StoreResponse{Message: msgStored, CID: res.CID, TxHash: res.TxID})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	items, err := s.vault.Retrieve(ctx, vault.RetrieveRequest{
		WalletAddress: req.UserWallet,
		PrivateKey:    req.UserPrivateKey,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := RetrieveResponse{Message: msgRetrieved, Data: make([]RetrieveItem, 0, len(items))}
	if len(items) == 0 {
		resp.Message = msgNoData
	}
	for _, it := range items {
		resp.Data = append(resp.Data, toRetrieveItem(it))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func toRetrieveItem(it vault.Item) RetrieveItem {
	if utf8.Valid(it.Plaintext) {
		return RetrieveItem{CID: it.CID, Data: string(it.Plaintext)}
	}
	return RetrieveItem{
		CID:      it.CID,
		Data:     base64.StdEncoding.EncodeToString(it.Plaintext),
		Encoding: "base64",
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			return fmt.Errorf("%w: request body too large", vault.ErrInvalidRequest)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty request body", vault.ErrInvalidRequest)
		default:
			return fmt.Errorf("%w: invalid JSON payload: %w", vault.ErrInvalidRequest, err)
		}
	}
	return nil
}

// statusFor maps a vault error kind to an HTTP status.
func statusFor(kind vault.ErrorKind) int {
	switch kind {
	case vault.KindCrypto, vault.KindSigning, vault.KindInvalidRequest:
		return http.StatusBadRequest
	case vault.KindContentNotFound:
		return http.StatusNotFound
	case vault.KindStorageUnavailable, vault.KindStorageRejected, vault.KindSubmission:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := vault.Kind(err)
	status := statusFor(kind)
	id := requestID(r.Context())

	entry := s.logger.WithFields(logrus.Fields{
		"request_id": id,
		"path":       r.URL.Path,
		"status":     status,
		"kind":       string(kind),
	}).WithError(err)

	message := err.Error()
	switch {
	case status >= 500 && kind == vault.KindInternal:
		entry.Error("request failed")
		message = "internal error"
	case status >= 500:
		entry.Error("request failed")
	default:
		entry.Warn("request rejected")
	}

	s.writeJSON(w, status, ErrorResponse{Error: message, Kind: string(kind), RequestID: id})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).WithField("status", status).Error("httpapi: write json response")
	}
}
