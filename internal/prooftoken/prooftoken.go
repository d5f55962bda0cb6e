// Package prooftoken encodes and decodes the scan-time QR payloads.
//
// Tokens are structural only: decoding proves the shape of the claimed
// binding, not its authenticity. Authenticity is established downstream
// by resolving the campaign and checking its state.
package prooftoken

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
)

var ErrInvalidToken = errors.New("invalid_token")

const (
	kindVisit      = "cv1"
	kindRedemption = "cr1"
)

// VisitProof binds a campaign, the influencer who drove the visit, and
// the visiting customer.
type VisitProof struct {
	CampaignID   snowflake.ID
	InfluencerID snowflake.ID
	CustomerID   snowflake.ID
}

// RedemptionProof binds a minted redemption to its owner. Nonce is a
// ULID minted at issue time, so no two redemptions ever share a token.
type RedemptionProof struct {
	RedemptionID snowflake.ID
	CustomerID   snowflake.ID
	BusinessID   snowflake.ID
	IssuedAtMs   int64
	Nonce        string
}

type wirePayload struct {
	Kind       string `json:"k"`
	Campaign   string `json:"c,omitempty"`
	Influencer string `json:"i,omitempty"`
	Customer   string `json:"u,omitempty"`
	Redemption string `json:"r,omitempty"`
	Business   string `json:"b,omitempty"`
	IssuedAtMs int64  `json:"t,omitempty"`
	Nonce      string `json:"n,omitempty"`
}

// NewNonce mints a monotonic ULID for redemption proofs.
func NewNonce() string {
	return ulid.Make().String()
}

func EncodeVisitProof(proof VisitProof) (string, error) {
	if proof.CampaignID == 0 || proof.InfluencerID == 0 || proof.CustomerID == 0 {
		return "", ErrInvalidToken
	}
	return encode(wirePayload{
		Kind:       kindVisit,
		Campaign:   proof.CampaignID.String(),
		Influencer: proof.InfluencerID.String(),
		Customer:   proof.CustomerID.String(),
	})
}

func DecodeVisitProof(token string) (VisitProof, error) {
	payload, err := decode(token, kindVisit)
	if err != nil {
		return VisitProof{}, err
	}

	campaignID, err := parseID(payload.Campaign)
	if err != nil {
		return VisitProof{}, err
	}
	influencerID, err := parseID(payload.Influencer)
	if err != nil {
		return VisitProof{}, err
	}
	customerID, err := parseID(payload.Customer)
	if err != nil {
		return VisitProof{}, err
	}

	return VisitProof{
		CampaignID:   campaignID,
		InfluencerID: influencerID,
		CustomerID:   customerID,
	}, nil
}

func EncodeRedemptionProof(proof RedemptionProof) (string, error) {
	if proof.RedemptionID == 0 || proof.CustomerID == 0 || proof.BusinessID == 0 {
		return "", ErrInvalidToken
	}
	if proof.IssuedAtMs <= 0 || proof.Nonce == "" {
		return "", ErrInvalidToken
	}
	if _, err := ulid.ParseStrict(proof.Nonce); err != nil {
		return "", ErrInvalidToken
	}
	return encode(wirePayload{
		Kind:       kindRedemption,
		Redemption: proof.RedemptionID.String(),
		Customer:   proof.CustomerID.String(),
		Business:   proof.BusinessID.String(),
		IssuedAtMs: proof.IssuedAtMs,
		Nonce:      proof.Nonce,
	})
}

func DecodeRedemptionProof(token string) (RedemptionProof, error) {
	payload, err := decode(token, kindRedemption)
	if err != nil {
		return RedemptionProof{}, err
	}

	redemptionID, err := parseID(payload.Redemption)
	if err != nil {
		return RedemptionProof{}, err
	}
	customerID, err := parseID(payload.Customer)
	if err != nil {
		return RedemptionProof{}, err
	}
	businessID, err := parseID(payload.Business)
	if err != nil {
		return RedemptionProof{}, err
	}
	if payload.IssuedAtMs <= 0 {
		return RedemptionProof{}, ErrInvalidToken
	}
	if _, err := ulid.ParseStrict(payload.Nonce); err != nil {
		return RedemptionProof{}, ErrInvalidToken
	}

	return RedemptionProof{
		RedemptionID: redemptionID,
		CustomerID:   customerID,
		BusinessID:   businessID,
		IssuedAtMs:   payload.IssuedAtMs,
		Nonce:        payload.Nonce,
	}, nil
}

func encode(payload wirePayload) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decode(token, wantKind string) (wirePayload, error) {
	if token == "" {
		return wirePayload{}, ErrInvalidToken
	}

	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return wirePayload{}, ErrInvalidToken
	}

	var payload wirePayload
	if err := json.Unmarshal(b, &payload); err != nil {
		return wirePayload{}, ErrInvalidToken
	}
	if payload.Kind != wantKind {
		return wirePayload{}, ErrInvalidToken
	}
	return payload, nil
}

func parseID(raw string) (snowflake.ID, error) {
	if raw == "" {
		return 0, ErrInvalidToken
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}
