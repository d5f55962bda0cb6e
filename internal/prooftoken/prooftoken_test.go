package prooftoken

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitProofRoundTrip(t *testing.T) {
	proof := VisitProof{
		CampaignID:   snowflake.ID(123456789),
		InfluencerID: snowflake.ID(987654321),
		CustomerID:   snowflake.ID(555555),
	}

	token, err := EncodeVisitProof(proof)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	decoded, err := DecodeVisitProof(token)
	require.NoError(t, err)
	assert.Equal(t, proof, decoded)
}

func TestRedemptionProofRoundTrip(t *testing.T) {
	proof := RedemptionProof{
		RedemptionID: snowflake.ID(42),
		CustomerID:   snowflake.ID(7),
		BusinessID:   snowflake.ID(9),
		IssuedAtMs:   time.Now().UnixMilli(),
		Nonce:        NewNonce(),
	}

	token, err := EncodeRedemptionProof(proof)
	require.NoError(t, err)

	decoded, err := DecodeRedemptionProof(token)
	require.NoError(t, err)
	assert.Equal(t, proof, decoded)
}

func TestRedemptionProofsAreUniquePerRedemption(t *testing.T) {
	base := RedemptionProof{
		RedemptionID: snowflake.ID(42),
		CustomerID:   snowflake.ID(7),
		BusinessID:   snowflake.ID(9),
		IssuedAtMs:   time.Now().UnixMilli(),
	}

	first := base
	first.Nonce = NewNonce()
	second := base
	second.Nonce = NewNonce()

	tokenA, err := EncodeRedemptionProof(first)
	require.NoError(t, err)
	tokenB, err := EncodeRedemptionProof(second)
	require.NoError(t, err)
	assert.NotEqual(t, tokenA, tokenB)
}

func TestDecodeVisitProofMalformed(t *testing.T) {
	valid, err := EncodeVisitProof(VisitProof{
		CampaignID:   snowflake.ID(1),
		InfluencerID: snowflake.ID(2),
		CustomerID:   snowflake.ID(3),
	})
	require.NoError(t, err)

	cases := map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"invalid base64": "!!!!",
		"truncated":      valid[:len(valid)/2],
		"plain json":     base64.RawURLEncoding.EncodeToString([]byte(`{"k":"cv1"}`)),
		"zero ids":       base64.RawURLEncoding.EncodeToString([]byte(`{"k":"cv1","c":"0","i":"0","u":"0"}`)),
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeVisitProof(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestDecodeRejectsWrongKind(t *testing.T) {
	visitToken, err := EncodeVisitProof(VisitProof{
		CampaignID:   snowflake.ID(1),
		InfluencerID: snowflake.ID(2),
		CustomerID:   snowflake.ID(3),
	})
	require.NoError(t, err)

	_, err = DecodeRedemptionProof(visitToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	redemptionToken, err := EncodeRedemptionProof(RedemptionProof{
		RedemptionID: snowflake.ID(4),
		CustomerID:   snowflake.ID(5),
		BusinessID:   snowflake.ID(6),
		IssuedAtMs:   1,
		Nonce:        NewNonce(),
	})
	require.NoError(t, err)

	_, err = DecodeVisitProof(redemptionToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
