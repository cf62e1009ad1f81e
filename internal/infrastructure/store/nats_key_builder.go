// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"encoding/base64"
	"strings"

	"github.com/nats-io/nats.go"
)

// Key prefixes
const (
	KeyPrefixStep  = "step"
	KeyPrefixClaim = "claim"
)

// KeyBuilder builds NATS KV keys from arbitrary parts. Each part is base64url encoded so
// that job ids and step names may hold characters NATS rejects in keys.
//
// NATS limitations: https://docs.nats.io/nats-concepts/jetstream/key-value-store#notes
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with an optional prefix
func NewKeyBuilder(prefix string) *KeyBuilder {
	return &KeyBuilder{
		prefix: prefix,
	}
}

// Key joins the encoded parts with "." after the plain prefix, e.g. "step.am9iLTE.ZmV0Y2g".
func (kb *KeyBuilder) Key(parts ...string) string {
	res := make([]string, 0, len(parts)+1)
	if kb.prefix != "" {
		res = append(res, kb.prefix)
	}
	for _, part := range parts {
		res = append(res, base64.RawURLEncoding.EncodeToString([]byte(part)))
	}
	return strings.Join(res, ".")
}

// DecodeKey returns the parts of a key built by Key.
func (kb *KeyBuilder) DecodeKey(key string) ([]string, error) {
	if kb.prefix != "" {
		trimmed, ok := strings.CutPrefix(key, kb.prefix+".")
		if !ok {
			return nil, nats.ErrInvalidKey
		}
		key = trimmed
	}
	if key == "" {
		return nil, nats.ErrInvalidKey
	}

	var parts []string
	for _, part := range strings.Split(key, ".") {
		decoded, err := base64.RawURLEncoding.DecodeString(part)
		if err != nil {
			return nil, err
		}
		parts = append(parts, string(decoded))
	}
	return parts, nil
}
