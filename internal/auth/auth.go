// Package auth guards the HTTP API with static API keys. Each key maps to a
// principal and a set of roles.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"slices"
	"strings"
)

const (
	// RoleQueryReader may ask questions and read schema, examples and charts.
	RoleQueryReader = "query_reader"
	// RoleExporter may additionally request Parquet exports.
	RoleExporter = "exporter"
)

type Identity struct {
	Principal string
	Roles     []string
}

func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

type APIKeyValidator interface {
	Validate(ctx context.Context, apiKey string) (Identity, bool)
}

type staticKey struct {
	key      []byte
	identity Identity
}

type StaticAPIKeyValidator struct {
	keys []staticKey
}

// NewStaticAPIKeyValidator parses "key:principal:role|role" entries
// separated by commas. An empty spec yields a validator that rejects
// every key.
func NewStaticAPIKeyValidator(spec string) (*StaticAPIKeyValidator, error) {
	validator := &StaticAPIKeyValidator{}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return validator, nil
	}

	seen := map[string]bool{}
	for _, entry := range strings.Split(spec, ",") {
		key, principal, roles, err := parseEntry(entry)
		if err != nil {
			return nil, err
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate static key for principal %q", principal)
		}
		seen[key] = true
		validator.keys = append(validator.keys, staticKey{
			key:      []byte(key),
			identity: Identity{Principal: principal, Roles: roles},
		})
	}
	return validator, nil
}

func parseEntry(entry string) (string, string, []string, error) {
	parts := strings.Split(strings.TrimSpace(entry), ":")
	if len(parts) != 3 {
		return "", "", nil, fmt.Errorf("invalid static key entry: expected key:principal:role|role")
	}
	key, principal := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if key == "" || principal == "" {
		return "", "", nil, fmt.Errorf("invalid static key entry: empty key or principal")
	}
	var roles []string
	for _, role := range strings.Split(parts[2], "|") {
		if role = strings.TrimSpace(role); role != "" && !slices.Contains(roles, role) {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		return "", "", nil, fmt.Errorf("invalid static key entry for %q: at least one role is required", principal)
	}
	slices.Sort(roles)
	return key, principal, roles, nil
}

// Validate compares apiKey against every configured key in constant time.
func (v *StaticAPIKeyValidator) Validate(_ context.Context, apiKey string) (Identity, bool) {
	candidate := []byte(apiKey)
	var (
		found   Identity
		matched bool
	)
	for _, k := range v.keys {
		if subtle.ConstantTimeCompare(k.key, candidate) == 1 {
			found, matched = k.identity, true
		}
	}
	return found, matched
}

// Anonymous is the identity used when authentication is disabled.
func Anonymous() Identity {
	return Identity{Principal: "anonymous", Roles: []string{RoleExporter, RoleQueryReader}}
}
