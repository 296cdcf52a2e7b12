// Package token signs and verifies the service's JSON Web Tokens.
//
// Access tokens are RS256 signed with the active private key and carry
// the key id in their header so verifiers can resolve the matching
// public key, either from the local key source or from a remote JWKS
// endpoint. Refresh tokens are HS256 signed with a shared secret and carry
// the persisted session id as their jti.
package token
