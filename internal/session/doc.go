// Package session stores the Catalogue Storage bearer token at rest.
//
// The token is sealed with NaCl secretbox under a randomly generated
// machine-local key; both files live in the session directory with owner-only
// permissions. The settoken command writes tokens, the authoring daemon only
// reads them.
package session
