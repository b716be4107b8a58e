// Package did implements W3C-shaped decentralized identifiers and identity
// documents, plus the pluggable document stores the hub routes commands to.
//
// The package deliberately avoids real key material: documents carry
// placeholder verification methods and the stores are plain key/value
// collaborators. Credential proofs and signature verification are out of
// scope for didlink.
package did
