// Package httpapi provides a demonstration HTTP surface over the ksi
// timestamp library: request/create/extend/verify, plus health and docs.
//
// @title GuardTime Keyless Timestamp API
// @version 1.0
// @description HTTP API demonstrating the ksi client library: building
// @description timestamp requests, decoding gateway responses, extending
// @description short-term tokens to long-term ones, and verifying tokens.
// @description
// @description Supports:
// @description - RFC 3161 TimeStampReq/TimeStampResp
// @description - GuardTime CertTokenRequest/CertTokenResponse extension
// @description - CMS SignedData timestamp token decoding
// @description - Syntactic, hash-chain, and PKI signature verification
//
// @contact.name API Support
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /
// @schemes http https
//
// @tag.name Health
// @tag.description Health check endpoints
//
// @tag.name Timestamp
// @tag.description Build requests, create, extend and verify timestamp tokens
package httpapi
