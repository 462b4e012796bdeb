// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifiers, kalmitee member keys and address hashing.

# Member Keys

Kalmitee member keys use HMAC-SHA256 to create deterministic, verifiable keys:

	key := auth.GenerateMemberKey(memberID, salt)
	err := auth.ValidateMemberKey(memberID, key, salt)

The key is URL-safe base64 encoded without padding. The same member ID and salt
always produce the same key, so nothing is stored in the database.

# ID Generation

	id := auth.NewID() // random UUID

# IP Hashing

Client addresses are never stored in the clear. The rate-limit ledger keys on:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
