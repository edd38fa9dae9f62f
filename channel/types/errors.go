// Copyright 2025 - See NOTICE file for copyright holders.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import "errors"

// Validation errors.
var (
	ErrInvalidParticipants = errors.New("participants must be distinct and non-zero")
	ErrInvalidTimeout      = errors.New("timeout outside allowed bounds")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidNonce        = errors.New("nonce does not increase channel nonce")
	ErrInvalidBalanceSum   = errors.New("update breaks balance conservation")
)

// Authorization errors.
var (
	ErrNotParticipant      = errors.New("caller is not a channel participant")
	ErrNotAdmin            = errors.New("caller is not the administrator")
	ErrUnauthorizedRelayer = errors.New("relayer is not authorized")
)

// Signature errors.
var ErrInvalidSignature = errors.New("signature verification failed")

// State errors.
var (
	ErrChannelNotFound    = errors.New("channel not found")
	ErrChannelInactive    = errors.New("channel is inactive")
	ErrChannelStillActive = errors.New("channel is still active")
	ErrChannelInDispute   = errors.New("channel is in dispute")
	ErrNoDispute          = errors.New("channel is not in dispute")
	ErrDisputePending     = errors.New("dispute deadline not yet reached")
	ErrDisputeExpired     = errors.New("dispute deadline already passed")
	ErrNothingToRecover   = errors.New("channel has no residual balance")
)
