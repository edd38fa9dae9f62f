// Copyright 2025 - See NOTICE file for copyright holders.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package channel implements the two-party payment channel engine: channel
// lifecycle (open, update, close), dispute resolution with a bounded timeout
// fallback, a relayer gateway for third-party submission of signed updates,
// and the fee treasury. The engine is the trust-minimized arbiter of fund
// custody and state ordering; lending-circle orchestration and off-chain
// clients drive it exclusively through the operations defined here.
package channel
