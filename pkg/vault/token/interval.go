/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package token

import "time"

// RefreshInterval returns how long to wait before renewing a token that is
// valid for ttl. Tokens valid for at least twice the margin are renewed margin
// before expiry; shorter ones are renewed at half their validity.
// The result is never negative and is strictly less than ttl for ttl > 0.
func RefreshInterval(ttl, margin time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if ttl < 2*margin {
		return ttl / 2
	}
	return ttl - margin
}
