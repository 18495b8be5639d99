/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package linker

// Config controls candidate discovery, per spec.md §4.3.
type Config struct {
	CandidateTags               []int
	CandidateCombinationMaxSize int
	// OverrideCandidates, keyed by msgType, bypasses enumeration entirely:
	// exactly these combinations are tried, in order.
	OverrideCandidates map[string][][]int
	// Normalizers applies per tag, before a value is hashed into a key.
	Normalizers map[int]Normalizer
	// CollisionReportLimit bounds how many worst-offender collisions are
	// recorded per strategy (default 5).
	CollisionReportLimit int
}

// DefaultConfig mirrors spec.md §4.3's defaults.
func DefaultConfig() Config {
	return Config{
		CandidateTags:               []int{11, 41, 37, 17, 55, 54, 60},
		CandidateCombinationMaxSize: 2,
		CollisionReportLimit:        5,
	}
}

func (c Config) collisionLimit() int {
	if c.CollisionReportLimit <= 0 {
		return 5
	}
	return c.CollisionReportLimit
}
