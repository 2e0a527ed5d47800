// Copyright 2025 walteh LLC
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


/*
Package config loads ghcomplete settings.

🎯 Purpose:
- Per-kind fetch options (limit, state, filter, sort_by)
- gh CLI and REST transport settings
- Supported host patterns

🔄 Flow:
1. Pick a parser by file extension (.yaml/.yml, .json, .hcl)
2. Decode with unknown fields rejected
3. Validate and fill in defaults

Callers overlay request-level options with KindConfig.Merge before a fetch.
*/
package config
