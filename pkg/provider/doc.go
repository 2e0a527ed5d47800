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
Package provider coordinates completion requests against code host backends.

	              +---------------+
	 request ---> |  Coordinator  | ---> callback (once, on success)
	              +-------+-------+
	                      |
	          +-----------+-----------+
	          |                       |
	    +-----+-----+          +------+------+
	    |   Scope   |          |   Backend   |
	    |   Cache   |          | (strategies)|
	    +-----------+          +------+------+
	                                  |
	                        gh CLI -> REST API

🎯 Purpose:
- Reject requests whose host or repository is unknown
- Serve repeated requests from the per-scope cache
- Run the backend's strategies with sequential fallback

🔄 Flow:
1. Check the backend supports the host and owner/name are set
2. Look up (kind, scope) in the cache and answer synchronously on a hit
3. Otherwise merge request options over config and build strategies
4. Start the fallback chain; store and deliver the first success
5. When every strategy fails, log and stay silent

🤝 Interfaces:
- Backend: builds the ordered strategies of a host
- Callback: receives a Result, never an error
*/
package provider
