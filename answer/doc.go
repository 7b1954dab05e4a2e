// Copyright 2025 Poiesic Systems
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

// Package answer turns retrieved transcript fragments into a grounded,
// cited natural-language answer.
//
// Synthesis sits strictly downstream of retrieval: implementations receive
// the ranked fragments and the question, and must not issue further
// searches. The model cites fragments by their 1-based position in the
// prompt ("[2]"); ParseCitations maps those markers back to the fragments
// they refer to.
package answer
