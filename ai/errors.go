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


package ai

import "errors"

var (
	// ErrUnparsable indicates a model response could not be read as the
	// expected structured output. Callers must treat it like a failed call.
	ErrUnparsable = errors.New("unparsable model response")

	// ErrInvalidResponse indicates the provider returned a structurally
	// wrong result, such as an embedding count that does not match the
	// request.
	ErrInvalidResponse = errors.New("invalid provider response")
)
