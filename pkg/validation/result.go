/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package validation

import "strings"

// Field names a validated input field. The values match the backend's JSON keys.
type Field string

const (
	FieldDeviceName Field = "device_name"
	FieldIPAddress  Field = "ip_address"
	FieldPassword   Field = "password"
)

// fieldOrder fixes the order in which errors are reported.
var fieldOrder = []Field{FieldDeviceName, FieldIPAddress, FieldPassword}

// Result is either ok (no errors) or a set of per-field messages.
type Result struct {
	errs map[Field]string
}

func (r *Result) add(f Field, msg string) {
	if r.errs == nil {
		r.errs = make(map[Field]string, len(fieldOrder))
	}

	r.errs[f] = msg
}

// OK reports whether every field passed.
func (r Result) OK() bool {
	return len(r.errs) == 0
}

// Error returns the message for f, or "" if f is valid.
func (r Result) Error(f Field) string {
	return r.errs[f]
}

// Fields lists the failing fields in display order.
func (r Result) Fields() []Field {
	out := make([]Field, 0, len(r.errs))

	for _, f := range fieldOrder {
		if _, ok := r.errs[f]; ok {
			out = append(out, f)
		}
	}

	return out
}

// First returns the first message in display order.
func (r Result) First() string {
	for _, f := range fieldOrder {
		if msg, ok := r.errs[f]; ok {
			return msg
		}
	}

	return ""
}

// Combined joins all messages in display order.
func (r Result) Combined() string {
	msgs := make([]string, 0, len(r.errs))

	for _, f := range r.Fields() {
		msgs = append(msgs, r.errs[f])
	}

	return strings.Join(msgs, "; ")
}
