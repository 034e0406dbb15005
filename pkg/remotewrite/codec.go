// Copyright 2026 VeryGoodOps Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package remotewrite implements the snappy+protobuf wire codec for
// Prometheus remote-write 1.0 requests.
package remotewrite

import (
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/prometheus/prometheus/prompb"
)

// BadPayloadError marks a client-fault decode failure: malformed snappy
// framing, malformed protobuf, or a body over the configured size ceiling.
// Handlers must answer these with HTTP 400 and must not count them as
// dispatcher failures.
type BadPayloadError struct {
	msg string
}

func (e *BadPayloadError) Error() string { return e.msg }

func badPayload(format string, args ...interface{}) error {
	return &BadPayloadError{msg: errors.Errorf(format, args...).Error()}
}

// IsBadPayload reports whether err (or one it wraps) is a BadPayloadError.
func IsBadPayload(err error) bool {
	_, ok := errors.Cause(err).(*BadPayloadError)
	return ok
}

// Decode snappy-decompresses and protobuf-parses body into a WriteRequest.
// maxDecodedSize bounds the decompressed size; a non-positive value means
// no ceiling. Fails with a BadPayloadError in all three failure modes
// described in spec §4.1.
func Decode(body []byte, maxDecodedSize int64) (*prompb.WriteRequest, error) {
	decoded, err := snappy.Decode(nil, body)
	if err != nil {
		return nil, badPayload("snappy decode: %s", err)
	}
	if maxDecodedSize > 0 && int64(len(decoded)) > maxDecodedSize {
		return nil, badPayload("decompressed payload %d bytes exceeds limit %d", len(decoded), maxDecodedSize)
	}
	var req prompb.WriteRequest
	if err := req.Unmarshal(decoded); err != nil {
		return nil, badPayload("protobuf unmarshal: %s", err)
	}
	return &req, nil
}

// Encode protobuf-marshals and snappy-compresses req for upstream dispatch.
func Encode(req *prompb.WriteRequest) ([]byte, error) {
	raw, err := req.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "protobuf marshal")
	}
	return snappy.Encode(nil, raw), nil
}
