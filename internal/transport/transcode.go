// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/go-a2a/aiplatform/internal/pathtemplate"
)

// bodyMarshal serializes request bodies the way the backend expects them:
// JSON with enum fields encoded as integers.
var bodyMarshal = protojson.MarshalOptions{UseEnumNumbers: true}

// respUnmarshal parses response bodies. Unknown fields are dropped so newer
// server revisions remain readable.
var respUnmarshal = protojson.UnmarshalOptions{DiscardUnknown: true}

// TranscodedRequest is the deterministic HTTP form of one typed request.
type TranscodedRequest struct {
	Method string
	Path   string
	Body   []byte
	Query  url.Values
}

// transcode matches req against the binding's ordered template list and
// derives the HTTP request. Request fields not consumed by the path or the
// body become query parameters. A request matching no template fails with
// [*UnresolvedRouteError] before any network I/O.
func transcode(service, method string, b *compiledBinding, req proto.Message) (*TranscodedRequest, error) {
	m := req.ProtoReflect()

	var (
		path     string
		consumed []string
	)
	matched := false
	for _, tmpl := range b.templates {
		vars := make(map[string]string, len(tmpl.Vars()))
		for _, field := range tmpl.Vars() {
			if v, ok := fieldString(m, field); ok {
				vars[field] = v
			}
		}
		p, err := tmpl.Instantiate(vars)
		if err != nil {
			if errors.Is(err, pathtemplate.ErrMismatch) {
				continue
			}
			return nil, err
		}
		path, consumed, matched = p, tmpl.Vars(), true
		break
	}
	if !matched {
		return nil, &UnresolvedRouteError{Service: service, Method: method}
	}

	skip := make(map[string]bool, len(consumed)+1)
	for _, f := range consumed {
		skip[f] = true
	}

	tr := &TranscodedRequest{
		Method: b.Verb,
		Path:   path,
		Query:  url.Values{},
	}

	switch b.Body {
	case "":
		queryParams(m, skip, tr.Query, "", "")
	case "*":
		clone := proto.Clone(req).ProtoReflect()
		for _, f := range consumed {
			if strings.Contains(f, ".") {
				continue
			}
			if fd := clone.Descriptor().Fields().ByName(protoreflect.Name(f)); fd != nil {
				clone.Clear(fd)
			}
		}
		body, err := bodyMarshal.Marshal(clone.Interface())
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		tr.Body = body
	default:
		fd := m.Descriptor().Fields().ByName(protoreflect.Name(b.Body))
		if fd == nil || fd.Kind() != protoreflect.MessageKind {
			return nil, fmt.Errorf("transport: %s.%s: body field %q is not a message field", service, method, b.Body)
		}
		body, err := bodyMarshal.Marshal(m.Get(fd).Message().Interface())
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		tr.Body = body
		skip[b.Body] = true
		queryParams(m, skip, tr.Query, "", "")
	}

	// The backend serializes response enums as integers only when asked to.
	tr.Query.Set("$alt", "json;enum-encoding=int")
	return tr, nil
}

// fieldString resolves a dotted proto field path (e.g. "dataset.name") to a
// string value on m.
func fieldString(m protoreflect.Message, path string) (string, bool) {
	cur := m
	segs := strings.Split(path, ".")
	for i, seg := range segs {
		fields := cur.Descriptor().Fields()
		fd := fields.ByName(protoreflect.Name(seg))
		if fd == nil {
			fd = fields.ByJSONName(seg)
		}
		if fd == nil || fd.IsList() || fd.IsMap() {
			return "", false
		}
		if i == len(segs)-1 {
			if fd.Kind() != protoreflect.StringKind {
				return "", false
			}
			return cur.Get(fd).String(), true
		}
		if fd.Kind() != protoreflect.MessageKind {
			return "", false
		}
		cur = cur.Get(fd).Message()
	}
	return "", false
}

// queryParams flattens the populated fields of m that were consumed by
// neither the path template nor the body into q, keyed by JSON field name.
func queryParams(m protoreflect.Message, skip map[string]bool, q url.Values, protoPrefix, jsonPrefix string) {
	m.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		pp := protoPrefix + string(fd.Name())
		jp := jsonPrefix + fd.JSONName()
		if skip[pp] {
			return true
		}
		switch {
		case fd.IsMap():
			// Map-typed fields have no query form.
		case fd.IsList():
			if fd.Kind() == protoreflect.MessageKind {
				break
			}
			list := v.List()
			for i := 0; i < list.Len(); i++ {
				q.Add(jp, scalarString(fd, list.Get(i)))
			}
		case fd.Kind() == protoreflect.MessageKind:
			sub := v.Message()
			switch fd.Message().FullName() {
			case "google.protobuf.FieldMask":
				q.Set(jp, fieldMaskString(sub))
			case "google.protobuf.Timestamp", "google.protobuf.Duration":
				if b, err := bodyMarshal.Marshal(sub.Interface()); err == nil {
					q.Set(jp, strings.Trim(string(b), `"`))
				}
			default:
				queryParams(sub, skip, q, pp+".", jp+".")
			}
		default:
			q.Add(jp, scalarString(fd, v))
		}
		return true
	})
}

func scalarString(fd protoreflect.FieldDescriptor, v protoreflect.Value) string {
	switch fd.Kind() {
	case protoreflect.StringKind:
		return v.String()
	case protoreflect.BoolKind:
		return strconv.FormatBool(v.Bool())
	case protoreflect.EnumKind:
		return strconv.FormatInt(int64(v.Enum()), 10)
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return strconv.FormatInt(v.Int(), 10)
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return strconv.FormatUint(v.Uint(), 10)
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case protoreflect.BytesKind:
		return base64.StdEncoding.EncodeToString(v.Bytes())
	default:
		return fmt.Sprint(v.Interface())
	}
}

// fieldMaskString renders a google.protobuf.FieldMask as its canonical
// comma-joined form.
func fieldMaskString(m protoreflect.Message) string {
	fd := m.Descriptor().Fields().ByName("paths")
	if fd == nil {
		return ""
	}
	list := m.Get(fd).List()
	paths := make([]string, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		paths = append(paths, list.Get(i).String())
	}
	return strings.Join(paths, ",")
}
