// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"net/http"

	"github.com/go-a2a/aiplatform/internal/pathtemplate"
)

// MethodBinding binds one RPC method to its HTTP surface: a verb, an
// ordered list of URL path templates, and the request field carried in the
// body. Bindings are code-time constants; templates are tried in listed
// order and the first one whose variables all resolve wins, which matters
// where templates for different resource kinds (or the internal "/ui"
// prefix family) overlap in shape.
type MethodBinding struct {
	// Verb is the HTTP method, e.g. http.MethodPost.
	Verb string

	// Templates is the ordered template list, e.g.
	// "/v1/{parent=projects/*/locations/*}/datasets".
	Templates []string

	// Body names the request field serialized as the HTTP body. "" means no
	// body, "*" means the whole request message less the fields bound by the
	// matched path template.
	Body string
}

// Get, Post, Patch and Delete build a single-template binding. They exist
// to keep per-service binding tables readable.

func Get(template string) MethodBinding {
	return MethodBinding{Verb: http.MethodGet, Templates: []string{template}}
}

func Post(template, body string) MethodBinding {
	return MethodBinding{Verb: http.MethodPost, Templates: []string{template}, Body: body}
}

func Patch(template, body string) MethodBinding {
	return MethodBinding{Verb: http.MethodPatch, Templates: []string{template}, Body: body}
}

func Delete(template string) MethodBinding {
	return MethodBinding{Verb: http.MethodDelete, Templates: []string{template}}
}

// compiledBinding is a MethodBinding with its templates parsed.
type compiledBinding struct {
	MethodBinding
	templates []*pathtemplate.Template
}

func compileBindings(bindings map[string]MethodBinding) map[string]*compiledBinding {
	compiled := make(map[string]*compiledBinding, len(bindings))
	for method, b := range bindings {
		cb := &compiledBinding{MethodBinding: b}
		for _, raw := range b.Templates {
			cb.templates = append(cb.templates, pathtemplate.MustParse(raw))
		}
		compiled[method] = cb
	}
	return compiled
}
