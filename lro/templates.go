// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package lro

import (
	"net/http"

	"github.com/go-a2a/aiplatform/internal/transport"
)

// operationOwners lists every resource kind that owns an operations
// collection, as the pattern of the owning resource name. The order is
// stable and meaningful: combined with the prefix families below it fixes
// the order of each method's template list, and transcoding picks the first
// match.
var operationOwners = []string{
	"projects/*/locations/*",
	"projects/*/locations/*/datasets/*",
	"projects/*/locations/*/datasets/*/dataItems/*",
	"projects/*/locations/*/datasets/*/savedQueries/*",
	"projects/*/locations/*/datasets/*/annotationSpecs/*",
	"projects/*/locations/*/datasets/*/dataItems/*/annotations/*",
	"projects/*/locations/*/deploymentResourcePools/*",
	"projects/*/locations/*/endpoints/*",
	"projects/*/locations/*/featurestores/*",
	"projects/*/locations/*/featurestores/*/entityTypes/*",
	"projects/*/locations/*/featurestores/*/entityTypes/*/features/*",
	"projects/*/locations/*/customJobs/*",
	"projects/*/locations/*/dataLabelingJobs/*",
	"projects/*/locations/*/hyperparameterTuningJobs/*",
	"projects/*/locations/*/indexes/*",
	"projects/*/locations/*/indexEndpoints/*",
	"projects/*/locations/*/metadataStores/*",
	"projects/*/locations/*/metadataStores/*/artifacts/*",
	"projects/*/locations/*/metadataStores/*/contexts/*",
	"projects/*/locations/*/metadataStores/*/executions/*",
	"projects/*/locations/*/models/*",
	"projects/*/locations/*/models/*/evaluations/*",
	"projects/*/locations/*/pipelineJobs/*",
	"projects/*/locations/*/schedules/*",
	"projects/*/locations/*/specialistPools/*",
	"projects/*/locations/*/studies/*",
	"projects/*/locations/*/studies/*/trials/*",
	"projects/*/locations/*/tensorboards/*",
	"projects/*/locations/*/tensorboards/*/experiments/*",
	"projects/*/locations/*/tensorboards/*/experiments/*/runs/*",
	"projects/*/locations/*/trainingPipelines/*",
	"projects/*/locations/*/batchPredictionJobs/*",
}

// prefixFamilies are the URL prefix families the backend serves. The
// internal "/ui" family mirrors "/v1" for every shape; "/v1" is listed
// first so the public routes win for overlapping names.
var prefixFamilies = []string{"/v1", "/ui"}

// operationTemplates expands the owner table into one ordered template
// list. suffix is appended after the bound name, e.g. ":cancel".
func operationTemplates(nameSuffix, pathSuffix string) []string {
	templates := make([]string, 0, len(prefixFamilies)*len(operationOwners))
	for _, prefix := range prefixFamilies {
		for _, owner := range operationOwners {
			templates = append(templates, prefix+"/{name="+owner+nameSuffix+"}"+pathSuffix)
		}
	}
	return templates
}

// operationBindings is the REST binding table for the Operations service,
// shared by every resource kind.
var operationBindings = map[string]transport.MethodBinding{
	"GetOperation": {
		Verb:      http.MethodGet,
		Templates: operationTemplates("/operations/*", ""),
	},
	"ListOperations": {
		Verb:      http.MethodGet,
		Templates: operationTemplates("", "/operations"),
	},
	"CancelOperation": {
		Verb:      http.MethodPost,
		Templates: operationTemplates("/operations/*", ":cancel"),
	},
	"DeleteOperation": {
		Verb:      http.MethodDelete,
		Templates: operationTemplates("/operations/*", ""),
	},
	"WaitOperation": {
		Verb:      http.MethodPost,
		Templates: operationTemplates("/operations/*", ":wait"),
	},
}
