// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// =============================================================================
// PROVIDER CATALOG
// =============================================================================

// Provider identifies a model vendor the backend can route to.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderClaude Provider = "claude"
)

// Providers lists the known vendors in display order.
func Providers() []Provider {
	return []Provider{ProviderGemini, ProviderOpenAI, ProviderClaude}
}

// providerModels is the static catalog. The backend rejects unknown models,
// so the client only offers these.
var providerModels = map[Provider][]string{
	ProviderGemini: {
		"gemini-2.0-flash",
		"gemini-2.0-flash-lite",
		"gemini-1.5-flash",
		"gemini-1.5-flash-8b",
	},
	ProviderOpenAI: {
		"gpt-4o-mini",
		"gpt-4o",
	},
	ProviderClaude: {
		"claude-3-5-haiku-latest",
		"claude-3-7-sonnet-latest",
	},
}

// ModelsFor returns the selectable models for a provider. The returned slice
// is a copy, callers may reorder it.
func ModelsFor(p Provider) []string {
	models, ok := providerModels[p]
	if !ok {
		return nil
	}
	out := make([]string, len(models))
	copy(out, models)
	return out
}

// DefaultModelFor returns the first catalog entry for a provider, which is
// also the model selected whenever the user switches provider.
func DefaultModelFor(p Provider) string {
	models := providerModels[p]
	if len(models) == 0 {
		return ""
	}
	return models[0]
}

// SwitchProvider returns the model to use after switching to provider p:
// the current model if p's catalog contains it, otherwise p's first entry.
func SwitchProvider(p Provider, currentModel string) string {
	for _, m := range providerModels[p] {
		if m == currentModel {
			return currentModel
		}
	}
	return DefaultModelFor(p)
}

// ProviderFromModel infers the vendor of a model name by prefix. Unknown
// names map to the empty provider.
func ProviderFromModel(model string) Provider {
	switch {
	case strings.HasPrefix(model, "gemini-"):
		return ProviderGemini
	case strings.HasPrefix(model, "gpt-"):
		return ProviderOpenAI
	case strings.HasPrefix(model, "claude-"):
		return ProviderClaude
	default:
		return Provider("")
	}
}

// ValidModel reports whether the model name appears in the catalog.
func ValidModel(model string) bool {
	for _, models := range providerModels {
		for _, m := range models {
			if m == model {
				return true
			}
		}
	}
	return false
}
