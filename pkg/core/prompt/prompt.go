// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package prompt renders generation prompts. Every function is pure:
// identical input produces byte-identical output, so prompts are safe to
// build concurrently and to compare in tests.
package prompt

import (
	"fmt"
	"strings"

	"github.com/searchchat/searchchat-gw/pkg/websearch"
)

// Plain renders an instruction prompt for a query with no search context.
// The output never contains source blocks or citation markers.
func Plain(query string) string {
	var b strings.Builder
	b.WriteString("You are a helpful AI assistant.\n\n")
	fmt.Fprintf(&b, "User's question: %s\n\n", query)
	b.WriteString("Please provide a clear and concise answer to the user's question.\n")
	return b.String()
}

// WithContext renders a context-augmented prompt. Each result becomes one
// numbered source paragraph, in input order; no reordering by score, no
// deduplication, no truncation beyond whatever cap the search layer
// already applied. Citation markers [1]..[N] correspond 1:1 to the
// supplied results.
func WithContext(query string, results []websearch.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		blocks = append(blocks, fmt.Sprintf("Source %d: %s\nURL: %s\nContent: %s",
			i+1, r.Title, r.URL, r.Snippet))
	}

	var b strings.Builder
	b.WriteString("You are a helpful AI assistant that can answer questions using web search results.\n\n")
	fmt.Fprintf(&b, "User's question: %s\n\n", query)
	b.WriteString("Here are some relevant search results:\n\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\n")
	b.WriteString("Based on the above information, please provide a clear and concise answer to the user's question.\n")
	b.WriteString("If the search results don't contain enough information to answer the question, please say so.\n")
	b.WriteString("Include relevant source numbers (e.g., [1], [2]) to cite your information.\n")
	return b.String()
}

// Summarize renders an instruction prompt asking for a summary of the
// given text in at most maxSentences sentences.
func Summarize(text string, maxSentences int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please provide a concise summary of the following text in %d sentences or less.\n", maxSentences)
	b.WriteString("Focus on the key points and main ideas.\n\n")
	b.WriteString("Text to summarize:\n")
	b.WriteString(text)
	b.WriteString("\n\nSummary:\n")
	return b.String()
}
