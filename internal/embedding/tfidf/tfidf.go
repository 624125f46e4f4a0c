// Package tfidf is an offline embedding provider. Every batch is its own
// corpus: the vocabulary and IDF weights come from the texts being embedded.
package tfidf

import (
	"context"
	"math"
	"sort"

	"github.com/spigell/hh-indexer/internal/tokenize"
)

type Provider struct {
	stopwords map[string]struct{}
}

func New() *Provider {
	return &Provider{stopwords: defaultStopwords()}
}

func (p *Provider) Name() string { return "tfidf" }

// Embed returns L2-normalized TF-IDF vectors over the vocabulary of texts.
// A text with no known terms gets a zero vector.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	docs := make([][]string, len(texts))
	df := make(map[string]int)
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		docs[i] = p.terms(text)
		seen := make(map[string]struct{}, len(docs[i]))
		for _, term := range docs[i] {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocabulary := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(texts))
	for i, term := range terms {
		vocabulary[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	vectors := make([][]float32, len(texts))
	for i, doc := range docs {
		vectors[i] = vectorize(doc, vocabulary, idf)
	}
	return vectors, nil
}

func (p *Provider) terms(text string) []string {
	tokens := tokenize.Tokens(text)
	out := tokens[:0]
	for _, t := range tokens {
		if _, stop := p.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func vectorize(doc []string, vocabulary map[string]int, idf []float64) []float32 {
	vec := make([]float32, len(idf))
	if len(doc) == 0 {
		return vec
	}

	tf := make(map[int]int, len(doc))
	for _, term := range doc {
		tf[vocabulary[term]]++
	}

	weights := make([]float64, len(idf))
	norm := 0.0
	for idx, count := range tf {
		w := float64(count) / float64(len(doc)) * idf[idx]
		weights[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for idx, w := range weights {
		vec[idx] = float32(w / norm)
	}
	return vec
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "for", "to", "of", "in", "on", "at", "by", "with",
		"as", "is", "are", "was", "were", "be", "been", "it", "this", "that", "these", "those", "from", "we",
		"you", "our", "your", "will", "can", "about", "into", "than", "so", "such", "very",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
