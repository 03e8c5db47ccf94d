package epo

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/easypatent/patentscout/core"
)

// The OPS JSON rendering wraps leaf values in {"$": ...} objects and encodes
// single-element collections as bare objects instead of one-element arrays.
// Both quirks are normalized here, once, at the parse boundary; the rest of
// the code only ever sees typed values.

// oneOrMany decodes either a JSON array of T or a single T object.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = nil
		return nil
	}
	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*o = items
		return nil
	}
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*o = oneOrMany[T]{item}
	return nil
}

// stringValue decodes either a bare JSON string or a {"$": "..."} wrapper.
// Missing or malformed values decode to the empty string.
type stringValue struct {
	Value string
}

func (s *stringValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &s.Value)
	}
	var wrapped struct {
		Value string `json:"$"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	s.Value = wrapped.Value
	return nil
}

type searchResponse struct {
	WorldPatentData struct {
		BiblioSearch struct {
			SearchResult struct {
				PublicationReference oneOrMany[publicationReference] `json:"ops:publication-reference"`
			} `json:"ops:search-result"`
		} `json:"ops:biblio-search"`
	} `json:"ops:world-patent-data"`
}

type publicationReference struct {
	DocumentID documentID `json:"document-id"`
}

type documentID struct {
	IDType  string      `json:"@document-id-type"`
	Country stringValue `json:"country"`
	Number  stringValue `json:"doc-number"`
	Kind    stringValue `json:"kind"`
}

// refs converts the decoded search result into publication references.
// Fields missing from the response default to empty strings.
func (r *searchResponse) refs() []core.PublicationRef {
	raw := r.WorldPatentData.BiblioSearch.SearchResult.PublicationReference
	refs := make([]core.PublicationRef, 0, len(raw))
	for _, ref := range raw {
		refs = append(refs, core.PublicationRef{
			Country:   ref.DocumentID.Country.Value,
			DocNumber: ref.DocumentID.Number.Value,
			Kind:      ref.DocumentID.Kind.Value,
			IDType:    ref.DocumentID.IDType,
		})
	}
	return refs
}

type abstractResponse struct {
	WorldPatentData struct {
		ExchangeDocuments struct {
			ExchangeDocument oneOrMany[exchangeDocument] `json:"exchange-document"`
		} `json:"exchange-documents"`
	} `json:"ops:world-patent-data"`
}

type exchangeDocument struct {
	Abstract oneOrMany[abstractBlock] `json:"abstract"`
}

type abstractBlock struct {
	P oneOrMany[stringValue] `json:"p"`
}

// abstract extracts the abstract text, joining multiple paragraphs with a
// single space. Returns "" when the document carries no abstract.
func (r *abstractResponse) abstract() string {
	var paragraphs []string
	for _, doc := range r.WorldPatentData.ExchangeDocuments.ExchangeDocument {
		for _, block := range doc.Abstract {
			for _, p := range block.P {
				if text := strings.TrimSpace(p.Value); text != "" {
					paragraphs = append(paragraphs, text)
				}
			}
		}
	}
	return strings.Join(paragraphs, " ")
}
