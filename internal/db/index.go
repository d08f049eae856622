package db

import (
	"errors"
	"strconv"
)

// FieldType is an Entity Data Model type name used by the search service.
type FieldType string

const (
	// FieldString is a text field.
	FieldString FieldType = "Edm.String"
	// FieldSingleCollection is a vector field of float32 components.
	FieldSingleCollection FieldType = "Collection(Edm.Single)"
)

// VectorAlgorithm selects the approximate nearest-neighbor algorithm for vector fields.
type VectorAlgorithm string

const (
	// VectorHNSW uses the HNSW algorithm.
	VectorHNSW VectorAlgorithm = "hnsw"
	// VectorExhaustiveKNN uses brute-force search.
	VectorExhaustiveKNN VectorAlgorithm = "exhaustiveKnn"
)

// IndexField describes a single field in an index schema.
type IndexField struct {
	Name        string
	Type        FieldType
	Key         bool
	Searchable  bool
	Filterable  bool
	Sortable    bool
	Retrievable bool

	// Vector options
	Dimensions    int
	VectorProfile string
}

// Suggester enables autocomplete over a set of source fields.
type Suggester struct {
	Name         string
	SourceFields []string
}

// SemanticConfig tells the semantic ranker which fields hold the title and the content.
type SemanticConfig struct {
	Name          string
	TitleField    string
	ContentFields []string
	KeywordFields []string
}

// VectorProfile binds vector fields to an algorithm configuration.
type VectorProfile struct {
	Name      string
	Algorithm string
}

// VectorAlgorithmConfig configures one ANN algorithm.
type VectorAlgorithmConfig struct {
	Name           string
	Kind           VectorAlgorithm
	M              int // HNSW bi-directional links per node (4-10)
	EFConstruction int // HNSW build-time list size (100-1000)
	EFSearch       int // HNSW query-time list size (100-1000)
	Metric         string
}

// IndexDefinition is a complete index schema used by create-or-update-index.
type IndexDefinition struct {
	Name                  string
	Fields                []IndexField
	Suggesters            []Suggester
	SemanticConfigs       []SemanticConfig
	DefaultSemanticConfig string
	VectorProfiles        []VectorProfile
	VectorAlgorithms      []VectorAlgorithmConfig
	CORSAllowedOrigins    []string
	CORSMaxAgeInSeconds   int
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIndexName(idx.Name) {
		return errors.New("index name must be lowercase letters, digits or dashes (2-128 chars)")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool)
	keys := 0
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return errors.New("field name is required at index " + strconv.Itoa(i))
		}
		if seen[f.Name] {
			return errors.New("duplicate field name: " + f.Name)
		}
		seen[f.Name] = true

		if f.Key {
			keys++
			if f.Type != FieldString {
				return errors.New("key field must be Edm.String: " + f.Name)
			}
		}
		if f.Type == FieldSingleCollection {
			if f.Dimensions <= 0 {
				return errors.New("vector field requires positive dimensions: " + f.Name)
			}
			if !idx.hasVectorProfile(f.VectorProfile) {
				return errors.New("vector field references unknown profile: " + f.Name)
			}
		}
	}
	if keys != 1 {
		return errors.New("exactly one key field is required")
	}

	for _, s := range idx.Suggesters {
		for _, sf := range s.SourceFields {
			if !seen[sf] {
				return errors.New("suggester " + s.Name + " references unknown field: " + sf)
			}
		}
	}
	for _, sc := range idx.SemanticConfigs {
		if sc.TitleField != "" && !seen[sc.TitleField] {
			return errors.New("semantic config " + sc.Name + " references unknown field: " + sc.TitleField)
		}
		for _, cf := range sc.ContentFields {
			if !seen[cf] {
				return errors.New("semantic config " + sc.Name + " references unknown field: " + cf)
			}
		}
	}

	return nil
}

func (idx *IndexDefinition) hasVectorProfile(name string) bool {
	for _, p := range idx.VectorProfiles {
		if p.Name == name {
			return true
		}
	}
	return false
}

// IsValidIndexName returns true if s is 2-128 chars of [a-z0-9-], starting and ending
// with a letter or digit and without consecutive dashes.
func IsValidIndexName(s string) bool {
	if len(s) < 2 || len(s) > 128 {
		return false
	}
	prevDash := false
	for i, r := range s {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		isDash := r == '-'
		if !isLower && !isDigit && !isDash {
			return false
		}
		if isDash && (i == 0 || i == len(s)-1 || prevDash) {
			return false
		}
		prevDash = isDash
	}
	return true
}
