package index

import (
	"github.com/kailas-cloud/searchbot/internal/db"
	"github.com/kailas-cloud/searchbot/internal/domain/document"
)

// Names of the schema components created with the index.
const (
	SuggesterName       = "my-suggester"
	SemanticConfigName  = "my-semantic-config-default"
	VectorProfileName   = "vector-profile"
	VectorAlgorithmName = "hnsw-config"
)

// DefaultDefinition builds the fixed document schema: a key, searchable text fields,
// a suggester over name and content, and one semantic configuration that ranks the
// title first and then the content fields. vectorDims > 0 adds an HNSW vector field.
func DefaultDefinition(name string, vectorDims int) *db.IndexDefinition {
	def := &db.IndexDefinition{
		Name: name,
		Fields: []db.IndexField{
			{Name: document.FieldID, Type: db.FieldString, Key: true, Retrievable: true, Filterable: true},
			{Name: document.FieldTitle, Type: db.FieldString, Searchable: true, Retrievable: true},
			{Name: document.FieldSourceURI, Type: db.FieldString, Searchable: true, Retrievable: true},
			{Name: document.FieldContent, Type: db.FieldString, Searchable: true, Retrievable: true},
			{Name: document.FieldDisplayTitle, Type: db.FieldString, Searchable: true, Retrievable: true},
		},
		Suggesters: []db.Suggester{
			{Name: SuggesterName, SourceFields: []string{document.FieldTitle, document.FieldContent}},
		},
		SemanticConfigs: []db.SemanticConfig{
			{
				Name:          SemanticConfigName,
				TitleField:    document.FieldDisplayTitle,
				ContentFields: []string{document.FieldContent, document.FieldTitle},
			},
		},
		DefaultSemanticConfig: SemanticConfigName,
		CORSAllowedOrigins:    []string{"*"},
	}

	if vectorDims > 0 {
		def.Fields = append(def.Fields, db.IndexField{
			Name:          document.FieldVector,
			Type:          db.FieldSingleCollection,
			Searchable:    true,
			Retrievable:   false,
			Dimensions:    vectorDims,
			VectorProfile: VectorProfileName,
		})
		def.VectorProfiles = []db.VectorProfile{
			{Name: VectorProfileName, Algorithm: VectorAlgorithmName},
		}
		def.VectorAlgorithms = []db.VectorAlgorithmConfig{
			{
				Name:           VectorAlgorithmName,
				Kind:           db.VectorHNSW,
				M:              4,
				EFConstruction: 400,
				EFSearch:       500,
				Metric:         "cosine",
			},
		}
	}

	return def
}

// documentFields maps a document to the index field names.
func documentFields(doc *document.Document) map[string]any {
	fields := map[string]any{
		document.FieldID:           doc.ID(),
		document.FieldTitle:        doc.Title(),
		document.FieldSourceURI:    doc.SourceURI(),
		document.FieldContent:      doc.Content(),
		document.FieldDisplayTitle: doc.DisplayTitle(),
	}
	if doc.HasVector() {
		fields[document.FieldVector] = doc.Vector()
	}
	return fields
}
