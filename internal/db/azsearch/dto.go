package azsearch

import (
	"github.com/kailas-cloud/searchbot/internal/db"
)

// Wire shapes of the search service REST API.

type indexDTO struct {
	Name         string           `json:"name"`
	Fields       []fieldDTO       `json:"fields"`
	Suggesters   []suggesterDTO   `json:"suggesters,omitempty"`
	CORSOptions  *corsDTO         `json:"corsOptions,omitempty"`
	Semantic     *semanticDTO     `json:"semantic,omitempty"`
	VectorSearch *vectorSearchDTO `json:"vectorSearch,omitempty"`
}

type fieldDTO struct {
	Name                string `json:"name"`
	Type                string `json:"type"`
	Key                 bool   `json:"key"`
	Searchable          bool   `json:"searchable"`
	Filterable          bool   `json:"filterable"`
	Sortable            bool   `json:"sortable"`
	Retrievable         bool   `json:"retrievable"`
	Dimensions          int    `json:"dimensions,omitempty"`
	VectorSearchProfile string `json:"vectorSearchProfile,omitempty"`
}

type suggesterDTO struct {
	Name         string   `json:"name"`
	SearchMode   string   `json:"searchMode"`
	SourceFields []string `json:"sourceFields"`
}

type corsDTO struct {
	AllowedOrigins  []string `json:"allowedOrigins"`
	MaxAgeInSeconds int      `json:"maxAgeInSeconds,omitempty"`
}

type semanticDTO struct {
	DefaultConfiguration string              `json:"defaultConfiguration,omitempty"`
	Configurations       []semanticConfigDTO `json:"configurations"`
}

type semanticConfigDTO struct {
	Name              string               `json:"name"`
	PrioritizedFields prioritizedFieldsDTO `json:"prioritizedFields"`
}

type prioritizedFieldsDTO struct {
	TitleField                *fieldRefDTO  `json:"titleField,omitempty"`
	PrioritizedContentFields  []fieldRefDTO `json:"prioritizedContentFields"`
	PrioritizedKeywordsFields []fieldRefDTO `json:"prioritizedKeywordsFields,omitempty"`
}

type fieldRefDTO struct {
	FieldName string `json:"fieldName"`
}

type vectorSearchDTO struct {
	Algorithms []algorithmDTO `json:"algorithms"`
	Profiles   []profileDTO   `json:"profiles"`
}

type algorithmDTO struct {
	Name           string   `json:"name"`
	Kind           string   `json:"kind"`
	HNSWParameters *hnswDTO `json:"hnswParameters,omitempty"`
}

type hnswDTO struct {
	M              int    `json:"m,omitempty"`
	EFConstruction int    `json:"efConstruction,omitempty"`
	EFSearch       int    `json:"efSearch,omitempty"`
	Metric         string `json:"metric,omitempty"`
}

type profileDTO struct {
	Name      string `json:"name"`
	Algorithm string `json:"algorithm"`
}

type searchRequestDTO struct {
	Search                string           `json:"search,omitempty"`
	QueryType             string           `json:"queryType,omitempty"`
	SemanticConfiguration string           `json:"semanticConfiguration,omitempty"`
	SearchFields          string           `json:"searchFields,omitempty"`
	Select                string           `json:"select,omitempty"`
	Top                   int              `json:"top,omitempty"`
	VectorQueries         []vectorQueryDTO `json:"vectorQueries,omitempty"`
}

type vectorQueryDTO struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	K      int       `json:"k"`
	Fields string    `json:"fields"`
}

type searchResponseDTO struct {
	Value []map[string]any `json:"value"`
}

type indexBatchResponseDTO struct {
	Value []indexingResultDTO `json:"value"`
}

type indexingResultDTO struct {
	Key          string  `json:"key"`
	Status       bool    `json:"status"`
	ErrorMessage *string `json:"errorMessage"`
	StatusCode   int     `json:"statusCode"`
}

type errorResponseDTO struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

const (
	scoreKey         = "@search.score"
	rerankerScoreKey = "@search.rerankerScore"
	actionKey        = "@search.action"
)

func indexToDTO(def *db.IndexDefinition) indexDTO {
	out := indexDTO{Name: def.Name}

	for _, f := range def.Fields {
		out.Fields = append(out.Fields, fieldDTO{
			Name:                f.Name,
			Type:                string(f.Type),
			Key:                 f.Key,
			Searchable:          f.Searchable,
			Filterable:          f.Filterable,
			Sortable:            f.Sortable,
			Retrievable:         f.Retrievable,
			Dimensions:          f.Dimensions,
			VectorSearchProfile: f.VectorProfile,
		})
	}

	for _, s := range def.Suggesters {
		out.Suggesters = append(out.Suggesters, suggesterDTO{
			Name:         s.Name,
			SearchMode:   "analyzingInfixMatching",
			SourceFields: s.SourceFields,
		})
	}

	if len(def.CORSAllowedOrigins) > 0 {
		out.CORSOptions = &corsDTO{
			AllowedOrigins:  def.CORSAllowedOrigins,
			MaxAgeInSeconds: def.CORSMaxAgeInSeconds,
		}
	}

	if len(def.SemanticConfigs) > 0 {
		sem := &semanticDTO{DefaultConfiguration: def.DefaultSemanticConfig}
		for _, sc := range def.SemanticConfigs {
			pf := prioritizedFieldsDTO{PrioritizedContentFields: []fieldRefDTO{}}
			if sc.TitleField != "" {
				pf.TitleField = &fieldRefDTO{FieldName: sc.TitleField}
			}
			for _, cf := range sc.ContentFields {
				pf.PrioritizedContentFields = append(pf.PrioritizedContentFields, fieldRefDTO{FieldName: cf})
			}
			for _, kf := range sc.KeywordFields {
				pf.PrioritizedKeywordsFields = append(pf.PrioritizedKeywordsFields, fieldRefDTO{FieldName: kf})
			}
			sem.Configurations = append(sem.Configurations, semanticConfigDTO{Name: sc.Name, PrioritizedFields: pf})
		}
		out.Semantic = sem
	}

	if len(def.VectorProfiles) > 0 {
		vs := &vectorSearchDTO{}
		for _, a := range def.VectorAlgorithms {
			alg := algorithmDTO{Name: a.Name, Kind: string(a.Kind)}
			if a.Kind == db.VectorHNSW {
				alg.HNSWParameters = &hnswDTO{
					M: a.M, EFConstruction: a.EFConstruction, EFSearch: a.EFSearch, Metric: a.Metric,
				}
			}
			vs.Algorithms = append(vs.Algorithms, alg)
		}
		for _, p := range def.VectorProfiles {
			vs.Profiles = append(vs.Profiles, profileDTO(p))
		}
		out.VectorSearch = vs
	}

	return out
}

func indexFromDTO(in *indexDTO) *db.IndexDefinition {
	def := &db.IndexDefinition{Name: in.Name}

	for _, f := range in.Fields {
		def.Fields = append(def.Fields, db.IndexField{
			Name:          f.Name,
			Type:          db.FieldType(f.Type),
			Key:           f.Key,
			Searchable:    f.Searchable,
			Filterable:    f.Filterable,
			Sortable:      f.Sortable,
			Retrievable:   f.Retrievable,
			Dimensions:    f.Dimensions,
			VectorProfile: f.VectorSearchProfile,
		})
	}
	for _, s := range in.Suggesters {
		def.Suggesters = append(def.Suggesters, db.Suggester{Name: s.Name, SourceFields: s.SourceFields})
	}
	if in.CORSOptions != nil {
		def.CORSAllowedOrigins = in.CORSOptions.AllowedOrigins
		def.CORSMaxAgeInSeconds = in.CORSOptions.MaxAgeInSeconds
	}
	if in.Semantic != nil {
		def.DefaultSemanticConfig = in.Semantic.DefaultConfiguration
		for _, sc := range in.Semantic.Configurations {
			cfg := db.SemanticConfig{Name: sc.Name}
			if sc.PrioritizedFields.TitleField != nil {
				cfg.TitleField = sc.PrioritizedFields.TitleField.FieldName
			}
			for _, cf := range sc.PrioritizedFields.PrioritizedContentFields {
				cfg.ContentFields = append(cfg.ContentFields, cf.FieldName)
			}
			for _, kf := range sc.PrioritizedFields.PrioritizedKeywordsFields {
				cfg.KeywordFields = append(cfg.KeywordFields, kf.FieldName)
			}
			def.SemanticConfigs = append(def.SemanticConfigs, cfg)
		}
	}
	if in.VectorSearch != nil {
		for _, a := range in.VectorSearch.Algorithms {
			alg := db.VectorAlgorithmConfig{Name: a.Name, Kind: db.VectorAlgorithm(a.Kind)}
			if a.HNSWParameters != nil {
				alg.M = a.HNSWParameters.M
				alg.EFConstruction = a.HNSWParameters.EFConstruction
				alg.EFSearch = a.HNSWParameters.EFSearch
				alg.Metric = a.HNSWParameters.Metric
			}
			def.VectorAlgorithms = append(def.VectorAlgorithms, alg)
		}
		for _, p := range in.VectorSearch.Profiles {
			def.VectorProfiles = append(def.VectorProfiles, db.VectorProfile(p))
		}
	}

	return def
}
