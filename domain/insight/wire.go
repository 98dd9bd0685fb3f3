package insight

import (
	"insightminer/domain/dataset"
)

// CurrentSpace is the view the user is looking at.
type CurrentSpace struct {
	Dimensions []string `json:"dimensions"`
	Measures   []string `json:"measures"`
}

// ExplainRequest is the out-of-process explain message.
type ExplainRequest struct {
	Dimensions   []string                   `json:"dimensions"`
	Measures     []dataset.MeasureRef       `json:"measures"`
	Dataset      []dataset.Row              `json:"dataset"`
	Filters      map[string][]dataset.Value `json:"filters"`
	CurrentSpace CurrentSpace               `json:"currentSpace"`
}

// Channel names a visual encoding slot.
type Channel string

const (
	ChannelPosition Channel = "position"
	ChannelColor    Channel = "color"
	ChannelFacets   Channel = "facets"
	ChannelSize     Channel = "size"
)

// Schema maps fields to visual channels for rendering.
type Schema struct {
	Position []string `json:"position"`
	Color    []string `json:"color,omitempty"`
	Facets   []string `json:"facets,omitempty"`
	Size     []string `json:"size,omitempty"`
	GeomType string   `json:"geomType"`
}

// VisualizableSpace pairs a schema with the aggregated rows to draw.
type VisualizableSpace struct {
	Schema   Schema        `json:"schema"`
	DataView []dataset.Row `json:"dataView"`
}

// ExplainResponse is the out-of-process explain result. An internal failure
// yields the zero-length form, never an error.
type ExplainResponse struct {
	Explanations       []Space             `json:"explanations"`
	VisualizableSpaces []VisualizableSpace `json:"visualizableSpaces"`
	FieldSemanticTypes []dataset.FieldType `json:"fieldSemanticTypes"`
}

// EmptyResponse returns a well-formed response with empty lists.
func EmptyResponse() ExplainResponse {
	return ExplainResponse{
		Explanations:       []Space{},
		VisualizableSpaces: []VisualizableSpace{},
		FieldSemanticTypes: []dataset.FieldType{},
	}
}
