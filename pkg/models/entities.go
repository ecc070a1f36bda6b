package models

// LocationLabel is the NER label marking a span as a location mention.
const LocationLabel = "LOC"

type EntityMatch struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Entity is a named entity recognized in a text. Matches lists every mention
// of the entity; each match counts as one toponym occurrence.
type Entity struct {
	Name    string        `json:"name"`
	Label   string        `json:"label"`
	Matches []EntityMatch `json:"matches"`
}

type EntityRequestRecord struct {
	UUID     string `json:"uuid"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

type EntityResponseRecord struct {
	UUID     string   `json:"uuid"`
	Entities []Entity `json:"entities"`
}

type EntityRequest struct {
	Texts []EntityRequestRecord `json:"texts"`
}

type EntityResponse struct {
	Texts []EntityResponseRecord `json:"texts"`
}
