package extraction_test

import (
	"fmt"

	"github.com/cucumber/godog"

	"github.com/scanforge/scanforge/internal/classify"
	"github.com/scanforge/scanforge/internal/fields"
	"github.com/scanforge/scanforge/internal/pipeline"
)

// scenarioState carries the document through one scenario.
type scenarioState struct {
	pl      *pipeline.Pipeline
	text    string
	docType classify.DocumentType
	fields  []fields.Field
}

func InitializeScenario(sc *godog.ScenarioContext) {
	state := &scenarioState{}

	sc.Step(`^a document with the lines:$`, state.givenDocument)
	sc.Step(`^the document text is processed$`, state.whenProcessed)
	sc.Step(`^the document type is "([^"]*)"$`, state.thenDocumentType)
	sc.Step(`^field "([^"]*)" has value "([^"]*)"$`, state.thenFieldValue)
	sc.Step(`^no field "([^"]*)" is extracted$`, state.thenNoField)
}

func (s *scenarioState) givenDocument(doc *godog.DocString) error {
	s.text = doc.Content
	s.docType = classify.Generic
	s.fields = nil
	return nil
}

func (s *scenarioState) whenProcessed() error {
	if s.pl == nil {
		pl, err := pipeline.NewBuilder().Build()
		if err != nil {
			return err
		}
		s.pl = pl
	}
	s.docType, s.fields = s.pl.ExtractFields(s.text)
	return nil
}

func (s *scenarioState) thenDocumentType(want string) error {
	if got := s.docType.String(); got != want {
		return fmt.Errorf("document type is %q, want %q", got, want)
	}
	return nil
}

func (s *scenarioState) thenFieldValue(label, want string) error {
	for _, f := range s.fields {
		if f.Label == label {
			if f.Value != want {
				return fmt.Errorf("field %q has value %q, want %q", label, f.Value, want)
			}
			return nil
		}
	}
	return fmt.Errorf("field %q not extracted (got %d fields)", label, len(s.fields))
}

func (s *scenarioState) thenNoField(label string) error {
	for _, f := range s.fields {
		if f.Label == label {
			return fmt.Errorf("field %q was extracted with value %q", label, f.Value)
		}
	}
	return nil
}
