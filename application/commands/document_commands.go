package commands

import pkgerrors "mindcanvas/pkg/errors"

// ImportDocumentCommand replaces the mind map with an uploaded document
type ImportDocumentCommand struct {
	Data []byte
}

// Validate validates the command
func (c ImportDocumentCommand) Validate() error {
	if len(c.Data) == 0 {
		return pkgerrors.NewInvalidDocumentError("document is empty")
	}
	return nil
}

// SaveDocumentCommand writes the autosave document now
type SaveDocumentCommand struct{}

// Validate validates the command
func (c SaveDocumentCommand) Validate() error { return nil }

// ClearStorageCommand removes the autosave document. The open map is kept.
type ClearStorageCommand struct{}

// Validate validates the command
func (c ClearStorageCommand) Validate() error { return nil }
