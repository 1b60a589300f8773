package handlers

import (
	"context"

	"mindcanvas/application/commands"
	"mindcanvas/application/commands/bus"
	"mindcanvas/application/services"

	"go.uber.org/zap"
)

// DocumentHandlers executes import, save and clear
type DocumentHandlers struct {
	session *services.Session
	gateway *services.PersistenceGateway
	logger  *zap.Logger
}

// NewDocumentHandlers creates document command handlers
func NewDocumentHandlers(session *services.Session, gateway *services.PersistenceGateway, logger *zap.Logger) *DocumentHandlers {
	return &DocumentHandlers{session: session, gateway: gateway, logger: logger}
}

// Register adds every document command to b
func (h *DocumentHandlers) Register(b *bus.CommandBus) error {
	if err := b.Register(commands.ImportDocumentCommand{}, typed(h.importDocument)); err != nil {
		return err
	}
	if err := b.Register(commands.SaveDocumentCommand{}, typed(h.save)); err != nil {
		return err
	}
	return b.Register(commands.ClearStorageCommand{}, typed(h.clear))
}

// ImportResult reports the node count after an import
type ImportResult struct {
	Nodes int `json:"nodes"`
}

func (h *DocumentHandlers) importDocument(ctx context.Context, cmd commands.ImportDocumentCommand) (interface{}, error) {
	if err := h.session.Import(ctx, cmd.Data); err != nil {
		return nil, err
	}
	nodes, err := h.session.Nodes(ctx)
	if err != nil {
		return nil, err
	}
	h.logger.Info("Document imported", zap.Int("nodes", len(nodes)))
	return ImportResult{Nodes: len(nodes)}, nil
}

func (h *DocumentHandlers) save(ctx context.Context, _ commands.SaveDocumentCommand) (interface{}, error) {
	return nil, h.session.Save(ctx)
}

func (h *DocumentHandlers) clear(ctx context.Context, _ commands.ClearStorageCommand) (interface{}, error) {
	if err := h.gateway.Clear(ctx); err != nil {
		return nil, err
	}
	h.logger.Info("Stored document cleared", zap.String("key", h.gateway.Key()))
	return nil, nil
}
