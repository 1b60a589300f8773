package handlers

import (
	"mindcanvas/application/commands"
	"mindcanvas/application/commands/bus"
	"mindcanvas/application/services"
	"mindcanvas/domain/core/aggregates"
	"mindcanvas/domain/core/valueobjects"
	"mindcanvas/infrastructure/persistence/document"
	pkgerrors "mindcanvas/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NodeHandlers executes node store commands
type NodeHandlers struct {
	session *services.Session
	logger  *zap.Logger
}

// NewNodeHandlers creates node command handlers
func NewNodeHandlers(session *services.Session, logger *zap.Logger) *NodeHandlers {
	return &NodeHandlers{session: session, logger: logger}
}

// Register adds every node command to b
func (h *NodeHandlers) Register(b *bus.CommandBus) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.CreateNodeCommand{}, onSession(h.session, h.createNode)},
		{commands.UpdateNodeCommand{}, onSession(h.session, h.updateNode)},
		{commands.MoveNodeCommand{}, onSession(h.session, h.moveNode)},
		{commands.ResizeNodeCommand{}, onSession(h.session, h.resizeNode)},
		{commands.DeleteNodeCommand{}, onSession(h.session, h.deleteNode)},
		{commands.ToggleCompletedCommand{}, onSession(h.session, h.toggleCompleted)},
		{commands.ToggleFormatCommand{}, onSession(h.session, h.toggleFormat)},
		{commands.AddConnectionCommand{}, onSession(h.session, h.addConnection)},
		{commands.RemoveConnectionCommand{}, onSession(h.session, h.removeConnection)},
		{commands.AddMediaCommand{}, onSession(h.session, h.addMedia)},
		{commands.RemoveMediaCommand{}, onSession(h.session, h.removeMedia)},
	}
	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *NodeHandlers) createNode(w *services.Workspace, cmd commands.CreateNodeCommand) (interface{}, error) {
	var parent *valueobjects.NodeID
	if cmd.ParentID != nil && *cmd.ParentID != "" {
		id := valueobjects.MustNodeID(*cmd.ParentID)
		parent = &id
	}
	node, err := w.Map.CreateNode(parent, cmd.X, cmd.Y)
	if err != nil {
		return nil, err
	}
	return document.FromState(node.State()), nil
}

func (h *NodeHandlers) updateNode(w *services.Workspace, cmd commands.UpdateNodeCommand) (interface{}, error) {
	id, err := parseID("nodeId", cmd.NodeID)
	if err != nil {
		return nil, err
	}
	patch := aggregates.NodePatch{
		Title:       cmd.Title,
		Description: cmd.Description,
		Completed:   cmd.Completed,
	}
	if cmd.Formatting != nil {
		f := cmd.Formatting.ToFormatting()
		patch.Formatting = &f
	}
	if cmd.Chat != nil {
		chat := document.ChatMessages(*cmd.Chat)
		patch.Chat = &chat
	}
	if err := w.Map.UpdateNode(id, patch); err != nil {
		return nil, err
	}
	return nodeRecord(w, id)
}

func (h *NodeHandlers) moveNode(w *services.Workspace, cmd commands.MoveNodeCommand) (interface{}, error) {
	id, err := parseID("nodeId", cmd.NodeID)
	if err != nil {
		return nil, err
	}
	if err := w.Map.MoveNode(id, cmd.X, cmd.Y); err != nil {
		return nil, err
	}
	return nodeRecord(w, id)
}

func (h *NodeHandlers) resizeNode(w *services.Workspace, cmd commands.ResizeNodeCommand) (interface{}, error) {
	id, err := parseID("nodeId", cmd.NodeID)
	if err != nil {
		return nil, err
	}
	size, err := w.Map.ResizeNode(id, cmd.Width, cmd.Height)
	if err != nil {
		return nil, err
	}
	return size, nil
}

// DeleteResult lists every node removed by a cascade delete
type DeleteResult struct {
	Removed []string `json:"removed"`
}

func (h *NodeHandlers) deleteNode(w *services.Workspace, cmd commands.DeleteNodeCommand) (interface{}, error) {
	id, err := parseID("nodeId", cmd.NodeID)
	if err != nil {
		return nil, err
	}
	removed, err := w.Map.DeleteNode(id)
	if err != nil {
		return nil, err
	}
	out := DeleteResult{Removed: make([]string, 0, len(removed))}
	for _, r := range removed {
		out.Removed = append(out.Removed, r.String())
	}
	h.logger.Debug("Nodes deleted", zap.String("root", id.String()), zap.Int("count", len(removed)))
	return out, nil
}

func (h *NodeHandlers) toggleCompleted(w *services.Workspace, cmd commands.ToggleCompletedCommand) (interface{}, error) {
	id, err := parseID("nodeId", cmd.NodeID)
	if err != nil {
		return nil, err
	}
	if err := w.Map.ToggleCompleted(id); err != nil {
		return nil, err
	}
	return nodeRecord(w, id)
}

func (h *NodeHandlers) toggleFormat(w *services.Workspace, cmd commands.ToggleFormatCommand) (interface{}, error) {
	id, err := parseID("nodeId", cmd.NodeID)
	if err != nil {
		return nil, err
	}
	if err := w.Map.ToggleFormat(id, valueobjects.FormatFlag(cmd.Flag)); err != nil {
		return nil, err
	}
	return nodeRecord(w, id)
}

func (h *NodeHandlers) addConnection(w *services.Workspace, cmd commands.AddConnectionCommand) (interface{}, error) {
	from, err := parseID("from", cmd.From)
	if err != nil {
		return nil, err
	}
	to, err := parseID("to", cmd.To)
	if err != nil {
		return nil, err
	}
	return nil, w.Map.AddConnection(from, to)
}

// RemoveConnectionResult reports how many cross-links were dropped
type RemoveConnectionResult struct {
	Removed int `json:"removed"`
}

func (h *NodeHandlers) removeConnection(w *services.Workspace, cmd commands.RemoveConnectionCommand) (interface{}, error) {
	from, err := parseID("from", cmd.From)
	if err != nil {
		return nil, err
	}
	to, err := parseID("to", cmd.To)
	if err != nil {
		return nil, err
	}
	n, err := w.Map.RemoveConnection(from, to)
	if err != nil {
		return nil, err
	}
	return RemoveConnectionResult{Removed: n}, nil
}

func (h *NodeHandlers) addMedia(w *services.Workspace, cmd commands.AddMediaCommand) (interface{}, error) {
	id, err := parseID("nodeId", cmd.NodeID)
	if err != nil {
		return nil, err
	}
	record := cmd.Media
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Name == "" {
		record.Name = record.URL
	}
	media, err := record.ToMedia()
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	if err := w.Map.AddMedia(id, media); err != nil {
		return nil, err
	}
	return nodeRecord(w, id)
}

func (h *NodeHandlers) removeMedia(w *services.Workspace, cmd commands.RemoveMediaCommand) (interface{}, error) {
	id, err := parseID("nodeId", cmd.NodeID)
	if err != nil {
		return nil, err
	}
	if err := w.Map.RemoveMedia(id, cmd.MediaID); err != nil {
		return nil, err
	}
	return nodeRecord(w, id)
}

func nodeRecord(w *services.Workspace, id valueobjects.NodeID) (document.NodeRecord, error) {
	node, ok := w.Map.Node(id)
	if !ok {
		return document.NodeRecord{}, pkgerrors.NewNotFoundError("node")
	}
	return document.FromState(node.State()), nil
}
