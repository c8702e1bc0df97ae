package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kgraph/application/editor"
	"kgraph/domain/core/aggregates"
	"kgraph/domain/core/valueobjects"
	"kgraph/domain/machine"
	"kgraph/pkg/common"
	"kgraph/pkg/errors"
	"kgraph/pkg/utils"
)

const maxBodyBytes = 4 << 20

// EditorHandler exposes the editor over HTTP. Every mutation is an
// event dispatched into the state machine; reads come from the editor's
// snapshot and projections.
type EditorHandler struct {
	editor *editor.Editor
	logger *zap.Logger
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(ed *editor.Editor, logger *zap.Logger) *EditorHandler {
	return &EditorHandler{
		editor: ed,
		logger: logger,
	}
}

// GetState handles GET /state
func (h *EditorHandler) GetState(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.editor.Snapshot())
}

// eventEnvelope is the wire shape for dispatched events. Only the
// fields the named event type uses are read; the rest stay zero.
type eventEnvelope struct {
	Type     string                 `json:"type" validate:"required"`
	Title    string                 `json:"title,omitempty"`
	GraphID  string                 `json:"graphId,omitempty"`
	NodeID   string                 `json:"nodeId,omitempty"`
	SourceID string                 `json:"sourceId,omitempty"`
	TargetID string                 `json:"targetId,omitempty"`
	EdgeID   string                 `json:"edgeId,omitempty"`
	Label    string                 `json:"label,omitempty"`
	Content  string                 `json:"content,omitempty"`
	X        float64                `json:"x,omitempty"`
	Y        float64                `json:"y,omitempty"`
	Payload  json.RawMessage        `json:"payload,omitempty"`
	Viewport *valueobjects.Viewport `json:"viewport,omitempty"`
}

// dispatchResult is the response for a dispatched event
type dispatchResult struct {
	State    string          `json:"state"`
	Snapshot editor.Snapshot `json:"snapshot"`
}

// DispatchEvent handles POST /events
func (h *EditorHandler) DispatchEvent(w http.ResponseWriter, r *http.Request) {
	var env eventEnvelope
	if err := common.ParseJSONBody(r, &env, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&env); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	ev, err := decodeEvent(env)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	state := h.editor.Dispatch(r.Context(), ev)
	common.RespondJSON(w, http.StatusOK, dispatchResult{
		State:    state.String(),
		Snapshot: h.editor.Snapshot(),
	})
}

// decodeEvent maps an envelope onto a machine event. Feedback events
// raised by effect execution are not dispatchable from outside.
func decodeEvent(env eventEnvelope) (machine.Event, error) {
	switch env.Type {
	case "CREATE_GRAPH":
		return machine.EvCreateGraph{Title: env.Title}, nil
	case "START_GRAPH_CREATE":
		return machine.EvStartGraphCreate{}, nil
	case "SELECT_GRAPH":
		return machine.EvSelectGraph{GraphID: aggregates.GraphID(env.GraphID)}, nil
	case "DELETE_GRAPH":
		return machine.EvDeleteGraph{GraphID: aggregates.GraphID(env.GraphID)}, nil

	case "START_NODE_CREATE":
		return machine.EvStartNodeCreate{}, nil
	case "ADD_NODE":
		id := valueobjects.NewNodeID()
		if env.NodeID != "" {
			parsed, err := valueobjects.NewNodeIDFromString(env.NodeID)
			if err != nil {
				return nil, err
			}
			id = parsed
		}
		return machine.EvAddNode{ID: id, Label: env.Label}, nil
	case "SELECT_NODE":
		id, err := valueobjects.NewNodeIDFromString(env.NodeID)
		if err != nil {
			return nil, err
		}
		return machine.EvSelectNode{NodeID: id}, nil
	case "START_NODE_MOVE":
		id, err := valueobjects.NewNodeIDFromString(env.NodeID)
		if err != nil {
			return nil, err
		}
		return machine.EvStartNodeMove{NodeID: id}, nil
	case "POSITION_SET":
		id, err := valueobjects.NewNodeIDFromString(env.NodeID)
		if err != nil {
			return nil, err
		}
		return machine.EvPositionSet{NodeID: id, X: env.X, Y: env.Y}, nil
	case "START_NODE_EDIT":
		id, err := valueobjects.NewNodeIDFromString(env.NodeID)
		if err != nil {
			return nil, err
		}
		return machine.EvStartNodeEdit{NodeID: id}, nil
	case "RENAME_NODE":
		id, err := valueobjects.NewNodeIDFromString(env.NodeID)
		if err != nil {
			return nil, err
		}
		return machine.EvRenameNode{NodeID: id, Label: env.Label}, nil
	case "START_CONNECT":
		id, err := valueobjects.NewNodeIDFromString(env.SourceID)
		if err != nil {
			return nil, err
		}
		return machine.EvStartConnect{SourceID: id}, nil
	case "CONNECT_NODES":
		source, err := valueobjects.NewNodeIDFromString(env.SourceID)
		if err != nil {
			return nil, err
		}
		target, err := valueobjects.NewNodeIDFromString(env.TargetID)
		if err != nil {
			return nil, err
		}
		return machine.EvConnectNodes{EdgeID: env.EdgeID, SourceID: source, TargetID: target}, nil
	case "START_NODE_DELETE":
		id, err := valueobjects.NewNodeIDFromString(env.NodeID)
		if err != nil {
			return nil, err
		}
		return machine.EvStartNodeDelete{NodeID: id}, nil

	case "CONFIRM":
		return machine.EvConfirm{}, nil
	case "CANCEL":
		return machine.EvCancel{}, nil
	case "CLOSE":
		return machine.EvClose{}, nil

	case "CHAT":
		return machine.EvChat{}, nil
	case "SEND_MESSAGE":
		return machine.EvSendMessage{Content: env.Content}, nil
	case "APPEND_TRANSCRIPT":
		return machine.EvAppendTranscript{}, nil

	case "IMPORT":
		return machine.EvImport{Payload: env.Payload}, nil
	case "EXPORT":
		return machine.EvExport{}, nil
	case "CLEAR_DATA":
		return machine.EvClearData{}, nil
	case "OPEN_SETTINGS":
		return machine.EvOpenSettings{}, nil

	case "SET_VIEWPORT":
		if env.Viewport == nil {
			return nil, fmt.Errorf("SET_VIEWPORT requires a viewport")
		}
		return machine.EvSetViewport{Viewport: *env.Viewport}, nil

	case "RETRY":
		return machine.EvRetry{}, nil
	case "CLEAR":
		return machine.EvClear{}, nil

	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
}

// GetElements handles GET /graphs/{graphID}/elements
func (h *EditorHandler) GetElements(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	if graphID == "" {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "graph ID is required")
		return
	}

	elements, err := h.editor.Elements(aggregates.GraphID(graphID))
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, elements)
}

// GetViewport handles GET /graphs/{graphID}/viewport
func (h *EditorHandler) GetViewport(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	vp, err := h.editor.Viewport(r.Context(), aggregates.GraphID(graphID))
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, vp)
}

// PutViewport handles PUT /graphs/{graphID}/viewport
func (h *EditorHandler) PutViewport(w http.ResponseWriter, r *http.Request) {
	var vp valueobjects.Viewport
	if err := common.ParseJSONBody(r, &vp, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid viewport body")
		return
	}
	h.editor.SetViewport(r.Context(), vp)
	common.RespondJSON(w, http.StatusOK, vp)
}

// layoutResult reports which nodes the layout run placed
type layoutResult struct {
	Placed []string `json:"placed"`
}

// RunLayout handles POST /graphs/{graphID}/layout
func (h *EditorHandler) RunLayout(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	placed, err := h.editor.RunLayout(r.Context(), aggregates.GraphID(graphID))
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	result := layoutResult{Placed: make([]string, 0, len(placed))}
	for _, id := range placed {
		result.Placed = append(result.Placed, id.String())
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// createChildRequest is the body for adding a child node
type createChildRequest struct {
	Label string `json:"label" validate:"required,min=1,max=200"`
}

// AddChildNode handles POST /nodes/{nodeID}/children
func (h *EditorHandler) AddChildNode(w http.ResponseWriter, r *http.Request) {
	parentID, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid parent node ID")
		return
	}

	var req createChildRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	childID, err := h.editor.AddChildNode(r.Context(), parentID, req.Label)
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, map[string]string{"id": childID.String()})
}

// GetExport handles GET /export. The payload is the raw document of the
// most recent export flow, not wrapped in the response envelope.
func (h *EditorHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	payload := h.editor.LastExport()
	if payload == nil {
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "no export available")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="graph.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// respondAppError maps application errors onto HTTP statuses
func (h *EditorHandler) respondAppError(w http.ResponseWriter, err error) {
	appErr := errors.GetAppError(err)
	if appErr == nil {
		h.logger.Error("unclassified error", zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "internal error")
		return
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation:
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, appErr.Message)
	case errors.ErrorTypeNotFound:
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, appErr.Message)
	case errors.ErrorTypeConflict:
		common.RespondError(w, http.StatusConflict, common.StandardErrorCodes.Conflict, appErr.Message)
	case errors.ErrorTypeUnavailable:
		common.RespondError(w, http.StatusServiceUnavailable, common.StandardErrorCodes.ServiceUnavailable, appErr.Message)
	default:
		h.logger.Error("request failed", zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, appErr.Message)
	}
}
