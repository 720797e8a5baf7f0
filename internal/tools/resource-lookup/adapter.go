// internal/tools/resource-lookup/adapter.go
package resourcelookup

import (
	"context"
	"encoding/json"

	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/dispatch"
	"intake-orchestrator/internal/models"
)

// fallbackMessage is relayed when the directory is unreachable so the client
// still leaves with a way forward.
const fallbackMessage = "I couldn't reach the resource directory right now. You can dial 211 to speak with a community resource specialist directly."

// Adapter searches the 211 community resource directory. It handles no
// personal data, so it runs before consent and for anonymous sessions.
type Adapter struct {
	service *service
	logger  logger.Logger
}

func NewAdapter(cfg *Config, log logger.Logger) *Adapter {
	return &Adapter{
		service: newService(cfg),
		logger:  log.WithFields(map[string]interface{}{"tool": dispatch.ToolResourceLookup}),
	}
}

func (a *Adapter) Name() string       { return dispatch.ToolResourceLookup }
func (a *Adapter) NeedsConsent() bool { return false }

func (a *Adapter) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"keyword"},
		"properties": map[string]interface{}{
			"keyword":  map[string]interface{}{"type": "string", "minLength": 1},
			"zip_code": map[string]interface{}{"type": "string", "pattern": "^\\d{5}$"},
			"county":   map[string]interface{}{"type": "string"},
			"city":     map[string]interface{}{"type": "string"},
			"limit":    map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 20},
		},
	}
}

func (a *Adapter) Execute(ctx context.Context, s *models.Session, input map[string]interface{}) (map[string]interface{}, error) {
	var in Input
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}

	providers, err := a.service.search(ctx, &in)
	if err != nil {
		// Directory trouble degrades to the 211 phone line rather than
		// failing the turn.
		a.logger.Warn("resource directory unavailable", map[string]interface{}{
			"sessionId": s.SessionID,
			"keyword":   in.Keyword,
			"error":     err.Error(),
		})
		return map[string]interface{}{
			"resources": []models.ResourceProvider{},
			"count":     0,
			"fallback":  fallbackMessage,
		}, nil
	}

	a.logger.Info("resource search completed", map[string]interface{}{
		"sessionId": s.SessionID,
		"keyword":   in.Keyword,
		"count":     len(providers),
	})

	return map[string]interface{}{
		"resources": providers,
		"count":     len(providers),
	}, nil
}
