package mcp

import (
	"encoding/json"
	"net/http"

	"shopmcp/internal/widget"
)

func (s *Server) handleResourcesList(w http.ResponseWriter, id interface{}) {
	resources := make([]map[string]interface{}, 0, len(s.widgets.All))
	for _, wd := range s.widgets.All {
		resources = append(resources, map[string]interface{}{
			"uri":         wd.TemplateURI,
			"name":        wd.Title,
			"description": wd.Description,
			"mimeType":    widget.MIMEType,
			"_meta":       widgetMeta(wd),
		})
	}
	writeResult(w, http.StatusOK, id, map[string]interface{}{"resources": resources})
}

func (s *Server) handleResourceTemplatesList(w http.ResponseWriter, id interface{}) {
	templates := make([]map[string]interface{}, 0, len(s.widgets.All))
	for _, wd := range s.widgets.All {
		templates = append(templates, map[string]interface{}{
			"uriTemplate": wd.TemplateURI,
			"name":        wd.Title,
			"description": wd.Description,
			"mimeType":    widget.MIMEType,
			"_meta":       widgetMeta(wd),
		})
	}
	writeResult(w, http.StatusOK, id, map[string]interface{}{"resourceTemplates": templates})
}

type resourcesReadParams struct {
	URI string `json:"uri"`
}

func (s *Server) handleResourcesRead(w http.ResponseWriter, params json.RawMessage, id interface{}) {
	var read resourcesReadParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &read); err != nil {
			writeError(w, http.StatusOK, id, -32602, "invalid resources/read params: "+err.Error())
			return
		}
	}

	wd, ok := s.widgets.ByURI[read.URI]
	if !ok {
		writeError(w, http.StatusOK, id, -32002, "unknown resource: "+read.URI)
		return
	}

	writeResult(w, http.StatusOK, id, map[string]interface{}{
		"contents": []map[string]interface{}{{
			"uri":      wd.TemplateURI,
			"mimeType": widget.MIMEType,
			"text":     wd.HTML,
			"_meta":    widgetMeta(wd),
		}},
	})
}
