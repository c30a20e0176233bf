package api

import (
	"fmt"
	"sort"

	"github.com/mattjoyce/crewtool/internal/crew"
)

// buildOpenAPIDoc returns an OpenAPI 3.1 document with one invoke operation
// per crew.
func buildOpenAPIDoc(crews []crew.Info) map[string]any {
	sorted := append([]crew.Info(nil), crews...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Package != sorted[j].Package {
			return sorted[i].Package < sorted[j].Package
		}
		return sorted[i].Name < sorted[j].Name
	})

	paths := map[string]any{}
	for _, c := range sorted {
		paths[fmt.Sprintf("/crews/%s/%s/invoke", c.Package, c.Name)] = map[string]any{
			"post": invokeOperation(c),
		}
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "crewtool",
			"version": "1.0",
		},
		"paths": paths,
		"security": []any{
			map[string]any{"BearerAuth": []string{}},
		},
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"BearerAuth": map[string]any{
					"type":   "http",
					"scheme": "bearer",
				},
			},
			"schemas": map[string]any{
				"InvokeRequest": invokeRequestSchema(),
				"CrewResult":    crewResultSchema(),
			},
		},
	}
}

func invokeOperation(c crew.Info) map[string]any {
	summary := c.Description
	if summary == "" {
		summary = fmt.Sprintf("Invoke %s.%s", c.Package, c.Name)
	}
	return map[string]any{
		"operationId": fmt.Sprintf("%s__%s", c.Package, c.Name),
		"summary":     summary,
		"tags":        []string{c.Package},
		"requestBody": map[string]any{
			"required": false,
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": "#/components/schemas/InvokeRequest"},
				},
			},
		},
		"responses": map[string]any{
			"200": resultResponse("Crew ran; check success and error_category"),
			"400": resultResponse("Invalid request"),
			"401": map[string]any{"description": "Unauthorized"},
			"503": map[string]any{"description": "Too many concurrent invocations"},
		},
	}
}

func resultResponse(description string) map[string]any {
	return map[string]any{
		"description": description,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/CrewResult"},
			},
		},
	}
}

func invokeRequestSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input":      map[string]any{"type": "string"},
			"timeout_ms": map[string]any{"type": "integer", "minimum": 0},
			"env": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
	}
}

func crewResultSchema() map[string]any {
	categories := make([]string, 0, len(crew.Categories))
	for _, c := range crew.Categories {
		categories = append(categories, string(c))
	}
	return map[string]any{
		"type":     "object",
		"required": []string{"id", "success", "duration_ms"},
		"properties": map[string]any{
			"id":             map[string]any{"type": "string"},
			"success":        map[string]any{"type": "boolean"},
			"output":         map[string]any{"type": "string"},
			"error":          map[string]any{"type": "string"},
			"error_category": map[string]any{"type": "string", "enum": categories},
			"exit_code":      map[string]any{"type": "integer"},
			"duration_ms":    map[string]any{"type": "integer"},
		},
	}
}
