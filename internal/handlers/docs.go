package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the taxi analytics API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	filterParams := []map[string]interface{}{
		{
			"name":        "start_date",
			"in":          "query",
			"description": "First pickup date, inclusive (YYYY-MM-DD)",
			"required":    false,
			"schema":      map[string]string{"type": "string", "format": "date"},
		},
		{
			"name":        "end_date",
			"in":          "query",
			"description": "Last pickup date, inclusive (YYYY-MM-DD)",
			"required":    false,
			"schema":      map[string]string{"type": "string", "format": "date"},
		},
		{
			"name":        "hour_min",
			"in":          "query",
			"description": "Earliest pickup hour, 0-23",
			"required":    false,
			"schema":      map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 23},
		},
		{
			"name":        "hour_max",
			"in":          "query",
			"description": "Latest pickup hour, 0-23",
			"required":    false,
			"schema":      map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 23},
		},
		{
			"name":        "payment_types",
			"in":          "query",
			"description": "Comma-separated TLC payment type codes",
			"required":    false,
			"schema":      map[string]string{"type": "string"},
		},
		{
			"name":        "pickup_zones",
			"in":          "query",
			"description": "Comma-separated TLC pickup zone ids",
			"required":    false,
			"schema":      map[string]string{"type": "string"},
		},
	}

	aggregate := func(summary, description string) map[string]interface{} {
		return map[string]interface{}{
			"get": map[string]interface{}{
				"summary":     summary,
				"description": description,
				"parameters":  filterParams,
				"responses": map[string]interface{}{
					"200": map[string]string{"description": "Aggregate result"},
					"400": map[string]string{"description": "Malformed filter"},
				},
			},
		}
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "NYC Yellow Taxi Analytics API",
			"description": "Aggregate analytics over one month of yellow taxi trip records with dashboard filter parameters",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/trips": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List trip records",
					"description": "Paginated raw trip rows matching the filter",
					"parameters": append(filterParams, []map[string]interface{}{
						{
							"name":     "page",
							"in":       "query",
							"required": false,
							"schema":   map[string]interface{}{"type": "integer", "default": 1},
						},
						{
							"name":     "limit",
							"in":       "query",
							"required": false,
							"schema":   map[string]interface{}{"type": "integer", "default": 100, "maximum": 1000},
						},
					}...),
					"responses": map[string]interface{}{
						"200": map[string]string{"description": "Paginated trip records"},
						"400": map[string]string{"description": "Malformed filter"},
					},
				},
			},
			"/api/analytics/summary":  aggregate("Headline measures", "Trip count, average fare, total revenue, average distance and duration"),
			"/api/analytics/hourly":   aggregate("Trips by pickup hour", "Trip volume and average fare per hour 0-23"),
			"/api/analytics/weekdays": aggregate("Trips by weekday", "Trip volume per weekday, Monday first"),
			"/api/analytics/fares":    aggregate("Fare distribution", "Fare histogram in fixed-width buckets"),
			"/api/analytics/payments": aggregate("Payment type breakdown", "Trip count and revenue per TLC payment type"),
			"/api/analytics/zones":    aggregate("Zone activity", "Top pickup zones and pickup-to-dropoff pairs"),
			"/api/meta": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Dataset metadata",
					"description": "Pickup date bounds and payment types present in the loaded dataset",
					"responses": map[string]interface{}{
						"200": map[string]string{"description": "Dataset metadata"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": map[string]string{"description": "Service healthy"},
						"503": map[string]string{"description": "Database unreachable"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
