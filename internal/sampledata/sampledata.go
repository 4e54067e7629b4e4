// Package sampledata provides the demonstration get_sample_data tool and the
// sample://data resource.
// file: internal/sampledata/sampledata.go
package sampledata

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkoosis/headlines/internal/mcp"
)

const (
	// ToolName is the registered name of the sample tool.
	ToolName = "get_sample_data"
	// ResourceURI identifies the static sample resource.
	ResourceURI = "sample://data"

	defaultCount = 5
	maxCount     = 100
)

// resourceJSON is the fixed body of sample://data.
const resourceJSON = `{"message":"This is sample data from the MCP server","items":[{"id":1,"name":"Item 1","value":10},{"id":2,"name":"Item 2","value":20},{"id":3,"name":"Item 3","value":30}],"total":3}`

// Args are the decoded get_sample_data arguments.
type Args struct {
	Count int `json:"count"`
}

// Record is one synthetic item.
type Record struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Generate returns count records numbered from 1.
func Generate(count int) []Record {
	if count < 0 {
		count = 0
	}
	records := make([]Record, count)
	for i := range records {
		id := i + 1
		records[i] = Record{ID: id, Name: fmt.Sprintf("Item %d", id), Value: id * 10}
	}
	return records
}

// Render formats records as the tool's text output.
func Render(records []Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generated %d sample records:", len(records))
	for _, r := range records {
		fmt.Fprintf(&sb, "\n%d. %s (value: %d)", r.ID, r.Name, r.Value)
	}
	return sb.String()
}

// Tool returns the get_sample_data registration.
func Tool() mcp.Tool {
	return mcp.Tool{
		Descriptor: mcp.ToolDescriptor{
			Name:        ToolName,
			Description: "Generate sample data records for testing.",
			InputSchema: mcp.MustMarshalJSON(map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"count": map[string]interface{}{
						"type":        "integer",
						"default":     defaultCount,
						"minimum":     0,
						"maximum":     maxCount,
						"description": "Number of records to generate",
					},
				},
			}),
		},
		Handler: mcp.TypedHandler(func(_ context.Context, args Args) (mcp.CallToolResult, error) {
			return mcp.TextResult(Render(Generate(args.Count))), nil
		}),
	}
}

// Resource returns the sample://data registration.
func Resource() mcp.Resource {
	return mcp.Resource{
		Descriptor: mcp.ResourceDescriptor{
			URI:         ResourceURI,
			Name:        "Sample Data",
			Description: "Static sample dataset in JSON form.",
			MimeType:    "application/json",
		},
		Read: func(context.Context) (string, error) {
			return resourceJSON, nil
		},
	}
}
