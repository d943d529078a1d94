package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for kbase resources.
	uriScheme = "kbase://"

	// CollectionURI addresses the collection description.
	CollectionURI = uriScheme + "collection"
)

// collectionInfo is the JSON shape of the collection resource.
type collectionInfo struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Count     int    `json:"count"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         CollectionURI,
		Name:        "collection",
		Description: "Name, vector size, distance metric and document count of the knowledge base",
		MIMEType:    "application/json",
	}, s.handleCollectionResource)
}

func (s *Server) handleCollectionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	info, err := s.ports.Retrieval.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading collection: %w", err)
	}

	data, err := json.MarshalIndent(collectionInfo{
		Name:      info.Name,
		Dimension: info.Dimension,
		Metric:    info.Metric.String(),
		Count:     info.Count,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling collection: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
